// Package domain contains the core model for lightpipe.
//
// The domain is transport- and process-agnostic: it does not depend on net/http,
// os/exec, git or the filesystem. Infra/adapters map into/from these types.
package domain
