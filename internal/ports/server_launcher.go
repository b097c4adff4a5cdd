package ports

import (
	"context"

	"github.com/aiproductguy/lightpipe/internal/domain"
)

// ServerLauncher runs the application server in the foreground until it exits.
type ServerLauncher interface {
	Launch(ctx context.Context, spec domain.LaunchSpec) error
}
