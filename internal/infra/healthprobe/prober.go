// Package healthprobe checks that a launched server answers over HTTP.
package healthprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"

	"github.com/aiproductguy/lightpipe/internal/domain"
	"github.com/aiproductguy/lightpipe/internal/infra/httpclient"
	"github.com/aiproductguy/lightpipe/internal/ports"
)

// DefaultExpect is the JSONPath checked when none is configured.
const DefaultExpect = "$.status"

type Prober struct {
	exec   *httpclient.Executor
	expect string
}

type Option func(*Prober)

// WithExpect sets the JSONPath that must be truthy; "" disables the body check.
func WithExpect(expr string) Option {
	return func(p *Prober) { p.expect = strings.TrimSpace(expr) }
}

func WithExecutor(e *httpclient.Executor) Option {
	return func(p *Prober) {
		if e != nil {
			p.exec = e
		}
	}
}

func New(opts ...Option) *Prober {
	p := &Prober{
		exec:   httpclient.NewExecutor(),
		expect: DefaultExpect,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ ports.HealthProber = (*Prober)(nil)

// Probe returns an error only when no HTTP response was obtained.
func (p *Prober) Probe(ctx context.Context, rawURL string) (domain.HealthResult, error) {
	res := domain.HealthResult{URL: rawURL}

	req, err := httpclient.BuildGet(ctx, rawURL, map[string]string{"Accept": "application/json"})
	if err != nil {
		return res, err
	}

	data, err := p.exec.Do(ctx, req)
	res.LatencyMS = data.Duration.Milliseconds()
	if err != nil {
		res.Message = err.Error()
		return res, &domain.OpError{Op: "health.probe", Kind: domain.KindExecution, Path: rawURL, Err: err}
	}
	res.StatusCode = data.Status

	if data.Status < 200 || data.Status > 299 {
		res.Message = fmt.Sprintf("unexpected status %d", data.Status)
		return res, nil
	}
	if p.expect == "" {
		res.Healthy = true
		res.Message = fmt.Sprintf("status %d", data.Status)
		return res, nil
	}

	if data.Truncated {
		res.Message = fmt.Sprintf("response body exceeds %d bytes", len(data.BodyBytes))
		return res, nil
	}

	var doc any
	if err := json.Unmarshal(data.BodyBytes, &doc); err != nil {
		res.Message = "response body is not valid JSON"
		return res, nil
	}
	val, err := jsonpath.Get(p.expect, doc)
	if err != nil {
		res.Message = fmt.Sprintf("%s: %v", p.expect, err)
		return res, nil
	}
	if !truthy(val) {
		res.Message = fmt.Sprintf("%s is %v", p.expect, val)
		return res, nil
	}

	res.Healthy = true
	res.Message = fmt.Sprintf("status %d, %s=%v", data.Status, p.expect, val)
	return res, nil
}

// URL builds the probe address for a server bound to host:port. Wildcard
// binds are probed on loopback.
func URL(host string, port int, path string) string {
	switch strings.TrimSpace(host) {
	case "", "0.0.0.0":
		host = "127.0.0.1"
	case "::", "[::]":
		host = "::1"
	}
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")

	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := url.URL{Scheme: "http", Host: net.JoinHostPort(host, strconv.Itoa(port)), Path: path}
	return u.String()
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s != "" && s != "false" && s != "0"
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return true
}
