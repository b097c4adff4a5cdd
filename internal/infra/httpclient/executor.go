package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aiproductguy/lightpipe/internal/domain"
)

const defaultMaxBodyBytes = 256 * 1024 // 256KB

// ResponseData captures a bounded response body and duration.
type ResponseData struct {
	Status    int
	Headers   http.Header
	BodyBytes []byte
	Truncated bool
	Duration  time.Duration
}

// Executor executes HTTP requests with timing.
type Executor struct {
	client       *http.Client
	timeout      time.Duration
	maxBodyBytes int64
}

// ExecutorOption allows configuring an Executor.
type ExecutorOption func(*Executor)

// WithTimeout sets the default timeout applied to requests.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) { e.timeout = timeout }
}

// WithClient sets a custom HTTP client.
func WithClient(client *http.Client) ExecutorOption {
	return func(e *Executor) { e.client = client }
}

// WithMaxBodyBytes bounds the body kept by Do; n <= 0 keeps the default.
// Downloads are not bounded.
func WithMaxBodyBytes(n int64) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.maxBodyBytes = n
		}
	}
}

// NewExecutor builds an Executor with a default client and timeout.
func NewExecutor(opts ...ExecutorOption) *Executor {
	cfg := DefaultConfig()
	e := &Executor{
		client:       New(cfg),
		timeout:      cfg.Timeout,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Do executes the request and returns bounded response data plus duration.
func (e *Executor) Do(ctx context.Context, req *http.Request) (ResponseData, error) {
	start := time.Now()
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	resp, err := e.client.Do(req.WithContext(ctx))
	duration := time.Since(start)
	if err != nil {
		return ResponseData{Duration: duration}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBodyBytes+1))
	if err != nil {
		return ResponseData{Duration: duration}, err
	}

	truncated := int64(len(body)) > e.maxBodyBytes
	if truncated {
		body = body[:e.maxBodyBytes]
	}

	return ResponseData{
		Status:    resp.StatusCode,
		Headers:   resp.Header.Clone(),
		BodyBytes: body,
		Truncated: truncated,
		Duration:  time.Since(start),
	}, nil
}

// Download streams the response body of a GET to dst. The file is written to a
// temporary name in dst's directory and renamed into place only on success.
func (e *Executor) Download(ctx context.Context, rawURL, dst string) (int64, error) {
	req, err := BuildGet(ctx, rawURL, nil)
	if err != nil {
		return 0, err
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	resp, err := e.client.Do(req.WithContext(ctx))
	if err != nil {
		return 0, &domain.OpError{Op: "httpclient.download", Kind: domain.KindExecution, Path: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &domain.OpError{
			Op:   "httpclient.download",
			Kind: domain.KindExecution,
			Path: rawURL,
			Err:  fmt.Errorf("%w: unexpected status %s", domain.ErrExecution, resp.Status),
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.part")
	if err != nil {
		return 0, &domain.OpError{Op: "httpclient.download", Kind: domain.KindExecution, Path: dst, Err: err}
	}
	tmpName := tmp.Name()

	n, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		_ = os.Remove(tmpName)
		return 0, &domain.OpError{Op: "httpclient.download", Kind: domain.KindExecution, Path: rawURL, Err: copyErr}
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return 0, &domain.OpError{Op: "httpclient.download", Kind: domain.KindExecution, Path: dst, Err: err}
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return 0, &domain.OpError{Op: "httpclient.download", Kind: domain.KindExecution, Path: dst, Err: err}
	}

	return n, nil
}

func (e *Executor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout > 0 {
		return context.WithTimeout(ctx, e.timeout)
	}
	return ctx, func() {}
}
