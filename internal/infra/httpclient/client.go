package httpclient

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/aiproductguy/lightpipe/internal/buildinfo"
)

type Config struct {
	// Total timeout for a request, including redirects and reading the body.
	// Downloads of large files may need a larger value; a context deadline still applies.
	Timeout time.Duration

	DialTimeout     time.Duration
	KeepAlive       time.Duration
	TLSHandshake    time.Duration
	ResponseHeader  time.Duration
	IdleConnTimeout time.Duration

	MaxIdleConns int
	MaxRedirects int

	UserAgent string
}

func DefaultConfig() Config {
	return Config{
		Timeout:         5 * time.Minute,
		DialTimeout:     10 * time.Second,
		KeepAlive:       30 * time.Second,
		TLSHandshake:    10 * time.Second,
		ResponseHeader:  30 * time.Second,
		IdleConnTimeout: 90 * time.Second,
		MaxIdleConns:    10,
		MaxRedirects:    10,
		UserAgent:       "lightpipe/" + buildinfo.Version,
	}
}

func New(cfg Config) *http.Client {
	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: cfg.KeepAlive,
	}

	tr := &http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: dialer.DialContext,

		ForceAttemptHTTP2: true,

		MaxIdleConns:    cfg.MaxIdleConns,
		IdleConnTimeout: cfg.IdleConnTimeout,

		TLSHandshakeTimeout:   cfg.TLSHandshake,
		ResponseHeaderTimeout: cfg.ResponseHeader,
	}

	maxRedirects := cfg.MaxRedirects
	return &http.Client{
		Transport: &userAgentTransport{base: tr, ua: cfg.UserAgent},
		Timeout:   cfg.Timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

type userAgentTransport struct {
	base http.RoundTripper
	ua   string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.ua == "" || req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.ua)
	return t.base.RoundTrip(r)
}
