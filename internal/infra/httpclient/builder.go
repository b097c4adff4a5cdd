package httpclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/aiproductguy/lightpipe/internal/domain"
)

// BuildGet builds a GET request for an absolute http(s) URL.
func BuildGet(ctx context.Context, rawURL string, headers map[string]string) (*http.Request, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, &domain.OpError{
			Op:   "httpclient.build",
			Kind: domain.KindInvalidConfig,
			Err:  domain.ErrInvalidConfig,
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		if err == nil {
			err = domain.ErrInvalidSource
		}
		return nil, &domain.OpError{
			Op:   "httpclient.build",
			Kind: domain.KindInvalidSource,
			Path: rawURL,
			Err:  err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &domain.OpError{
			Op:   "httpclient.build",
			Kind: domain.KindInvalidConfig,
			Path: rawURL,
			Err:  err,
		}
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}
