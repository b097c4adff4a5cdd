package ports

import (
	"context"

	"github.com/aiproductguy/lightpipe/internal/domain"
)

type HealthProber interface {
	Probe(ctx context.Context, url string) (domain.HealthResult, error)
}
