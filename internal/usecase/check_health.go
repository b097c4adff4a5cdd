package usecase

import (
	"context"
	"fmt"

	"github.com/aiproductguy/lightpipe/internal/domain"
	"github.com/aiproductguy/lightpipe/internal/ports"
)

type CheckHealth struct {
	prober ports.HealthProber
}

func NewCheckHealth(p ports.HealthProber) *CheckHealth {
	return &CheckHealth{prober: p}
}

// Execute returns an execution error when the server is unreachable or unhealthy.
func (uc *CheckHealth) Execute(ctx context.Context, url string) (domain.HealthResult, error) {
	res, err := uc.prober.Probe(ctx, url)
	if err != nil {
		return res, err
	}
	if !res.Healthy {
		return res, &domain.OpError{
			Op:   "health.check",
			Kind: domain.KindExecution,
			Path: url,
			Err:  fmt.Errorf("%w: %s", domain.ErrExecution, res.Message),
		}
	}
	return res, nil
}
