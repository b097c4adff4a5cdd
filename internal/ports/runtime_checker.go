package ports

import (
	"context"

	"github.com/aiproductguy/lightpipe/internal/domain"
)

// RuntimeChecker verifies that the required interpreter is present and recent enough.
type RuntimeChecker interface {
	Check(ctx context.Context) (domain.RuntimeInfo, error)
}
