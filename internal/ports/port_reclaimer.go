package ports

import (
	"context"

	"github.com/aiproductguy/lightpipe/internal/domain"
)

// PortReclaimer terminates whatever process is listening on a TCP port.
type PortReclaimer interface {
	Reclaim(ctx context.Context, port int) (domain.PortReclaim, error)
}
