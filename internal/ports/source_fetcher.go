package ports

import (
	"context"

	"github.com/aiproductguy/lightpipe/internal/domain"
)

// SourceFetcher writes a parsed source into destDir.
type SourceFetcher interface {
	Fetch(ctx context.Context, src domain.Source, destDir string) (domain.FetchResult, error)
}
