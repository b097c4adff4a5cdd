package usecase

import (
	"context"
	"log/slog"

	"github.com/aiproductguy/lightpipe/internal/domain"
	"github.com/aiproductguy/lightpipe/internal/ports"
)

// FetchSources populates the pipelines directory from source locations.
type FetchSources struct {
	dir     ports.PipelinesDir
	fetcher ports.SourceFetcher
	log     *slog.Logger
}

func NewFetchSources(dir ports.PipelinesDir, fetcher ports.SourceFetcher, log *slog.Logger) *FetchSources {
	return &FetchSources{dir: dir, fetcher: fetcher, log: orDiscard(log)}
}

// Execute parses every location first; nothing is reset or written unless
// all of them are valid.
func (uc *FetchSources) Execute(ctx context.Context, cfg domain.PipelinesConfig) ([]domain.FetchResult, error) {
	sources, err := domain.ParseSources(cfg.URLs)
	if err != nil {
		return nil, err
	}

	if cfg.Reset {
		if _, err := uc.Reset(cfg.Dir); err != nil {
			return nil, err
		}
	}
	return uc.Fetch(ctx, cfg.Dir, sources)
}

// Reset empties the directory. A missing directory is logged and left alone.
func (uc *FetchSources) Reset(dir string) (bool, error) {
	done, err := uc.dir.Reset(dir)
	if err != nil {
		return false, err
	}
	if done {
		uc.log.Info("pipelines.reset", "dir", dir)
	} else {
		uc.log.Info("pipelines.reset.skipped", "dir", dir, "reason", "directory does not exist")
	}
	return done, nil
}

// Fetch writes already-parsed sources into dir, stopping at the first failure.
func (uc *FetchSources) Fetch(ctx context.Context, dir string, sources []domain.Source) ([]domain.FetchResult, error) {
	if err := uc.dir.Ensure(dir); err != nil {
		return nil, err
	}

	out := make([]domain.FetchResult, 0, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		uc.log.Info("fetch.start", "kind", src.Kind, "source", src.Raw)
		res, err := uc.fetcher.Fetch(ctx, src, dir)
		if err != nil {
			return out, err
		}
		uc.log.Info("fetch.done", "source", src.Raw, "files", len(res.Files), "bytes", res.Bytes)
		out = append(out, res)
	}
	return out, nil
}
