package fspipelines

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/aiproductguy/lightpipe/internal/domain"
	"github.com/aiproductguy/lightpipe/internal/ports"
)

// Dir manages the pipelines directory on the local filesystem.
type Dir struct{}

func NewDir() *Dir {
	return &Dir{}
}

var _ ports.PipelinesDir = (*Dir)(nil)

// Reset empties dir and recreates it. A missing dir is left alone and
// reported as not reset.
func (d *Dir) Reset(dir string) (bool, error) {
	dir = filepath.Clean(dir)

	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, &domain.OpError{Op: "pipelines.reset", Kind: domain.KindExecution, Path: dir, Err: err}
	}
	if !info.IsDir() {
		return false, &domain.OpError{
			Op:   "pipelines.reset",
			Kind: domain.KindInvalidConfig,
			Path: dir,
			Err:  fmt.Errorf("%w: pipelines path is not a directory", domain.ErrInvalidConfig),
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		return false, &domain.OpError{Op: "pipelines.reset", Kind: domain.KindExecution, Path: dir, Err: err}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, &domain.OpError{Op: "pipelines.reset", Kind: domain.KindExecution, Path: dir, Err: err}
	}
	return true, nil
}

func (d *Dir) Ensure(dir string) error {
	if err := os.MkdirAll(filepath.Clean(dir), 0o755); err != nil {
		return &domain.OpError{Op: "pipelines.ensure", Kind: domain.KindExecution, Path: dir, Err: err}
	}
	return nil
}

// List returns the regular files directly inside dir, sorted by name.
func (d *Dir) List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		kind := domain.KindExecution
		if errors.Is(err, fs.ErrNotExist) {
			kind = domain.KindNotFound
		}
		return nil, &domain.OpError{Op: "pipelines.list", Kind: kind, Path: dir, Err: err}
	}

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}
