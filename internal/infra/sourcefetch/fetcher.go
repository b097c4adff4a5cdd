package sourcefetch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/aiproductguy/lightpipe/internal/domain"
	"github.com/aiproductguy/lightpipe/internal/infra/gitsparse"
	"github.com/aiproductguy/lightpipe/internal/ports"
)

// Downloader streams a URL into a file.
type Downloader interface {
	Download(ctx context.Context, rawURL, dst string) (int64, error)
}

// TreeCloner produces a sparse checkout of subdir under dir.
type TreeCloner interface {
	SparseClone(ctx context.Context, repo, ref, subdir, dir string) error
}

type Fetcher struct {
	downloader Downloader
	cloner     TreeCloner
	stagingDir string
}

type Option func(*Fetcher)

// WithStagingDir sets where tree checkouts are staged before being copied; defaults to os.TempDir().
func WithStagingDir(dir string) Option {
	return func(f *Fetcher) { f.stagingDir = dir }
}

func New(d Downloader, c TreeCloner, opts ...Option) *Fetcher {
	f := &Fetcher{downloader: d, cloner: c}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

var _ ports.SourceFetcher = (*Fetcher)(nil)

func (f *Fetcher) Fetch(ctx context.Context, src domain.Source, destDir string) (domain.FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.FetchResult{}, err
	}

	switch src.Kind {
	case domain.SourceBlob, domain.SourceDirect:
		return f.fetchFile(ctx, src, destDir)
	case domain.SourceLocal:
		return f.copyLocal(src, destDir)
	case domain.SourceTree:
		return f.fetchTree(ctx, src, destDir)
	default:
		return domain.FetchResult{}, &domain.OpError{
			Op:   "sourcefetch.fetch",
			Kind: domain.KindInvalidSource,
			Path: src.Raw,
			Err:  fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidSource, src.Kind),
		}
	}
}

func (f *Fetcher) fetchFile(ctx context.Context, src domain.Source, destDir string) (domain.FetchResult, error) {
	dst := filepath.Join(destDir, src.FileName)
	n, err := f.downloader.Download(ctx, src.URL, dst)
	if err != nil {
		return domain.FetchResult{}, err
	}
	return domain.FetchResult{Source: src, Files: []string{dst}, Bytes: n}, nil
}

func (f *Fetcher) copyLocal(src domain.Source, destDir string) (domain.FetchResult, error) {
	dst := filepath.Join(destDir, src.FileName)

	srcAbs, _ := filepath.Abs(src.URL)
	dstAbs, _ := filepath.Abs(dst)
	if srcAbs == dstAbs {
		info, err := os.Stat(srcAbs)
		if err != nil {
			return domain.FetchResult{}, &domain.OpError{Op: "sourcefetch.local", Kind: domain.KindNotFound, Path: src.URL, Err: err}
		}
		return domain.FetchResult{Source: src, Files: []string{dst}, Bytes: info.Size()}, nil
	}

	n, err := copyFile(src.URL, dst, 0o644)
	if err != nil {
		kind := domain.KindExecution
		if os.IsNotExist(err) {
			kind = domain.KindNotFound
		}
		return domain.FetchResult{}, &domain.OpError{Op: "sourcefetch.local", Kind: kind, Path: src.URL, Err: err}
	}
	return domain.FetchResult{Source: src, Files: []string{dst}, Bytes: n}, nil
}

func (f *Fetcher) fetchTree(ctx context.Context, src domain.Source, destDir string) (domain.FetchResult, error) {
	staging, err := os.MkdirTemp(f.stagingDir, "lightpipe-clone-*")
	if err != nil {
		return domain.FetchResult{}, &domain.OpError{Op: "sourcefetch.tree", Kind: domain.KindExecution, Path: f.stagingDir, Err: err}
	}
	defer os.RemoveAll(staging)

	checkout := filepath.Join(staging, "repo")
	if err := f.cloner.SparseClone(ctx, src.Repo, src.Ref, src.Subdir, checkout); err != nil {
		return domain.FetchResult{}, err
	}

	root := gitsparse.SubdirPath(checkout, src.Subdir)
	files, n, err := copyTree(root, destDir)
	if err != nil {
		return domain.FetchResult{}, &domain.OpError{Op: "sourcefetch.tree", Kind: domain.KindExecution, Path: destDir, Err: err}
	}
	return domain.FetchResult{Source: src, Files: files, Bytes: n}, nil
}

// copyTree copies root's contents into destDir, skipping .git. It returns the
// written file paths, sorted.
func copyTree(root, destDir string) ([]string, int64, error) {
	var files []string
	var total int64

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		dst := filepath.Join(destDir, rel)

		if d.IsDir() {
			return os.MkdirAll(dst, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		n, err := copyFile(p, dst, info.Mode().Perm())
		if err != nil {
			return err
		}
		files = append(files, dst)
		total += n
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Strings(files)
	return files, total, nil
}

func copyFile(src, dst string, mode fs.FileMode) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return n, err
}
