// Package gitsparse fetches a single subdirectory of a git repository with a
// shallow, single-branch clone. Only the files of that subdirectory are
// written to the working directory.
package gitsparse

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/aiproductguy/lightpipe/internal/domain"
)

type Cloner struct {
	depth    int
	progress io.Writer
}

type Option func(*Cloner)

// WithDepth sets the clone depth; 0 fetches full history.
func WithDepth(n int) Option {
	return func(c *Cloner) { c.depth = n }
}

// WithProgress streams remote progress messages to w.
func WithProgress(w io.Writer) Option {
	return func(c *Cloner) { c.progress = w }
}

func New(opts ...Option) *Cloner {
	c := &Cloner{depth: 1}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SparseClone clones repo at ref into dir and checks out only subdir.
// An empty ref uses the remote's default branch; an empty subdir writes the whole tree.
// ref is tried as a branch first, then as a tag.
func (c *Cloner) SparseClone(ctx context.Context, repo, ref, subdir, dir string) error {
	subdir = strings.Trim(subdir, "/")

	r, err := c.clone(ctx, repo, branchOrEmpty(ref), dir)
	if err != nil && ref != "" && isNoMatchingRef(err) {
		if rmErr := resetDir(dir); rmErr != nil {
			return &domain.OpError{Op: "gitsparse.clone", Kind: domain.KindExecution, Path: dir, Err: rmErr}
		}
		r, err = c.clone(ctx, repo, plumbing.NewTagReferenceName(ref), dir)
	}
	if err != nil {
		return &domain.OpError{Op: "gitsparse.clone", Kind: domain.KindExecution, Path: repo, Err: err}
	}

	head, err := r.Head()
	if err != nil {
		return &domain.OpError{Op: "gitsparse.head", Kind: domain.KindExecution, Path: repo, Err: err}
	}
	commit, err := r.CommitObject(head.Hash())
	if err != nil {
		return &domain.OpError{Op: "gitsparse.commit", Kind: domain.KindExecution, Path: repo, Err: err}
	}
	tree, err := commit.Tree()
	if err != nil {
		return &domain.OpError{Op: "gitsparse.tree", Kind: domain.KindExecution, Path: repo, Err: err}
	}
	if subdir != "" {
		tree, err = tree.Tree(subdir)
		if errors.Is(err, object.ErrDirectoryNotFound) || errors.Is(err, object.ErrEntryNotFound) {
			return &domain.OpError{Op: "gitsparse.checkout", Kind: domain.KindNotFound, Path: subdir, Err: domain.ErrNotFound}
		}
		if err != nil {
			return &domain.OpError{Op: "gitsparse.tree", Kind: domain.KindExecution, Path: subdir, Err: err}
		}
	}

	if err := writeTree(ctx, tree, SubdirPath(dir, subdir)); err != nil {
		return &domain.OpError{Op: "gitsparse.checkout", Kind: domain.KindExecution, Path: subdir, Err: err}
	}
	return nil
}

// writeTree writes the blobs of tree under dest. Only the selected subtree
// ever reaches the disk; the clone itself is made without a checkout.
func writeTree(ctx context.Context, tree *object.Tree, dest string) error {
	return tree.Files().ForEach(func(f *object.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if f.Mode == filemode.Symlink || f.Mode == filemode.Submodule {
			return nil
		}
		return writeFile(f, joinSubdir(dest, f.Name))
	})
}

func writeFile(f *object.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	perm := os.FileMode(0o644)
	if f.Mode == filemode.Executable {
		perm = 0o755
	}

	rc, err := f.Reader()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func (c *Cloner) clone(ctx context.Context, repo string, ref plumbing.ReferenceName, dir string) (*git.Repository, error) {
	return git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:           repo,
		ReferenceName: ref,
		SingleBranch:  true,
		Depth:         c.depth,
		NoCheckout:    true,
		Tags:          git.NoTags,
		Progress:      c.progress,
	})
}

func branchOrEmpty(ref string) plumbing.ReferenceName {
	if ref == "" {
		return ""
	}
	return plumbing.NewBranchReferenceName(ref)
}

func isNoMatchingRef(err error) bool {
	return errors.Is(err, git.NoMatchingRefSpecError{}) || errors.Is(err, plumbing.ErrReferenceNotFound)
}

func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}
