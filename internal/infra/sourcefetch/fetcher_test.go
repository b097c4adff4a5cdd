package sourcefetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/aiproductguy/lightpipe/internal/domain"
	"github.com/aiproductguy/lightpipe/internal/infra/httpclient"
)

type fakeCloner struct {
	files map[string]string // repo-relative path -> content
	got   struct{ repo, ref, subdir string }
	err   error
}

// SparseClone materializes only the files under subdir, like a sparse checkout.
func (c *fakeCloner) SparseClone(_ context.Context, repo, ref, subdir, dir string) error {
	c.got.repo, c.got.ref, c.got.subdir = repo, ref, subdir
	if c.err != nil {
		return c.err
	}
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0o755); err != nil {
		return err
	}
	for name, body := range c.files {
		if subdir != "" && !hasPrefixDir(name, subdir) {
			continue
		}
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func hasPrefixDir(name, dir string) bool {
	return len(name) > len(dir) && name[:len(dir)] == dir && name[len(dir)] == '/'
}

func TestFetch_BlobWritesSingleFileWithBasename(t *testing.T) {
	var gotRaw string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRaw = r.URL.Query().Get("raw")
		_, _ = w.Write([]byte("class Pipeline: pass\n"))
	}))
	defer server.Close()

	src := domain.Source{
		Raw:      "https://github.com/o/r/blob/main/examples/hello.py",
		Kind:     domain.SourceBlob,
		URL:      server.URL + "/o/r/blob/main/examples/hello.py?raw=true",
		FileName: "hello.py",
	}

	dest := t.TempDir()
	f := New(httpclient.NewExecutor(), &fakeCloner{})
	res, err := f.Fetch(context.Background(), src, dest)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if gotRaw != "true" {
		t.Fatalf("expected raw=true query, got %q", gotRaw)
	}

	entries, err := os.ReadDir(dest)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "hello.py" {
		t.Fatalf("expected exactly hello.py in dest, got %v", entries)
	}
	if len(res.Files) != 1 || res.Files[0] != filepath.Join(dest, "hello.py") {
		t.Fatalf("unexpected result files %v", res.Files)
	}
}

func TestFetch_TreeCopiesOnlySubdirContents(t *testing.T) {
	cloner := &fakeCloner{files: map[string]string{
		"examples/rag/a.py":      "a",
		"examples/rag/lib/b.py":  "b",
		"examples/other/skip.py": "skip",
	}}

	src, err := domain.ParseSource("https://github.com/o/r/tree/main/examples/rag")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	dest := t.TempDir()
	staging := t.TempDir()
	f := New(httpclient.NewExecutor(), cloner, WithStagingDir(staging))

	res, err := f.Fetch(context.Background(), src, dest)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	if cloner.got.repo != "https://github.com/o/r" || cloner.got.ref != "main" || cloner.got.subdir != "examples/rag" {
		t.Fatalf("unexpected clone args %+v", cloner.got)
	}

	want := []string{filepath.Join(dest, "a.py"), filepath.Join(dest, "lib", "b.py")}
	if len(res.Files) != len(want) {
		t.Fatalf("expected files %v, got %v", want, res.Files)
	}
	for i := range want {
		if res.Files[i] != want[i] {
			t.Fatalf("expected files %v, got %v", want, res.Files)
		}
	}
	if _, err := os.Stat(filepath.Join(dest, "skip.py")); !os.IsNotExist(err) {
		t.Fatalf("file outside subdir must not be copied")
	}
	if _, err := os.Stat(filepath.Join(dest, ".git")); !os.IsNotExist(err) {
		t.Fatalf(".git must not be copied")
	}

	left, _ := os.ReadDir(staging)
	if len(left) != 0 {
		t.Fatalf("expected staging checkout removed, found %d entries", len(left))
	}
}

func TestFetch_TreeCloneError(t *testing.T) {
	cloneErr := errors.New("clone failed")
	f := New(httpclient.NewExecutor(), &fakeCloner{err: cloneErr}, WithStagingDir(t.TempDir()))

	src, _ := domain.ParseSource("https://github.com/o/r/tree/main/x")
	_, err := f.Fetch(context.Background(), src, t.TempDir())
	if !errors.Is(err, cloneErr) {
		t.Fatalf("expected clone error, got %v", err)
	}
}

func TestFetch_LocalCopy(t *testing.T) {
	srcDir := t.TempDir()
	p := filepath.Join(srcDir, "local_pipe.py")
	if err := os.WriteFile(p, []byte("x = 1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	src, err := domain.ParseSource(p)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	dest := t.TempDir()
	res, err := New(httpclient.NewExecutor(), &fakeCloner{}).Fetch(context.Background(), src, dest)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if res.Bytes != 6 {
		t.Fatalf("expected 6 bytes, got %d", res.Bytes)
	}
	b, _ := os.ReadFile(filepath.Join(dest, "local_pipe.py"))
	if string(b) != "x = 1\n" {
		t.Fatalf("unexpected content %q", string(b))
	}
}

func TestFetch_LocalMissing(t *testing.T) {
	src, _ := domain.ParseSource(filepath.Join(t.TempDir(), "missing.py"))
	_, err := New(httpclient.NewExecutor(), &fakeCloner{}).Fetch(context.Background(), src, t.TempDir())
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected KindNotFound, got %v", err)
	}
}
