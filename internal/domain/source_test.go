package domain

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSplitSourceList(t *testing.T) {
	in := ` "https://a/x.py" ; ;https://github.com/o/r/tree/main/examples;  `
	got := SplitSourceList(in)
	want := []string{"https://a/x.py", "https://github.com/o/r/tree/main/examples"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitSourceList = %#v, want %#v", got, want)
	}

	if got := SplitSourceList(""); len(got) != 0 {
		t.Fatalf("expected no items for empty list, got %#v", got)
	}
}

func TestParseSource_Blob(t *testing.T) {
	src, err := ParseSource("https://github.com/open-webui/pipelines/blob/main/examples/filters/detoxify_filter_pipeline.py")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.Kind != SourceBlob {
		t.Fatalf("expected blob, got %s", src.Kind)
	}
	if src.FileName != "detoxify_filter_pipeline.py" {
		t.Fatalf("unexpected file name %q", src.FileName)
	}
	if src.URL != "https://github.com/open-webui/pipelines/blob/main/examples/filters/detoxify_filter_pipeline.py?raw=true" {
		t.Fatalf("unexpected fetch URL %q", src.URL)
	}
	if src.Repo != "https://github.com/open-webui/pipelines" || src.Ref != "main" {
		t.Fatalf("unexpected repo/ref %q %q", src.Repo, src.Ref)
	}
}

func TestParseSource_Tree(t *testing.T) {
	src, err := ParseSource(`"https://github.com/open-webui/pipelines/tree/main/examples/pipelines/rag"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.Kind != SourceTree {
		t.Fatalf("expected tree, got %s", src.Kind)
	}
	if src.Repo != "https://github.com/open-webui/pipelines" {
		t.Fatalf("unexpected repo %q", src.Repo)
	}
	if src.Ref != "main" {
		t.Fatalf("unexpected ref %q", src.Ref)
	}
	if src.Subdir != "examples/pipelines/rag" {
		t.Fatalf("unexpected subdir %q", src.Subdir)
	}
}

func TestParseSource_TreeRootHasEmptySubdir(t *testing.T) {
	src, err := ParseSource("https://github.com/o/r/tree/dev")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.Subdir != "" || src.Ref != "dev" {
		t.Fatalf("unexpected subdir/ref %q %q", src.Subdir, src.Ref)
	}
}

func TestParseSource_DirectAndLocal(t *testing.T) {
	cases := []struct {
		in       string
		kind     SourceKind
		fileName string
	}{
		{"https://example.com/pipes/hello.py", SourceDirect, "hello.py"},
		{"http://example.com/HELLO.PY", SourceDirect, "HELLO.PY"},
		{"https://raw.githubusercontent.com/o/r/main/a/b.py", SourceDirect, "b.py"},
		{"./local/pipe.py", SourceLocal, "pipe.py"},
		{"/abs/pipe.py", SourceLocal, "pipe.py"},
	}
	for _, c := range cases {
		src, err := ParseSource(c.in)
		if err != nil {
			t.Fatalf("ParseSource(%q) error: %v", c.in, err)
		}
		if src.Kind != c.kind || src.FileName != c.fileName {
			t.Fatalf("ParseSource(%q) = %s/%q, want %s/%q", c.in, src.Kind, src.FileName, c.kind, c.fileName)
		}
	}
}

func TestParseSource_Invalid(t *testing.T) {
	cases := []string{
		"",
		"https://example.com/pipes/readme.md",
		"https://github.com/o/r",
		"https://github.com/o/r/blob/main",
		"https://github.com/o/r/tree",
		"ftp://example.com/a.py",
		"notes.txt",
		"github.com/owner/repo/blob/main/pipe.py",
		"example.com/pipes/hello.py",
		"https://github.com/o/r/blob/main/..",
		"https://github.com/o/r/blob/main/a/%2e%2e",
	}
	for _, in := range cases {
		_, err := ParseSource(in)
		if err == nil {
			t.Fatalf("ParseSource(%q): expected error", in)
		}
		if !IsKind(err, KindInvalidSource) {
			t.Fatalf("ParseSource(%q): expected KindInvalidSource, got %v", in, err)
		}
	}
}

func TestParseSources_FailsWholeListOnInvalidItem(t *testing.T) {
	_, err := ParseSources([]string{"https://example.com/a.py", "bogus"})
	if err == nil {
		t.Fatal("expected error for invalid item")
	}
	if !IsKind(err, KindInvalidSource) {
		t.Fatalf("expected KindInvalidSource, got %v", err)
	}

	local := filepath.Join(t.TempDir(), "b.py")
	if err := os.WriteFile(local, []byte("x = 1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	srcs, err := ParseSources([]string{"https://example.com/a.py", "  ", `"` + local + `"`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(srcs) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(srcs))
	}
}

func TestParseSources_RejectsMissingLocalFile(t *testing.T) {
	dir := t.TempDir()
	cases := []string{
		filepath.Join(dir, "missing.py"),
		dir + string(filepath.Separator) + "sub.py",
	}
	if err := os.Mkdir(cases[1], 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, in := range cases {
		_, err := ParseSources([]string{"https://example.com/a.py", in})
		if !IsKind(err, KindInvalidSource) {
			t.Fatalf("ParseSources(%q): expected KindInvalidSource, got %v", in, err)
		}
	}
}
