package frontmatter

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestExtractBlock(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
		ok      bool
	}{
		{
			name:    "standard",
			content: "\"\"\"\ntitle: A\nrequirements: x\n\"\"\"\nimport os\n\"\"\"second\"\"\"\n",
			want:    "title: A\nrequirements: x",
			ok:      true,
		},
		{
			name:    "text after opening delimiter",
			content: "\"\"\"title: A\nrequirements: y\n\"\"\"\n",
			want:    "title: A\nrequirements: y",
			ok:      true,
		},
		{
			name:    "single line",
			content: "\"\"\"requirements: z\"\"\"\n",
			want:    "requirements: z",
			ok:      true,
		},
		{
			name:    "crlf",
			content: "\"\"\"\r\nrequirements: a, b\r\n\"\"\"\r\n",
			want:    "requirements: a, b",
			ok:      true,
		},
		{
			name:    "unterminated",
			content: "\"\"\"\nrequirements: q\n",
			want:    "requirements: q\n",
			ok:      true,
		},
		{
			name:    "none",
			content: "import os\nprint('x')\n",
			ok:      false,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := ExtractBlock(c.content)
			if ok != c.ok || got != c.want {
				t.Fatalf("ExtractBlock = %q,%v want %q,%v", got, ok, c.want, c.ok)
			}
		})
	}
}

func TestParseRequirements(t *testing.T) {
	cases := []struct {
		name  string
		block string
		want  []string
	}{
		{
			name:  "comma list",
			block: "title: Llama Index Pipeline\nauthor: open-webui\nrequirements: llama-index, llama-index-llms-ollama",
			want:  []string{"llama-index", "llama-index-llms-ollama"},
		},
		{
			name:  "yaml list",
			block: "requirements:\n  - requests\n  - numpy==1.26.4",
			want:  []string{"requests", "numpy==1.26.4"},
		},
		{
			name:  "case insensitive key",
			block: "Requirements: detoxify",
			want:  []string{"detoxify"},
		},
		{
			name:  "not yaml falls back to line scan",
			block: "title: Bad: yaml: here\n  - broken\nrequirements: a,b c",
			want:  []string{"a", "b", "c"},
		},
		{
			name:  "absent",
			block: "title: No deps\nversion: 1.0",
			want:  nil,
		},
		{
			name:  "empty value",
			block: "requirements:",
			want:  nil,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ParseRequirements(c.block)
			if !reflect.DeepEqual(got, c.want) {
				t.Fatalf("ParseRequirements = %#v, want %#v", got, c.want)
			}
		})
	}
}

func TestReader_ReadRequirements(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "rag.py")
	content := "\"\"\"\ntitle: RAG\nrequirements: lightrag, llama-index-readers-web\n\"\"\"\n\nclass Pipeline:\n    pass\n"
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := NewReader().ReadRequirements(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"lightrag", "llama-index-readers-web"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	plain := filepath.Join(dir, "plain.py")
	_ = os.WriteFile(plain, []byte("print('x')\n"), 0o644)
	got, err = NewReader().ReadRequirements(plain)
	if err != nil || got != nil {
		t.Fatalf("expected no requirements, got %v err=%v", got, err)
	}

	if _, err := NewReader().ReadRequirements(filepath.Join(dir, "missing.py")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
