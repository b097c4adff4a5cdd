package pyruntime

import (
	"context"
	"errors"
	"testing"

	"github.com/aiproductguy/lightpipe/internal/domain"
)

type fakeRunner struct {
	out  string
	err  error
	name string
	args []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	f.name, f.args = name, args
	return f.err
}

func (f *fakeRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	f.name, f.args = name, args
	return []byte(f.out), f.err
}

func found(path string) func(string) (string, error) {
	return func(string) (string, error) { return path, nil }
}

func TestParseVersion(t *testing.T) {
	cases := map[string]string{
		"Python 3.11.4\n":   "3.11.4",
		"Python 3.13.0rc1":  "3.13.0",
		"Python 3.12":       "3.12.0",
		"3.10.14 (main, x)": "3.10.14",
	}
	for in, want := range cases {
		v, err := ParseVersion(in)
		if err != nil {
			t.Fatalf("ParseVersion(%q) error: %v", in, err)
		}
		if v.String() != want {
			t.Fatalf("ParseVersion(%q) = %s, want %s", in, v, want)
		}
	}

	if _, err := ParseVersion("Python"); err == nil {
		t.Fatal("expected error for missing version")
	}
}

func TestCheck_OK(t *testing.T) {
	r := &fakeRunner{out: "Python 3.11.9\n"}
	c := New("python3", ">=3.11.0", WithRunner(r), WithLookPath(found("/usr/bin/python3")))

	info, err := c.Check(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Path != "/usr/bin/python3" || info.Version != "3.11.9" {
		t.Fatalf("unexpected info %+v", info)
	}
	if r.name != "/usr/bin/python3" || len(r.args) != 1 || r.args[0] != "--version" {
		t.Fatalf("unexpected invocation %s %v", r.name, r.args)
	}
}

func TestCheck_MissingInterpreter(t *testing.T) {
	c := New("python3", ">=3.11.0",
		WithRunner(&fakeRunner{}),
		WithLookPath(func(string) (string, error) { return "", errors.New("not found") }),
	)

	_, err := c.Check(context.Background())
	if !domain.IsKind(err, domain.KindMissingRuntime) {
		t.Fatalf("expected KindMissingRuntime, got %v", err)
	}
	if !errors.Is(err, domain.ErrMissingRuntime) {
		t.Fatalf("expected ErrMissingRuntime in chain, got %v", err)
	}
}

func TestCheck_VersionOutOfRange(t *testing.T) {
	c := New("python3", ">=3.11.0 <3.13.0",
		WithRunner(&fakeRunner{out: "Python 3.10.12"}),
		WithLookPath(found("/usr/bin/python3")),
	)

	info, err := c.Check(context.Background())
	if !domain.IsKind(err, domain.KindMissingRuntime) {
		t.Fatalf("expected KindMissingRuntime, got %v", err)
	}
	if info.Version != "3.10.12" {
		t.Fatalf("expected detected version in info, got %q", info.Version)
	}
}

func TestCheck_BadRange(t *testing.T) {
	c := New("python3", "at least three",
		WithRunner(&fakeRunner{out: "Python 3.11.0"}),
		WithLookPath(found("/usr/bin/python3")),
	)
	_, err := c.Check(context.Background())
	if !domain.IsKind(err, domain.KindInvalidConfig) {
		t.Fatalf("expected KindInvalidConfig, got %v", err)
	}
}

func TestCheck_EmptyRangeAcceptsAny(t *testing.T) {
	c := New("python3", "",
		WithRunner(&fakeRunner{out: "Python 2.7.18"}),
		WithLookPath(found("/usr/bin/python3")),
	)
	if _, err := c.Check(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
