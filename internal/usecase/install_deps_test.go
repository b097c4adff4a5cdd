package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/aiproductguy/lightpipe/internal/domain"
)

func TestRequirementFiles_SkipsMissing(t *testing.T) {
	j := &journal{}
	tmp := t.TempDir()
	present := filepath.Join(tmp, "requirements.txt")
	if err := os.WriteFile(present, []byte("fastapi\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg := testConfig()
	cfg.Server.Requirements = present
	cfg.Pipelines.RequirementsPath = filepath.Join(tmp, "missing.txt")

	uc := NewInstallDeps(&fakeInstaller{j: j}, &fakeReader{}, &fakeDir{j: j}, nil)
	res, err := uc.RequirementFiles(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(j.events, []string{"install-file:requirements.txt"}) {
		t.Fatalf("events = %v", j.events)
	}
	if len(res) != 1 || res[0].File != present {
		t.Fatalf("results = %+v", res)
	}
}

func TestFrontmatter_InstallsPerFile(t *testing.T) {
	j := &journal{}
	dir := &fakeDir{j: j, exists: true, files: map[string]bool{"a.py": true, "b.py": true, "c.py": true}}
	reader := &fakeReader{reqs: map[string][]string{
		"a.py": {"requests"},
		"c.py": {"numpy", "pandas"},
	}}

	uc := NewInstallDeps(&fakeInstaller{j: j}, reader, dir, nil)
	res, err := uc.Frontmatter(context.Background(), "pipelines")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"install-pkgs:requests", "install-pkgs:numpy,pandas"}
	if !reflect.DeepEqual(j.events, want) {
		t.Fatalf("events = %v, want %v", j.events, want)
	}
	if len(res) != 2 {
		t.Fatalf("expected 2 results, got %+v", res)
	}
}

func TestFrontmatter_MissingDirIsNoop(t *testing.T) {
	j := &journal{}
	uc := NewInstallDeps(&fakeInstaller{j: j}, &fakeReader{}, &fakeDir{j: j}, nil)

	res, err := uc.Frontmatter(context.Background(), "absent")
	if err != nil || len(res) != 0 {
		t.Fatalf("expected no-op, got res=%v err=%v", res, err)
	}
}

func TestFrontmatter_InstallFailure(t *testing.T) {
	j := &journal{}
	dir := &fakeDir{j: j, exists: true, files: map[string]bool{"a.py": true}}
	reader := &fakeReader{reqs: map[string][]string{"a.py": {"broken"}}}
	installErr := &domain.OpError{Op: "pyinstall.pip", Kind: domain.KindExecution, Err: errors.New("exit status 1")}

	uc := NewInstallDeps(&fakeInstaller{j: j, err: installErr}, reader, dir, nil)
	if _, err := uc.Frontmatter(context.Background(), "pipelines"); !domain.IsKind(err, domain.KindExecution) {
		t.Fatalf("expected KindExecution, got %v", err)
	}
}
