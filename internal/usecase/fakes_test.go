package usecase

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aiproductguy/lightpipe/internal/domain"
)

// journal records the side effects of fakes in the order they happen.
type journal struct {
	events []string
}

func (j *journal) add(e string) { j.events = append(j.events, e) }

type fakeRuntime struct {
	j   *journal
	err error
}

func (f *fakeRuntime) Check(context.Context) (domain.RuntimeInfo, error) {
	f.j.add("runtime")
	if f.err != nil {
		return domain.RuntimeInfo{}, f.err
	}
	return domain.RuntimeInfo{Name: "python3", Path: "/usr/bin/python3", Version: "3.11.4"}, nil
}

type fakeInstaller struct {
	j   *journal
	err error
}

func (f *fakeInstaller) InstallFile(_ context.Context, path string) error {
	f.j.add("install-file:" + filepath.Base(path))
	return f.err
}

func (f *fakeInstaller) InstallPackages(_ context.Context, pkgs []string) error {
	f.j.add("install-pkgs:" + strings.Join(pkgs, ","))
	return f.err
}

// fakeDir keeps an in-memory listing of the pipelines directory.
type fakeDir struct {
	j      *journal
	exists bool
	files  map[string]bool
}

func (f *fakeDir) Reset(dir string) (bool, error) {
	f.j.add("reset")
	if !f.exists {
		return false, nil
	}
	f.files = map[string]bool{}
	return true, nil
}

func (f *fakeDir) Ensure(dir string) error {
	f.j.add("ensure")
	f.exists = true
	return nil
}

func (f *fakeDir) List(dir string) ([]string, error) {
	if !f.exists {
		return nil, &domain.OpError{Op: "pipelines.list", Kind: domain.KindNotFound, Path: dir, Err: domain.ErrNotFound}
	}
	var out []string
	for name := range f.files {
		out = append(out, filepath.Join(dir, name))
	}
	sort.Strings(out)
	return out, nil
}

type fakeFetcher struct {
	j   *journal
	dir *fakeDir
	err error
}

func (f *fakeFetcher) Fetch(_ context.Context, src domain.Source, destDir string) (domain.FetchResult, error) {
	f.j.add("fetch:" + string(src.Kind))
	if f.err != nil {
		return domain.FetchResult{}, f.err
	}
	name := src.FileName
	if name == "" {
		name = "tree.py"
	}
	if f.dir.files == nil {
		f.dir.files = map[string]bool{}
	}
	f.dir.files[name] = true
	return domain.FetchResult{Source: src, Files: []string{filepath.Join(destDir, name)}, Bytes: 10}, nil
}

type fakeReader struct {
	reqs map[string][]string
}

func (f *fakeReader) ReadRequirements(path string) ([]string, error) {
	return f.reqs[filepath.Base(path)], nil
}

type fakeReclaimer struct {
	j      *journal
	killed []int
	err    error
}

func (f *fakeReclaimer) Reclaim(_ context.Context, port int) (domain.PortReclaim, error) {
	f.j.add("reclaim")
	res := domain.PortReclaim{Port: port}
	for _, pid := range f.killed {
		res.Killed = append(res.Killed, domain.ProcessRef{PID: pid})
	}
	return res, f.err
}

type fakeLauncher struct {
	j    *journal
	spec domain.LaunchSpec
	err  error
}

func (f *fakeLauncher) Launch(_ context.Context, spec domain.LaunchSpec) error {
	f.j.add("launch")
	f.spec = spec
	return f.err
}

type fakeProber struct {
	res domain.HealthResult
	err error
}

func (f fakeProber) Probe(_ context.Context, url string) (domain.HealthResult, error) {
	r := f.res
	r.URL = url
	return r, f.err
}
