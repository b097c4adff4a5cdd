package pyruntime

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/blang/semver"

	"github.com/aiproductguy/lightpipe/internal/domain"
	"github.com/aiproductguy/lightpipe/internal/infra/execx"
	"github.com/aiproductguy/lightpipe/internal/ports"
)

var versionPattern = regexp.MustCompile(`\d+(\.\d+){0,2}`)

// Checker verifies the Python interpreter is on PATH and within a version range.
type Checker struct {
	python       string
	versionRange string
	runner       execx.Runner
	lookPath     execx.LookPathFunc
}

type Option func(*Checker)

func WithRunner(r execx.Runner) Option {
	return func(c *Checker) { c.runner = r }
}

func WithLookPath(fn execx.LookPathFunc) Option {
	return func(c *Checker) { c.lookPath = fn }
}

// New builds a Checker. versionRange uses blang/semver range syntax with full
// versions, e.g. ">=3.11.0" or ">=3.10.0 <3.13.0". An empty range accepts any version.
func New(python, versionRange string, opts ...Option) *Checker {
	c := &Checker{
		python:       python,
		versionRange: strings.TrimSpace(versionRange),
		runner:       execx.NewOSRunner(),
		lookPath:     exec.LookPath,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ ports.RuntimeChecker = (*Checker)(nil)

func (c *Checker) Check(ctx context.Context) (domain.RuntimeInfo, error) {
	info := domain.RuntimeInfo{Name: c.python}

	path, err := c.lookPath(c.python)
	if err != nil {
		return info, &domain.OpError{
			Op:   "pyruntime.check",
			Kind: domain.KindMissingRuntime,
			Path: c.python,
			Err:  fmt.Errorf("%w: %s is not installed or not on PATH", domain.ErrMissingRuntime, c.python),
		}
	}
	info.Path = path

	out, err := c.runner.Output(ctx, path, "--version")
	if err != nil {
		return info, &domain.OpError{Op: "pyruntime.version", Kind: domain.KindMissingRuntime, Path: path, Err: err}
	}

	v, err := ParseVersion(string(out))
	if err != nil {
		return info, &domain.OpError{Op: "pyruntime.version", Kind: domain.KindMissingRuntime, Path: path, Err: err}
	}
	info.Version = v.String()

	if c.versionRange == "" {
		return info, nil
	}

	accept, err := semver.ParseRange(c.versionRange)
	if err != nil {
		return info, &domain.OpError{Op: "pyruntime.range", Kind: domain.KindInvalidConfig, Path: c.versionRange, Err: err}
	}
	if !accept(v) {
		return info, &domain.OpError{
			Op:   "pyruntime.check",
			Kind: domain.KindMissingRuntime,
			Path: path,
			Err:  fmt.Errorf("%w: %s %s does not satisfy %s", domain.ErrMissingRuntime, c.python, v, c.versionRange),
		}
	}
	return info, nil
}

// ParseVersion extracts the first dotted number from interpreter output such as
// "Python 3.11.4" or "Python 3.13.0rc1". Pre-release suffixes are ignored.
func ParseVersion(out string) (semver.Version, error) {
	m := versionPattern.FindString(out)
	if m == "" {
		return semver.Version{}, fmt.Errorf("no version found in %q", strings.TrimSpace(out))
	}
	return semver.ParseTolerant(m)
}
