package pyinstall

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/aiproductguy/lightpipe/internal/domain"
	"github.com/aiproductguy/lightpipe/internal/infra/execx"
	"github.com/aiproductguy/lightpipe/internal/ports"
)

// Installer installs packages with pip (through the interpreter) or uv.
type Installer struct {
	manager domain.PackageManager
	python  string
	runner  execx.Runner
	log     *slog.Logger
}

type Option func(*Installer)

func WithRunner(r execx.Runner) Option {
	return func(i *Installer) { i.runner = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(i *Installer) {
		if l != nil {
			i.log = l
		}
	}
}

// New resolves manager "auto" to uv when it is on PATH, else pip.
func New(manager domain.PackageManager, python string, lookPath execx.LookPathFunc, opts ...Option) *Installer {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if manager == domain.PackageManagerAuto || manager == "" {
		manager = domain.PackageManagerPip
		if _, err := lookPath("uv"); err == nil {
			manager = domain.PackageManagerUV
		}
	}

	i := &Installer{
		manager: manager,
		python:  python,
		runner:  execx.NewOSRunner(),
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

var _ ports.PackageInstaller = (*Installer)(nil)

// Manager reports the resolved package manager.
func (i *Installer) Manager() domain.PackageManager {
	return i.manager
}

func (i *Installer) InstallFile(ctx context.Context, requirementsPath string) error {
	info, err := os.Stat(requirementsPath)
	if err != nil {
		kind := domain.KindExecution
		if errors.Is(err, os.ErrNotExist) {
			kind = domain.KindNotFound
		}
		return &domain.OpError{Op: "pyinstall.file", Kind: kind, Path: requirementsPath, Err: err}
	}
	if info.IsDir() {
		return &domain.OpError{
			Op:   "pyinstall.file",
			Kind: domain.KindInvalidConfig,
			Path: requirementsPath,
			Err:  fmt.Errorf("%w: requirements path is a directory", domain.ErrInvalidConfig),
		}
	}

	return i.install(ctx, requirementsPath, "-r", requirementsPath)
}

func (i *Installer) InstallPackages(ctx context.Context, packages []string) error {
	if len(packages) == 0 {
		return nil
	}
	return i.install(ctx, "", packages...)
}

func (i *Installer) install(ctx context.Context, path string, args ...string) error {
	name, full := i.command(args)
	i.log.Info("pyinstall.run", "manager", i.manager, "cmd", execx.Describe(name, full))

	if err := i.runner.Run(ctx, name, full...); err != nil {
		return &domain.OpError{Op: "pyinstall." + string(i.manager), Kind: domain.KindExecution, Path: path, Err: err}
	}
	return nil
}

// command builds the package-manager invocation for "install <args>".
func (i *Installer) command(args []string) (string, []string) {
	switch i.manager {
	case domain.PackageManagerUV:
		return "uv", append([]string{"pip", "install", "--python", i.python}, args...)
	default:
		return i.python, append([]string{"-m", "pip", "install"}, args...)
	}
}
