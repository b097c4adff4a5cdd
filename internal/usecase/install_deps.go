package usecase

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/aiproductguy/lightpipe/internal/domain"
	"github.com/aiproductguy/lightpipe/internal/ports"
)

// InstallDeps installs requirement files and per-pipeline frontmatter requirements.
type InstallDeps struct {
	installer ports.PackageInstaller
	reader    ports.RequirementsReader
	dir       ports.PipelinesDir
	log       *slog.Logger
}

func NewInstallDeps(installer ports.PackageInstaller, reader ports.RequirementsReader, dir ports.PipelinesDir, log *slog.Logger) *InstallDeps {
	return &InstallDeps{installer: installer, reader: reader, dir: dir, log: orDiscard(log)}
}

func (uc *InstallDeps) Execute(ctx context.Context, cfg domain.Config) ([]domain.InstallResult, error) {
	out, err := uc.RequirementFiles(ctx, cfg)
	if err != nil {
		return out, err
	}
	more, err := uc.Frontmatter(ctx, cfg.Pipelines.Dir)
	return append(out, more...), err
}

// RequirementFiles installs the server's requirements file and
// PIPELINES_REQUIREMENTS_PATH. Files that do not exist are logged and skipped.
func (uc *InstallDeps) RequirementFiles(ctx context.Context, cfg domain.Config) ([]domain.InstallResult, error) {
	var out []domain.InstallResult
	for _, path := range []string{cfg.Server.Requirements, cfg.Pipelines.RequirementsPath} {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			uc.log.Info("install.requirements.skipped", "path", path, "reason", "file not found")
			continue
		}

		uc.log.Info("install.requirements", "path", path)
		if err := uc.installer.InstallFile(ctx, path); err != nil {
			return out, err
		}
		out = append(out, domain.InstallResult{File: path})
	}
	return out, nil
}

// Frontmatter installs the requirements each pipeline file declares. A
// missing directory means there is nothing to install.
func (uc *InstallDeps) Frontmatter(ctx context.Context, dir string) ([]domain.InstallResult, error) {
	files, err := uc.dir.List(dir)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			uc.log.Info("install.frontmatter.skipped", "dir", dir, "reason", "directory does not exist")
			return nil, nil
		}
		return nil, err
	}

	var out []domain.InstallResult
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		pkgs, err := uc.reader.ReadRequirements(file)
		if err != nil {
			return out, err
		}
		if len(pkgs) == 0 {
			uc.log.Debug("install.frontmatter.none", "file", file)
			continue
		}

		uc.log.Info("install.frontmatter", "file", file, "packages", strings.Join(pkgs, " "))
		if err := uc.installer.InstallPackages(ctx, pkgs); err != nil {
			return out, err
		}
		out = append(out, domain.InstallResult{File: file, Packages: pkgs})
	}
	return out, nil
}
