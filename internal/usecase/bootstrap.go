package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/aiproductguy/lightpipe/internal/app/template"
	"github.com/aiproductguy/lightpipe/internal/domain"
	"github.com/aiproductguy/lightpipe/internal/ports"
)

// BootstrapDeps are the adapters the start sequence drives.
type BootstrapDeps struct {
	Runtime      ports.RuntimeChecker
	Installer    ports.PackageInstaller
	Fetcher      ports.SourceFetcher
	Requirements ports.RequirementsReader
	Dir          ports.PipelinesDir
	Reclaimer    ports.PortReclaimer
	Launcher     ports.ServerLauncher
	Logger       *slog.Logger

	// WorkDir is where the server process starts.
	WorkDir string

	Now   func() time.Time
	NewID func() string
}

// Bootstrap runs the start sequence: runtime check, reset, installs,
// downloads, frontmatter installs, port cleanup and launch.
type Bootstrap struct {
	cfg     domain.Config
	deps    BootstrapDeps
	fetch   *FetchSources
	install *InstallDeps
	free    *FreePort
	log     *slog.Logger
}

func NewBootstrap(cfg domain.Config, deps BootstrapDeps) *Bootstrap {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	log := orDiscard(deps.Logger)

	return &Bootstrap{
		cfg:     cfg,
		deps:    deps,
		fetch:   NewFetchSources(deps.Dir, deps.Fetcher, log),
		install: NewInstallDeps(deps.Installer, deps.Requirements, deps.Dir, log),
		free:    NewFreePort(deps.Reclaimer, log),
		log:     log,
	}
}

// Execute runs the steps selected by mode and stops at the first failure.
// The report is returned in every case; the launch step blocks until the
// server exits.
func (uc *Bootstrap) Execute(ctx context.Context, mode domain.Mode) (domain.Report, error) {
	report := domain.Report{
		ID:        uc.deps.NewID(),
		Mode:      mode,
		StartedAt: uc.deps.Now(),
	}
	err := uc.run(ctx, mode, &report)
	report.EndedAt = uc.deps.Now()
	return report, err
}

func (uc *Bootstrap) run(ctx context.Context, mode domain.Mode, report *domain.Report) error {
	cfg := uc.cfg

	// Parse every source up front so an invalid entry aborts before any side effect.
	sources, err := domain.ParseSources(cfg.Pipelines.URLs)
	if err != nil {
		uc.record(report, "sources", domain.StepFailed, err.Error(), 0)
		return err
	}

	if mode.Setup() {
		if err := uc.step(report, "runtime", func() (string, error) {
			info, err := uc.deps.Runtime.Check(ctx)
			if err != nil {
				return "", err
			}
			report.Runtime = &info
			return fmt.Sprintf("%s %s", info.Name, info.Version), nil
		}); err != nil {
			return err
		}

		if cfg.Pipelines.Reset {
			if err := uc.step(report, "reset", func() (string, error) {
				done, err := uc.fetch.Reset(cfg.Pipelines.Dir)
				if err != nil {
					return "", err
				}
				if !done {
					return "directory does not exist", nil
				}
				return cfg.Pipelines.Dir, nil
			}); err != nil {
				return err
			}
		} else {
			uc.skip(report, "reset", "reset not requested")
		}

		if err := uc.step(report, "requirements", func() (string, error) {
			res, err := uc.install.RequirementFiles(ctx, cfg)
			report.Installed = append(report.Installed, res...)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d file(s)", len(res)), nil
		}); err != nil {
			return err
		}

		if len(sources) > 0 {
			if err := uc.step(report, "fetch", func() (string, error) {
				res, err := uc.fetch.Fetch(ctx, cfg.Pipelines.Dir, sources)
				report.Fetched = append(report.Fetched, res...)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("%d source(s)", len(res)), nil
			}); err != nil {
				return err
			}
		} else {
			uc.skip(report, "fetch", "no sources configured")
		}

		if err := uc.step(report, "frontmatter", func() (string, error) {
			res, err := uc.install.Frontmatter(ctx, cfg.Pipelines.Dir)
			report.Installed = append(report.Installed, res...)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d pipeline(s)", len(res)), nil
		}); err != nil {
			return err
		}
	}

	if !mode.Run() {
		return nil
	}

	if cfg.Port.Reclaim {
		if err := uc.step(report, "port", func() (string, error) {
			res, err := uc.free.Execute(ctx, cfg.Server.Port)
			report.Reclaimed = &res
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("port %d, %d process(es) killed", res.Port, len(res.Killed)), nil
		}); err != nil {
			return err
		}
	} else {
		uc.skip(report, "port", "reclaim disabled")
	}

	spec, err := template.LaunchSpec(cfg.Server, uc.deps.WorkDir)
	if err != nil {
		uc.record(report, "launch", domain.StepFailed, err.Error(), 0)
		return err
	}
	spec.Env = serverEnv(cfg)
	report.Launch = &spec

	return uc.step(report, "launch", func() (string, error) {
		if err := uc.deps.Launcher.Launch(ctx, spec); err != nil {
			return "", err
		}
		return "server exited", nil
	})
}

// serverEnv passes the resolved settings to the server, which reads the same variables.
func serverEnv(cfg domain.Config) []string {
	return []string{
		"HOST=" + cfg.Server.Host,
		"PORT=" + strconv.Itoa(cfg.Server.Port),
		"PIPELINES_DIR=" + cfg.Pipelines.Dir,
	}
}

func (uc *Bootstrap) step(report *domain.Report, name string, fn func() (string, error)) error {
	start := uc.deps.Now()
	uc.log.Info("bootstrap.step", "step", name)

	msg, err := fn()
	d := uc.deps.Now().Sub(start)
	if err != nil {
		uc.log.Error("bootstrap.step.failed", "step", name, "kind", domain.KindOf(err), "err", err)
		uc.record(report, name, domain.StepFailed, err.Error(), d)
		return err
	}
	uc.record(report, name, domain.StepOK, msg, d)
	return nil
}

func (uc *Bootstrap) skip(report *domain.Report, name, reason string) {
	uc.log.Info("bootstrap.step.skipped", "step", name, "reason", reason)
	uc.record(report, name, domain.StepSkipped, reason, 0)
}

func (uc *Bootstrap) record(report *domain.Report, name string, status domain.StepStatus, msg string, d time.Duration) {
	report.Steps = append(report.Steps, domain.StepResult{
		Name:     name,
		Status:   status,
		Message:  msg,
		Duration: d,
	})
}
