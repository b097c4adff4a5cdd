package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aiproductguy/lightpipe/internal/domain"
	"github.com/aiproductguy/lightpipe/internal/infra/envconfig"
	"github.com/aiproductguy/lightpipe/internal/infra/execx"
	"github.com/aiproductguy/lightpipe/internal/infra/fspipelines"
	"github.com/aiproductguy/lightpipe/internal/infra/frontmatter"
	"github.com/aiproductguy/lightpipe/internal/infra/gitsparse"
	"github.com/aiproductguy/lightpipe/internal/infra/httpclient"
	"github.com/aiproductguy/lightpipe/internal/infra/launcher"
	"github.com/aiproductguy/lightpipe/internal/infra/logger"
	"github.com/aiproductguy/lightpipe/internal/infra/portreclaim"
	"github.com/aiproductguy/lightpipe/internal/infra/pyinstall"
	"github.com/aiproductguy/lightpipe/internal/infra/pyruntime"
	"github.com/aiproductguy/lightpipe/internal/infra/sourcefetch"
	"github.com/aiproductguy/lightpipe/internal/usecase"
)

// appCtx holds the resolved configuration and the adapters built from it.
type appCtx struct {
	workDir string
	cfg     domain.Config
	log     *slog.Logger

	runtime   *pyruntime.Checker
	installer *pyinstall.Installer
	fetcher   *sourcefetch.Fetcher
	reader    *frontmatter.Reader
	dir       *fspipelines.Dir
	reclaimer *portreclaim.Reclaimer
	launcher  *launcher.Launcher
}

func loadApp(cmd *cobra.Command, g *globalFlags) (*appCtx, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	wd, _ = filepath.Abs(wd)

	cfg, err := envconfig.Load(envconfig.Options{
		ConfigFile: g.configFile,
		WorkDir:    wd,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return nil, err
	}

	log := logger.L()
	runner := execx.NewOSRunner()

	cloneOpts := []gitsparse.Option{}
	if g.debug {
		cloneOpts = append(cloneOpts, gitsparse.WithProgress(os.Stderr))
	}

	a := &appCtx{
		workDir: wd,
		cfg:     cfg,
		log:     log,
		runtime: pyruntime.New(cfg.Runtime.Python, cfg.Runtime.VersionRange,
			pyruntime.WithRunner(runner),
		),
		installer: pyinstall.New(cfg.Runtime.PackageManager, cfg.Runtime.Python, exec.LookPath,
			pyinstall.WithRunner(runner),
			pyinstall.WithLogger(log),
		),
		fetcher: sourcefetch.New(httpclient.NewExecutor(), gitsparse.New(cloneOpts...),
			sourcefetch.WithStagingDir(cfg.Pipelines.StagingDir),
		),
		reader:    frontmatter.NewReader(),
		dir:       fspipelines.NewDir(),
		reclaimer: portreclaim.New(cfg.Port.Grace, portreclaim.WithLogger(log)),
		launcher:  launcher.New(launcher.WithLogger(log)),
	}

	log.Debug("config.loaded",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"pipelines_dir", cfg.Pipelines.Dir,
		"sources", len(cfg.Pipelines.URLs),
		"package_manager", a.installer.Manager(),
	)
	return a, nil
}

func (a *appCtx) bootstrap() *usecase.Bootstrap {
	return usecase.NewBootstrap(a.cfg, usecase.BootstrapDeps{
		Runtime:      a.runtime,
		Installer:    a.installer,
		Fetcher:      a.fetcher,
		Requirements: a.reader,
		Dir:          a.dir,
		Reclaimer:    a.reclaimer,
		Launcher:     a.launcher,
		Logger:       a.log,
		WorkDir:      a.workDir,
	})
}

// Flag helpers. Names match the keys envconfig binds.

func addServerFlags(fs *pflag.FlagSet) {
	d := domain.DefaultConfig().Server
	fs.String("host", d.Host, "Address the server binds (env HOST)")
	fs.Int("port", d.Port, "Port the server binds (env PORT)")
	fs.String("loop", d.Loop, "Event loop passed to the server (env UVICORN_LOOP)")
}

func addPipelinesFlags(fs *pflag.FlagSet, withSources bool) {
	fs.String("pipelines-dir", domain.DefaultConfig().Pipelines.Dir, "Pipelines directory (env PIPELINES_DIR)")
	if withSources {
		fs.Bool("reset", false, "Empty the pipelines directory first (env RESET_PIPELINES_DIR)")
		fs.StringArray("url", nil, "Pipeline source location; repeatable (env PIPELINES_URLS, ';'-separated)")
	}
}
