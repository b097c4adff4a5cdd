package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aiproductguy/lightpipe/internal/infra/logger"
)

func Execute() {
	cmd, cleanup := newRootCmd()
	err := cmd.Execute()
	_ = cleanup()
	if err != nil {
		os.Exit(exitCode(err))
	}
}

type globalFlags struct {
	configFile string
	debug      bool
	logFormat  string
	logFile    string
}

func newRootCmd() (*cobra.Command, func() error) {
	g := &globalFlags{}
	closeLog := func() error { return nil }

	cmd := &cobra.Command{
		Use:          "lightpipe",
		Short:        "lightpipe bootstraps and launches a Python pipelines server",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cleanup, err := logger.Setup(logger.Config{
				File:   g.logFile,
				Format: g.logFormat,
				Debug:  g.debug,
			})
			if err != nil {
				return err
			}
			closeLog = cleanup
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&g.configFile, "config", "", "Config file (default: lightpipe.yaml found upward from the working directory)")
	pf.BoolVar(&g.debug, "debug", false, "Enable debug logging")
	pf.StringVar(&g.logFormat, "log-format", "text", "Log format: text|json")
	pf.StringVar(&g.logFile, "log-file", "", "Write logs to this file instead of stderr")

	cmd.AddCommand(
		startCmd(g),
		fetchCmd(g),
		depsCmd(g),
		freeportCmd(g),
		healthCmd(g),
		versionCmd(),
	)

	return cmd, func() error { return closeLog() }
}
