package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/aiproductguy/lightpipe/internal/domain"
	"github.com/aiproductguy/lightpipe/internal/infra/envconfig"
	"github.com/aiproductguy/lightpipe/internal/infra/reportstore"
)

func startCmd(g *globalFlags) *cobra.Command {
	var mode string
	var format string
	var reportDir string

	c := &cobra.Command{
		Use:   "start",
		Short: "Check the runtime, install dependencies, fetch pipelines, free the port and launch the server",
		Long:  startLong(),
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := domain.ParseMode(mode)
			if err != nil {
				return err
			}
			if err := validateFormat(format); err != nil {
				return err
			}

			app, err := loadApp(cmd, g)
			if err != nil {
				return err
			}

			report, runErr := app.bootstrap().Execute(cmd.Context(), m)

			reportID := ""
			if strings.TrimSpace(reportDir) != "" {
				store := reportstore.NewJSONStore(reportDir, reportstore.WithIndex(true))
				id, err := store.SaveReport(report)
				if err != nil {
					app.log.Error("report.save", "dir", reportDir, "err", err)
				} else {
					reportID = id
				}
			}

			if err := printReport(cmd.OutOrStdout(), report, reportID, format); err != nil {
				return err
			}
			return runErr
		},
	}

	c.Flags().StringVar(&mode, "mode", string(domain.ModeFull), "Steps to run: setup|run|full")
	c.Flags().StringVar(&format, "format", "pretty", "Output format: pretty|json")
	c.Flags().StringVar(&reportDir, "report-dir", "", "Save the run report as JSON under this directory")
	addServerFlags(c.Flags())
	addPipelinesFlags(c.Flags(), true)
	c.Flags().Bool(envconfig.NoReclaimFlag, false, "Do not kill processes listening on the port")
	return c
}

func startLong() string {
	var b strings.Builder
	b.WriteString("Check the runtime, install dependencies, fetch pipelines, free the port and launch the server.\n\n")
	b.WriteString("Environment:\n")
	for _, name := range envconfig.EnvVars() {
		b.WriteString("  " + name + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
