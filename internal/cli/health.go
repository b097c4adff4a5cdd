package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aiproductguy/lightpipe/internal/infra/healthprobe"
	"github.com/aiproductguy/lightpipe/internal/infra/httpclient"
	"github.com/aiproductguy/lightpipe/internal/usecase"
)

func healthCmd(g *globalFlags) *cobra.Command {
	var path string
	var expect string
	var timeout time.Duration
	var maxBody int64

	c := &cobra.Command{
		Use:   "health",
		Short: "Probe the running server; exits non-zero when it is not healthy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd, g)
			if err != nil {
				return err
			}

			prober := healthprobe.New(
				healthprobe.WithExpect(expect),
				healthprobe.WithExecutor(httpclient.NewExecutor(
					httpclient.WithTimeout(timeout),
					httpclient.WithMaxBodyBytes(maxBody),
				)),
			)
			url := healthprobe.URL(app.cfg.Server.Host, app.cfg.Server.Port, path)

			res, err := usecase.NewCheckHealth(prober).Execute(cmd.Context(), url)
			mark := styles.ok.Render(markOK)
			if err != nil {
				mark = styles.fail.Render(markFail)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s (%dms)\n", mark, res.URL, res.Message, res.LatencyMS)
			return err
		},
	}

	c.Flags().StringVar(&path, "path", "/", "Path to probe")
	c.Flags().StringVar(&expect, "expect", healthprobe.DefaultExpect, "JSONPath that must be truthy in the response; empty disables the check")
	c.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Probe timeout")
	c.Flags().Int64Var(&maxBody, "max-body", 1<<20, "Largest response body inspected, in bytes")
	addServerFlags(c.Flags())
	return c
}
