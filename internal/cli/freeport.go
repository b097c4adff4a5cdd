package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aiproductguy/lightpipe/internal/domain"
	"github.com/aiproductguy/lightpipe/internal/usecase"
)

func freeportCmd(g *globalFlags) *cobra.Command {
	c := &cobra.Command{
		Use:   "freeport",
		Short: "Kill every process listening on the server port",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd, g)
			if err != nil {
				return err
			}

			res, err := usecase.NewFreePort(app.reclaimer, app.log).Execute(cmd.Context(), app.cfg.Server.Port)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(res.Killed) == 0 {
				fmt.Fprintf(w, "port %d is free\n", res.Port)
			}
			for _, p := range res.Killed {
				fmt.Fprintf(w, "%s killed %s on port %d\n", styles.ok.Render(markOK), processLabel(p.PID, p.Name), res.Port)
			}
			for _, p := range res.Skipped {
				fmt.Fprintf(w, "%s skipped %s (lightpipe itself)\n", styles.skip.Render(markSkip), processLabel(p.PID, p.Name))
			}
			return nil
		},
	}

	c.Flags().Int("port", domain.DefaultConfig().Server.Port, "Port to free (env PORT)")
	return c
}

func processLabel(pid int, name string) string {
	if name == "" {
		return fmt.Sprintf("pid %d", pid)
	}
	return fmt.Sprintf("pid %d (%s)", pid, name)
}
