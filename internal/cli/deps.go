package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aiproductguy/lightpipe/internal/usecase"
)

func depsCmd(g *globalFlags) *cobra.Command {
	c := &cobra.Command{
		Use:   "deps",
		Short: "Install requirement files and the requirements declared by each pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd, g)
			if err != nil {
				return err
			}
			if _, err := app.runtime.Check(cmd.Context()); err != nil {
				return err
			}

			uc := usecase.NewInstallDeps(app.installer, app.reader, app.dir, app.log)
			results, err := uc.Execute(cmd.Context(), app.cfg)
			for _, r := range results {
				line := r.File
				if len(r.Packages) > 0 {
					line += ": " + strings.Join(r.Packages, " ")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", styles.ok.Render(markOK), line)
			}
			return err
		},
	}

	addPipelinesFlags(c.Flags(), false)
	return c
}
