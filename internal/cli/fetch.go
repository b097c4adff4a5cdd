package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aiproductguy/lightpipe/internal/usecase"
)

func fetchCmd(g *globalFlags) *cobra.Command {
	c := &cobra.Command{
		Use:   "fetch",
		Short: "Download pipeline sources into the pipelines directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd, g)
			if err != nil {
				return err
			}

			uc := usecase.NewFetchSources(app.dir, app.fetcher, app.log)
			results, err := uc.Execute(cmd.Context(), app.cfg.Pipelines)
			for _, r := range results {
				for _, f := range r.Files {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", styles.ok.Render(markOK), f)
				}
			}
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no sources configured")
			}
			return nil
		},
	}

	addPipelinesFlags(c.Flags(), true)
	return c
}
