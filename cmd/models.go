package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/lehigh-university-libraries/halloween/internal/gemini"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func newModelsCmd(opts *rootOptions) *cobra.Command {
	var imagesOnly bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List Gemini models that can serve transform requests",
		Long: `Lists the models available to GEMINI_API_KEY that support generateContent.
Use it to pick a value for GEMINI_MODEL.`,
		Example: `  # Only models that can return images
  halloween models --images`,
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := gemini.ListModels(cmd.Context(), opts.config.APIKey)
			if err != nil {
				return err
			}
			if imagesOnly {
				models = lo.Filter(models, func(m gemini.ModelInfo, _ int) bool {
					return m.SupportsImages()
				})
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDISPLAY NAME\tCURRENT")
			for _, m := range models {
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.Name, m.DisplayName, lo.Ternary(m.Name == opts.config.Model, "*", ""))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&imagesOnly, "images", false, "Only list image-capable models")

	return cmd
}
