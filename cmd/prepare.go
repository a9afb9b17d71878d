package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lehigh-university-libraries/halloween/internal/imageprep"
	"github.com/spf13/cobra"
)

func addPrepareFlags(cmd *cobra.Command, opts *imageprep.Options) {
	cmd.Flags().IntVar(&opts.MaxWidth, "max-width", imageprep.DefaultMaxWidth, "Maximum width of the prepared image")
	cmd.Flags().IntVar(&opts.MaxHeight, "max-height", imageprep.DefaultMaxHeight, "Maximum height of the prepared image")
	cmd.Flags().IntVar(&opts.Quality, "quality", imageprep.DefaultQuality, "JPEG quality (1-100)")
}

func newPrepareCmd(_ *rootOptions) *cobra.Command {
	var prepOpts imageprep.Options
	var output string

	cmd := &cobra.Command{
		Use:   "prepare <image-or-url>",
		Short: "Downscale an image and print it as a data URL",
		Long: `Decodes a JPEG, PNG, GIF or WebP image, scales it down to fit the bounds and
re-encodes it as JPEG, exactly as the web frontend does before uploading. The image may
be a local path or an http(s) URL.`,
		Example: `  # Print the data URL
  halloween prepare photo.png

  # Write the data URL to a file
  halloween prepare photo.png --output photo.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := imageprep.NewFetcher().PrepareSource(cmd.Context(), args[0], prepOpts)
			if err != nil {
				return err
			}
			slog.Info("Prepared image", "file", args[0], "width", payload.Width, "height", payload.Height, "bytes", len(payload.Data))

			if output == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), payload.DataURL())
				return err
			}
			if err := os.WriteFile(output, []byte(payload.DataURL()), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			return nil
		},
	}

	addPrepareFlags(cmd, &prepOpts)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the data URL to this file instead of stdout")

	return cmd
}
