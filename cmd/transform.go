package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/halloween/internal/client"
	"github.com/lehigh-university-libraries/halloween/internal/dataurl"
	"github.com/lehigh-university-libraries/halloween/internal/imageprep"
	"github.com/lehigh-university-libraries/halloween/internal/inject"
	"github.com/lehigh-university-libraries/halloween/internal/transform"
	"github.com/samber/do"
	"github.com/spf13/cobra"
)

func newTransformCmd(opts *rootOptions) *cobra.Command {
	var prepOpts imageprep.Options
	var server string
	var output string

	cmd := &cobra.Command{
		Use:   "transform <image-or-url>",
		Short: "Give a photo the Halloween treatment",
		Long: `Prepares the image, sends it to the model and writes the result next to the input.

With --server the image is posted to a running Halloween API; otherwise the transform
runs in-process and needs GEMINI_API_KEY.`,
		Example: `  # Transform in-process
  halloween transform me.jpg

  # Use a deployed API and choose the output file
  halloween transform me.jpg --server https://halloween.example.com --output spooky.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			payload, err := imageprep.NewFetcher().PrepareSource(cmd.Context(), input, prepOpts)
			if err != nil {
				return err
			}

			start := time.Now()
			var result string
			if server != "" {
				slog.Info("Sending image to server", "server", server, "bytes", len(payload.Data))
				result, err = client.New(server, nil).Transform(cmd.Context(), payload.DataURL())
			} else {
				result, err = transformLocally(cmd.Context(), opts, payload.DataURL())
			}
			if err != nil {
				return err
			}

			parsed, err := dataurl.Parse(result)
			if err != nil {
				return fmt.Errorf("unexpected transform result: %w", err)
			}
			raw, err := parsed.Decode()
			if err != nil {
				return err
			}

			if output == "" {
				output = outputPath(imageprep.LocalName(input), parsed.MimeType)
			}
			if err := os.WriteFile(output, raw, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}

			slog.Info("Wrote transformed image", "output", output, "bytes", len(raw), "elapsed", time.Since(start))
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}

	addPrepareFlags(cmd, &prepOpts)
	cmd.Flags().StringVar(&server, "server", "", "Base URL of a running Halloween API (default: run in-process)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default <name>_halloween.<ext>)")

	return cmd
}

func transformLocally(ctx context.Context, opts *rootOptions, imageData string) (string, error) {
	injector := inject.Setup(ctx, opts.config)
	defer func() {
		_ = injector.Shutdown()
	}()

	service, err := do.Invoke[*transform.Service](injector)
	if err != nil {
		return "", err
	}
	return service.Transform(ctx, imageData)
}

// outputPath names the result after the input: photos/me.jpg + image/png -> photos/me_halloween.png.
func outputPath(input, mimeType string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + "_halloween." + extensionFor(mimeType)
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "png"
	}
}
