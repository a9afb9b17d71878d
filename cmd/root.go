package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/halloween/internal/config"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	logLevel   string
	config     *config.Config
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "halloween",
		Short: "Turn photos into Halloween costume portraits with Gemini",
		Long: `Halloween sends photos to a Gemini image model and returns a spooky version.

It runs the HTTP API used by the web frontend and ships client commands to prepare
and transform images from the terminal.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			opts.config = cfg

			return setupLogging(cfg, opts.logLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath, "Path to the yaml config file (optional)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (default info, debug in development)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newTransformCmd(opts))
	cmd.AddCommand(newPrepareCmd(opts))
	cmd.AddCommand(newModelsCmd(opts))

	return cmd
}

func setupLogging(cfg *config.Config, levelName string) error {
	if levelName == "" {
		levelName = lo.Ternary(cfg.Development(), "debug", "info")
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", levelName, err)
	}

	handlerOpts := &slog.HandlerOptions{Level: level, AddSource: level == slog.LevelDebug}
	var handler slog.Handler
	if cfg.Development() {
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}
