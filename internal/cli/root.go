// Package cli implements the inkwell command line: the API server and the
// database maintenance commands.
package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"inkwell/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvFiles []string
}

// NewRootCommand creates the root command for the inkwell CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "inkwell",
		Short: "Inkwell blog API server",
		Long: `Inkwell serves a JSON API for a blog: categories, posts and the
association between them. Reads are public; writes need an author session.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringSliceVar(&opts.EnvFiles, "env-file", nil, "dotenv files to load (default ./.env if present)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewUserCommand(opts))

	return cmd
}

// loadConfig reads the configuration and installs the process logger.
func loadConfig(opts *RootOptions, logOut io.Writer) (*config.Config, error) {
	cfg, err := config.Load(opts.EnvFiles...)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(newLogger(cfg.Env, logOut))
	return cfg, nil
}

// newLogger outputs JSON in production and text elsewhere.
func newLogger(env string, w io.Writer) *slog.Logger {
	if env == "production" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
