package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-dealer/internal/config"
	"github.com/phrazzld/scry-dealer/internal/platform/logger"
	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "scry-dealer",
		Short: "Tag filters, weighted dealers and query trees over flashcard packs",
		Long: `scry-dealer selects flashcards by tag. Filters pick random cards from a pack,
dealers pick a filter by weight and then a card from it, and saved query trees
nest weighted choices over any number of packs.

Run "scry-dealer serve" for the HTTP API, or use the subcommands directly
against the configured database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"config file (default ./config.yaml or $"+config.ConfigDirEnv+"/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false,
		"log at the configured level instead of warnings only")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newImportCmd(opts),
		newFilterCmd(opts),
		newDealerCmd(opts),
		newDealCmd(opts),
		newQueryCmd(opts),
	)
	return cmd
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		return config.LoadFromFile(o.configPath)
	}
	return config.Load()
}

// cliLogger writes to stderr so command output on stdout stays clean.
// Without --verbose only warnings and errors are shown.
func (o *rootOptions) cliLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	level, _ := logger.ParseLevel(cfg.Server.LogLevel)
	if !o.verbose && level < slog.LevelWarn {
		level = slog.LevelWarn
	}
	l := logger.New(cmd.ErrOrStderr(), level)
	slog.SetDefault(l)
	return l
}

// withApp loads configuration, opens the database and runs fn with a wired
// application, closing the database afterwards.
func (o *rootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, app *application) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log := o.cliLogger(cmd, cfg)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}

	app, err := newApplication(cfg, log, db)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer app.cleanup()

	return fn(ctx, app)
}
