package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var migrateCommands = []string{"up", "down", "reset", "status", "version"}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down|reset|status|version]",
		Short: "Apply or inspect schema migrations",
		Long: `Migrate runs a schema migration command against the configured database.
With no argument it applies every pending migration.`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: migrateCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			log := opts.cliLogger(cmd, cfg)

			if err := migrateDatabase(cmd.Context(), cfg, command, log); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n",
				color.GreenString("migrate"), command, cfg.Database.Driver)
			return nil
		},
	}
}
