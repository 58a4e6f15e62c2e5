package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/spf13/cobra"
)

func newFilterCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Manage tag filters",
	}
	cmd.AddCommand(
		newFilterListCmd(opts),
		newFilterShowCmd(opts),
		newFilterCreateCmd(opts),
		newFilterTagCmd(opts),
		newFilterUntagCmd(opts),
		newFilterDeleteCmd(opts),
		newFilterDrawCmd(opts),
	)
	return cmd
}

func newFilterListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List filters grouped by pack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				listings, err := app.filterService.ListFilters(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, group := range domain.GroupByPack(listings) {
					fmt.Fprintln(out, color.CyanString(group.PackTitle))
					for _, f := range group.Filters {
						line := fmt.Sprintf("  %s  %s", f.ID, f.Label)
						if !f.IsValid {
							line += " " + color.RedString("(no matching cards)")
						}
						fmt.Fprintln(out, line)
					}
				}
				return nil
			})
		},
	}
}

func newFilterShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <filter-id>",
		Short: "Show a filter's tags and validity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filterID, err := parseID("filter id", args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				f, err := app.filterService.GetFilter(ctx, filterID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s %s\n", color.HiWhiteString(f.Label), f.ID)
				fmt.Fprintf(out, "  pack:  %s\n", f.PackID)
				fmt.Fprintf(out, "  tags:  %s\n", formatTags(f.Tags))
				if f.IsValid {
					fmt.Fprintf(out, "  valid: %s\n", color.GreenString("yes"))
				} else {
					fmt.Fprintf(out, "  valid: %s\n", color.RedString("no"))
				}
				return nil
			})
		},
	}
}

func newFilterCreateCmd(opts *rootOptions) *cobra.Command {
	var pack string

	cmd := &cobra.Command{
		Use:   "create <label>",
		Short: "Create an empty filter in a pack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			packID, err := parseID("pack id", pack)
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				id, err := app.filterService.CreateFilter(ctx, packID, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created filter %s\n", id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&pack, "pack", "", "pack id (required)")
	_ = cmd.MarkFlagRequired("pack")
	return cmd
}

func newFilterTagCmd(opts *rootOptions) *cobra.Command {
	var exclude bool

	cmd := &cobra.Command{
		Use:   "tag <filter-id> <tag>",
		Short: "Require or exclude a tag",
		Long: `Tag adds a tag to a filter. By default matching cards must carry the tag;
with --exclude they must not. Tagging an existing member changes its role.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			filterID, err := parseID("filter id", args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				return app.filterService.AddFilterTag(ctx, filterID, args[1], exclude)
			})
		},
	}
	cmd.Flags().BoolVar(&exclude, "exclude", false, "exclude cards carrying the tag")
	return cmd
}

func newFilterUntagCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "untag <filter-id> <tag>",
		Short: "Remove a tag from a filter",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			filterID, err := parseID("filter id", args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				return app.filterService.RemoveFilterTag(ctx, filterID, args[1])
			})
		},
	}
}

func newFilterDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <filter-id>",
		Short: "Delete a filter and its dealer associations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filterID, err := parseID("filter id", args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				if err := app.filterService.DeleteFilter(ctx, filterID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted filter %s\n", filterID)
				return nil
			})
		},
	}
}

func newFilterDrawCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "draw <filter-id>",
		Short: "Draw one random matching card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filterID, err := parseID("filter id", args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				cardID, ok, err := app.filterService.NextCard(ctx, filterID)
				if err != nil {
					return err
				}
				if !ok {
					printNoCard(cmd.OutOrStdout())
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), cardID)
				return nil
			})
		},
	}
}
