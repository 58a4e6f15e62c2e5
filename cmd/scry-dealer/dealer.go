package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/spf13/cobra"
)

func newDealerCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dealer",
		Short: "Manage weighted dealers",
	}
	cmd.AddCommand(
		newDealerListCmd(opts),
		newDealerShowCmd(opts),
		newDealerCreateCmd(opts),
		newDealerAddCmd(opts),
		newDealerWeightCmd(opts),
		newDealerRemoveCmd(opts),
		newDealerDeleteCmd(opts),
		newDealerExportCmd(opts),
	)
	return cmd
}

func newDealerListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List dealers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				dealers, err := app.dealerService.ListDealers(ctx)
				if err != nil {
					return err
				}
				for _, d := range dealers {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", d.ID, d.Title)
				}
				return nil
			})
		},
	}
}

func newDealerShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <dealer-id>",
		Short: "Show a dealer and its weighted filters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dealerID, err := parseID("dealer id", args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				d, err := app.dealerService.GetDealer(ctx, dealerID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s %s\n", color.HiWhiteString(d.Title), d.ID)
				if len(d.Filters) == 0 {
					fmt.Fprintln(out, color.HiBlackString("  (no filters)"))
				}
				for _, f := range d.Filters {
					fmt.Fprintf(out, "  %s  x%d  %s / %s\n",
						f.FilterID, f.Weight, color.CyanString(f.PackTitle), f.Label)
				}
				return nil
			})
		},
	}
}

func newDealerCreateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create <title>",
		Short: "Create an empty dealer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				id, err := app.dealerService.CreateDealer(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created dealer %s\n", id)
				return nil
			})
		},
	}
}

func newDealerAddCmd(opts *rootOptions) *cobra.Command {
	var weight int

	cmd := &cobra.Command{
		Use:   "add <dealer-id> <filter-id>",
		Short: "Add a filter to a dealer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dealerID, err := parseID("dealer id", args[0])
			if err != nil {
				return err
			}
			filterID, err := parseID("filter id", args[1])
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				return app.dealerService.AddFilterToDealer(ctx, dealerID, filterID, weight)
			})
		},
	}
	cmd.Flags().IntVar(&weight, "weight", domain.DefaultWeight, "relative weight of the filter")
	return cmd
}

func newDealerWeightCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "weight <dealer-id> <filter-id> <weight>",
		Short: "Change the weight of a dealer's filter",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			dealerID, err := parseID("dealer id", args[0])
			if err != nil {
				return err
			}
			filterID, err := parseID("filter id", args[1])
			if err != nil {
				return err
			}
			weight, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid weight %q: %w", args[2], err)
			}
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				return app.dealerService.SetFilterWeight(ctx, dealerID, filterID, weight)
			})
		},
	}
}

func newDealerRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <dealer-id> <filter-id>",
		Short: "Remove a filter from a dealer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dealerID, err := parseID("dealer id", args[0])
			if err != nil {
				return err
			}
			filterID, err := parseID("filter id", args[1])
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				return app.dealerService.RemoveFilterFromDealer(ctx, dealerID, filterID)
			})
		},
	}
}

func newDealerDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <dealer-id>",
		Short: "Delete a dealer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dealerID, err := parseID("dealer id", args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				if err := app.dealerService.DeleteDealer(ctx, dealerID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted dealer %s\n", dealerID)
				return nil
			})
		},
	}
}

func newDealerExportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export <dealer-id>",
		Short: "Print the dealer as a versioned query tree",
		Long: `Export prints the dealer as a query tree in JSON. The output can be passed
to "scry-dealer query draw" or saved through the API.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dealerID, err := parseID("dealer id", args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				tree, err := app.dealerService.DealerQuery(ctx, dealerID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), tree)
			})
		},
	}
}

func newDealCmd(opts *rootOptions) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "deal <dealer-id>",
		Short: "Deal cards from a dealer",
		Long: `Deal picks a filter by weight, then a random matching card from it, and
prints the card id. Each of --count deals is independent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dealerID, err := parseID("dealer id", args[0])
			if err != nil {
				return err
			}
			if count < 1 {
				return fmt.Errorf("count must be at least 1, got %d", count)
			}
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				out := cmd.OutOrStdout()
				for range count {
					cardID, ok, err := app.dealerService.DealCard(ctx, dealerID)
					if err != nil {
						return err
					}
					if !ok {
						printNoCard(out)
						continue
					}
					fmt.Fprintln(out, cardID)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of cards to deal")
	return cmd
}
