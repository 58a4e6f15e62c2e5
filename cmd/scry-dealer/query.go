package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain/selection"
	"github.com/phrazzld/scry-dealer/internal/service"
	"github.com/spf13/cobra"
)

func newQueryCmd(opts *rootOptions) *cobra.Command {
	var (
		pack     string
		included []string
		excluded []string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Select card ids by tag",
		Long: `Query prints the ids of cards carrying every --include tag and none of the
--exclude tags, in random order. Without --pack every pack is searched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := service.CardQuery{Included: included, Excluded: excluded}
			if pack != "" {
				packID, err := parseID("pack id", pack)
				if err != nil {
					return err
				}
				q.PackID = &packID
			}
			if limit >= 0 {
				q.Limit = &limit
			}
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				ids, err := app.queryService.QueryCards(ctx, q)
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&pack, "pack", "", "restrict to one pack id")
	cmd.Flags().StringArrayVarP(&included, "include", "i", nil, "required tag (repeatable; commas are part of the tag)")
	cmd.Flags().StringArrayVarP(&excluded, "exclude", "x", nil, "excluded tag (repeatable)")
	cmd.Flags().IntVarP(&limit, "limit", "l", -1, "maximum number of ids; negative returns all")

	cmd.AddCommand(newQueryDrawCmd(opts))
	return cmd
}

func newQueryDrawCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "draw <tree.json|saved-query-id>",
		Short: "Draw one card from a query tree",
		Long: `Draw walks a versioned query tree and prints one card id. The argument is
either a saved query id or a JSON file such as the output of "dealer export".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				var (
					cardID uuid.UUID
					ok     bool
					err    error
				)
				if savedID, parseErr := uuid.Parse(args[0]); parseErr == nil {
					cardID, ok, err = app.queryService.DrawQuery(ctx, savedID)
				} else {
					var tree selection.Versioned
					tree, err = readTree(args[0])
					if err != nil {
						return err
					}
					cardID, ok, err = app.queryService.DrawTree(ctx, tree)
				}
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

func readTree(path string) (selection.Versioned, error) {
	var tree selection.Versioned
	data, err := os.ReadFile(path)
	if err != nil {
		return tree, fmt.Errorf("failed to read query file: %w", err)
	}
	if err := json.Unmarshal(data, &tree); err != nil {
		return tree, fmt.Errorf("failed to parse query file %s: %w", path, err)
	}
	return tree, nil
}
