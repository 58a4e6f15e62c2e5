package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/api"
	"github.com/phrazzld/scry-dealer/internal/domain"
	"github.com/spf13/cobra"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <pack.json>",
		Short: "Import a pack of cards from a JSON file",
		Long: `Import reads a pack file and adds its cards to the database. The pack is
created if it does not exist yet. Pack and card ids are generated when omitted.

The file has the same shape as the POST /api/packs body:

  {"id": "...", "title": "Algebra",
   "cards": [{"front": "2+2?", "back": "4", "tags": ["math", "easy"]}]}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read pack file: %w", err)
			}
			var req api.ImportPackRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("failed to parse pack file %s: %w", args[0], err)
			}

			pack := domain.Pack{ID: req.ID, Title: req.Title}
			if pack.ID == uuid.Nil {
				pack.ID = uuid.New()
			}
			cards := make([]domain.Card, 0, len(req.Cards))
			for _, c := range req.Cards {
				cards = append(cards, domain.Card{ID: c.ID, Front: c.Front, Back: c.Back, Tags: c.Tags})
			}

			return opts.withApp(cmd, func(ctx context.Context, app *application) error {
				if err := app.cardService.ImportPack(ctx, pack, cards); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d cards into pack %s\n", len(cards), pack.ID)
				return nil
			})
		},
	}
}
