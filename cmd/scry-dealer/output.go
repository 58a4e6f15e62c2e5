package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-dealer/internal/domain"
)

// parseID parses a uuid argument, naming the argument in the error.
func parseID(name, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	return id, nil
}

// formatTags renders required tags as +tag and excluded tags as -tag.
func formatTags(tags []domain.FilterTag) string {
	if len(tags) == 0 {
		return color.HiBlackString("(no tags)")
	}
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		if t.Exclude {
			parts = append(parts, color.RedString("-"+t.Tag))
		} else {
			parts = append(parts, color.GreenString("+"+t.Tag))
		}
	}
	return strings.Join(parts, " ")
}

func printNoCard(w io.Writer) {
	fmt.Fprintln(w, color.YellowString("no card"))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
