package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"tempo/internal/collection"
	"tempo/internal/soundtag"
	"tempo/internal/textutil"
)

func parsePositiveIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// selectCards resolves the card ids a command works on: explicit arguments or
// every card in the collection.
func selectCards(ctx context.Context, store *collection.Store, args []string, all bool) ([]int64, error) {
	if all {
		if len(args) > 0 {
			return nil, errors.New("pass card ids or --all, not both")
		}
		return store.CardIDs(ctx)
	}
	if len(args) == 0 {
		return nil, errors.New("no cards selected; pass card ids or --all")
	}
	return parsePositiveIDs(args)
}

// confirm asks a yes/no question on out and reads the answer from in. Only
// an explicit yes proceeds.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		fmt.Fprintln(out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func formatSpeed(speed float64) string {
	return strconv.FormatFloat(speed, 'f', -1, 64) + "x"
}

func yesNo(value bool) string {
	return textutil.Ternary(value, "yes", "no")
}

func plural(n int, singular, pluralForm string) string {
	return fmt.Sprintf("%d %s", n, textutil.Ternary(n == 1, singular, pluralForm))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type referenceJSON struct {
	CardID      int64   `json:"card_id"`
	NoteID      int64   `json:"note_id"`
	FieldIndex  int     `json:"field_index"`
	Filename    string  `json:"filename"`
	Tag         string  `json:"tag"`
	Transformed bool    `json:"transformed"`
	PriorSpeed  float64 `json:"prior_speed,omitempty"`
}

func referencesJSON(refs []soundtag.Reference) []referenceJSON {
	out := make([]referenceJSON, 0, len(refs))
	for _, ref := range refs {
		out = append(out, referenceJSON{
			CardID:      ref.CardID,
			NoteID:      ref.NoteID,
			FieldIndex:  ref.FieldIndex,
			Filename:    ref.Filename,
			Tag:         ref.RawTag,
			Transformed: ref.Transformed,
			PriorSpeed:  ref.PriorSpeed,
		})
	}
	return out
}
