package soundtag

import (
	"context"
	"errors"
	"fmt"

	"tempo/internal/records"
	"tempo/internal/services"
)

// Summary aggregates a detection pass.
type Summary struct {
	CardsWithAudio     int `json:"cards_with_audio"`
	CardsWithoutAudio  int `json:"cards_without_audio"`
	TotalReferences    int `json:"total_references"`
	AlreadyTransformed int `json:"already_transformed"`
}

// Detect scans the notes behind cardIDs. Cards are visited in first-seen order
// and a repeated id is scanned once. The store is never written.
func Detect(ctx context.Context, store records.Store, cardIDs []int64) ([]Reference, Summary, error) {
	var (
		refs    []Reference
		summary Summary
	)
	seen := make(map[int64]struct{}, len(cardIDs))
	for _, cardID := range cardIDs {
		if err := ctx.Err(); err != nil {
			return nil, Summary{}, err
		}
		if _, dup := seen[cardID]; dup {
			continue
		}
		seen[cardID] = struct{}{}

		noteID, err := store.NoteIDForCard(ctx, cardID)
		if err != nil {
			return nil, Summary{}, wrapStoreError("resolve note", fmt.Sprintf("card %d", cardID), err)
		}
		note, err := store.Note(ctx, noteID)
		if err != nil {
			return nil, Summary{}, wrapStoreError("load note", fmt.Sprintf("note %d", noteID), err)
		}

		found := Scan(cardID, noteID, note.Fields)
		if len(found) == 0 {
			summary.CardsWithoutAudio++
			continue
		}
		summary.CardsWithAudio++
		for _, ref := range found {
			if ref.Transformed {
				summary.AlreadyTransformed++
			}
		}
		summary.TotalReferences += len(found)
		refs = append(refs, found...)
	}
	return refs, summary, nil
}

func wrapStoreError(operation, message string, err error) error {
	marker := services.ErrTransient
	if errors.Is(err, records.ErrNotFound) {
		marker = services.ErrNotFound
	}
	return services.Wrap(marker, "detect", operation, message, err)
}
