// Package rewrite swaps sound tags inside note fields and records enough to
// undo the swap.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tempo/internal/records"
	"tempo/internal/services"
	"tempo/internal/soundtag"
)

// Edit replaces OldTag with NewTag in one field of a note.
type Edit struct {
	CardID     int64  `json:"card_id"`
	NoteID     int64  `json:"note_id"`
	FieldIndex int    `json:"field_index"`
	OldTag     string `json:"old_tag"`
	NewTag     string `json:"new_tag"`
}

// Ledger holds the edits a commit applied and the files they point at.
type Ledger struct {
	Edits []Edit `json:"edits"`
	// Files maps each source filename to the produced filename.
	Files map[string]string `json:"files"`
}

// Empty reports whether the ledger recorded nothing.
func (l Ledger) Empty() bool {
	return len(l.Edits) == 0
}

// NoteIDs returns the distinct notes touched by the ledger in first-seen order.
func (l Ledger) NoteIDs() []int64 {
	return groupByNote(l.Edits).order
}

// BuildEdits returns one edit per reference whose filename has a produced
// counterpart in files.
func BuildEdits(refs []soundtag.Reference, files map[string]string) []Edit {
	edits := make([]Edit, 0, len(refs))
	for _, ref := range refs {
		produced, ok := files[ref.Filename]
		if !ok || produced == "" {
			continue
		}
		edits = append(edits, Edit{
			CardID:     ref.CardID,
			NoteID:     ref.NoteID,
			FieldIndex: ref.FieldIndex,
			OldTag:     ref.RawTag,
			NewTag:     soundtag.Tag(produced),
		})
	}
	return edits
}

// Commit applies edits note by note, loading and persisting each note once.
// Every occurrence of an edit's OldTag in its field is replaced. Edits that
// change nothing are left out of the ledger.
//
// On a store failure the returned ledger covers the notes persisted so far.
func Commit(ctx context.Context, store records.Store, edits []Edit) (Ledger, error) {
	ledger := Ledger{Files: map[string]string{}}
	groups := groupByNote(edits)
	for _, noteID := range groups.order {
		if err := ctx.Err(); err != nil {
			return ledger, err
		}
		note, err := store.Note(ctx, noteID)
		if err != nil {
			return ledger, storeError("load note", noteID, err)
		}
		applied := applyEdits(note, groups.edits[noteID], false)
		if len(applied) == 0 {
			continue
		}
		if err := store.UpdateNote(ctx, note); err != nil {
			return ledger, storeError("update note", noteID, err)
		}
		ledger.Edits = append(ledger.Edits, applied...)
		for _, edit := range applied {
			ledger.Files[tagFilename(edit.OldTag)] = tagFilename(edit.NewTag)
		}
	}
	return ledger, nil
}

// Revert restores the tags recorded in ledger. Produced files are left in
// place. A failing note does not stop the remaining notes from reverting.
func Revert(ctx context.Context, store records.Store, ledger Ledger) error {
	var errs []error
	groups := groupByNote(ledger.Edits)
	for _, noteID := range groups.order {
		if err := ctx.Err(); err != nil {
			return err
		}
		note, err := store.Note(ctx, noteID)
		if err != nil {
			errs = append(errs, storeError("load note", noteID, err))
			continue
		}
		if len(applyEdits(note, groups.edits[noteID], true)) == 0 {
			continue
		}
		if err := store.UpdateNote(ctx, note); err != nil {
			errs = append(errs, storeError("update note", noteID, err))
		}
	}
	return errors.Join(errs...)
}

type noteGroups struct {
	order []int64
	edits map[int64][]Edit
}

func groupByNote(edits []Edit) noteGroups {
	groups := noteGroups{edits: make(map[int64][]Edit)}
	for _, edit := range edits {
		if _, ok := groups.edits[edit.NoteID]; !ok {
			groups.order = append(groups.order, edit.NoteID)
		}
		groups.edits[edit.NoteID] = append(groups.edits[edit.NoteID], edit)
	}
	return groups
}

// applyEdits mutates note in place and returns the edits that changed a
// field. Reverse mode swaps NewTag back to OldTag, walking edits backwards.
func applyEdits(note *records.Note, edits []Edit, reverse bool) []Edit {
	var applied []Edit
	for i := range edits {
		edit := edits[i]
		if reverse {
			edit = edits[len(edits)-1-i]
		}
		if edit.FieldIndex < 0 || edit.FieldIndex >= len(note.Fields) {
			continue
		}
		from, to := edit.OldTag, edit.NewTag
		if reverse {
			from, to = to, from
		}
		field := note.Fields[edit.FieldIndex]
		if from == "" || from == to || !strings.Contains(field, from) {
			continue
		}
		note.Fields[edit.FieldIndex] = strings.ReplaceAll(field, from, to)
		applied = append(applied, edit)
	}
	return applied
}

func tagFilename(tag string) string {
	if names := soundtag.Extract(tag); len(names) > 0 {
		return names[0]
	}
	return tag
}

func storeError(operation string, noteID int64, err error) error {
	marker := services.ErrTransient
	if errors.Is(err, records.ErrNotFound) {
		marker = services.ErrNotFound
	}
	return services.Wrap(marker, "rewrite", operation, fmt.Sprintf("note %d", noteID), err)
}
