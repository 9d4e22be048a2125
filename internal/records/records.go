// Package records defines the note and card model the pipeline reads and
// rewrites, plus the narrow store interface it depends on.
//
// A note owns an ordered list of free-text fields. A card points at exactly one
// note; several cards may share a note. Media references live inside note
// fields, so edits are always applied to notes.
package records

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a card or note id is unknown to the store.
var ErrNotFound = errors.New("record not found")

// Note is a field-bearing record.
type Note struct {
	ID        int64
	Fields    []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy so callers can mutate fields without touching the
// store's copy.
func (n *Note) Clone() *Note {
	if n == nil {
		return nil
	}
	clone := *n
	clone.Fields = append([]string(nil), n.Fields...)
	return &clone
}

// Card references a note.
type Card struct {
	ID     int64
	NoteID int64
}

// Store is the record store the pipeline reads from and writes back to.
type Store interface {
	// NoteIDForCard resolves the note owning a card.
	NoteIDForCard(ctx context.Context, cardID int64) (int64, error)
	// Note loads a note with its fields.
	Note(ctx context.Context, noteID int64) (*Note, error)
	// UpdateNote persists all fields of note.
	UpdateNote(ctx context.Context, note *Note) error
}
