// Package collection is the SQLite-backed record store holding notes and the
// cards that point at them.
package collection

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tempo/internal/records"
	"tempo/internal/sqliteutil"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// Store implements records.Store on top of SQLite.
type Store struct {
	db *sqliteutil.DB
}

var _ records.Store = (*Store)(nil)

// Open initializes or connects to the collection database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sqliteutil.Open(ctx, path, sqliteutil.Schema{Name: "collection", Version: schemaVersion, SQL: schemaSQL})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.db.Path()
}

// AddNote inserts a note and cardCount cards (at least one) pointing at it.
func (s *Store) AddNote(ctx context.Context, fields []string, cardCount int) (int64, []int64, error) {
	if cardCount < 1 {
		cardCount = 1
	}
	payload, err := encodeFields(fields)
	if err != nil {
		return 0, nil, err
	}
	now := sqliteutil.FormatTime(time.Now())

	var (
		noteID  int64
		cardIDs []int64
	)
	err = s.db.InTx(ctx, func(tx *sql.Tx) error {
		cardIDs = cardIDs[:0]
		res, err := tx.ExecContext(ctx,
			"INSERT INTO notes (fields_json, created_at, updated_at) VALUES (?, ?, ?)",
			payload, now, now,
		)
		if err != nil {
			return fmt.Errorf("insert note: %w", err)
		}
		if noteID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("note id: %w", err)
		}
		for ordinal := 0; ordinal < cardCount; ordinal++ {
			res, err := tx.ExecContext(ctx, "INSERT INTO cards (note_id, ordinal) VALUES (?, ?)", noteID, ordinal)
			if err != nil {
				return fmt.Errorf("insert card: %w", err)
			}
			cardID, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("card id: %w", err)
			}
			cardIDs = append(cardIDs, cardID)
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return noteID, cardIDs, nil
}

// NoteIDForCard resolves the note owning a card.
func (s *Store) NoteIDForCard(ctx context.Context, cardID int64) (int64, error) {
	var noteID int64
	err := s.db.QueryRowContext(ctx, "SELECT note_id FROM cards WHERE id = ?", cardID).Scan(&noteID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("card %d: %w", cardID, records.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("query card %d: %w", cardID, err)
	}
	return noteID, nil
}

// Note loads a note with its fields.
func (s *Store) Note(ctx context.Context, noteID int64) (*records.Note, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, fields_json, created_at, updated_at FROM notes WHERE id = ?", noteID)
	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("note %d: %w", noteID, records.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query note %d: %w", noteID, err)
	}
	return note, nil
}

// UpdateNote persists all fields of note and bumps its modification time.
func (s *Store) UpdateNote(ctx context.Context, note *records.Note) error {
	if note == nil {
		return errors.New("update note: nil note")
	}
	payload, err := encodeFields(note.Fields)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	res, err := s.db.ExecWithRetry(ctx,
		"UPDATE notes SET fields_json = ?, updated_at = ? WHERE id = ?",
		payload, sqliteutil.FormatTime(now), note.ID,
	)
	if err != nil {
		return fmt.Errorf("update note %d: %w", note.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update note %d: %w", note.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("note %d: %w", note.ID, records.ErrNotFound)
	}
	note.UpdatedAt = now
	return nil
}

// ListNotes returns every note ordered by id.
func (s *Store) ListNotes(ctx context.Context) ([]*records.Note, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, fields_json, created_at, updated_at FROM notes ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []*records.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// Cards returns the cards of noteID ordered by ordinal.
func (s *Store) Cards(ctx context.Context, noteID int64) ([]records.Card, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, note_id FROM cards WHERE note_id = ? ORDER BY ordinal, id", noteID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []records.Card
	for rows.Next() {
		var card records.Card
		if err := rows.Scan(&card.ID, &card.NoteID); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// CardIDs returns every card id in ascending order.
func (s *Store) CardIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM cards ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list card ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan card id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteNote removes a note and its cards.
func (s *Store) DeleteNote(ctx context.Context, noteID int64) (bool, error) {
	res, err := s.db.ExecWithRetry(ctx, "DELETE FROM notes WHERE id = ?", noteID)
	if err != nil {
		return false, fmt.Errorf("delete note %d: %w", noteID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func scanNote(scanner interface{ Scan(dest ...any) error }) (*records.Note, error) {
	var (
		id         int64
		fieldsJSON string
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(&id, &fieldsJSON, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	var fields []string
	if err := json.Unmarshal([]byte(fieldsJSON), &fields); err != nil {
		return nil, fmt.Errorf("decode fields of note %d: %w", id, err)
	}
	return &records.Note{
		ID:        id,
		Fields:    fields,
		CreatedAt: sqliteutil.ParseTime(createdRaw),
		UpdatedAt: sqliteutil.ParseTime(updatedRaw),
	}, nil
}

func encodeFields(fields []string) (string, error) {
	if fields == nil {
		fields = []string{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode fields: %w", err)
	}
	return string(data), nil
}
