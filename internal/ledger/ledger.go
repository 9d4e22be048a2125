// Package ledger persists undo ledgers so a committed speed change can be
// reverted from a later invocation. A ledger can be reverted once.
package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"tempo/internal/rewrite"
	"tempo/internal/services"
	"tempo/internal/sqliteutil"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSpent is returned when a ledger has already been reverted.
var ErrSpent = errors.New("ledger already reverted")

// Entry is a persisted ledger.
type Entry struct {
	ID         string         `json:"id"`
	BatchID    string         `json:"batch_id,omitempty"`
	Speed      float64        `json:"speed"`
	CreatedAt  time.Time      `json:"created_at"`
	RevertedAt time.Time      `json:"reverted_at,omitzero"`
	Ledger     rewrite.Ledger `json:"ledger"`
}

// Spent reports whether the ledger was already reverted.
func (e Entry) Spent() bool {
	return !e.RevertedAt.IsZero()
}

// Summary is a ledger row without its edits.
type Summary struct {
	ID         string    `json:"id"`
	Speed      float64   `json:"speed"`
	CreatedAt  time.Time `json:"created_at"`
	RevertedAt time.Time `json:"reverted_at,omitzero"`
	Edits      int       `json:"edits"`
	Files      int       `json:"files"`
}

// Spent reports whether the ledger was already reverted.
func (s Summary) Spent() bool {
	return !s.RevertedAt.IsZero()
}

// Store persists ledgers in SQLite.
type Store struct {
	db  *sqliteutil.DB
	now func() time.Time
}

// Open initializes or connects to the ledger database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sqliteutil.Open(ctx, path, sqliteutil.Schema{Name: "ledger", Version: schemaVersion, SQL: schemaSQL})
	if err != nil {
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// Save persists ledger under a new id.
func (s *Store) Save(ctx context.Context, batchID string, speed float64, ledger rewrite.Ledger) (Entry, error) {
	entry := Entry{
		ID:        uuid.NewString(),
		BatchID:   batchID,
		Speed:     speed,
		CreatedAt: s.now().UTC(),
		Ledger:    ledger,
	}
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO ledgers (id, batch_id, speed, created_at) VALUES (?, ?, ?, ?)",
			entry.ID, sqliteutil.NullableString(batchID), speed, sqliteutil.FormatTime(entry.CreatedAt),
		); err != nil {
			return fmt.Errorf("insert ledger: %w", err)
		}
		for seq, edit := range ledger.Edits {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO ledger_edits (ledger_id, seq, card_id, note_id, field_index, old_tag, new_tag)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				entry.ID, seq, edit.CardID, edit.NoteID, edit.FieldIndex, edit.OldTag, edit.NewTag,
			); err != nil {
				return fmt.Errorf("insert ledger edit: %w", err)
			}
		}
		for _, source := range sortedKeys(ledger.Files) {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO ledger_files (ledger_id, source, produced) VALUES (?, ?, ?)",
				entry.ID, source, ledger.Files[source],
			); err != nil {
				return fmt.Errorf("insert ledger file: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Entry{}, services.Wrap(services.ErrTransient, "ledger", "save", entry.ID, err)
	}
	return entry, nil
}

// Get loads a ledger by id. A unique id prefix is accepted.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Entry{}, services.Wrap(services.ErrValidation, "ledger", "get", "ledger id required", nil)
	}
	const query = "SELECT id, batch_id, speed, created_at, reverted_at FROM ledgers WHERE "
	entry, err := scanEntry(s.db.QueryRowContext(ctx, query+"id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		entry, err = s.getByPrefix(ctx, query+"id LIKE ? LIMIT 2", id)
	}
	if err != nil {
		return Entry{}, err
	}
	if err := s.loadDetails(ctx, &entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (s *Store) getByPrefix(ctx context.Context, query, prefix string) (Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, likePrefix(prefix))
	if err != nil {
		return Entry{}, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()
	var matches []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return Entry{}, fmt.Errorf("scan ledger: %w", err)
		}
		matches = append(matches, entry)
	}
	if err := rows.Err(); err != nil {
		return Entry{}, err
	}
	switch len(matches) {
	case 0:
		return Entry{}, services.Wrap(services.ErrNotFound, "ledger", "get", "no ledger "+prefix, nil)
	case 1:
		return matches[0], nil
	default:
		return Entry{}, services.Wrap(services.ErrValidation, "ledger", "get", "ambiguous ledger id "+prefix, nil)
	}
}

// Latest returns the most recent ledger that has not been reverted.
func (s *Store) Latest(ctx context.Context) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, batch_id, speed, created_at, reverted_at FROM ledgers WHERE reverted_at IS NULL ORDER BY created_at DESC, rowid DESC LIMIT 1",
	)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, services.Wrap(services.ErrNotFound, "ledger", "latest", "no revertible ledger", nil)
	}
	if err != nil {
		return Entry{}, err
	}
	if err := s.loadDetails(ctx, &entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// List returns ledger summaries, newest first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.id, l.speed, l.created_at, l.reverted_at,
		       (SELECT COUNT(1) FROM ledger_edits e WHERE e.ledger_id = l.id),
		       (SELECT COUNT(1) FROM ledger_files f WHERE f.ledger_id = l.id)
		FROM ledgers l ORDER BY l.created_at DESC, l.rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list ledgers: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var (
			summary    Summary
			createdRaw sql.NullString
			revertedAt sql.NullString
		)
		if err := rows.Scan(&summary.ID, &summary.Speed, &createdRaw, &revertedAt, &summary.Edits, &summary.Files); err != nil {
			return nil, fmt.Errorf("scan ledger: %w", err)
		}
		summary.CreatedAt = sqliteutil.ParseTime(createdRaw)
		summary.RevertedAt = sqliteutil.ParseTime(revertedAt)
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// MarkReverted flags id as spent. It fails with ErrSpent when the ledger was
// already reverted.
func (s *Store) MarkReverted(ctx context.Context, id string) error {
	res, err := s.db.ExecWithRetry(ctx,
		"UPDATE ledgers SET reverted_at = ? WHERE id = ? AND reverted_at IS NULL",
		sqliteutil.FormatTime(s.now()), id,
	)
	if err != nil {
		return services.Wrap(services.ErrTransient, "ledger", "mark reverted", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	var exists int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM ledgers WHERE id = ?", id).Scan(&exists); err != nil {
		return fmt.Errorf("check ledger: %w", err)
	}
	if exists == 0 {
		return services.Wrap(services.ErrNotFound, "ledger", "mark reverted", "no ledger "+id, nil)
	}
	return fmt.Errorf("%s: %w", id, ErrSpent)
}

func (s *Store) loadDetails(ctx context.Context, entry *Entry) error {
	entry.Ledger = rewrite.Ledger{Files: map[string]string{}}

	rows, err := s.db.QueryContext(ctx,
		"SELECT card_id, note_id, field_index, old_tag, new_tag FROM ledger_edits WHERE ledger_id = ? ORDER BY seq",
		entry.ID,
	)
	if err != nil {
		return fmt.Errorf("query ledger edits: %w", err)
	}
	for rows.Next() {
		var edit rewrite.Edit
		if err := rows.Scan(&edit.CardID, &edit.NoteID, &edit.FieldIndex, &edit.OldTag, &edit.NewTag); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan ledger edit: %w", err)
		}
		entry.Ledger.Edits = append(entry.Ledger.Edits, edit)
	}
	if err := rows.Close(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx, "SELECT source, produced FROM ledger_files WHERE ledger_id = ?", entry.ID)
	if err != nil {
		return fmt.Errorf("query ledger files: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var source, produced string
		if err := rows.Scan(&source, &produced); err != nil {
			return fmt.Errorf("scan ledger file: %w", err)
		}
		entry.Ledger.Files[source] = produced
	}
	return rows.Err()
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (Entry, error) {
	var (
		entry      Entry
		batchID    sql.NullString
		createdRaw sql.NullString
		revertedAt sql.NullString
	)
	if err := scanner.Scan(&entry.ID, &batchID, &entry.Speed, &createdRaw, &revertedAt); err != nil {
		return Entry{}, err
	}
	entry.BatchID = batchID.String
	entry.CreatedAt = sqliteutil.ParseTime(createdRaw)
	entry.RevertedAt = sqliteutil.ParseTime(revertedAt)
	return entry, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// likePrefix drops LIKE wildcards, which never occur in ledger ids.
func likePrefix(value string) string {
	return strings.NewReplacer("%", "", "_", "").Replace(value) + "%"
}
