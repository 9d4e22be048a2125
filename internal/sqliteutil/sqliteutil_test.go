package sqliteutil

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

var testSchema = Schema{Name: "test", Version: 1, SQL: "CREATE TABLE things (id INTEGER PRIMARY KEY, name TEXT)"}

func TestOpenCreatesAndVerifiesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "test.db")
	db, err := Open(context.Background(), path, testSchema)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := db.ExecWithRetry(context.Background(), "INSERT INTO things (name) VALUES (?)", "a"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(context.Background(), path, testSchema)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	var count int
	if err := reopened.QueryRowContext(context.Background(), "SELECT COUNT(1) FROM things").Scan(&count); err != nil || count != 1 {
		t.Fatalf("expected persisted row, count=%d err=%v", count, err)
	}
	_ = reopened.Close()

	bumped := testSchema
	bumped.Version = 2
	if _, err := Open(context.Background(), path, bumped); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestInTxRollsBackOnError(t *testing.T) {
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "tx.db"), testSchema)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	boom := errors.New("boom")
	err = db.InTx(context.Background(), func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO things (name) VALUES ('x')"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(1) FROM things").Scan(&count); err != nil || count != 0 {
		t.Fatalf("expected rollback, count=%d err=%v", count, err)
	}
}

func TestRetryOnBusy(t *testing.T) {
	attempts := 0
	err := RetryOnBusy(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	if err != nil || attempts != 3 {
		t.Fatalf("expected success after 3 attempts, got %d attempts err=%v", attempts, err)
	}

	attempts = 0
	other := errors.New("constraint failed")
	if err := RetryOnBusy(context.Background(), func() error { attempts++; return other }); !errors.Is(err, other) || attempts != 1 {
		t.Fatalf("expected non-busy error to return immediately, attempts=%d err=%v", attempts, err)
	}
}

func TestTimeHelpers(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 5, time.UTC)
	parsed := ParseTime(sql.NullString{String: FormatTime(now), Valid: true})
	if !parsed.Equal(now) {
		t.Fatalf("ParseTime = %v, want %v", parsed, now)
	}
	if !ParseTime(sql.NullString{}).IsZero() {
		t.Fatal("expected zero time for NULL")
	}
	if NullableString("") != nil || NullableString("x") != "x" {
		t.Fatal("unexpected NullableString result")
	}
}
