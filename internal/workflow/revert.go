package workflow

import (
	"context"
	"errors"
	"fmt"

	"tempo/internal/ledger"
	"tempo/internal/logging"
	"tempo/internal/rewrite"
	"tempo/internal/services"
)

// RevertReport summarizes a Revert call.
type RevertReport struct {
	LedgerID string
	Notes    int
	Edits    int
}

// Revert restores the tags recorded in the ledger with the given id (or
// unique id prefix). Produced files are kept. A ledger reverts once.
func (s *Session) Revert(ctx context.Context, ledgerID string) (RevertReport, error) {
	entry, err := s.ledgers.Get(ctx, ledgerID)
	if err != nil {
		return RevertReport{}, err
	}
	return s.revert(ctx, entry)
}

// RevertLatest reverts the most recent ledger that has not been reverted.
func (s *Session) RevertLatest(ctx context.Context) (RevertReport, error) {
	entry, err := s.ledgers.Latest(ctx)
	if err != nil {
		return RevertReport{}, err
	}
	return s.revert(ctx, entry)
}

// Ledger loads a ledger for confirmation prompts.
func (s *Session) Ledger(ctx context.Context, ledgerID string) (ledger.Entry, error) {
	if ledgerID == "" {
		return s.ledgers.Latest(ctx)
	}
	return s.ledgers.Get(ctx, ledgerID)
}

func (s *Session) revert(ctx context.Context, entry ledger.Entry) (RevertReport, error) {
	report := RevertReport{LedgerID: entry.ID, Notes: len(entry.Ledger.NoteIDs()), Edits: len(entry.Ledger.Edits)}
	if entry.Spent() {
		return report, fmt.Errorf("%s: %w", entry.ID, ledger.ErrSpent)
	}
	ctx = services.WithLedgerID(ctx, entry.ID)
	logger := logging.WithContext(ctx, s.logger)

	err := s.withCollectionLock(ctx, func() error {
		// Another process may have reverted it while we waited for the lock.
		current, err := s.ledgers.Get(ctx, entry.ID)
		if err != nil {
			return err
		}
		if current.Spent() {
			return fmt.Errorf("%s: %w", entry.ID, ledger.ErrSpent)
		}
		if err := rewrite.Revert(ctx, s.store, current.Ledger); err != nil {
			return err
		}
		return s.ledgers.MarkReverted(context.WithoutCancel(ctx), entry.ID)
	})
	if errors.Is(err, ledger.ErrSpent) {
		return report, err
	}
	if err != nil {
		logging.ErrorWithContext(logger, "revert incomplete", "revert_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the ledger stays revertible; run revert again once the store is reachable"),
		)
		return report, err
	}
	logger.Info("ledger reverted",
		logging.String(logging.FieldEventType, "revert_complete"),
		logging.Int("notes", report.Notes),
		logging.Int("edits", report.Edits),
	)
	return report, nil
}
