package workflow

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"tempo/internal/batch"
	"tempo/internal/logging"
	"tempo/internal/rewrite"
	"tempo/internal/services"
	"tempo/internal/soundtag"
	"tempo/internal/transform"
)

// Report summarizes an Apply call.
type Report struct {
	BatchID string
	Speed   float64
	Outcome batch.Outcome
	Verdict batch.Verdict
	// LedgerID is set when edits were committed.
	LedgerID     string
	NotesUpdated int
	Edits        int
}

// Apply transcodes the files behind refs to speed and, when at least one file
// succeeded and the run was not cancelled, rewrites the tags of the affected
// notes and saves an undo ledger.
//
// A commit that fails part way still saves a ledger for the notes that were
// written, and the error is returned alongside the report.
func (s *Session) Apply(ctx context.Context, refs []soundtag.Reference, speed float64, opts batch.Options) (Report, error) {
	if _, err := transform.Stages(speed); err != nil {
		return Report{}, services.Wrap(services.ErrValidation, "apply", "plan", "", err)
	}
	report := Report{BatchID: uuid.NewString(), Speed: speed}
	ctx = services.WithBatchID(ctx, report.BatchID)
	logger := logging.WithContext(ctx, s.logger)

	if len(refs) > 0 {
		if err := s.runPreflightChecks(ctx, logger); err != nil {
			return report, err
		}
	}

	report.Outcome = s.runner.Run(services.WithStage(ctx, "transcode"), refs, speed, opts)
	report.Verdict = report.Outcome.Verdict()
	switch report.Verdict {
	case batch.VerdictNothingToDo, batch.VerdictAllFailed, batch.VerdictCancelled:
		logger.Info("no edits committed",
			logging.String(logging.FieldDecisionType, "commit_skipped"),
			logging.String("verdict", string(report.Verdict)),
		)
		return report, nil
	}

	edits := rewrite.BuildEdits(refs, report.Outcome.Produced())
	var (
		applied   rewrite.Ledger
		commitErr error
	)
	lockErr := s.withCollectionLock(ctx, func() error {
		applied, commitErr = rewrite.Commit(ctx, s.store, edits)
		return nil
	})
	if lockErr != nil {
		return report, lockErr
	}

	report.Edits = len(applied.Edits)
	report.NotesUpdated = len(applied.NoteIDs())
	if !applied.Empty() {
		entry, err := s.ledgers.Save(context.WithoutCancel(ctx), report.BatchID, speed, applied)
		if err != nil {
			logging.ErrorWithContext(logger, "undo ledger not saved", "ledger_save_failed",
				logging.Error(err),
				logging.Alert("notes_rewritten_without_ledger"),
				logging.String(logging.FieldErrorHint, "edits were applied; revert by re-running detect and editing manually"),
			)
			return report, errors.Join(commitErr, err)
		}
		report.LedgerID = entry.ID
	}

	if commitErr != nil {
		logging.ErrorWithContext(logger, "commit incomplete", "commit_failed",
			logging.Error(commitErr),
			logging.Int("notes_updated", report.NotesUpdated),
			logging.String(logging.FieldLedgerID, report.LedgerID),
			logging.String(logging.FieldErrorHint, "revert the saved ledger or re-run to finish the remaining notes"),
		)
		return report, commitErr
	}
	logger.Info("edits committed",
		logging.String(logging.FieldEventType, "commit_complete"),
		logging.String(logging.FieldLedgerID, report.LedgerID),
		logging.Int("notes_updated", report.NotesUpdated),
		logging.Int("edits", report.Edits),
	)
	return report, nil
}
