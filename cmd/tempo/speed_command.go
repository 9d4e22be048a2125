package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tempo/internal/batch"
	"tempo/internal/collection"
	"tempo/internal/config"
	"tempo/internal/services"
	"tempo/internal/soundtag"
	"tempo/internal/workflow"
)

type speedOptions struct {
	all              bool
	speed            float64
	yes              bool
	includeProcessed bool
	asJSON           bool
}

func newSpeedCommand(ctx *commandContext) *cobra.Command {
	var opts speedOptions

	cmd := &cobra.Command{
		Use:   "speed [card-id...]",
		Short: "Speed up the audio of the selected cards and rewrite their tags",
		Long: "Transcodes every unique audio file referenced by the selected cards to the\n" +
			"requested speed, writes the result next to the original, and points the\n" +
			"notes at the new files. Originals are kept; use 'tempo revert' to undo.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			speed, err := resolveSpeed(cmd, cfg, opts.speed)
			if err != nil {
				return err
			}
			return ctx.withSession(cmd, func(session *workflow.Session, store *collection.Store) error {
				cardIDs, err := selectCards(cmd.Context(), store, args, opts.all)
				if err != nil {
					return err
				}
				refs, _, err := session.Detect(cmd.Context(), cardIDs)
				if err != nil {
					return err
				}
				includeProcessed := opts.includeProcessed || !cfg.Batch.SkipProcessed
				candidates, skipped := session.Candidates(refs, includeProcessed)

				stderr := cmd.ErrOrStderr()
				if skipped > 0 {
					fmt.Fprintf(stderr, "Skipping %s that already carry a speed suffix (use --include-processed to redo them)\n",
						plural(skipped, "reference", "references"))
				}
				files := len(soundtag.UniqueFilenames(candidates))
				if files == 0 {
					if opts.asJSON {
						return writeJSON(cmd, speedReportJSON(workflow.Report{Speed: speed, Verdict: batch.VerdictNothingToDo}))
					}
					fmt.Fprintln(cmd.OutOrStdout(), "No audio files to process")
					return nil
				}
				if !opts.yes {
					prompt := fmt.Sprintf("Process %s at %s speed? Originals are preserved.",
						plural(files, "unique audio file", "unique audio files"), formatSpeed(speed))
					if !confirm(cmd.InOrStdin(), stderr, prompt) {
						fmt.Fprintln(stderr, "Aborted")
						return nil
					}
				}

				progress := newProgressPrinter(stderr)
				report, applyErr := session.Apply(cmd.Context(), candidates, speed, batch.Options{
					OnProgress: progress.update,
				})
				progress.finish()
				if applyErr != nil && report.Verdict == "" {
					return applyErr
				}
				if opts.asJSON {
					if err := writeJSON(cmd, speedReportJSON(report)); err != nil {
						return err
					}
				} else {
					printSpeedReport(cmd.OutOrStdout(), report)
				}
				if applyErr != nil {
					return applyErr
				}
				if report.Verdict == batch.VerdictAllFailed {
					return errors.New("no files were processed")
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&opts.all, "all", false, "Process every card in the collection")
	cmd.Flags().Float64VarP(&opts.speed, "speed", "s", 0, "Playback speed multiplier (defaults to speed.default)")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&opts.includeProcessed, "include-processed", false, "Also process references that already carry a speed suffix")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Emit JSON output")
	return cmd
}

// resolveSpeed applies the configured default when --speed was not given and
// enforces the configured range.
func resolveSpeed(cmd *cobra.Command, cfg *config.Config, speed float64) (float64, error) {
	if !cmd.Flags().Changed("speed") {
		speed = cfg.Speed.Default
	}
	if err := cfg.CheckSpeed(speed); err != nil {
		return 0, services.Wrap(services.ErrValidation, "cli", "speed", "", err)
	}
	return speed, nil
}

func printSpeedReport(out io.Writer, report workflow.Report) {
	outcome := report.Outcome
	switch report.Verdict {
	case batch.VerdictCancelled:
		fmt.Fprintf(out, "Cancelled after %s; no notes were changed.\n", plural(len(outcome.Succeeded), "file", "files"))
		fmt.Fprintln(out, "Files already produced are kept and will be reused on the next run.")
	case batch.VerdictAllFailed:
		fmt.Fprintln(out, "No files were processed; no notes were changed.")
	default:
		fmt.Fprintf(out, "Processed %d of %d files at %s\n", len(outcome.Succeeded), outcome.Total, formatSpeed(report.Speed))
		fmt.Fprintf(out, "Notes updated: %d\n", report.NotesUpdated)
		if report.LedgerID != "" {
			fmt.Fprintf(out, "Undo with: tempo revert %s\n", shortID(report.LedgerID))
		}
	}
	if len(outcome.Failed) > 0 {
		rows := make([][]string, 0, len(outcome.Failed))
		for _, failure := range outcome.Failed {
			rows = append(rows, []string{failure.Source, failure.Reason(), failure.Err.Error()})
		}
		fmt.Fprintln(out, renderTable([]string{"File", "Reason", "Error"}, rows, nil))
	}
	if len(outcome.Succeeded) > 0 {
		fmt.Fprintln(out, "Original files are preserved in the media directory.")
	}
}

type fileResultJSON struct {
	Source string `json:"source"`
	Output string `json:"output,omitempty"`
	Reused bool   `json:"reused,omitempty"`
	Reason string `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`
}

func speedReportJSON(report workflow.Report) map[string]any {
	succeeded := make([]fileResultJSON, 0, len(report.Outcome.Succeeded))
	for _, result := range report.Outcome.Succeeded {
		succeeded = append(succeeded, fileResultJSON{Source: result.Source, Output: result.Output, Reused: result.Reused})
	}
	failed := make([]fileResultJSON, 0, len(report.Outcome.Failed))
	for _, result := range report.Outcome.Failed {
		failed = append(failed, fileResultJSON{Source: result.Source, Reason: result.Reason(), Error: result.Err.Error()})
	}
	return map[string]any{
		"batch_id":      report.BatchID,
		"speed":         report.Speed,
		"verdict":       report.Verdict,
		"ledger_id":     report.LedgerID,
		"notes_updated": report.NotesUpdated,
		"edits":         report.Edits,
		"attempted":     report.Outcome.Attempted,
		"total":         report.Outcome.Total,
		"succeeded":     succeeded,
		"failed":        failed,
	}
}
