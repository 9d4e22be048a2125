package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tempo/internal/collection"
	"tempo/internal/workflow"
)

func newRevertCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "revert [ledger-id]",
		Short: "Restore the tags rewritten by a speed run",
		Long: "Puts back the original sound tags recorded in an undo ledger. Without an\n" +
			"id the most recent ledger that has not been reverted is used. Produced\n" +
			"files stay in the media directory. A ledger can be reverted once.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id string
			if len(args) == 1 {
				id = args[0]
			}
			return ctx.withSession(cmd, func(session *workflow.Session, _ *collection.Store) error {
				entry, err := session.Ledger(cmd.Context(), id)
				if err != nil {
					return err
				}
				stderr := cmd.ErrOrStderr()
				if !yes && !entry.Spent() {
					prompt := fmt.Sprintf("Revert %s across %s from the %s run on %s?",
						plural(len(entry.Ledger.Edits), "edit", "edits"),
						plural(len(entry.Ledger.NoteIDs()), "note", "notes"),
						formatSpeed(entry.Speed),
						entry.CreatedAt.Local().Format("2006-01-02 15:04"))
					if !confirm(cmd.InOrStdin(), stderr, prompt) {
						fmt.Fprintln(stderr, "Aborted")
						return nil
					}
				}
				report, err := session.Revert(cmd.Context(), entry.ID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Reverted ledger %s: %s restored\n", shortID(report.LedgerID), plural(report.Notes, "note", "notes"))
				fmt.Fprintln(out, "Produced files were left in the media directory.")
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
