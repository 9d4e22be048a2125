package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tempo/internal/collection"
	"tempo/internal/soundtag"
	"tempo/internal/workflow"
)

func newDetectCommand(ctx *commandContext) *cobra.Command {
	var all bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "detect [card-id...]",
		Short: "List the audio referenced by the selected cards",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(session *workflow.Session, store *collection.Store) error {
				cardIDs, err := selectCards(cmd.Context(), store, args, all)
				if err != nil {
					return err
				}
				refs, summary, err := session.Detect(cmd.Context(), cardIDs)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, map[string]any{
						"summary":    summary,
						"references": referencesJSON(refs),
						"files":      soundtag.UniqueFilenames(refs),
					})
				}
				printDetection(cmd, refs, summary)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Scan every card in the collection")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}

func printDetection(cmd *cobra.Command, refs []soundtag.Reference, summary soundtag.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Cards with audio: %d\n", summary.CardsWithAudio)
	fmt.Fprintf(out, "Cards without audio: %d\n", summary.CardsWithoutAudio)
	fmt.Fprintf(out, "References: %d (%d already processed)\n", summary.TotalReferences, summary.AlreadyTransformed)
	fmt.Fprintf(out, "Unique files: %d\n", len(soundtag.UniqueFilenames(refs)))
	if len(refs) == 0 {
		return
	}
	rows := make([][]string, 0, len(refs))
	for _, ref := range refs {
		processed := "-"
		if ref.Transformed {
			processed = formatSpeed(ref.PriorSpeed)
		}
		rows = append(rows, []string{
			strconv.FormatInt(ref.CardID, 10),
			strconv.FormatInt(ref.NoteID, 10),
			strconv.Itoa(ref.FieldIndex),
			ref.Filename,
			processed,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Card", "Note", "Field", "File", "Processed"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignLeft},
	))
}
