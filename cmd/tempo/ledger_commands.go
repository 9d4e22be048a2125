package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tempo/internal/ledger"
)

const timeLayout = "2006-01-02 15:04"

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect undo ledgers",
	}
	ledgerCmd.AddCommand(newLedgerListCommand(ctx))
	ledgerCmd.AddCommand(newLedgerShowCommand(ctx))
	return ledgerCmd
}

func newLedgerListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List undo ledgers, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedgers(cmd, func(store *ledger.Store) error {
				summaries, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, summaries)
				}
				out := cmd.OutOrStdout()
				if len(summaries) == 0 {
					fmt.Fprintln(out, "No ledgers")
					return nil
				}
				rows := make([][]string, 0, len(summaries))
				for _, summary := range summaries {
					rows = append(rows, []string{
						shortID(summary.ID),
						summary.CreatedAt.Local().Format(timeLayout),
						formatSpeed(summary.Speed),
						strconv.Itoa(summary.Edits),
						strconv.Itoa(summary.Files),
						yesNo(summary.Spent()),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Created", "Speed", "Edits", "Files", "Reverted"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}

func newLedgerShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show [ledger-id]",
		Short: "Show the edits and files recorded by a ledger",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedgers(cmd, func(store *ledger.Store) error {
				var (
					entry ledger.Entry
					err   error
				)
				if len(args) == 1 {
					entry, err = store.Get(cmd.Context(), args[0])
				} else {
					entry, err = store.Latest(cmd.Context())
				}
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, entry)
				}
				printLedger(cmd, entry)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}

func printLedger(cmd *cobra.Command, entry ledger.Entry) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Ledger: %s\n", entry.ID)
	fmt.Fprintf(out, "Created: %s\n", entry.CreatedAt.Local().Format(timeLayout))
	fmt.Fprintf(out, "Speed: %s\n", formatSpeed(entry.Speed))
	if entry.Spent() {
		fmt.Fprintf(out, "Reverted: %s\n", entry.RevertedAt.Local().Format(timeLayout))
	} else {
		fmt.Fprintln(out, "Reverted: no")
	}
	if len(entry.Ledger.Edits) > 0 {
		rows := make([][]string, 0, len(entry.Ledger.Edits))
		for _, edit := range entry.Ledger.Edits {
			rows = append(rows, []string{
				strconv.FormatInt(edit.NoteID, 10),
				strconv.Itoa(edit.FieldIndex),
				edit.OldTag,
				edit.NewTag,
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Note", "Field", "Old", "New"},
			rows,
			[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft},
		))
	}
}
