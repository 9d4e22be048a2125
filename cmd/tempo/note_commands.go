package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"tempo/internal/collection"
	"tempo/internal/textutil"
)

const noteSnippetWidth = 60

func newNoteCommand(ctx *commandContext) *cobra.Command {
	noteCmd := &cobra.Command{
		Use:   "note",
		Short: "Inspect and add collection notes",
	}
	noteCmd.AddCommand(newNoteAddCommand(ctx))
	noteCmd.AddCommand(newNoteListCommand(ctx))
	noteCmd.AddCommand(newNoteShowCommand(ctx))
	return noteCmd
}

func newNoteAddCommand(ctx *commandContext) *cobra.Command {
	var cards int

	cmd := &cobra.Command{
		Use:   "add <field>...",
		Short: "Add a note with the given fields",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cards < 1 {
				return fmt.Errorf("--cards must be at least 1")
			}
			return ctx.withCollection(cmd, func(store *collection.Store) error {
				noteID, cardIDs, err := store.AddNote(cmd.Context(), args, cards)
				if err != nil {
					return err
				}
				ids := make([]string, 0, len(cardIDs))
				for _, id := range cardIDs {
					ids = append(ids, strconv.FormatInt(id, 10))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added note %d (cards: %s)\n", noteID, strings.Join(ids, ", "))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&cards, "cards", 1, "Number of cards generated from the note")
	return cmd
}

func newNoteListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List notes with a preview of their fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCollection(cmd, func(store *collection.Store) error {
				notes, err := store.ListNotes(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(notes) == 0 {
					fmt.Fprintln(out, "No notes")
					return nil
				}
				rows := make([][]string, 0, len(notes))
				for _, note := range notes {
					cards, err := store.Cards(cmd.Context(), note.ID)
					if err != nil {
						return err
					}
					rows = append(rows, []string{
						strconv.FormatInt(note.ID, 10),
						strconv.Itoa(len(cards)),
						textutil.Snippet(strings.Join(note.Fields, " | "), noteSnippetWidth),
						note.UpdatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Cards", "Fields", "Updated"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newNoteShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <note-id>",
		Short: "Show every field of a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			return ctx.withCollection(cmd, func(store *collection.Store) error {
				note, err := store.Note(cmd.Context(), ids[0])
				if err != nil {
					return err
				}
				cards, err := store.Cards(cmd.Context(), note.ID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Note %d\n", note.ID)
				cardIDs := make([]string, 0, len(cards))
				for _, card := range cards {
					cardIDs = append(cardIDs, strconv.FormatInt(card.ID, 10))
				}
				fmt.Fprintf(out, "Cards: %s\n", strings.Join(cardIDs, ", "))
				for idx, field := range note.Fields {
					fmt.Fprintf(out, "[%d] %s\n", idx, field)
				}
				return nil
			})
		},
	}
}
