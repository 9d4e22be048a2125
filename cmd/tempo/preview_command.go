package main

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"tempo/internal/collection"
	"tempo/internal/config"
	"tempo/internal/fileutil"
	"tempo/internal/workflow"
)

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var all bool
	var speed float64
	var exportDir string

	cmd := &cobra.Command{
		Use:   "preview [card-id...]",
		Short: "Render a random sample of the selected audio at the requested speed",
		Long: "Transcodes a random sample of the referenced files into a temporary\n" +
			"directory so the speed can be judged before committing. The media\n" +
			"directory and the notes are never modified. Previews are discarded when\n" +
			"the command exits unless --export is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			resolved, err := resolveSpeed(cmd, cfg, speed)
			if err != nil {
				return err
			}
			return ctx.withSession(cmd, func(session *workflow.Session, store *collection.Store) error {
				cardIDs, err := selectCards(cmd.Context(), store, args, all)
				if err != nil {
					return err
				}
				refs, _, err := session.Detect(cmd.Context(), cardIDs)
				if err != nil {
					return err
				}
				result, err := session.Preview(cmd.Context(), refs, resolved)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if result.Available == 0 {
					fmt.Fprintln(out, "No audio files to preview")
					return nil
				}
				fmt.Fprintf(out, "Rendered %d of %d sampled files at %s (from %s)\n",
					len(result.Files), result.Sampled, formatSpeed(resolved),
					plural(result.Available, "unique file", "unique files"))
				for _, failure := range result.Failed {
					fmt.Fprintf(cmd.ErrOrStderr(), "Preview failed for %s: %v\n", failure.Source, failure.Err)
				}
				if len(result.Files) == 0 {
					return nil
				}

				if strings.TrimSpace(exportDir) != "" {
					return exportPreviews(cmd, result.Files, exportDir)
				}
				for _, path := range result.Files {
					fmt.Fprintf(out, "  %s\n", path)
				}
				if isTerminal(cmd.InOrStdin()) {
					fmt.Fprint(out, "Press Enter to discard the previews...")
					_, _ = bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Sample from every card in the collection")
	cmd.Flags().Float64VarP(&speed, "speed", "s", 0, "Playback speed multiplier (defaults to speed.default)")
	cmd.Flags().StringVar(&exportDir, "export", "", "Copy the previews into this directory")
	return cmd
}

func exportPreviews(cmd *cobra.Command, files []string, dir string) error {
	target, err := config.ExpandPath(dir)
	if err != nil {
		return err
	}
	exported, err := fileutil.ExportFiles(files, target)
	if err != nil {
		return fmt.Errorf("export previews: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Exported %s to %s\n", plural(len(exported), "preview", "previews"), target)
	for _, path := range exported {
		fmt.Fprintf(out, "  %s\n", filepath.Base(path))
	}
	return nil
}
