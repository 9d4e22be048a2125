package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"tempo/internal/config"
	"tempo/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	t.Setenv("TEMPO_MEDIA_DIR", "")
	t.Setenv("TEMPO_FFMPEG", "")

	cfg := testsupport.NewConfig(t, opts...)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (env *cliTestEnv) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, append([]string{"--config", env.configPath}, args...), stdin)
}

func runCLI(t *testing.T, args []string, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func (env *cliTestEnv) addNote(t *testing.T, fields ...string) {
	t.Helper()
	args := append([]string{"note", "add"}, fields...)
	if _, _, err := env.run(t, "", args...); err != nil {
		t.Fatalf("note add: %v", err)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "tempo.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("expected target path in output, got %q", out)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config already exists")
	}

	env := setupCLITestEnv(t)
	out, _, err = env.run(t, "", "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "Configuration valid") || !strings.Contains(out, env.cfg.Paths.MediaDir) {
		t.Fatalf("unexpected validate output %q", out)
	}
}

func TestNoteCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := env.run(t, "", "note", "add", "--cards", "2", "<b>hola</b> [sound:hola.mp3]", "hello")
	if err != nil {
		t.Fatalf("note add: %v", err)
	}
	if !strings.Contains(out, "Added note 1 (cards: 1, 2)") {
		t.Fatalf("unexpected add output %q", out)
	}

	out, _, err = env.run(t, "", "note", "list")
	if err != nil {
		t.Fatalf("note list: %v", err)
	}
	if !strings.Contains(out, "hola [sound:hola.mp3] | hello") {
		t.Fatalf("expected plain-text snippet, got %q", out)
	}

	out, _, err = env.run(t, "", "note", "show", "1")
	if err != nil {
		t.Fatalf("note show: %v", err)
	}
	if !strings.Contains(out, "[0] <b>hola</b> [sound:hola.mp3]") || !strings.Contains(out, "Cards: 1, 2") {
		t.Fatalf("unexpected show output %q", out)
	}

	if _, _, err := env.run(t, "", "note", "show", "abc"); err == nil {
		t.Fatal("expected error for invalid note id")
	}
}

func TestDetectJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	env.addNote(t, "[sound:a.mp3] [sound:b_1.5x.ogg] [sound:doc.pdf]")
	env.addNote(t, "no audio")

	out, _, err := env.run(t, "", "detect", "--all", "--json")
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	var payload struct {
		Summary struct {
			CardsWithAudio     int `json:"cards_with_audio"`
			CardsWithoutAudio  int `json:"cards_without_audio"`
			TotalReferences    int `json:"total_references"`
			AlreadyTransformed int `json:"already_transformed"`
		} `json:"summary"`
		References []referenceJSON `json:"references"`
		Files      []string        `json:"files"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode detect output: %v\n%s", err, out)
	}
	if payload.Summary.CardsWithAudio != 1 || payload.Summary.CardsWithoutAudio != 1 ||
		payload.Summary.TotalReferences != 2 || payload.Summary.AlreadyTransformed != 1 {
		t.Fatalf("unexpected summary %+v", payload.Summary)
	}
	if len(payload.References) != 2 || payload.References[1].PriorSpeed != 1.5 {
		t.Fatalf("unexpected references %+v", payload.References)
	}

	if _, _, err := env.run(t, "", "detect"); err == nil {
		t.Fatal("expected error when no cards are selected")
	}
}

func TestSpeedLedgerAndRevert(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubTranscoder())
	testsupport.WriteMedia(t, env.cfg, "a.mp3", "b.wav")
	env.addNote(t, "[sound:a.mp3]", "[sound:b.wav] [sound:a.mp3]")

	out, _, err := env.run(t, "", "speed", "--all", "--speed", "1.5", "--yes", "--json")
	if err != nil {
		t.Fatalf("speed: %v", err)
	}
	var report struct {
		Verdict      string `json:"verdict"`
		LedgerID     string `json:"ledger_id"`
		NotesUpdated int    `json:"notes_updated"`
		Succeeded    []struct {
			Source string `json:"source"`
			Output string `json:"output"`
		} `json:"succeeded"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode speed output: %v\n%s", err, out)
	}
	if report.Verdict != "complete" || report.LedgerID == "" || report.NotesUpdated != 1 || len(report.Succeeded) != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Succeeded[0].Output != "a_1.5x.mp3" || report.Succeeded[1].Output != "b_1.5x.wav" {
		t.Fatalf("unexpected outputs %+v", report.Succeeded)
	}

	out, _, err = env.run(t, "", "note", "show", "1")
	if err != nil {
		t.Fatalf("note show: %v", err)
	}
	if !strings.Contains(out, "[1] [sound:b_1.5x.wav] [sound:a_1.5x.mp3]") {
		t.Fatalf("expected rewritten tags, got %q", out)
	}

	out, _, err = env.run(t, "", "ledger", "list")
	if err != nil {
		t.Fatalf("ledger list: %v", err)
	}
	if !strings.Contains(out, shortID(report.LedgerID)) {
		t.Fatalf("expected ledger in list, got %q", out)
	}

	out, _, err = env.run(t, "", "ledger", "show", "--json", shortID(report.LedgerID))
	if err != nil {
		t.Fatalf("ledger show: %v", err)
	}
	if !strings.Contains(out, `"new_tag": "[sound:a_1.5x.mp3]"`) {
		t.Fatalf("unexpected ledger json %q", out)
	}

	out, _, err = env.run(t, "", "revert", "--yes")
	if err != nil {
		t.Fatalf("revert: %v", err)
	}
	if !strings.Contains(out, "1 note restored") {
		t.Fatalf("unexpected revert output %q", out)
	}
	out, _, _ = env.run(t, "", "note", "show", "1")
	if !strings.Contains(out, "[1] [sound:b.wav] [sound:a.mp3]") {
		t.Fatalf("expected original tags after revert, got %q", out)
	}

	if _, _, err := env.run(t, "", "revert", "--yes", report.LedgerID); err == nil {
		t.Fatal("expected second revert to fail")
	}
	if _, _, err := env.run(t, "", "revert", "--yes"); err == nil {
		t.Fatal("expected revert without pending ledgers to fail")
	}
}

func TestSpeedDeclinedPromptChangesNothing(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubTranscoder())
	testsupport.WriteMedia(t, env.cfg, "a.mp3")
	env.addNote(t, "[sound:a.mp3]")

	_, stderr, err := env.run(t, "n\n", "speed", "--all")
	if err != nil {
		t.Fatalf("speed: %v", err)
	}
	if !strings.Contains(stderr, "Process 1 unique audio file at 1.2x speed?") || !strings.Contains(stderr, "Aborted") {
		t.Fatalf("unexpected prompt output %q", stderr)
	}
	if got := testsupport.ReadDirNames(t, env.cfg.Paths.MediaDir); len(got) != 1 {
		t.Fatalf("media dir should be untouched, got %v", got)
	}
}

func TestSpeedSkipsProcessedReferences(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubTranscoder())
	env.addNote(t, "[sound:a_1.5x.mp3]")

	out, stderr, err := env.run(t, "", "speed", "--all", "--yes")
	if err != nil {
		t.Fatalf("speed: %v", err)
	}
	if !strings.Contains(stderr, "Skipping 1 reference") || !strings.Contains(out, "No audio files to process") {
		t.Fatalf("unexpected output stdout=%q stderr=%q", out, stderr)
	}
}

func TestSpeedRejectsOutOfRange(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubTranscoder())
	env.addNote(t, "[sound:a.mp3]")
	if _, _, err := env.run(t, "", "speed", "--all", "--yes", "--speed", "5"); err == nil {
		t.Fatal("expected range error")
	}
}

func TestSpeedAllFailedReturnsError(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithMissingTranscoder())
	testsupport.WriteMedia(t, env.cfg, "a.mp3")
	env.addNote(t, "[sound:a.mp3]")

	out, _, err := env.run(t, "", "speed", "--all", "--yes")
	if err == nil {
		t.Fatal("expected error when every file fails")
	}
	if !strings.Contains(out, "transcoder_not_found") {
		t.Fatalf("expected failure reason in output, got %q", out)
	}
}

func TestPreviewExport(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubTranscoder())
	testsupport.WriteMedia(t, env.cfg, "a.mp3", "b.mp3")
	env.addNote(t, "[sound:a.mp3] [sound:b.mp3]")
	exportDir := filepath.Join(t.TempDir(), "export")

	out, _, err := env.run(t, "", "preview", "--all", "--speed", "2", "--export", exportDir)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !strings.Contains(out, "Exported 2 previews") {
		t.Fatalf("unexpected preview output %q", out)
	}
	got := testsupport.ReadDirNames(t, exportDir)
	if len(got) != 2 || got[0] != "preview_2.0x_a.mp3" || got[1] != "preview_2.0x_b.mp3" {
		t.Fatalf("unexpected exported files %v", got)
	}
	if names := testsupport.ReadDirNames(t, env.cfg.Paths.PreviewDir); len(names) != 0 {
		t.Fatalf("preview scope should be released, found %v", names)
	}
}

func TestDoctorReportsSections(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubTranscoder())
	out, _, err := env.run(t, "", "doctor")
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	for _, want := range []string{"== Environment ==", "Media directory:", "FFmpeg:", "== Preview scratch =="} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in doctor output:\n%s", want, out)
		}
	}
}

func TestDoctorFailsWithoutTranscoder(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithMissingTranscoder())
	if _, _, err := env.run(t, "", "doctor"); err == nil {
		t.Fatal("expected doctor to report missing ffmpeg")
	}
}
