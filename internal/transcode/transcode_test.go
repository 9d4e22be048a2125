package transcode

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tempo/internal/services"
	"tempo/internal/transform"
)

type fakeRunner struct {
	calls  [][]string
	size   int
	stderr string
	err    error
	block  bool
}

func (f *fakeRunner) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{binary}, args...))
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return []byte(f.stderr), f.err
	}
	output := args[len(args)-1]
	if err := os.WriteFile(output, make([]byte, f.size), 0o644); err != nil {
		return nil, err
	}
	return nil, nil
}

func newExecutor(t *testing.T, runner Runner, opts ...Option) *Executor {
	t.Helper()
	opts = append([]Option{WithRunner(runner)}, opts...)
	executor, err := New(Settings{Binary: "ffmpeg"}, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return executor
}

func writeSource(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("source-audio"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func TestNewRequiresBinary(t *testing.T) {
	if _, err := New(Settings{}); !errors.Is(err, services.ErrTranscoderNotFound) {
		t.Fatalf("expected ErrTranscoderNotFound, got %v", err)
	}
}

func TestProcessFileWritesSuffixedOutput(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "word.mp3")
	runner := &fakeRunner{size: 4096}
	executor := newExecutor(t, runner)

	result, err := executor.ProcessFile(context.Background(), dir, "word.mp3", 1.5)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	want := filepath.Join(dir, "word_1.5x.mp3")
	if result.Output != want || result.Reused {
		t.Fatalf("unexpected result %#v", result)
	}
	if info, err := os.Stat(want); err != nil || info.Size() != 4096 {
		t.Fatalf("expected finished output, stat err=%v", err)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("expected one invocation, got %d", len(runner.calls))
	}
	args := strings.Join(runner.calls[0][:6], " ")
	if args != "ffmpeg -y -i "+filepath.Join(dir, "word.mp3")+" -filter:a atempo=1.5" {
		t.Fatalf("unexpected command prefix %q", args)
	}
	if got := listDir(t, dir); len(got) != 2 {
		t.Fatalf("expected source and output only, got %v", got)
	}
}

func TestExecuteSkipsExistingOutput(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "word.mp3")
	writeSource(t, dir, "word_1.5x.mp3")
	runner := &fakeRunner{size: 4096}
	executor := newExecutor(t, runner)

	result, err := executor.ProcessFile(context.Background(), dir, "word.mp3", 1.5)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if !result.Reused {
		t.Fatal("expected reused result")
	}
	if len(runner.calls) != 0 {
		t.Fatalf("expected ffmpeg not to run, got %d calls", len(runner.calls))
	}
}

func TestExecuteRejectsTinyOutput(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "word.ogg")
	executor := newExecutor(t, &fakeRunner{size: 10})

	_, err := executor.ProcessFile(context.Background(), dir, "word.ogg", 1.5)
	if !errors.Is(err, services.ErrOutputInvalid) {
		t.Fatalf("expected ErrOutputInvalid, got %v", err)
	}
	if got := listDir(t, dir); len(got) != 1 {
		t.Fatalf("expected no leftover files, got %v", got)
	}
}

func TestExecuteReportsTruncatedDiagnostic(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "word.wav")
	noise := strings.Repeat("x", 2000)
	executor := newExecutor(t, &fakeRunner{stderr: noise, err: errors.New("exit status 1")})

	_, err := executor.ProcessFile(context.Background(), dir, "word.wav", 1.5)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if strings.Contains(err.Error(), strings.Repeat("x", 501)) {
		t.Fatal("expected diagnostic to be truncated to 500 characters")
	}
	if !strings.Contains(err.Error(), strings.Repeat("x", 500)) {
		t.Fatal("expected diagnostic text in error")
	}
}

func TestExecuteTimesOut(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "word.mp3")
	executor, err := New(Settings{Binary: "ffmpeg", Timeout: 20 * time.Millisecond}, WithRunner(&fakeRunner{block: true}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = executor.ProcessFile(context.Background(), dir, "word.mp3", 1.5)
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestExecuteHonoursCallerCancellation(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "word.mp3")
	executor := newExecutor(t, &fakeRunner{block: true})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := executor.ProcessFile(ctx, dir, "word.mp3", 1.5)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestProcessFileMissingSource(t *testing.T) {
	executor := newExecutor(t, &fakeRunner{size: 4096})
	_, err := executor.ProcessFile(context.Background(), t.TempDir(), "gone.mp3", 1.5)
	if !errors.Is(err, services.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "File not found: gone.mp3") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestProbeFailureDiscardsOutput(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "word.mp3")
	probeErr := services.Wrap(services.ErrOutputInvalid, "transcode", "ffprobe", "output has no audio stream", nil)
	executor := newExecutor(t, &fakeRunner{size: 4096}, WithProbe(func(context.Context, string) error { return probeErr }))

	_, err := executor.ProcessFile(context.Background(), dir, "word.mp3", 1.5)
	if !errors.Is(err, services.ErrOutputInvalid) {
		t.Fatalf("expected probe failure, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "word_1.5x.mp3")); !os.IsNotExist(err) {
		t.Fatalf("expected no final output, stat err=%v", err)
	}
}

func TestProcessFileInSubdirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeSource(t, dir, filepath.Join("sub", "word.mp3"))
	executor := newExecutor(t, &fakeRunner{size: 4096})

	result, err := executor.ProcessFile(context.Background(), dir, "sub/word.mp3", 1.5)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if want := filepath.Join(dir, "sub", "word_1.5x.mp3"); result.Output != want {
		t.Fatalf("output = %q, want %q", result.Output, want)
	}
}

func TestProcessFileRejectsNamesOutsideMediaDir(t *testing.T) {
	root := t.TempDir()
	media := filepath.Join(root, "media")
	if err := os.Mkdir(media, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeSource(t, root, "outside.mp3")
	runner := &fakeRunner{size: 4096}
	executor := newExecutor(t, runner)

	for _, name := range []string{"../outside.mp3", filepath.Join(root, "outside.mp3")} {
		_, err := executor.ProcessFile(context.Background(), media, name, 1.5)
		if !errors.Is(err, services.ErrSourceNotFound) {
			t.Fatalf("%s: expected ErrSourceNotFound, got %v", name, err)
		}
	}
	if len(runner.calls) != 0 {
		t.Fatalf("expected no ffmpeg invocations, got %d", len(runner.calls))
	}
	if got := listDir(t, root); len(got) != 2 {
		t.Fatalf("expected only media dir and source, got %v", got)
	}
}

func TestPreviewWritesIntoScope(t *testing.T) {
	media := t.TempDir()
	scope := t.TempDir()
	writeSource(t, media, "word.m4a")
	executor := newExecutor(t, &fakeRunner{size: 4096})

	result, err := executor.Preview(context.Background(), media, "word.m4a", scope, 1.25)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if filepath.Dir(result.Output) != scope || filepath.Base(result.Output) != PreviewName("word.m4a", 1.25) {
		t.Fatalf("unexpected preview output %q", result.Output)
	}
	if got := listDir(t, media); len(got) != 1 {
		t.Fatalf("expected media dir untouched, got %v", got)
	}
}

func TestResolveSourceAcrossNormalizationForms(t *testing.T) {
	dir := t.TempDir()
	decomposed := "cafe\u0301.mp3"
	composed := "caf\u00e9.mp3"
	writeSource(t, dir, decomposed)

	got, err := ResolveSource(dir, composed)
	if err != nil {
		t.Fatalf("ResolveSource: %v", err)
	}
	if filepath.Base(got) != decomposed && filepath.Base(got) != composed {
		t.Fatalf("unexpected resolved path %q", got)
	}
}

func TestDiagnostic(t *testing.T) {
	if got := Diagnostic(nil, 500); got != "ffmpeg exited with an error" {
		t.Fatalf("unexpected empty diagnostic %q", got)
	}
	if got := Diagnostic([]byte("  héllo world  "), 5); got != "héllo" {
		t.Fatalf("unexpected truncation %q", got)
	}
}

func TestExecuteUsesPlanCodec(t *testing.T) {
	dir := t.TempDir()
	input := writeSource(t, dir, "clip.webm")
	runner := &fakeRunner{size: 4096}
	executor := newExecutor(t, runner)
	plan, err := transform.New(".webm", 4.0)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if _, err := executor.Execute(context.Background(), input, filepath.Join(dir, "clip_4.0x.webm"), plan); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	joined := strings.Join(runner.calls[0], " ")
	if !strings.Contains(joined, "atempo=2.0,atempo=2.0,atempo=1.0") || !strings.Contains(joined, "-vcodec copy") {
		t.Fatalf("unexpected args %q", joined)
	}
	if !strings.HasSuffix(joined, ".webm") {
		t.Fatalf("expected temp output to keep extension, got %q", joined)
	}
}
