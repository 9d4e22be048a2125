package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"tempo/internal/logging"
	"tempo/internal/services"
	"tempo/internal/speedname"
	"tempo/internal/transform"
)

const (
	defaultTimeout         = 120 * time.Second
	defaultMinOutputBytes  = 100
	defaultDiagnosticLimit = 500
)

// Settings configures an Executor.
type Settings struct {
	Binary          string
	Timeout         time.Duration
	MinOutputBytes  int64
	DiagnosticLimit int
}

// ProbeFunc verifies a finished output file.
type ProbeFunc func(ctx context.Context, path string) error

// Option configures the executor.
type Option func(*Executor)

// WithRunner injects a custom runner (primarily for tests).
func WithRunner(runner Runner) Option {
	return func(e *Executor) {
		if runner != nil {
			e.runner = runner
		}
	}
}

// WithProbe enables post-transcode verification of each output.
func WithProbe(probe ProbeFunc) Option {
	return func(e *Executor) {
		e.probe = probe
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Result describes one transcoded file.
type Result struct {
	Source  string
	Output  string
	Reused  bool
	Elapsed time.Duration
}

// Executor wraps ffmpeg invocations.
type Executor struct {
	settings Settings
	runner   Runner
	probe    ProbeFunc
	logger   *slog.Logger
}

// New constructs an Executor. Zero-valued settings take the defaults.
func New(settings Settings, opts ...Option) (*Executor, error) {
	settings.Binary = strings.TrimSpace(settings.Binary)
	if settings.Binary == "" {
		return nil, services.Wrap(services.ErrTranscoderNotFound, "transcode", "init", "ffmpeg binary required", nil)
	}
	if settings.Timeout <= 0 {
		settings.Timeout = defaultTimeout
	}
	if settings.MinOutputBytes <= 0 {
		settings.MinOutputBytes = defaultMinOutputBytes
	}
	if settings.DiagnosticLimit <= 0 {
		settings.DiagnosticLimit = defaultDiagnosticLimit
	}
	executor := &Executor{
		settings: settings,
		runner:   commandRunner{},
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(executor)
	}
	executor.logger = executor.logger.With(logging.String(logging.FieldComponent, "transcode"))
	return executor, nil
}

// Binary returns the ffmpeg executable in use.
func (e *Executor) Binary() string {
	return e.settings.Binary
}

// Execute transcodes input into output according to plan. An output that
// already exists is reported as Reused without running ffmpeg.
func (e *Executor) Execute(ctx context.Context, input, output string, plan transform.Plan) (Result, error) {
	result := Result{Source: input, Output: output}
	if info, err := os.Stat(output); err == nil && !info.IsDir() {
		result.Reused = true
		e.logger.Debug("output already present",
			logging.String(logging.FieldEventType, "transcode_reused"),
			logging.String("output", output),
		)
		return result, nil
	}

	temp, err := reserveTemp(output)
	if err != nil {
		return result, services.Wrap(services.ErrTransient, "transcode", "reserve output", filepath.Base(output), err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(temp)
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, e.settings.Timeout)
	defer cancel()

	started := time.Now()
	stderr, runErr := e.runner.Run(runCtx, e.settings.Binary, plan.Args(input, temp))
	result.Elapsed = time.Since(started)
	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("transcode %s: %w", filepath.Base(input), ctxErr)
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return result, services.Wrap(services.ErrTimeout, "transcode", "ffmpeg",
				fmt.Sprintf("timed out after %s", e.settings.Timeout), nil)
		}
		return result, services.Wrap(services.ErrExternalTool, "transcode", "ffmpeg",
			Diagnostic(stderr, e.settings.DiagnosticLimit), runErr)
	}

	info, err := os.Stat(temp)
	if err != nil || info.Size() < e.settings.MinOutputBytes {
		return result, services.Wrap(services.ErrOutputInvalid, "transcode", "validate output",
			"output file not created or too small", nil)
	}
	if e.probe != nil {
		if err := e.probe(ctx, temp); err != nil {
			return result, err
		}
	}
	if err := os.Rename(temp, output); err != nil {
		return result, services.Wrap(services.ErrTransient, "transcode", "finalize output", filepath.Base(output), err)
	}
	committed = true

	e.logger.Debug("transcode finished",
		logging.String(logging.FieldEventType, "transcode_complete"),
		logging.String("output", output),
		logging.Int64("size_bytes", info.Size()),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// ProcessFile transcodes a media directory entry to speed, writing the
// suffixed sibling next to it.
func (e *Executor) ProcessFile(ctx context.Context, mediaDir, filename string, speed float64) (Result, error) {
	source, err := ResolveSource(mediaDir, filename)
	if err != nil {
		return Result{Source: filepath.Join(mediaDir, filename)}, err
	}
	plan, err := transform.New(filepath.Ext(filename), speed)
	if err != nil {
		return Result{Source: source}, services.Wrap(services.ErrValidation, "transcode", "plan", filename, err)
	}
	output := filepath.Join(mediaDir, speedname.AppendSuffix(filename, speed))
	return e.Execute(ctx, source, output, plan)
}

// PreviewName returns the file name used for a preview of filename.
func PreviewName(filename string, speed float64) string {
	return fmt.Sprintf("preview_%.1fx_%s", speed, filepath.Base(filename))
}

// Preview transcodes a media directory entry into destDir without touching the
// media directory.
func (e *Executor) Preview(ctx context.Context, mediaDir, filename, destDir string, speed float64) (Result, error) {
	source, err := ResolveSource(mediaDir, filename)
	if err != nil {
		return Result{Source: filepath.Join(mediaDir, filename)}, err
	}
	plan, err := transform.New(filepath.Ext(filename), speed)
	if err != nil {
		return Result{Source: source}, services.Wrap(services.ErrValidation, "preview", "plan", filename, err)
	}
	return e.Execute(ctx, source, filepath.Join(destDir, PreviewName(filename, speed)), plan)
}

// ResolveSource locates filename inside mediaDir. Names that differ only in
// Unicode normalization form are treated as the same file. Names that would
// escape mediaDir are never found.
func ResolveSource(mediaDir, filename string) (string, error) {
	if !filepath.IsLocal(filename) {
		return "", services.Wrap(services.ErrSourceNotFound, "transcode", "resolve source",
			"File outside media directory: "+filename, nil)
	}
	candidates := []string{filename, norm.NFC.String(filename), norm.NFD.String(filename)}
	for _, name := range candidates {
		path := filepath.Join(mediaDir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", services.Wrap(services.ErrSourceNotFound, "transcode", "resolve source",
		"File not found: "+filename, nil)
}

// Diagnostic trims process output to at most limit characters.
func Diagnostic(stderr []byte, limit int) string {
	text := strings.TrimSpace(string(stderr))
	if text == "" {
		return "ffmpeg exited with an error"
	}
	runes := []rune(text)
	if limit > 0 && len(runes) > limit {
		return string(runes[:limit])
	}
	return text
}

// reserveTemp creates an empty sibling of output carrying the same
// extension, so ffmpeg still picks the right muxer.
func reserveTemp(output string) (string, error) {
	dir := filepath.Dir(output)
	ext := filepath.Ext(output)
	stem := strings.TrimSuffix(filepath.Base(output), ext)
	file, err := os.CreateTemp(dir, "."+stem+".partial-*"+ext)
	if err != nil {
		return "", err
	}
	name := file.Name()
	if err := file.Close(); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}
