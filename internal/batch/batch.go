package batch

import (
	"context"
	"errors"
	"log/slog"

	"tempo/internal/logging"
	"tempo/internal/services"
	"tempo/internal/soundtag"
	"tempo/internal/speedname"
	"tempo/internal/transcode"
)

// ProgressFunc receives the 1-based index of the file about to start.
type ProgressFunc func(current, total int, message string)

// CancelFunc is polled before each file.
type CancelFunc func() bool

// Options carries the optional callbacks of a run.
type Options struct {
	OnProgress  ProgressFunc
	IsCancelled CancelFunc
}

// Transcoder produces the speed-adjusted sibling of a media file.
type Transcoder interface {
	ProcessFile(ctx context.Context, mediaDir, filename string, speed float64) (transcode.Result, error)
}

// ResolveFunc locates the transcoder at the start of a run.
type ResolveFunc func() (Transcoder, error)

// Runner drives batch runs against one media directory.
type Runner struct {
	mediaDir string
	resolve  ResolveFunc
	logger   *slog.Logger
}

// NewRunner constructs a Runner.
func NewRunner(mediaDir string, resolve ResolveFunc, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		mediaDir: mediaDir,
		resolve:  resolve,
		logger:   logging.NewComponentLogger(logger, "batch"),
	}
}

// Run transcodes every unique filename referenced by refs to speed.
//
// When no transcoder can be resolved every unique filename fails with
// ErrTranscoderNotFound and nothing is attempted. Per-file failures never stop
// the run; cancellation is checked before each file.
func (r *Runner) Run(ctx context.Context, refs []soundtag.Reference, speed float64, opts Options) Outcome {
	filenames := soundtag.UniqueFilenames(refs)
	outcome := Outcome{Total: len(filenames)}
	if len(filenames) == 0 {
		return outcome
	}
	logger := logging.WithContext(ctx, r.logger)

	transcoder, err := r.resolveTranscoder()
	if err != nil {
		logging.ErrorWithContext(logger, "transcoder unavailable", "transcoder_missing",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "install ffmpeg or set transcoder.binary in the config"),
			logging.Int("files", len(filenames)),
		)
		for _, name := range filenames {
			outcome.Failed = append(outcome.Failed, Result{Source: name, Err: err})
		}
		return outcome
	}

	logger.Info("batch started",
		logging.String(logging.FieldEventType, "batch_start"),
		logging.Int("files", len(filenames)),
		logging.Float64("speed", speed),
	)
	sampler := logging.NewProgressSampler(10)
	for idx, name := range filenames {
		if r.cancelled(ctx, opts) {
			outcome.Cancelled = true
			logger.Info("batch cancelled",
				logging.String(logging.FieldEventType, "batch_cancelled"),
				logging.Int("completed", idx),
				logging.Int("files", len(filenames)),
			)
			break
		}
		if opts.OnProgress != nil {
			opts.OnProgress(idx+1, len(filenames), "Processing: "+name)
		}
		if sampler.ShouldLogItems(idx+1, len(filenames), "transcode") {
			logger.Info("batch progress",
				logging.String(logging.FieldEventType, "batch_progress"),
				logging.Int("current", idx+1),
				logging.Int("files", len(filenames)),
			)
		}

		outcome.Attempted++
		produced, err := transcoder.ProcessFile(ctx, r.mediaDir, name, speed)
		if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			// Interrupted mid-file: the partial output was discarded, so the
			// file counts as not started.
			outcome.Attempted--
			outcome.Cancelled = true
			break
		}
		if err != nil {
			logging.WarnWithContext(logger, "file failed", "transcode_failed",
				logging.String("file", name),
				logging.String("reason", services.Reason(err)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, hintFor(err)),
			)
			outcome.Failed = append(outcome.Failed, Result{Source: name, Err: err})
			continue
		}
		outcome.Succeeded = append(outcome.Succeeded, Result{
			Source:  name,
			Output:  speedname.AppendSuffix(name, speed),
			Reused:  produced.Reused,
			Success: true,
		})
	}

	logger.Info("batch finished",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("succeeded", len(outcome.Succeeded)),
		logging.Int("failed", len(outcome.Failed)),
		logging.Int("attempted", outcome.Attempted),
		logging.String("verdict", string(outcome.Verdict())),
	)
	return outcome
}

func (r *Runner) resolveTranscoder() (Transcoder, error) {
	if r.resolve == nil {
		return nil, services.Wrap(services.ErrTranscoderNotFound, "batch", "resolve", "no transcoder configured", nil)
	}
	transcoder, err := r.resolve()
	if err != nil {
		return nil, err
	}
	if transcoder == nil {
		return nil, services.Wrap(services.ErrTranscoderNotFound, "batch", "resolve", "no transcoder configured", nil)
	}
	return transcoder, nil
}

func (r *Runner) cancelled(ctx context.Context, opts Options) bool {
	if ctx.Err() != nil {
		return true
	}
	return opts.IsCancelled != nil && opts.IsCancelled()
}

func hintFor(err error) string {
	switch services.Reason(err) {
	case "source_not_found":
		return "check that the file exists in the media directory"
	case "timeout":
		return "raise transcoder.timeout_seconds for long recordings"
	case "output_invalid":
		return "inspect the source file; ffmpeg produced no usable audio"
	default:
		return "see the transcoder diagnostic in the error"
	}
}
