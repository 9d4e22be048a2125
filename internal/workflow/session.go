package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/gofrs/flock"

	"tempo/internal/batch"
	"tempo/internal/config"
	"tempo/internal/deps"
	"tempo/internal/ledger"
	"tempo/internal/logging"
	"tempo/internal/media/ffprobe"
	"tempo/internal/records"
	"tempo/internal/services"
	"tempo/internal/soundtag"
	"tempo/internal/staging"
	"tempo/internal/transcode"
)

const (
	lockRetryDelay     = 100 * time.Millisecond
	defaultLockTimeout = 10 * time.Second
)

// Option configures optional Session behavior.
type Option func(*Session)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTranscodeRunner replaces process execution for every transcode
// (primarily for tests).
func WithTranscodeRunner(runner transcode.Runner) Option {
	return func(s *Session) {
		s.transcodeOpts = append(s.transcodeOpts, transcode.WithRunner(runner))
	}
}

// WithLockTimeout bounds how long commit and revert wait for the collection
// lock.
func WithLockTimeout(timeout time.Duration) Option {
	return func(s *Session) {
		if timeout > 0 {
			s.lockTimeout = timeout
		}
	}
}

// WithRand fixes the random source used to sample preview files.
func WithRand(r *rand.Rand) Option {
	return func(s *Session) {
		if r != nil {
			s.rand = r
		}
	}
}

// Session coordinates a detect → preview → apply (→ revert) run.
type Session struct {
	cfg     *config.Config
	store   records.Store
	ledgers *ledger.Store
	logger  *slog.Logger

	scope       *staging.Scope
	lock        *flock.Flock
	lockTimeout time.Duration
	rand        *rand.Rand

	transcodeOpts []transcode.Option
	runner        *batch.Runner
}

// Open prepares a session: it sweeps stale preview scopes, acquires a fresh
// one, and wires the batch runner. Close must be called when done.
func Open(ctx context.Context, cfg *config.Config, store records.Store, ledgers *ledger.Store, opts ...Option) (*Session, error) {
	if cfg == nil || store == nil || ledgers == nil {
		return nil, errors.New("workflow session requires config, record store, and ledger store")
	}
	s := &Session{
		cfg:         cfg,
		store:       store,
		ledgers:     ledgers,
		logger:      logging.NewNop(),
		lock:        flock.New(cfg.LockPath()),
		lockTimeout: defaultLockTimeout,
		rand:        rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x7e3f0)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "workflow")

	root := cfg.PreviewRoot()
	if swept := staging.CleanStale(ctx, root, cfg.PreviewStaleAge(), s.logger); len(swept.Removed) > 0 {
		s.logger.Info("swept stale preview scopes",
			logging.Int("removed", len(swept.Removed)),
			logging.String(logging.FieldEventType, "preview_cleanup"),
		)
	}
	scope, err := staging.Acquire(root)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "open", "preview scope unavailable", err)
	}
	s.scope = scope
	s.runner = batch.NewRunner(cfg.Paths.MediaDir, s.resolveTranscoder, s.logger)
	return s, nil
}

// Close releases the preview scope.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	return s.scope.Release()
}

// PreviewDir returns the session's preview scope directory.
func (s *Session) PreviewDir() string {
	return s.scope.Path()
}

// Detect scans the notes behind cardIDs for sound tags.
func (s *Session) Detect(ctx context.Context, cardIDs []int64) ([]soundtag.Reference, soundtag.Summary, error) {
	refs, summary, err := soundtag.Detect(ctx, s.store, cardIDs)
	if err != nil {
		return nil, soundtag.Summary{}, err
	}
	s.logger.Info("detection complete",
		logging.String(logging.FieldEventType, "detect_complete"),
		logging.Int("cards", len(cardIDs)),
		logging.Int("cards_with_audio", summary.CardsWithAudio),
		logging.Int("references", summary.TotalReferences),
		logging.Int("already_transformed", summary.AlreadyTransformed),
	)
	return refs, summary, nil
}

// Candidates filters refs for processing. Unless includeProcessed is set,
// references that already carry a speed suffix are dropped and counted.
func (s *Session) Candidates(refs []soundtag.Reference, includeProcessed bool) ([]soundtag.Reference, int) {
	if includeProcessed {
		return refs, 0
	}
	kept, skipped := soundtag.Untransformed(refs)
	if skipped > 0 {
		attrs := logging.DecisionAttrs("skip_processed", "skipped", "reference already carries a speed suffix")
		attrs = append(attrs, logging.Int("skipped", skipped), logging.Int("remaining", len(kept)))
		s.logger.Info("skipping already processed references", logging.Args(attrs...)...)
	}
	return kept, skipped
}

// newExecutor builds an executor for the given ffmpeg path.
func (s *Session) newExecutor(ffmpegPath string) (*transcode.Executor, error) {
	opts := []transcode.Option{transcode.WithLogger(s.logger)}
	if s.cfg.Transcoder.ProbeOutput {
		probeBinary := deps.ResolveFFprobe(s.cfg.FFprobeBinary(), ffmpegPath)
		opts = append(opts, transcode.WithProbe(func(ctx context.Context, path string) error {
			_, err := ffprobe.VerifyAudio(ctx, probeBinary, path)
			return err
		}))
	}
	opts = append(opts, s.transcodeOpts...)
	return transcode.New(transcode.Settings{
		Binary:          ffmpegPath,
		Timeout:         s.cfg.TranscodeTimeout(),
		MinOutputBytes:  s.cfg.Transcoder.MinOutputBytes,
		DiagnosticLimit: s.cfg.Transcoder.DiagnosticLimit,
	}, opts...)
}

func (s *Session) executor() (*transcode.Executor, error) {
	path, err := deps.ResolveTranscoder(s.cfg.Transcoder.Binary, s.cfg.Transcoder.SearchPaths)
	if err != nil {
		return nil, err
	}
	return s.newExecutor(path)
}

func (s *Session) resolveTranscoder() (batch.Transcoder, error) {
	executor, err := s.executor()
	if err != nil {
		return nil, err
	}
	return executor, nil
}

// withCollectionLock runs fn while holding the collection lock.
func (s *Session) withCollectionLock(ctx context.Context, fn func() error) error {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	locked, err := s.lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("acquire collection lock: %w", err)
	}
	if !locked {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return services.Wrap(services.ErrTransient, "workflow", "lock", "collection is locked by another tempo process", nil)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release collection lock",
				logging.Error(err),
				logging.String(logging.FieldEventType, "lock_release_failed"),
				logging.String(logging.FieldErrorHint, "remove "+s.cfg.LockPath()+" if no tempo process is running"),
			)
		}
	}()
	return fn()
}
