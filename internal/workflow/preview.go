package workflow

import (
	"context"
	"path/filepath"

	"tempo/internal/batch"
	"tempo/internal/logging"
	"tempo/internal/services"
	"tempo/internal/soundtag"
	"tempo/internal/transform"
)

// PreviewResult lists the renders of one preview request.
type PreviewResult struct {
	Dir     string
	Files   []string
	Failed  []batch.Result
	Sampled int
	// Available is the number of unique files the sample was drawn from.
	Available int
}

// Preview transcodes a random sample of the referenced files into the
// session's preview scope. The media directory is never written.
func (s *Session) Preview(ctx context.Context, refs []soundtag.Reference, speed float64) (PreviewResult, error) {
	if _, err := transform.Stages(speed); err != nil {
		return PreviewResult{}, services.Wrap(services.ErrValidation, "preview", "plan", "", err)
	}
	result := PreviewResult{Dir: s.scope.Path()}
	filenames := soundtag.UniqueFilenames(refs)
	result.Available = len(filenames)
	if len(filenames) == 0 {
		return result, nil
	}

	executor, err := s.executor()
	if err != nil {
		return result, err
	}

	sample := s.sample(filenames)
	result.Sampled = len(sample)
	for _, name := range sample {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		produced, err := executor.Preview(ctx, s.cfg.Paths.MediaDir, name, s.scope.Path(), speed)
		if err != nil {
			result.Failed = append(result.Failed, batch.Result{Source: name, Err: err})
			continue
		}
		result.Files = append(result.Files, produced.Output)
	}
	s.logger.Info("preview ready",
		logging.String(logging.FieldEventType, "preview_complete"),
		logging.String("dir", filepath.Base(result.Dir)),
		logging.Int("files", len(result.Files)),
		logging.Int("failed", len(result.Failed)),
		logging.Float64("speed", speed),
	)
	return result, nil
}

// sample picks between SampleMin and SampleMax filenames at random, capped
// by the number available.
func (s *Session) sample(filenames []string) []string {
	lo, hi := s.cfg.Preview.SampleMin, s.cfg.Preview.SampleMax
	if lo < 1 {
		lo = 1
	}
	if hi < lo {
		hi = lo
	}
	size := lo + s.rand.IntN(hi-lo+1)
	if size > len(filenames) {
		size = len(filenames)
	}
	shuffled := append([]string(nil), filenames...)
	s.rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:size]
}
