package logging

import "strings"

// ProgressSampler suppresses repetitive progress logs while preserving signal
// when the phase changes or the completion percentage crosses a bucket.
type ProgressSampler struct {
	bucketSize float64
	lastPhase  string
	lastBucket int
}

// NewProgressSampler constructs a sampler that emits when the percent crosses
// bucket boundaries (default 10%) or when the phase changes.
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether a progress event should be logged. Percent can be
// negative to indicate "unknown"; phase is trimmed before comparison.
func (s *ProgressSampler) ShouldLog(percent float64, phase string) bool {
	if s == nil {
		return true
	}
	phase = strings.TrimSpace(phase)
	emit := false
	if phase != "" && phase != s.lastPhase {
		s.lastPhase = phase
		s.lastBucket = -1
		emit = true
	}
	if percent >= 0 {
		bucket := int(percent / s.bucketSize)
		if percent >= 100 {
			bucket = int(100 / s.bucketSize)
		}
		if bucket > s.lastBucket {
			s.lastBucket = bucket
			emit = true
		}
	}
	return emit
}

// ShouldLogItems is ShouldLog for item counters. The first and last item of a
// run always log.
func (s *ProgressSampler) ShouldLogItems(current, total int, phase string) bool {
	if total <= 0 {
		return s.ShouldLog(-1, phase)
	}
	percent := float64(current) * 100 / float64(total)
	emit := s.ShouldLog(percent, phase)
	return emit || current == 1 || current == total
}
