package preflight

import (
	"context"

	"tempo/internal/config"
)

// minFreeBytes is the free space the media directory needs before a batch.
const minFreeBytes = 64 << 20

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes every check, for the doctor command.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := RunBatchChecks(ctx, cfg)
	return append(results,
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckTranscoder(cfg),
		CheckCollectionLock(cfg.LockPath()),
	)
}

// RunBatchChecks executes the checks that must pass before any file is
// transcoded. A missing transcoder is not among them: the batch reports it
// per file.
func RunBatchChecks(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil || ctx.Err() != nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Media directory", cfg.Paths.MediaDir),
		CheckFreeSpace("Media free space", cfg.Paths.MediaDir, minFreeBytes),
	}
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}
