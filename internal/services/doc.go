// Package services defines shared utilities consumed by the pipeline stages.
//
// Key responsibilities:
//   - Context helpers that stamp batch IDs, ledger IDs, stage names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so per-file failures can be
//     classified (missing transcoder, missing source, timeout, bad output)
//     without string matching.
//
// Use these helpers when wiring new stage logic so error reporting stays
// uniform across detection, transcoding, and reference rewriting.
package services
