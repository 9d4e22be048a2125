// Package workflow drives one tempo session end to end.
//
// A Session owns the preview scope for its lifetime and wires detection,
// previews, the transcode batch, the tag rewrite and the undo ledger
// together. Writes to the collection (commit and revert) happen under an
// advisory file lock so two tempo processes never interleave note updates.
//
// Apply never commits a cancelled run or one where every file failed; the
// produced files stay in the media directory so the next run reuses them.
package workflow
