// Package transcode runs ffmpeg for one audio file at a time.
//
// An Executor turns a transform.Plan into an ffmpeg invocation, bounds it with
// a per-file timeout, and validates what ffmpeg produced before the output
// appears under its final name. Outputs that already exist are treated as done
// so an interrupted batch can simply be re-run.
package transcode
