// Package ffprobe runs ffprobe against transcoded audio and decodes the JSON
// report.
//
// Inspect returns the raw streams and container metadata. VerifyAudio is the
// post-transcode check: the file must carry at least one audio stream and a
// positive duration.
package ffprobe
