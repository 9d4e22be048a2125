// Package batch transcodes the unique audio files behind a set of sound tag
// references, one at a time, reporting progress and honouring cancellation
// between files.
package batch
