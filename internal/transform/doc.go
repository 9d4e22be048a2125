// Package transform turns a playback rate and an input extension into the
// ffmpeg audio filter chain and output codec arguments.
//
// The atempo filter accepts factors between 0.5 and 2.0, so larger or smaller
// rates are expressed as a chain of stages whose product is the requested
// rate.
package transform
