package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"tempo/internal/services"
)

// probeEntries limits ffprobe output to what output verification reads.
const probeEntries = "format=duration,format_name:stream=index,codec_name,codec_type,sample_rate,channels,duration"

// Result is the subset of ffprobe's JSON report tempo inspects.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes one stream of the probed file.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Duration   string `json:"duration"`
}

// Format carries container metadata.
type Format struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
}

// Inspect runs ffprobe against path and decodes its report.
func Inspect(ctx context.Context, binary, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	if strings.TrimSpace(path) == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-show_entries", probeEntries, "-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return Parse(output)
}

// Parse decodes an ffprobe JSON payload.
func Parse(payload []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// VerifyAudio probes a freshly transcoded file and fails with
// ErrOutputInvalid unless it holds audio with a positive duration.
func VerifyAudio(ctx context.Context, binary, path string) (Result, error) {
	result, err := Inspect(ctx, binary, path)
	if err != nil {
		return Result{}, services.Wrap(services.ErrOutputInvalid, "transcode", "ffprobe", "output could not be inspected", err)
	}
	return result, result.CheckAudio()
}

// CheckAudio reports whether the result describes playable audio.
func (r Result) CheckAudio() error {
	streams := r.AudioStreams()
	if len(streams) == 0 {
		return services.Wrap(services.ErrOutputInvalid, "transcode", "ffprobe", "output has no audio stream", nil)
	}
	if r.DurationSeconds() <= 0 {
		return services.Wrap(services.ErrOutputInvalid, "transcode", "ffprobe", "output has no duration", nil)
	}
	return nil
}

// AudioStreams returns the audio streams in probe order.
func (r Result) AudioStreams() []Stream {
	var audio []Stream
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			audio = append(audio, stream)
		}
	}
	return audio
}

// DurationSeconds returns the container duration, falling back to the
// longest audio stream for containers that do not report one. Unknown or
// malformed durations yield 0.
func (r Result) DurationSeconds() float64 {
	if d := seconds(r.Format.Duration); d > 0 {
		return d
	}
	var longest float64
	for _, stream := range r.AudioStreams() {
		longest = max(longest, seconds(stream.Duration))
	}
	return longest
}

func seconds(value string) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || parsed < 0 || math.IsNaN(parsed) {
		return 0
	}
	return parsed
}
