package transform

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// MinStage and MaxStage bound a single atempo factor.
	MinStage = 0.5
	MaxStage = 2.0
	// MaxStages caps the length of a chain, which bounds accepted rates to
	// roughly 2^15 in either direction.
	MaxStages = 16
)

// ErrInvalidSpeed is returned for rates that cannot be planned.
var ErrInvalidSpeed = errors.New("invalid speed")

// Plan is the complete transcoder directive for one file.
type Plan struct {
	Speed  float64
	Stages []float64
	Codec  Codec
}

// New plans the transform of a file with extension ext (with or without the
// leading dot) to the given speed.
func New(ext string, speed float64) (Plan, error) {
	stages, err := Stages(speed)
	if err != nil {
		return Plan{}, err
	}
	return Plan{Speed: speed, Stages: stages, Codec: CodecFor(ext)}, nil
}

// Stages decomposes speed into atempo factors within [MinStage, MaxStage].
//
// Rates above 2.0 emit 2.0 stages until the remainder drops below 2.0, then
// the remainder itself, rounded to six decimals. The remainder stage is
// emitted even when it equals 1.0, so 4.0 yields [2, 2, 1]. Rates below 0.5
// mirror this with 0.5 stages.
func Stages(speed float64) ([]float64, error) {
	if math.IsNaN(speed) || math.IsInf(speed, 0) || speed <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpeed, speed)
	}
	if speed >= MinStage && speed <= MaxStage {
		return []float64{speed}, nil
	}

	var stages []float64
	remaining := speed
	for remaining >= MaxStage {
		stages = append(stages, MaxStage)
		remaining /= MaxStage
		if len(stages) >= MaxStages {
			return nil, fmt.Errorf("%w: %v needs more than %d stages", ErrInvalidSpeed, speed, MaxStages)
		}
	}
	for remaining <= MinStage {
		stages = append(stages, MinStage)
		remaining /= MinStage
		if len(stages) >= MaxStages {
			return nil, fmt.Errorf("%w: %v needs more than %d stages", ErrInvalidSpeed, speed, MaxStages)
		}
	}

	remaining = math.Round(remaining*1e6) / 1e6
	if remaining < MinStage || remaining > MaxStage {
		return nil, fmt.Errorf("%w: remainder %v out of range", ErrInvalidSpeed, remaining)
	}
	return append(stages, remaining), nil
}

// FilterChain renders the stages as an ffmpeg -filter:a value.
func (p Plan) FilterChain() string {
	parts := make([]string, 0, len(p.Stages))
	for _, stage := range p.Stages {
		parts = append(parts, "atempo="+formatFactor(stage))
	}
	return strings.Join(parts, ",")
}

// Product returns the effective rate of the chain.
func (p Plan) Product() float64 {
	product := 1.0
	for _, stage := range p.Stages {
		product *= stage
	}
	return product
}

// Args returns the ffmpeg argument list transcoding input to output.
func (p Plan) Args(input, output string) []string {
	args := []string{"-y", "-i", input, "-filter:a", p.FilterChain()}
	args = append(args, p.Codec.Args()...)
	return append(args, output)
}

// formatFactor prints the shortest exact form, keeping at least one decimal.
func formatFactor(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
