package transform

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
)

func TestStagesSingleStageInRange(t *testing.T) {
	for _, speed := range []float64{0.5, 0.75, 1.0, 1.2, 1.999, 2.0} {
		stages, err := Stages(speed)
		if err != nil {
			t.Fatalf("Stages(%v): %v", speed, err)
		}
		if len(stages) != 1 || stages[0] != speed {
			t.Fatalf("Stages(%v) = %v, want single stage", speed, stages)
		}
	}
}

func TestStagesAboveTwo(t *testing.T) {
	cases := []struct {
		speed float64
		want  []float64
	}{
		{4.0, []float64{2.0, 2.0, 1.0}},
		{3.0, []float64{2.0, 1.5}},
		{2.5, []float64{2.0, 1.25}},
		{8.0, []float64{2.0, 2.0, 2.0, 1.0}},
	}
	for _, tc := range cases {
		got, err := Stages(tc.speed)
		if err != nil {
			t.Fatalf("Stages(%v): %v", tc.speed, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("Stages(%v) = %v, want %v", tc.speed, got, tc.want)
		}
	}
}

func TestStagesRemainderRoundedToSixDecimals(t *testing.T) {
	stages, err := Stages(2.7)
	if err != nil {
		t.Fatalf("Stages: %v", err)
	}
	if len(stages) != 2 || stages[1] != 1.35 {
		t.Fatalf("unexpected stages %v", stages)
	}
	stages, err = Stages(2.0000001)
	if err != nil {
		t.Fatalf("Stages: %v", err)
	}
	if stages[len(stages)-1] != 1.0 {
		t.Fatalf("expected rounded remainder 1.0, got %v", stages)
	}
}

func TestStagesBelowHalf(t *testing.T) {
	stages, err := Stages(0.25)
	if err != nil {
		t.Fatalf("Stages: %v", err)
	}
	if !reflect.DeepEqual(stages, []float64{0.5, 0.5, 1.0}) {
		t.Fatalf("Stages(0.25) = %v", stages)
	}
	stages, err = Stages(0.3)
	if err != nil {
		t.Fatalf("Stages: %v", err)
	}
	if len(stages) != 2 || stages[0] != 0.5 || stages[1] != 0.6 {
		t.Fatalf("Stages(0.3) = %v", stages)
	}
}

func TestStagesProductMatchesSpeed(t *testing.T) {
	for _, speed := range []float64{0.1, 0.3, 1.7, 2.2, 3.3, 5.5, 100} {
		plan, err := New("mp3", speed)
		if err != nil {
			t.Fatalf("New(%v): %v", speed, err)
		}
		for _, stage := range plan.Stages {
			if stage < MinStage || stage > MaxStage {
				t.Fatalf("stage %v out of range for speed %v", stage, speed)
			}
		}
		if math.Abs(plan.Product()-speed)/speed > 1e-5 {
			t.Fatalf("product %v differs from speed %v", plan.Product(), speed)
		}
	}
}

func TestStagesRejectsInvalidSpeeds(t *testing.T) {
	for _, speed := range []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1), 1e9, 1e-9} {
		if _, err := Stages(speed); !errors.Is(err, ErrInvalidSpeed) {
			t.Fatalf("Stages(%v) err = %v, want ErrInvalidSpeed", speed, err)
		}
	}
}

func TestFilterChain(t *testing.T) {
	plan, err := New(".mp3", 4.0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := plan.FilterChain(); got != "atempo=2.0,atempo=2.0,atempo=1.0" {
		t.Fatalf("FilterChain = %q", got)
	}
	plan, _ = New(".mp3", 1.2)
	if got := plan.FilterChain(); got != "atempo=1.2" {
		t.Fatalf("FilterChain = %q", got)
	}
}

func TestCodecTable(t *testing.T) {
	cases := map[string]string{
		".mp3":  "-acodec libmp3lame -q:a 2",
		"MP3":   "-acodec libmp3lame -q:a 2",
		".wav":  "-acodec pcm_s16le",
		".ogg":  "-acodec libvorbis -q:a 6",
		".m4a":  "-acodec aac -b:a 192k",
		".mp4":  "-acodec aac -b:a 192k -vcodec copy",
		".WEBM": "-acodec aac -b:a 192k -vcodec copy",
		".flac": "-acodec libmp3lame -q:a 2",
		"":      "-acodec libmp3lame -q:a 2",
	}
	for ext, want := range cases {
		if got := strings.Join(CodecFor(ext).Args(), " "); got != want {
			t.Errorf("CodecFor(%q).Args() = %q, want %q", ext, got, want)
		}
	}
}

func TestPlanArgs(t *testing.T) {
	plan, err := New(".ogg", 1.5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := strings.Join(plan.Args("in.ogg", "out.ogg"), " ")
	want := "-y -i in.ogg -filter:a atempo=1.5 -acodec libvorbis -q:a 6 out.ogg"
	if got != want {
		t.Fatalf("Args = %q, want %q", got, want)
	}
}
