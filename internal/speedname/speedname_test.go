package speedname

import "testing"

func TestAppendSuffix(t *testing.T) {
	cases := []struct {
		name string
		rate float64
		want string
	}{
		{"word.mp3", 1.2, "word_1.2x.mp3"},
		{"word.MP3", 1.5, "word_1.5x.MP3"},
		{"my clip.webm", 2, "my clip_2.0x.webm"},
		{"word_1.2x.mp3", 1.5, "word_1.5x.mp3"},
		{"archive.tar.ogg", 1.3, "archive.tar_1.3x.ogg"},
		{"noext", 1.3, "noext_1.3x"},
	}
	for _, tc := range cases {
		if got := AppendSuffix(tc.name, tc.rate); got != tc.want {
			t.Errorf("AppendSuffix(%q, %v) = %q, want %q", tc.name, tc.rate, got, tc.want)
		}
	}
}

func TestSuffixDoesNotStack(t *testing.T) {
	once := AppendSuffix("file.mp3", 1.2)
	twice := AppendSuffix(once, 1.5)
	if twice != AppendSuffix("file.mp3", 1.5) {
		t.Fatalf("expected suffix replacement, got %q", twice)
	}
}

func TestParseSpeedRoundTrip(t *testing.T) {
	for _, rate := range []float64{1.0, 1.2, 1.5, 2.0, 2.5, 3.0} {
		name := AppendSuffix("clip.m4a", rate)
		got, ok := ParseSpeed(name)
		if !ok {
			t.Fatalf("expected %q to parse", name)
		}
		if got != rate {
			t.Fatalf("round trip %v -> %q -> %v", rate, name, got)
		}
	}
}

func TestParseSpeedRejectsUnsuffixedNames(t *testing.T) {
	for _, name := range []string{"clip.mp3", "clip_2x.mp3", "clip_1.5.mp3", "clip_1.5x", "clip_1.5x.mp3.bak!", "clip_0.0x.mp3", AppendSuffix("clip.mp3", 0.04)} {
		if _, ok := ParseSpeed(name); ok {
			t.Errorf("expected %q not to parse", name)
		}
		if HasSuffix(name) {
			t.Errorf("expected HasSuffix(%q) to be false", name)
		}
	}
}

func TestStripSuffix(t *testing.T) {
	cases := map[string]string{
		"word_1.2x.mp3":    "word.mp3",
		"word.mp3":         "word.mp3",
		"a_b_10.25x.Ogg":   "a_b.Ogg",
		"already_fast.wav": "already_fast.wav",
	}
	for in, want := range cases {
		if got := StripSuffix(in); got != want {
			t.Errorf("StripSuffix(%q) = %q, want %q", in, got, want)
		}
	}
}
