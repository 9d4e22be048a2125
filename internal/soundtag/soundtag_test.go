package soundtag

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"tempo/internal/records"
	"tempo/internal/services"
)

func TestScanClassifiesReferences(t *testing.T) {
	fields := []string{
		"Hello [sound:hello.mp3] and [sound:Bye_1.5x.OGG]",
		"[sound:image.png] plain text",
		"[sound:clip.WebM][sound:clip.webm]",
	}
	refs := Scan(7, 3, fields)
	if len(refs) != 4 {
		t.Fatalf("expected 4 references, got %d: %#v", len(refs), refs)
	}

	first := refs[0]
	if first.Filename != "hello.mp3" || first.RawTag != "[sound:hello.mp3]" || first.FieldIndex != 0 {
		t.Fatalf("unexpected first reference: %#v", first)
	}
	if first.CardID != 7 || first.NoteID != 3 {
		t.Fatalf("unexpected ids: %#v", first)
	}
	if first.Transformed {
		t.Fatal("expected hello.mp3 to be untransformed")
	}

	second := refs[1]
	if !second.Transformed || second.PriorSpeed != 1.5 {
		t.Fatalf("expected transformed reference at 1.5, got %#v", second)
	}

	if refs[2].FieldIndex != 2 || refs[3].FieldIndex != 2 {
		t.Fatalf("expected both clip references in field 2, got %d and %d", refs[2].FieldIndex, refs[3].FieldIndex)
	}
}

func TestScanRawTagReproducesSource(t *testing.T) {
	field := "x [sound:a b (1).m4a] y"
	refs := Scan(1, 1, []string{field})
	if len(refs) != 1 {
		t.Fatalf("expected 1 reference, got %d", len(refs))
	}
	if refs[0].RawTag != "[sound:a b (1).m4a]" || refs[0].Filename != "a b (1).m4a" {
		t.Fatalf("unexpected reference %#v", refs[0])
	}
}

func TestIsSupported(t *testing.T) {
	for _, name := range []string{"a.mp3", "a.WAV", "a.Ogg", "a.m4a", "a.mp4", "a.webm"} {
		if !IsSupported(name) {
			t.Errorf("expected %q to be supported", name)
		}
	}
	for _, name := range []string{"a.flac", "a.png", "a", "mp3"} {
		if IsSupported(name) {
			t.Errorf("expected %q to be unsupported", name)
		}
	}
}

func TestExtractIncludesUnsupported(t *testing.T) {
	got := Extract("[sound:a.mp3] [sound:b.png] [sound:]")
	want := []string{"a.mp3", "b.png"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Extract = %v, want %v", got, want)
	}
}

func TestUntransformedAndUniqueFilenames(t *testing.T) {
	refs := []Reference{
		{Filename: "a.mp3"},
		{Filename: "b_1.2x.mp3", Transformed: true},
		{Filename: "a.mp3"},
		{Filename: "c.wav"},
	}
	kept, skipped := Untransformed(refs)
	if skipped != 1 || len(kept) != 3 {
		t.Fatalf("unexpected filter result: kept=%d skipped=%d", len(kept), skipped)
	}
	if got := UniqueFilenames(kept); !reflect.DeepEqual(got, []string{"a.mp3", "c.wav"}) {
		t.Fatalf("unexpected unique filenames %v", got)
	}
}

func TestDetectSummarizesCards(t *testing.T) {
	store := records.NewMemoryStore()
	_, withAudio := store.AddNote([]string{"[sound:a.mp3]", "[sound:b_1.2x.wav]"}, 2)
	_, without := store.AddNote([]string{"no audio here", "[sound:pic.jpg]"}, 1)

	ids := []int64{withAudio[0], withAudio[1], without[0], withAudio[0]}
	refs, summary, err := Detect(context.Background(), store, ids)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	want := Summary{CardsWithAudio: 2, CardsWithoutAudio: 1, TotalReferences: 4, AlreadyTransformed: 2}
	if summary != want {
		t.Fatalf("summary = %+v, want %+v", summary, want)
	}
	if len(refs) != 4 {
		t.Fatalf("expected 4 references, got %d", len(refs))
	}
	if refs[0].CardID != withAudio[0] || refs[2].CardID != withAudio[1] {
		t.Fatalf("expected references in card order, got %#v", refs)
	}
}

func TestDetectUnknownCard(t *testing.T) {
	store := records.NewMemoryStore()
	_, _, err := Detect(context.Background(), store, []int64{42})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}
