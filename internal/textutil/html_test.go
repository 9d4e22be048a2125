package textutil

import "testing"

func TestPlainText(t *testing.T) {
	cases := []struct {
		name  string
		field string
		want  string
	}{
		{"plain", "  hello   world ", "hello world"},
		{"markup", "<b>猫</b><br>cat [sound:neko.mp3]", "猫 cat [sound:neko.mp3]"},
		{"entities", "fish &amp; chips", "fish & chips"},
		{"blocks", "<div>one</div><div>two</div>", "one two"},
		{"script", "<script>alert(1)</script>text", "text"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PlainText(tc.field); got != tc.want {
				t.Fatalf("PlainText(%q) = %q, want %q", tc.field, got, tc.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdef", 4); got != "abc…" {
		t.Fatalf("Truncate = %q", got)
	}
	if got := Truncate("ねこねこ", 3); got != "ねこ…" {
		t.Fatalf("Truncate runes = %q", got)
	}
	if got := Truncate("abc", 0); got != "abc" {
		t.Fatalf("Truncate disabled = %q", got)
	}
	if got := Snippet("<i>abc def</i>", 5); got != "abc…" {
		t.Fatalf("Snippet = %q", got)
	}
}

func TestTernary(t *testing.T) {
	if Ternary(true, "yes", "no") != "yes" || Ternary(false, 1, 2) != 2 {
		t.Fatal("unexpected Ternary result")
	}
}
