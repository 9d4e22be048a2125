package textutil

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// PlainText returns the visible text of an HTML field with whitespace
// collapsed. Line breaks and block elements become spaces.
func PlainText(field string) string {
	if !strings.ContainsAny(field, "<&") {
		return collapseSpace(field)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(field))
	if err != nil {
		return collapseSpace(field)
	}
	var b strings.Builder
	writeText(&b, doc.Selection)
	return collapseSpace(b.String())
}

var breakingTags = map[string]bool{
	"br": true, "div": true, "p": true, "li": true, "tr": true, "td": true, "hr": true,
}

func writeText(b *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		name := goquery.NodeName(child)
		switch name {
		case "#text":
			b.WriteString(child.Text())
		case "#comment", "script", "style":
		default:
			if breakingTags[name] {
				b.WriteByte(' ')
			}
			writeText(b, child)
			if breakingTags[name] {
				b.WriteByte(' ')
			}
		}
	})
}

// Snippet returns PlainText(field) cut to at most limit runes.
func Snippet(field string, limit int) string {
	return Truncate(PlainText(field), limit)
}

// Truncate cuts value to at most limit runes, marking the cut with an
// ellipsis. A non-positive limit disables truncation.
func Truncate(value string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(value) <= limit {
		return value
	}
	if limit == 1 {
		return "…"
	}
	runes := []rune(value)
	return strings.TrimRight(string(runes[:limit-1]), " ") + "…"
}

func collapseSpace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
