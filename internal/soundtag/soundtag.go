// Package soundtag finds embedded audio references in note fields.
//
// A reference is written as [sound:<filename>] anywhere in a field. Only
// filenames with a supported audio or video extension are reported; other
// tags are ignored.
package soundtag

import (
	"path/filepath"
	"regexp"
	"strings"

	"tempo/internal/speedname"
)

var tagPattern = regexp.MustCompile(`\[sound:([^\]]+)\]`)

var supportedExtensions = map[string]struct{}{
	".mp3":  {},
	".wav":  {},
	".ogg":  {},
	".m4a":  {},
	".mp4":  {},
	".webm": {},
}

// Reference is one occurrence of a supported sound tag.
type Reference struct {
	Filename   string
	FieldIndex int
	CardID     int64
	NoteID     int64
	// RawTag is the exact substring found in the field.
	RawTag string
	// Transformed is set when Filename already carries a speed suffix.
	Transformed bool
	// PriorSpeed is the rate encoded in Filename when Transformed is set.
	PriorSpeed float64
}

// Tag renders the sound tag for filename.
func Tag(filename string) string {
	return "[sound:" + filename + "]"
}

// IsSupported reports whether filename has a supported extension. The check
// is case-insensitive.
func IsSupported(filename string) bool {
	_, ok := supportedExtensions[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Extract returns the filenames of all sound tags in text, in order,
// including unsupported ones.
func Extract(text string) []string {
	matches := tagPattern.FindAllStringSubmatch(text, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// Scan returns the supported references in fields, ordered by field index and
// then by position within the field.
func Scan(cardID, noteID int64, fields []string) []Reference {
	var refs []Reference
	for idx, field := range fields {
		for _, m := range tagPattern.FindAllStringSubmatch(field, -1) {
			filename := m[1]
			if !IsSupported(filename) {
				continue
			}
			ref := Reference{
				Filename:   filename,
				FieldIndex: idx,
				CardID:     cardID,
				NoteID:     noteID,
				RawTag:     m[0],
			}
			if speed, ok := speedname.ParseSpeed(filename); ok {
				ref.Transformed = true
				ref.PriorSpeed = speed
			}
			refs = append(refs, ref)
		}
	}
	return refs
}

// Untransformed returns the references without a speed suffix and the number
// of references dropped.
func Untransformed(refs []Reference) ([]Reference, int) {
	kept := make([]Reference, 0, len(refs))
	skipped := 0
	for _, ref := range refs {
		if ref.Transformed {
			skipped++
			continue
		}
		kept = append(kept, ref)
	}
	return kept, skipped
}

// UniqueFilenames returns the distinct filenames of refs in first-seen order.
func UniqueFilenames(refs []Reference) []string {
	seen := make(map[string]struct{}, len(refs))
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref.Filename]; ok {
			continue
		}
		seen[ref.Filename] = struct{}{}
		names = append(names, ref.Filename)
	}
	return names
}
