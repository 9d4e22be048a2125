// Package speedname encodes a playback rate into a media filename and reads it
// back. A processed file is named "<stem>_<rate>x<ext>" with the rate printed to
// one decimal place, for example "word_1.5x.mp3".
package speedname

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var suffixPattern = regexp.MustCompile(`_(\d+\.\d+)x\.([a-zA-Z0-9]+)$`)

// AppendSuffix returns name with its speed suffix set to rate. Any existing
// suffix is replaced, so suffixes never stack.
func AppendSuffix(name string, rate float64) string {
	stripped := StripSuffix(name)
	ext := filepath.Ext(stripped)
	stem := strings.TrimSuffix(stripped, ext)
	return fmt.Sprintf("%s_%.1fx%s", stem, rate, ext)
}

// ParseSpeed extracts the rate encoded in name. Only positive rates count as
// a suffix.
func ParseSpeed(name string) (float64, bool) {
	match := suffixPattern.FindStringSubmatch(name)
	if match == nil {
		return 0, false
	}
	rate, err := strconv.ParseFloat(match[1], 64)
	if err != nil || rate <= 0 {
		return 0, false
	}
	return rate, true
}

// HasSuffix reports whether name already carries a speed suffix.
func HasSuffix(name string) bool {
	_, ok := ParseSpeed(name)
	return ok
}

// StripSuffix removes a speed suffix from name, keeping the extension.
func StripSuffix(name string) string {
	loc := suffixPattern.FindStringSubmatchIndex(name)
	if loc == nil {
		return name
	}
	// loc[0] is the "_" that starts the suffix; loc[4] starts the extension.
	return name[:loc[0]] + "." + name[loc[4]:loc[5]]
}
