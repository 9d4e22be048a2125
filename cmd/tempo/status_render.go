package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

var statusStyles = map[statusKind]struct {
	label string
	color string
}{
	statusInfo:  {"INFO", "\x1b[34m"},
	statusOK:    {"OK", "\x1b[32m"},
	statusWarn:  {"WARN", "\x1b[33m"},
	statusError: {"ERROR", "\x1b[31m"},
}

const (
	ansiReset        = "\x1b[0m"
	statusLabelWidth = 18
)

// statusWriter prints doctor sections and keeps a tally of error lines.
type statusWriter struct {
	out      io.Writer
	color    bool
	sections int
	problems int
}

func newStatusWriter(out io.Writer) *statusWriter {
	return &statusWriter{out: out, color: isTerminal(out)}
}

func (w *statusWriter) section(title string) {
	if w.sections > 0 {
		fmt.Fprintln(w.out)
	}
	w.sections++
	heading := "== " + strings.TrimSpace(title) + " =="
	w.println(heading, statusStyles[statusInfo].color)
	w.println(strings.Repeat("-", len(heading)), statusStyles[statusInfo].color)
}

func (w *statusWriter) line(label string, kind statusKind, detail string) {
	if kind == statusError {
		w.problems++
	}
	style := statusStyles[kind]
	text := fmt.Sprintf("  %-*s [%s]", statusLabelWidth, label+":", style.label)
	if detail != "" {
		text += " " + detail
	}
	w.println(text, style.color)
}

func (w *statusWriter) println(text, color string) {
	if w.color && color != "" {
		text = color + text + ansiReset
	}
	fmt.Fprintln(w.out, text)
}

func isTerminal(v any) bool {
	file, ok := v.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
