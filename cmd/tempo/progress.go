package main

import (
	"fmt"
	"io"
)

// progressPrinter renders batch progress. On a terminal the line is redrawn
// in place; otherwise each file gets its own line.
type progressPrinter struct {
	out     io.Writer
	inPlace bool
	drawn   bool
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out, inPlace: isTerminal(out)}
}

func (p *progressPrinter) update(current, total int, message string) {
	if p.inPlace {
		fmt.Fprintf(p.out, "\r\x1b[2K[%d/%d] %s", current, total, message)
		p.drawn = true
		return
	}
	fmt.Fprintf(p.out, "[%d/%d] %s\n", current, total, message)
}

func (p *progressPrinter) finish() {
	if p.drawn {
		fmt.Fprintln(p.out)
		p.drawn = false
	}
}
