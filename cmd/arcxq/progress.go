package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/arcxq/arcxq/archive"
)

// progressReporter prints a single overwriting status line on a
// terminal, or one line per feedback call when piped, splitting
// output by whether the destination is interactive.
type progressReporter struct {
	w          io.Writer
	tty        bool
	lastPrefix string
}

func newProgressReporter(w io.Writer) *progressReporter {
	tty := false
	if f, ok := w.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd())
	}
	return &progressReporter{w: w, tty: tty}
}

func (p *progressReporter) feedback(fb archive.Feedback) archive.Action {
	line := fmt.Sprintf("%s (%d bytes)", fb.Path, fb.OrigSize)
	if p.tty {
		fmt.Fprintf(p.w, "\r\033[K%s", line)
	} else {
		fmt.Fprintln(p.w, line)
	}
	p.lastPrefix = line
	return archive.ActionContinue
}

func (p *progressReporter) done() {
	if p.tty && p.lastPrefix != "" {
		fmt.Fprintln(p.w)
	}
}
