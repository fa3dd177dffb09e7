package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/term"

	"github.com/masra91/clubhouse/internal/provider"
)

const (
	spinnerUnicode = 14 // braille dots
	spinnerASCII   = 9  // | / - \
)

// statusRenderer shows live agent activity during a headless mission.
// On a TTY it drives a spinner whose suffix tracks the latest event; in
// non-interactive mode it prints one line per event instead.
type statusRenderer struct {
	out     io.Writer
	isTTY   bool
	charSet int
	spinner *spinner.Spinner
}

// newStatusRenderer probes whether out is a terminal and picks a symbol
// set to match.
func newStatusRenderer(out io.Writer) *statusRenderer {
	isTTY := false
	if f, ok := out.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	charSet := spinnerUnicode
	if os.Getenv("CLUBHOUSE_ASCII") == "1" {
		charSet = spinnerASCII
	}
	return &statusRenderer{out: out, isTTY: isTTY, charSet: charSet}
}

// Update refreshes the display with the latest event.
func (r *statusRenderer) Update(ev provider.HookEvent) {
	line := statusLine(ev)
	if line == "" {
		return
	}

	if !r.isTTY {
		fmt.Fprintf(r.out, "• %s\n", line)
		return
	}

	if r.spinner == nil {
		r.spinner = spinner.New(spinner.CharSets[r.charSet], 100*time.Millisecond)
		r.spinner.Writer = r.out
		r.spinner.Start()
	}
	r.spinner.Suffix = " " + line
}

// Stop clears the spinner, leaving the terminal clean for final output.
func (r *statusRenderer) Stop() {
	if r.spinner != nil {
		r.spinner.Stop()
		r.spinner = nil
	}
}

// statusLine picks the most specific description an event offers: the
// tool verb, then the message, then the bare kind.
func statusLine(ev provider.HookEvent) string {
	switch {
	case ev.ToolVerb != "":
		return ev.ToolVerb
	case ev.Message != "":
		return ev.Message
	default:
		return string(ev.Kind)
	}
}
