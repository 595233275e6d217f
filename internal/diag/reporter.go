package diag

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// Reporter is the minimal sink contract. Implementations must be safe for
// concurrent use.
type Reporter interface {
	Report(d Diagnostic)
}

// NopReporter discards diagnostics.
type NopReporter struct{}

func (NopReporter) Report(Diagnostic) {}

// BagReporter adapts *Bag to Reporter.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(d)
}

// WriterReporter renders diagnostics as text, one block per diagnostic.
type WriterReporter struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

// NewWriterReporter returns a reporter writing to w. When useColor is set,
// severities and codes are highlighted.
func NewWriterReporter(w io.Writer, useColor bool) *WriterReporter {
	return &WriterReporter{w: w, color: useColor}
}

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	locColor     = color.New(color.Bold)
	noteColor    = color.New(color.FgBlue)
)

func (r *WriterReporter) Report(d Diagnostic) {
	if r == nil || r.w == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.color {
		_, _ = fmt.Fprintln(r.w, d.String())
		return
	}

	sev := infoColor
	switch d.Severity {
	case SevError:
		sev = errorColor
	case SevWarning:
		sev = warningColor
	}
	// color.Color honours NoColor globally; force output since the caller
	// already decided.
	sev.EnableColor()
	locColor.EnableColor()
	noteColor.EnableColor()

	if loc := d.Location(); loc != "" {
		_, _ = fmt.Fprint(r.w, locColor.Sprint(loc), ": ")
	}
	_, _ = fmt.Fprintf(r.w, "%s: %s\n", sev.Sprintf("%s %s", d.Severity, d.Code.ID()), trimNewline(d.Message))
	for _, n := range d.Notes {
		_, _ = fmt.Fprintf(r.w, "  %s %s\n", noteColor.Sprint("note:"), n)
	}
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
