package diagfmt

import (
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"shadersmith/internal/diag"
)

// LocationJSON is a file position. Line is omitted when unknown.
type LocationJSON struct {
	File string `json:"file"`
	Line int    `json:"line,omitempty"`
}

// DiagnosticJSON is one diagnostic in JSON form.
type DiagnosticJSON struct {
	Severity string        `json:"severity"`
	Code     string        `json:"code"`
	Title    string        `json:"title"`
	Message  string        `json:"message"`
	Location *LocationJSON `json:"location,omitempty"`
	Notes    []string      `json:"notes,omitempty"`
}

// DiagnosticsOutput is the root of the JSON document.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

func formatPath(path string, opts JSONOpts) string {
	switch opts.PathMode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			return filepath.ToSlash(abs)
		}
	case PathModeBasename:
		return filepath.Base(path)
	case PathModeRelative, PathModeAuto:
		if opts.BaseDir == "" {
			break
		}
		rel, err := filepath.Rel(opts.BaseDir, path)
		if err == nil && (opts.PathMode == PathModeRelative || !strings.HasPrefix(rel, "..")) {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(path)
}

func makeLocation(d diag.Diagnostic, opts JSONOpts) *LocationJSON {
	if d.Path == "" {
		return nil
	}
	return &LocationJSON{File: formatPath(d.Path, opts), Line: d.Line}
}

func limitItems(bag *diag.Bag, max int) []diag.Diagnostic {
	items := bag.Items()
	if max > 0 && max < len(items) {
		items = items[:max]
	}
	return items
}

// BuildDiagnosticsOutput converts bag without serializing it.
func BuildDiagnosticsOutput(bag *diag.Bag, opts JSONOpts) DiagnosticsOutput {
	items := limitItems(bag, opts.Max)
	diagnostics := make([]DiagnosticJSON, 0, len(items))
	for _, d := range items {
		dj := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Title:    d.Code.Title(),
			Message:  d.Message,
			Location: makeLocation(d, opts),
		}
		if opts.IncludeNotes && len(d.Notes) > 0 {
			dj.Notes = append([]string(nil), d.Notes...)
		}
		diagnostics = append(diagnostics, dj)
	}
	return DiagnosticsOutput{Diagnostics: diagnostics, Count: len(diagnostics)}
}

// JSON writes bag as an indented JSON document.
func JSON(w io.Writer, bag *diag.Bag, opts JSONOpts) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildDiagnosticsOutput(bag, opts))
}
