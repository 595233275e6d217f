// Package diagfmt renders diagnostics as JSON or SARIF documents.
package diagfmt

import (
	"fmt"
	"strings"
)

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto uses a path relative to BaseDir when the file lies
	// below it, the absolute path otherwise.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// Format selects the diagnostics document format.
type Format uint8

const (
	FormatText Format = iota
	FormatJSON
	FormatSARIF
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatSARIF:
		return "sarif"
	}
	return "text"
}

// ParseFormat accepts text, json and sarif.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "sarif":
		return FormatSARIF, nil
	}
	return FormatText, fmt.Errorf("invalid diagnostics format %q (expected text|json|sarif)", s)
}

// JSONOpts configures JSON and SARIF output of diagnostics.
type JSONOpts struct {
	PathMode PathMode
	BaseDir  string
	Max      int // caps the output, not the bag
	// IncludeNotes keeps the notes attached to each diagnostic.
	IncludeNotes bool
}

// SarifRunMeta provides metadata for SARIF output.
type SarifRunMeta struct {
	ToolName       string
	ToolVersion    string
	InvocationArgs []string
}
