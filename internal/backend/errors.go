package backend

import (
	"errors"
	"fmt"
	"io/fs"

	"shadersmith/internal/diag"
)

var (
	// ErrIncludeDepth is returned when includes nest deeper than MaxIncludeDepth.
	ErrIncludeDepth = errors.New("include nesting too deep")
	// ErrNoIncludeResolver is returned when a source includes files but the
	// request carries no IncludeFunc.
	ErrNoIncludeResolver = errors.New("no include resolver configured")
)

// InclusionError reports an include that could not be resolved or read.
type InclusionError struct {
	Name      string
	Type      IncludeType
	Requester string
	// Path is the resolved path, empty if resolution itself failed.
	Path string
	// Line is the 1-based line of the directive in Requester.
	Line int
	Err  error
}

func (e *InclusionError) Error() string {
	loc := e.Requester
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Requester, e.Line)
	}
	lq, rq := `"`, `"`
	if e.Type == IncludeStandard {
		lq, rq = "<", ">"
	}
	return fmt.Sprintf("%s: cannot include %s%s%s: %v", loc, lq, e.Name, rq, e.Err)
}

func (e *InclusionError) Unwrap() error { return e.Err }

func (e *InclusionError) Diagnostic() diag.Diagnostic {
	code := diag.IncUnreadable
	switch {
	case errors.Is(e.Err, fs.ErrNotExist):
		code = diag.IncUnresolved
	case errors.Is(e.Err, ErrIncludeDepth):
		code = diag.IncTooDeep
	case errors.Is(e.Err, ErrNoIncludeResolver):
		code = diag.IncUnresolved
	}
	return diag.NewError(code, e.Requester, e.Error()).WithLine(e.Line)
}

// CompileError carries compiler diagnostics verbatim. Warning is set when
// the compiler succeeded but reported warnings.
type CompileError struct {
	Path    string
	Text    string
	Warning bool
	Code    diag.Code
}

func (e *CompileError) Error() string {
	if e.Warning {
		return fmt.Sprintf("%s: compiler warnings treated as errors:\n%s", e.Path, e.Text)
	}
	return fmt.Sprintf("%s: compilation failed:\n%s", e.Path, e.Text)
}

func (e *CompileError) Diagnostic() diag.Diagnostic {
	code := e.Code
	if code == diag.UnknownCode {
		code = diag.CmpError
		if e.Warning {
			code = diag.CmpWarning
		}
	}
	return diag.NewError(code, e.Path, e.Text)
}
