package diag

import (
	"errors"
	"fmt"
	"strings"
)

// Diagnostic is one reportable finding. Path and Line are optional; Line
// is 1-based and zero when unknown.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Path     string
	Line     int
	Notes    []string
}

func New(sev Severity, code Code, path, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Path:     path,
		Message:  msg,
	}
}

func NewError(code Code, path, msg string) Diagnostic {
	return New(SevError, code, path, msg)
}

func (d Diagnostic) WithNote(msg string) Diagnostic {
	d.Notes = append(d.Notes, msg)
	return d
}

func (d Diagnostic) WithLine(line int) Diagnostic {
	d.Line = line
	return d
}

// Location renders path[:line], or "" when no path is known.
func (d Diagnostic) Location() string {
	if d.Path == "" {
		return ""
	}
	if d.Line > 0 {
		return fmt.Sprintf("%s:%d", d.Path, d.Line)
	}
	return d.Path
}

// String renders a single-line form: "location: SEVERITY CODE: message".
// Multi-line messages keep their line breaks.
func (d Diagnostic) String() string {
	var sb strings.Builder
	if loc := d.Location(); loc != "" {
		sb.WriteString(loc)
		sb.WriteString(": ")
	}
	fmt.Fprintf(&sb, "%s %s: %s", d.Severity, d.Code.ID(), strings.TrimRight(d.Message, "\n"))
	for _, n := range d.Notes {
		sb.WriteString("\n  note: ")
		sb.WriteString(n)
	}
	return sb.String()
}

// Diagnoser is implemented by errors that know their diagnostic form.
type Diagnoser interface {
	Diagnostic() Diagnostic
}

// FromError converts err into a Diagnostic. Errors that implement
// Diagnoser anywhere in their chain keep their code; anything else
// becomes UnknownCode with the error text.
func FromError(err error) Diagnostic {
	if err == nil {
		return Diagnostic{}
	}
	var dd Diagnoser
	if errors.As(err, &dd) {
		d := dd.Diagnostic()
		if d.Message == "" {
			d.Message = err.Error()
		}
		return d
	}
	return NewError(UnknownCode, "", err.Error())
}
