package build

import (
	"fmt"

	"shadersmith/internal/diag"
)

// LoadError reports a primary source that could not be read.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("read %s: %v", e.Path, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Diagnostic() diag.Diagnostic {
	return diag.NewError(diag.IOLoadFile, e.Path, e.Error())
}
