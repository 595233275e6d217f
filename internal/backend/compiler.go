// Package backend adapts an external shader compiler to the build
// engine. It resolves includes, records every file a build read, and
// promotes compiler warnings to errors.
package backend

import "shadersmith/internal/options"

// IncludeType distinguishes "name" from <name> includes.
type IncludeType uint8

const (
	IncludeRelative IncludeType = iota // #include "name"
	IncludeStandard                    // #include <name>
)

func (t IncludeType) String() string {
	if t == IncludeStandard {
		return "standard"
	}
	return "relative"
}

// Include is a resolved include target.
type Include struct {
	Path    string
	Content string
}

// IncludeFunc resolves name as included by requester at the given
// nesting depth (1 for includes of the primary source).
type IncludeFunc func(name string, typ IncludeType, requester string, depth int) (Include, error)

// Config carries the compiler switches derived from BuildOptions.
type Config struct {
	// Version forces the language version; zero keeps the #version directive.
	Version      uint32
	Definitions  []options.Define
	Debug        bool
	Optimization options.Optimization
	Target       options.TargetVersion
	AutoBind     bool
	Include      IncludeFunc
}

// Request is one compilation. Path is used for diagnostics and as the
// requester of top-level includes. KindUnspecified asks the compiler to
// detect the stage from a #pragma shader_stage directive.
type Request struct {
	Source     string
	Kind       options.Kind
	Path       string
	EntryPoint string
	Config     Config
}

// Result is a successful compilation. Warnings is the compiler's
// diagnostic text when it succeeded with warnings.
type Result struct {
	Words    []uint32
	Warnings string
}

// Compiler turns shader source into SPIR-V words. Implementations must
// be safe for concurrent use; a non-nil error carries the diagnostic text.
type Compiler interface {
	Compile(req Request) (Result, error)
}
