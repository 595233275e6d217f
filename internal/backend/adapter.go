package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"shadersmith/internal/diag"
	"shadersmith/internal/options"
	"shadersmith/internal/spirv"
	"shadersmith/internal/trace"
)

// EntryPoint is the entry point name requested from the compiler.
const EntryPoint = "main"

// Output is a successful compilation.
type Output struct {
	Words []uint32
	// Sources lists the primary path followed by every include in
	// resolution order, duplicates kept.
	Sources []string
}

// Adapter runs one compiler invocation per request. The compiler is
// constructed on first use and shared by every request.
type Adapter struct {
	newCompiler func() (Compiler, error)
	includeBase string

	once     sync.Once
	compiler Compiler
	initErr  error
}

// NewAdapter returns an adapter over the compiler produced by factory.
// Standard includes resolve against includeBase; an empty base means
// the working directory.
func NewAdapter(factory func() (Compiler, error), includeBase string) *Adapter {
	return &Adapter{newCompiler: factory, includeBase: includeBase}
}

// NewStaticAdapter wraps an already constructed compiler.
func NewStaticAdapter(c Compiler, includeBase string) *Adapter {
	return NewAdapter(func() (Compiler, error) { return c, nil }, includeBase)
}

func (a *Adapter) backend() (Compiler, error) {
	a.once.Do(func() {
		a.compiler, a.initErr = a.newCompiler()
		if a.initErr == nil && a.compiler == nil {
			a.initErr = fmt.Errorf("compiler factory returned nil")
		}
	})
	return a.compiler, a.initErr
}

// IncludeBase returns the absolute base directory for standard includes.
func (a *Adapter) IncludeBase() string {
	base := a.includeBase
	if base == "" {
		base = "."
	}
	if abs, err := filepath.Abs(base); err == nil {
		return abs
	}
	return base
}

// Compile builds src, read from primaryPath, with opts.
func (a *Adapter) Compile(ctx context.Context, src []byte, primaryPath string, opts options.BuildOptions) (Output, error) {
	if err := opts.Validate(); err != nil {
		return Output{}, &CompileError{Path: primaryPath, Text: err.Error(), Code: diag.CmpInvalidOptions}
	}
	primary, err := filepath.Abs(primaryPath)
	if err != nil {
		return Output{}, fmt.Errorf("resolve %s: %w", primaryPath, err)
	}
	c, err := a.backend()
	if err != nil {
		return Output{}, err
	}

	// The dependency list is request-local; concurrent builds share nothing.
	deps := []string{primary}
	base := a.IncludeBase()
	resolve := func(name string, typ IncludeType, requester string, _ int) (Include, error) {
		var path string
		switch {
		case filepath.IsAbs(name):
			path = filepath.Clean(name)
		case typ == IncludeRelative:
			path = filepath.Join(filepath.Dir(requester), name)
		default:
			path = filepath.Join(base, name)
		}
		deps = append(deps, path)
		trace.Point(ctx, trace.ScopeDetail, "include", path)
		data, err := os.ReadFile(path)
		if err != nil {
			return Include{}, &InclusionError{Name: name, Type: typ, Requester: requester, Path: path, Err: err}
		}
		content, err := DecodeSource(data)
		if err != nil {
			return Include{}, &InclusionError{Name: name, Type: typ, Requester: requester, Path: path, Err: err}
		}
		return Include{Path: path, Content: content}, nil
	}

	text, err := DecodeSource(src)
	if err != nil {
		return Output{}, &CompileError{Path: primary, Text: fmt.Sprintf("%s: decode source: %v", primary, err)}
	}

	kind, _ := opts.ResolveKind(primary)
	res, err := c.Compile(Request{
		Source:     text,
		Kind:       kind,
		Path:       primary,
		EntryPoint: EntryPoint,
		Config: Config{
			Version:      opts.Version,
			Definitions:  opts.Definitions,
			Debug:        opts.Debug,
			Optimization: opts.Optimization,
			Target:       opts.Target,
			AutoBind:     true,
			Include:      resolve,
		},
	})
	if err != nil {
		return Output{}, err
	}
	if res.Warnings != "" {
		return Output{}, &CompileError{Path: primary, Text: res.Warnings, Warning: true}
	}
	if err := Validate(res.Words); err != nil {
		return Output{}, &CompileError{Path: primary, Text: err.Error(), Code: diag.CmpMalformedOutput}
	}
	return Output{Words: res.Words, Sources: deps}, nil
}

// Validate checks that words looks like a SPIR-V module.
func Validate(words []uint32) error {
	if len(words) == 0 {
		return fmt.Errorf("compiler produced an empty binary")
	}
	if words[0] != spirv.MagicNumber {
		return fmt.Errorf("compiler output has magic %#08x, want %#08x", words[0], spirv.MagicNumber)
	}
	return nil
}
