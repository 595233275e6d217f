package backend

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"shadersmith/internal/diag"
	"shadersmith/internal/options"
	"shadersmith/internal/spirv"
)

// GlslcEnv names the environment variable that overrides the glslc path.
const GlslcEnv = "SHADERSMITH_GLSLC"

// ErrGlslcNotFound is returned when no glslc executable can be located.
var ErrGlslcNotFound = errors.New("glslc not found (install the Vulkan SDK or shaderc, or set " + GlslcEnv + ")")

// Glslc compiles through the glslc executable from shaderc. Includes are
// expanded before the source is piped in, so every include goes through
// the request's IncludeFunc.
type Glslc struct {
	bin string
}

// NewGlslc locates bin on PATH; an empty bin means $SHADERSMITH_GLSLC or
// "glslc".
func NewGlslc(bin string) (*Glslc, error) {
	if bin == "" {
		bin = os.Getenv(GlslcEnv)
	}
	if bin == "" {
		bin = "glslc"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, &CompileError{Path: bin, Text: fmt.Sprintf("%v: %v", ErrGlslcNotFound, err), Code: diag.CmpBackendMissing}
	}
	return &Glslc{bin: path}, nil
}

var sharedGlslc = sync.OnceValues(func() (*Glslc, error) { return NewGlslc("") })

// Shared returns the process-wide glslc backend, located on first call.
func Shared() (Compiler, error) {
	g, err := sharedGlslc()
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Path returns the resolved executable.
func (g *Glslc) Path() string { return g.bin }

// Args returns the command line for req, input excluded.
func (g *Glslc) Args(req Request) []string {
	cfg := req.Config
	var args []string
	if stage := req.Kind.Stage(); stage != "" {
		args = append(args, "-fshader-stage="+stage)
	}
	if cfg.Version != 0 {
		args = append(args, "-std="+strconv.FormatUint(uint64(cfg.Version), 10))
	}
	for _, d := range cfg.Definitions {
		args = append(args, "-D"+d.String())
	}
	if cfg.Debug {
		args = append(args, "-g")
	}
	switch cfg.Optimization {
	case options.OptimizeZero:
		args = append(args, "-O0")
	case options.OptimizeSize:
		args = append(args, "-Os")
	default:
		args = append(args, "-O")
	}
	if env := cfg.Target.Env(); env != "" {
		args = append(args, "--target-env="+env)
	}
	if cfg.AutoBind {
		args = append(args, "-fauto-bind-uniforms")
	}
	if req.EntryPoint != "" {
		args = append(args, "-fentry-point="+req.EntryPoint)
	}
	return append(args, "-o", "-")
}

func (g *Glslc) Compile(req Request) (Result, error) {
	args := g.Args(req)
	var stdin *strings.Reader

	if req.Kind == options.KindSpirvAssembly {
		// glslc picks the assembler from the file extension.
		tmp, err := os.CreateTemp("", "shadersmith-*.spvasm")
		if err != nil {
			return Result{}, fmt.Errorf("stage assembly input: %w", err)
		}
		defer os.Remove(tmp.Name())
		if _, err := tmp.WriteString(req.Source); err != nil {
			tmp.Close()
			return Result{}, fmt.Errorf("stage assembly input: %w", err)
		}
		if err := tmp.Close(); err != nil {
			return Result{}, fmt.Errorf("stage assembly input: %w", err)
		}
		args = append(args, tmp.Name())
	} else {
		src, err := ExpandIncludes(req.Source, req.Path, req.Config.Include)
		if err != nil {
			return Result{}, err
		}
		stdin = strings.NewReader(src)
		args = append(args, "-x", "glsl", "-")
	}

	cmd := exec.Command(g.bin, args...)
	if stdin != nil {
		cmd.Stdin = stdin
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	text := strings.ReplaceAll(stderr.String(), "<stdin>", req.Path)
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			if text == "" {
				text = exitErr.Error()
			}
			return Result{}, &CompileError{Path: req.Path, Text: text}
		}
		return Result{}, fmt.Errorf("run %s: %w", g.bin, runErr)
	}

	out := stdout.Bytes()
	if _, ok := spirv.WordCount(len(out)); !ok {
		return Result{}, &CompileError{
			Path: req.Path,
			Text: fmt.Sprintf("glslc wrote %d bytes, not a whole number of words", len(out)),
			Code: diag.CmpMalformedOutput,
		}
	}
	return Result{Words: spirv.Words(out), Warnings: text}, nil
}
