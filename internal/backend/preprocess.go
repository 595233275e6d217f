package backend

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxIncludeDepth bounds include nesting, which also stops include cycles.
const MaxIncludeDepth = 64

const lineDirectiveExt = "#extension GL_GOOGLE_cpp_style_line_directive : require"

// ExpandIncludes inlines every #include directive of source, resolving
// each through resolve in the order it appears. The output carries
// #line directives so compiler diagnostics point at the original files.
//
// Directives inside comments are ignored. Directives inside inactive
// conditional blocks are still expanded.
func ExpandIncludes(source, path string, resolve IncludeFunc) (string, error) {
	e := expander{resolve: resolve}
	if err := e.expand(source, path, 0); err != nil {
		return "", err
	}
	if !e.included {
		return source, nil
	}
	return withLineExtension(e.out.String(), path), nil
}

type expander struct {
	resolve  IncludeFunc
	out      strings.Builder
	included bool
}

func (e *expander) expand(source, path string, depth int) error {
	inBlock := false
	lines := strings.SplitAfter(source, "\n")
	for i, line := range lines {
		startsInBlock := inBlock
		inBlock = scanComments(line, inBlock)
		if startsInBlock {
			e.out.WriteString(line)
			continue
		}
		name, typ, ok := parseInclude(line)
		if !ok {
			e.out.WriteString(line)
			continue
		}

		lineNo := i + 1
		if e.resolve == nil {
			return &InclusionError{Name: name, Type: typ, Requester: path, Line: lineNo, Err: ErrNoIncludeResolver}
		}
		if depth+1 > MaxIncludeDepth {
			return &InclusionError{Name: name, Type: typ, Requester: path, Line: lineNo, Err: ErrIncludeDepth}
		}
		inc, err := e.resolve(name, typ, path, depth+1)
		if err != nil {
			var ie *InclusionError
			if errors.As(err, &ie) {
				if ie.Line == 0 {
					ie.Line = lineNo
				}
				return err
			}
			return &InclusionError{Name: name, Type: typ, Requester: path, Line: lineNo, Err: err}
		}

		e.included = true
		fmt.Fprintf(&e.out, "#line 1 %s\n", strconv.Quote(inc.Path))
		if err := e.expand(inc.Content, inc.Path, depth+1); err != nil {
			return err
		}
		if !strings.HasSuffix(inc.Content, "\n") {
			e.out.WriteByte('\n')
		}
		fmt.Fprintf(&e.out, "#line %d %s\n", lineNo+1, strconv.Quote(path))
	}
	return nil
}

// parseInclude recognizes `#include "name"` and `#include <name>`, with
// optional whitespace around the hash.
func parseInclude(line string) (string, IncludeType, bool) {
	s := strings.TrimSpace(line)
	if !strings.HasPrefix(s, "#") {
		return "", 0, false
	}
	s = strings.TrimLeft(s[1:], " \t")
	if !strings.HasPrefix(s, "include") {
		return "", 0, false
	}
	s = strings.TrimLeft(s[len("include"):], " \t")
	if len(s) < 2 {
		return "", 0, false
	}
	var closing byte
	var typ IncludeType
	switch s[0] {
	case '"':
		closing, typ = '"', IncludeRelative
	case '<':
		closing, typ = '>', IncludeStandard
	default:
		return "", 0, false
	}
	end := strings.IndexByte(s[1:], closing)
	if end <= 0 {
		return "", 0, false
	}
	return s[1 : end+1], typ, true
}

// scanComments reports whether a block comment is still open at the end
// of line, given whether one was open at its start.
func scanComments(line string, inBlock bool) bool {
	for i := 0; i < len(line)-1; i++ {
		switch {
		case inBlock && line[i] == '*' && line[i+1] == '/':
			inBlock = false
			i++
		case !inBlock && line[i] == '/' && line[i+1] == '/':
			return false
		case !inBlock && line[i] == '/' && line[i+1] == '*':
			inBlock = true
			i++
		}
	}
	return inBlock
}

// withLineExtension enables string file names in #line directives. The
// extension line goes right after #version, which must stay first.
func withLineExtension(src, path string) string {
	lines := strings.SplitAfter(src, "\n")
	for i, line := range lines {
		if !strings.HasPrefix(strings.TrimSpace(line), "#version") {
			continue
		}
		var sb strings.Builder
		for _, l := range lines[:i+1] {
			sb.WriteString(l)
		}
		if !strings.HasSuffix(line, "\n") {
			sb.WriteByte('\n')
		}
		sb.WriteString(lineDirectiveExt + "\n")
		fmt.Fprintf(&sb, "#line %d %s\n", i+2, strconv.Quote(path))
		for _, l := range lines[i+1:] {
			sb.WriteString(l)
		}
		return sb.String()
	}
	return lineDirectiveExt + "\n" + fmt.Sprintf("#line 1 %s\n", strconv.Quote(path)) + src
}
