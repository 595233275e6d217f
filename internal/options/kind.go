package options

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Kind identifies the pipeline stage a shader is compiled for.
// KindUnspecified means the kind is inferred later.
type Kind uint8

const (
	KindUnspecified Kind = iota
	KindVertex
	KindFragment
	KindCompute
	KindGeometry
	KindTessControl
	KindTessEvaluation
	KindSpirvAssembly
	KindRayGeneration
	KindAnyHit
	KindClosestHit
	KindMiss
	KindIntersection
	KindCallable
	KindTask
	KindMesh
)

type kindInfo struct {
	name  string // Go-facing name
	ext   string // file extension without the dot
	stage string // glslc -fshader-stage value
}

var kindTable = [...]kindInfo{
	KindUnspecified:    {"Unspecified", "", ""},
	KindVertex:         {"Vertex", "vert", "vertex"},
	KindFragment:       {"Fragment", "frag", "fragment"},
	KindCompute:        {"Compute", "comp", "compute"},
	KindGeometry:       {"Geometry", "geom", "geometry"},
	KindTessControl:    {"TessControl", "tesc", "tesscontrol"},
	KindTessEvaluation: {"TessEvaluation", "tese", "tesseval"},
	KindSpirvAssembly:  {"SpirvAssembly", "spvasm", ""},
	KindRayGeneration:  {"RayGeneration", "rgen", "rgen"},
	KindAnyHit:         {"AnyHit", "rahit", "rahit"},
	KindClosestHit:     {"ClosestHit", "rchit", "rchit"},
	KindMiss:           {"Miss", "rmiss", "rmiss"},
	KindIntersection:   {"Intersection", "rint", "rint"},
	KindCallable:       {"Callable", "rcall", "rcall"},
	KindTask:           {"Task", "task", "task"},
	KindMesh:           {"Mesh", "mesh", "mesh"},
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindTable) {
		return kindTable[k].name
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Extension returns the conventional file extension (without dot), or "".
func (k Kind) Extension() string {
	if int(k) < len(kindTable) {
		return kindTable[k].ext
	}
	return ""
}

// Stage returns the compiler's stage name. SPIR-V assembly and unspecified
// kinds have no stage.
func (k Kind) Stage() string {
	if int(k) < len(kindTable) {
		return kindTable[k].stage
	}
	return ""
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return int(k) < len(kindTable)
}

// ExtensionKind maps a file extension (with or without the leading dot)
// to its shader kind.
func ExtensionKind(ext string) (Kind, bool) {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return KindUnspecified, false
	}
	for i := KindVertex; int(i) < len(kindTable); i++ {
		if kindTable[i].ext == ext {
			return i, true
		}
	}
	return KindUnspecified, false
}

// PathKind infers the shader kind from the extension of path.
func PathKind(path string) (Kind, bool) {
	return ExtensionKind(filepath.Ext(path))
}

// ParseKind accepts the extension-style names (vert, frag, comp, ...).
func ParseKind(s string) (Kind, error) {
	if k, ok := ExtensionKind(strings.ToLower(strings.TrimSpace(s))); ok {
		return k, nil
	}
	return KindUnspecified, fmt.Errorf("unknown shader kind %q", s)
}
