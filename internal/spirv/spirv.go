// Package spirv decodes the parts of a SPIR-V module needed for
// reflection: entry points and specialization constants.
package spirv

import (
	"fmt"

	"shadersmith/internal/diag"
)

// MagicNumber is the first word of every SPIR-V module.
const MagicNumber uint32 = 0x07230203

// headerWords is the length of the module header.
const headerWords = 5

// Op is a SPIR-V opcode.
type Op uint16

const (
	OpEntryPoint        Op = 15
	OpTypeBool          Op = 20
	OpTypeInt           Op = 21
	OpTypeFloat         Op = 22
	OpSpecConstantTrue  Op = 48
	OpSpecConstantFalse Op = 49
	OpSpecConstant      Op = 50
	OpDecorate          Op = 71
)

// DecorationSpecID marks a constant as specializable.
const DecorationSpecID uint32 = 1

// ExecutionModel is the pipeline stage an entry point runs in.
type ExecutionModel uint32

const (
	ModelVertex                 ExecutionModel = 0
	ModelTessellationControl    ExecutionModel = 1
	ModelTessellationEvaluation ExecutionModel = 2
	ModelGeometry               ExecutionModel = 3
	ModelFragment               ExecutionModel = 4
	ModelGLCompute              ExecutionModel = 5
	ModelKernel                 ExecutionModel = 6
	ModelTaskNV                 ExecutionModel = 5267
	ModelMeshNV                 ExecutionModel = 5268
	ModelRayGeneration          ExecutionModel = 5313
	ModelIntersection           ExecutionModel = 5314
	ModelAnyHit                 ExecutionModel = 5315
	ModelClosestHit             ExecutionModel = 5316
	ModelMiss                   ExecutionModel = 5317
	ModelCallable               ExecutionModel = 5318
	ModelTaskEXT                ExecutionModel = 5364
	ModelMeshEXT                ExecutionModel = 5365
)

var modelNames = map[ExecutionModel]string{
	ModelVertex:                 "Vertex",
	ModelTessellationControl:    "TessellationControl",
	ModelTessellationEvaluation: "TessellationEvaluation",
	ModelGeometry:               "Geometry",
	ModelFragment:               "Fragment",
	ModelGLCompute:              "GLCompute",
	ModelKernel:                 "Kernel",
	ModelTaskNV:                 "TaskNV",
	ModelMeshNV:                 "MeshNV",
	ModelRayGeneration:          "RayGeneration",
	ModelIntersection:           "Intersection",
	ModelAnyHit:                 "AnyHit",
	ModelClosestHit:             "ClosestHit",
	ModelMiss:                   "Miss",
	ModelCallable:               "Callable",
	ModelTaskEXT:                "TaskEXT",
	ModelMeshEXT:                "MeshEXT",
}

func (m ExecutionModel) String() string {
	if name, ok := modelNames[m]; ok {
		return name
	}
	return fmt.Sprintf("ExecutionModel(%d)", uint32(m))
}

// ScalarClass is the category of a scalar type.
type ScalarClass uint8

const (
	ClassOther ScalarClass = iota
	ClassBool
	ClassInt
	ClassFloat
)

func (c ScalarClass) String() string {
	switch c {
	case ClassBool:
		return "bool"
	case ClassInt:
		return "int"
	case ClassFloat:
		return "float"
	}
	return "other"
}

// ScalarType describes the type of a specialization constant. Width is
// in bits and zero for bool.
type ScalarType struct {
	Class  ScalarClass
	Width  uint32
	Signed bool
}

func (t ScalarType) String() string {
	switch t.Class {
	case ClassBool:
		return "bool"
	case ClassInt:
		if t.Signed {
			return fmt.Sprintf("i%d", t.Width)
		}
		return fmt.Sprintf("u%d", t.Width)
	case ClassFloat:
		return fmt.Sprintf("f%d", t.Width)
	}
	return "other"
}

// VariableKind classifies reflected variables.
type VariableKind uint8

const (
	VarSpecConstant VariableKind = iota + 1
)

// Variable is one reflected module variable.
type Variable struct {
	Kind   VariableKind
	SpecID uint32
	Type   ScalarType
	// Default holds the literal default value words; empty for bools,
	// whose default is carried by DefaultBool.
	Default     []uint32
	DefaultBool bool
}

// EntryPoint is one OpEntryPoint together with the variables visible to it.
type EntryPoint struct {
	Name      string
	Model     ExecutionModel
	Variables []Variable
}

// FormatError reports a malformed module. Offset is the word index.
type FormatError struct {
	Offset int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed SPIR-V at word %d: %s", e.Offset, e.Reason)
}

func (e *FormatError) Diagnostic() diag.Diagnostic {
	return diag.NewError(diag.RflMalformedBinary, "", e.Error())
}
