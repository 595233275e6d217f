// Package spirvtest assembles small SPIR-V modules for tests.
package spirvtest

import "shadersmith/internal/spirv"

// Module accumulates instructions after a fixed header.
type Module struct {
	words  []uint32
	nextID uint32
}

// New starts a SPIR-V 1.0 module.
func New() *Module {
	return &Module{
		words:  []uint32{spirv.MagicNumber, 0x00010000, 0, 0, 0},
		nextID: 1,
	}
}

// ID allocates a fresh result id.
func (m *Module) ID() uint32 {
	id := m.nextID
	m.nextID++
	return id
}

// Inst appends one instruction.
func (m *Module) Inst(op spirv.Op, operands ...uint32) *Module {
	m.words = append(m.words, uint32(len(operands)+1)<<16|uint32(op))
	m.words = append(m.words, operands...)
	return m
}

// EntryPoint appends OpEntryPoint with a packed name.
func (m *Module) EntryPoint(model spirv.ExecutionModel, name string) *Module {
	ops := []uint32{uint32(model), m.ID()}
	ops = append(ops, String(name)...)
	return m.Inst(spirv.OpEntryPoint, ops...)
}

// SpecConstant declares a fresh type and a specialization constant of it
// decorated with specID. ClassOther emits a void type.
func (m *Module) SpecConstant(specID uint32, typ spirv.ScalarType, value ...uint32) *Module {
	typeID := m.ID()
	switch typ.Class {
	case spirv.ClassBool:
		m.Inst(spirv.OpTypeBool, typeID)
	case spirv.ClassInt:
		signed := uint32(0)
		if typ.Signed {
			signed = 1
		}
		m.Inst(spirv.OpTypeInt, typeID, typ.Width, signed)
	case spirv.ClassFloat:
		m.Inst(spirv.OpTypeFloat, typeID, typ.Width)
	default:
		// OpTypeVoid
		m.Inst(19, typeID)
	}
	id := m.ID()
	m.Inst(spirv.OpDecorate, id, spirv.DecorationSpecID, specID)
	if typ.Class == spirv.ClassBool {
		op := spirv.OpSpecConstantFalse
		if len(value) > 0 && value[0] != 0 {
			op = spirv.OpSpecConstantTrue
		}
		return m.Inst(op, typeID, id)
	}
	if len(value) == 0 {
		value = []uint32{0}
	}
	return m.Inst(spirv.OpSpecConstant, append([]uint32{typeID, id}, value...)...)
}

// Words returns the assembled module with the id bound filled in.
func (m *Module) Words() []uint32 {
	out := append([]uint32(nil), m.words...)
	out[3] = m.nextID
	return out
}

// String packs s as a nul-terminated literal string.
func String(s string) []uint32 {
	b := append([]byte(s), 0)
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	out := make([]uint32, len(b)/4)
	for i := range out {
		out[i] = uint32(b[i*4]) | uint32(b[i*4+1])<<8 | uint32(b[i*4+2])<<16 | uint32(b[i*4+3])<<24
	}
	return out
}
