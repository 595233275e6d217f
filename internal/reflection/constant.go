package reflection

import (
	"encoding/binary"
	"fmt"
	"math"
)

// SpecializationConstant is a typed value supplied for a specialization
// constant at pipeline creation.
type SpecializationConstant struct {
	kind Kind
	bits uint64
}

func Bool(v bool) SpecializationConstant {
	if v {
		return SpecializationConstant{kind: KindBool, bits: 1}
	}
	return SpecializationConstant{kind: KindBool}
}

func I8(v int8) SpecializationConstant {
	return SpecializationConstant{kind: KindI8, bits: uint64(uint8(v))}
}

func I16(v int16) SpecializationConstant {
	return SpecializationConstant{kind: KindI16, bits: uint64(uint16(v))}
}

func I32(v int32) SpecializationConstant {
	return SpecializationConstant{kind: KindI32, bits: uint64(uint32(v))}
}

func I64(v int64) SpecializationConstant {
	return SpecializationConstant{kind: KindI64, bits: uint64(v)}
}

func U8(v uint8) SpecializationConstant {
	return SpecializationConstant{kind: KindU8, bits: uint64(v)}
}

func U16(v uint16) SpecializationConstant {
	return SpecializationConstant{kind: KindU16, bits: uint64(v)}
}

func U32(v uint32) SpecializationConstant {
	return SpecializationConstant{kind: KindU32, bits: uint64(v)}
}

func U64(v uint64) SpecializationConstant {
	return SpecializationConstant{kind: KindU64, bits: v}
}

// F16 takes the raw IEEE 754 half-precision bits.
func F16(bits uint16) SpecializationConstant {
	return SpecializationConstant{kind: KindF16, bits: uint64(bits)}
}

func F32(v float32) SpecializationConstant {
	return SpecializationConstant{kind: KindF32, bits: uint64(math.Float32bits(v))}
}

func F64(v float64) SpecializationConstant {
	return SpecializationConstant{kind: KindF64, bits: math.Float64bits(v)}
}

// fromWords builds a constant from literal words as they appear in a
// SPIR-V module: low-order word first, narrow values in the low bits.
func fromWords(k Kind, words []uint32) SpecializationConstant {
	var bits uint64
	if len(words) > 0 {
		bits = uint64(words[0])
	}
	if len(words) > 1 && k.Size() == 8 {
		bits |= uint64(words[1]) << 32
	}
	if k.Size() < 8 {
		bits &= 1<<(8*uint(k.Size())) - 1
	}
	if k == KindBool && bits != 0 {
		bits = 1
	}
	return SpecializationConstant{kind: k, bits: bits}
}

func (c SpecializationConstant) Kind() Kind { return c.kind }

// Bytes returns the little-endian value bytes. A bool is encoded as a
// 32-bit 0 or 1.
func (c SpecializationConstant) Bytes() []byte {
	out := make([]byte, c.kind.Size())
	switch len(out) {
	case 1:
		out[0] = byte(c.bits)
	case 2:
		binary.LittleEndian.PutUint16(out, uint16(c.bits))
	case 4:
		binary.LittleEndian.PutUint32(out, uint32(c.bits))
	default:
		binary.LittleEndian.PutUint64(out, c.bits)
	}
	return out
}

func (c SpecializationConstant) String() string {
	switch c.kind {
	case KindBool:
		return fmt.Sprintf("%t", c.bits != 0)
	case KindI8:
		return fmt.Sprintf("%d", int8(c.bits))
	case KindI16:
		return fmt.Sprintf("%d", int16(c.bits))
	case KindI32:
		return fmt.Sprintf("%d", int32(c.bits))
	case KindI64:
		return fmt.Sprintf("%d", int64(c.bits))
	case KindF16:
		return fmt.Sprintf("f16(%#04x)", uint16(c.bits))
	case KindF32:
		return fmt.Sprintf("%g", math.Float32frombits(uint32(c.bits)))
	case KindF64:
		return fmt.Sprintf("%g", math.Float64frombits(c.bits))
	}
	return fmt.Sprintf("%d", c.bits)
}
