package reflection

import (
	"fmt"

	"shadersmith/internal/spirv"
)

// Kind is the type tag of a specialization constant.
type Kind uint8

const (
	KindBool Kind = iota
	KindI8
	KindI16
	KindI32
	KindI64
	KindU8
	KindU16
	KindU32
	KindU64
	KindF16
	KindF32
	KindF64
)

var kindNames = [...]string{
	KindBool: "bool",
	KindI8:   "i8",
	KindI16:  "i16",
	KindI32:  "i32",
	KindI64:  "i64",
	KindU8:   "u8",
	KindU16:  "u16",
	KindU32:  "u32",
	KindU64:  "u64",
	KindF16:  "f16",
	KindF32:  "f32",
	KindF64:  "f64",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Size returns the byte size of a value of kind k as bound at pipeline
// creation. Bools occupy a 32-bit word.
func (k Kind) Size() int {
	switch k {
	case KindI8, KindU8:
		return 1
	case KindI16, KindU16, KindF16:
		return 2
	case KindBool, KindI32, KindU32, KindF32:
		return 4
	}
	return 8
}

// KindOf maps a scalar type to its tag.
func KindOf(t spirv.ScalarType) (Kind, bool) {
	switch t.Class {
	case spirv.ClassBool:
		return KindBool, true
	case spirv.ClassInt:
		var signed, unsigned Kind
		switch t.Width {
		case 8:
			signed, unsigned = KindI8, KindU8
		case 16:
			signed, unsigned = KindI16, KindU16
		case 32:
			signed, unsigned = KindI32, KindU32
		case 64:
			signed, unsigned = KindI64, KindU64
		default:
			return 0, false
		}
		if t.Signed {
			return signed, true
		}
		return unsigned, true
	case spirv.ClassFloat:
		switch t.Width {
		case 16:
			return KindF16, true
		case 32:
			return KindF32, true
		case 64:
			return KindF64, true
		}
	}
	return 0, false
}
