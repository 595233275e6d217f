package spirv

import (
	"math/bits"
	"slices"

	"fortio.org/safecast"
)

// Module is a decoded SPIR-V module.
type Module struct {
	Version   uint32
	Generator uint32
	Bound     uint32

	entries []rawEntry
	types   map[uint32]ScalarType
	specIDs map[uint32]uint32
	consts  []rawConst
}

type rawEntry struct {
	model ExecutionModel
	id    uint32
	name  string
}

type rawConst struct {
	id     uint32
	typeID uint32
	op     Op
	value  []uint32
}

// Parse decodes words. Modules written in the opposite byte order are
// detected through the magic number and swapped.
func Parse(words []uint32) (*Module, error) {
	if len(words) < headerWords {
		return nil, &FormatError{Offset: 0, Reason: "truncated header"}
	}
	switch words[0] {
	case MagicNumber:
	case bits.ReverseBytes32(MagicNumber):
		swapped := make([]uint32, len(words))
		for i, w := range words {
			swapped[i] = bits.ReverseBytes32(w)
		}
		words = swapped
	default:
		return nil, &FormatError{Offset: 0, Reason: "bad magic number"}
	}

	m := &Module{
		Version:   words[1],
		Generator: words[2],
		Bound:     words[3],
		types:     make(map[uint32]ScalarType),
		specIDs:   make(map[uint32]uint32),
	}

	for off := headerWords; off < len(words); {
		count := int(words[off] >> 16)
		op := Op(words[off] & 0xffff)
		if count == 0 {
			return nil, &FormatError{Offset: off, Reason: "zero word count"}
		}
		if off+count > len(words) {
			return nil, &FormatError{Offset: off, Reason: "instruction runs past end of module"}
		}
		if err := m.decode(off, op, words[off+1:off+count]); err != nil {
			return nil, err
		}
		off += count
	}
	return m, nil
}

func (m *Module) decode(off int, op Op, operands []uint32) error {
	need := func(n int) error {
		if len(operands) < n {
			return &FormatError{Offset: off, Reason: "too few operands"}
		}
		return nil
	}
	switch op {
	case OpEntryPoint:
		if err := need(3); err != nil {
			return err
		}
		name, _, ok := literalString(operands[2:])
		if !ok {
			return &FormatError{Offset: off, Reason: "unterminated entry point name"}
		}
		m.entries = append(m.entries, rawEntry{
			model: ExecutionModel(operands[0]),
			id:    operands[1],
			name:  name,
		})
	case OpTypeBool:
		if err := need(1); err != nil {
			return err
		}
		m.types[operands[0]] = ScalarType{Class: ClassBool}
	case OpTypeInt:
		if err := need(3); err != nil {
			return err
		}
		m.types[operands[0]] = ScalarType{Class: ClassInt, Width: operands[1], Signed: operands[2] != 0}
	case OpTypeFloat:
		if err := need(2); err != nil {
			return err
		}
		m.types[operands[0]] = ScalarType{Class: ClassFloat, Width: operands[1]}
	case OpSpecConstantTrue, OpSpecConstantFalse:
		if err := need(2); err != nil {
			return err
		}
		m.consts = append(m.consts, rawConst{typeID: operands[0], id: operands[1], op: op})
	case OpSpecConstant:
		if err := need(3); err != nil {
			return err
		}
		m.consts = append(m.consts, rawConst{
			typeID: operands[0],
			id:     operands[1],
			op:     op,
			value:  slices.Clone(operands[2:]),
		})
	case OpDecorate:
		if err := need(2); err != nil {
			return err
		}
		if operands[1] == DecorationSpecID {
			if err := need(3); err != nil {
				return err
			}
			m.specIDs[operands[0]] = operands[2]
		}
	}
	return nil
}

// literalString decodes a nul-terminated UTF-8 string packed four bytes
// per word, lowest byte first. It returns the number of words consumed.
func literalString(words []uint32) (string, int, bool) {
	buf := make([]byte, 0, len(words)*4)
	for i, w := range words {
		for shift := 0; shift < 32; shift += 8 {
			b := byte(w >> shift)
			if b == 0 {
				return string(buf), i + 1, true
			}
			buf = append(buf, b)
		}
	}
	return "", 0, false
}

// EntryPoints lists the entry points in declaration order. Every
// module-level specialization constant carrying a SpecId decoration is
// reported on each entry point, ordered as declared.
func (m *Module) EntryPoints() []EntryPoint {
	vars := m.specConstants()
	out := make([]EntryPoint, len(m.entries))
	for i, e := range m.entries {
		out[i] = EntryPoint{
			Name:      e.name,
			Model:     e.model,
			Variables: slices.Clone(vars),
		}
	}
	return out
}

func (m *Module) specConstants() []Variable {
	var vars []Variable
	for _, c := range m.consts {
		specID, ok := m.specIDs[c.id]
		if !ok {
			continue
		}
		typ, ok := m.types[c.typeID]
		if !ok {
			typ = ScalarType{Class: ClassOther}
		}
		v := Variable{Kind: VarSpecConstant, SpecID: specID, Type: typ}
		switch c.op {
		case OpSpecConstantTrue:
			v.DefaultBool = true
		case OpSpecConstant:
			v.Default = c.value
		}
		vars = append(vars, v)
	}
	return vars
}

// WordCount returns the number of words of a binary of n bytes. It
// reports false when n is not a whole number of words.
func WordCount(n int) (uint32, bool) {
	if n%4 != 0 {
		return 0, false
	}
	count, err := safecast.Conv[uint32](n / 4)
	if err != nil {
		return 0, false
	}
	return count, true
}
