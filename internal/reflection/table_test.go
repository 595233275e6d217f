package reflection

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shadersmith/internal/diag"
	"shadersmith/internal/spirv"
	"shadersmith/internal/spirv/spirvtest"
)

func scalar(class spirv.ScalarClass, width uint32, signed bool) spirv.ScalarType {
	return spirv.ScalarType{Class: class, Width: width, Signed: signed}
}

func TestExtractTwelveKindsSorted(t *testing.T) {
	decls := []struct {
		id  uint32
		typ spirv.ScalarType
	}{
		{64, scalar(spirv.ClassBool, 0, false)},
		{11, scalar(spirv.ClassFloat, 64, false)},
		{3, scalar(spirv.ClassInt, 64, true)},
		{0, scalar(spirv.ClassBool, 0, false)},
		{7, scalar(spirv.ClassInt, 32, false)},
		{1, scalar(spirv.ClassInt, 8, true)},
		{12, scalar(spirv.ClassBool, 0, false)},
		{2, scalar(spirv.ClassInt, 16, true)},
		{4, scalar(spirv.ClassInt, 32, true)},
		{5, scalar(spirv.ClassInt, 8, false)},
		{6, scalar(spirv.ClassInt, 16, false)},
		{8, scalar(spirv.ClassInt, 64, false)},
		{9, scalar(spirv.ClassFloat, 16, false)},
		{10, scalar(spirv.ClassFloat, 32, false)},
	}
	m := spirvtest.New().EntryPoint(spirv.ModelFragment, "main")
	for _, d := range decls {
		m.SpecConstant(d.id, d.typ)
	}
	// A second entry point is ignored.
	m.EntryPoint(spirv.ModelVertex, "other")

	table, err := Extract(m.Words())
	require.NoError(t, err)
	assert.Equal(t, "main", table.EntryPoint)

	want := []struct {
		id   uint32
		kind Kind
	}{
		{0, KindBool}, {1, KindI8}, {2, KindI16}, {3, KindI64}, {4, KindI32},
		{5, KindU8}, {6, KindU16}, {7, KindU32}, {8, KindU64}, {9, KindF16},
		{10, KindF32}, {11, KindF64}, {12, KindBool}, {64, KindBool},
	}
	require.Len(t, table.Entries, len(want))
	for i, w := range want {
		assert.Equal(t, w.id, table.Entries[i].SpecID, "entry %d", i)
		assert.Equal(t, w.kind, table.Entries[i].Kind, "entry %d", i)
	}

	e, ok := table.Lookup(64)
	require.True(t, ok)
	assert.Equal(t, KindBool, e.Kind)
	_, ok = table.Lookup(13)
	assert.False(t, ok)
}

func TestExtractUnsupportedTypeIsFatal(t *testing.T) {
	words := spirvtest.New().
		EntryPoint(spirv.ModelGLCompute, "main").
		SpecConstant(0, scalar(spirv.ClassInt, 32, true)).
		SpecConstant(5, scalar(spirv.ClassInt, 24, false)).
		Words()
	_, err := Extract(words)
	var te *TypeError
	require.True(t, errors.As(err, &te), "got %v", err)
	assert.Equal(t, uint32(5), te.SpecID)
	assert.Equal(t, diag.RflUnsupportedType, diag.FromError(err).Code)
}

func TestExtractErrors(t *testing.T) {
	_, err := Extract([]uint32{1, 2, 3})
	var fe *spirv.FormatError
	assert.True(t, errors.As(err, &fe), "got %v", err)
	assert.Equal(t, diag.RflMalformedBinary, diag.FromError(err).Code)

	_, err = Extract(spirvtest.New().Words())
	assert.ErrorIs(t, err, ErrNoEntryPoint)
}

func goldenTable(t *testing.T) Table {
	t.Helper()
	words := spirvtest.New().
		EntryPoint(spirv.ModelFragment, "main").
		SpecConstant(64, scalar(spirv.ClassInt, 64, false), 123, 0).
		SpecConstant(2, scalar(spirv.ClassFloat, 32, false), math.Float32bits(1.5)).
		SpecConstant(0, scalar(spirv.ClassBool, 0, false), 1).
		SpecConstant(1, scalar(spirv.ClassInt, 32, true), uint32(0xfffffffd)).
		Words()
	table, err := Extract(words)
	require.NoError(t, err)
	return table
}

func TestWriteTextGolden(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, goldenTable(t).WriteText(&buf))

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "table", buf.Bytes())
}

func TestMarshalJSON(t *testing.T) {
	data, err := json.Marshal(goldenTable(t))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"entry_point": "main",
		"specialization_constants": [
			{"id": 0, "kind": "bool", "default": "true"},
			{"id": 1, "kind": "i32", "default": "-3"},
			{"id": 2, "kind": "f32", "default": "1.5"},
			{"id": 64, "kind": "u64", "default": "123"}
		]
	}`, string(data))
}

func TestCheck(t *testing.T) {
	table := goldenTable(t)
	assert.NoError(t, table.Check(1, I32(9)))
	assert.Error(t, table.Check(1, U32(9)))
	assert.Error(t, table.Check(3, Bool(true)))
}

func TestConstantBytes(t *testing.T) {
	cases := []struct {
		c    SpecializationConstant
		want []byte
	}{
		{Bool(true), []byte{1, 0, 0, 0}},
		{Bool(false), []byte{0, 0, 0, 0}},
		{I8(-1), []byte{0xff}},
		{I16(-2), []byte{0xfe, 0xff}},
		{I32(1), []byte{1, 0, 0, 0}},
		{I64(-1), []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}},
		{U8(7), []byte{7}},
		{U16(0x0102), []byte{2, 1}},
		{U32(0x01020304), []byte{4, 3, 2, 1}},
		{U64(1), []byte{1, 0, 0, 0, 0, 0, 0, 0}},
		{F16(0x3c00), []byte{0x00, 0x3c}},
		{F32(1), []byte{0, 0, 0x80, 0x3f}},
		{F64(1), []byte{0, 0, 0, 0, 0, 0, 0xf0, 0x3f}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.c.Bytes(), "%s %s", tc.c.Kind(), tc.c)
		assert.Len(t, tc.c.Bytes(), tc.c.Kind().Size())
	}
}
