package spirv_test

import (
	"errors"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shadersmith/internal/spirv"
	"shadersmith/internal/spirv/spirvtest"
)

func TestParseEntryPointsAndSpecConstants(t *testing.T) {
	m := spirvtest.New().
		EntryPoint(spirv.ModelFragment, "main").
		SpecConstant(3, spirv.ScalarType{Class: spirv.ClassBool}, 1).
		SpecConstant(1, spirv.ScalarType{Class: spirv.ClassInt, Width: 32, Signed: true}, 7).
		SpecConstant(2, spirv.ScalarType{Class: spirv.ClassFloat, Width: 64}, 0, 0x3ff00000)

	// A plain constant without SpecId is not reflected.
	typeID, constID := m.ID(), m.ID()
	m.Inst(spirv.OpTypeInt, typeID, 32, 0).Inst(spirv.OpSpecConstant, typeID, constID, 9)

	mod, err := spirv.Parse(m.Words())
	require.NoError(t, err)

	eps := mod.EntryPoints()
	require.Len(t, eps, 1)
	assert.Equal(t, "main", eps[0].Name)
	assert.Equal(t, spirv.ModelFragment, eps[0].Model)

	vars := eps[0].Variables
	require.Len(t, vars, 3)
	assert.Equal(t, uint32(3), vars[0].SpecID)
	assert.Equal(t, spirv.ScalarType{Class: spirv.ClassBool}, vars[0].Type)
	assert.True(t, vars[0].DefaultBool)

	assert.Equal(t, uint32(1), vars[1].SpecID)
	assert.Equal(t, "i32", vars[1].Type.String())
	assert.Equal(t, []uint32{7}, vars[1].Default)

	assert.Equal(t, uint32(2), vars[2].SpecID)
	assert.Equal(t, "f64", vars[2].Type.String())
	assert.Equal(t, []uint32{0, 0x3ff00000}, vars[2].Default)
}

func TestParseSwappedEndianness(t *testing.T) {
	words := spirvtest.New().
		EntryPoint(spirv.ModelGLCompute, "main").
		SpecConstant(0, spirv.ScalarType{Class: spirv.ClassInt, Width: 16}, 5).
		Words()
	for i := range words {
		words[i] = bits.ReverseBytes32(words[i])
	}
	mod, err := spirv.Parse(words)
	require.NoError(t, err)
	eps := mod.EntryPoints()
	require.Len(t, eps, 1)
	assert.Equal(t, spirv.ModelGLCompute, eps[0].Model)
	require.Len(t, eps[0].Variables, 1)
	assert.Equal(t, "u16", eps[0].Variables[0].Type.String())
}

func TestParseMultipleEntryPointsShareConstants(t *testing.T) {
	words := spirvtest.New().
		EntryPoint(spirv.ModelVertex, "vs").
		EntryPoint(spirv.ModelFragment, "fs_main_long_name").
		SpecConstant(4, spirv.ScalarType{Class: spirv.ClassFloat, Width: 32}).
		Words()
	mod, err := spirv.Parse(words)
	require.NoError(t, err)
	eps := mod.EntryPoints()
	require.Len(t, eps, 2)
	assert.Equal(t, "fs_main_long_name", eps[1].Name)
	assert.Len(t, eps[0].Variables, 1)
	assert.Len(t, eps[1].Variables, 1)
}

func TestParseMalformed(t *testing.T) {
	valid := spirvtest.New().EntryPoint(spirv.ModelVertex, "main").Words()

	header := func(extra ...uint32) []uint32 {
		return append(append([]uint32(nil), valid[:5]...), extra...)
	}
	cases := map[string][]uint32{
		"empty":             nil,
		"bad magic":         {1, 2, 3, 4, 5},
		"zero count":        header(0),
		"overrun":           header(9<<16|uint32(spirv.OpEntryPoint), 0),
		"short decorate":    header(2<<16|uint32(spirv.OpDecorate), 1),
		"unterminated name": header(4<<16|uint32(spirv.OpEntryPoint), 0, 1, 0x6e69616d),
	}
	for name, words := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := spirv.Parse(words)
			var fe *spirv.FormatError
			require.True(t, errors.As(err, &fe), "got %v", err)
		})
	}
}

func TestWordsRoundTrip(t *testing.T) {
	words := []uint32{spirv.MagicNumber, 1, 2}
	assert.Equal(t, words, spirv.Words(spirv.Bytes(words)))
	assert.Panics(t, func() { spirv.Words([]byte{1, 2, 3}) })

	n, ok := spirv.WordCount(12)
	assert.True(t, ok)
	assert.Equal(t, uint32(3), n)
	_, ok = spirv.WordCount(13)
	assert.False(t, ok)
}
