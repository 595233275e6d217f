package options

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hashBytes(o BuildOptions) []byte {
	var buf bytes.Buffer
	o.WriteHash(&buf)
	return buf.Bytes()
}

func TestDefault(t *testing.T) {
	o := Default()
	assert.Equal(t, KindUnspecified, o.Kind)
	assert.Zero(t, o.Version)
	assert.True(t, o.Debug)
	assert.Equal(t, OptimizePerformance, o.Optimization)
	assert.Equal(t, Vulkan1_0, o.Target)
	assert.Empty(t, o.Definitions)
}

func TestProfileDefault(t *testing.T) {
	o := Profile{Strip: true, OptimizeZero: true, Target: Vulkan1_2}.Default()
	assert.False(t, o.Debug)
	assert.Equal(t, OptimizeZero, o.Optimization)
	assert.Equal(t, Vulkan1_2, o.Target)
	assert.True(t, Default().Equal(Default()), "defaults must be deterministic")
}

func TestEqualAndHashAreOrderSensitive(t *testing.T) {
	a := Default().WithDefine(Define{Name: "A", Value: "1", HasValue: true}).WithDefine(Define{Name: "B"})
	b := Default().WithDefine(Define{Name: "B"}).WithDefine(Define{Name: "A", Value: "1", HasValue: true})
	c := Default().WithDefine(Define{Name: "A", Value: "1", HasValue: true}).WithDefine(Define{Name: "B"})

	assert.False(t, a.Equal(b))
	assert.NotEqual(t, hashBytes(a), hashBytes(b))

	assert.True(t, a.Equal(c))
	assert.Equal(t, hashBytes(a), hashBytes(c))
}

func TestHashDistinguishesValuedDefines(t *testing.T) {
	bare := Default().WithDefine(Define{Name: "X"})
	empty := Default().WithDefine(Define{Name: "X", HasValue: true})
	assert.NotEqual(t, hashBytes(bare), hashBytes(empty))

	// Length prefixes keep name/value boundaries unambiguous.
	ab := Default().WithDefine(Define{Name: "AB", Value: "C", HasValue: true})
	a := Default().WithDefine(Define{Name: "A", Value: "BC", HasValue: true})
	assert.NotEqual(t, hashBytes(ab), hashBytes(a))
}

func TestHashCoversEveryField(t *testing.T) {
	base := Default()
	variants := []BuildOptions{
		func() BuildOptions { o := base; o.Kind = KindFragment; return o }(),
		func() BuildOptions { o := base; o.Version = 450; return o }(),
		func() BuildOptions { o := base; o.Debug = false; return o }(),
		func() BuildOptions { o := base; o.Optimization = OptimizeSize; return o }(),
		func() BuildOptions { o := base; o.Target = Vulkan1_3; return o }(),
		base.WithDefine(Define{Name: "Y"}),
	}
	seen := map[string]int{string(hashBytes(base)): -1}
	for i, v := range variants {
		key := string(hashBytes(v))
		prev, dup := seen[key]
		require.Falsef(t, dup, "variant %d collides with %d", i, prev)
		seen[key] = i
	}
}

func TestCloneDoesNotShareDefinitions(t *testing.T) {
	o := Default().WithDefine(Define{Name: "A"})
	c := o.Clone()
	c.Definitions[0].Name = "Z"
	assert.Equal(t, "A", o.Definitions[0].Name)
}

func TestResolveKind(t *testing.T) {
	k, ok := Default().ResolveKind("/x/shader.vert")
	assert.True(t, ok)
	assert.Equal(t, KindVertex, k)

	explicit := Default()
	explicit.Kind = KindVertex
	k2, ok := explicit.ResolveKind("/x/shader.glsl")
	assert.True(t, ok)
	assert.Equal(t, k, k2)

	explicit.Kind = KindCompute
	k3, _ := explicit.ResolveKind("/x/shader.vert")
	assert.Equal(t, KindCompute, k3, "explicit kind wins over extension")

	_, ok = Default().ResolveKind("/x/shader.glsl")
	assert.False(t, ok)
}

func TestParseHelpers(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Kind
	}{
		{"vert", KindVertex}, {"frag", KindFragment}, {"comp", KindCompute},
		{"geom", KindGeometry}, {"tesc", KindTessControl}, {"tese", KindTessEvaluation},
		{"spvasm", KindSpirvAssembly}, {"rgen", KindRayGeneration}, {"rahit", KindAnyHit},
		{"rchit", KindClosestHit}, {"rmiss", KindMiss}, {"rint", KindIntersection},
		{"rcall", KindCallable}, {"task", KindTask}, {"mesh", KindMesh},
	} {
		got, err := ParseKind(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.in, got.Extension())
	}
	_, err := ParseKind("pixel")
	assert.Error(t, err)

	opt, err := ParseOptimization("size")
	require.NoError(t, err)
	assert.Equal(t, OptimizeSize, opt)
	_, err = ParseOptimization("fast")
	assert.Error(t, err)

	for in, want := range map[string]TargetVersion{
		"vulkan": Vulkan1_0, "vulkan1_1": Vulkan1_1, "vulkan1.2": Vulkan1_2, "VULKAN1_4": Vulkan1_4,
	} {
		got, err := ParseTarget(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err = ParseTarget("opengl")
	assert.Error(t, err)
	assert.Equal(t, "vulkan1.3", Vulkan1_3.Env())

	d, err := ParseDefine("FOO=bar=baz")
	require.NoError(t, err)
	assert.Equal(t, Define{Name: "FOO", Value: "bar=baz", HasValue: true}, d)
	d, err = ParseDefine("FOO")
	require.NoError(t, err)
	assert.False(t, d.HasValue)
	_, err = ParseDefine("=1")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Default().Validate())
	bad := Default()
	bad.Target = 7
	assert.Error(t, bad.Validate())
	bad = Default()
	bad.Kind = Kind(200)
	assert.Error(t, bad.Validate())
}
