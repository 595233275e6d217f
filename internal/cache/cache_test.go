package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shadersmith/internal/diag"
	"shadersmith/internal/options"
	"shadersmith/internal/spirv"
)

var module = []uint32{spirv.MagicNumber, 0x00010000, 0, 1, 0}

func openCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "shader-cache"), 4)
	require.NoError(t, err)
	require.NotNil(t, c)
	return c
}

func TestFingerprintCoversSourceAndOptions(t *testing.T) {
	opts := options.Default()
	src := []byte("void main() {}")
	a := Fingerprint(src, "/inc", opts)
	assert.Equal(t, a, Fingerprint(src, "/inc", opts.Clone()))
	assert.NotEqual(t, a, Fingerprint([]byte("void main() { }"), "/inc", opts))
	assert.NotEqual(t, a, Fingerprint(src, "/inc", opts.WithDefine(options.Define{Name: "X"})))
	assert.NotEqual(t, a, Fingerprint(src, "/other", opts), "include base is part of the key")

	frag := opts
	frag.Kind = options.KindFragment
	assert.NotEqual(t, a, Fingerprint(src, "/inc", frag))

	ab := opts.WithDefine(options.Define{Name: "A"}).WithDefine(options.Define{Name: "B"})
	ba := opts.WithDefine(options.Define{Name: "B"}).WithDefine(options.Define{Name: "A"})
	assert.NotEqual(t, Fingerprint(nil, "", ab), Fingerprint(nil, "", ba), "definition order is part of the key")
	assert.Equal(t, Fingerprint(nil, "", ab), Fingerprint(nil, "", ab.Clone()))
}

func TestFingerprintFieldsDoNotRunTogether(t *testing.T) {
	opts := options.Default()
	assert.NotEqual(t, Fingerprint([]byte("ab"), "c", opts), Fingerprint([]byte("a"), "bc", opts))
}

func TestNilCacheIsDisabled(t *testing.T) {
	c, err := Open("", 0)
	require.NoError(t, err)
	require.Nil(t, c)

	_, status, err := c.Lookup(1, "/a.vert")
	assert.NoError(t, err)
	assert.Equal(t, Miss, status)
	assert.NoError(t, c.Store(1, module, []string{"/a.vert"}))
	assert.NoError(t, c.Clear())
	assert.Empty(t, c.Dir())
}

func TestStoreThenLookupRoundTripsDependencies(t *testing.T) {
	dir := t.TempDir()
	primary := filepath.Join(dir, "a.frag")
	inc := filepath.Join(dir, "common.glsl")
	require.NoError(t, os.WriteFile(inc, []byte("float x;"), 0o600))

	c := openCache(t)
	key := Fingerprint([]byte("src"), dir, options.Default())
	require.NoError(t, c.Store(key, module, []string{primary, inc, inc}))

	// The entry file is named by the decimal fingerprint.
	data, err := os.ReadFile(filepath.Join(c.Dir(), key.String()))
	require.NoError(t, err)
	assert.Equal(t, spirv.Bytes(module), data)

	fresh, err := Open(c.Dir(), 4)
	require.NoError(t, err)
	entry, status, err := fresh.Lookup(key, primary)
	require.NoError(t, err)
	assert.Equal(t, Hit, status)
	assert.Equal(t, module, entry.Words)
	assert.Equal(t, []string{primary, inc, inc}, entry.Sources)
	assert.Equal(t, 1, fresh.Len())
}

func TestChangedIncludeIsStale(t *testing.T) {
	dir := t.TempDir()
	primary := filepath.Join(dir, "a.frag")
	inc := filepath.Join(dir, "common.glsl")
	require.NoError(t, os.WriteFile(inc, []byte("float x;"), 0o600))

	c := openCache(t)
	require.NoError(t, c.Store(7, module, []string{primary, inc}))
	require.NoError(t, os.WriteFile(inc, []byte("float y;"), 0o600))

	_, status, err := c.Lookup(7, primary)
	require.NoError(t, err)
	assert.Equal(t, Stale, status, "memory tier")

	fresh, err := Open(c.Dir(), 4)
	require.NoError(t, err)
	_, status, err = fresh.Lookup(7, primary)
	require.NoError(t, err)
	assert.Equal(t, Stale, status, "disk tier")
}

func TestOtherPrimaryWithIncludesIsStale(t *testing.T) {
	dir := t.TempDir()
	inc := filepath.Join(dir, "common.glsl")
	require.NoError(t, os.WriteFile(inc, []byte("float x;"), 0o600))

	c := openCache(t)
	require.NoError(t, c.Store(9, module, []string{filepath.Join(dir, "a.frag"), inc}))
	_, status, _ := c.Lookup(9, filepath.Join(dir, "other", "a.frag"))
	assert.Equal(t, Stale, status)

	require.NoError(t, c.Store(10, module, []string{filepath.Join(dir, "b.frag")}))
	entry, status, _ := c.Lookup(10, filepath.Join(dir, "c.frag"))
	assert.Equal(t, Hit, status, "no includes, any primary may reuse the entry")
	assert.Equal(t, []string{filepath.Join(dir, "c.frag")}, entry.Sources)
}

func TestMissingSidecarFallsBackToPrimary(t *testing.T) {
	c := openCache(t)
	require.NoError(t, os.WriteFile(filepath.Join(c.Dir(), "42"), spirv.Bytes(module), 0o600))

	entry, status, err := c.Lookup(42, "/s/a.vert")
	require.NoError(t, err)
	assert.Equal(t, Hit, status)
	assert.Equal(t, []string{"/s/a.vert"}, entry.Sources)
}

func TestCorruptSidecarIsReportedButHit(t *testing.T) {
	c := openCache(t)
	require.NoError(t, os.WriteFile(filepath.Join(c.Dir(), "43"), spirv.Bytes(module), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(c.Dir(), "43.deps"), []byte{0xc1}, 0o600))

	entry, status, err := c.Lookup(43, "/s/a.vert")
	assert.Equal(t, Hit, status)
	assert.Equal(t, []string{"/s/a.vert"}, entry.Sources)
	require.Error(t, err)
	assert.Equal(t, diag.IOCacheCorrupt, diag.FromError(err).Code)
}

func TestEntryWithoutModuleIsCorruptMiss(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":    {},
		"no magic": spirv.Bytes([]uint32{0xdeadbeef, 0x00010000, 0, 1, 0}),
	} {
		t.Run(name, func(t *testing.T) {
			c := openCache(t)
			require.NoError(t, os.WriteFile(filepath.Join(c.Dir(), "44"), data, 0o600))

			entry, status, err := c.Lookup(44, "/s/a.vert")
			assert.Equal(t, Miss, status)
			assert.Empty(t, entry.Words)
			require.Error(t, err)
			assert.Equal(t, diag.IOCacheCorrupt, diag.FromError(err).Code)

			// A store replaces the bad entry.
			require.NoError(t, c.Store(44, module, []string{"/s/a.vert"}))
			fresh, err := Open(c.Dir(), 4)
			require.NoError(t, err)
			entry, status, err = fresh.Lookup(44, "/s/a.vert")
			require.NoError(t, err)
			assert.Equal(t, Hit, status)
			assert.Equal(t, module, entry.Words)
		})
	}
}

func TestMisalignedEntryPanics(t *testing.T) {
	c := openCache(t)
	require.NoError(t, os.WriteFile(filepath.Join(c.Dir(), "5"), []byte{1, 2, 3}, 0o600))
	assert.Panics(t, func() { _, _, _ = c.Lookup(5, "/s/a.vert") })
}

func TestLookupReturnsCopies(t *testing.T) {
	c := openCache(t)
	require.NoError(t, c.Store(11, module, []string{"/s/a.vert"}))
	entry, _, _ := c.Lookup(11, "/s/a.vert")
	entry.Words[0] = 0
	again, _, _ := c.Lookup(11, "/s/a.vert")
	assert.Equal(t, spirv.MagicNumber, again.Words[0])
}

func TestStoreFailureIsReported(t *testing.T) {
	c := openCache(t)
	err := c.Store(12, module, []string{"/s/a.vert", filepath.Join(t.TempDir(), "gone.glsl")})
	require.Error(t, err)
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, diag.IOCacheWrite, diag.FromError(err).Code)

	_, status, _ := c.Lookup(12, "/s/a.vert")
	assert.Equal(t, Miss, status)
}

func TestClear(t *testing.T) {
	c := openCache(t)
	require.NoError(t, c.Store(1, module, []string{"/s/a.vert"}))
	require.NoError(t, c.Clear())
	_, err := os.Stat(c.Dir())
	assert.True(t, os.IsNotExist(err))
	_, status, _ := c.Lookup(1, "/s/a.vert")
	assert.Equal(t, Miss, status)
	assert.NoError(t, c.Clear(), "clearing twice is fine")
}
