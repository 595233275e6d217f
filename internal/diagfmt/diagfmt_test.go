package diagfmt

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shadersmith/internal/diag"
)

func sampleBag() *diag.Bag {
	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.CmpError, "/proj/shaders/sky.frag", "'x' : undeclared identifier").WithLine(12))
	bag.Add(diag.NewError(diag.IncUnresolved, "/proj/shaders/sky.frag", "cannot resolve include \"fog.glsl\"").
		WithLine(3).WithNote("searched /proj/shaders/fog.glsl"))
	bag.Add(diag.New(diag.SevWarning, diag.IOCacheWrite, "", "cache write failed"))
	return bag
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "text": FormatText, "JSON": FormatJSON, "sarif": FormatSARIF} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestBuildDiagnosticsOutput(t *testing.T) {
	out := BuildDiagnosticsOutput(sampleBag(), JSONOpts{BaseDir: "/proj", IncludeNotes: true})
	require.Equal(t, 3, out.Count)

	first := out.Diagnostics[0]
	assert.Equal(t, "ERROR", first.Severity)
	assert.Equal(t, "CMP2001", first.Code)
	assert.Equal(t, &LocationJSON{File: "shaders/sky.frag", Line: 12}, first.Location)
	assert.Equal(t, []string{"searched /proj/shaders/fog.glsl"}, out.Diagnostics[1].Notes)
	assert.Nil(t, out.Diagnostics[2].Location)

	capped := BuildDiagnosticsOutput(sampleBag(), JSONOpts{Max: 1})
	assert.Equal(t, 1, capped.Count)
	assert.Empty(t, capped.Diagnostics[0].Notes)
}

func TestFormatPath(t *testing.T) {
	p := filepath.FromSlash("/proj/shaders/a.vert")
	base := filepath.FromSlash("/proj")
	assert.Equal(t, "shaders/a.vert", formatPath(p, JSONOpts{BaseDir: base}))
	assert.Equal(t, "a.vert", formatPath(p, JSONOpts{PathMode: PathModeBasename}))
	assert.Equal(t, "../proj/shaders/a.vert", formatPath(p, JSONOpts{PathMode: PathModeRelative, BaseDir: filepath.FromSlash("/other")}))
	assert.Equal(t, "/proj/shaders/a.vert", formatPath(p, JSONOpts{BaseDir: filepath.FromSlash("/other")}))
}

func TestJSONIsValid(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, sampleBag(), JSONOpts{}))
	var decoded DiagnosticsOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 3, decoded.Count)
}

func TestSarifGolden(t *testing.T) {
	var buf bytes.Buffer
	err := Sarif(&buf, sampleBag(), JSONOpts{BaseDir: "/proj", IncludeNotes: true}, SarifRunMeta{
		ToolName:       "shadersmith",
		ToolVersion:    "1.0.0",
		InvocationArgs: []string{"build"},
	})
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))
	g.Assert(t, "sarif", buf.Bytes())
}
