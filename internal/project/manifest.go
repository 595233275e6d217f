// Package project loads the shadersmith.toml manifest that describes a
// shader project: its default build profile, cache location, include
// base and the list of shaders to build.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"shadersmith/internal/options"
)

// CacheDirEnv overrides [cache].dir. An empty value disables the cache.
const CacheDirEnv = "SHADERSMITH_CACHE_DIR"

// DefaultCacheDir is used when [cache].dir is absent.
const DefaultCacheDir = "target/shader-cache"

var (
	// ErrPackageSectionMissing indicates that [package] is missing.
	ErrPackageSectionMissing = errors.New("missing [package]")
	// ErrPackageNameMissing indicates that [package].name is missing.
	ErrPackageNameMissing = errors.New("missing [package].name")
	// ErrShaderPathMissing indicates a [[shader]] entry without path.
	ErrShaderPathMissing = errors.New("missing [[shader]].path")
)

// Manifest is a parsed shadersmith.toml.
type Manifest struct {
	// Path is the absolute manifest path; Root its directory.
	Path string `toml:"-"`
	Root string `toml:"-"`

	Package  PackageSection  `toml:"package"`
	Defaults DefaultsSection `toml:"defaults"`
	Cache    CacheSection    `toml:"cache"`
	Include  IncludeSection  `toml:"include"`
	Shaders  []ShaderEntry   `toml:"shader"`
}

type PackageSection struct {
	Name string `toml:"name"`
}

// DefaultsSection shapes the deterministic defaults of every build.
type DefaultsSection struct {
	Strip        bool   `toml:"strip"`
	OptimizeZero bool   `toml:"optimize_zero"`
	Target       string `toml:"target"`
}

type CacheSection struct {
	Dir string `toml:"dir"`
}

type IncludeSection struct {
	Base string `toml:"base"`
}

// ShaderEntry is one [[shader]] table. Unset pointer fields inherit the
// profile defaults.
type ShaderEntry struct {
	Path     string   `toml:"path"`
	Kind     string   `toml:"kind"`
	Version  uint32   `toml:"version"`
	Debug    *bool    `toml:"debug"`
	Optimize string   `toml:"optimize"`
	Target   string   `toml:"target"`
	Define   []string `toml:"define"`
	Output   string   `toml:"output"`
}

// LoadManifest parses and validates the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manifest path: %w", err)
	}
	var m Manifest
	meta, err := toml.DecodeFile(abs, &m)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", abs, err)
	}
	if !meta.IsDefined("package") {
		return nil, fmt.Errorf("%s: %w", abs, ErrPackageSectionMissing)
	}
	if strings.TrimSpace(m.Package.Name) == "" {
		return nil, fmt.Errorf("%s: %w", abs, ErrPackageNameMissing)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", abs, undecoded[0].String())
	}
	for i, sh := range m.Shaders {
		if strings.TrimSpace(sh.Path) == "" {
			return nil, fmt.Errorf("%s: shader #%d: %w", abs, i+1, ErrShaderPathMissing)
		}
	}
	m.Path = abs
	m.Root = filepath.Dir(abs)
	if _, err := m.Profile(); err != nil {
		return nil, fmt.Errorf("%s: %w", abs, err)
	}
	return &m, nil
}

// Profile returns the [defaults] profile.
func (m *Manifest) Profile() (options.Profile, error) {
	p := options.Profile{Strip: m.Defaults.Strip, OptimizeZero: m.Defaults.OptimizeZero}
	if m.Defaults.Target != "" {
		t, err := options.ParseTarget(m.Defaults.Target)
		if err != nil {
			return options.Profile{}, fmt.Errorf("[defaults].target: %w", err)
		}
		p.Target = t
	}
	return p, nil
}

// CacheDir returns the absolute cache directory, or "" when caching is
// disabled. The environment override wins over the manifest.
func (m *Manifest) CacheDir() string {
	if dir, ok := os.LookupEnv(CacheDirEnv); ok {
		return absUnder(m.rootOrCwd(), dir)
	}
	dir := m.Cache.Dir
	switch dir {
	case "-":
		return ""
	case "":
		dir = DefaultCacheDir
	}
	return absUnder(m.rootOrCwd(), dir)
}

// IncludeBase returns the base directory for <...> includes.
func (m *Manifest) IncludeBase() string {
	if m.Include.Base == "" {
		return m.rootOrCwd()
	}
	return absUnder(m.rootOrCwd(), m.Include.Base)
}

// SourcePath resolves an entry path against the project root.
func (m *Manifest) SourcePath(e ShaderEntry) string {
	return absUnder(m.rootOrCwd(), e.Path)
}

// OutputPath returns where the compiled binary of e is written, by
// default the source path with .spv appended.
func (m *Manifest) OutputPath(e ShaderEntry) string {
	if e.Output != "" {
		return absUnder(m.rootOrCwd(), e.Output)
	}
	return m.SourcePath(e) + ".spv"
}

// Options builds the options for e on top of the manifest profile.
func (m *Manifest) Options(e ShaderEntry) (options.BuildOptions, error) {
	profile, err := m.Profile()
	if err != nil {
		return options.BuildOptions{}, err
	}
	o := profile.Default()
	if e.Kind != "" {
		k, err := options.ParseKind(e.Kind)
		if err != nil {
			return o, fmt.Errorf("shader %s: %w", e.Path, err)
		}
		o.Kind = k
	}
	o.Version = e.Version
	if e.Debug != nil {
		o.Debug = *e.Debug
	}
	if e.Optimize != "" {
		opt, err := options.ParseOptimization(e.Optimize)
		if err != nil {
			return o, fmt.Errorf("shader %s: %w", e.Path, err)
		}
		o.Optimization = opt
	}
	if e.Target != "" {
		t, err := options.ParseTarget(e.Target)
		if err != nil {
			return o, fmt.Errorf("shader %s: %w", e.Path, err)
		}
		o.Target = t
	}
	for _, raw := range e.Define {
		d, err := options.ParseDefine(raw)
		if err != nil {
			return o, fmt.Errorf("shader %s: %w", e.Path, err)
		}
		o.Definitions = append(o.Definitions, d)
	}
	return o, nil
}

func (m *Manifest) rootOrCwd() string {
	if m != nil && m.Root != "" {
		return m.Root
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

func absUnder(root, p string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}
