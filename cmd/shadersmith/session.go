package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"shadersmith/internal/backend"
	"shadersmith/internal/build"
	"shadersmith/internal/cache"
	"shadersmith/internal/diag"
	"shadersmith/internal/diagfmt"
	"shadersmith/internal/metrics"
	"shadersmith/internal/observ"
	"shadersmith/internal/options"
	"shadersmith/internal/project"
	"shadersmith/internal/version"
)

const noManifestMessage = "no " + project.ManifestName + " found\nplease pass shader files explicitly, e.g.:\n  shadersmith build shaders/main.frag"

// compilerFactory is replaced in tests.
var compilerFactory = backend.Shared

// session holds everything a command needs to build shaders.
type session struct {
	manifest      *project.Manifest
	manifestFound bool
	cache         *cache.Cache
	builder       *build.Builder
	metrics       *metrics.Collector
	timer         *observ.Timer
	reporter      diag.Reporter
	// bag collects diagnostics for machine-readable output; nil for text.
	bag        *diag.Bag
	diagFormat diagfmt.Format
}

// target is one shader to build and where its binary goes.
type target struct {
	source  string
	output  string
	options options.BuildOptions
}

func addCacheFlags(cmd *cobra.Command) {
	cmd.Flags().String("cache-dir", "", "cache directory (overrides "+project.ManifestName+" and $"+project.CacheDirEnv+")")
	cmd.Flags().Bool("no-cache", false, "always compile, never read or write the cache")
	cmd.Flags().String("include-base", "", "base directory for #include <...>")
}

func addOptionFlags(cmd *cobra.Command) {
	cmd.Flags().String("kind", "", "shader kind (vert|frag|comp|geom|tesc|tese|spvasm|rgen|rahit|rchit|rmiss|rint|rcall|task|mesh)")
	cmd.Flags().Uint32("version", 0, "force the GLSL version (e.g. 450)")
	cmd.Flags().Bool("strip", false, "omit debug information")
	cmd.Flags().Bool("debug", false, "keep debug information")
	cmd.Flags().StringArrayP("define", "D", nil, "define a macro (NAME or NAME=value), repeatable")
	cmd.Flags().String("optimize", "", "optimization level (zero|size|performance)")
	cmd.Flags().String("target", "", "target environment (vulkan1_0..vulkan1_4)")
}

func loadManifest() (*project.Manifest, bool, error) {
	path, ok, err := project.FindManifest(".")
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return &project.Manifest{}, false, nil
	}
	m, err := project.LoadManifest(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// newSession loads the manifest and wires the cache, compiler and
// metrics according to the command flags.
func newSession(cmd *cobra.Command, withRuntimeMetrics bool) (*session, error) {
	manifest, found, err := loadManifest()
	if err != nil {
		return nil, err
	}
	s := &session{
		manifest:      manifest,
		manifestFound: found,
		metrics:       metrics.New(withRuntimeMetrics),
	}
	if s.diagFormat, err = diagnosticsFormat(cmd); err != nil {
		return nil, err
	}
	if s.diagFormat == diagfmt.FormatText {
		s.reporter = diag.NewDedupReporter(diag.NewWriterReporter(cmd.ErrOrStderr(), useColor(cmd, os.Stderr)))
	} else {
		s.bag = diag.NewBag(1000)
		s.reporter = diag.NewDedupReporter(diag.BagReporter{Bag: s.bag})
	}
	if timings, _ := cmd.Root().PersistentFlags().GetBool("timings"); timings {
		s.timer = observ.NewTimer()
	}

	cacheDir, err := s.cacheDir(cmd)
	if err != nil {
		return nil, err
	}
	if cacheDir != "" {
		c, err := cache.Open(cacheDir, 0)
		if err != nil {
			// The cache is an optimization; run without it.
			s.reporter.Report(diag.FromError(err))
		}
		s.cache = c
	}

	includeBase := manifest.IncludeBase()
	if flag, _ := cmd.Flags().GetString("include-base"); flag != "" {
		if includeBase, err = filepath.Abs(flag); err != nil {
			return nil, err
		}
	}

	s.builder = build.New(build.Config{
		Adapter: backend.NewAdapter(compilerFactory, includeBase),
		Cache:   s.cache,
		Metrics: s.metrics,
		Timer:   s.timer,
	})
	return s, nil
}

func (s *session) cacheDir(cmd *cobra.Command) (string, error) {
	if off, _ := cmd.Flags().GetBool("no-cache"); off {
		return "", nil
	}
	if dir, _ := cmd.Flags().GetString("cache-dir"); dir != "" {
		return filepath.Abs(dir)
	}
	return s.manifest.CacheDir(), nil
}

// applyOptionFlags overrides o with every option flag the user set.
func applyOptionFlags(cmd *cobra.Command, o options.BuildOptions) (options.BuildOptions, error) {
	flags := cmd.Flags()
	o = o.Clone()
	if flags.Changed("kind") {
		v, _ := flags.GetString("kind")
		k, err := options.ParseKind(v)
		if err != nil {
			return o, err
		}
		o.Kind = k
	}
	if flags.Changed("version") {
		o.Version, _ = flags.GetUint32("version")
	}
	strip, _ := flags.GetBool("strip")
	debug, _ := flags.GetBool("debug")
	if strip && debug {
		return o, fmt.Errorf("--strip and --debug are mutually exclusive")
	}
	if flags.Changed("strip") {
		o.Debug = !strip
	}
	if flags.Changed("debug") {
		o.Debug = debug
	}
	if flags.Changed("optimize") {
		v, _ := flags.GetString("optimize")
		opt, err := options.ParseOptimization(v)
		if err != nil {
			return o, err
		}
		o.Optimization = opt
	}
	if flags.Changed("target") {
		v, _ := flags.GetString("target")
		t, err := options.ParseTarget(v)
		if err != nil {
			return o, err
		}
		o.Target = t
	}
	defines, _ := flags.GetStringArray("define")
	for _, raw := range defines {
		d, err := options.ParseDefine(raw)
		if err != nil {
			return o, err
		}
		o.Definitions = append(o.Definitions, d)
	}
	return o, o.Validate()
}

// targets resolves the shaders a command works on: the explicit file
// arguments, or every [[shader]] of the manifest.
func (s *session) targets(cmd *cobra.Command, args []string) ([]target, error) {
	out, _ := cmd.Flags().GetString("out")
	if out != "" && len(args) != 1 {
		return nil, fmt.Errorf("--out requires exactly one input file")
	}

	if len(args) > 0 {
		profile, err := s.manifest.Profile()
		if err != nil {
			return nil, err
		}
		opts, err := applyOptionFlags(cmd, profile.Default())
		if err != nil {
			return nil, err
		}
		targets := make([]target, 0, len(args))
		for _, arg := range args {
			src, err := filepath.Abs(arg)
			if err != nil {
				return nil, err
			}
			dst := src + ".spv"
			if out != "" {
				if dst, err = filepath.Abs(out); err != nil {
					return nil, err
				}
			}
			targets = append(targets, target{source: src, output: dst, options: opts})
		}
		return targets, nil
	}

	if !s.manifestFound {
		return nil, fmt.Errorf("%s", noManifestMessage)
	}
	if len(s.manifest.Shaders) == 0 {
		return nil, fmt.Errorf("%s: no [[shader]] entries", s.manifest.Path)
	}
	targets := make([]target, 0, len(s.manifest.Shaders))
	for _, e := range s.manifest.Shaders {
		base, err := s.manifest.Options(e)
		if err != nil {
			return nil, err
		}
		opts, err := applyOptionFlags(cmd, base)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target{
			source:  s.manifest.SourcePath(e),
			output:  s.manifest.OutputPath(e),
			options: opts,
		})
	}
	return targets, nil
}

func jobsOf(targets []target) []build.Job {
	jobs := make([]build.Job, len(targets))
	for i, t := range targets {
		jobs[i] = build.Job{Path: t.source, Options: t.options}
	}
	return jobs
}

// displayPath renders path relative to the project root or the working
// directory when it lies below it.
func (s *session) displayPath(path string) string {
	root := s.manifest.Root
	if root == "" {
		root, _ = os.Getwd()
	}
	return formatPathForOutput(root, path)
}

func formatPathForOutput(root, path string) string {
	if root == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	if strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

func diagnosticsFormat(cmd *cobra.Command) (diagfmt.Format, error) {
	v, err := cmd.Root().PersistentFlags().GetString("diagnostics-format")
	if err != nil {
		return diagfmt.FormatText, nil
	}
	return diagfmt.ParseFormat(v)
}

// machineOutput reports whether stdout is reserved for a diagnostics
// document.
func (s *session) machineOutput() bool {
	return s.bag != nil
}

// flushDiagnostics writes the collected diagnostics document to stdout.
func (s *session) flushDiagnostics(cmd *cobra.Command) error {
	if s.bag == nil {
		return nil
	}
	s.bag.Sort()
	opts := diagfmt.JSONOpts{PathMode: diagfmt.PathModeAuto, BaseDir: s.manifest.Root, IncludeNotes: true}
	if opts.BaseDir == "" {
		opts.BaseDir, _ = os.Getwd()
	}
	if s.diagFormat == diagfmt.FormatSARIF {
		return diagfmt.Sarif(cmd.OutOrStdout(), s.bag, opts, diagfmt.SarifRunMeta{
			ToolName:       "shadersmith",
			ToolVersion:    version.Version,
			InvocationArgs: os.Args[1:],
		})
	}
	return diagfmt.JSON(cmd.OutOrStdout(), s.bag, opts)
}

// failReported flushes the diagnostics document and returns errReported.
func (s *session) failReported(cmd *cobra.Command) error {
	if err := s.flushDiagnostics(cmd); err != nil {
		return err
	}
	return errReported
}

func (s *session) printTimings(cmd *cobra.Command) {
	if s.timer == nil {
		return
	}
	fmt.Fprint(cmd.ErrOrStderr(), s.timer.Summary())
}
