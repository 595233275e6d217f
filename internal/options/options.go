// Package options defines the shader build configuration and its
// deterministic defaults.
//
// A BuildOptions value is compared field by field and hashed in a fixed
// order, so two equal values always describe the same compilation.
package options

import (
	"fmt"
	"strings"
)

// Optimization selects the compiler optimization level.
type Optimization uint8

const (
	OptimizePerformance Optimization = iota
	OptimizeZero
	OptimizeSize
)

func (o Optimization) String() string {
	switch o {
	case OptimizeZero:
		return "zero"
	case OptimizeSize:
		return "size"
	case OptimizePerformance:
		return "performance"
	}
	return fmt.Sprintf("Optimization(%d)", o)
}

// ParseOptimization accepts zero, size and performance.
func ParseOptimization(s string) (Optimization, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "zero":
		return OptimizeZero, nil
	case "size":
		return OptimizeSize, nil
	case "performance":
		return OptimizePerformance, nil
	}
	return OptimizePerformance, fmt.Errorf("unknown optimization level %q (expected: zero|size|performance)", s)
}

// Define is one preprocessor macro definition. HasValue distinguishes
// "-DNAME" from "-DNAME=".
type Define struct {
	Name     string
	Value    string
	HasValue bool
}

func (d Define) String() string {
	if !d.HasValue {
		return d.Name
	}
	return d.Name + "=" + d.Value
}

// ParseDefine parses NAME or NAME=value.
func ParseDefine(s string) (Define, error) {
	name, value, hasValue := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if name == "" {
		return Define{}, fmt.Errorf("empty macro name in %q", s)
	}
	if strings.ContainsAny(name, " \t") {
		return Define{}, fmt.Errorf("macro name %q contains whitespace", name)
	}
	return Define{Name: name, Value: value, HasValue: hasValue}, nil
}

// BuildOptions is the immutable configuration of a single shader build.
type BuildOptions struct {
	// Kind forces the shader kind. KindUnspecified defers to the file
	// extension and then to the compiler's pragma detection.
	Kind Kind
	// Version forces the language version (e.g. 450). Zero leaves the
	// #version directive in the source authoritative.
	Version uint32
	// Debug keeps debug information in the binary.
	Debug bool
	// Definitions are applied in order.
	Definitions  []Define
	Optimization Optimization
	Target       TargetVersion
}

// Profile holds the process-level switches that shape Default.
type Profile struct {
	// Strip drops debug info by default.
	Strip bool
	// OptimizeZero makes unoptimized output the default.
	OptimizeZero bool
	// Target overrides the default target; zero keeps the oldest one.
	Target TargetVersion
}

// Default returns the defaults for the zero Profile: debug info on,
// performance optimization and the oldest supported target.
func Default() BuildOptions {
	return Profile{}.Default()
}

// Default returns the defaults shaped by p.
func (p Profile) Default() BuildOptions {
	o := BuildOptions{
		Debug:        !p.Strip,
		Optimization: OptimizePerformance,
		Target:       OldestTarget,
	}
	if p.OptimizeZero {
		o.Optimization = OptimizeZero
	}
	if p.Target != 0 {
		o.Target = p.Target
	}
	return o
}

// Equal reports field-wise equality, including definition order.
func (o BuildOptions) Equal(other BuildOptions) bool {
	if o.Kind != other.Kind ||
		o.Version != other.Version ||
		o.Debug != other.Debug ||
		o.Optimization != other.Optimization ||
		o.Target != other.Target ||
		len(o.Definitions) != len(other.Definitions) {
		return false
	}
	for i := range o.Definitions {
		if o.Definitions[i] != other.Definitions[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy that shares no memory with o.
func (o BuildOptions) Clone() BuildOptions {
	if o.Definitions != nil {
		o.Definitions = append([]Define(nil), o.Definitions...)
	}
	return o
}

// WithDefine returns a copy with d appended.
func (o BuildOptions) WithDefine(d Define) BuildOptions {
	c := o.Clone()
	c.Definitions = append(c.Definitions, d)
	return c
}

// ResolveKind applies the kind resolution order for a source at path:
// explicit option, then file extension. The second result is false when
// the compiler has to detect the kind itself.
func (o BuildOptions) ResolveKind(path string) (Kind, bool) {
	if o.Kind != KindUnspecified {
		return o.Kind, true
	}
	return PathKind(path)
}

// Validate rejects values that cannot be handed to a compiler.
func (o BuildOptions) Validate() error {
	if !o.Kind.Valid() {
		return fmt.Errorf("invalid shader kind %d", o.Kind)
	}
	if o.Optimization > OptimizeSize {
		return fmt.Errorf("invalid optimization level %d", o.Optimization)
	}
	if _, ok := o.Target.env(); !ok {
		return fmt.Errorf("unsupported target version %#x", uint32(o.Target))
	}
	for _, d := range o.Definitions {
		if d.Name == "" {
			return fmt.Errorf("empty macro name")
		}
	}
	return nil
}

func (o BuildOptions) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "kind=%s", o.Kind)
	if o.Version != 0 {
		fmt.Fprintf(&sb, " version=%d", o.Version)
	}
	fmt.Fprintf(&sb, " debug=%t optimize=%s target=%s", o.Debug, o.Optimization, o.Target)
	for _, d := range o.Definitions {
		sb.WriteString(" -D")
		sb.WriteString(d.String())
	}
	return sb.String()
}
