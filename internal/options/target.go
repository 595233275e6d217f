package options

import (
	"fmt"
	"strings"
)

// TargetVersion encodes the target environment and its version as one
// ordinal, using the Vulkan API version layout (major<<22 | minor<<12).
type TargetVersion uint32

const (
	Vulkan1_0 TargetVersion = 1 << 22
	Vulkan1_1 TargetVersion = 1<<22 | 1<<12
	Vulkan1_2 TargetVersion = 1<<22 | 2<<12
	Vulkan1_3 TargetVersion = 1<<22 | 3<<12
	Vulkan1_4 TargetVersion = 1<<22 | 4<<12

	OldestTarget = Vulkan1_0
	NewestTarget = Vulkan1_4
)

var targets = []struct {
	v    TargetVersion
	name string
	env  string
}{
	{Vulkan1_0, "vulkan1_0", "vulkan1.0"},
	{Vulkan1_1, "vulkan1_1", "vulkan1.1"},
	{Vulkan1_2, "vulkan1_2", "vulkan1.2"},
	{Vulkan1_3, "vulkan1_3", "vulkan1.3"},
	{Vulkan1_4, "vulkan1_4", "vulkan1.4"},
}

func (t TargetVersion) env() (string, bool) {
	for _, e := range targets {
		if e.v == t {
			return e.env, true
		}
	}
	return "", false
}

// Env returns the --target-env value understood by glslc.
func (t TargetVersion) Env() string {
	env, _ := t.env()
	return env
}

func (t TargetVersion) String() string {
	for _, e := range targets {
		if e.v == t {
			return e.name
		}
	}
	return fmt.Sprintf("TargetVersion(%#x)", uint32(t))
}

// ParseTarget accepts vulkan, vulkan1_N and vulkan1.N.
func ParseTarget(s string) (TargetVersion, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "vulkan" {
		return Vulkan1_0, nil
	}
	for _, e := range targets {
		if s == e.name || s == e.env {
			return e.v, nil
		}
	}
	return 0, fmt.Errorf("unknown target %q (expected: vulkan1_0..vulkan1_4)", s)
}
