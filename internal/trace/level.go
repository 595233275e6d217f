package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff     Level = iota // no tracing
	LevelError                // recorded in memory, dumped on failure
	LevelCommand              // CLI command boundaries
	LevelBuild                // per-shader builds and reloads
	LevelStage                // cache and compiler stages
	LevelDebug                // everything
)

func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelError:
		return "error"
	case LevelCommand:
		return "command"
	case LevelBuild:
		return "build"
	case LevelStage:
		return "stage"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "off":
		return LevelOff, nil
	case "error":
		return LevelError, nil
	case "command":
		return LevelCommand, nil
	case "build":
		return LevelBuild, nil
	case "stage":
		return LevelStage, nil
	case "debug":
		return LevelDebug, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|command|build|stage|debug)", s)
	}
}

// ShouldEmit reports whether an event of the given scope passes l.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelOff:
		return false
	case LevelError, LevelStage:
		return scope <= ScopeStage
	case LevelCommand:
		return scope <= ScopeCommand
	case LevelBuild:
		return scope <= ScopeBuild
	case LevelDebug:
		return true
	}
	return false
}
