package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Inclusion
	IncInfo       Code = 1000
	IncUnresolved Code = 1001
	IncUnreadable Code = 1002
	IncTooDeep    Code = 1003

	// Compilation
	CmpInfo            Code = 2000
	CmpError           Code = 2001
	CmpWarning         Code = 2002
	CmpBackendMissing  Code = 2003
	CmpMalformedOutput Code = 2004
	CmpInvalidOptions  Code = 2005

	// Reflection
	RflInfo            Code = 3000
	RflUnsupportedType Code = 3001
	RflMalformedBinary Code = 3002
	RflNoEntryPoint    Code = 3003

	// Cache and filesystem
	IOInfo         Code = 4000
	IOCacheRead    Code = 4001
	IOCacheWrite   Code = 4002
	IOLoadFile     Code = 4003
	IOCacheCorrupt Code = 4004
	IOWriteOutput  Code = 4005

	// Hot reload
	HotInfo         Code = 5000
	HotReloadFailed Code = 5001
	HotWatchFailed  Code = 5002
)

var codeDescription = map[Code]string{
	UnknownCode:        "Unknown error",
	IncInfo:            "Include information",
	IncUnresolved:      "Include target could not be resolved",
	IncUnreadable:      "Include target could not be read",
	IncTooDeep:         "Include nesting too deep",
	CmpInfo:            "Compilation information",
	CmpError:           "Shader compilation failed",
	CmpWarning:         "Compiler warning treated as error",
	CmpBackendMissing:  "Compiler backend unavailable",
	CmpMalformedOutput: "Compiler produced malformed output",
	CmpInvalidOptions:  "Invalid build options",
	RflInfo:            "Reflection information",
	RflUnsupportedType: "Unsupported specialization constant type",
	RflMalformedBinary: "Malformed SPIR-V binary",
	RflNoEntryPoint:    "SPIR-V module has no entry point",
	IOInfo:             "I/O information",
	IOCacheRead:        "Cache read failed",
	IOCacheWrite:       "Cache write failed",
	IOLoadFile:         "I/O load file error",
	IOCacheCorrupt:     "Cache entry is corrupt",
	IOWriteOutput:      "Output file could not be written",
	HotInfo:            "Hot reload information",
	HotReloadFailed:    "Shader recompilation failed",
	HotWatchFailed:     "File watch registration failed",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("INC%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("CMP%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("RFL%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("HOT%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
