// Package reflection extracts the specialization-constant table from a
// compiled shader binary.
package reflection

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"shadersmith/internal/diag"
	"shadersmith/internal/spirv"
)

// ErrNoEntryPoint is returned for binaries that declare no entry point.
var ErrNoEntryPoint = errors.New("binary declares no entry point")

// Entry is one specialization constant. Default holds the value baked
// into the binary, used when the host supplies none.
type Entry struct {
	SpecID  uint32
	Kind    Kind
	Default SpecializationConstant
}

// Table is sorted ascending by SpecID. Ids need not be contiguous, and a
// constant the compiler optimized away is absent.
type Table struct {
	EntryPoint string
	Entries    []Entry
}

// TypeError reports a specialization constant whose scalar type has no Kind.
type TypeError struct {
	SpecID uint32
	Type   spirv.ScalarType
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("specialization constant %d has unsupported type %s", e.SpecID, e.Type)
}

func (e *TypeError) Diagnostic() diag.Diagnostic {
	return diag.NewError(diag.RflUnsupportedType, "", e.Error())
}

// Extract reflects over the first entry point of words. Further entry
// points are ignored.
func Extract(words []uint32) (Table, error) {
	mod, err := spirv.Parse(words)
	if err != nil {
		return Table{}, fmt.Errorf("reflect: %w", err)
	}
	eps := mod.EntryPoints()
	if len(eps) == 0 {
		return Table{}, fmt.Errorf("reflect: %w", ErrNoEntryPoint)
	}
	ep := eps[0]

	t := Table{EntryPoint: ep.Name}
	for _, v := range ep.Variables {
		if v.Kind != spirv.VarSpecConstant {
			continue
		}
		k, ok := KindOf(v.Type)
		if !ok {
			return Table{}, &TypeError{SpecID: v.SpecID, Type: v.Type}
		}
		def := fromWords(k, v.Default)
		if k == KindBool {
			def = Bool(v.DefaultBool)
		}
		t.Entries = append(t.Entries, Entry{SpecID: v.SpecID, Kind: k, Default: def})
	}
	slices.SortStableFunc(t.Entries, func(a, b Entry) int {
		switch {
		case a.SpecID < b.SpecID:
			return -1
		case a.SpecID > b.SpecID:
			return 1
		}
		return 0
	})
	return t, nil
}

// Lookup returns the entry for id.
func (t Table) Lookup(id uint32) (Entry, bool) {
	i, ok := slices.BinarySearchFunc(t.Entries, id, func(e Entry, id uint32) int {
		switch {
		case e.SpecID < id:
			return -1
		case e.SpecID > id:
			return 1
		}
		return 0
	})
	if !ok {
		return Entry{}, false
	}
	return t.Entries[i], true
}

// Check verifies that c may be bound to id.
func (t Table) Check(id uint32, c SpecializationConstant) error {
	e, ok := t.Lookup(id)
	if !ok {
		return fmt.Errorf("no specialization constant with id %d", id)
	}
	if e.Kind != c.Kind() {
		return fmt.Errorf("specialization constant %d is %s, got %s", id, e.Kind, c.Kind())
	}
	return nil
}

// WriteText renders the table as aligned columns.
func (t Table) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "entry point: %s\n", t.EntryPoint)
	fmt.Fprintln(tw, "ID\tKIND\tDEFAULT")
	for _, e := range t.Entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", e.SpecID, e.Kind, e.Default)
	}
	return tw.Flush()
}

type jsonEntry struct {
	ID      uint32 `json:"id"`
	Kind    string `json:"kind"`
	Default string `json:"default"`
}

type jsonTable struct {
	EntryPoint string      `json:"entry_point"`
	Constants  []jsonEntry `json:"specialization_constants"`
}

func (t Table) MarshalJSON() ([]byte, error) {
	out := jsonTable{EntryPoint: t.EntryPoint, Constants: make([]jsonEntry, len(t.Entries))}
	for i, e := range t.Entries {
		out.Constants[i] = jsonEntry{ID: e.SpecID, Kind: e.Kind.String(), Default: e.Default.String()}
	}
	return json.Marshal(out)
}
