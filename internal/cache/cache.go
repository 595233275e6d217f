// Package cache persists compiled shader binaries keyed by the
// fingerprint of their inputs.
//
// Entries are flat files named by the decimal fingerprint and hold the
// native-endian words of the binary. A msgpack sidecar <key>.deps lists
// every file the build read with a content digest, so a hit can return
// the full dependency list and is rejected once an include changed.
// A bounded in-memory LRU sits in front of the directory.
//
// A nil *Cache is valid and disabled: every lookup misses and every
// store is a no-op.
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vmihailenco/msgpack/v5"

	"shadersmith/internal/diag"
	"shadersmith/internal/spirv"
)

// depsSchemaVersion is bumped whenever the sidecar layout changes.
const depsSchemaVersion uint16 = 1

// errNotModule marks an entry file that does not hold a SPIR-V module.
var errNotModule = errors.New("entry is not a SPIR-V module")

// DefaultMemoryEntries bounds the in-memory tier.
const DefaultMemoryEntries = 256

// Status is the outcome of a lookup.
type Status uint8

const (
	Miss Status = iota
	Hit
	// Stale means an entry exists but an include changed since it was
	// stored, or it was stored for a different primary path.
	Stale
)

func (s Status) String() string {
	switch s {
	case Hit:
		return "hit"
	case Stale:
		return "stale"
	}
	return "miss"
}

// Entry is a cached build.
type Entry struct {
	Words []uint32
	// Sources is the dependency list, primary path first.
	Sources []string
}

// Dependency is one recorded input of a cached build.
type Dependency struct {
	Path   string `msgpack:"path"`
	Digest uint64 `msgpack:"digest"`
}

type depsPayload struct {
	Schema  uint16       `msgpack:"schema"`
	Primary string       `msgpack:"primary"`
	Sources []Dependency `msgpack:"sources"`
}

type memEntry struct {
	words []uint32
	deps  *depsPayload
}

// IOError wraps a filesystem failure of the cache. Callers treat it as
// a miss or a skipped store.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("cache %s %s: %v", e.Op, e.Path, e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Diagnostic() diag.Diagnostic {
	code := diag.IOCacheRead
	switch e.Op {
	case "write":
		code = diag.IOCacheWrite
	case "decode":
		code = diag.IOCacheCorrupt
	}
	return diag.New(diag.SevWarning, code, e.Path, e.Error())
}

// Cache is safe for concurrent use.
type Cache struct {
	mu  sync.RWMutex
	dir string
	mem *lru.Cache[Key, memEntry]
}

// Open returns a cache rooted at dir, creating it if needed. An empty dir
// or an unusable directory yields a nil (disabled) cache; the error
// explains why the cache is off.
func Open(dir string, memEntries int) (*Cache, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &IOError{Op: "open", Path: dir, Err: err}
	}
	if memEntries <= 0 {
		memEntries = DefaultMemoryEntries
	}
	mem, err := lru.New[Key, memEntry](memEntries)
	if err != nil {
		return nil, fmt.Errorf("cache memory tier: %w", err)
	}
	return &Cache{dir: dir, mem: mem}, nil
}

// Dir returns the cache directory, or "" for a disabled cache.
func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *Cache) pathFor(key Key) string {
	return filepath.Join(c.dir, key.String())
}

func (c *Cache) depsPathFor(key Key) string {
	return c.pathFor(key) + ".deps"
}

// Lookup returns the entry for key built from primary. A non-nil error
// reports an I/O failure or an entry that is not a module (empty, or
// without the SPIR-V magic number); the status is then Miss and the next
// Store overwrites it.
//
// It panics if the stored entry is not a whole number of words, since
// entries are only ever written atomically.
func (c *Cache) Lookup(key Key, primary string) (Entry, Status, error) {
	if c == nil {
		return Entry{}, Miss, nil
	}

	if m, ok := c.mem.Get(key); ok {
		sources, status := validate(m.deps, primary)
		if status == Hit {
			return Entry{Words: append([]uint32(nil), m.words...), Sources: sources}, Hit, nil
		}
		return Entry{}, status, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	p := c.pathFor(key)
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Entry{}, Miss, nil
		}
		return Entry{}, Miss, &IOError{Op: "read", Path: p, Err: err}
	}
	if _, ok := spirv.WordCount(len(data)); !ok {
		panic(fmt.Sprintf("cache: entry %s has %d bytes, not a whole number of words", p, len(data)))
	}
	words := spirv.Words(data)
	if len(words) == 0 || words[0] != spirv.MagicNumber {
		return Entry{}, Miss, &IOError{Op: "decode", Path: p, Err: errNotModule}
	}

	deps, depsErr := c.readDeps(key)
	sources, status := validate(deps, primary)
	if status != Hit {
		return Entry{}, status, nil
	}
	c.mem.Add(key, memEntry{words: words, deps: deps})
	// A missing sidecar is not an error; a corrupt one is reported but
	// the hit stands with the primary path alone.
	return Entry{Words: append([]uint32(nil), words...), Sources: sources}, Hit, depsErr
}

func (c *Cache) readDeps(key Key) (*depsPayload, error) {
	p := c.depsPathFor(key)
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &IOError{Op: "read", Path: p, Err: err}
	}
	var payload depsPayload
	if err := msgpack.Unmarshal(data, &payload); err != nil {
		return nil, &IOError{Op: "decode", Path: p, Err: err}
	}
	if payload.Schema != depsSchemaVersion {
		return nil, nil
	}
	return &payload, nil
}

// validate rebuilds the dependency list of a cached entry. Without a
// sidecar the list collapses to the primary path.
func validate(deps *depsPayload, primary string) ([]string, Status) {
	if deps == nil || len(deps.Sources) == 0 {
		return []string{primary}, Hit
	}
	includes := deps.Sources[1:]
	if len(includes) > 0 && deps.Primary != primary {
		// Relative includes of another primary resolve elsewhere.
		return nil, Stale
	}
	sources := make([]string, 0, len(deps.Sources))
	sources = append(sources, primary)
	checked := make(map[string]bool, len(includes))
	for _, d := range includes {
		sources = append(sources, d.Path)
		if checked[d.Path] {
			continue
		}
		data, err := os.ReadFile(d.Path)
		if err != nil || Digest(data) != d.Digest {
			return nil, Stale
		}
		checked[d.Path] = true
	}
	return sources, Hit
}

// Store persists words and the dependency list under key. Every error is
// an *IOError; callers may ignore it.
func (c *Cache) Store(key Key, words []uint32, sources []string) error {
	if c == nil || len(words) == 0 {
		return nil
	}
	deps, err := snapshot(sources)
	if err != nil {
		return err
	}
	words = append([]uint32(nil), words...)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return &IOError{Op: "write", Path: c.dir, Err: err}
	}
	if err := writeAtomic(c.pathFor(key), spirv.Bytes(words)); err != nil {
		return err
	}
	if deps != nil {
		data, err := msgpack.Marshal(deps)
		if err != nil {
			return &IOError{Op: "write", Path: c.depsPathFor(key), Err: err}
		}
		if err := writeAtomic(c.depsPathFor(key), data); err != nil {
			return err
		}
	}
	c.mem.Add(key, memEntry{words: words, deps: deps})
	return nil
}

func snapshot(sources []string) (*depsPayload, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	payload := &depsPayload{
		Schema:  depsSchemaVersion,
		Primary: sources[0],
		Sources: make([]Dependency, len(sources)),
	}
	payload.Sources[0] = Dependency{Path: sources[0]}
	digests := make(map[string]uint64, len(sources))
	for i, path := range sources[1:] {
		d, ok := digests[path]
		if !ok {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, &IOError{Op: "write", Path: path, Err: err}
			}
			d = Digest(data)
			digests[path] = d
		}
		payload.Sources[i+1] = Dependency{Path: path, Digest: d}
	}
	return payload, nil
}

func writeAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "tmp-*")
	if err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// Clear removes every entry and the directory itself.
func (c *Cache) Clear() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem.Purge()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return &IOError{Op: "clear", Path: c.dir, Err: err}
	}
	if err := os.RemoveAll(old); err != nil {
		return &IOError{Op: "clear", Path: old, Err: err}
	}
	return nil
}

// Len counts the entries on disk.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	ents, err := os.ReadDir(c.dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range ents {
		name := e.Name()
		if e.Type().IsRegular() && !strings.HasSuffix(name, ".deps") && !strings.HasPrefix(name, "tmp-") {
			n++
		}
	}
	return n
}
