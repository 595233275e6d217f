package cache

import (
	"encoding/binary"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"shadersmith/internal/options"
)

// Key is the 64-bit fingerprint of a build's inputs.
type Key uint64

// String returns the decimal form used as the entry file name.
func (k Key) String() string {
	return strconv.FormatUint(uint64(k), 10)
}

// Fingerprint hashes the source bytes, the base directory that <...>
// includes resolve against and the structural hash of opts. Callers
// resolve opts.Kind first so an extension-inferred kind keys like an
// explicit one. Strings are length-prefixed so fields never run into
// each other.
func Fingerprint(src []byte, includeBase string, opts options.BuildOptions) Key {
	h := xxhash.New()
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(src)))
	_, _ = h.Write(n[:])
	_, _ = h.Write(src)
	binary.LittleEndian.PutUint64(n[:], uint64(len(includeBase)))
	_, _ = h.Write(n[:])
	_, _ = h.Write([]byte(includeBase))
	opts.WriteHash(h)
	return Key(h.Sum64())
}

// Digest hashes file content for dependency validation.
func Digest(content []byte) uint64 {
	return xxhash.Sum64(content)
}
