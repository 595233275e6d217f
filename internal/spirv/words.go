package spirv

import "encoding/binary"

// Bytes serializes words in native byte order.
func Bytes(words []uint32) []byte {
	out := make([]byte, len(words)*4)
	for i, w := range words {
		binary.NativeEndian.PutUint32(out[i*4:], w)
	}
	return out
}

// Words decodes native-endian bytes. It panics when len(b) is not a
// multiple of four; callers validate lengths first.
func Words(b []byte) []uint32 {
	if len(b)%4 != 0 {
		panic("spirv: byte length is not a multiple of 4")
	}
	out := make([]uint32, len(b)/4)
	for i := range out {
		out[i] = binary.NativeEndian.Uint32(b[i*4:])
	}
	return out
}
