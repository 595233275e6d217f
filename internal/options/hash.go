package options

import (
	"encoding/binary"
	"io"
)

// hashSchema is written first so a layout change never aliases old keys.
const hashSchema byte = 1

// WriteHash feeds the structural hash input of o into w. Fields are
// written in declaration order, strings are length-prefixed and
// definitions keep their stored order, so the encoding is injective.
func (o BuildOptions) WriteHash(w io.Writer) {
	var buf [8]byte
	put32 := func(v uint32) {
		binary.LittleEndian.PutUint32(buf[:4], v)
		_, _ = w.Write(buf[:4])
	}
	putBool := func(b bool) {
		if b {
			_, _ = w.Write([]byte{1})
			return
		}
		_, _ = w.Write([]byte{0})
	}
	putString := func(s string) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
		_, _ = w.Write(buf[:])
		_, _ = io.WriteString(w, s)
	}

	_, _ = w.Write([]byte{hashSchema, byte(o.Kind)})
	put32(o.Version)
	putBool(o.Debug)
	binary.LittleEndian.PutUint64(buf[:], uint64(len(o.Definitions)))
	_, _ = w.Write(buf[:])
	for _, d := range o.Definitions {
		putString(d.Name)
		putBool(d.HasValue)
		putString(d.Value)
	}
	_, _ = w.Write([]byte{byte(o.Optimization)})
	put32(uint32(o.Target))
}
