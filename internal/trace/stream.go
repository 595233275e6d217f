package trace

import (
	"io"
	"os"
	"sync"
)

// StreamTracer writes each admitted event as soon as it is emitted.
type StreamTracer struct {
	level Level
	out   io.Writer

	mu     sync.Mutex
	enc    encoder
	closed bool
}

func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	t := &StreamTracer{level: level, out: w, enc: encoder{w: w, format: format}}
	_ = t.enc.open()
	return t
}

func (t *StreamTracer) Emit(ev *Event) {
	if !admits(t.level, ev) {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	// A failing trace sink never fails a build.
	_ = t.enc.encode(ev)
}

// Flush forwards to the writer when it buffers.
func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if f, ok := t.out.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close terminates the document and closes the writer. The standard
// streams are left open.
func (t *StreamTracer) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	err := t.enc.close()
	t.mu.Unlock()

	if ferr := t.Flush(); err == nil {
		err = ferr
	}
	if t.out == os.Stderr || t.out == os.Stdout {
		return err
	}
	if c, ok := t.out.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (t *StreamTracer) Level() Level  { return t.level }
func (t *StreamTracer) Enabled() bool { return t.level > LevelOff }
