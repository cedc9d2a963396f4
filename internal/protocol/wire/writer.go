package wire

import "encoding/binary"

// Writer fills a fixed-capacity buffer. A write that does not fit latches the
// writer into the BufferTooSmall state and writes nothing; the owner rolls back
// to a mark, swaps in a larger buffer with Grow and retries. A value too large
// for its wire encoding latches Failure instead, which no larger buffer cures.
type Writer struct {
	buf      []byte
	pos      int
	full     bool
	overflow bool
}

// NewWriter returns a writer over the full capacity of buf.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf[:cap(buf)]}
}

// Reset points the writer at buf and discards written content.
func (w *Writer) Reset(buf []byte) {
	w.buf = buf[:cap(buf)]
	w.pos = 0
	w.full = false
	w.overflow = false
}

// Status returns Failure once a value overflowed its encoding and
// BufferTooSmall once a write did not fit.
func (w *Writer) Status() Status {
	if w.overflow {
		return Failure
	}
	if w.full {
		return BufferTooSmall
	}
	return Success
}

// Pos returns the number of bytes written.
func (w *Writer) Pos() int { return w.pos }

// Cap returns the capacity of the current buffer.
func (w *Writer) Cap() int { return len(w.buf) }

// Mark returns a position Rollback can return to.
func (w *Writer) Mark() int { return w.pos }

// Rollback truncates to mark and clears the latched state.
func (w *Writer) Rollback(mark int) {
	w.pos = mark
	w.full = false
	w.overflow = false
}

// Grow copies the written bytes into buf, which must be larger than the current
// buffer, and returns the buffer that was replaced.
func (w *Writer) Grow(buf []byte) []byte {
	old := w.buf
	w.buf = buf[:cap(buf)]
	copy(w.buf, old[:w.pos])
	return old
}

// Bytes returns the written bytes. The slice aliases the writer's buffer.
func (w *Writer) Bytes() []byte {
	return w.buf[:w.pos:w.pos]
}

// Detach returns the underlying buffer trimmed to the written bytes and leaves
// the writer empty.
func (w *Writer) Detach() []byte {
	out := w.buf[:w.pos]
	w.buf = nil
	w.pos = 0
	w.full = false
	w.overflow = false
	return out
}

// Fail latches Failure for a value the caller's own framing cannot carry.
func (w *Writer) Fail() { w.overflow = true }

func (w *Writer) room(n int) bool {
	if w.full || len(w.buf)-w.pos < n {
		w.full = true
		return false
	}
	return true
}

func (w *Writer) Uint8(v uint8) {
	if !w.room(1) {
		return
	}
	w.buf[w.pos] = v
	w.pos++
}

func (w *Writer) Int16(v int16) { w.Uint16(uint16(v)) }

func (w *Writer) Uint16(v uint16) {
	if !w.room(2) {
		return
	}
	binary.BigEndian.PutUint16(w.buf[w.pos:], v)
	w.pos += 2
}

func (w *Writer) Int32(v int32) { w.Uint32(uint32(v)) }

func (w *Writer) Uint32(v uint32) {
	if !w.room(4) {
		return
	}
	binary.BigEndian.PutUint32(w.buf[w.pos:], v)
	w.pos += 4
}

func (w *Writer) Uint64(v uint64) {
	if !w.room(8) {
		return
	}
	binary.BigEndian.PutUint64(w.buf[w.pos:], v)
	w.pos += 8
}

// PutUint16At overwrites two bytes at off, which must already be written.
func (w *Writer) PutUint16At(off int, v uint16) {
	binary.BigEndian.PutUint16(w.buf[off:], v)
}

// Data writes b verbatim.
func (w *Writer) Data(b []byte) {
	if !w.room(len(b)) {
		return
	}
	w.pos += copy(w.buf[w.pos:], b)
}

func (w *Writer) U15rb(v uint16) {
	if v > MaxU15 {
		w.overflow = true
		return
	}
	if v < 0x80 {
		w.Uint8(uint8(v))
		return
	}
	w.Uint16(v | 0x8000)
}

func (w *Writer) U16ob(v uint32) {
	switch {
	case v < 0xFE:
		w.Uint8(uint8(v))
	case v <= 0xFFFF:
		if !w.room(3) {
			return
		}
		w.Uint8(0xFE)
		w.Uint16(uint16(v))
	default:
		if !w.room(5) {
			return
		}
		w.Uint8(0xFF)
		w.Uint32(v)
	}
}

func (w *Writer) U30rb(v uint32) {
	switch {
	case v > MaxU30:
		w.overflow = true
	case v < 1<<6:
		w.Uint8(uint8(v))
	case v < 1<<14:
		w.Uint16(uint16(v) | 0x4000)
	case v < 1<<22:
		if !w.room(3) {
			return
		}
		w.Uint8(uint8(v>>16) | 0x80)
		w.Uint16(uint16(v))
	default:
		w.Uint32(v&0x3FFFFFFF | 0xC0000000)
	}
}

// Buffer15 writes a u15rb length-prefixed byte run.
func (w *Writer) Buffer15(b []byte) {
	if len(b) > MaxU15 {
		w.overflow = true
		return
	}
	w.U15rb(uint16(len(b)))
	w.Data(b)
}

// Buffer16 writes a u16ob length-prefixed byte run.
func (w *Writer) Buffer16(b []byte) {
	w.U16ob(uint32(len(b)))
	w.Data(b)
}

// MaxU15 is the largest value U15rb can carry.
const MaxU15 = 0x7FFF

// MaxU30 is the largest value U30rb can carry.
const MaxU30 = 0x3FFFFFFF
