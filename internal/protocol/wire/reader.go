package wire

import "encoding/binary"

// Reader is a position-tracking cursor over one encoded extent.
//
// Reads past the end of the extent return zero values and latch the reader into a
// failed state; callers check Status once after a group of reads.
type Reader struct {
	buf    []byte
	pos    int
	failed bool
}

// NewReader returns a cursor over b.
func NewReader(b []byte) Reader {
	return Reader{buf: b}
}

// Reset points the cursor at b and clears the failed state.
func (r *Reader) Reset(b []byte) {
	r.buf = b
	r.pos = 0
	r.failed = false
}

// Status returns IncompleteData once any read ran past the extent.
func (r *Reader) Status() Status {
	if r.failed {
		return IncompleteData
	}
	return Success
}

// Failed reports whether a read ran past the extent.
func (r *Reader) Failed() bool { return r.failed }

// Pos returns the offset of the next unread byte.
func (r *Reader) Pos() int { return r.pos }

// Len returns the size of the extent.
func (r *Reader) Len() int { return len(r.buf) }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	if r.pos >= len(r.buf) {
		return 0
	}
	return len(r.buf) - r.pos
}

// Exhausted reports whether the extent has been consumed.
func (r *Reader) Exhausted() bool {
	return r.Remaining() == 0
}

func (r *Reader) short(n int) bool {
	if r.failed || n < 0 || len(r.buf)-r.pos < n {
		r.failed = true
		return true
	}
	return false
}

func (r *Reader) Uint8() uint8 {
	if r.short(1) {
		return 0
	}
	v := r.buf[r.pos]
	r.pos++
	return v
}

func (r *Reader) Int16() int16 {
	return int16(r.Uint16())
}

func (r *Reader) Uint16() uint16 {
	if r.short(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v
}

func (r *Reader) Int32() int32 {
	return int32(r.Uint32())
}

func (r *Reader) Uint32() uint32 {
	if r.short(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

func (r *Reader) Uint64() uint64 {
	if r.short(8) {
		return 0
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v
}

// U15rb reads a 1 or 2 byte length; the high bit of the first byte selects the
// two byte form.
func (r *Reader) U15rb() uint16 {
	b := r.Uint8()
	if b&0x80 == 0 {
		return uint16(b)
	}
	lo := r.Uint8()
	return uint16(b&0x7F)<<8 | uint16(lo)
}

// U16ob reads a 1, 3 or 5 byte length.
func (r *Reader) U16ob() uint32 {
	b := r.Uint8()
	switch b {
	case 0xFE:
		return uint32(r.Uint16())
	case 0xFF:
		return r.Uint32()
	default:
		return uint32(b)
	}
}

// U30rb reads a 1-4 byte value whose top two bits give the extra byte count.
func (r *Reader) U30rb() uint32 {
	b := r.Uint8()
	extra := int(b >> 6)
	v := uint32(b & 0x3F)
	for i := 0; i < extra; i++ {
		v = v<<8 | uint32(r.Uint8())
	}
	return v
}

// Bytes returns the next n bytes without copying.
func (r *Reader) Bytes(n int) []byte {
	if r.short(n) {
		return nil
	}
	v := r.buf[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return v
}

// Buffer15 reads a u15rb length-prefixed byte run.
func (r *Reader) Buffer15() []byte {
	n := r.U15rb()
	if r.failed {
		return nil
	}
	return r.Bytes(int(n))
}

// Buffer16 reads a u16ob length-prefixed byte run.
func (r *Reader) Buffer16() []byte {
	n := r.U16ob()
	if r.failed {
		return nil
	}
	return r.Bytes(int(n))
}

// Rest returns every unread byte and consumes them.
func (r *Reader) Rest() []byte {
	if r.failed {
		return nil
	}
	v := r.buf[r.pos:len(r.buf):len(r.buf)]
	r.pos = len(r.buf)
	return v
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) {
	if r.short(n) {
		return
	}
	r.pos += n
}
