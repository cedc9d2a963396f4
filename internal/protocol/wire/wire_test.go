package wire

import (
	"bytes"
	"strings"
	"testing"
)

func TestLengthEncodingsRoundTrip(t *testing.T) {
	w := NewWriter(make([]byte, 256))
	u15 := []uint16{0, 1, 0x7F, 0x80, 0x1234, MaxU15}
	u16 := []uint32{0, 0xFD, 0xFE, 0xFFFF, 0x10000, 1 << 30}
	u30 := []uint32{0, 63, 64, 1<<14 - 1, 1 << 14, 1<<22 - 1, 1 << 22, MaxU30}
	for _, v := range u15 {
		w.U15rb(v)
	}
	for _, v := range u16 {
		w.U16ob(v)
	}
	for _, v := range u30 {
		w.U30rb(v)
	}
	if w.Status() != Success {
		t.Fatalf("unexpected writer status: %s", w.Status())
	}

	r := NewReader(w.Bytes())
	for _, want := range u15 {
		if got := r.U15rb(); got != want {
			t.Fatalf("u15rb mismatch: got=%d want=%d", got, want)
		}
	}
	for _, want := range u16 {
		if got := r.U16ob(); got != want {
			t.Fatalf("u16ob mismatch: got=%d want=%d", got, want)
		}
	}
	for _, want := range u30 {
		if got := r.U30rb(); got != want {
			t.Fatalf("u30rb mismatch: got=%d want=%d", got, want)
		}
	}
	if !r.Exhausted() || r.Failed() {
		t.Fatalf("expected exhausted reader, remaining=%d failed=%v", r.Remaining(), r.Failed())
	}
}

func TestReaderShortReadLatches(t *testing.T) {
	r := NewReader([]byte{0x01})
	if v := r.Uint16(); v != 0 {
		t.Fatalf("expected zero value on short read, got %d", v)
	}
	if r.Status() != IncompleteData {
		t.Fatalf("expected IncompleteData, got %s", r.Status())
	}
	if v := r.Uint8(); v != 0 {
		t.Fatalf("expected latched reader to return zero, got %d", v)
	}
}

func TestReaderBuffer16TruncatedValue(t *testing.T) {
	r := NewReader([]byte{5, 'a', 'b'})
	if b := r.Buffer16(); b != nil {
		t.Fatalf("expected nil buffer, got %q", b)
	}
	if r.Status() != IncompleteData {
		t.Fatalf("expected IncompleteData, got %s", r.Status())
	}
}

func TestWriterBufferTooSmallAndGrow(t *testing.T) {
	w := NewWriter(make([]byte, 4))
	w.Uint16(0xBEEF)
	mark := w.Mark()
	w.Data([]byte("hello"))
	if w.Status() != BufferTooSmall {
		t.Fatalf("expected BufferTooSmall, got %s", w.Status())
	}
	w.Rollback(mark)
	old := w.Grow(make([]byte, 8))
	if len(old) != 4 {
		t.Fatalf("expected old buffer returned, got len=%d", len(old))
	}
	w.Data([]byte("hello"))
	if w.Status() != Success {
		t.Fatalf("expected Success after grow, got %s", w.Status())
	}
	if !bytes.Equal(w.Bytes(), []byte{0xBE, 0xEF, 'h', 'e', 'l', 'l', 'o'}) {
		t.Fatalf("unexpected bytes: %x", w.Bytes())
	}
}

func TestWriterOverflowLatchesFailure(t *testing.T) {
	w := NewWriter(make([]byte, 64))
	w.Uint8(1)
	mark := w.Mark()
	w.U15rb(MaxU15 + 1)
	if w.Status() != Failure {
		t.Fatalf("expected Failure for u15 overflow, got %s", w.Status())
	}
	if w.Pos() != mark {
		t.Fatalf("overflowing write must not advance, pos=%d", w.Pos())
	}
	w.Data([]byte{2})
	if w.Status() != Failure {
		t.Fatalf("failure must stay latched, got %s", w.Status())
	}
	w.Rollback(mark)
	if w.Status() != Success {
		t.Fatalf("expected Success after rollback, got %s", w.Status())
	}

	w.Buffer15(make([]byte, MaxU15+1))
	if w.Status() != Failure {
		t.Fatalf("expected Failure for oversized buffer15, got %s", w.Status())
	}
	w.Rollback(mark)
	w.U30rb(MaxU30 + 1)
	if w.Status() != Failure {
		t.Fatalf("expected Failure for u30 overflow, got %s", w.Status())
	}
	w.Rollback(mark)
	w.U15rb(MaxU15)
	if w.Status() != Success || !bytes.Equal(w.Bytes(), []byte{1, 0xFF, 0xFF}) {
		t.Fatalf("unexpected max u15 encoding %x (%s)", w.Bytes(), w.Status())
	}
}

func TestMinimalIntegers(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 127, 128, -128, -129, 1 << 40, -(1 << 62), 9223372036854775807} {
		b := AppendInt(nil, v)
		got, st := DecodeInt(b)
		if st != Success || got != v {
			t.Fatalf("int %d round trip: got=%d status=%s bytes=%x", v, got, st, b)
		}
	}
	if n := len(AppendInt(nil, 127)); n != 1 {
		t.Fatalf("expected 1 byte for 127, got %d", n)
	}
	if n := len(AppendInt(nil, 128)); n != 2 {
		t.Fatalf("expected 2 bytes for 128, got %d", n)
	}
	for _, v := range []uint64{0, 255, 256, 1 << 63} {
		b := AppendUint(nil, v)
		got, st := DecodeUint(b)
		if st != Success || got != v {
			t.Fatalf("uint %d round trip: got=%d status=%s", v, got, st)
		}
	}
}

func TestStatusStrings(t *testing.T) {
	for s := Success; s <= Failure; s++ {
		if strings.HasPrefix(s.String(), "STATUS(") {
			t.Fatalf("unexpected status name %q for %d", s.String(), int(s))
		}
	}
	if Status(99).String() != "STATUS(99)" {
		t.Fatalf("unexpected fallback name: %s", Status(99).String())
	}
}

func TestParseType(t *testing.T) {
	cases := map[string]Type{
		"REAL":         TypeReal,
		"rmtes_string": TypeRMTES,
		"ascii":        TypeASCII,
		"FIELD_LIST":   TypeFieldList,
	}
	for name, want := range cases {
		got, err := ParseType(name)
		if err != nil || got != want {
			t.Fatalf("ParseType(%q) = %s, %v; want %s", name, got, err, want)
		}
	}
	if _, err := ParseType("NOPE"); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}
