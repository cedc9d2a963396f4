package omm

import (
	"encoding/binary"
	"encoding/hex"
	"math"
	"strconv"

	"github.com/danmuck/omm/internal/protocol/wire"
	"github.com/danmuck/omm/internal/rmtes"
)

const blankText = "(blank data)"

// scalarBase carries the fields every scalar shares. A zero-length payload on
// the wire decodes as Blank.
type scalarBase struct {
	slotRef
	code DataCode
}

func (s *scalarBase) Code() DataCode { return s.code }
func (s *scalarBase) isData()        {}

func (s *scalarBase) resetScalar() { s.code = NoCode }

// NoData is the value of an entry that carries no payload.
type NoData struct {
	slotRef
}

func (*NoData) DataType() DataType { return TypeNoData }
func (*NoData) Code() DataCode     { return NoCode }
func (*NoData) String() string     { return "NoData" }
func (*NoData) isData()            {}
func (*NoData) reset()             {}

func (*NoData) decode([]byte, decodeCtx) wire.Status { return wire.Success }

func (*NoData) payload(scratch []byte) ([]byte, error) { return scratch[:0], nil }

type Int struct {
	scalarBase
	v int64
}

func NewInt(v int64) *Int { return &Int{v: v} }

func (*Int) DataType() DataType { return TypeInt }
func (d *Int) Int64() int64     { return d.v }

func (d *Int) String() string {
	if d.code == Blank {
		return blankText
	}
	return strconv.FormatInt(d.v, 10)
}

func (d *Int) reset() { d.resetScalar(); d.v = 0 }

func (d *Int) decode(b []byte, _ decodeCtx) wire.Status {
	if len(b) == 0 {
		d.code = Blank
		return wire.Success
	}
	v, st := wire.DecodeInt(b)
	d.v = v
	return st
}

func (d *Int) payload(scratch []byte) ([]byte, error) {
	if d.code == Blank {
		return scratch[:0], nil
	}
	return wire.AppendInt(scratch[:0], d.v), nil
}

type UInt struct {
	scalarBase
	v uint64
}

func NewUInt(v uint64) *UInt { return &UInt{v: v} }

func (*UInt) DataType() DataType { return TypeUInt }
func (d *UInt) Uint64() uint64   { return d.v }

func (d *UInt) String() string {
	if d.code == Blank {
		return blankText
	}
	return strconv.FormatUint(d.v, 10)
}

func (d *UInt) reset() { d.resetScalar(); d.v = 0 }

func (d *UInt) decode(b []byte, _ decodeCtx) wire.Status {
	if len(b) == 0 {
		d.code = Blank
		return wire.Success
	}
	v, st := wire.DecodeUint(b)
	d.v = v
	return st
}

func (d *UInt) payload(scratch []byte) ([]byte, error) {
	if d.code == Blank {
		return scratch[:0], nil
	}
	return wire.AppendUint(scratch[:0], d.v), nil
}

type Float struct {
	scalarBase
	v float32
}

func NewFloat(v float32) *Float { return &Float{v: v} }

func (*Float) DataType() DataType { return TypeFloat }
func (d *Float) Float32() float32 { return d.v }

func (d *Float) String() string {
	if d.code == Blank {
		return blankText
	}
	return strconv.FormatFloat(float64(d.v), 'g', -1, 32)
}

func (d *Float) reset() { d.resetScalar(); d.v = 0 }

func (d *Float) decode(b []byte, _ decodeCtx) wire.Status {
	switch len(b) {
	case 0:
		d.code = Blank
		return wire.Success
	case 4:
		d.v = math.Float32frombits(binary.BigEndian.Uint32(b))
		return wire.Success
	default:
		return wire.IncompleteData
	}
}

func (d *Float) payload(scratch []byte) ([]byte, error) {
	if d.code == Blank {
		return scratch[:0], nil
	}
	return binary.BigEndian.AppendUint32(scratch[:0], math.Float32bits(d.v)), nil
}

type Double struct {
	scalarBase
	v float64
}

func NewDouble(v float64) *Double { return &Double{v: v} }

func (*Double) DataType() DataType { return TypeDouble }
func (d *Double) Float64() float64 { return d.v }

func (d *Double) String() string {
	if d.code == Blank {
		return blankText
	}
	return strconv.FormatFloat(d.v, 'g', -1, 64)
}

func (d *Double) reset() { d.resetScalar(); d.v = 0 }

func (d *Double) decode(b []byte, _ decodeCtx) wire.Status {
	switch len(b) {
	case 0:
		d.code = Blank
		return wire.Success
	case 8:
		d.v = math.Float64frombits(binary.BigEndian.Uint64(b))
		return wire.Success
	default:
		return wire.IncompleteData
	}
}

func (d *Double) payload(scratch []byte) ([]byte, error) {
	if d.code == Blank {
		return scratch[:0], nil
	}
	return binary.BigEndian.AppendUint64(scratch[:0], math.Float64bits(d.v)), nil
}

// Enum is an enumerated value. When it was decoded from a field list with a
// dictionary, Display returns the dictionary text for the value.
type Enum struct {
	scalarBase
	v       uint16
	display string
	hasDisp bool
}

func NewEnum(v uint16) *Enum { return &Enum{v: v} }

func (*Enum) DataType() DataType { return TypeEnum }
func (d *Enum) Uint16() uint16   { return d.v }

func (d *Enum) Display() (string, bool) { return d.display, d.hasDisp }

func (d *Enum) String() string {
	if d.code == Blank {
		return blankText
	}
	if d.hasDisp {
		return d.display
	}
	return strconv.FormatUint(uint64(d.v), 10)
}

func (d *Enum) reset() {
	d.resetScalar()
	d.v = 0
	d.display = ""
	d.hasDisp = false
}

func (d *Enum) decode(b []byte, _ decodeCtx) wire.Status {
	if len(b) == 0 {
		d.code = Blank
		return wire.Success
	}
	if len(b) > 2 {
		return wire.IncompleteData
	}
	v, st := wire.DecodeUint(b)
	d.v = uint16(v)
	return st
}

func (d *Enum) payload(scratch []byte) ([]byte, error) {
	if d.code == Blank {
		return scratch[:0], nil
	}
	return wire.AppendUint(scratch[:0], uint64(d.v)), nil
}

// bytesBase backs every kind whose payload is an uninterpreted byte run.
// Decoded values alias the buffer they were decoded from.
type bytesBase struct {
	scalarBase
	b []byte
}

func (d *bytesBase) Bytes() []byte { return d.b }

func (d *bytesBase) reset() { d.resetScalar(); d.b = nil }

func (d *bytesBase) decode(b []byte, _ decodeCtx) wire.Status {
	if len(b) == 0 {
		d.code = Blank
		return wire.Success
	}
	d.b = b
	return wire.Success
}

func (d *bytesBase) payload(scratch []byte) ([]byte, error) {
	if d.code == Blank {
		return scratch[:0], nil
	}
	return append(scratch[:0], d.b...), nil
}

func (d *bytesBase) text() string {
	if d.code == Blank {
		return blankText
	}
	return string(d.b)
}

func (d *bytesBase) hexText() string {
	if d.code == Blank {
		return blankText
	}
	return hex.EncodeToString(d.b)
}

type Buffer struct{ bytesBase }

func NewBuffer(b []byte) *Buffer { return &Buffer{bytesBase{b: b}} }

func (*Buffer) DataType() DataType { return TypeBuffer }
func (d *Buffer) String() string   { return d.hexText() }

type Ascii struct{ bytesBase }

func NewAscii(s string) *Ascii { return &Ascii{bytesBase{b: []byte(s)}} }

func (*Ascii) DataType() DataType { return TypeAscii }
func (d *Ascii) String() string   { return d.text() }

type Utf8 struct{ bytesBase }

func NewUtf8(s string) *Utf8 { return &Utf8{bytesBase{b: []byte(s)}} }

func (*Utf8) DataType() DataType { return TypeUtf8 }
func (d *Utf8) String() string   { return d.text() }

// Rmtes holds RMTES encoded text. String renders it; HasPartialUpdate reports
// whether it must be applied to an rmtes.Cache rather than displayed alone.
type Rmtes struct{ bytesBase }

func NewRmtes(b []byte) *Rmtes { return &Rmtes{bytesBase{b: b}} }

func (*Rmtes) DataType() DataType { return TypeRmtes }

func (d *Rmtes) HasPartialUpdate() bool { return rmtes.HasPartialUpdate(d.b) }

// ApplyTo merges the value into c. Blank values clear the cache.
func (d *Rmtes) ApplyTo(c *rmtes.Cache) error {
	if d.code == Blank {
		c.Clear()
		return nil
	}
	return c.Apply(d.b)
}

func (d *Rmtes) String() string {
	if d.code == Blank {
		return blankText
	}
	return rmtes.Render(d.b)
}

type Opaque struct{ bytesBase }

func NewOpaque(b []byte) *Opaque { return &Opaque{bytesBase{b: b}} }

func (*Opaque) DataType() DataType { return TypeOpaque }
func (d *Opaque) String() string   { return d.hexText() }

type Xml struct{ bytesBase }

func NewXml(s string) *Xml { return &Xml{bytesBase{b: []byte(s)}} }

func (*Xml) DataType() DataType { return TypeXml }
func (d *Xml) String() string   { return d.text() }

type AnsiPage struct{ bytesBase }

func NewAnsiPage(b []byte) *AnsiPage { return &AnsiPage{bytesBase{b: b}} }

func (*AnsiPage) DataType() DataType { return TypeAnsiPage }
func (d *AnsiPage) String() string   { return d.hexText() }

// NewBlank returns a blank value of scalar type t.
func NewBlank(t DataType) (Data, error) {
	var d interface {
		Data
		setBlank()
	}
	switch t {
	case TypeInt:
		d = &Int{}
	case TypeUInt:
		d = &UInt{}
	case TypeFloat:
		d = &Float{}
	case TypeDouble:
		d = &Double{}
	case TypeReal:
		d = &Real{}
	case TypeDate:
		d = &Date{}
	case TypeTime:
		d = &Time{}
	case TypeDateTime:
		d = &DateTime{}
	case TypeQos:
		d = &Qos{}
	case TypeState:
		d = &State{}
	case TypeEnum:
		d = &Enum{}
	case TypeArray:
		d = &Array{}
	case TypeBuffer:
		d = &Buffer{}
	case TypeAscii:
		d = &Ascii{}
	case TypeUtf8:
		d = &Utf8{}
	case TypeRmtes:
		d = &Rmtes{}
	case TypeOpaque:
		d = &Opaque{}
	case TypeXml:
		d = &Xml{}
	case TypeAnsiPage:
		d = &AnsiPage{}
	default:
		return nil, invalidUsage("blank %s: only scalar types can be blank", t)
	}
	d.setBlank()
	return d, nil
}

func (s *scalarBase) setBlank() { s.code = Blank }
