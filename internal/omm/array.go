package omm

import (
	"strings"

	"github.com/danmuck/omm/internal/protocol/wire"
)

// Array is a run of primitive values of one type. Items on the wire are either
// all the same fixed width or each length-prefixed; encoding always writes the
// length-prefixed form.
type Array struct {
	scalarBase
	itemType wire.Type
	width    uint8
	items    []pooled
	added    []Data
	buf      []byte
}

// NewArray returns an empty array of items of type t.
func NewArray(t DataType) (*Array, error) {
	if !t.Scalar() || t == TypeArray || !t.Wire().Primitive() {
		return nil, invalidUsage("array of %s: items must be a primitive scalar type", t)
	}
	return &Array{itemType: t.Wire()}, nil
}

func (*Array) DataType() DataType { return TypeArray }

func (a *Array) ItemType() DataType {
	dt, _ := DataTypeOf(a.itemType)
	return dt
}

// FixedWidth returns the item width of a decoded array, or 0 when items are
// length-prefixed.
func (a *Array) FixedWidth() int { return int(a.width) }

func (a *Array) Add(v Data) error {
	if v == nil {
		return invalidUsage("array: nil item")
	}
	if len(a.items) > 0 {
		return invalidUsage("array was decoded and is read-only")
	}
	if v.DataType().Wire() != a.itemType {
		return invalidUsage("array item %s does not match item type %s", v.DataType(), a.ItemType())
	}
	if len(a.added) == 0xFFFF {
		return outOfRange("array holds at most %d items", 0xFFFF)
	}
	a.added = append(a.added, v)
	a.code = NoCode
	return nil
}

func (a *Array) Len() int {
	if len(a.items) > 0 {
		return len(a.items)
	}
	return len(a.added)
}

// Items returns the items in order. Items of a decoded array fail individually
// as *Error values.
func (a *Array) Items() []Data {
	if len(a.items) == 0 {
		return a.added
	}
	out := make([]Data, len(a.items))
	for i, it := range a.items {
		out[i] = it
	}
	return out
}

func (a *Array) At(i int) (Data, error) {
	n := a.Len()
	if i < 0 || i >= n {
		return nil, outOfRange("array index %d not in [0, %d)", i, n)
	}
	if len(a.items) > 0 {
		return a.items[i], nil
	}
	return a.added[i], nil
}

func (a *Array) String() string {
	if a.code == Blank {
		return blankText
	}
	var sb strings.Builder
	sb.WriteByte('[')
	for i, it := range a.Items() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(it.String())
	}
	sb.WriteByte(']')
	return sb.String()
}

func (a *Array) reset() {
	a.resetScalar()
	a.itemType = wire.TypeUnknown
	a.width = 0
	a.items = a.items[:0]
	a.added = nil
}

func (a *Array) decode(b []byte, ctx decodeCtx) wire.Status {
	if len(b) == 0 {
		a.code = Blank
		return wire.Success
	}
	r := wire.NewReader(b)
	a.itemType = wire.Type(r.Uint8())
	a.width = r.Uint8()
	n := int(r.Uint16())
	if r.Failed() {
		return wire.IncompleteData
	}
	if dt, ok := DataTypeOf(a.itemType); !ok || !dt.Scalar() || dt == TypeArray {
		return wire.UnsupportedDataType
	}
	for i := 0; i < n; i++ {
		var item []byte
		if a.width == 0 {
			item = r.Buffer16()
		} else {
			item = r.Bytes(int(a.width))
		}
		if r.Failed() {
			a.items = append(a.items, ctx.errorValue(nil, ErrorIncompleteData, nil))
			break
		}
		a.items = append(a.items, ctx.decodeWire(nil, a.itemType, item))
	}
	return wire.Success
}

func (a *Array) payload(scratch []byte) ([]byte, error) {
	if a.code == Blank {
		return scratch[:0], nil
	}
	if len(a.items) > 0 {
		return nil, invalidUsage("array was decoded and is read-only")
	}
	out := append(scratch[:0], byte(a.itemType), 0, byte(len(a.added)>>8), byte(len(a.added)))
	for _, it := range a.added {
		src, ok := it.(payloadSource)
		if !ok {
			return nil, invalidUsage("array item %s cannot be encoded", it.DataType())
		}
		b, err := src.payload(a.buf[:0])
		if err != nil {
			return nil, err
		}
		a.buf = b[:0]
		out = appendU16ob(out, uint32(len(b)))
		out = append(out, b...)
	}
	return out, nil
}

func (a *Array) releaseEntries(m *Manager) {
	for _, it := range a.items {
		_ = m.release(it)
	}
	a.items = a.items[:0]
}
