package omm

import (
	"encoding/binary"
	"iter"
	"slices"

	"github.com/pkg/errors"

	"github.com/danmuck/omm/internal/protocol/wire"
)

// ElementList is a list of entries keyed by name, each carrying its own type.
type ElementList struct {
	containerBase
	listNum int16
	entries []*ElementEntry
}

func NewElementList(opts ...EncodeOption) *ElementList {
	l := &ElementList{}
	l.enc.configure(opts)
	return l
}

func (*ElementList) DataType() DataType { return TypeElementList }

func (l *ElementList) Info() (listNum int16, ok bool) {
	flags := l.pending.flags
	if l.decoded {
		flags = l.hdr.flags
	}
	return l.listNum, flags&flagInfo != 0
}

func (l *ElementList) SetInfo(listNum int16) error {
	if err := l.checkHeaderOpen(TypeElementList, "info"); err != nil {
		return err
	}
	l.listNum = listNum
	l.pending.flags |= flagInfo
	l.pending.info = binary.BigEndian.AppendUint16(l.pending.info[:0], uint16(listNum))
	return nil
}

// AddSetData writes the set-defined part of the list. See FieldList.AddSetData.
func (l *ElementList) AddSetData(defs *ElementSetDefs, setID uint16, values ...Data) error {
	if err := l.checkHeaderOpen(TypeElementList, "set data"); err != nil {
		return err
	}
	if l.pending.flags&flagSetData != 0 {
		return invalidUsage("element list set data already written")
	}
	def, ok := defs.lookup(setID)
	if !ok {
		return invalidUsage("element list set id %d is not defined", setID)
	}
	types := make([]DataType, len(def.entries))
	for i, e := range def.entries {
		types[i] = e.Type
	}
	data, err := appendSetValues(&l.enc, nil, types, values)
	if err != nil {
		return err
	}
	l.pending.flags |= flagSetData
	l.pending.setID = setID
	l.pending.setData = data
	if err := l.enc.write(l.writeHeader, nil); err != nil {
		return errors.Wrapf(err, "set %d", setID)
	}
	l.added += len(values)
	return nil
}

func (l *ElementList) Add(name string, v Data) error {
	if err := l.checkEncodable(TypeElementList); err != nil {
		return err
	}
	if len(name) > wire.MaxU15 {
		return outOfRange("element name length %d exceeds %d", len(name), wire.MaxU15)
	}
	b, err := l.enc.payloadOf(v)
	if err != nil {
		return errors.Wrapf(err, "element %q", name)
	}
	t := v.DataType().Wire()
	if err := l.enc.write(l.writeHeader, func(w *wire.Writer) {
		w.U15rb(uint16(len(name)))
		w.Data([]byte(name))
		w.Uint8(byte(t))
		w.Buffer16(b)
	}); err != nil {
		return errors.Wrapf(err, "element %q", name)
	}
	l.added++
	return nil
}

func (l *ElementList) writeHeader(w *wire.Writer) {
	l.containerBase.writeHeader(w)
	l.writeSetData(w)
}

func (l *ElementList) Complete() ([]byte, error) {
	return l.complete(TypeElementList, true, l.writeHeader)
}

func (l *ElementList) payload([]byte) ([]byte, error) { return l.Complete() }

func (l *ElementList) Clear() {
	opts := l.enc
	l.reset()
	l.enc.buffers, l.enc.initial, l.enc.dict = opts.buffers, opts.initial, opts.dict
}

func (l *ElementList) reset() {
	l.resetContainer()
	l.listNum = 0
	l.entries = l.entries[:0]
}

func (l *ElementList) decode(b []byte, ctx decodeCtx) wire.Status {
	if !l.beginDecode(b, ctx) {
		return wire.Success
	}
	r := wire.NewReader(b)
	l.readHeader(&r)
	l.readSetData(&r)
	l.endHeader(&r, TypeElementList)
	if !l.status.OK() {
		return wire.Success
	}
	if l.hdr.flags&flagInfo != 0 {
		if len(l.hdr.info) < 2 {
			l.fail(TypeElementList, wire.IncompleteData)
			return wire.Success
		}
		l.listNum = int16(binary.BigEndian.Uint16(l.hdr.info))
	}
	if l.hdr.flags&flagSetData != 0 {
		if _, ok := ctx.elemDefs.lookup(l.hdr.setID); !ok {
			l.fail(TypeElementList, wire.SetSkipped)
		}
	}
	return wire.Success
}

func (l *ElementList) newEntry() *ElementEntry {
	m := l.ctx.mgr
	e := m.entries.element.get(m)
	l.entries = append(l.entries, e)
	return e
}

func (l *ElementList) fill() {
	if !l.beginFill(TypeElementList) {
		return
	}
	if code, failed := l.failure(); failed {
		l.newEntry().slot.fail(l.ctx, code, l.raw)
		return
	}
	if l.status == wire.NoData {
		return
	}
	ctx := l.ctx.nested(nil, nil)
	if l.hdr.flags&flagSetData != 0 {
		def, _ := l.ctx.elemDefs.lookup(l.hdr.setID)
		r := wire.NewReader(l.hdr.setData)
		for _, de := range def.entries {
			e := l.newEntry()
			e.name = []byte(de.Name)
			b := r.Buffer16()
			if r.Failed() {
				e.slot.fail(ctx, ErrorIncompleteData, nil)
				break
			}
			e.slot.decode(ctx, de.Type.Wire(), b)
		}
	}
	r := wire.NewReader(l.body)
	for !r.Exhausted() {
		e := l.newEntry()
		e.name = r.Buffer15()
		t := wire.Type(r.Uint8())
		b := r.Buffer16()
		if r.Failed() {
			e.slot.fail(ctx, ErrorIncompleteData, nil)
			return
		}
		e.slot.decode(ctx, t, b)
	}
}

func (l *ElementList) Len() int {
	if !l.decoded {
		return l.added
	}
	l.fill()
	return len(l.entries)
}

func (l *ElementList) IsEmpty() bool { return l.Len() == 0 }

func (l *ElementList) Entries() []*ElementEntry {
	l.fill()
	return l.entries
}

func (l *ElementList) All() iter.Seq2[int, *ElementEntry] { return slices.All(l.Entries()) }

func (l *ElementList) At(i int) (*ElementEntry, error) {
	l.fill()
	if i < 0 || i >= len(l.entries) {
		return nil, outOfRange("element list index %d not in [0, %d)", i, len(l.entries))
	}
	return l.entries[i], nil
}

// Element returns the first entry named name.
func (l *ElementList) Element(name string) (*ElementEntry, bool) {
	for _, e := range l.Entries() {
		if string(e.name) == name {
			return e, true
		}
	}
	return nil, false
}

func (l *ElementList) releaseEntries(m *Manager) {
	for _, e := range l.entries {
		_ = m.entries.element.put(e)
	}
	l.entries = l.entries[:0]
}

func (l *ElementList) String() string {
	t := newTree()
	l.render(t)
	return t.String()
}
