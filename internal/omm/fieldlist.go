package omm

import (
	"encoding/binary"
	"iter"
	"slices"

	"github.com/pkg/errors"

	"github.com/danmuck/omm/internal/logging"
	"github.com/danmuck/omm/internal/protocol/wire"
)

// FieldList is a list of entries keyed by field id. A FieldList is either
// built with Add and finished with Complete, or decoded by a Manager; decoded
// lists are read-only and materialize their entries on first access.
type FieldList struct {
	containerBase
	dictID  uint16
	listNum int16
	entries []*FieldEntry
}

func NewFieldList(opts ...EncodeOption) *FieldList {
	l := &FieldList{}
	l.enc.configure(opts)
	return l
}

func (*FieldList) DataType() DataType { return TypeFieldList }

// Info returns the dictionary id and field list number, if present.
func (l *FieldList) Info() (dictID uint16, listNum int16, ok bool) {
	flags := l.pending.flags
	if l.decoded {
		flags = l.hdr.flags
	}
	return l.dictID, l.listNum, flags&flagInfo != 0
}

// SetInfo sets the dictionary id and field list number. It must precede Add.
func (l *FieldList) SetInfo(dictID uint16, listNum int16) error {
	if err := l.checkHeaderOpen(TypeFieldList, "info"); err != nil {
		return err
	}
	if dictID > wire.MaxU15 {
		return outOfRange("field list dictionary id %d exceeds %d", dictID, wire.MaxU15)
	}
	l.dictID, l.listNum = dictID, listNum
	l.pending.flags |= flagInfo
	info := appendU15(l.pending.info[:0], dictID)
	l.pending.info = binary.BigEndian.AppendUint16(info, uint16(listNum))
	return nil
}

// AddSetData writes values as the set-defined part of the list, using set id
// of defs. The enclosing container must declare the same definitions. It must
// precede Add and may be called once.
func (l *FieldList) AddSetData(defs *FieldSetDefs, setID uint16, values ...Data) error {
	if err := l.checkHeaderOpen(TypeFieldList, "set data"); err != nil {
		return err
	}
	if l.pending.flags&flagSetData != 0 {
		return invalidUsage("field list set data already written")
	}
	def, ok := defs.lookup(setID)
	if !ok {
		return invalidUsage("field list set id %d is not defined", setID)
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

// Add appends one entry. Entries are written in call order.
func (l *FieldList) Add(fid int16, v Data) error {
	if err := l.checkEncodable(TypeFieldList); err != nil {
		return err
	}
	b, err := l.enc.payloadOf(v)
	if err != nil {
		return errors.Wrapf(err, "field %d", fid)
	}
	t := v.DataType().Wire()
	typeByte := byte(t)
	if f, ok := l.enc.dict.Field(fid); ok && f.Type == t {
		typeByte = 0
	}
	if err := l.enc.write(l.writeHeader, func(w *wire.Writer) {
		w.Int16(fid)
		w.Uint8(typeByte)
		w.Buffer16(b)
	}); err != nil {
		return errors.Wrapf(err, "field %d", fid)
	}
	l.added++
	return nil
}

func (l *FieldList) writeHeader(w *wire.Writer) {
	l.containerBase.writeHeader(w)
	l.writeSetData(w)
}

// Complete finishes the encoding and returns the bytes. Calling it again
// returns the same bytes; they stay valid until Clear.
func (l *FieldList) Complete() ([]byte, error) {
	return l.complete(TypeFieldList, true, l.writeHeader)
}

func (l *FieldList) payload([]byte) ([]byte, error) { return l.Complete() }

// Clear empties an encoding list for reuse.
func (l *FieldList) Clear() {
	opts := l.enc
	l.reset()
	l.enc.buffers, l.enc.initial, l.enc.dict = opts.buffers, opts.initial, opts.dict
}

func (l *FieldList) reset() {
	l.resetContainer()
	l.dictID, l.listNum = 0, 0
	l.entries = l.entries[:0]
}

func (l *FieldList) decode(b []byte, ctx decodeCtx) wire.Status {
	if !l.beginDecode(b, ctx) {
		return wire.Success
	}
	r := wire.NewReader(b)
	l.readHeader(&r)
	l.readSetData(&r)
	l.endHeader(&r, TypeFieldList)
	if !l.status.OK() {
		return wire.Success
	}
	if l.hdr.flags&flagInfo != 0 {
		ir := wire.NewReader(l.hdr.info)
		l.dictID = ir.U15rb()
		l.listNum = ir.Int16()
		if ir.Failed() {
			l.fail(TypeFieldList, wire.IncompleteData)
			return wire.Success
		}
	}
	if l.hdr.flags&flagSetData != 0 {
		if _, ok := ctx.fieldDefs.lookup(l.hdr.setID); !ok {
			l.fail(TypeFieldList, wire.SetSkipped)
		}
	}
	return wire.Success
}

func (l *FieldList) newEntry() *FieldEntry {
	m := l.ctx.mgr
	e := m.entries.field.get(m)
	e.dict = l.ctx.dict
	l.entries = append(l.entries, e)
	return e
}

func (l *FieldList) fill() {
	if !l.beginFill(TypeFieldList) {
		return
	}
	if code, failed := l.failure(); failed {
		l.newEntry().slot.fail(l.ctx, code, l.raw)
		return
	}
	if l.status == wire.NoData {
		return
	}
	// Payloads of a field list never see the set definitions it used.
	ctx := l.ctx.nested(nil, nil)
	if l.hdr.flags&flagSetData != 0 {
		def, _ := l.ctx.fieldDefs.lookup(l.hdr.setID)
		r := wire.NewReader(l.hdr.setData)
		for _, de := range def.entries {
			e := l.newEntry()
			e.fid = de.FieldID
			b := r.Buffer16()
			if r.Failed() {
				e.slot.fail(ctx, ErrorIncompleteData, nil)
				break
			}
			l.decodeValue(ctx, e, de.Type.Wire(), b)
		}
	}
	r := wire.NewReader(l.body)
	for !r.Exhausted() {
		e := l.newEntry()
		e.fid = r.Int16()
		t := wire.Type(r.Uint8())
		b := r.Buffer16()
		if r.Failed() {
			logging.Codec().Debug().Int16("fid", e.fid).Msg("field entry truncated")
			e.slot.fail(ctx, ErrorIncompleteData, nil)
			return
		}
		if t == wire.TypeUnknown {
			if ctx.dict == nil {
				e.slot.fail(ctx, ErrorNoDictionary, b)
				continue
			}
			f, ok := ctx.dict.Field(e.fid)
			if !ok {
				e.slot.fail(ctx, ErrorFieldIDNotFound, b)
				continue
			}
			t = f.Type
		}
		l.decodeValue(ctx, e, t, b)
	}
}

func (l *FieldList) decodeValue(ctx decodeCtx, e *FieldEntry, t wire.Type, b []byte) {
	e.slot.decode(ctx, t, b)
	if en, ok := e.slot.load.(*Enum); ok && en.code == NoCode {
		en.display, en.hasDisp = ctx.dict.EnumDisplay(e.fid, en.v)
	}
}

// Len returns the number of entries. On a decoded list the first call
// materializes the entries.
func (l *FieldList) Len() int {
	if !l.decoded {
		return l.added
	}
	l.fill()
	return len(l.entries)
}

func (l *FieldList) IsEmpty() bool { return l.Len() == 0 }

// Entries returns the decoded entries in wire order. The slice is owned by the
// list.
func (l *FieldList) Entries() []*FieldEntry {
	l.fill()
	return l.entries
}

func (l *FieldList) All() iter.Seq2[int, *FieldEntry] { return slices.All(l.Entries()) }

func (l *FieldList) At(i int) (*FieldEntry, error) {
	l.fill()
	if i < 0 || i >= len(l.entries) {
		return nil, outOfRange("field list index %d not in [0, %d)", i, len(l.entries))
	}
	return l.entries[i], nil
}

// Field returns the first entry with fid.
func (l *FieldList) Field(fid int16) (*FieldEntry, bool) {
	for _, e := range l.Entries() {
		if e.fid == fid {
			return e, true
		}
	}
	return nil, false
}

func (l *FieldList) releaseEntries(m *Manager) {
	for _, e := range l.entries {
		_ = m.entries.field.put(e)
	}
	l.entries = l.entries[:0]
}

func (l *FieldList) String() string {
	t := newTree()
	l.render(t)
	return t.String()
}
