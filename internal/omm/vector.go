package omm

import (
	"iter"
	"slices"

	"github.com/pkg/errors"

	"github.com/danmuck/omm/internal/protocol/wire"
)

// Vector is a container of entries keyed by position.
type Vector struct {
	containerBase
	setDefsOwner
	entries []*VectorEntry
}

func NewVector(opts ...EncodeOption) *Vector {
	v := &Vector{}
	v.enc.configure(opts)
	return v
}

func (*Vector) DataType() DataType { return TypeVector }

// Sortable reports whether the provider allows the consumer to sort entries.
func (v *Vector) Sortable() bool {
	if v.decoded {
		return v.hdr.flags&flagSortable != 0
	}
	return v.pending.flags&flagSortable != 0
}

func (v *Vector) SetSortable(sortable bool) error {
	if err := v.checkHeaderOpen(TypeVector, "sortable"); err != nil {
		return err
	}
	if sortable {
		v.pending.flags |= flagSortable
	} else {
		v.pending.flags &^= flagSortable
	}
	return nil
}

func (v *Vector) SetTotalCountHint(n uint32) error { return v.setHint(TypeVector, n) }

func (v *Vector) SetSummary(d Data) error {
	if d == nil {
		return invalidUsage("vector: nil summary")
	}
	if err := v.checkPayloadType(TypeVector, d); err != nil {
		return err
	}
	if err := v.checkDefsPayload(TypeVector, d.DataType()); err != nil {
		return err
	}
	return v.setSummary(TypeVector, d)
}

func (v *Vector) Summary() Data { return v.summaryData() }

func (v *Vector) SetFieldSetDefs(defs *FieldSetDefs) error {
	return v.setFieldDefs(&v.containerBase, TypeVector, defs)
}

func (v *Vector) SetElementSetDefs(defs *ElementSetDefs) error {
	return v.setElementDefs(&v.containerBase, TypeVector, defs)
}

// PayloadType returns the declared payload type.
func (v *Vector) PayloadType() DataType {
	t := v.pending.payloadType
	if v.decoded {
		t = v.hdr.payloadType
	}
	dt, _ := DataTypeOf(t)
	return dt
}

func vectorCarriesPayload(a Action) bool { return a != ActionDelete && a != ActionClear }

// Add appends one entry at position index. payload may be nil only for
// ActionClear and ActionDelete.
func (v *Vector) Add(index uint32, action Action, payload Data, perm []byte) error {
	if err := v.checkEncodable(TypeVector); err != nil {
		return err
	}
	switch action {
	case ActionUpdate, ActionSet, ActionClear, ActionInsert, ActionDelete:
	default:
		return outOfRange("vector action %s is not one of Update, Set, Clear, Insert, Delete", action)
	}
	if index > wire.MaxU30 {
		return outOfRange("vector position %d exceeds %d", index, wire.MaxU30)
	}
	if len(perm) > wire.MaxU15 {
		return outOfRange("vector permission data length %d exceeds %d", len(perm), wire.MaxU15)
	}
	write := vectorCarriesPayload(action)
	if payload == nil && write {
		return invalidUsage("vector position %d: nil payload for %s", index, action)
	}
	if err := v.checkPayloadType(TypeVector, payload); err != nil {
		return err
	}
	if payload != nil {
		if err := v.checkDefsPayload(TypeVector, payload.DataType()); err != nil {
			return err
		}
	}
	var b []byte
	if write {
		var err error
		if b, err = v.enc.payloadOf(payload); err != nil {
			return errors.Wrapf(err, "vector position %d", index)
		}
	}
	v.fixPayloadType(payload)
	flags := byte(action)
	if perm != nil {
		flags |= entryFlagPerm
	}
	if err := v.enc.write(v.writeHeader, func(w *wire.Writer) {
		w.Uint8(flags)
		w.U30rb(index)
		if perm != nil {
			w.Buffer15(perm)
		}
		if write {
			w.Buffer16(b)
		}
	}); err != nil {
		return errors.Wrapf(err, "vector position %d", index)
	}
	v.added++
	return nil
}

func (v *Vector) writeHeader(w *wire.Writer) {
	v.containerBase.writeHeader(w)
	w.Uint8(byte(v.pending.payloadType))
}

func (v *Vector) Complete() ([]byte, error) {
	return v.complete(TypeVector, false, v.writeHeader)
}

func (v *Vector) payload([]byte) ([]byte, error) { return v.Complete() }

func (v *Vector) Clear() {
	opts := v.enc
	v.reset()
	v.enc.buffers, v.enc.initial, v.enc.dict = opts.buffers, opts.initial, opts.dict
}

func (v *Vector) reset() {
	v.resetContainer()
	v.resetDefs()
	v.entries = v.entries[:0]
}

func (v *Vector) decode(b []byte, ctx decodeCtx) wire.Status {
	if !v.beginDecode(b, ctx) {
		return wire.Success
	}
	r := wire.NewReader(b)
	v.readHeader(&r)
	v.hdr.payloadType = wire.Type(r.Uint8())
	v.endHeader(&r, TypeVector)
	if !v.status.OK() {
		return wire.Success
	}
	if st := v.decodeDefs(&v.containerBase); st != wire.Success {
		v.fail(TypeVector, st)
	}
	return wire.Success
}

func (v *Vector) newEntry() *VectorEntry {
	m := v.ctx.mgr
	e := m.entries.vector.get(m)
	v.entries = append(v.entries, e)
	return e
}

func (v *Vector) fill() {
	if !v.beginFill(TypeVector) {
		return
	}
	if code, failed := v.failure(); failed {
		v.newEntry().slot.fail(v.ctx, code, v.raw)
		return
	}
	if v.status == wire.NoData {
		return
	}
	ctx := v.payloadCtx(&v.containerBase)
	r := wire.NewReader(v.body)
	for !r.Exhausted() {
		e := v.newEntry()
		flags := r.Uint8()
		e.action = Action(flags & entryActionMask)
		e.index = r.U30rb()
		if flags&entryFlagPerm != 0 {
			e.perm = r.Buffer15()
		}
		t := v.hdr.payloadType
		var b []byte
		if vectorCarriesPayload(e.action) {
			b = r.Buffer16()
		} else {
			t = wire.TypeNoData
		}
		if r.Failed() {
			e.slot.fail(ctx, ErrorIncompleteData, nil)
			return
		}
		e.slot.decode(ctx, t, b)
	}
}

func (v *Vector) Len() int {
	if !v.decoded {
		return v.added
	}
	v.fill()
	return len(v.entries)
}

func (v *Vector) IsEmpty() bool { return v.Len() == 0 }

func (v *Vector) Entries() []*VectorEntry {
	v.fill()
	return v.entries
}

func (v *Vector) All() iter.Seq2[int, *VectorEntry] { return slices.All(v.Entries()) }

func (v *Vector) At(i int) (*VectorEntry, error) {
	v.fill()
	if i < 0 || i >= len(v.entries) {
		return nil, outOfRange("vector index %d not in [0, %d)", i, len(v.entries))
	}
	return v.entries[i], nil
}

func (v *Vector) releaseEntries(m *Manager) {
	for _, e := range v.entries {
		_ = m.entries.vector.put(e)
	}
	v.entries = v.entries[:0]
	v.releaseDefs(m)
}

func (v *Vector) String() string {
	t := newTree()
	v.render(t)
	return t.String()
}
