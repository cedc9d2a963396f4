package omm

import (
	"iter"
	"slices"

	"github.com/pkg/errors"

	"github.com/danmuck/omm/internal/protocol/wire"
)

// Map is a container of entries keyed by a primitive value. The key type and
// the payload type are fixed by the first entry added.
type Map struct {
	containerBase
	setDefsOwner
	keyBuf  []byte
	entries []*MapEntry
}

func NewMap(opts ...EncodeOption) *Map {
	m := &Map{}
	m.enc.configure(opts)
	return m
}

func (*Map) DataType() DataType { return TypeMap }

// KeyFieldID returns the field id the keys correspond to, if one was sent.
func (m *Map) KeyFieldID() (int16, bool) {
	if m.decoded {
		return m.hdr.keyFid, m.hdr.flags&flagKeyFid != 0
	}
	return m.pending.keyFid, m.pending.flags&flagKeyFid != 0
}

// KeyType returns the declared key type.
func (m *Map) KeyType() DataType {
	t := m.pending.keyType
	if m.decoded {
		t = m.hdr.keyType
	}
	dt, _ := DataTypeOf(t)
	return dt
}

// PayloadType returns the declared payload type.
func (m *Map) PayloadType() DataType {
	t := m.pending.payloadType
	if m.decoded {
		t = m.hdr.payloadType
	}
	dt, _ := DataTypeOf(t)
	return dt
}

func (m *Map) SetKeyFieldID(fid int16) error {
	if err := m.checkHeaderOpen(TypeMap, "key field id"); err != nil {
		return err
	}
	m.pending.flags |= flagKeyFid
	m.pending.keyFid = fid
	return nil
}

func (m *Map) SetTotalCountHint(n uint32) error { return m.setHint(TypeMap, n) }

// SetSummary sets the summary data. Its type becomes the payload type.
func (m *Map) SetSummary(d Data) error {
	if d != nil && m.pending.payloadType != wire.TypeUnknown && d.DataType().Wire() != m.pending.payloadType {
		return invalidUsage("map summary is %s, payload type is %s", d.DataType(), m.pending.payloadType)
	}
	if err := m.checkContainerPayload(d); err != nil {
		return err
	}
	return m.setSummary(TypeMap, d)
}

// Summary returns the decoded summary data, or nil.
func (m *Map) Summary() Data { return m.summaryData() }

func (m *Map) SetFieldSetDefs(defs *FieldSetDefs) error {
	return m.setFieldDefs(&m.containerBase, TypeMap, defs)
}

func (m *Map) SetElementSetDefs(defs *ElementSetDefs) error {
	return m.setElementDefs(&m.containerBase, TypeMap, defs)
}

func (m *Map) checkContainerPayload(d Data) error {
	if d == nil {
		return invalidUsage("map: nil payload")
	}
	return m.checkDefsPayload(TypeMap, d.DataType())
}

// Add appends one entry. payload may be nil only for ActionDelete.
func (m *Map) Add(key Data, action Action, payload Data, perm []byte) error {
	if err := m.checkEncodable(TypeMap); err != nil {
		return err
	}
	switch action {
	case ActionUpdate, ActionAdd, ActionDelete:
	default:
		return outOfRange("map action %s is not one of Update, Add, Delete", action)
	}
	if key == nil {
		return invalidUsage("map: nil key")
	}
	if !key.DataType().keyable() {
		return invalidUsage("map: %s cannot be a key", key.DataType())
	}
	if len(perm) > wire.MaxU15 {
		return outOfRange("map permission data length %d exceeds %d", len(perm), wire.MaxU15)
	}
	kt := key.DataType().Wire()
	if m.pending.keyType != wire.TypeUnknown && kt != m.pending.keyType {
		return invalidUsage("map key %s does not match key type %s", kt, m.pending.keyType)
	}
	write := action != ActionDelete
	pt := wire.TypeNoData
	switch {
	case payload != nil:
		pt = payload.DataType().Wire()
		if m.pending.payloadType != wire.TypeUnknown && pt != m.pending.payloadType {
			return invalidUsage("map payload %s does not match payload type %s", pt, m.pending.payloadType)
		}
		if err := m.checkContainerPayload(payload); err != nil {
			return err
		}
	case write:
		return invalidUsage("map: nil payload for %s", action)
	}
	kb, err := m.enc.payloadOf(key)
	if err != nil {
		return errors.Wrap(err, "map key")
	}
	if len(kb) > wire.MaxU15 {
		return outOfRange("map key length %d exceeds %d", len(kb), wire.MaxU15)
	}
	m.keyBuf = append(m.keyBuf[:0], kb...)
	var b []byte
	if write && pt != wire.TypeNoData {
		if b, err = m.enc.payloadOf(payload); err != nil {
			return errors.Wrap(err, "map payload")
		}
	}
	m.pending.keyType = kt
	if m.pending.payloadType == wire.TypeUnknown {
		m.pending.payloadType = pt
	}
	flags := byte(action)
	if perm != nil {
		flags |= entryFlagPerm
	}
	if err := m.enc.write(m.writeHeader, func(w *wire.Writer) {
		w.Uint8(flags)
		if perm != nil {
			w.Buffer15(perm)
		}
		w.Buffer15(m.keyBuf)
		if write && m.pending.payloadType != wire.TypeNoData {
			w.Buffer16(b)
		}
	}); err != nil {
		return errors.Wrap(err, "map entry")
	}
	m.added++
	return nil
}

func (m *Map) writeHeader(w *wire.Writer) {
	m.containerBase.writeHeader(w)
	w.Uint8(byte(m.pending.keyType))
	w.Uint8(byte(m.pending.payloadType))
	if m.pending.flags&flagKeyFid != 0 {
		w.Int16(m.pending.keyFid)
	}
}

func (m *Map) Complete() ([]byte, error) {
	return m.complete(TypeMap, false, m.writeHeader)
}

func (m *Map) payload([]byte) ([]byte, error) { return m.Complete() }

func (m *Map) Clear() {
	opts := m.enc
	m.reset()
	m.enc.buffers, m.enc.initial, m.enc.dict = opts.buffers, opts.initial, opts.dict
}

func (m *Map) reset() {
	m.resetContainer()
	m.resetDefs()
	m.keyBuf = m.keyBuf[:0]
	m.entries = m.entries[:0]
}

func (m *Map) decode(b []byte, ctx decodeCtx) wire.Status {
	if !m.beginDecode(b, ctx) {
		return wire.Success
	}
	r := wire.NewReader(b)
	m.readHeader(&r)
	m.hdr.keyType = wire.Type(r.Uint8())
	m.hdr.payloadType = wire.Type(r.Uint8())
	if m.hdr.flags&flagKeyFid != 0 {
		m.hdr.keyFid = r.Int16()
	}
	m.endHeader(&r, TypeMap)
	if !m.status.OK() {
		return wire.Success
	}
	if kt, ok := DataTypeOf(m.hdr.keyType); !ok || !kt.keyable() {
		m.fail(TypeMap, wire.UnsupportedDataType)
		return wire.Success
	}
	if st := m.decodeDefs(&m.containerBase); st != wire.Success {
		m.fail(TypeMap, st)
	}
	return wire.Success
}

func (m *Map) newEntry() *MapEntry {
	mgr := m.ctx.mgr
	e := mgr.entries.mapE.get(mgr)
	m.entries = append(m.entries, e)
	return e
}

func (m *Map) fill() {
	if !m.beginFill(TypeMap) {
		return
	}
	if code, failed := m.failure(); failed {
		m.newEntry().slot.fail(m.ctx, code, m.raw)
		return
	}
	if m.status == wire.NoData {
		return
	}
	ctx := m.payloadCtx(&m.containerBase)
	keyCtx := m.ctx.nested(nil, nil)
	r := wire.NewReader(m.body)
	for !r.Exhausted() {
		e := m.newEntry()
		flags := r.Uint8()
		e.action = Action(flags & entryActionMask)
		if flags&entryFlagPerm != 0 {
			e.perm = r.Buffer15()
		}
		k := r.Buffer15()
		var b []byte
		t := m.hdr.payloadType
		if e.action == ActionDelete {
			t = wire.TypeNoData
		} else if t != wire.TypeNoData {
			b = r.Buffer16()
		}
		if r.Failed() {
			e.slot.fail(ctx, ErrorIncompleteData, nil)
			return
		}
		e.key.decode(keyCtx, m.hdr.keyType, k)
		e.slot.decode(ctx, t, b)
	}
}

func (m *Map) Len() int {
	if !m.decoded {
		return m.added
	}
	m.fill()
	return len(m.entries)
}

func (m *Map) IsEmpty() bool { return m.Len() == 0 }

func (m *Map) Entries() []*MapEntry {
	m.fill()
	return m.entries
}

func (m *Map) All() iter.Seq2[int, *MapEntry] { return slices.All(m.Entries()) }

func (m *Map) At(i int) (*MapEntry, error) {
	m.fill()
	if i < 0 || i >= len(m.entries) {
		return nil, outOfRange("map index %d not in [0, %d)", i, len(m.entries))
	}
	return m.entries[i], nil
}

func (m *Map) releaseEntries(mgr *Manager) {
	for _, e := range m.entries {
		_ = mgr.entries.mapE.put(e)
	}
	m.entries = m.entries[:0]
	m.releaseDefs(mgr)
}

func (m *Map) String() string {
	t := newTree()
	m.render(t)
	return t.String()
}
