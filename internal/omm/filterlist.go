package omm

import (
	"iter"
	"slices"

	"github.com/pkg/errors"

	"github.com/danmuck/omm/internal/protocol/wire"
)

// FilterList carries up to 256 entries keyed by filter id. Entries may
// override the declared payload type.
type FilterList struct {
	containerBase
	entries []*FilterEntry
}

func NewFilterList(opts ...EncodeOption) *FilterList {
	l := &FilterList{}
	l.enc.configure(opts)
	return l
}

func (*FilterList) DataType() DataType { return TypeFilterList }

func (l *FilterList) SetTotalCountHint(n uint32) error {
	if n > 0xFF {
		return outOfRange("filter list total count hint %d exceeds 255", n)
	}
	return l.setHint(TypeFilterList, n)
}

// PayloadType returns the declared payload type.
func (l *FilterList) PayloadType() DataType {
	t := l.pending.payloadType
	if l.decoded {
		t = l.hdr.payloadType
	}
	dt, _ := DataTypeOf(t)
	return dt
}

// Add appends one entry. payload may be nil only for ActionClear.
func (l *FilterList) Add(id uint8, action Action, payload Data, perm []byte) error {
	if err := l.checkEncodable(TypeFilterList); err != nil {
		return err
	}
	switch action {
	case ActionUpdate, ActionSet, ActionClear:
	default:
		return outOfRange("filter action %s is not one of Update, Set, Clear", action)
	}
	if payload == nil && action != ActionClear {
		return invalidUsage("filter %d: nil payload for %s", id, action)
	}
	if len(perm) > wire.MaxU15 {
		return outOfRange("filter permission data length %d exceeds %d", len(perm), wire.MaxU15)
	}
	var b []byte
	if payload != nil && action != ActionClear {
		var err error
		if b, err = l.enc.payloadOf(payload); err != nil {
			return errors.Wrapf(err, "filter %d", id)
		}
	}
	l.fixPayloadType(payload)
	flags := byte(action)
	var t wire.Type
	if payload != nil && payload.DataType().Wire() != l.pending.payloadType {
		t = payload.DataType().Wire()
		flags |= entryFlagType
	}
	if perm != nil {
		flags |= entryFlagPerm
	}
	if err := l.enc.write(l.writeHeader, func(w *wire.Writer) {
		w.Uint8(flags)
		w.Uint8(id)
		if flags&entryFlagType != 0 {
			w.Uint8(byte(t))
		}
		if perm != nil {
			w.Buffer15(perm)
		}
		if action != ActionClear {
			w.Buffer16(b)
		}
	}); err != nil {
		return errors.Wrapf(err, "filter %d", id)
	}
	l.added++
	return nil
}

func (l *FilterList) writeHeader(w *wire.Writer) {
	l.containerBase.writeHeader(w)
	w.Uint8(byte(l.pending.payloadType))
}

func (l *FilterList) Complete() ([]byte, error) {
	return l.complete(TypeFilterList, false, l.writeHeader)
}

func (l *FilterList) payload([]byte) ([]byte, error) { return l.Complete() }

func (l *FilterList) Clear() {
	opts := l.enc
	l.reset()
	l.enc.buffers, l.enc.initial, l.enc.dict = opts.buffers, opts.initial, opts.dict
}

func (l *FilterList) reset() {
	l.resetContainer()
	l.entries = l.entries[:0]
}

func (l *FilterList) decode(b []byte, ctx decodeCtx) wire.Status {
	if !l.beginDecode(b, ctx) {
		return wire.Success
	}
	r := wire.NewReader(b)
	l.readHeader(&r)
	l.hdr.payloadType = wire.Type(r.Uint8())
	l.endHeader(&r, TypeFilterList)
	return wire.Success
}

func (l *FilterList) newEntry() *FilterEntry {
	m := l.ctx.mgr
	e := m.entries.filter.get(m)
	l.entries = append(l.entries, e)
	return e
}

func (l *FilterList) fill() {
	if !l.beginFill(TypeFilterList) {
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
	r := wire.NewReader(l.body)
	for !r.Exhausted() {
		e := l.newEntry()
		flags := r.Uint8()
		e.action = Action(flags & entryActionMask)
		e.id = r.Uint8()
		t := l.hdr.payloadType
		if flags&entryFlagType != 0 {
			t = wire.Type(r.Uint8())
		}
		if flags&entryFlagPerm != 0 {
			e.perm = r.Buffer15()
		}
		var b []byte
		if e.action == ActionClear {
			t = wire.TypeNoData
		} else {
			b = r.Buffer16()
		}
		if r.Failed() {
			e.slot.fail(ctx, ErrorIncompleteData, nil)
			return
		}
		e.slot.decode(ctx, t, b)
	}
}

func (l *FilterList) Len() int {
	if !l.decoded {
		return l.added
	}
	l.fill()
	return len(l.entries)
}

func (l *FilterList) IsEmpty() bool { return l.Len() == 0 }

func (l *FilterList) Entries() []*FilterEntry {
	l.fill()
	return l.entries
}

func (l *FilterList) All() iter.Seq2[int, *FilterEntry] { return slices.All(l.Entries()) }

func (l *FilterList) At(i int) (*FilterEntry, error) {
	l.fill()
	if i < 0 || i >= len(l.entries) {
		return nil, outOfRange("filter list index %d not in [0, %d)", i, len(l.entries))
	}
	return l.entries[i], nil
}

func (l *FilterList) releaseEntries(m *Manager) {
	for _, e := range l.entries {
		_ = m.entries.filter.put(e)
	}
	l.entries = l.entries[:0]
}

func (l *FilterList) String() string {
	t := newTree()
	l.render(t)
	return t.String()
}
