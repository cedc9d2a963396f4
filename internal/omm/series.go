package omm

import (
	"iter"
	"slices"

	"github.com/pkg/errors"

	"github.com/danmuck/omm/internal/protocol/wire"
)

// Series is an ordered run of payloads of one type, with no keys or actions.
type Series struct {
	containerBase
	setDefsOwner
	entries []*SeriesEntry
}

func NewSeries(opts ...EncodeOption) *Series {
	s := &Series{}
	s.enc.configure(opts)
	return s
}

func (*Series) DataType() DataType { return TypeSeries }

func (s *Series) SetTotalCountHint(n uint32) error { return s.setHint(TypeSeries, n) }

func (s *Series) SetSummary(d Data) error {
	if d == nil {
		return invalidUsage("series: nil summary")
	}
	if err := s.checkPayloadType(TypeSeries, d); err != nil {
		return err
	}
	if err := s.checkDefsPayload(TypeSeries, d.DataType()); err != nil {
		return err
	}
	return s.setSummary(TypeSeries, d)
}

func (s *Series) Summary() Data { return s.summaryData() }

func (s *Series) SetFieldSetDefs(defs *FieldSetDefs) error {
	return s.setFieldDefs(&s.containerBase, TypeSeries, defs)
}

func (s *Series) SetElementSetDefs(defs *ElementSetDefs) error {
	return s.setElementDefs(&s.containerBase, TypeSeries, defs)
}

func (s *Series) PayloadType() DataType {
	t := s.pending.payloadType
	if s.decoded {
		t = s.hdr.payloadType
	}
	dt, _ := DataTypeOf(t)
	return dt
}

func (s *Series) Add(payload Data) error {
	if err := s.checkEncodable(TypeSeries); err != nil {
		return err
	}
	if payload == nil {
		return invalidUsage("series: nil payload")
	}
	if err := s.checkPayloadType(TypeSeries, payload); err != nil {
		return err
	}
	if err := s.checkDefsPayload(TypeSeries, payload.DataType()); err != nil {
		return err
	}
	b, err := s.enc.payloadOf(payload)
	if err != nil {
		return errors.Wrapf(err, "series entry %d", s.added)
	}
	s.fixPayloadType(payload)
	if err := s.enc.write(s.writeHeader, func(w *wire.Writer) {
		w.Buffer16(b)
	}); err != nil {
		return errors.Wrapf(err, "series entry %d", s.added)
	}
	s.added++
	return nil
}

func (s *Series) writeHeader(w *wire.Writer) {
	s.containerBase.writeHeader(w)
	w.Uint8(byte(s.pending.payloadType))
}

func (s *Series) Complete() ([]byte, error) {
	return s.complete(TypeSeries, false, s.writeHeader)
}

func (s *Series) payload([]byte) ([]byte, error) { return s.Complete() }

func (s *Series) Clear() {
	opts := s.enc
	s.reset()
	s.enc.buffers, s.enc.initial, s.enc.dict = opts.buffers, opts.initial, opts.dict
}

func (s *Series) reset() {
	s.resetContainer()
	s.resetDefs()
	s.entries = s.entries[:0]
}

func (s *Series) decode(b []byte, ctx decodeCtx) wire.Status {
	if !s.beginDecode(b, ctx) {
		return wire.Success
	}
	r := wire.NewReader(b)
	s.readHeader(&r)
	s.hdr.payloadType = wire.Type(r.Uint8())
	s.endHeader(&r, TypeSeries)
	if !s.status.OK() {
		return wire.Success
	}
	if st := s.decodeDefs(&s.containerBase); st != wire.Success {
		s.fail(TypeSeries, st)
	}
	return wire.Success
}

func (s *Series) newEntry() *SeriesEntry {
	m := s.ctx.mgr
	e := m.entries.series.get(m)
	s.entries = append(s.entries, e)
	return e
}

func (s *Series) fill() {
	if !s.beginFill(TypeSeries) {
		return
	}
	if code, failed := s.failure(); failed {
		s.newEntry().slot.fail(s.ctx, code, s.raw)
		return
	}
	if s.status == wire.NoData {
		return
	}
	ctx := s.payloadCtx(&s.containerBase)
	r := wire.NewReader(s.body)
	for !r.Exhausted() {
		e := s.newEntry()
		b := r.Buffer16()
		if r.Failed() {
			e.slot.fail(ctx, ErrorIncompleteData, nil)
			return
		}
		e.slot.decode(ctx, s.hdr.payloadType, b)
	}
}

func (s *Series) Len() int {
	if !s.decoded {
		return s.added
	}
	s.fill()
	return len(s.entries)
}

func (s *Series) IsEmpty() bool { return s.Len() == 0 }

func (s *Series) Entries() []*SeriesEntry {
	s.fill()
	return s.entries
}

func (s *Series) All() iter.Seq2[int, *SeriesEntry] { return slices.All(s.Entries()) }

func (s *Series) At(i int) (*SeriesEntry, error) {
	s.fill()
	if i < 0 || i >= len(s.entries) {
		return nil, outOfRange("series index %d not in [0, %d)", i, len(s.entries))
	}
	return s.entries[i], nil
}

func (s *Series) releaseEntries(m *Manager) {
	for _, e := range s.entries {
		_ = m.entries.series.put(e)
	}
	s.entries = s.entries[:0]
	s.releaseDefs(m)
}

func (s *Series) String() string {
	t := newTree()
	s.render(t)
	return t.String()
}
