package omm

import (
	"github.com/danmuck/omm/internal/logging"
	"github.com/danmuck/omm/internal/observability"
	"github.com/danmuck/omm/internal/protocol/wire"
)

// Container header flags.
const (
	flagInfo     = 0x01
	flagHint     = 0x02
	flagSummary  = 0x04
	flagSetDefs  = 0x08
	flagPerm     = 0x10
	flagKeyFid   = 0x20
	flagSetData  = 0x40
	flagSortable = 0x80
)

type fillState uint8

const (
	unfilled fillState = iota
	filled
)

// header is the decoded or pending container header.
type header struct {
	flags       byte
	info        []byte
	hint        uint32
	summary     []byte
	setDefs     []byte
	keyType     wire.Type
	payloadType wire.Type
	keyFid      int16
	setID       uint16
	setData     []byte
}

// containerBase holds the state every container kind shares: the decode side
// ({Unfilled, Filled} plus the header result) and the encode side.
type containerBase struct {
	slotRef
	code    DataCode
	decoded bool
	state   fillState
	status  wire.Status
	raw     []byte
	body    []byte
	ctx     decodeCtx
	hdr     header
	fills   int

	summary loadSlot

	enc     encoder
	pending header
	added   int
}

func (c *containerBase) Code() DataCode { return c.code }
func (c *containerBase) isData()        {}

// Status returns how the container header decoded: SUCCESS, NO_DATA for an
// empty extent, or the failure that the single Error entry reports.
func (c *containerBase) Status() wire.Status { return c.status }

// TotalCountHint returns the advisory entry count, if one was sent.
func (c *containerBase) TotalCountHint() (uint32, bool) {
	if c.decoded {
		return c.hdr.hint, c.hdr.flags&flagHint != 0
	}
	return c.pending.hint, c.pending.flags&flagHint != 0
}

func (c *containerBase) resetContainer() {
	c.code = NoCode
	c.decoded = false
	c.state = unfilled
	c.status = wire.Success
	c.raw = nil
	c.body = nil
	c.ctx = decodeCtx{}
	c.hdr = header{}
	c.fills = 0
	c.summary.clear()
	c.enc.release()
	c.pending = header{}
	c.added = 0
}

// beginDecode records the extent and classifies it before the header is read.
func (c *containerBase) beginDecode(b []byte, ctx decodeCtx) bool {
	c.decoded = true
	c.state = unfilled
	c.raw = b
	ctx.depth++
	c.ctx = ctx
	switch {
	case ctx.depth > ctx.maxDepth:
		c.status = wire.IteratorOverrun
	case len(b) == 0:
		c.status = wire.NoData
		c.code = Blank
	default:
		c.status = wire.Success
	}
	return c.status == wire.Success
}

// readHeader reads the common header. The caller reads the kind-specific type
// bytes and set data afterwards.
func (c *containerBase) readHeader(r *wire.Reader) {
	h := &c.hdr
	h.flags = r.Uint8()
	if h.flags&flagInfo != 0 {
		h.info = r.Bytes(int(r.Uint8()))
	}
	if h.flags&flagHint != 0 {
		h.hint = r.U30rb()
	}
	if h.flags&flagSummary != 0 {
		h.summary = r.Buffer16()
	}
	if h.flags&flagSetDefs != 0 {
		h.setDefs = r.Buffer16()
	}
}

func (c *containerBase) readSetData(r *wire.Reader) {
	if c.hdr.flags&flagSetData != 0 {
		c.hdr.setID = r.U15rb()
		c.hdr.setData = r.Buffer16()
	}
}

// endHeader records a truncated header as the container failure and keeps the
// remaining bytes as the entry extent.
func (c *containerBase) endHeader(r *wire.Reader, dt DataType) {
	if r.Failed() {
		c.fail(dt, wire.IncompleteData)
		return
	}
	c.body = r.Rest()
}

func (c *containerBase) fail(dt DataType, st wire.Status) {
	c.status = st
	logging.Codec().Debug().Str("type", dt.String()).Str("status", st.String()).Int("len", len(c.raw)).Msg("container header failed")
}

// beginFill is the Unfilled to Filled transition. It reports whether entries
// should be materialized now.
func (c *containerBase) beginFill(dt DataType) bool {
	if !c.decoded || c.state == filled {
		return false
	}
	c.state = filled
	c.fills++
	observability.RecordFill(dt.String())
	return true
}

// failure returns the error code the synthetic entry carries when the header
// did not decode.
func (c *containerBase) failure() (ErrorCode, bool) {
	if c.status.OK() {
		return ErrorNone, false
	}
	code := errorCodeFor(c.status)
	observability.RecordDecodeFailure("container", code.String())
	return code, true
}

func (c *containerBase) summaryData() Data {
	if !c.decoded || c.hdr.flags&flagSummary == 0 {
		return nil
	}
	if c.summary.load == nil {
		t := c.hdr.payloadType
		if t == wire.TypeUnknown {
			t = wire.TypeNoData
		}
		c.summary.decode(c.ctx, t, c.hdr.summary)
	}
	return c.summary.data()
}

// checkEncodable guards every encode-side mutation.
func (c *containerBase) checkEncodable(dt DataType) error {
	if c.decoded {
		return invalidUsage("%s was decoded and is read-only", dt)
	}
	if c.enc.done {
		return invalidUsage("%s is complete; Clear it before adding", dt)
	}
	return nil
}

// checkHeaderOpen guards header setters, which must run before the first entry.
func (c *containerBase) checkHeaderOpen(dt DataType, what string) error {
	if err := c.checkEncodable(dt); err != nil {
		return err
	}
	if c.enc.headerDone {
		return invalidUsage("%s: %s must be set before the first entry", dt, what)
	}
	return nil
}

func (c *containerBase) setHint(dt DataType, n uint32) error {
	if err := c.checkHeaderOpen(dt, "total count hint"); err != nil {
		return err
	}
	if n > wire.MaxU30 {
		return outOfRange("%s total count hint %d exceeds %d", dt, n, wire.MaxU30)
	}
	c.pending.flags |= flagHint
	c.pending.hint = n
	return nil
}

func (c *containerBase) setSummary(dt DataType, d Data) error {
	if err := c.checkHeaderOpen(dt, "summary data"); err != nil {
		return err
	}
	b, err := c.enc.payloadOf(d)
	if err != nil {
		return err
	}
	c.pending.flags |= flagSummary
	c.pending.summary = append([]byte(nil), b...)
	c.pending.payloadType = d.DataType().Wire()
	return nil
}

// writeHeader writes the common part of the pending header.
func (c *containerBase) writeHeader(w *wire.Writer) {
	h := &c.pending
	w.Uint8(h.flags)
	if h.flags&flagInfo != 0 {
		w.Uint8(uint8(len(h.info)))
		w.Data(h.info)
	}
	if h.flags&flagHint != 0 {
		w.U30rb(h.hint)
	}
	if h.flags&flagSummary != 0 {
		w.Buffer16(h.summary)
	}
	if h.flags&flagSetDefs != 0 {
		w.Buffer16(h.setDefs)
	}
}

func (c *containerBase) writeSetData(w *wire.Writer) {
	if c.pending.flags&flagSetData != 0 {
		w.U15rb(c.pending.setID)
		w.Buffer16(c.pending.setData)
	}
}

// complete finishes the encoding; empty is whether zero entries are allowed.
func (c *containerBase) complete(dt DataType, empty bool, header func(w *wire.Writer)) ([]byte, error) {
	if c.decoded {
		return c.raw, nil
	}
	if c.enc.done {
		return c.enc.out, nil
	}
	if c.added == 0 && !empty {
		return nil, invalidUsage("%s requires at least one entry to encode", dt)
	}
	return c.enc.finish(dt, header)
}

// FillCount returns how many times entries were materialized from the wire.
// It is at most one per decode.
func (c *containerBase) FillCount() int { return c.fills }

// checkPayloadType enforces the single payload type of vectors and series.
func (c *containerBase) checkPayloadType(dt DataType, payload Data) error {
	if payload == nil {
		return nil
	}
	pt := payload.DataType().Wire()
	if c.pending.payloadType != wire.TypeUnknown && pt != c.pending.payloadType {
		return invalidUsage("%s payload %s does not match payload type %s", dt, pt, c.pending.payloadType)
	}
	return nil
}

// fixPayloadType declares the payload type from the first entry. Entries
// without a payload declare NoData.
func (c *containerBase) fixPayloadType(payload Data) {
	if c.pending.payloadType != wire.TypeUnknown {
		return
	}
	c.pending.payloadType = wire.TypeNoData
	if payload != nil {
		c.pending.payloadType = payload.DataType().Wire()
	}
}
