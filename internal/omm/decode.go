package omm

import (
	"github.com/danmuck/omm/internal/dictionary"
	"github.com/danmuck/omm/internal/logging"
	"github.com/danmuck/omm/internal/observability"
	"github.com/danmuck/omm/internal/pool"
	"github.com/danmuck/omm/internal/protocol/wire"
)

// decodeCtx is everything one decode needs below the top-level call. It is
// passed by value; local set definitions travel in it from the container that
// declared them to the payloads that use them and go no further.
type decodeCtx struct {
	mgr       *Manager
	version   wire.Version
	dict      *dictionary.Dictionary
	fieldDefs *FieldSetDefs
	elemDefs  *ElementSetDefs
	depth     int
	maxDepth  int
}

// nested returns the context for payloads of a container. Set definitions only
// reach the direct payloads of the container that declared them.
func (ctx decodeCtx) nested(fieldDefs *FieldSetDefs, elemDefs *ElementSetDefs) decodeCtx {
	ctx.fieldDefs = fieldDefs
	ctx.elemDefs = elemDefs
	return ctx
}

type decodable interface {
	pooled
	decode(b []byte, ctx decodeCtx) wire.Status
}

// decodeWire decodes b as wire type t into cached when it can be reused. It
// never returns nil; failures come back as an *Error.
func (ctx decodeCtx) decodeWire(cached pooled, t wire.Type, b []byte) pooled {
	if t == wire.TypeMsg {
		return ctx.decodeMsg(cached, b)
	}
	dt, ok := DataTypeOf(t)
	if !ok {
		return ctx.errorValue(cached, ErrorUnsupportedDataType, b)
	}
	return ctx.decodeAs(cached, dt, b)
}

func (ctx decodeCtx) decodeAs(cached pooled, dt DataType, b []byte) pooled {
	d, ok := ctx.mgr.reuse(cached, dt).(decodable)
	if !ok {
		return ctx.errorValue(cached, ErrorUnsupportedDataType, b)
	}
	st := d.decode(b, ctx)
	if st.OK() {
		return d
	}
	logging.Codec().Debug().Str("type", dt.String()).Str("status", st.String()).Int("len", len(b)).Msg("value decode failed")
	return ctx.errorValue(d, errorCodeFor(st), b)
}

func (ctx decodeCtx) errorValue(cached pooled, code ErrorCode, raw []byte) pooled {
	e := ctx.mgr.reuse(cached, TypeError).(*Error)
	e.code = code
	e.raw = raw
	observability.RecordDecodeFailure("value", code.String())
	return e
}

func (ctx decodeCtx) decodeMsg(cached pooled, b []byte) pooled {
	dt, st := peekMsgClass(b)
	if st != wire.Success {
		return ctx.errorValue(cached, errorCodeFor(st), b)
	}
	return ctx.decodeAs(cached, dt, b)
}

// loadSlot is the payload holder shared by entries, summaries and message
// payloads. The last decoded instance is retained so the next decode of the
// same type reuses it instead of going back to the pool. cacheH is the
// checkout the slot was handed; once the instance is released and checked
// out again its handle moves on and the slot no longer owns it.
type loadSlot struct {
	load   pooled
	cache  pooled
	cacheH pool.Handle
}

func (s *loadSlot) set(p pooled) {
	s.load = p
	s.cache = p
	s.cacheH = pool.Handle{}
	if p != nil {
		s.cacheH = p.ref().h
	}
}

// owned returns the cached instance while the slot's checkout is still the
// current one.
func (s *loadSlot) owned() pooled {
	if s.cache == nil || s.cache.ref().h != s.cacheH {
		return nil
	}
	return s.cache
}

func (s *loadSlot) decode(ctx decodeCtx, t wire.Type, b []byte) {
	s.set(ctx.decodeWire(s.owned(), t, b))
}

func (s *loadSlot) fail(ctx decodeCtx, code ErrorCode, raw []byte) {
	s.set(ctx.errorValue(s.owned(), code, raw))
}

func (s *loadSlot) clear() { s.load = nil }

func (s *loadSlot) data() Data {
	if s.load == nil {
		return nil
	}
	return s.load
}
