package omm

import (
	"github.com/pkg/errors"

	"github.com/danmuck/omm/internal/dictionary"
	"github.com/danmuck/omm/internal/logging"
	"github.com/danmuck/omm/internal/observability"
	"github.com/danmuck/omm/internal/pool"
	"github.com/danmuck/omm/internal/protocol/wire"
)

// DefaultInitialBufferSize is the first scratch buffer an encoder takes.
const DefaultInitialBufferSize = 64

// payloadSource is implemented by every Data that can be written as an entry
// payload. Scalars append into scratch; containers and messages return their
// completed bytes.
type payloadSource interface {
	Data
	payload(scratch []byte) ([]byte, error)
}

// EncodeOption configures a standalone encoder.
type EncodeOption func(*encoder)

// WithBuffers makes the encoder draw its buffers from p, starting at initial
// bytes.
func WithBuffers(p *pool.BufferPool, initial int) EncodeOption {
	return func(e *encoder) {
		if p != nil {
			e.buffers = p
		}
		if initial > 0 {
			e.initial = initial
		}
	}
}

// WithDictionary lets field lists omit entry types the dictionary already
// defines.
func WithDictionary(d *dictionary.Dictionary) EncodeOption {
	return func(e *encoder) { e.dict = d }
}

// encoder writes one container or message into a pooled buffer. Every write
// that does not fit is rolled back, the buffer is doubled and the same write
// is retried.
type encoder struct {
	buffers *pool.BufferPool
	initial int
	dict    *dictionary.Dictionary

	w          *wire.Writer
	headerDone bool
	done       bool
	out        []byte
	scratch    []byte
	grows      int
}

func (e *encoder) configure(opts []EncodeOption) {
	e.buffers = pool.Default()
	e.initial = DefaultInitialBufferSize
	for _, opt := range opts {
		opt(e)
	}
}

func (e *encoder) started() bool { return e.w != nil }

func (e *encoder) writer() *wire.Writer {
	if e.w == nil {
		if e.buffers == nil {
			e.configure(nil)
		}
		e.w = wire.NewWriter(e.buffers.Get(e.initial))
	}
	return e.w
}

// write runs header (once, before the first body) and body, growing the
// buffer until both fit. A value that overflows its wire encoding is rolled
// back and reported as OutOfRange.
func (e *encoder) write(header, body func(w *wire.Writer)) error {
	w := e.writer()
	for {
		mark := w.Mark()
		if !e.headerDone && header != nil {
			header(w)
		}
		if body != nil {
			body(w)
		}
		switch w.Status() {
		case wire.Success:
			e.headerDone = true
			return nil
		case wire.BufferTooSmall:
			w.Rollback(mark)
			e.grow()
		default:
			w.Rollback(mark)
			return outOfRange("value length exceeds its wire encoding")
		}
	}
}

func (e *encoder) grow() {
	next := e.buffers.Get(2 * e.w.Cap())
	old := e.w.Grow(next)
	e.buffers.Put(old[:0])
	e.grows++
	observability.RecordBufferGrow()
	logging.Codec().Debug().Int("from", cap(old)).Int("to", e.w.Cap()).Msg("encode buffer grown")
}

// payloadOf returns the wire bytes of d as an entry payload.
func (e *encoder) payloadOf(d Data) ([]byte, error) {
	if d == nil {
		return nil, invalidUsage("nil payload")
	}
	src, ok := d.(payloadSource)
	if !ok {
		return nil, invalidUsage("%s values cannot be encoded", d.DataType())
	}
	b, err := src.payload(e.scratch[:0])
	if err != nil {
		return nil, err
	}
	if d.DataType().Scalar() {
		e.scratch = b[:0]
	}
	return b, nil
}

// finish memoizes the written bytes.
func (e *encoder) finish(dt DataType, header func(w *wire.Writer)) ([]byte, error) {
	if e.done {
		return e.out, nil
	}
	if !e.headerDone {
		if err := e.write(header, nil); err != nil {
			return nil, errors.Wrapf(err, "%s header", dt)
		}
	}
	e.out = e.w.Bytes()
	e.done = true
	observability.RecordEncode(dt.String(), len(e.out))
	return e.out, nil
}

// release returns the buffer to the pool. Bytes handed out by finish are no
// longer valid afterwards.
func (e *encoder) release() {
	if e.w != nil {
		e.buffers.Put(e.w.Detach()[:0])
	}
	e.w = nil
	e.headerDone = false
	e.done = false
	e.out = nil
	e.grows = 0
}

func (e *encoder) capacity() int {
	if e.w == nil {
		return 0
	}
	return e.w.Cap()
}
