package omm

import (
	"github.com/pkg/errors"

	"github.com/danmuck/omm/internal/dictionary"
	"github.com/danmuck/omm/internal/logging"
	"github.com/danmuck/omm/internal/pool"
	"github.com/danmuck/omm/internal/protocol/wire"
)

// Options configures a Manager.
type Options struct {
	// Version is the protocol version Decode assumes.
	Version wire.Version
	// Dictionary resolves field list entries sent without a type.
	Dictionary *dictionary.Dictionary
	// MaxDepth bounds container and message nesting.
	MaxDepth int
	// Prealloc is the number of instances each pool creates up front.
	Prealloc int
	// InitialBufferSize is the first buffer an encoder takes.
	InitialBufferSize int
	// Buffers is the shared scratch buffer pool.
	Buffers *pool.BufferPool
}

func DefaultOptions() Options {
	return Options{
		Version:           wire.Current,
		MaxDepth:          wire.MaxDecodeDepth,
		InitialBufferSize: DefaultInitialBufferSize,
		Buffers:           pool.Default(),
	}
}

// Manager owns one pool per data, entry and set definition kind and decodes
// into them. A Manager is not safe for concurrent use; give each decoding
// goroutine its own.
type Manager struct {
	opts    Options
	pools   [numDataTypes]dataPool
	entries entryPools
}

func NewManager(opts Options) *Manager {
	def := DefaultOptions()
	if opts.Version == (wire.Version{}) {
		opts.Version = def.Version
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = def.MaxDepth
	}
	if opts.InitialBufferSize <= 0 {
		opts.InitialBufferSize = def.InitialBufferSize
	}
	if opts.Buffers == nil {
		opts.Buffers = def.Buffers
	}
	m := &Manager{opts: opts, entries: newEntryPools(opts.Prealloc)}
	for dt, f := range dataPools {
		m.pools[dt] = f(opts.Prealloc)
	}
	return m
}

func (m *Manager) Options() Options { return m.opts }

// EncodeOptions returns the options standalone encoders need to share this
// manager's buffers and dictionary.
func (m *Manager) EncodeOptions() []EncodeOption {
	return []EncodeOption{
		WithBuffers(m.opts.Buffers, m.opts.InitialBufferSize),
		WithDictionary(m.opts.Dictionary),
	}
}

func (m *Manager) decodeCtx(v wire.Version) decodeCtx {
	return decodeCtx{
		mgr:      m,
		version:  v,
		dict:     m.opts.Dictionary,
		maxDepth: m.opts.MaxDepth,
	}
}

// Decode decodes b as wire type t with the configured protocol version. It
// never returns nil: a buffer that cannot be decoded yields an *Error.
func (m *Manager) Decode(t wire.Type, b []byte) Data {
	return m.DecodeVersion(t, b, m.opts.Version)
}

// DecodeVersion decodes b as written with protocol version v.
func (m *Manager) DecodeVersion(t wire.Type, b []byte, v wire.Version) Data {
	ctx := m.decodeCtx(v)
	if !v.Supported() {
		logging.Codec().Debug().Str("version", v.String()).Msg("unsupported protocol version")
		return ctx.errorValue(nil, ErrorIteratorSetFailure, b)
	}
	return ctx.decodeWire(nil, t, b)
}

// DecodeMsg decodes one message.
func (m *Manager) DecodeMsg(b []byte) Data {
	return m.Decode(wire.TypeMsg, b)
}

// Acquire returns a cleared pooled instance of dt for encoding. Containers and
// messages share the manager's buffers and dictionary.
func (m *Manager) Acquire(dt DataType) (Data, error) {
	if dt >= numDataTypes || dt == TypeError {
		return nil, invalidUsage("cannot acquire %s", dt)
	}
	d := m.pools[dt].acquireData(m)
	if e, ok := d.(interface{ encState() *encoder }); ok {
		e.encState().configure(m.EncodeOptions())
	}
	return d, nil
}

func (c *containerBase) encState() *encoder { return &c.enc }
func (b *msgBase) encState() *encoder       { return &b.enc }

// Release returns d and everything it checked out to the pools. Values that
// did not come from this manager, and values already released, are reported.
func (m *Manager) Release(d Data) error {
	if d == nil {
		return invalidUsage("release of nil data")
	}
	if err := m.release(d); err != nil {
		logging.Codec().Debug().Err(err).Str("type", d.DataType().String()).Msg("release rejected")
		return err
	}
	return nil
}

func (m *Manager) release(d Data) error {
	p, ok := d.(pooled)
	if !ok || p.ref().mgr != m {
		return errors.Wrapf(pool.ErrForeignHandle, "%s not issued by this manager", d.DataType())
	}
	dp := m.pools[p.DataType()]
	if dp.live(p) {
		m.releaseChildren(p)
	}
	return dp.releaseAny(p)
}

// releaseChildren returns the entries, set definitions and array items a value
// checked out. Entry payloads stay with their entries for reuse.
func (m *Manager) releaseChildren(d pooled) {
	if c, ok := d.(interface{ releaseEntries(*Manager) }); ok {
		c.releaseEntries(m)
	}
}

// reuse returns cached, cleared, when it is a live instance of dt from this
// manager. Otherwise cached is released and a fresh instance acquired.
func (m *Manager) reuse(cached pooled, dt DataType) pooled {
	if cached != nil && cached.ref().mgr == m {
		cp := m.pools[cached.DataType()]
		if cp.live(cached) {
			m.releaseChildren(cached)
			if cached.DataType() == dt {
				cached.reset()
				return cached
			}
			_ = cp.releaseAny(cached)
		}
	}
	return m.pools[dt].acquireData(m)
}

// Stats reports every pool's live and free counts.
func (m *Manager) Stats() []pool.Stats {
	out := make([]pool.Stats, 0, int(numDataTypes)+8)
	for _, p := range m.pools {
		out = append(out, p.stats())
	}
	return append(out, m.entries.stats()...)
}
