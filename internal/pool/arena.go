// Package pool holds the free lists the codec decodes into.
//
// An Arena owns every instance of one concrete type. Instances are checked out
// with Acquire and returned with Release; the returned Handle carries a
// generation so a release or lookup through a handle whose slot has since been
// recycled is reported instead of silently aliasing the new owner. Arenas are
// single-owner and take no lock. BufferPool is the one shared, locked pool.
package pool

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/danmuck/omm/internal/logging"
	"github.com/danmuck/omm/internal/observability"
)

var (
	ErrStaleHandle   = errors.New("pool: stale handle")
	ErrDoubleRelease = errors.New("pool: double release")
	ErrForeignHandle = errors.New("pool: handle not issued by this pool")
)

// Handle identifies one checkout of one arena slot.
type Handle struct {
	index uint32
	gen   uint32
}

// Valid reports whether h was ever issued. The zero Handle is never issued.
func (h Handle) Valid() bool { return h.gen != 0 }

type slot[T any] struct {
	v    *T
	gen  uint32
	live bool
}

// Arena is a typed free list with generation-tagged handles.
type Arena[T any] struct {
	name  string
	newFn func() *T
	reset func(*T)
	slots []slot[T]
	free  []uint32

	hits, misses uint64
	hitC, missC  prometheus.Counter
}

// NewArena returns an arena that creates instances with newFn and clears them
// with reset when they are re-acquired. prealloc instances are created up front.
func NewArena[T any](name string, newFn func() *T, reset func(*T), prealloc int) *Arena[T] {
	a := &Arena[T]{
		name:  name,
		newFn: newFn,
		reset: reset,
	}
	a.hitC, a.missC = observability.PoolCounters(name)
	if prealloc > 0 {
		a.slots = make([]slot[T], 0, prealloc)
		a.free = make([]uint32, 0, prealloc)
		for i := 0; i < prealloc; i++ {
			a.slots = append(a.slots, slot[T]{v: newFn(), gen: 1})
			a.free = append(a.free, uint32(i))
		}
	}
	return a
}

// Name returns the pool name used in metrics and logs.
func (a *Arena[T]) Name() string { return a.name }

// Acquire returns a cleared instance, creating one when the free list is empty.
func (a *Arena[T]) Acquire() (*T, Handle) {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		s := &a.slots[idx]
		s.live = true
		if a.reset != nil {
			a.reset(s.v)
		}
		a.hits++
		a.hitC.Inc()
		return s.v, Handle{index: idx, gen: s.gen}
	}
	v := a.newFn()
	idx := uint32(len(a.slots))
	a.slots = append(a.slots, slot[T]{v: v, gen: 1, live: true})
	a.misses++
	a.missC.Inc()
	return v, Handle{index: idx, gen: 1}
}

// Release returns the instance behind h to the free list. The instance is not
// cleared here; the next Acquire clears it.
func (a *Arena[T]) Release(h Handle) error {
	if !h.Valid() || int(h.index) >= len(a.slots) {
		return errors.Wrapf(ErrForeignHandle, "%s slot %d", a.name, h.index)
	}
	s := &a.slots[h.index]
	if !s.live && nextGen(h.gen) == s.gen {
		observability.RecordPoolFault(a.name, "double_release")
		logging.Codec().Debug().Str("pool", a.name).Uint32("slot", h.index).Msg("double release")
		return errors.Wrapf(ErrDoubleRelease, "%s slot %d", a.name, h.index)
	}
	if _, err := a.lookup(h); err != nil {
		return err
	}
	if !s.live {
		return errors.Wrapf(ErrForeignHandle, "%s slot %d was never checked out", a.name, h.index)
	}
	s.live = false
	s.gen = nextGen(s.gen)
	a.free = append(a.free, h.index)
	return nil
}

func nextGen(g uint32) uint32 {
	g++
	if g == 0 {
		g = 1
	}
	return g
}

// Resolve returns the instance behind h while h is still the current checkout.
func (a *Arena[T]) Resolve(h Handle) (*T, error) {
	s, err := a.lookup(h)
	if err != nil {
		return nil, err
	}
	if !s.live {
		observability.RecordPoolFault(a.name, "stale_handle")
		return nil, errors.Wrapf(ErrStaleHandle, "%s slot %d released", a.name, h.index)
	}
	return s.v, nil
}

// Live reports whether h is the current checkout of its slot.
func (a *Arena[T]) Live(h Handle) bool {
	s, err := a.lookup(h)
	return err == nil && s.live
}

func (a *Arena[T]) lookup(h Handle) (*slot[T], error) {
	if !h.Valid() || int(h.index) >= len(a.slots) {
		return nil, errors.Wrapf(ErrForeignHandle, "%s slot %d", a.name, h.index)
	}
	s := &a.slots[h.index]
	if s.gen != h.gen {
		observability.RecordPoolFault(a.name, "stale_handle")
		logging.Codec().Debug().
			Str("pool", a.name).
			Uint32("slot", h.index).
			Uint32("handle_gen", h.gen).
			Uint32("slot_gen", s.gen).
			Msg("stale handle")
		return nil, errors.Wrapf(ErrStaleHandle, "%s slot %d gen %d (current %d)", a.name, h.index, h.gen, s.gen)
	}
	return s, nil
}

// Stats is a point-in-time view of one pool.
type Stats struct {
	Name   string
	Live   int
	Free   int
	Hits   uint64
	Misses uint64
}

func (a *Arena[T]) Stats() Stats {
	return Stats{
		Name:   a.name,
		Live:   len(a.slots) - len(a.free),
		Free:   len(a.free),
		Hits:   a.hits,
		Misses: a.misses,
	}
}
