package pool

import (
	"math/bits"
	"strconv"
	"sync"

	"github.com/danmuck/omm/internal/observability"
)

const (
	DefaultMinBuffer = 64
	DefaultMaxBuffer = 1 << 20

	maxLargeRetained = 16
)

// BufferPool recycles encode buffers. Requests up to max are rounded to a
// power-of-two multiple of min and served from per-size buckets; larger
// requests share one best-fit list. Get never fails.
type BufferPool struct {
	mu      sync.Mutex
	min     int
	max     int
	buckets [][][]byte
	large   [][]byte

	gets, hits uint64
}

// NewBufferPool returns a pool whose smallest class is min bytes and whose
// largest bucketed class is at least max bytes.
func NewBufferPool(min, max int) *BufferPool {
	if min <= 0 {
		min = DefaultMinBuffer
	}
	min = 1 << bits.Len(uint(min-1))
	if max < min {
		max = min
	}
	n := 1
	for c := min; c < max; c <<= 1 {
		n++
	}
	return &BufferPool{
		min:     min,
		max:     min << (n - 1),
		buckets: make([][][]byte, n),
	}
}

var defaultBuffers = NewBufferPool(DefaultMinBuffer, DefaultMaxBuffer)

// Default returns the process-wide pool used by encoders that are not owned by
// a manager.
func Default() *BufferPool { return defaultBuffers }

// ClassSize returns the capacity Get hands out for a request of size bytes.
func (p *BufferPool) ClassSize(size int) int {
	if size > p.max {
		return size
	}
	c := p.min
	for c < size {
		c <<= 1
	}
	return c
}

func (p *BufferPool) classIndex(c int) int {
	return bits.Len(uint(c/p.min)) - 1
}

// Get returns an empty slice with capacity of at least size.
func (p *BufferPool) Get(size int) []byte {
	if size < 0 {
		size = 0
	}
	c := p.ClassSize(size)

	p.mu.Lock()
	p.gets++
	var out []byte
	if c <= p.max {
		idx := p.classIndex(c)
		if n := len(p.buckets[idx]); n > 0 {
			out = p.buckets[idx][n-1]
			p.buckets[idx][n-1] = nil
			p.buckets[idx] = p.buckets[idx][:n-1]
		}
	} else {
		best := -1
		for i, b := range p.large {
			if cap(b) >= c && (best < 0 || cap(b) < cap(p.large[best])) {
				best = i
			}
		}
		if best >= 0 {
			out = p.large[best]
			last := len(p.large) - 1
			p.large[best] = p.large[last]
			p.large[last] = nil
			p.large = p.large[:last]
		}
	}
	if out != nil {
		p.hits++
	}
	p.mu.Unlock()

	observability.RecordBufferGet(p.className(c), out != nil)
	if out == nil {
		return make([]byte, 0, c)
	}
	return out[:0]
}

// Put returns b to the pool. Buffers smaller than min are dropped.
func (p *BufferPool) Put(b []byte) {
	c := cap(b)
	if c < p.min {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if c > p.max {
		if len(p.large) < maxLargeRetained {
			p.large = append(p.large, b[:0])
		}
		return
	}
	// Floor to the class the buffer can fully serve.
	idx := bits.Len(uint(c/p.min)) - 1
	p.buckets[idx] = append(p.buckets[idx], b[:0])
}

func (p *BufferPool) className(c int) string {
	if c > p.max {
		return "large"
	}
	return strconv.Itoa(c)
}

// BufferStats is a point-in-time view of a BufferPool.
type BufferStats struct {
	Gets     uint64
	Hits     uint64
	Retained int
}

func (p *BufferPool) Stats() BufferStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.large)
	for _, b := range p.buckets {
		n += len(b)
	}
	return BufferStats{Gets: p.gets, Hits: p.hits, Retained: n}
}
