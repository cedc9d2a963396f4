package omm

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/omm/internal/pool"
	"github.com/danmuck/omm/internal/protocol/wire"
	"github.com/danmuck/omm/internal/testutil/testlog"
)

func poolStats(t *testing.T, m *Manager, name string) pool.Stats {
	t.Helper()
	for _, s := range m.Stats() {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("no pool named %q", name)
	return pool.Stats{}
}

func TestAcquireAndRelease(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{})

	d, err := m.Acquire(TypeInt)
	require.NoError(t, err)
	require.Equal(t, TypeInt, d.DataType())
	require.Equal(t, 1, poolStats(t, m, "int").Live)

	require.NoError(t, m.Release(d))
	s := poolStats(t, m, "int")
	require.Equal(t, 0, s.Live)
	require.Equal(t, 1, s.Free)

	err = m.Release(d)
	require.True(t, errors.Is(err, pool.ErrDoubleRelease), "%v", err)

	again, err := m.Acquire(TypeInt)
	require.NoError(t, err)
	require.Same(t, d, again)
	require.Equal(t, uint64(1), poolStats(t, m, "int").Hits)
}

func TestReleaseForeignData(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{})
	other := NewManager(Options{})

	err := m.Release(NewInt(1))
	require.True(t, errors.Is(err, pool.ErrForeignHandle), "%v", err)

	d, err := other.Acquire(TypeAscii)
	require.NoError(t, err)
	err = m.Release(d)
	require.True(t, errors.Is(err, pool.ErrForeignHandle), "%v", err)
	require.NoError(t, other.Release(d))

	require.True(t, IsUsage(m.Release(nil), InvalidUsage))
}

func TestAcquireRejectsError(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{})
	_, err := m.Acquire(TypeError)
	require.True(t, IsUsage(err, InvalidUsage))
	_, err = m.Acquire(numDataTypes)
	require.True(t, IsUsage(err, InvalidUsage))
}

func TestAcquiredContainerEncodes(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{InitialBufferSize: 32})

	d, err := m.Acquire(TypeFieldList)
	require.NoError(t, err)
	l := d.(*FieldList)
	require.NoError(t, l.Add(1, NewInt(10)))
	require.NoError(t, l.Add(2, NewAscii("abc")))
	b := complete(t, l)

	got := m.Decode(wire.TypeFieldList, b).(*FieldList)
	require.Equal(t, 2, got.Len())
	require.NoError(t, m.Release(got))
	require.NoError(t, m.Release(l))
}

func TestReleaseReturnsEntries(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{})

	l := NewFieldList()
	for fid := int16(1); fid <= 3; fid++ {
		require.NoError(t, l.Add(fid, NewInt(int64(fid))))
	}
	b := complete(t, l)

	got := m.Decode(wire.TypeFieldList, b).(*FieldList)
	require.Equal(t, 3, got.Len())
	require.Equal(t, 3, poolStats(t, m, "fieldentry").Live)
	require.Equal(t, 1, poolStats(t, m, "fieldlist").Live)

	require.NoError(t, m.Release(got))
	require.Equal(t, 0, poolStats(t, m, "fieldentry").Live)
	require.Equal(t, 0, poolStats(t, m, "fieldlist").Live)

	// A second decode runs entirely on recycled instances.
	again := m.Decode(wire.TypeFieldList, b).(*FieldList)
	require.Equal(t, 3, again.Len())
	e, err := again.At(2)
	require.NoError(t, err)
	require.Equal(t, int64(3), e.Load().(*Int).Int64())
	require.Equal(t, uint64(3), poolStats(t, m, "fieldentry").Hits)
	require.Equal(t, uint64(3), poolStats(t, m, "fieldentry").Misses)
}

func TestPreallocFillsPools(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{Prealloc: 4})
	s := poolStats(t, m, "elementlist")
	require.Equal(t, 4, s.Free)
	require.Equal(t, 0, s.Live)

	_, err := m.Acquire(TypeElementList)
	require.NoError(t, err)
	require.Equal(t, uint64(1), poolStats(t, m, "elementlist").Hits)
}

func TestReleasedPayloadIsNotReclaimed(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{})

	l := NewFieldList()
	require.NoError(t, l.Add(1, NewInt(5)))
	first := m.Decode(wire.TypeFieldList, complete(t, l)).(*FieldList)
	e, err := first.At(0)
	require.NoError(t, err)
	held := e.Load()
	require.NoError(t, m.Release(held))
	require.NoError(t, m.Release(first))

	// q takes over the released Int while the recycled entry still caches it.
	q := m.Decode(wire.TypeInt, []byte{42}).(*Int)
	require.Same(t, held, q)

	other := NewFieldList()
	require.NoError(t, other.Add(1, NewInt(7)))
	second := m.Decode(wire.TypeFieldList, complete(t, other)).(*FieldList)
	e, err = second.At(0)
	require.NoError(t, err)
	require.Equal(t, int64(7), e.Load().(*Int).Int64())
	require.NotSame(t, q, e.Load())

	require.Equal(t, int64(42), q.Int64())
	require.Equal(t, 2, poolStats(t, m, "int").Live)
	require.NoError(t, m.Release(q))
}
