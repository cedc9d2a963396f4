package omm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danmuck/omm/internal/dictionary"
	"github.com/danmuck/omm/internal/pool"
	"github.com/danmuck/omm/internal/protocol/wire"
	"github.com/danmuck/omm/internal/testutil/testlog"
)

func complete(t *testing.T, c interface{ Complete() ([]byte, error) }) []byte {
	t.Helper()
	b, err := c.Complete()
	require.NoError(t, err)
	return b
}

func TestFieldListRoundTrip(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{})
	values := sampleScalars(t)

	l := NewFieldList()
	require.NoError(t, l.SetInfo(1, 42))
	for i, v := range values {
		require.NoError(t, l.Add(int16(i+1), v))
	}
	require.Equal(t, len(values), l.Len())

	dl := m.Decode(wire.TypeFieldList, complete(t, l)).(*FieldList)
	dictID, num, ok := dl.Info()
	require.True(t, ok)
	require.Equal(t, uint16(1), dictID)
	require.Equal(t, int16(42), num)
	require.Equal(t, len(values), dl.Len())
	for i, e := range dl.All() {
		require.Equal(t, int16(i+1), e.FieldID())
		require.Equal(t, values[i].DataType(), e.LoadType())
		require.Equal(t, values[i].String(), e.Load().String())
	}
	e, ok := dl.Field(14)
	require.True(t, ok)
	require.Equal(t, "TRI.N", e.Load().String())
	_, err := dl.At(len(values))
	require.True(t, IsUsage(err, OutOfRange))
}

func TestElementListRoundTrip(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{})
	values := sampleScalars(t)

	l := NewElementList()
	require.NoError(t, l.SetInfo(7))
	for _, v := range values {
		require.NoError(t, l.Add(v.DataType().String(), v))
	}
	dl := m.Decode(wire.TypeElementList, complete(t, l)).(*ElementList)
	num, ok := dl.Info()
	require.True(t, ok)
	require.Equal(t, int16(7), num)
	require.Equal(t, len(values), dl.Len())
	for i, e := range dl.Entries() {
		require.Equal(t, values[i].DataType().String(), e.Name())
		require.Equal(t, values[i].String(), e.Load().String())
	}
	e, ok := dl.Element("Ascii")
	require.True(t, ok)
	require.Equal(t, TypeAscii, e.LoadType())

	require.True(t, IsUsage(l.Add("late", NewInt(1)), InvalidUsage))
}

func TestMapRoundTrip(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{})

	summary := NewFieldList()
	require.NoError(t, summary.Add(1, NewAscii("summary")))

	mp := NewMap()
	require.NoError(t, mp.SetKeyFieldID(3))
	require.NoError(t, mp.SetTotalCountHint(3))
	require.NoError(t, mp.SetSummary(summary))

	for i, key := range []string{"A", "B"} {
		row := NewFieldList()
		require.NoError(t, row.Add(22, NewUInt(uint64(i+100))))
		require.NoError(t, mp.Add(NewAscii(key), ActionAdd, row, nil))
	}
	require.NoError(t, mp.Add(NewAscii("C"), ActionDelete, nil, []byte{0x01, 0x02}))

	dm := m.Decode(wire.TypeMap, complete(t, mp)).(*Map)
	require.Equal(t, TypeAscii, dm.KeyType())
	require.Equal(t, TypeFieldList, dm.PayloadType())
	fid, ok := dm.KeyFieldID()
	require.True(t, ok)
	require.Equal(t, int16(3), fid)
	hint, ok := dm.TotalCountHint()
	require.True(t, ok)
	require.Equal(t, uint32(3), hint)

	sum, ok := dm.Summary().(*FieldList)
	require.True(t, ok)
	se, ok := sum.Field(1)
	require.True(t, ok)
	require.Equal(t, "summary", se.Load().String())

	require.Equal(t, 3, dm.Len())
	entries := dm.Entries()
	require.Equal(t, "A", entries[0].Key().String())
	require.Equal(t, ActionAdd, entries[0].Action())
	row := entries[1].Load().(*FieldList)
	f, ok := row.Field(22)
	require.True(t, ok)
	require.Equal(t, uint64(101), f.Load().(*UInt).Uint64())

	require.Equal(t, ActionDelete, entries[2].Action())
	require.Equal(t, TypeNoData, entries[2].LoadType())
	require.Equal(t, []byte{0x01, 0x02}, entries[2].PermData())
}

func TestMapKeyTypeIsFixedByFirstEntry(t *testing.T) {
	testlog.Start(t)
	mp := NewMap()
	require.NoError(t, mp.Add(NewAscii("A"), ActionAdd, NewFieldList(), nil))

	err := mp.Add(NewUInt(1), ActionAdd, NewFieldList(), nil)
	require.True(t, IsUsage(err, InvalidUsage))
	require.Equal(t, 1, mp.Len())

	err = mp.Add(NewAscii("B"), ActionAdd, NewElementList(), nil)
	require.True(t, IsUsage(err, InvalidUsage))
	require.Equal(t, 1, mp.Len())

	require.True(t, IsUsage(mp.Add(NewAscii("B"), ActionSet, NewFieldList(), nil), OutOfRange))
	require.True(t, IsUsage(mp.Add(NewAscii("B"), ActionUpdate, nil, nil), InvalidUsage))
	require.True(t, IsUsage(mp.Add(NewFieldList(), ActionAdd, NewFieldList(), nil), InvalidUsage))
	require.Equal(t, 1, mp.Len())
}

func TestEmptyContainers(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{})

	_, err := NewMap().Complete()
	require.True(t, IsUsage(err, InvalidUsage))
	_, err = NewVector().Complete()
	require.True(t, IsUsage(err, InvalidUsage))
	_, err = NewSeries().Complete()
	require.True(t, IsUsage(err, InvalidUsage))
	_, err = NewFilterList().Complete()
	require.True(t, IsUsage(err, InvalidUsage))

	fl := m.Decode(wire.TypeFieldList, complete(t, NewFieldList())).(*FieldList)
	require.Equal(t, wire.Success, fl.Status())
	require.True(t, fl.IsEmpty())

	el := m.Decode(wire.TypeElementList, complete(t, NewElementList())).(*ElementList)
	require.True(t, el.IsEmpty())
}

func TestFilterListRoundTrip(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{})

	fields := NewFieldList()
	require.NoError(t, fields.Add(1, NewInt(5)))
	elems := NewElementList()
	require.NoError(t, elems.Add("Name", NewAscii("svc")))

	l := NewFilterList()
	require.NoError(t, l.SetTotalCountHint(3))
	require.True(t, IsUsage(NewFilterList().SetTotalCountHint(256), OutOfRange))
	require.NoError(t, l.Add(1, ActionSet, elems, nil))
	require.NoError(t, l.Add(2, ActionUpdate, fields, []byte{9}))
	require.NoError(t, l.Add(3, ActionClear, nil, nil))
	require.True(t, IsUsage(l.Add(4, ActionAdd, fields, nil), OutOfRange))
	require.True(t, IsUsage(l.Add(4, ActionSet, nil, nil), InvalidUsage))

	dl := m.Decode(wire.TypeFilterList, complete(t, l)).(*FilterList)
	require.Equal(t, TypeElementList, dl.PayloadType())
	require.Equal(t, 3, dl.Len())
	es := dl.Entries()
	require.Equal(t, uint8(1), es[0].FilterID())
	require.Equal(t, TypeElementList, es[0].LoadType())
	require.Equal(t, TypeFieldList, es[1].LoadType())
	require.Equal(t, []byte{9}, es[1].PermData())
	require.Equal(t, ActionClear, es[2].Action())
	require.Equal(t, TypeNoData, es[2].LoadType())
}

func TestVectorRoundTrip(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{})

	v := NewVector()
	require.NoError(t, v.SetSortable(true))
	for i := uint32(0); i < 3; i++ {
		row := NewElementList()
		require.NoError(t, row.Add("n", NewUInt(uint64(i))))
		require.NoError(t, v.Add(i*100, ActionSet, row, nil))
	}
	require.NoError(t, v.Add(1<<20, ActionDelete, nil, nil))
	require.True(t, IsUsage(v.Add(wire.MaxU30+1, ActionSet, NewElementList(), nil), OutOfRange))
	require.True(t, IsUsage(v.Add(1, ActionSet, NewFieldList(), nil), InvalidUsage))
	require.True(t, IsUsage(v.Add(1, ActionAdd, NewElementList(), nil), OutOfRange))

	dv := m.Decode(wire.TypeVector, complete(t, v)).(*Vector)
	require.True(t, dv.Sortable())
	require.Equal(t, TypeElementList, dv.PayloadType())
	require.Equal(t, 4, dv.Len())
	for i, e := range dv.All() {
		if i == 3 {
			require.Equal(t, uint32(1<<20), e.Position())
			require.Equal(t, ActionDelete, e.Action())
			require.Equal(t, TypeNoData, e.LoadType())
			continue
		}
		require.Equal(t, uint32(i*100), e.Position())
		n, ok := e.Load().(*ElementList).Element("n")
		require.True(t, ok)
		require.Equal(t, uint64(i), n.Load().(*UInt).Uint64())
	}
}

func TestVectorNilFirstPayloadFixesNoData(t *testing.T) {
	testlog.Start(t)
	v := NewVector()
	require.NoError(t, v.Add(0, ActionClear, nil, nil))
	require.Equal(t, TypeNoData, v.PayloadType())
	require.True(t, IsUsage(v.Add(1, ActionSet, NewFieldList(), nil), InvalidUsage))
}

func TestSeriesWithSetDefinitions(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{})

	defs := NewElementSetDefs()
	require.NoError(t, defs.Add(1,
		ElementSetDefEntry{Name: "BID", Type: TypeReal},
		ElementSetDefEntry{Name: "ASK", Type: TypeReal},
	))

	s := NewSeries()
	require.NoError(t, s.SetElementSetDefs(defs))
	require.True(t, IsUsage(s.Add(NewFieldList()), InvalidUsage))
	for i := int64(1); i <= 2; i++ {
		row := NewElementList()
		bid := mustData[*Real](t)(NewReal(100*i, Exponent0))
		ask := mustData[*Real](t)(NewReal(100*i+1, Exponent0))
		require.NoError(t, row.AddSetData(defs, 1, bid, ask))
		require.NoError(t, row.Add("VOL", NewUInt(uint64(i))))
		require.NoError(t, s.Add(row))
	}

	ds := m.Decode(wire.TypeSeries, complete(t, s)).(*Series)
	require.Equal(t, 2, ds.Len())
	row := ds.Entries()[1].Load().(*ElementList)
	require.Equal(t, wire.Success, row.Status())
	require.Equal(t, 3, row.Len())
	ask, ok := row.Element("ASK")
	require.True(t, ok)
	require.Equal(t, int64(201), ask.Load().(*Real).Mantissa())
	vol, ok := row.Element("VOL")
	require.True(t, ok)
	require.Equal(t, uint64(2), vol.Load().(*UInt).Uint64())
}

func TestMapWithFieldSetDefinitions(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{})

	defs := NewFieldSetDefs()
	require.NoError(t, defs.Add(3, FieldSetDefEntry{FieldID: 22, Type: TypeUInt}))

	mp := NewMap()
	require.NoError(t, mp.SetFieldSetDefs(defs))
	row := NewFieldList()
	require.NoError(t, row.AddSetData(defs, 3, NewUInt(9)))
	require.NoError(t, mp.Add(NewUInt(1), ActionAdd, row, nil))

	dm := m.Decode(wire.TypeMap, complete(t, mp)).(*Map)
	dr := dm.Entries()[0].Load().(*FieldList)
	f, ok := dr.Field(22)
	require.True(t, ok)
	require.Equal(t, uint64(9), f.Load().(*UInt).Uint64())
}

func TestCompleteIsIdempotent(t *testing.T) {
	testlog.Start(t)
	l := NewFieldList()
	require.NoError(t, l.Add(1, NewInt(1)))
	first := complete(t, l)
	second := complete(t, l)
	require.Equal(t, first, second)
	require.Same(t, &first[0], &second[0])

	require.True(t, IsUsage(l.Add(2, NewInt(2)), InvalidUsage))

	// Clear hands the buffer back; first is no longer valid after it.
	want := append([]byte(nil), first...)
	l.Clear()
	require.Equal(t, 0, l.Len())
	require.NoError(t, l.Add(2, NewInt(2)))
	require.NotEqual(t, want, complete(t, l))
}

func TestLazyFillHappensOnce(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{})
	l := NewFieldList()
	require.NoError(t, l.Add(1, NewInt(1)))
	require.NoError(t, l.Add(2, NewInt(2)))

	dl := m.Decode(wire.TypeFieldList, complete(t, l)).(*FieldList)
	require.Equal(t, 0, dl.FillCount())
	for i := 0; i < 3; i++ {
		require.Equal(t, 2, dl.Len())
	}
	_ = dl.Entries()
	require.Equal(t, 1, dl.FillCount())
}

func TestTruncatedEntryFailsAlone(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{})
	l := NewFieldList()
	require.NoError(t, l.Add(1, NewAscii("ok")))
	require.NoError(t, l.Add(2, NewInt(5)))
	b := complete(t, l)

	dl := m.Decode(wire.TypeFieldList, b[:len(b)-1]).(*FieldList)
	require.Equal(t, wire.Success, dl.Status())
	require.Equal(t, 2, dl.Len())

	first, _ := dl.At(0)
	require.Equal(t, "ok", first.Load().String())
	_, failed := first.ErrorCode()
	require.False(t, failed)

	second, _ := dl.At(1)
	code, failed := second.ErrorCode()
	require.True(t, failed)
	require.Equal(t, ErrorIncompleteData, code)
	require.Equal(t, TypeError, second.LoadType())
}

func TestNoDataAndSetSkipped(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{})

	empty := m.Decode(wire.TypeFieldList, nil).(*FieldList)
	require.Equal(t, wire.NoData, empty.Status())
	require.Equal(t, Blank, empty.Code())
	require.Equal(t, 0, empty.Len())

	defs := NewFieldSetDefs()
	require.NoError(t, defs.Add(1, FieldSetDefEntry{FieldID: 1, Type: TypeInt}))
	l := NewFieldList()
	require.NoError(t, l.AddSetData(defs, 1, NewInt(5)))

	skipped := m.Decode(wire.TypeFieldList, complete(t, l)).(*FieldList)
	require.Equal(t, wire.SetSkipped, skipped.Status())
	require.Equal(t, 1, skipped.Len())
	e, _ := skipped.At(0)
	code, failed := e.ErrorCode()
	require.True(t, failed)
	require.Equal(t, ErrorNoSetDefinition, code)
}

func TestTruncatedHeaderYieldsOneErrorEntry(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{})
	mp := NewMap()
	require.NoError(t, mp.SetKeyFieldID(3))
	require.NoError(t, mp.Add(NewUInt(1), ActionAdd, NewFieldList(), nil))
	b := complete(t, mp)

	dm := m.Decode(wire.TypeMap, b[:2]).(*Map)
	require.Equal(t, wire.IncompleteData, dm.Status())
	require.Equal(t, 1, dm.Len())
	code, failed := dm.Entries()[0].ErrorCode()
	require.True(t, failed)
	require.Equal(t, ErrorIncompleteData, code)
}

func TestNestingDepthIsBounded(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{MaxDepth: 2})

	inner := NewFieldList()
	require.NoError(t, inner.Add(1, NewInt(1)))
	mid := NewElementList()
	require.NoError(t, mid.Add("inner", inner))
	outer := NewFieldList()
	require.NoError(t, outer.Add(1, mid))

	dl := m.Decode(wire.TypeFieldList, complete(t, outer)).(*FieldList)
	e, _ := dl.At(0)
	dm := e.Load().(*ElementList)
	require.Equal(t, wire.Success, dm.Status())
	ie, _ := dm.At(0)
	di := ie.Load().(*FieldList)
	require.Equal(t, wire.IteratorOverrun, di.Status())
	require.Equal(t, 1, di.Len())
	code, _ := di.Entries()[0].ErrorCode()
	require.Equal(t, ErrorIteratorOverrun, code)
}

func TestEncodeBufferGrowth(t *testing.T) {
	testlog.Start(t)
	buffers := pool.NewBufferPool(64, 1<<20)
	l := NewFieldList(WithBuffers(buffers, 64))
	value := NewAscii(strings.Repeat("x", 100))
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Add(int16(i), value))
	}
	b := complete(t, l)
	require.Greater(t, len(b), 10*1024)
	require.Positive(t, l.enc.grows)

	c := l.enc.capacity()
	require.GreaterOrEqual(t, c, len(b))
	require.Zero(t, c%64)
	require.Zero(t, (c/64)&(c/64-1), "capacity %d is not 64 times a power of two", c)

	m := NewManager(Options{})
	dl := m.Decode(wire.TypeFieldList, b).(*FieldList)
	require.Equal(t, 100, dl.Len())
	last, _ := dl.At(99)
	require.Equal(t, int16(99), last.FieldID())
	require.Equal(t, value.String(), last.Load().String())
}

func TestDictionaryTypedFields(t *testing.T) {
	testlog.Start(t)
	dict, err := dictionary.Load(strings.NewReader(`
[[field]]
id = 4
name = "RDN_EXCHID"
type = "ENUM"

[[field]]
id = 22
name = "BID"
type = "REAL"

[[enum]]
fid = 4
value = 1
display = "ASE"
`))
	require.NoError(t, err)

	l := NewFieldList(WithDictionary(dict))
	require.NoError(t, l.Add(4, NewEnum(1)))
	require.NoError(t, l.Add(22, mustData[*Real](t)(NewReal(5, Exponent0))))
	require.NoError(t, l.Add(99, NewInt(3)))
	b := complete(t, l)

	plain := NewManager(Options{})
	dl := plain.Decode(wire.TypeFieldList, b).(*FieldList)
	require.Equal(t, 3, dl.Len())
	e, _ := dl.At(0)
	code, failed := e.ErrorCode()
	require.True(t, failed)
	require.Equal(t, ErrorNoDictionary, code)
	e, _ = dl.At(2)
	require.Equal(t, "3", e.Load().String())

	withDict := NewManager(Options{Dictionary: dict})
	dl = withDict.Decode(wire.TypeFieldList, b).(*FieldList)
	e, _ = dl.At(0)
	require.Equal(t, "RDN_EXCHID", e.Name())
	require.Equal(t, "ASE", e.Load().String())
	e, _ = dl.At(1)
	require.Equal(t, "5", e.Load().String())

	other := dictionary.New()
	require.NoError(t, other.Add(dictionary.Field{ID: 1, Name: "X", Type: wire.TypeInt}))
	dl = NewManager(Options{Dictionary: other}).Decode(wire.TypeFieldList, b).(*FieldList)
	e, _ = dl.At(1)
	code, _ = e.ErrorCode()
	require.Equal(t, ErrorFieldIDNotFound, code)
}

func TestDecodedContainersAreReadOnly(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{})
	l := NewFieldList()
	require.NoError(t, l.Add(1, NewInt(1)))
	dl := m.Decode(wire.TypeFieldList, complete(t, l)).(*FieldList)
	require.True(t, IsUsage(dl.Add(2, NewInt(2)), InvalidUsage))
	b, err := dl.Complete()
	require.NoError(t, err)
	require.Equal(t, complete(t, l), b)
}

func TestHeaderSettersMustPrecedeEntries(t *testing.T) {
	testlog.Start(t)
	l := NewFieldList()
	require.NoError(t, l.Add(1, NewInt(1)))
	require.True(t, IsUsage(l.SetInfo(1, 1), InvalidUsage))

	mp := NewMap()
	require.NoError(t, mp.Add(NewUInt(1), ActionAdd, NewFieldList(), nil))
	require.True(t, IsUsage(mp.SetTotalCountHint(1), InvalidUsage))
	require.True(t, IsUsage(NewMap().SetTotalCountHint(wire.MaxU30+1), OutOfRange))
}

func TestMapKeyLengthIsBounded(t *testing.T) {
	testlog.Start(t)
	mp := NewMap()
	err := mp.Add(NewAscii(strings.Repeat("k", 40000)), ActionAdd, NewFieldList(), nil)
	require.True(t, IsUsage(err, OutOfRange), "%v", err)
	require.Equal(t, 0, mp.Len())

	key := NewAscii(strings.Repeat("k", wire.MaxU15))
	require.NoError(t, mp.Add(key, ActionAdd, NewFieldList(), nil))
	dm := NewManager(Options{}).Decode(wire.TypeMap, complete(t, mp)).(*Map)
	require.Equal(t, wire.MaxU15, len(dm.Entries()[0].Key().String()))
}

func TestSetDefinitionCountIsBounded(t *testing.T) {
	testlog.Start(t)
	fields := NewFieldSetDefs()
	elems := NewElementSetDefs()
	for id := uint16(0); id < 255; id++ {
		require.NoError(t, fields.Add(id, FieldSetDefEntry{FieldID: 1, Type: TypeInt}))
		require.NoError(t, elems.Add(id, ElementSetDefEntry{Name: "a", Type: TypeInt}))
	}
	err := fields.Add(255, FieldSetDefEntry{FieldID: 1, Type: TypeInt})
	require.True(t, IsUsage(err, OutOfRange), "%v", err)
	err = elems.Add(255, ElementSetDefEntry{Name: "a", Type: TypeInt})
	require.True(t, IsUsage(err, OutOfRange), "%v", err)
	require.Equal(t, 255, fields.Len())
	require.Equal(t, 255, elems.Len())

	s := NewSeries()
	require.NoError(t, s.SetFieldSetDefs(fields))
	row := NewFieldList()
	require.NoError(t, row.AddSetData(fields, 254, NewInt(3)))
	require.NoError(t, s.Add(row))
	ds := NewManager(Options{}).Decode(wire.TypeSeries, complete(t, s)).(*Series)
	require.Equal(t, wire.Success, ds.Status())
	f, ok := ds.Entries()[0].Load().(*FieldList).Field(1)
	require.True(t, ok)
	require.Equal(t, "3", f.Load().String())
}

func TestTruncatedSetDefinitions(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{})

	// One field set definition whose only entry lost its type byte.
	series := []byte{flagSetDefs, 5, 1, 1, 1, 0x00, 0x16, byte(wire.TypeFieldList)}
	ds := m.Decode(wire.TypeSeries, series).(*Series)
	require.Equal(t, wire.IncompleteData, ds.Status())
	require.Equal(t, 1, ds.Len())
	code, failed := ds.Entries()[0].ErrorCode()
	require.True(t, failed)
	require.Equal(t, ErrorIncompleteData, code)

	vector := []byte{flagSetDefs, 5, 1, 1, 1, 1, 'A', byte(wire.TypeElementList)}
	dv := m.Decode(wire.TypeVector, vector).(*Vector)
	require.Equal(t, wire.IncompleteData, dv.Status())
	code, _ = dv.Entries()[0].ErrorCode()
	require.Equal(t, ErrorIncompleteData, code)
}

func TestEncoderOverflowIsReported(t *testing.T) {
	testlog.Start(t)
	var e encoder
	err := e.write(nil, func(w *wire.Writer) {
		w.Uint8(1)
		w.U15rb(wire.MaxU15 + 1)
	})
	require.True(t, IsUsage(err, OutOfRange), "%v", err)

	require.NoError(t, e.write(nil, func(w *wire.Writer) { w.Uint8(2) }))
	b, err := e.finish(TypeFieldList, nil)
	require.NoError(t, err)
	require.Equal(t, []byte{2}, b)
	e.release()
}

func TestMapKeysOfEveryKeyableType(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{})
	keyed := 0
	for _, key := range sampleScalars(t) {
		dt := key.DataType()
		if !dt.keyable() {
			continue
		}
		keyed++
		t.Run(dt.String(), func(t *testing.T) {
			row := NewFieldList()
			require.NoError(t, row.Add(1, NewUInt(1)))
			mp := NewMap()
			require.NoError(t, mp.Add(key, ActionAdd, row, nil))

			dm := m.Decode(wire.TypeMap, complete(t, mp)).(*Map)
			require.Equal(t, dt, dm.KeyType())
			require.Equal(t, 1, dm.Len())
			e := dm.Entries()[0]
			_, failed := e.ErrorCode()
			require.False(t, failed)
			require.Equal(t, dt, e.Key().DataType())
			require.Equal(t, key.String(), e.Key().String())
		})
	}
	require.Greater(t, keyed, 10)
}

// nestedSample is a field list carrying every sample scalar, fid i+1 for
// sample i.
func nestedSample(t *testing.T) *FieldList {
	t.Helper()
	l := NewFieldList()
	for i, v := range sampleScalars(t) {
		require.NoError(t, l.Add(int16(i+1), v))
	}
	return l
}

func requireSample(t *testing.T, d Data) {
	t.Helper()
	values := sampleScalars(t)
	l, ok := d.(*FieldList)
	require.True(t, ok, "payload is %s", d.DataType())
	require.Equal(t, wire.Success, l.Status())
	require.Equal(t, len(values), l.Len())
	for i, e := range l.All() {
		_, failed := e.ErrorCode()
		require.False(t, failed, "fid %d", e.FieldID())
		require.Equal(t, values[i].DataType(), e.LoadType())
		require.Equal(t, values[i].String(), e.Load().String())
	}
}

func TestNestedSampleInEveryContainer(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{})

	s := NewSeries()
	require.NoError(t, s.Add(nestedSample(t)))
	require.NoError(t, s.Add(nestedSample(t)))
	ds := m.Decode(wire.TypeSeries, complete(t, s)).(*Series)
	require.Equal(t, 2, ds.Len())
	for _, e := range ds.Entries() {
		requireSample(t, e.Load())
	}

	v := NewVector()
	require.NoError(t, v.Add(7, ActionSet, nestedSample(t), nil))
	require.NoError(t, v.Add(9, ActionUpdate, nestedSample(t), []byte{1}))
	dv := m.Decode(wire.TypeVector, complete(t, v)).(*Vector)
	require.Equal(t, 2, dv.Len())
	for _, e := range dv.Entries() {
		requireSample(t, e.Load())
	}

	fl := NewFilterList()
	require.NoError(t, fl.Add(1, ActionSet, nestedSample(t), nil))
	require.NoError(t, fl.Add(2, ActionUpdate, nestedSample(t), nil))
	dl := m.Decode(wire.TypeFilterList, complete(t, fl)).(*FilterList)
	require.Equal(t, 2, dl.Len())
	for _, e := range dl.Entries() {
		requireSample(t, e.Load())
	}
}
