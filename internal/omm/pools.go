package omm

import (
	"github.com/pkg/errors"

	"github.com/danmuck/omm/internal/pool"
)

// slotRef ties a pooled instance to the manager and arena slot it came from.
// Values built with the New* constructors have a zero slotRef.
type slotRef struct {
	mgr *Manager
	h   pool.Handle
}

func (r *slotRef) ref() *slotRef { return r }

type recyclable interface {
	ref() *slotRef
	reset()
}

// pooled is a Data that lives in a manager pool.
type pooled interface {
	Data
	recyclable
}

type typedPool[T any, P interface {
	*T
	recyclable
}] struct {
	arena *pool.Arena[T]
}

func newTypedPool[T any, P interface {
	*T
	recyclable
}](name string, prealloc int) *typedPool[T, P] {
	return &typedPool[T, P]{
		arena: pool.NewArena(name, func() *T {
			v := new(T)
			P(v).reset()
			return v
		}, func(v *T) { P(v).reset() }, prealloc),
	}
}

func (p *typedPool[T, P]) get(m *Manager) P {
	v, h := p.arena.Acquire()
	pv := P(v)
	*pv.ref() = slotRef{mgr: m, h: h}
	return pv
}

func (p *typedPool[T, P]) put(v P) error {
	return p.arena.Release(v.ref().h)
}

func (p *typedPool[T, P]) live(v recyclable) bool {
	return p.arena.Live(v.ref().h)
}

func (p *typedPool[T, P]) stats() pool.Stats { return p.arena.Stats() }

func (p *typedPool[T, P]) acquireData(m *Manager) pooled {
	d, _ := any(p.get(m)).(pooled)
	return d
}

func (p *typedPool[T, P]) releaseAny(v recyclable) error {
	pv, ok := v.(P)
	if !ok {
		return errors.Wrapf(pool.ErrForeignHandle, "%s", p.arena.Name())
	}
	return p.put(pv)
}

// dataPool is the type-erased view the manager dispatches through.
type dataPool interface {
	acquireData(m *Manager) pooled
	releaseAny(v recyclable) error
	live(v recyclable) bool
	stats() pool.Stats
}

type poolFactory func(prealloc int) dataPool

// dataPools has one factory per DataType.
var dataPools = [numDataTypes]poolFactory{
	TypeNoData: func(n int) dataPool { return newTypedPool[NoData]("nodata", n) },
	TypeError:  func(n int) dataPool { return newTypedPool[Error]("error", n) },

	TypeInt:      func(n int) dataPool { return newTypedPool[Int]("int", n) },
	TypeUInt:     func(n int) dataPool { return newTypedPool[UInt]("uint", n) },
	TypeFloat:    func(n int) dataPool { return newTypedPool[Float]("float", n) },
	TypeDouble:   func(n int) dataPool { return newTypedPool[Double]("double", n) },
	TypeReal:     func(n int) dataPool { return newTypedPool[Real]("real", n) },
	TypeDate:     func(n int) dataPool { return newTypedPool[Date]("date", n) },
	TypeTime:     func(n int) dataPool { return newTypedPool[Time]("time", n) },
	TypeDateTime: func(n int) dataPool { return newTypedPool[DateTime]("datetime", n) },
	TypeQos:      func(n int) dataPool { return newTypedPool[Qos]("qos", n) },
	TypeState:    func(n int) dataPool { return newTypedPool[State]("state", n) },
	TypeEnum:     func(n int) dataPool { return newTypedPool[Enum]("enum", n) },
	TypeArray:    func(n int) dataPool { return newTypedPool[Array]("array", n) },
	TypeBuffer:   func(n int) dataPool { return newTypedPool[Buffer]("buffer", n) },
	TypeAscii:    func(n int) dataPool { return newTypedPool[Ascii]("ascii", n) },
	TypeUtf8:     func(n int) dataPool { return newTypedPool[Utf8]("utf8", n) },
	TypeRmtes:    func(n int) dataPool { return newTypedPool[Rmtes]("rmtes", n) },
	TypeOpaque:   func(n int) dataPool { return newTypedPool[Opaque]("opaque", n) },
	TypeXml:      func(n int) dataPool { return newTypedPool[Xml]("xml", n) },
	TypeAnsiPage: func(n int) dataPool { return newTypedPool[AnsiPage]("ansipage", n) },

	TypeFieldList:   func(n int) dataPool { return newTypedPool[FieldList]("fieldlist", n) },
	TypeElementList: func(n int) dataPool { return newTypedPool[ElementList]("elementlist", n) },
	TypeMap:         func(n int) dataPool { return newTypedPool[Map]("map", n) },
	TypeFilterList:  func(n int) dataPool { return newTypedPool[FilterList]("filterlist", n) },
	TypeVector:      func(n int) dataPool { return newTypedPool[Vector]("vector", n) },
	TypeSeries:      func(n int) dataPool { return newTypedPool[Series]("series", n) },

	TypeReqMsg:     func(n int) dataPool { return newTypedPool[ReqMsg]("reqmsg", n) },
	TypeRefreshMsg: func(n int) dataPool { return newTypedPool[RefreshMsg]("refreshmsg", n) },
	TypeUpdateMsg:  func(n int) dataPool { return newTypedPool[UpdateMsg]("updatemsg", n) },
	TypeStatusMsg:  func(n int) dataPool { return newTypedPool[StatusMsg]("statusmsg", n) },
	TypeGenericMsg: func(n int) dataPool { return newTypedPool[GenericMsg]("genericmsg", n) },
	TypePostMsg:    func(n int) dataPool { return newTypedPool[PostMsg]("postmsg", n) },
	TypeAckMsg:     func(n int) dataPool { return newTypedPool[AckMsg]("ackmsg", n) },
}

// entryPools holds the entry and set definition arenas.
type entryPools struct {
	field   *typedPool[FieldEntry, *FieldEntry]
	element *typedPool[ElementEntry, *ElementEntry]
	mapE    *typedPool[MapEntry, *MapEntry]
	filter  *typedPool[FilterEntry, *FilterEntry]
	vector  *typedPool[VectorEntry, *VectorEntry]
	series  *typedPool[SeriesEntry, *SeriesEntry]

	fieldDefs   *typedPool[FieldSetDefs, *FieldSetDefs]
	elementDefs *typedPool[ElementSetDefs, *ElementSetDefs]
}

func newEntryPools(prealloc int) entryPools {
	return entryPools{
		field:       newTypedPool[FieldEntry]("fieldentry", prealloc),
		element:     newTypedPool[ElementEntry]("elemententry", prealloc),
		mapE:        newTypedPool[MapEntry]("mapentry", prealloc),
		filter:      newTypedPool[FilterEntry]("filterentry", prealloc),
		vector:      newTypedPool[VectorEntry]("vectorentry", prealloc),
		series:      newTypedPool[SeriesEntry]("seriesentry", prealloc),
		fieldDefs:   newTypedPool[FieldSetDefs]("fieldsetdefs", 0),
		elementDefs: newTypedPool[ElementSetDefs]("elementsetdefs", 0),
	}
}

func (e *entryPools) stats() []pool.Stats {
	return []pool.Stats{
		e.field.stats(), e.element.stats(), e.mapE.stats(),
		e.filter.stats(), e.vector.stats(), e.series.stats(),
		e.fieldDefs.stats(), e.elementDefs.stats(),
	}
}
