package omm

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Style colors the parts of a rendered tree. Nil functions render plain text.
type Style struct {
	Label func(a ...any) string
	Key   func(a ...any) string
	Value func(a ...any) string
	Error func(a ...any) string
}

// Render returns d as an indented tree, one line per container, entry and
// message.
func Render(d Data, s Style) string {
	if d == nil {
		return ""
	}
	t := &tree{style: s}
	t.data(d)
	return t.String()
}

type tree struct {
	sb    strings.Builder
	depth int
	style Style
}

func newTree() *tree { return &tree{} }

func (t *tree) String() string { return t.sb.String() }

func paint(f func(a ...any) string, s string) string {
	if f == nil {
		return s
	}
	return f(s)
}

func (t *tree) begin(label string) {
	for i := 0; i < t.depth; i++ {
		t.sb.WriteString("    ")
	}
	t.sb.WriteString(paint(t.style.Label, label))
}

func (t *tree) attr(key string, v any) {
	t.sb.WriteByte(' ')
	t.sb.WriteString(paint(t.style.Key, key))
	t.sb.WriteString(`="`)
	t.sb.WriteString(paint(t.style.Value, fmt.Sprint(v)))
	t.sb.WriteByte('"')
}

func (t *tree) end() { t.sb.WriteByte('\n') }

func (t *tree) line(label string) {
	t.begin(label)
	t.end()
}

// load finishes an entry line that begin and attr started. Nested containers
// and messages are rendered below it and closed with label+"End".
func (t *tree) load(label string, d Data) {
	if d == nil {
		d = &NoData{}
	}
	t.attr("dataType", d.DataType())
	switch v := d.(type) {
	case *Error:
		t.sb.WriteByte(' ')
		t.sb.WriteString(paint(t.style.Error, "errorCode=\""+v.code.String()+"\""))
		t.end()
	case *NoData:
		t.end()
	default:
		if !d.DataType().Container() && !d.DataType().Msg() {
			t.attr("value", d.String())
			t.end()
			return
		}
		t.end()
		t.depth++
		t.data(d)
		t.depth--
		t.line(label + "End")
	}
}

func (t *tree) data(d Data) {
	switch v := d.(type) {
	case *FieldList:
		v.render(t)
	case *ElementList:
		v.render(t)
	case *Map:
		v.render(t)
	case *FilterList:
		v.render(t)
	case *Vector:
		v.render(t)
	case *Series:
		v.render(t)
	case Msg:
		t.msg(v)
	default:
		t.begin(d.DataType().String())
		t.load("", d)
	}
}

func (t *tree) summary(c *containerBase) {
	if d := c.summaryData(); d != nil {
		t.begin("SummaryData")
		t.load("SummaryData", d)
	}
}

func (t *tree) hint(c *containerBase) {
	if n, ok := c.TotalCountHint(); ok {
		t.attr("totalCountHint", n)
	}
}

func (t *tree) perm(b []byte) {
	if b != nil {
		t.attr("permData", hex.EncodeToString(b))
	}
}

func (l *FieldList) render(t *tree) {
	t.begin("FieldList")
	if dictID, num, ok := l.Info(); ok {
		t.attr("FieldListNum", num)
		t.attr("DictionaryId", dictID)
	}
	t.end()
	for _, e := range l.Entries() {
		t.depth++
		t.begin("FieldEntry")
		t.attr("fid", e.fid)
		if name := e.Name(); name != "" {
			t.attr("name", name)
		}
		t.load("FieldEntry", e.Load())
		t.depth--
	}
	t.line("FieldListEnd")
}

func (l *ElementList) render(t *tree) {
	t.begin("ElementList")
	if num, ok := l.Info(); ok {
		t.attr("ElementListNum", num)
	}
	t.end()
	for _, e := range l.Entries() {
		t.depth++
		t.begin("ElementEntry")
		t.attr("name", e.Name())
		t.load("ElementEntry", e.Load())
		t.depth--
	}
	t.line("ElementListEnd")
}

func (m *Map) render(t *tree) {
	t.begin("Map")
	t.hint(&m.containerBase)
	if fid, ok := m.KeyFieldID(); ok {
		t.attr("keyFieldId", fid)
	}
	t.end()
	t.depth++
	t.summary(&m.containerBase)
	for _, e := range m.Entries() {
		t.begin("MapEntry")
		t.attr("action", e.action)
		if k := e.Key(); k != nil {
			t.attr("key", k)
		}
		t.perm(e.perm)
		t.load("MapEntry", e.Load())
	}
	t.depth--
	t.line("MapEnd")
}

func (l *FilterList) render(t *tree) {
	t.begin("FilterList")
	t.hint(&l.containerBase)
	t.end()
	t.depth++
	for _, e := range l.Entries() {
		t.begin("FilterEntry")
		t.attr("action", e.action)
		t.attr("filterId", e.id)
		t.perm(e.perm)
		t.load("FilterEntry", e.Load())
	}
	t.depth--
	t.line("FilterListEnd")
}

func (v *Vector) render(t *tree) {
	t.begin("Vector")
	t.hint(&v.containerBase)
	if v.Sortable() {
		t.attr("sortable", true)
	}
	t.end()
	t.depth++
	t.summary(&v.containerBase)
	for _, e := range v.Entries() {
		t.begin("VectorEntry")
		t.attr("action", e.action)
		t.attr("index", e.index)
		t.perm(e.perm)
		t.load("VectorEntry", e.Load())
	}
	t.depth--
	t.line("VectorEnd")
}

func (s *Series) render(t *tree) {
	t.begin("Series")
	t.hint(&s.containerBase)
	t.end()
	t.depth++
	t.summary(&s.containerBase)
	for _, e := range s.Entries() {
		t.begin("SeriesEntry")
		t.load("SeriesEntry", e.Load())
	}
	t.depth--
	t.line("SeriesEnd")
}

func renderMsg(m Msg) string {
	t := newTree()
	t.msg(m)
	return t.String()
}

func (t *tree) msg(m Msg) {
	label := m.DataType().String()
	t.begin(label)
	t.attr("streamId", m.StreamID())
	t.attr("domain", m.Domain())
	switch v := m.(type) {
	case *ReqMsg:
		if c, n, ok := v.Priority(); ok {
			t.attr("priority", fmt.Sprintf("%d/%d", c, n))
		}
		if q, ok := v.Qos(); ok {
			t.attr("qos", q)
		}
		if !v.IsStreaming() {
			t.attr("streaming", false)
		}
	case *RefreshMsg:
		t.attr("state", v.State())
		if v.IsSolicited() {
			t.attr("solicited", true)
		}
		if v.IsComplete() {
			t.attr("complete", true)
		}
		if n, ok := v.SeqNum(); ok {
			t.attr("seqNum", n)
		}
		if q, ok := v.Qos(); ok {
			t.attr("qos", q)
		}
	case *UpdateMsg:
		t.attr("updateType", v.UpdateType())
		if n, ok := v.SeqNum(); ok {
			t.attr("seqNum", n)
		}
	case *StatusMsg:
		if s, ok := v.State(); ok {
			t.attr("state", s)
		}
	case *GenericMsg:
		if n, ok := v.SeqNum(); ok {
			t.attr("seqNum", n)
		}
	case *PostMsg:
		addr, id := v.PublisherID()
		t.attr("postId", v.PostID())
		t.attr("publisher", fmt.Sprintf("%d/%d", addr, id))
	case *AckMsg:
		t.attr("ackId", v.AckID())
		if c, ok := v.NackCode(); ok {
			t.attr("nackCode", c)
		}
		if s := v.Text(); s != "" {
			t.attr("text", s)
		}
	}
	if name, ok := m.Name(); ok {
		t.attr("name", name)
	}
	if id, ok := m.ServiceID(); ok {
		t.attr("serviceId", id)
	}
	t.end()
	t.depth++
	if a, ok := m.(interface{ Attrib() Data }); ok && a.Attrib() != nil {
		t.begin("Attrib")
		t.load("Attrib", a.Attrib())
	}
	if h := m.ExtendedHeader(); h != nil {
		t.begin("ExtendedHeader")
		t.attr("value", hex.EncodeToString(h))
		t.end()
	}
	t.begin("Payload")
	t.load("Payload", m.Payload())
	t.depth--
	t.line(label + "End")
}
