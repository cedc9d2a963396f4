package omm

import (
	"github.com/danmuck/omm/internal/protocol/wire"
)

// Local set definitions let a container's payloads send a run of values
// without per-entry keys or types. Field-shaped definitions serve field list
// payloads and name-shaped ones element list payloads.

type FieldSetDefEntry struct {
	FieldID int16
	Type    DataType
}

type fieldSetDef struct {
	id      uint16
	entries []FieldSetDefEntry
}

// FieldSetDefs is a set of field-shaped local set definitions.
type FieldSetDefs struct {
	slotRef
	defs []fieldSetDef
}

func NewFieldSetDefs() *FieldSetDefs { return &FieldSetDefs{} }

// maxSetDefs is the most sets one definitions block can carry; the count is a
// single byte on the wire.
const maxSetDefs = 0xFF

// Add defines set id with the given entries, in order.
func (s *FieldSetDefs) Add(id uint16, entries ...FieldSetDefEntry) error {
	if id > wire.MaxU15 {
		return outOfRange("set id %d exceeds %d", id, wire.MaxU15)
	}
	if len(entries) == 0 || len(entries) > 0xFF {
		return outOfRange("set %d has %d entries, want 1-255", id, len(entries))
	}
	if len(s.defs) >= maxSetDefs {
		return outOfRange("set %d: definitions already hold %d sets", id, maxSetDefs)
	}
	if _, ok := s.lookup(id); ok {
		return invalidUsage("set %d is already defined", id)
	}
	for _, e := range entries {
		if !setDefinable(e.Type) {
			return invalidUsage("set %d field %d: %s cannot be set-defined", id, e.FieldID, e.Type)
		}
	}
	s.defs = append(s.defs, fieldSetDef{id: id, entries: append([]FieldSetDefEntry(nil), entries...)})
	return nil
}

func (s *FieldSetDefs) Len() int { return len(s.defs) }

func (s *FieldSetDefs) lookup(id uint16) (*fieldSetDef, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.defs {
		if s.defs[i].id == id {
			return &s.defs[i], true
		}
	}
	return nil, false
}

func (s *FieldSetDefs) reset() {
	for i := range s.defs {
		s.defs[i].entries = s.defs[i].entries[:0]
	}
	s.defs = s.defs[:0]
}

func (s *FieldSetDefs) appendTo(dst []byte) []byte {
	dst = append(dst, byte(len(s.defs)))
	for _, d := range s.defs {
		dst = appendU15(dst, d.id)
		dst = append(dst, byte(len(d.entries)))
		for _, e := range d.entries {
			dst = append(dst, byte(uint16(e.FieldID)>>8), byte(e.FieldID), byte(e.Type.Wire()))
		}
	}
	return dst
}

func (s *FieldSetDefs) decode(b []byte) wire.Status {
	r := wire.NewReader(b)
	n := int(r.Uint8())
	for i := 0; i < n && !r.Failed(); i++ {
		id := r.U15rb()
		count := int(r.Uint8())
		var d *fieldSetDef
		if i < cap(s.defs) {
			s.defs = s.defs[:i+1]
			d = &s.defs[i]
			d.id = id
			d.entries = d.entries[:0]
		} else {
			s.defs = append(s.defs, fieldSetDef{id: id})
			d = &s.defs[i]
		}
		for j := 0; j < count && !r.Failed(); j++ {
			fid := r.Int16()
			t := wire.Type(r.Uint8())
			if r.Failed() {
				return wire.IncompleteData
			}
			dt, ok := DataTypeOf(t)
			if !ok {
				return wire.UnsupportedDataType
			}
			d.entries = append(d.entries, FieldSetDefEntry{FieldID: fid, Type: dt})
		}
	}
	return r.Status()
}

type ElementSetDefEntry struct {
	Name string
	Type DataType
}

type elementSetDef struct {
	id      uint16
	entries []ElementSetDefEntry
}

// ElementSetDefs is a set of name-shaped local set definitions.
type ElementSetDefs struct {
	slotRef
	defs []elementSetDef
}

func NewElementSetDefs() *ElementSetDefs { return &ElementSetDefs{} }

func (s *ElementSetDefs) Add(id uint16, entries ...ElementSetDefEntry) error {
	if id > wire.MaxU15 {
		return outOfRange("set id %d exceeds %d", id, wire.MaxU15)
	}
	if len(entries) == 0 || len(entries) > 0xFF {
		return outOfRange("set %d has %d entries, want 1-255", id, len(entries))
	}
	if len(s.defs) >= maxSetDefs {
		return outOfRange("set %d: definitions already hold %d sets", id, maxSetDefs)
	}
	if _, ok := s.lookup(id); ok {
		return invalidUsage("set %d is already defined", id)
	}
	for _, e := range entries {
		if !setDefinable(e.Type) {
			return invalidUsage("set %d element %q: %s cannot be set-defined", id, e.Name, e.Type)
		}
		if len(e.Name) > wire.MaxU15 {
			return outOfRange("set %d element name length %d", id, len(e.Name))
		}
	}
	s.defs = append(s.defs, elementSetDef{id: id, entries: append([]ElementSetDefEntry(nil), entries...)})
	return nil
}

func (s *ElementSetDefs) Len() int { return len(s.defs) }

func (s *ElementSetDefs) lookup(id uint16) (*elementSetDef, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.defs {
		if s.defs[i].id == id {
			return &s.defs[i], true
		}
	}
	return nil, false
}

func (s *ElementSetDefs) reset() {
	for i := range s.defs {
		s.defs[i].entries = s.defs[i].entries[:0]
	}
	s.defs = s.defs[:0]
}

func (s *ElementSetDefs) appendTo(dst []byte) []byte {
	dst = append(dst, byte(len(s.defs)))
	for _, d := range s.defs {
		dst = appendU15(dst, d.id)
		dst = append(dst, byte(len(d.entries)))
		for _, e := range d.entries {
			dst = appendU15(dst, uint16(len(e.Name)))
			dst = append(dst, e.Name...)
			dst = append(dst, byte(e.Type.Wire()))
		}
	}
	return dst
}

func (s *ElementSetDefs) decode(b []byte) wire.Status {
	r := wire.NewReader(b)
	n := int(r.Uint8())
	for i := 0; i < n && !r.Failed(); i++ {
		id := r.U15rb()
		count := int(r.Uint8())
		var d *elementSetDef
		if i < cap(s.defs) {
			s.defs = s.defs[:i+1]
			d = &s.defs[i]
			d.id = id
			d.entries = d.entries[:0]
		} else {
			s.defs = append(s.defs, elementSetDef{id: id})
			d = &s.defs[i]
		}
		for j := 0; j < count && !r.Failed(); j++ {
			name := r.Buffer15()
			t := wire.Type(r.Uint8())
			if r.Failed() {
				return wire.IncompleteData
			}
			dt, ok := DataTypeOf(t)
			if !ok {
				return wire.UnsupportedDataType
			}
			d.entries = append(d.entries, ElementSetDefEntry{Name: string(name), Type: dt})
		}
	}
	return r.Status()
}

// setDefinable reports whether values of t may appear in set data.
func setDefinable(t DataType) bool {
	return t.Scalar() || t.Container()
}

// setDefsOwner is embedded by the containers that can declare local set
// definitions for their payloads.
type setDefsOwner struct {
	encField *FieldSetDefs
	encElem  *ElementSetDefs

	fieldDefs *FieldSetDefs
	elemDefs  *ElementSetDefs
}

func (o *setDefsOwner) setFieldDefs(c *containerBase, dt DataType, defs *FieldSetDefs) error {
	if err := c.checkHeaderOpen(dt, "set definitions"); err != nil {
		return err
	}
	if defs == nil || defs.Len() == 0 {
		return invalidUsage("%s: empty field set definitions", dt)
	}
	if o.encElem != nil {
		return invalidUsage("%s: field and element set definitions are exclusive", dt)
	}
	o.encField = defs
	c.pending.flags |= flagSetDefs
	c.pending.setDefs = defs.appendTo(c.pending.setDefs[:0])
	return nil
}

func (o *setDefsOwner) setElementDefs(c *containerBase, dt DataType, defs *ElementSetDefs) error {
	if err := c.checkHeaderOpen(dt, "set definitions"); err != nil {
		return err
	}
	if defs == nil || defs.Len() == 0 {
		return invalidUsage("%s: empty element set definitions", dt)
	}
	if o.encField != nil {
		return invalidUsage("%s: field and element set definitions are exclusive", dt)
	}
	o.encElem = defs
	c.pending.flags |= flagSetDefs
	c.pending.setDefs = defs.appendTo(c.pending.setDefs[:0])
	return nil
}

// decodeDefs decodes the header's set definitions; their shape follows the
// declared payload type and anything else is ignored.
func (o *setDefsOwner) decodeDefs(c *containerBase) wire.Status {
	if c.hdr.flags&flagSetDefs == 0 {
		return wire.Success
	}
	m := c.ctx.mgr
	switch c.hdr.payloadType {
	case wire.TypeFieldList:
		o.fieldDefs = m.entries.fieldDefs.get(m)
		return o.fieldDefs.decode(c.hdr.setDefs)
	case wire.TypeElementList:
		o.elemDefs = m.entries.elementDefs.get(m)
		return o.elemDefs.decode(c.hdr.setDefs)
	}
	return wire.Success
}

// payloadCtx is the context the container's entry payloads decode with.
func (o *setDefsOwner) payloadCtx(c *containerBase) decodeCtx {
	return c.ctx.nested(o.fieldDefs, o.elemDefs)
}

func (o *setDefsOwner) releaseDefs(m *Manager) {
	if o.fieldDefs != nil {
		_ = m.entries.fieldDefs.put(o.fieldDefs)
	}
	if o.elemDefs != nil {
		_ = m.entries.elementDefs.put(o.elemDefs)
	}
	o.fieldDefs = nil
	o.elemDefs = nil
}

func (o *setDefsOwner) resetDefs() {
	o.encField = nil
	o.encElem = nil
	o.fieldDefs = nil
	o.elemDefs = nil
}

// appendSetValues writes values in definition order, each u16ob-prefixed.
func appendSetValues(enc *encoder, dst []byte, types []DataType, values []Data) ([]byte, error) {
	if len(values) != len(types) {
		return nil, invalidUsage("set data has %d values for %d definitions", len(values), len(types))
	}
	for i, v := range values {
		if v == nil || v.DataType().Wire() != types[i].Wire() {
			got := "nil"
			if v != nil {
				got = v.DataType().String()
			}
			return nil, invalidUsage("set value %d is %s, definition wants %s", i, got, types[i])
		}
		b, err := enc.payloadOf(v)
		if err != nil {
			return nil, err
		}
		dst = appendU16ob(dst, uint32(len(b)))
		dst = append(dst, b...)
	}
	return dst, nil
}

func appendU16ob(dst []byte, v uint32) []byte {
	switch {
	case v < 0xFE:
		return append(dst, byte(v))
	case v <= 0xFFFF:
		return append(dst, 0xFE, byte(v>>8), byte(v))
	default:
		return append(dst, 0xFF, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}
}

// checkDefsPayload rejects payloads that cannot use the declared definitions.
func (o *setDefsOwner) checkDefsPayload(dt, payload DataType) error {
	switch {
	case o.encField != nil && payload != TypeFieldList:
		return invalidUsage("%s declares field set definitions, payload is %s", dt, payload)
	case o.encElem != nil && payload != TypeElementList:
		return invalidUsage("%s declares element set definitions, payload is %s", dt, payload)
	}
	return nil
}
