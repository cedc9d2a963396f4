package omm

import (
	"fmt"

	"github.com/danmuck/omm/internal/dictionary"
)

// Action is what an entry does to the item it keys. Which actions are valid
// depends on the container.
type Action uint8

const (
	ActionNone Action = iota
	ActionUpdate
	ActionSet
	ActionClear
	ActionAdd
	ActionDelete
	ActionInsert
)

var actionNames = [...]string{"None", "Update", "Set", "Clear", "Add", "Delete", "Insert"}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("Action(%d)", uint8(a))
}

const (
	entryActionMask = 0x0F
	entryFlagPerm   = 0x10
	entryFlagType   = 0x20
)

// entryBase is the part every entry kind shares. The payload slot keeps its
// last instance across reuse of the entry.
type entryBase struct {
	slotRef
	action Action
	perm   []byte
	slot   loadSlot
}

func (e *entryBase) Action() Action { return e.action }

// PermData returns the entry's permission data, if any.
func (e *entryBase) PermData() []byte { return e.perm }

// Load returns the entry's payload. Failed entries carry an *Error.
func (e *entryBase) Load() Data { return e.slot.data() }

func (e *entryBase) LoadType() DataType {
	if e.slot.load == nil {
		return TypeNoData
	}
	return e.slot.load.DataType()
}

func (e *entryBase) Code() DataCode {
	if e.slot.load == nil {
		return NoCode
	}
	return e.slot.load.Code()
}

// ErrorCode returns the failure code when the payload could not be decoded.
func (e *entryBase) ErrorCode() (ErrorCode, bool) {
	if err, ok := e.slot.load.(*Error); ok {
		return err.code, true
	}
	return ErrorNone, false
}

func (e *entryBase) resetEntry() {
	e.action = ActionNone
	e.perm = nil
	e.slot.clear()
}

type FieldEntry struct {
	entryBase
	fid  int16
	dict *dictionary.Dictionary
}

func (e *FieldEntry) FieldID() int16 { return e.fid }

// Name returns the dictionary name of the field, or "" without a dictionary.
func (e *FieldEntry) Name() string {
	f, _ := e.dict.Field(e.fid)
	return f.Name
}

// RippleTo returns the field the value ripples into, or 0.
func (e *FieldEntry) RippleTo() int16 {
	f, _ := e.dict.Field(e.fid)
	return f.RippleTo
}

func (e *FieldEntry) reset() {
	e.resetEntry()
	e.fid = 0
	e.dict = nil
}

type ElementEntry struct {
	entryBase
	name []byte
}

func (e *ElementEntry) Name() string { return string(e.name) }

func (e *ElementEntry) reset() {
	e.resetEntry()
	e.name = nil
}

type MapEntry struct {
	entryBase
	key loadSlot
}

// Key returns the decoded key.
func (e *MapEntry) Key() Data { return e.key.data() }

func (e *MapEntry) reset() {
	e.resetEntry()
	e.key.clear()
}

type FilterEntry struct {
	entryBase
	id uint8
}

func (e *FilterEntry) FilterID() uint8 { return e.id }

func (e *FilterEntry) reset() {
	e.resetEntry()
	e.id = 0
}

type VectorEntry struct {
	entryBase
	index uint32
}

func (e *VectorEntry) Position() uint32 { return e.index }

func (e *VectorEntry) reset() {
	e.resetEntry()
	e.index = 0
}

type SeriesEntry struct {
	entryBase
}

func (e *SeriesEntry) reset() { e.resetEntry() }
