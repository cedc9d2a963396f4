// Package dictionary maps field ids to the names and wire types the codec needs
// to decode field lists that omit per-entry types.
package dictionary

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/danmuck/omm/internal/logging"
	"github.com/danmuck/omm/internal/protocol/wire"
)

var (
	ErrDuplicateField = errors.New("dictionary: duplicate field")
	ErrInvalidField   = errors.New("dictionary: invalid field")
)

// Field describes one dictionary field.
type Field struct {
	ID       int16
	Name     string
	Type     wire.Type
	RippleTo int16
}

// Dictionary is read-only once loaded and safe for concurrent readers.
type Dictionary struct {
	byID   map[int16]Field
	byName map[string]int16
	enums  map[int16]map[uint16]string
}

func New() *Dictionary {
	return &Dictionary{
		byID:   make(map[int16]Field),
		byName: make(map[string]int16),
		enums:  make(map[int16]map[uint16]string),
	}
}

// Add registers f. Ids and names must be unique.
func (d *Dictionary) Add(f Field) error {
	if f.Name == "" {
		return errors.Wrapf(ErrInvalidField, "fid %d has no name", f.ID)
	}
	if !f.Type.Known() {
		return errors.Wrapf(ErrInvalidField, "fid %d (%s) type %s", f.ID, f.Name, f.Type)
	}
	if _, ok := d.byID[f.ID]; ok {
		return errors.Wrapf(ErrDuplicateField, "fid %d", f.ID)
	}
	if _, ok := d.byName[f.Name]; ok {
		return errors.Wrapf(ErrDuplicateField, "name %q", f.Name)
	}
	d.byID[f.ID] = f
	d.byName[f.Name] = f.ID
	return nil
}

// AddEnum registers the display text of one enum value.
func (d *Dictionary) AddEnum(fid int16, value uint16, display string) {
	m, ok := d.enums[fid]
	if !ok {
		m = make(map[uint16]string)
		d.enums[fid] = m
	}
	m[value] = display
}

func (d *Dictionary) Field(fid int16) (Field, bool) {
	if d == nil {
		return Field{}, false
	}
	f, ok := d.byID[fid]
	return f, ok
}

func (d *Dictionary) FieldByName(name string) (Field, bool) {
	if d == nil {
		return Field{}, false
	}
	fid, ok := d.byName[name]
	if !ok {
		return Field{}, false
	}
	return d.byID[fid], true
}

// EnumDisplay returns the display text for value in field fid.
func (d *Dictionary) EnumDisplay(fid int16, value uint16) (string, bool) {
	if d == nil {
		return "", false
	}
	s, ok := d.enums[fid][value]
	return s, ok
}

func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.byID)
}

// Fields returns every field ordered by id.
func (d *Dictionary) Fields() []Field {
	out := make([]Field, 0, d.Len())
	if d == nil {
		return out
	}
	for _, f := range d.byID {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type fileField struct {
	ID       int16  `toml:"id"`
	Name     string `toml:"name"`
	Type     string `toml:"type"`
	RippleTo int16  `toml:"ripple_to"`
}

type fileEnum struct {
	FID     int16  `toml:"fid"`
	Value   uint16 `toml:"value"`
	Display string `toml:"display"`
}

type file struct {
	Field []fileField `toml:"field"`
	Enum  []fileEnum  `toml:"enum"`
}

// LoadFile reads a TOML dictionary from path.
func LoadFile(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "dictionary: open")
	}
	defer f.Close()
	d, err := Load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "dictionary: %s", path)
	}
	logging.Codec().Debug().Str("path", path).Int("fields", d.Len()).Msg("dictionary loaded")
	return d, nil
}

// Load parses a TOML dictionary:
//
//	[[field]]
//	id = 22
//	name = "BID"
//	type = "REAL"
//	ripple_to = 23
//
//	[[enum]]
//	fid = 4
//	value = 1
//	display = "ASE"
func Load(r io.Reader) (*Dictionary, error) {
	var raw file
	md, err := toml.NewDecoder(r).Decode(&raw)
	if err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}

	d := New()
	for _, ff := range raw.Field {
		t, err := wire.ParseType(ff.Type)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidField, "fid %d (%s): %v", ff.ID, ff.Name, err)
		}
		if err := d.Add(Field{ID: ff.ID, Name: ff.Name, Type: t, RippleTo: ff.RippleTo}); err != nil {
			return nil, err
		}
	}
	for _, e := range raw.Enum {
		if _, ok := d.byID[e.FID]; !ok {
			return nil, errors.Wrapf(ErrInvalidField, "enum for unknown fid %d", e.FID)
		}
		d.AddEnum(e.FID, e.Value, e.Display)
	}
	return d, nil
}
