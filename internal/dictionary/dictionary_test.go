package dictionary

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/omm/internal/protocol/wire"
)

const sample = `
[[field]]
id = 3
name = "DSPLY_NAME"
type = "RMTES_STRING"

[[field]]
id = 4
name = "RDN_EXCHID"
type = "ENUM"

[[field]]
id = 22
name = "BID"
type = "REAL"
ripple_to = 23

[[field]]
id = 23
name = "BID_1"
type = "PRICE"

[[enum]]
fid = 4
value = 1
display = "ASE"
`

func TestLoad(t *testing.T) {
	d, err := Load(strings.NewReader(sample))
	require.NoError(t, err)
	require.Equal(t, 4, d.Len())

	bid, ok := d.Field(22)
	require.True(t, ok)
	require.Equal(t, Field{ID: 22, Name: "BID", Type: wire.TypeReal, RippleTo: 23}, bid)

	byName, ok := d.FieldByName("BID_1")
	require.True(t, ok)
	require.Equal(t, wire.TypeReal, byName.Type)

	display, ok := d.EnumDisplay(4, 1)
	require.True(t, ok)
	require.Equal(t, "ASE", display)
	_, ok = d.EnumDisplay(4, 2)
	require.False(t, ok)

	ids := []int16{}
	for _, f := range d.Fields() {
		ids = append(ids, f.ID)
	}
	require.Equal(t, []int16{3, 4, 22, 23}, ids)
}

func TestLoadRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"unknown type":  "[[field]]\nid = 1\nname = \"X\"\ntype = \"NOPE\"\n",
		"duplicate id":  "[[field]]\nid = 1\nname = \"X\"\ntype = \"INT\"\n[[field]]\nid = 1\nname = \"Y\"\ntype = \"INT\"\n",
		"missing name":  "[[field]]\nid = 1\ntype = \"INT\"\n",
		"unknown key":   "[[field]]\nid = 1\nname = \"X\"\ntype = \"INT\"\nwidth = 3\n",
		"orphan enum":   "[[enum]]\nfid = 9\nvalue = 1\ndisplay = \"A\"\n",
		"invalid toml":  "[[field]\n",
		"duplicate nam": "[[field]]\nid = 1\nname = \"X\"\ntype = \"INT\"\n[[field]]\nid = 2\nname = \"X\"\ntype = \"INT\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(strings.NewReader(body))
			require.Error(t, err)
		})
	}
}

func TestAddDuplicate(t *testing.T) {
	d := New()
	require.NoError(t, d.Add(Field{ID: 1, Name: "A", Type: wire.TypeInt}))
	err := d.Add(Field{ID: 1, Name: "B", Type: wire.TypeInt})
	require.True(t, errors.Is(err, ErrDuplicateField))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fields.toml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))
	d, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, 4, d.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestNilDictionary(t *testing.T) {
	var d *Dictionary
	_, ok := d.Field(1)
	require.False(t, ok)
	require.Equal(t, 0, d.Len())
}
