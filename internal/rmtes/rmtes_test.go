package rmtes

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestHasPartialUpdate(t *testing.T) {
	cases := map[string]bool{
		"plain text":        false,
		"\x1b[12`AB":        true,
		"AB\x1b[3b":         true,
		"\x1b[1x":           false,
		"\x1b[":             false,
		"\x1b0[2`":          false,
		"\x1b%0caf\xc3\xa9": false,
	}
	for in, want := range cases {
		require.Equal(t, want, HasPartialUpdate([]byte(in)), "%q", in)
	}
}

func TestCacheApply(t *testing.T) {
	cases := []struct {
		name   string
		base   string
		update string
		want   string
	}{
		{"cursor overwrite", "ABCDE", "\x1b[2`XY", "ABXYE"},
		{"repeat previous", "xxxx", "\x1b[0`a\x1b[2b", "aaax"},
		{"extend past end", "0123", "\x1b[4`ABCDEFG\x1b[5b", "0123ABCDEFGGGGGG"},
		{"cursor past end pads", "AB", "\x1b[4`Z", "AB  Z"},
		{"two commands", "..........", "\x1b[1`X\x1b[5`Y", ".X...Y...."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var c Cache
			require.NoError(t, c.Apply([]byte(tc.base)))
			require.Equal(t, tc.base, c.String())
			require.NoError(t, c.Apply([]byte(tc.update)))
			require.Equal(t, tc.want, string(c.Bytes()))
			require.Equal(t, tc.want, c.String())
		})
	}
}

func TestFullUpdateReplacesCache(t *testing.T) {
	var c Cache
	require.NoError(t, c.Apply([]byte("first value")))
	require.NoError(t, c.Apply([]byte("second")))
	require.Equal(t, "second", c.String())
	require.Equal(t, 6, c.Len())
}

func TestPartialUpdateNeedsCache(t *testing.T) {
	var c Cache
	err := c.Apply([]byte("\x1b[2`XY"))
	require.True(t, errors.Is(err, ErrInvalidUsage))

	require.NoError(t, c.Apply([]byte("ABCDE")))
	c.Clear()
	require.Zero(t, c.Len())
	err = c.Apply([]byte("\x1b[2`XY"))
	require.True(t, errors.Is(err, ErrInvalidUsage))
}

func TestMalformedPartialLeavesCache(t *testing.T) {
	var c Cache
	require.NoError(t, c.Apply([]byte("ABC")))
	err := c.Apply([]byte("\x1b[1`Q\x1b[2z"))
	require.True(t, errors.Is(err, ErrMalformed))
	require.Equal(t, "ABC", c.String())

	err = c.Apply([]byte("\x1b[1`Q\x1b[2"))
	require.True(t, errors.Is(err, ErrMalformed))
	require.Equal(t, "ABC", c.String())
}

func TestRender(t *testing.T) {
	require.Equal(t, "café", Render([]byte("caf\xe9")))
	require.Equal(t, "café", Render([]byte("\x1b%0caf\xc3\xa9")))
	require.Equal(t, "aé", Render([]byte("\x1b%0a\x1b%@\xe9")))
	require.Equal(t, "XY", Render([]byte("\x1b[2`XY")))
	require.Equal(t, "ab", Render([]byte("a\x1b(Bb")))
	require.Equal(t, "", Render(nil))
	require.Equal(t, "�", Render([]byte("\x1b%0\xff")))
}
