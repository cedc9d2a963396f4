// Package rmtes renders RMTES text and keeps the per-field cache that partial
// updates are applied to.
//
// A partial update is a run of commands against the cached text: ESC [ n `
// moves the cursor to byte n and ESC [ n b repeats the previous byte n times.
// Bytes outside commands overwrite the cache at the cursor.
package rmtes

import (
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

var (
	ErrInvalidUsage = errors.New("rmtes: invalid usage")
	ErrMalformed    = errors.New("rmtes: malformed partial update")
)

const (
	esc      = 0x1B
	lbracket = '['
	cursor   = '`'
	repeat   = 'b'
	shiftIn  = 0x0F
	shiftOut = 0x0E
)

// HasPartialUpdate reports whether b starts a cursor or repeat command before
// any charset switch.
func HasPartialUpdate(b []byte) bool {
	const (
		normal = iota
		sawEsc
		sawBracket
	)
	state := normal
	for _, c := range b {
		switch state {
		case normal:
			if c == esc {
				state = sawEsc
			}
		case sawEsc:
			switch c {
			case lbracket:
				state = sawBracket
			case '0':
				return false
			default:
				state = normal
			}
		case sawBracket:
			switch {
			case c >= '0' && c <= '9':
			case c == cursor || c == repeat:
				return true
			default:
				return false
			}
		}
	}
	return false
}

// Cache holds the current text of one field. The zero Cache is empty.
type Cache struct {
	buf      []byte
	work     []byte
	rendered string
	valid    bool
}

func (c *Cache) Clear() {
	c.buf = c.buf[:0]
	c.rendered = ""
	c.valid = false
}

func (c *Cache) Len() int { return len(c.buf) }

// Bytes returns the cached RMTES bytes. The slice is reused by the next Apply.
func (c *Cache) Bytes() []byte { return c.buf }

// Apply merges b into the cache. A full update replaces the cache; a partial
// update needs a cache to apply to. The cache is unchanged on error.
func (c *Cache) Apply(b []byte) error {
	if !HasPartialUpdate(b) {
		c.buf = append(c.buf[:0], b...)
		c.valid = false
		return nil
	}
	if len(c.buf) == 0 {
		return errors.Wrap(ErrInvalidUsage, "partial update with no cached value")
	}
	out, err := applyPartial(append(c.work[:0], c.buf...), b)
	if err != nil {
		return err
	}
	c.buf, c.work = out, c.buf
	c.valid = false
	return nil
}

func applyPartial(cache, b []byte) ([]byte, error) {
	pos, n := 0, 0
	var prev byte
	put := func(v byte) {
		if pos < len(cache) {
			cache[pos] = v
		} else {
			cache = append(cache, v)
		}
		pos++
	}
	for i := 0; i < len(b); i++ {
		c := b[i]
		if c != esc {
			prev = c
			put(c)
			continue
		}
		i++
		if i >= len(b) {
			return nil, errors.Wrapf(ErrMalformed, "escape at end of update")
		}
		if b[i] != lbracket {
			put(esc)
			put(b[i])
			continue
		}
		n = 0
		for i++; i < len(b) && b[i] >= '0' && b[i] <= '9'; i++ {
			n = n*10 + int(b[i]-'0')
		}
		if i >= len(b) {
			return nil, errors.Wrapf(ErrMalformed, "unterminated command")
		}
		switch b[i] {
		case cursor:
			for len(cache) < n {
				cache = append(cache, ' ')
			}
			pos = n
		case repeat:
			for ; n > 0; n-- {
				put(prev)
			}
		default:
			return nil, errors.Wrapf(ErrMalformed, "command byte %#x at %d", b[i], i)
		}
	}
	return cache, nil
}

// String renders the cache, memoized until the next Apply or Clear.
func (c *Cache) String() string {
	if !c.valid {
		c.rendered = Render(c.buf)
		c.valid = true
	}
	return c.rendered
}

// Render converts RMTES bytes to a Go string. ESC % 0 switches to UTF-8 and
// ESC % @ back; outside UTF-8 bytes map to Latin-1. Partial update commands
// and other charset designations are dropped.
func Render(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	utf := false
	start := -1
	flush := func(end int) {
		if start >= 0 {
			sb.WriteString(strings.ToValidUTF8(string(b[start:end]), string(utf8.RuneError)))
			start = -1
		}
	}
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case c == esc:
			flush(i)
			i = skipEscape(b, i, &utf)
		case c == shiftIn || c == shiftOut:
			flush(i)
		case utf:
			if start < 0 {
				start = i
			}
		default:
			sb.WriteRune(rune(c))
		}
	}
	flush(len(b))
	return sb.String()
}

// skipEscape returns the index of the last byte of the sequence at i.
func skipEscape(b []byte, i int, utf *bool) int {
	if i+1 >= len(b) {
		return i
	}
	switch b[i+1] {
	case '%':
		if i+2 < len(b) {
			*utf = b[i+2] == '0'
		}
		return min(i+2, len(b)-1)
	case lbracket:
		j := i + 2
		for j < len(b) && b[j] >= '0' && b[j] <= '9' {
			j++
		}
		return min(j, len(b)-1)
	case '$':
		return min(i+3, len(b)-1)
	case '(', ')', '*', '+':
		return min(i+2, len(b)-1)
	default:
		return i + 1
	}
}
