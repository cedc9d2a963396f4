package omm

import (
	"encoding/binary"
	"fmt"

	"github.com/danmuck/omm/internal/protocol/wire"
)

// Date fields of zero are allowed; some feeds send a partial date.
type Date struct {
	scalarBase
	year  uint16
	month uint8
	day   uint8
}

func NewDate(year, month, day int) (*Date, error) {
	if err := validDate(year, month, day); err != nil {
		return nil, err
	}
	return &Date{year: uint16(year), month: uint8(month), day: uint8(day)}, nil
}

func validDate(year, month, day int) error {
	if year < 0 || year > 0xFFFF {
		return outOfRange("date year %d not in [0, 65535]", year)
	}
	limit := 31
	switch month {
	case 0, 1, 3, 5, 7, 8, 10, 12:
	case 4, 6, 9, 11:
		limit = 30
	case 2:
		limit = 28
		if leapYear(year) {
			limit = 29
		}
	default:
		return invalidUsage("date %04d-%02d-%02d: month %d not in [0, 12]", year, month, day, month)
	}
	if day < 0 || day > limit {
		return invalidUsage("date %04d-%02d-%02d: day %d not in [0, %d]", year, month, day, day, limit)
	}
	return nil
}

func leapYear(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

func (*Date) DataType() DataType { return TypeDate }
func (d *Date) Year() int        { return int(d.year) }
func (d *Date) Month() int       { return int(d.month) }
func (d *Date) Day() int         { return int(d.day) }

func (d *Date) reset() { d.resetScalar(); d.year, d.month, d.day = 0, 0, 0 }

func (d *Date) String() string {
	if d.code == Blank {
		return blankText
	}
	return d.text()
}

func (d *Date) text() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, d.month, d.day)
}

func (d *Date) decode(b []byte, _ decodeCtx) wire.Status {
	switch len(b) {
	case 0:
		d.code = Blank
		return wire.Success
	case 4:
		d.day, d.month = b[0], b[1]
		d.year = binary.BigEndian.Uint16(b[2:])
		if d.day == 0 && d.month == 0 && d.year == 0 {
			d.code = Blank
		}
		return wire.Success
	default:
		return wire.IncompleteData
	}
}

func (d *Date) payload(scratch []byte) ([]byte, error) {
	if d.code == Blank {
		return scratch[:0], nil
	}
	return d.appendDate(scratch[:0]), nil
}

func (d *Date) appendDate(dst []byte) []byte {
	dst = append(dst, d.day, d.month)
	return binary.BigEndian.AppendUint16(dst, d.year)
}

// Time has nanosecond resolution split the way the wire carries it.
type Time struct {
	scalarBase
	hour, minute, second uint8
	milli, micro, nano   uint16
}

func NewTime(hour, minute, second, milli, micro, nano int) (*Time, error) {
	if err := validTime(hour, minute, second, milli, micro, nano); err != nil {
		return nil, err
	}
	return &Time{
		hour: uint8(hour), minute: uint8(minute), second: uint8(second),
		milli: uint16(milli), micro: uint16(micro), nano: uint16(nano),
	}, nil
}

func validTime(hour, minute, second, milli, micro, nano int) error {
	switch {
	case hour < 0 || hour > 23:
		return invalidUsage("time hour %d not in [0, 23]", hour)
	case minute < 0 || minute > 59:
		return invalidUsage("time minute %d not in [0, 59]", minute)
	case second < 0 || second > 60:
		return invalidUsage("time second %d not in [0, 60]", second)
	case milli < 0 || milli > 999:
		return invalidUsage("time millisecond %d not in [0, 999]", milli)
	case micro < 0 || micro > 999:
		return invalidUsage("time microsecond %d not in [0, 999]", micro)
	case nano < 0 || nano > 999:
		return invalidUsage("time nanosecond %d not in [0, 999]", nano)
	}
	return nil
}

func (*Time) DataType() DataType { return TypeTime }
func (d *Time) Hour() int        { return int(d.hour) }
func (d *Time) Minute() int      { return int(d.minute) }
func (d *Time) Second() int      { return int(d.second) }
func (d *Time) Millisecond() int { return int(d.milli) }
func (d *Time) Microsecond() int { return int(d.micro) }
func (d *Time) Nanosecond() int  { return int(d.nano) }

func (d *Time) reset() {
	d.resetScalar()
	d.hour, d.minute, d.second = 0, 0, 0
	d.milli, d.micro, d.nano = 0, 0, 0
}

func (d *Time) String() string {
	if d.code == Blank {
		return blankText
	}
	return d.text()
}

func (d *Time) text() string {
	return fmt.Sprintf("%02d:%02d:%02d.%03d%03d%03d", d.hour, d.minute, d.second, d.milli, d.micro, d.nano)
}

// Time wire lengths: 2 (h m), 3 (+s), 5 (+ms), 7 (+us), 9 (+ns).
func (d *Time) decode(b []byte, _ decodeCtx) wire.Status {
	if len(b) == 0 {
		d.code = Blank
		return wire.Success
	}
	return d.decodeTime(b)
}

func (d *Time) decodeTime(b []byte) wire.Status {
	switch len(b) {
	case 9:
		d.nano = binary.BigEndian.Uint16(b[7:])
		fallthrough
	case 7:
		d.micro = binary.BigEndian.Uint16(b[5:])
		fallthrough
	case 5:
		d.milli = binary.BigEndian.Uint16(b[3:])
		fallthrough
	case 3:
		d.second = b[2]
		fallthrough
	case 2:
		d.hour, d.minute = b[0], b[1]
		return wire.Success
	default:
		return wire.IncompleteData
	}
}

func (d *Time) payload(scratch []byte) ([]byte, error) {
	if d.code == Blank {
		return scratch[:0], nil
	}
	return d.appendTime(scratch[:0]), nil
}

func (d *Time) appendTime(dst []byte) []byte {
	dst = append(dst, d.hour, d.minute)
	switch {
	case d.nano != 0:
		dst = append(dst, d.second)
		dst = binary.BigEndian.AppendUint16(dst, d.milli)
		dst = binary.BigEndian.AppendUint16(dst, d.micro)
		return binary.BigEndian.AppendUint16(dst, d.nano)
	case d.micro != 0:
		dst = append(dst, d.second)
		dst = binary.BigEndian.AppendUint16(dst, d.milli)
		return binary.BigEndian.AppendUint16(dst, d.micro)
	case d.milli != 0:
		dst = append(dst, d.second)
		return binary.BigEndian.AppendUint16(dst, d.milli)
	case d.second != 0:
		return append(dst, d.second)
	}
	return dst
}

type DateTime struct {
	scalarBase
	date Date
	time Time
}

func NewDateTime(year, month, day, hour, minute, second, milli, micro, nano int) (*DateTime, error) {
	if err := validDate(year, month, day); err != nil {
		return nil, err
	}
	if err := validTime(hour, minute, second, milli, micro, nano); err != nil {
		return nil, err
	}
	dt := &DateTime{}
	dt.date = Date{year: uint16(year), month: uint8(month), day: uint8(day)}
	dt.time = Time{
		hour: uint8(hour), minute: uint8(minute), second: uint8(second),
		milli: uint16(milli), micro: uint16(micro), nano: uint16(nano),
	}
	return dt, nil
}

func (*DateTime) DataType() DataType { return TypeDateTime }

// Date and Time return views of the two halves; they share the DateTime's
// lifetime.
func (d *DateTime) Date() *Date { return &d.date }
func (d *DateTime) Time() *Time { return &d.time }

func (d *DateTime) reset() {
	d.resetScalar()
	d.date.reset()
	d.time.reset()
}

func (d *DateTime) String() string {
	if d.code == Blank {
		return blankText
	}
	return d.date.text() + " " + d.time.text()
}

func (d *DateTime) decode(b []byte, _ decodeCtx) wire.Status {
	if len(b) == 0 {
		d.code = Blank
		return wire.Success
	}
	if len(b) < 6 {
		return wire.IncompleteData
	}
	if st := d.date.decode(b[:4], decodeCtx{}); st != wire.Success {
		return st
	}
	return d.time.decodeTime(b[4:])
}

func (d *DateTime) payload(scratch []byte) ([]byte, error) {
	if d.code == Blank {
		return scratch[:0], nil
	}
	out := d.date.appendDate(scratch[:0])
	return d.time.appendTime(out), nil
}
