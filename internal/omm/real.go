package omm

import (
	"math"
	"strconv"

	"github.com/danmuck/omm/internal/protocol/wire"
)

// RealHint is the magnitude of a Real: a power of ten exponent, a power of two
// divisor, or one of the special values.
type RealHint uint8

const (
	ExponentNeg14 RealHint = 0
	ExponentNeg1  RealHint = 13
	Exponent0     RealHint = 14
	ExponentPos1  RealHint = 15
	ExponentPos7  RealHint = 21
	Divisor1      RealHint = 22
	Divisor2      RealHint = 23
	Divisor256    RealHint = 30
	Infinity      RealHint = 33
	NegInfinity   RealHint = 34
	NotANumber    RealHint = 35
)

// Exponent returns the hint for a power of ten exponent in [-14, 7].
func Exponent(exp int) (RealHint, error) {
	if exp < -14 || exp > 7 {
		return 0, outOfRange("real exponent %d not in [-14, 7]", exp)
	}
	return RealHint(exp + 14), nil
}

// Valid reports whether h is a hint the wire format defines.
func (h RealHint) Valid() bool {
	return h <= Divisor256 || (h >= Infinity && h <= NotANumber)
}

func (h RealHint) special() bool { return h >= Infinity && h <= NotANumber }

// Real is a scaled decimal: a mantissa and a magnitude hint.
type Real struct {
	scalarBase
	mantissa int64
	hint     RealHint
}

// NewReal validates the mantissa/hint pair. The special hints require a zero
// mantissa.
func NewReal(mantissa int64, hint RealHint) (*Real, error) {
	if !hint.Valid() {
		return nil, invalidUsage("real hint %d is not defined (mantissa %d)", hint, mantissa)
	}
	if hint.special() && mantissa != 0 {
		return nil, invalidUsage("real hint %d takes no mantissa, got %d", hint, mantissa)
	}
	return &Real{mantissa: mantissa, hint: hint}, nil
}

// NewRealFromFloat rounds f to the precision of hint.
func NewRealFromFloat(f float64, hint RealHint) (*Real, error) {
	switch {
	case math.IsNaN(f):
		return NewReal(0, NotANumber)
	case math.IsInf(f, 1):
		return NewReal(0, Infinity)
	case math.IsInf(f, -1):
		return NewReal(0, NegInfinity)
	}
	if !hint.Valid() || hint.special() {
		return nil, invalidUsage("real hint %d cannot scale %g", hint, f)
	}
	scaled := math.Round(f / hintScale(hint))
	if scaled > math.MaxInt64 || scaled < math.MinInt64 {
		return nil, outOfRange("real %g overflows mantissa at hint %d", f, hint)
	}
	return NewReal(int64(scaled), hint)
}

func (*Real) DataType() DataType { return TypeReal }
func (d *Real) Mantissa() int64  { return d.mantissa }
func (d *Real) Hint() RealHint   { return d.hint }
func (d *Real) reset()           { d.resetScalar(); d.mantissa = 0; d.hint = 0 }
func (d *Real) Float64() float64 { return realToFloat(d.mantissa, d.hint) }

func hintScale(h RealHint) float64 {
	switch {
	case h <= ExponentPos7:
		return math.Pow10(int(h) - int(Exponent0))
	default:
		return 1 / float64(uint(1)<<(h-Divisor1))
	}
}

func realToFloat(m int64, h RealHint) float64 {
	switch h {
	case Infinity:
		return math.Inf(1)
	case NegInfinity:
		return math.Inf(-1)
	case NotANumber:
		return math.NaN()
	}
	if h < Exponent0 {
		// Divide by the exact power of ten to avoid 0.1 style rounding.
		return float64(m) / math.Pow10(int(Exponent0-h))
	}
	return float64(m) * hintScale(h)
}

func (d *Real) String() string {
	if d.code == Blank {
		return blankText
	}
	switch d.hint {
	case Infinity:
		return "Inf"
	case NegInfinity:
		return "-Inf"
	case NotANumber:
		return "NaN"
	}
	return strconv.FormatFloat(d.Float64(), 'f', -1, 64)
}

// Wire form: hint byte, then the mantissa in minimal form. Special hints carry
// no mantissa.
func (d *Real) decode(b []byte, _ decodeCtx) wire.Status {
	if len(b) == 0 {
		d.code = Blank
		return wire.Success
	}
	h := RealHint(b[0])
	if !h.Valid() {
		return wire.IncompleteData
	}
	d.hint = h
	if h.special() {
		if len(b) != 1 {
			return wire.IncompleteData
		}
		return wire.Success
	}
	m, st := wire.DecodeInt(b[1:])
	d.mantissa = m
	return st
}

func (d *Real) payload(scratch []byte) ([]byte, error) {
	if d.code == Blank {
		return scratch[:0], nil
	}
	out := append(scratch[:0], byte(d.hint))
	if d.hint.special() {
		return out, nil
	}
	return wire.AppendInt(out, d.mantissa), nil
}
