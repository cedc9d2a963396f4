package omm

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/danmuck/omm/internal/protocol/wire"
)

type Timeliness uint8

const (
	TimelinessUnspecified Timeliness = iota
	TimelinessRealTime
	TimelinessDelayedUnknown
	TimelinessDelayed
)

type Rate uint8

const (
	RateUnspecified Rate = iota
	RateTickByTick
	RateJitConflated
	RateTimeConflated
)

// Values used by session layers that express QoS as two plain numbers.
const (
	QosRealTime       uint32 = 0
	QosInexactDelayed uint32 = 0xFFFFFFFF
	QosTickByTick     uint32 = 0
	QosJustInTime     uint32 = 0xFFFFFFFE
)

// Qos is a quality of service: timeliness, rate and whether it may change.
type Qos struct {
	scalarBase
	timeliness Timeliness
	rate       Rate
	dynamic    bool
	timeInfo   uint16
	rateInfo   uint16
}

// NewQos builds a Qos from the wire enumerations. timeInfo is the delay in
// seconds for TimelinessDelayed; rateInfo the conflation interval in
// milliseconds for RateTimeConflated.
func NewQos(t Timeliness, r Rate, timeInfo, rateInfo uint16, dynamic bool) (*Qos, error) {
	if t > TimelinessDelayed {
		return nil, outOfRange("qos timeliness %d", t)
	}
	if r > RateTimeConflated {
		return nil, outOfRange("qos rate %d", r)
	}
	q := &Qos{timeliness: t, rate: r, dynamic: dynamic}
	if t == TimelinessDelayed {
		q.timeInfo = timeInfo
	}
	if r == RateTimeConflated {
		q.rateInfo = rateInfo
	}
	return q, nil
}

// NewQosFrom converts the two-number form (seconds of delay or a sentinel,
// milliseconds of conflation or a sentinel) into a Qos.
func NewQosFrom(timeliness, rate uint32) (*Qos, error) {
	q := &Qos{}
	switch timeliness {
	case QosRealTime:
		q.timeliness = TimelinessRealTime
	case QosInexactDelayed:
		q.timeliness = TimelinessDelayedUnknown
	default:
		if timeliness > 0xFFFF {
			return nil, outOfRange("qos timeliness %d exceeds 65535 seconds", timeliness)
		}
		q.timeliness = TimelinessDelayed
		q.timeInfo = uint16(timeliness)
	}
	switch rate {
	case QosTickByTick:
		q.rate = RateTickByTick
	case QosJustInTime, 0xFFFFFFFF:
		q.rate = RateJitConflated
	default:
		if rate > 0xFFFF {
			return nil, outOfRange("qos rate %d exceeds 65535 milliseconds", rate)
		}
		q.rate = RateTimeConflated
		q.rateInfo = uint16(rate)
	}
	return q, nil
}

func (*Qos) DataType() DataType       { return TypeQos }
func (q *Qos) Timeliness() Timeliness { return q.timeliness }
func (q *Qos) Rate() Rate             { return q.rate }
func (q *Qos) IsDynamic() bool        { return q.dynamic }
func (q *Qos) TimeInfo() uint16       { return q.timeInfo }
func (q *Qos) RateInfo() uint16       { return q.rateInfo }

func (q *Qos) reset() {
	q.resetScalar()
	q.timeliness, q.rate, q.dynamic = 0, 0, false
	q.timeInfo, q.rateInfo = 0, 0
}

func (q *Qos) equal(o *Qos) bool {
	return q.timeliness == o.timeliness && q.rate == o.rate && q.dynamic == o.dynamic &&
		q.timeInfo == o.timeInfo && q.rateInfo == o.rateInfo
}

func (q *Qos) String() string {
	if q.code == Blank {
		return blankText
	}
	var sb strings.Builder
	switch q.timeliness {
	case TimelinessRealTime:
		sb.WriteString("RealTime")
	case TimelinessDelayedUnknown:
		sb.WriteString("InexactDelayed")
	case TimelinessDelayed:
		fmt.Fprintf(&sb, "Timeliness: %d", q.timeInfo)
	default:
		sb.WriteString("Unspecified")
	}
	sb.WriteString("/")
	switch q.rate {
	case RateTickByTick:
		sb.WriteString("TickByTick")
	case RateJitConflated:
		sb.WriteString("JustInTimeConflated")
	case RateTimeConflated:
		fmt.Fprintf(&sb, "Rate: %d", q.rateInfo)
	default:
		sb.WriteString("Unspecified")
	}
	if q.dynamic {
		sb.WriteString("/Dynamic")
	}
	return sb.String()
}

// Wire form: timeliness<<5 | rate<<1 | dynamic, then timeInfo and rateInfo
// when the enumerations call for them.
func (q *Qos) decode(b []byte, _ decodeCtx) wire.Status {
	if len(b) == 0 {
		q.code = Blank
		return wire.Success
	}
	r := wire.NewReader(b)
	q.readFrom(&r)
	if !r.Exhausted() {
		return wire.IncompleteData
	}
	return r.Status()
}

func (q *Qos) readFrom(r *wire.Reader) {
	v := r.Uint8()
	q.timeliness = Timeliness(v >> 5)
	q.rate = Rate(v >> 1 & 0x0F)
	q.dynamic = v&0x01 != 0
	if q.timeliness == TimelinessDelayed {
		q.timeInfo = r.Uint16()
	}
	if q.rate == RateTimeConflated {
		q.rateInfo = r.Uint16()
	}
}

func (q *Qos) payload(scratch []byte) ([]byte, error) {
	if q.code == Blank {
		return scratch[:0], nil
	}
	return q.appendQos(scratch[:0]), nil
}

func (q *Qos) appendQos(dst []byte) []byte {
	v := byte(q.timeliness)<<5 | byte(q.rate)<<1
	if q.dynamic {
		v |= 0x01
	}
	dst = append(dst, v)
	if q.timeliness == TimelinessDelayed {
		dst = binary.BigEndian.AppendUint16(dst, q.timeInfo)
	}
	if q.rate == RateTimeConflated {
		dst = binary.BigEndian.AppendUint16(dst, q.rateInfo)
	}
	return dst
}

func (q *Qos) writeTo(w *wire.Writer) {
	v := byte(q.timeliness)<<5 | byte(q.rate)<<1
	if q.dynamic {
		v |= 0x01
	}
	w.Uint8(v)
	if q.timeliness == TimelinessDelayed {
		w.Uint16(q.timeInfo)
	}
	if q.rate == RateTimeConflated {
		w.Uint16(q.rateInfo)
	}
}
