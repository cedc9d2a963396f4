package omm

import (
	"fmt"

	"github.com/danmuck/omm/internal/protocol/wire"
)

type StreamState uint8

const (
	StreamUnspecified StreamState = iota
	StreamOpen
	StreamNonStreaming
	StreamClosedRecover
	StreamClosed
	StreamClosedRedirected
)

var streamStateNames = [...]string{
	"Unspecified", "Open", "NonStreaming", "ClosedRecover", "Closed", "ClosedRedirected",
}

func (s StreamState) String() string {
	if int(s) < len(streamStateNames) {
		return streamStateNames[s]
	}
	return fmt.Sprintf("StreamState(%d)", uint8(s))
}

type DataState uint8

const (
	DataNoChange DataState = iota
	DataOk
	DataSuspect
)

func (s DataState) String() string {
	switch s {
	case DataNoChange:
		return "NoChange"
	case DataOk:
		return "Ok"
	case DataSuspect:
		return "Suspect"
	}
	return fmt.Sprintf("DataState(%d)", uint8(s))
}

// StatusCode is the wire status code; values above the named ones are passed
// through untouched.
type StatusCode uint8

const (
	CodeNone StatusCode = iota
	CodeNotFound
	CodeTimeout
	CodeNotEntitled
	CodeInvalidArgument
	CodeUsageError
	CodePreempted
	CodeJustInTimeConflationStarted
	CodeRealTimeResumed
	CodeFailoverStarted
	CodeFailoverCompleted
	CodeGapDetected
	CodeNoResources
	CodeTooManyItems
	CodeAlreadyOpen
	CodeSourceUnknown
	CodeNotOpen
)

// State is the stream and data state of an item plus a status code and text.
type State struct {
	scalarBase
	stream StreamState
	data   DataState
	status StatusCode
	text   []byte
}

func NewState(stream StreamState, data DataState, code StatusCode, text string) (*State, error) {
	if stream > StreamClosedRedirected {
		return nil, outOfRange("state stream state %d", stream)
	}
	if data > DataSuspect {
		return nil, outOfRange("state data state %d", data)
	}
	if len(text) > wire.MaxU15 {
		return nil, outOfRange("state text length %d exceeds %d", len(text), wire.MaxU15)
	}
	return &State{stream: stream, data: data, status: code, text: []byte(text)}, nil
}

// NewStateFrom converts the plain-number form used by session layers.
func NewStateFrom(stream, data, code int, text string) (*State, error) {
	if stream < 0 || stream > 0xFF || data < 0 || data > 0xFF {
		return nil, outOfRange("state stream=%d data=%d", stream, data)
	}
	if code < 0 || code > 0xFF {
		return nil, outOfRange("state code %d not in [0, 255]", code)
	}
	return NewState(StreamState(stream), DataState(data), StatusCode(code), text)
}

func (*State) DataType() DataType         { return TypeState }
func (s *State) StreamState() StreamState { return s.stream }
func (s *State) DataState() DataState     { return s.data }
func (s *State) StatusCode() StatusCode   { return s.status }
func (s *State) Text() string             { return string(s.text) }

func (s *State) reset() {
	s.resetScalar()
	s.stream, s.data, s.status = 0, 0, 0
	s.text = nil
}

func (s *State) String() string {
	if s.code == Blank {
		return blankText
	}
	return fmt.Sprintf("%s / %s / %d / '%s'", s.stream, s.data, s.status, s.text)
}

// Wire form: stream<<3 | data, code byte, u15rb text.
func (s *State) decode(b []byte, _ decodeCtx) wire.Status {
	if len(b) == 0 {
		s.code = Blank
		return wire.Success
	}
	r := wire.NewReader(b)
	s.readFrom(&r)
	if !r.Exhausted() {
		return wire.IncompleteData
	}
	return r.Status()
}

func (s *State) readFrom(r *wire.Reader) {
	v := r.Uint8()
	s.stream = StreamState(v >> 3)
	s.data = DataState(v & 0x07)
	s.status = StatusCode(r.Uint8())
	s.text = r.Buffer15()
}

func (s *State) payload(scratch []byte) ([]byte, error) {
	if s.code == Blank {
		return scratch[:0], nil
	}
	return s.appendState(scratch[:0]), nil
}

func (s *State) appendState(dst []byte) []byte {
	dst = append(dst, byte(s.stream)<<3|byte(s.data), byte(s.status))
	dst = appendU15(dst, uint16(len(s.text)))
	return append(dst, s.text...)
}

func appendU15(dst []byte, v uint16) []byte {
	if v < 0x80 {
		return append(dst, byte(v))
	}
	return append(dst, byte(v>>8)|0x80, byte(v))
}

func (s *State) writeTo(w *wire.Writer) {
	w.Uint8(byte(s.stream)<<3 | byte(s.data))
	w.Uint8(byte(s.status))
	w.Buffer15(s.text)
}
