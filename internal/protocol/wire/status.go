package wire

import "fmt"

// Status is the result of one low-level decode or encode step.
type Status int

const (
	Success Status = iota
	NoData
	IteratorOverrun
	IncompleteData
	UnsupportedDataType
	SetSkipped
	EndOfContainer
	BufferTooSmall
	Failure
)

var statusNames = [...]string{
	Success:             "SUCCESS",
	NoData:              "NO_DATA",
	IteratorOverrun:     "ITERATOR_OVERRUN",
	IncompleteData:      "INCOMPLETE_DATA",
	UnsupportedDataType: "UNSUPPORTED_DATA_TYPE",
	SetSkipped:          "SET_SKIPPED",
	EndOfContainer:      "END_OF_CONTAINER",
	BufferTooSmall:      "BUFFER_TOO_SMALL",
	Failure:             "FAILURE",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("STATUS(%d)", int(s))
	}
	return statusNames[s]
}

// OK reports whether s lets decoding continue with a usable result.
func (s Status) OK() bool {
	return s == Success || s == NoData
}
