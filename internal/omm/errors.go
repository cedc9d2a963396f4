package omm

import (
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"

	"github.com/danmuck/omm/internal/protocol/wire"
)

// ErrorCode classifies a decode failure carried by an Error value.
type ErrorCode uint8

const (
	ErrorNone ErrorCode = iota
	ErrorNoDictionary
	ErrorIteratorSetFailure
	ErrorIteratorOverrun
	ErrorFieldIDNotFound
	ErrorIncompleteData
	ErrorUnsupportedDataType
	ErrorNoSetDefinition
	ErrorUnknown
)

var errorCodeNames = [...]string{
	ErrorNone:                "NoError",
	ErrorNoDictionary:        "NoDictionary",
	ErrorIteratorSetFailure:  "IteratorSetFailure",
	ErrorIteratorOverrun:     "IteratorOverrun",
	ErrorFieldIDNotFound:     "FieldIdNotFound",
	ErrorIncompleteData:      "IncompleteData",
	ErrorUnsupportedDataType: "UnsupportedDataType",
	ErrorNoSetDefinition:     "NoSetDefinition",
	ErrorUnknown:             "UnknownError",
}

func (c ErrorCode) String() string {
	if int(c) < len(errorCodeNames) {
		return errorCodeNames[c]
	}
	return fmt.Sprintf("ErrorCode(%d)", uint8(c))
}

func errorCodeFor(st wire.Status) ErrorCode {
	switch st {
	case wire.IteratorOverrun:
		return ErrorIteratorOverrun
	case wire.IncompleteData:
		return ErrorIncompleteData
	case wire.UnsupportedDataType:
		return ErrorUnsupportedDataType
	case wire.SetSkipped:
		return ErrorNoSetDefinition
	case wire.Success, wire.NoData:
		return ErrorNone
	default:
		return ErrorUnknown
	}
}

// Error is the Data a failed decode yields in place of the value. The raw
// bytes that failed to decode are kept for diagnostics.
type Error struct {
	slotRef
	code ErrorCode
	raw  []byte
}

func (e *Error) DataType() DataType { return TypeError }
func (e *Error) Code() DataCode     { return NoCode }
func (e *Error) isData()            {}

func (e *Error) ErrorCode() ErrorCode { return e.code }

// Raw returns the bytes that could not be decoded. The slice aliases the
// decoded buffer.
func (e *Error) Raw() []byte { return e.raw }

func (e *Error) String() string {
	if len(e.raw) == 0 {
		return "Error code=" + e.code.String()
	}
	return fmt.Sprintf("Error code=%s raw=%s", e.code, hex.EncodeToString(e.raw))
}

func (e *Error) reset() {
	e.code = ErrorNone
	e.raw = nil
}

// UsageKind separates invalid arguments from out-of-range ones.
type UsageKind uint8

const (
	InvalidUsage UsageKind = iota
	OutOfRange
)

func (k UsageKind) String() string {
	if k == OutOfRange {
		return "OutOfRange"
	}
	return "InvalidUsage"
}

// UsageError reports API misuse. It is never returned for malformed wire data.
type UsageError struct {
	Kind   UsageKind
	Reason string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("omm: %s: %s", e.Kind, e.Reason)
}

func invalidUsage(format string, args ...any) error {
	return errors.WithStack(&UsageError{Kind: InvalidUsage, Reason: fmt.Sprintf(format, args...)})
}

func outOfRange(format string, args ...any) error {
	return errors.WithStack(&UsageError{Kind: OutOfRange, Reason: fmt.Sprintf(format, args...)})
}

// IsUsage reports whether err is a UsageError of kind k.
func IsUsage(err error, k UsageKind) bool {
	var ue *UsageError
	return errors.As(err, &ue) && ue.Kind == k
}
