// Package frame moves encoded messages through byte streams. Each frame is a
// fixed header followed by one encoded message; the header carries the
// protocol version the message was written with.
package frame

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/danmuck/omm/internal/protocol/wire"
)

const (
	HeaderLen        = 16
	Magic     uint32 = 0x4F4D4D46 // "OMMF"

	// FlagFinal marks the last frame of a stream.
	FlagFinal uint16 = 0x01
)

var (
	ErrShortHeader     = errors.New("frame: short fixed header")
	ErrBadMagic        = errors.New("frame: bad magic")
	ErrPayloadTooLarge = errors.New("frame: payload too large")
	ErrShortPayload    = errors.New("frame: short payload")
)

// Header is the fixed wire header.
type Header struct {
	Magic      uint32
	Major      uint8
	Minor      uint8
	Flags      uint16
	PayloadLen uint64
}

func (h Header) Version() wire.Version { return wire.Version{Major: h.Major, Minor: h.Minor} }

// Frame is one encoded message and the header that delimits it.
type Frame struct {
	Header  Header
	Payload []byte
}

// New returns a frame for payload written with version v.
func New(v wire.Version, payload []byte) Frame {
	return Frame{
		Header:  Header{Magic: Magic, Major: v.Major, Minor: v.Minor},
		Payload: payload,
	}
}

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxPayloadBytes uint64
}

func DefaultLimits() Limits {
	return Limits{MaxPayloadBytes: 8 * 1024 * 1024}
}

// ReadFrame reads one frame. A clean end of stream before the header returns
// io.EOF.
func ReadFrame(r io.Reader, limits Limits) (Frame, error) {
	var fixed [HeaderLen]byte
	n, err := io.ReadFull(r, fixed[:])
	if err != nil {
		if errors.Is(err, io.EOF) && n == 0 {
			return Frame{}, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, ErrShortHeader
		}
		return Frame{}, err
	}

	h, err := DecodeHeader(fixed[:])
	if err != nil {
		return Frame{}, err
	}
	if h.PayloadLen > limits.MaxPayloadBytes {
		return Frame{}, errors.Wrapf(ErrPayloadTooLarge, "%d > %d", h.PayloadLen, limits.MaxPayloadBytes)
	}

	payload := make([]byte, h.PayloadLen)
	if h.PayloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Frame{}, errors.Wrapf(ErrShortPayload, "want %d bytes: %v", h.PayloadLen, err)
		}
	}
	return Frame{Header: h, Payload: payload}, nil
}

func WriteFrame(w io.Writer, f Frame, limits Limits) error {
	payloadLen := uint64(len(f.Payload))
	if payloadLen > limits.MaxPayloadBytes {
		return errors.Wrapf(ErrPayloadTooLarge, "%d > %d", payloadLen, limits.MaxPayloadBytes)
	}

	h := f.Header
	if h.Magic == 0 {
		h.Magic = Magic
	}
	h.PayloadLen = payloadLen

	if _, err := w.Write(EncodeHeader(h)); err != nil {
		return err
	}
	if payloadLen > 0 {
		if _, err := w.Write(f.Payload); err != nil {
			return err
		}
	}
	return nil
}

func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderLen)
	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	buf[4] = h.Major
	buf[5] = h.Minor
	binary.BigEndian.PutUint16(buf[6:8], h.Flags)
	binary.BigEndian.PutUint64(buf[8:16], h.PayloadLen)
	return buf
}

func DecodeHeader(b []byte) (Header, error) {
	if len(b) != HeaderLen {
		return Header{}, errors.Errorf("frame: invalid fixed header length: %d", len(b))
	}
	h := Header{
		Magic:      binary.BigEndian.Uint32(b[0:4]),
		Major:      b[4],
		Minor:      b[5],
		Flags:      binary.BigEndian.Uint16(b[6:8]),
		PayloadLen: binary.BigEndian.Uint64(b[8:16]),
	}
	if h.Magic != Magic {
		return Header{}, errors.Wrapf(ErrBadMagic, "%#08x", h.Magic)
	}
	return h, nil
}
