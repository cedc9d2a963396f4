package omm

import (
	"github.com/danmuck/omm/internal/protocol/wire"
)

// ReqMsg asks a provider to open or change a stream.
type ReqMsg struct {
	msgBase
	qosField
	priorityClass uint8
	priorityCount uint16
	hasPriority   bool
}

// NewReqMsg returns a streaming request.
func NewReqMsg(opts ...EncodeOption) *ReqMsg {
	m := &ReqMsg{}
	m.enc.configure(opts)
	m.flags = flagMsgStreaming
	return m
}

func (*ReqMsg) DataType() DataType { return TypeReqMsg }

func (m *ReqMsg) SetName(name string) error { return m.setName(TypeReqMsg, name) }
func (m *ReqMsg) SetAttrib(d Data) error    { return m.setAttrib(TypeReqMsg, d) }
func (m *ReqMsg) SetPayload(d Data) error   { return m.setPayload(TypeReqMsg, d) }
func (m *ReqMsg) SetExtendedHeader(b []byte) error {
	return m.setExtendedHeader(TypeReqMsg, b)
}

func (m *ReqMsg) IsStreaming() bool        { return m.has(flagMsgStreaming) }
func (m *ReqMsg) SetStreaming(on bool)     { m.setFlag(flagMsgStreaming, on) }
func (m *ReqMsg) IsPause() bool            { return m.has(flagMsgPause) }
func (m *ReqMsg) SetPause(on bool)         { m.setFlag(flagMsgPause, on) }
func (m *ReqMsg) IsNoRefresh() bool        { return m.has(flagMsgNoRefresh) }
func (m *ReqMsg) SetNoRefresh(on bool)     { m.setFlag(flagMsgNoRefresh, on) }
func (m *ReqMsg) IsPrivateStream() bool    { return m.has(flagMsgPrivate) }
func (m *ReqMsg) SetPrivateStream(on bool) { m.setFlag(flagMsgPrivate, on) }

// Priority returns the priority class and count, if set.
func (m *ReqMsg) Priority() (class uint8, count uint16, ok bool) {
	return m.priorityClass, m.priorityCount, m.hasPriority
}

func (m *ReqMsg) SetPriority(class uint8, count uint16) {
	m.priorityClass, m.priorityCount, m.hasPriority = class, count, true
}

func (m *ReqMsg) Complete() ([]byte, error) {
	flags := m.qosFlag()
	if m.hasPriority {
		flags |= flagMsgPriority
	}
	return m.encode(TypeReqMsg, classRequest, flags, func(w *wire.Writer) {
		if m.hasPriority {
			w.Uint8(m.priorityClass)
			w.Uint16(m.priorityCount)
		}
		m.writeQos(w)
	})
}

func (m *ReqMsg) payload([]byte) ([]byte, error) { return m.Complete() }

func (m *ReqMsg) decode(b []byte, ctx decodeCtx) wire.Status {
	r, st := m.beginDecode(b, ctx, classRequest)
	if st != wire.Success {
		return st
	}
	if m.hasPriority = m.has(flagMsgPriority); m.hasPriority {
		m.priorityClass = r.Uint8()
		m.priorityCount = r.Uint16()
	}
	m.readQos(&r, m.flags)
	return m.endDecode(&r)
}

func (m *ReqMsg) reset() {
	m.resetMsg()
	m.qosField = qosField{}
	m.priorityClass, m.priorityCount, m.hasPriority = 0, 0, false
	m.flags = flagMsgStreaming
}

func (m *ReqMsg) Clear() {
	opts := m.enc
	m.reset()
	m.enc.buffers, m.enc.initial, m.enc.dict = opts.buffers, opts.initial, opts.dict
}

func (m *ReqMsg) String() string { return renderMsg(m) }

// RefreshMsg carries the full image of an item. Its state is mandatory and
// defaults to Open / Ok.
type RefreshMsg struct {
	msgBase
	seqNum
	permData
	qosField
	state   State
	groupID []byte
}

func NewRefreshMsg(opts ...EncodeOption) *RefreshMsg {
	m := &RefreshMsg{}
	m.enc.configure(opts)
	m.state = State{stream: StreamOpen, data: DataOk}
	return m
}

func (*RefreshMsg) DataType() DataType { return TypeRefreshMsg }

func (m *RefreshMsg) SetName(name string) error { return m.setName(TypeRefreshMsg, name) }
func (m *RefreshMsg) SetAttrib(d Data) error    { return m.setAttrib(TypeRefreshMsg, d) }
func (m *RefreshMsg) SetPayload(d Data) error   { return m.setPayload(TypeRefreshMsg, d) }
func (m *RefreshMsg) SetExtendedHeader(b []byte) error {
	return m.setExtendedHeader(TypeRefreshMsg, b)
}

func (m *RefreshMsg) IsSolicited() bool        { return m.has(flagMsgSolicited) }
func (m *RefreshMsg) SetSolicited(on bool)     { m.setFlag(flagMsgSolicited, on) }
func (m *RefreshMsg) IsComplete() bool         { return m.has(flagMsgComplete) }
func (m *RefreshMsg) SetComplete(on bool)      { m.setFlag(flagMsgComplete, on) }
func (m *RefreshMsg) IsClearCache() bool       { return m.has(flagMsgClearCache) }
func (m *RefreshMsg) SetClearCache(on bool)    { m.setFlag(flagMsgClearCache, on) }
func (m *RefreshMsg) IsPrivateStream() bool    { return m.has(flagMsgPrivate) }
func (m *RefreshMsg) SetPrivateStream(on bool) { m.setFlag(flagMsgPrivate, on) }

func (m *RefreshMsg) State() *State { return &m.state }

func (m *RefreshMsg) SetState(s *State) error {
	if s == nil {
		return invalidUsage("refresh state is mandatory")
	}
	m.state = State{stream: s.stream, data: s.data, status: s.status, text: s.text}
	return nil
}

func (m *RefreshMsg) GroupID() []byte { return m.groupID }

func (m *RefreshMsg) SetGroupID(id []byte) error {
	if len(id) > wire.MaxU15 {
		return outOfRange("refresh group id length %d exceeds %d", len(id), wire.MaxU15)
	}
	m.groupID = append([]byte(nil), id...)
	return nil
}

func (m *RefreshMsg) Complete() ([]byte, error) {
	flags := flagMsgState | m.seqFlag() | m.permFlag() | m.qosFlag()
	return m.encode(TypeRefreshMsg, classRefresh, flags, func(w *wire.Writer) {
		m.state.writeTo(w)
		w.Buffer15(m.groupID)
		m.writeSeq(w)
		m.writePerm(w)
		m.writeQos(w)
	})
}

func (m *RefreshMsg) payload([]byte) ([]byte, error) { return m.Complete() }

func (m *RefreshMsg) decode(b []byte, ctx decodeCtx) wire.Status {
	r, st := m.beginDecode(b, ctx, classRefresh)
	if st != wire.Success {
		return st
	}
	m.state.readFrom(&r)
	m.groupID = r.Buffer15()
	m.readSeq(&r, m.flags)
	m.readPerm(&r, m.flags)
	m.readQos(&r, m.flags)
	return m.endDecode(&r)
}

func (m *RefreshMsg) reset() {
	m.resetMsg()
	m.seqNum = seqNum{}
	m.permData = permData{}
	m.qosField = qosField{}
	m.state = State{stream: StreamOpen, data: DataOk}
	m.groupID = nil
}

func (m *RefreshMsg) Clear() {
	opts := m.enc
	m.reset()
	m.enc.buffers, m.enc.initial, m.enc.dict = opts.buffers, opts.initial, opts.dict
}

func (m *RefreshMsg) String() string { return renderMsg(m) }

// UpdateMsg carries changes to an item.
type UpdateMsg struct {
	msgBase
	seqNum
	permData
	updateType uint8
}

func NewUpdateMsg(opts ...EncodeOption) *UpdateMsg {
	m := &UpdateMsg{}
	m.enc.configure(opts)
	return m
}

func (*UpdateMsg) DataType() DataType { return TypeUpdateMsg }

func (m *UpdateMsg) SetName(name string) error { return m.setName(TypeUpdateMsg, name) }
func (m *UpdateMsg) SetAttrib(d Data) error    { return m.setAttrib(TypeUpdateMsg, d) }
func (m *UpdateMsg) SetPayload(d Data) error   { return m.setPayload(TypeUpdateMsg, d) }
func (m *UpdateMsg) SetExtendedHeader(b []byte) error {
	return m.setExtendedHeader(TypeUpdateMsg, b)
}

// UpdateType is the domain-specific update type, such as trade or quote.
func (m *UpdateMsg) UpdateType() uint8     { return m.updateType }
func (m *UpdateMsg) SetUpdateType(t uint8) { m.updateType = t }

func (m *UpdateMsg) Complete() ([]byte, error) {
	flags := m.seqFlag() | m.permFlag()
	return m.encode(TypeUpdateMsg, classUpdate, flags, func(w *wire.Writer) {
		w.Uint8(m.updateType)
		m.writeSeq(w)
		m.writePerm(w)
	})
}

func (m *UpdateMsg) payload([]byte) ([]byte, error) { return m.Complete() }

func (m *UpdateMsg) decode(b []byte, ctx decodeCtx) wire.Status {
	r, st := m.beginDecode(b, ctx, classUpdate)
	if st != wire.Success {
		return st
	}
	m.updateType = r.Uint8()
	m.readSeq(&r, m.flags)
	m.readPerm(&r, m.flags)
	return m.endDecode(&r)
}

func (m *UpdateMsg) reset() {
	m.resetMsg()
	m.seqNum = seqNum{}
	m.permData = permData{}
	m.updateType = 0
}

func (m *UpdateMsg) Clear() {
	opts := m.enc
	m.reset()
	m.enc.buffers, m.enc.initial, m.enc.dict = opts.buffers, opts.initial, opts.dict
}

func (m *UpdateMsg) String() string { return renderMsg(m) }

// StatusMsg reports a change in stream or data state. The state is optional.
type StatusMsg struct {
	msgBase
	permData
	state    State
	hasState bool
}

func NewStatusMsg(opts ...EncodeOption) *StatusMsg {
	m := &StatusMsg{}
	m.enc.configure(opts)
	return m
}

func (*StatusMsg) DataType() DataType { return TypeStatusMsg }

func (m *StatusMsg) SetName(name string) error { return m.setName(TypeStatusMsg, name) }
func (m *StatusMsg) SetAttrib(d Data) error    { return m.setAttrib(TypeStatusMsg, d) }
func (m *StatusMsg) SetPayload(d Data) error   { return m.setPayload(TypeStatusMsg, d) }
func (m *StatusMsg) SetExtendedHeader(b []byte) error {
	return m.setExtendedHeader(TypeStatusMsg, b)
}

func (m *StatusMsg) IsClearCache() bool       { return m.has(flagMsgClearCache) }
func (m *StatusMsg) SetClearCache(on bool)    { m.setFlag(flagMsgClearCache, on) }
func (m *StatusMsg) IsPrivateStream() bool    { return m.has(flagMsgPrivate) }
func (m *StatusMsg) SetPrivateStream(on bool) { m.setFlag(flagMsgPrivate, on) }

func (m *StatusMsg) State() (*State, bool) { return &m.state, m.hasState }

func (m *StatusMsg) SetState(s *State) {
	if s == nil {
		m.hasState = false
		return
	}
	m.state = State{stream: s.stream, data: s.data, status: s.status, text: s.text}
	m.hasState = true
}

func (m *StatusMsg) Complete() ([]byte, error) {
	flags := m.permFlag()
	if m.hasState {
		flags |= flagMsgState
	}
	return m.encode(TypeStatusMsg, classStatus, flags, func(w *wire.Writer) {
		if m.hasState {
			m.state.writeTo(w)
		}
		m.writePerm(w)
	})
}

func (m *StatusMsg) payload([]byte) ([]byte, error) { return m.Complete() }

func (m *StatusMsg) decode(b []byte, ctx decodeCtx) wire.Status {
	r, st := m.beginDecode(b, ctx, classStatus)
	if st != wire.Success {
		return st
	}
	if m.hasState = m.has(flagMsgState); m.hasState {
		m.state.readFrom(&r)
	}
	m.readPerm(&r, m.flags)
	return m.endDecode(&r)
}

func (m *StatusMsg) reset() {
	m.resetMsg()
	m.permData = permData{}
	m.state = State{}
	m.hasState = false
}

func (m *StatusMsg) Clear() {
	opts := m.enc
	m.reset()
	m.enc.buffers, m.enc.initial, m.enc.dict = opts.buffers, opts.initial, opts.dict
}

func (m *StatusMsg) String() string { return renderMsg(m) }

// GenericMsg is a bidirectional message with no model-defined meaning.
type GenericMsg struct {
	msgBase
	seqNum
	permData
}

func NewGenericMsg(opts ...EncodeOption) *GenericMsg {
	m := &GenericMsg{}
	m.enc.configure(opts)
	return m
}

func (*GenericMsg) DataType() DataType { return TypeGenericMsg }

func (m *GenericMsg) SetName(name string) error { return m.setName(TypeGenericMsg, name) }
func (m *GenericMsg) SetAttrib(d Data) error    { return m.setAttrib(TypeGenericMsg, d) }
func (m *GenericMsg) SetPayload(d Data) error   { return m.setPayload(TypeGenericMsg, d) }
func (m *GenericMsg) SetExtendedHeader(b []byte) error {
	return m.setExtendedHeader(TypeGenericMsg, b)
}

func (m *GenericMsg) IsComplete() bool    { return m.has(flagMsgComplete) }
func (m *GenericMsg) SetComplete(on bool) { m.setFlag(flagMsgComplete, on) }

func (m *GenericMsg) Complete() ([]byte, error) {
	flags := m.seqFlag() | m.permFlag()
	return m.encode(TypeGenericMsg, classGeneric, flags, func(w *wire.Writer) {
		m.writeSeq(w)
		m.writePerm(w)
	})
}

func (m *GenericMsg) payload([]byte) ([]byte, error) { return m.Complete() }

func (m *GenericMsg) decode(b []byte, ctx decodeCtx) wire.Status {
	r, st := m.beginDecode(b, ctx, classGeneric)
	if st != wire.Success {
		return st
	}
	m.readSeq(&r, m.flags)
	m.readPerm(&r, m.flags)
	return m.endDecode(&r)
}

func (m *GenericMsg) reset() {
	m.resetMsg()
	m.seqNum = seqNum{}
	m.permData = permData{}
}

func (m *GenericMsg) Clear() {
	opts := m.enc
	m.reset()
	m.enc.buffers, m.enc.initial, m.enc.dict = opts.buffers, opts.initial, opts.dict
}

func (m *GenericMsg) String() string { return renderMsg(m) }

// PostMsg is contributed data sent toward a provider.
type PostMsg struct {
	msgBase
	seqNum
	permData
	userAddr uint32
	userID   uint32
	postID   uint32
}

func NewPostMsg(opts ...EncodeOption) *PostMsg {
	m := &PostMsg{}
	m.enc.configure(opts)
	return m
}

func (*PostMsg) DataType() DataType { return TypePostMsg }

func (m *PostMsg) SetName(name string) error { return m.setName(TypePostMsg, name) }
func (m *PostMsg) SetAttrib(d Data) error    { return m.setAttrib(TypePostMsg, d) }
func (m *PostMsg) SetPayload(d Data) error   { return m.setPayload(TypePostMsg, d) }
func (m *PostMsg) SetExtendedHeader(b []byte) error {
	return m.setExtendedHeader(TypePostMsg, b)
}

func (m *PostMsg) IsComplete() bool        { return m.has(flagMsgComplete) }
func (m *PostMsg) SetComplete(on bool)     { m.setFlag(flagMsgComplete, on) }
func (m *PostMsg) IsAckRequested() bool    { return m.has(flagMsgAckReq) }
func (m *PostMsg) SetAckRequested(on bool) { m.setFlag(flagMsgAckReq, on) }

// PublisherID returns the posting user's address and id.
func (m *PostMsg) PublisherID() (userAddr, userID uint32) { return m.userAddr, m.userID }

func (m *PostMsg) SetPublisherID(userAddr, userID uint32) {
	m.userAddr, m.userID = userAddr, userID
}

func (m *PostMsg) PostID() uint32      { return m.postID }
func (m *PostMsg) SetPostID(id uint32) { m.postID = id }

func (m *PostMsg) Complete() ([]byte, error) {
	flags := m.seqFlag() | m.permFlag()
	return m.encode(TypePostMsg, classPost, flags, func(w *wire.Writer) {
		w.Uint32(m.userAddr)
		w.Uint32(m.userID)
		w.Uint32(m.postID)
		m.writeSeq(w)
		m.writePerm(w)
	})
}

func (m *PostMsg) payload([]byte) ([]byte, error) { return m.Complete() }

func (m *PostMsg) decode(b []byte, ctx decodeCtx) wire.Status {
	r, st := m.beginDecode(b, ctx, classPost)
	if st != wire.Success {
		return st
	}
	m.userAddr = r.Uint32()
	m.userID = r.Uint32()
	m.postID = r.Uint32()
	m.readSeq(&r, m.flags)
	m.readPerm(&r, m.flags)
	return m.endDecode(&r)
}

func (m *PostMsg) reset() {
	m.resetMsg()
	m.seqNum = seqNum{}
	m.permData = permData{}
	m.userAddr, m.userID, m.postID = 0, 0, 0
}

func (m *PostMsg) Clear() {
	opts := m.enc
	m.reset()
	m.enc.buffers, m.enc.initial, m.enc.dict = opts.buffers, opts.initial, opts.dict
}

func (m *PostMsg) String() string { return renderMsg(m) }

// AckMsg acknowledges a post. A set nack code means the post was rejected.
type AckMsg struct {
	msgBase
	seqNum
	ackID   uint32
	nack    uint8
	hasNack bool
	text    []byte
}

func NewAckMsg(opts ...EncodeOption) *AckMsg {
	m := &AckMsg{}
	m.enc.configure(opts)
	return m
}

func (*AckMsg) DataType() DataType { return TypeAckMsg }

func (m *AckMsg) SetName(name string) error { return m.setName(TypeAckMsg, name) }
func (m *AckMsg) SetAttrib(d Data) error    { return m.setAttrib(TypeAckMsg, d) }
func (m *AckMsg) SetPayload(d Data) error   { return m.setPayload(TypeAckMsg, d) }
func (m *AckMsg) SetExtendedHeader(b []byte) error {
	return m.setExtendedHeader(TypeAckMsg, b)
}

func (m *AckMsg) IsPrivateStream() bool    { return m.has(flagMsgPrivate) }
func (m *AckMsg) SetPrivateStream(on bool) { m.setFlag(flagMsgPrivate, on) }

func (m *AckMsg) AckID() uint32      { return m.ackID }
func (m *AckMsg) SetAckID(id uint32) { m.ackID = id }

func (m *AckMsg) NackCode() (uint8, bool) { return m.nack, m.hasNack }

// SetNackCode sets the reason the post was rejected; code must fit in a byte.
func (m *AckMsg) SetNackCode(code int) error {
	if code < 0 || code > 0xFF {
		return outOfRange("ack nack code %d not in [0, 255]", code)
	}
	m.nack, m.hasNack = uint8(code), true
	return nil
}

func (m *AckMsg) Text() string { return string(m.text) }

func (m *AckMsg) SetText(s string) error {
	if len(s) > wire.MaxU15 {
		return outOfRange("ack text length %d exceeds %d", len(s), wire.MaxU15)
	}
	m.text = []byte(s)
	return nil
}

func (m *AckMsg) Complete() ([]byte, error) {
	flags := m.seqFlag()
	if m.hasNack {
		flags |= flagMsgNack
	}
	return m.encode(TypeAckMsg, classAck, flags, func(w *wire.Writer) {
		w.Uint32(m.ackID)
		if m.hasNack {
			w.Uint8(m.nack)
		}
		w.Buffer15(m.text)
		m.writeSeq(w)
	})
}

func (m *AckMsg) payload([]byte) ([]byte, error) { return m.Complete() }

func (m *AckMsg) decode(b []byte, ctx decodeCtx) wire.Status {
	r, st := m.beginDecode(b, ctx, classAck)
	if st != wire.Success {
		return st
	}
	m.ackID = r.Uint32()
	if m.hasNack = m.has(flagMsgNack); m.hasNack {
		m.nack = r.Uint8()
	}
	m.text = r.Buffer15()
	m.readSeq(&r, m.flags)
	return m.endDecode(&r)
}

func (m *AckMsg) reset() {
	m.resetMsg()
	m.seqNum = seqNum{}
	m.ackID, m.nack, m.hasNack = 0, 0, false
	m.text = nil
}

func (m *AckMsg) Clear() {
	opts := m.enc
	m.reset()
	m.enc.buffers, m.enc.initial, m.enc.dict = opts.buffers, opts.initial, opts.dict
}

func (m *AckMsg) String() string { return renderMsg(m) }
