package omm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danmuck/omm/internal/protocol/wire"
	"github.com/danmuck/omm/internal/testutil/testlog"
)

func TestRefreshMsgRoundTrip(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{})

	payload := NewFieldList()
	require.NoError(t, payload.Add(22, mustData[*Real](t)(NewReal(4550, ExponentNeg1-1))))

	msg := NewRefreshMsg()
	msg.SetStreamID(5)
	msg.SetDomain(DomainMarketPrice)
	require.NoError(t, msg.SetName("TRI.N"))
	msg.SetServiceID(10)
	require.NoError(t, msg.SetState(mustData[*State](t)(NewState(StreamNonStreaming, DataOk, CodeNone, "All is well"))))
	require.NoError(t, msg.SetGroupID([]byte{0, 1}))
	msg.SetSeqNum(77)
	require.NoError(t, msg.SetPermData([]byte{3, 4}))
	msg.SetQos(mustData[*Qos](t)(NewQos(TimelinessRealTime, RateTickByTick, 0, 0, false)))
	msg.SetSolicited(true)
	msg.SetComplete(true)
	require.NoError(t, msg.SetExtendedHeader([]byte("ext")))
	require.NoError(t, msg.SetPayload(payload))

	got, ok := m.DecodeMsg(complete(t, msg)).(*RefreshMsg)
	require.True(t, ok)
	require.Equal(t, int32(5), got.StreamID())
	require.Equal(t, DomainMarketPrice, got.Domain())
	name, ok := got.Name()
	require.True(t, ok)
	require.Equal(t, "TRI.N", name)
	svc, ok := got.ServiceID()
	require.True(t, ok)
	require.Equal(t, uint16(10), svc)
	require.Equal(t, StreamNonStreaming, got.State().StreamState())
	require.Equal(t, "All is well", got.State().Text())
	require.Equal(t, []byte{0, 1}, got.GroupID())
	seq, ok := got.SeqNum()
	require.True(t, ok)
	require.Equal(t, uint32(77), seq)
	require.Equal(t, []byte{3, 4}, got.PermData())
	q, ok := got.Qos()
	require.True(t, ok)
	require.Equal(t, "RealTime/TickByTick", q.String())
	require.True(t, got.IsSolicited())
	require.True(t, got.IsComplete())
	require.False(t, got.IsClearCache())
	require.Equal(t, []byte("ext"), got.ExtendedHeader())

	require.Equal(t, TypeFieldList, got.PayloadType())
	fl := got.Payload().(*FieldList)
	e, ok := fl.Field(22)
	require.True(t, ok)
	require.Equal(t, "45.5", e.Load().String())
}

func TestRefreshStateDefaultsToOpenOk(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{})
	got := m.DecodeMsg(complete(t, NewRefreshMsg())).(*RefreshMsg)
	require.Equal(t, StreamOpen, got.State().StreamState())
	require.Equal(t, DataOk, got.State().DataState())
	require.Equal(t, TypeNoData, got.PayloadType())
	require.Equal(t, TypeNoData, got.Payload().DataType())

	pooled, err := m.Acquire(TypeRefreshMsg)
	require.NoError(t, err)
	require.Equal(t, StreamOpen, pooled.(*RefreshMsg).State().StreamState())
	require.True(t, IsUsage(NewRefreshMsg().SetState(nil), InvalidUsage))
}

func TestReqMsgRoundTrip(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{})

	attrib := NewElementList()
	require.NoError(t, attrib.Add("ApplicationId", NewAscii("256")))

	req := NewReqMsg()
	require.True(t, req.IsStreaming())
	req.SetStreamID(1)
	req.SetDomain(DomainLogin)
	require.NoError(t, req.SetName("user"))
	req.SetNameType(1)
	require.NoError(t, req.SetAttrib(attrib))
	req.SetPriority(2, 300)
	req.SetPause(true)
	req.SetStreaming(false)

	got := m.DecodeMsg(complete(t, req)).(*ReqMsg)
	require.False(t, got.IsStreaming())
	require.True(t, got.IsPause())
	class, count, ok := got.Priority()
	require.True(t, ok)
	require.Equal(t, uint8(2), class)
	require.Equal(t, uint16(300), count)
	_, ok = got.Qos()
	require.False(t, ok)
	nt, ok := got.NameType()
	require.True(t, ok)
	require.Equal(t, uint8(1), nt)

	a, ok := got.Attrib().(*ElementList)
	require.True(t, ok)
	app, ok := a.Element("ApplicationId")
	require.True(t, ok)
	require.Equal(t, "256", app.Load().String())

	require.True(t, IsUsage(req.SetName("late"), InvalidUsage))
	require.True(t, IsUsage(NewReqMsg().SetAttrib(NewInt(1)), InvalidUsage))
}

func TestNestedMessagePayload(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{})

	inner := NewUpdateMsg()
	inner.SetStreamID(9)
	inner.SetUpdateType(3)
	inner.SetSeqNum(1)

	outer := NewGenericMsg()
	outer.SetStreamID(2)
	outer.SetComplete(true)
	require.NoError(t, outer.SetPayload(inner))

	got := m.DecodeMsg(complete(t, outer)).(*GenericMsg)
	require.True(t, got.IsComplete())
	require.Equal(t, TypeUpdateMsg, got.PayloadType())
	upd, ok := got.Payload().(*UpdateMsg)
	require.True(t, ok)
	require.Equal(t, int32(9), upd.StreamID())
	require.Equal(t, uint8(3), upd.UpdateType())
	seq, ok := upd.SeqNum()
	require.True(t, ok)
	require.Equal(t, uint32(1), seq)
	require.False(t, upd.HasKey())
}

func TestStatusMsgOptionalState(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{})

	bare := m.DecodeMsg(complete(t, NewStatusMsg())).(*StatusMsg)
	_, ok := bare.State()
	require.False(t, ok)

	msg := NewStatusMsg()
	msg.SetState(mustData[*State](t)(NewState(StreamClosed, DataSuspect, CodeNotEntitled, "denied")))
	msg.SetClearCache(true)
	got := m.DecodeMsg(complete(t, msg)).(*StatusMsg)
	st, ok := got.State()
	require.True(t, ok)
	require.Equal(t, CodeNotEntitled, st.StatusCode())
	require.True(t, got.IsClearCache())
}

func TestPostAndAckMsgs(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{})

	post := NewPostMsg()
	post.SetPublisherID(0x0A000001, 42)
	post.SetPostID(1001)
	post.SetAckRequested(true)
	post.SetComplete(true)
	gp := m.DecodeMsg(complete(t, post)).(*PostMsg)
	addr, id := gp.PublisherID()
	require.Equal(t, uint32(0x0A000001), addr)
	require.Equal(t, uint32(42), id)
	require.Equal(t, uint32(1001), gp.PostID())
	require.True(t, gp.IsAckRequested())

	ack := NewAckMsg()
	ack.SetAckID(1001)
	require.True(t, IsUsage(ack.SetNackCode(256), OutOfRange))
	require.True(t, IsUsage(ack.SetNackCode(-1), OutOfRange))
	_, ok := ack.NackCode()
	require.False(t, ok)
	require.NoError(t, ack.SetNackCode(3))
	require.NoError(t, ack.SetText("denied"))

	ga := m.DecodeMsg(complete(t, ack)).(*AckMsg)
	require.Equal(t, uint32(1001), ga.AckID())
	code, ok := ga.NackCode()
	require.True(t, ok)
	require.Equal(t, uint8(3), code)
	require.Equal(t, "denied", ga.Text())
}

func TestMalformedMessages(t *testing.T) {
	testlog.Start(t)
	m := NewManager(Options{})

	e, ok := m.DecodeMsg([]byte{0, 1, 99}).(*Error)
	require.True(t, ok)
	require.Equal(t, ErrorUnsupportedDataType, e.ErrorCode())

	e, ok = m.DecodeMsg([]byte{0}).(*Error)
	require.True(t, ok)
	require.Equal(t, ErrorIncompleteData, e.ErrorCode())

	b := complete(t, NewUpdateMsg())
	e, ok = m.DecodeMsg(b[:len(b)-1]).(*Error)
	require.True(t, ok)
	require.Equal(t, ErrorIncompleteData, e.ErrorCode())

	e, ok = m.DecodeVersion(wire.TypeMsg, b, wire.Version{Major: 15}).(*Error)
	require.True(t, ok)
	require.Equal(t, ErrorIteratorSetFailure, e.ErrorCode())

	_, ok = m.DecodeVersion(wire.TypeMsg, b, wire.Version{Major: 14, Minor: 0}).(*UpdateMsg)
	require.True(t, ok)
}

func TestMsgCompleteIsIdempotent(t *testing.T) {
	testlog.Start(t)
	msg := NewUpdateMsg()
	msg.SetStreamID(3)
	first := complete(t, msg)
	second := complete(t, msg)
	require.Same(t, &first[0], &second[0])
	require.True(t, IsUsage(msg.SetPayload(NewFieldList()), InvalidUsage))

	msg.Clear()
	msg.SetStreamID(4)
	require.NoError(t, msg.SetPayload(NewFieldList()))
	got := NewManager(Options{}).DecodeMsg(complete(t, msg)).(*UpdateMsg)
	require.Equal(t, int32(4), got.StreamID())
	require.Equal(t, TypeFieldList, got.PayloadType())
}

func TestMsgHeaderLengthIsBounded(t *testing.T) {
	testlog.Start(t)
	attrib := NewElementList()
	require.NoError(t, attrib.Add("Blob", NewBuffer(make([]byte, 70000))))

	msg := NewUpdateMsg()
	msg.SetStreamID(1)
	require.NoError(t, msg.SetName("BIG"))
	require.NoError(t, msg.SetAttrib(attrib))
	_, err := msg.Complete()
	require.True(t, IsUsage(err, OutOfRange), "%v", err)

	// The same bytes are fine as a payload, which sits outside the header.
	payload := NewElementList()
	require.NoError(t, payload.Add("Blob", NewBuffer(make([]byte, 70000))))
	ok := NewUpdateMsg()
	ok.SetStreamID(1)
	require.NoError(t, ok.SetPayload(payload))
	got := NewManager(Options{}).DecodeMsg(complete(t, ok)).(*UpdateMsg)
	blob, found := got.Payload().(*ElementList).Element("Blob")
	require.True(t, found)
	require.Len(t, blob.Load().(*Buffer).Bytes(), 70000)
}
