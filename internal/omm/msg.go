package omm

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/danmuck/omm/internal/protocol/wire"
)

// Domain is the message model type a stream carries.
type Domain uint8

const (
	DomainLogin         Domain = 1
	DomainSource        Domain = 4
	DomainDictionary    Domain = 5
	DomainMarketPrice   Domain = 6
	DomainMarketByOrder Domain = 7
	DomainMarketByPrice Domain = 8
	DomainMarketMaker   Domain = 9
	DomainSymbolList    Domain = 10
)

var domainNames = map[Domain]string{
	DomainLogin:         "Login",
	DomainSource:        "Source",
	DomainDictionary:    "Dictionary",
	DomainMarketPrice:   "MarketPrice",
	DomainMarketByOrder: "MarketByOrder",
	DomainMarketByPrice: "MarketByPrice",
	DomainMarketMaker:   "MarketMaker",
	DomainSymbolList:    "SymbolList",
}

func (d Domain) String() string {
	if n, ok := domainNames[d]; ok {
		return n
	}
	return fmt.Sprintf("Domain(%d)", uint8(d))
}

type msgClass uint8

const (
	classRequest msgClass = 1
	classRefresh msgClass = 2
	classStatus  msgClass = 3
	classUpdate  msgClass = 4
	classAck     msgClass = 6
	classGeneric msgClass = 7
	classPost    msgClass = 8
)

var msgClasses = map[msgClass]DataType{
	classRequest: TypeReqMsg,
	classRefresh: TypeRefreshMsg,
	classStatus:  TypeStatusMsg,
	classUpdate:  TypeUpdateMsg,
	classAck:     TypeAckMsg,
	classGeneric: TypeGenericMsg,
	classPost:    TypePostMsg,
}

// maxMsgHeader is the largest header the u16 length prefix can describe.
const maxMsgHeader = 0xFFFF

// Message flags.
const (
	flagMsgKey        uint16 = 0x0001
	flagMsgExtHdr     uint16 = 0x0002
	flagMsgPerm       uint16 = 0x0004
	flagMsgSeqNum     uint16 = 0x0008
	flagMsgSolicited  uint16 = 0x0010
	flagMsgComplete   uint16 = 0x0020
	flagMsgPrivate    uint16 = 0x0040
	flagMsgStreaming  uint16 = 0x0080
	flagMsgPause      uint16 = 0x0100
	flagMsgNoRefresh  uint16 = 0x0200
	flagMsgQos        uint16 = 0x0400
	flagMsgPriority   uint16 = 0x0800
	flagMsgClearCache uint16 = 0x1000
	flagMsgAckReq     uint16 = 0x2000
	flagMsgState      uint16 = 0x4000
	flagMsgNack       uint16 = 0x8000
)

// peekMsgClass reads the class byte that follows the header length.
func peekMsgClass(b []byte) (DataType, wire.Status) {
	r := wire.NewReader(b)
	r.Skip(2)
	c := msgClass(r.Uint8())
	if r.Failed() {
		return TypeNoData, wire.IncompleteData
	}
	dt, ok := msgClasses[c]
	if !ok {
		return TypeNoData, wire.UnsupportedDataType
	}
	return dt, wire.Success
}

// Msg is implemented by the seven message classes.
type Msg interface {
	Data
	StreamID() int32
	Domain() Domain
	HasKey() bool
	Name() (string, bool)
	ServiceID() (uint16, bool)
	Payload() Data
	ExtendedHeader() []byte
	Complete() ([]byte, error)
}

// Key flags.
const (
	keyName       = 0x01
	keyNameType   = 0x02
	keyServiceID  = 0x04
	keyFilter     = 0x08
	keyIdentifier = 0x10
	keyAttrib     = 0x20
)

// msgKey identifies the item a message is about.
type msgKey struct {
	flags      byte
	name       []byte
	nameType   uint8
	serviceID  uint16
	filter     uint32
	identifier int32
	attribType wire.Type
	attribRaw  []byte
	attrib     loadSlot
	encAttrib  Data
}

func (k *msgKey) reset() {
	k.flags = 0
	k.name = nil
	k.nameType, k.serviceID, k.filter, k.identifier = 0, 0, 0, 0
	k.attribType = wire.TypeUnknown
	k.attribRaw = nil
	k.attrib.clear()
	k.encAttrib = nil
}

func (k *msgKey) readFrom(r *wire.Reader) {
	k.flags = r.Uint8()
	if k.flags&keyName != 0 {
		k.name = r.Buffer15()
	}
	if k.flags&keyNameType != 0 {
		k.nameType = r.Uint8()
	}
	if k.flags&keyServiceID != 0 {
		k.serviceID = r.Uint16()
	}
	if k.flags&keyFilter != 0 {
		k.filter = r.Uint32()
	}
	if k.flags&keyIdentifier != 0 {
		k.identifier = r.Int32()
	}
	if k.flags&keyAttrib != 0 {
		k.attribType = wire.Type(r.Uint8())
		k.attribRaw = r.Buffer16()
	}
}

func (k *msgKey) writeTo(w *wire.Writer, attrib []byte) {
	w.Uint8(k.flags)
	if k.flags&keyName != 0 {
		w.Buffer15(k.name)
	}
	if k.flags&keyNameType != 0 {
		w.Uint8(k.nameType)
	}
	if k.flags&keyServiceID != 0 {
		w.Uint16(k.serviceID)
	}
	if k.flags&keyFilter != 0 {
		w.Uint32(k.filter)
	}
	if k.flags&keyIdentifier != 0 {
		w.Int32(k.identifier)
	}
	if k.flags&keyAttrib != 0 {
		w.Uint8(byte(k.attribType))
		w.Buffer16(attrib)
	}
}

// msgBase is the part of a message every class shares: the envelope, the key,
// the extended header and the payload.
type msgBase struct {
	slotRef
	decoded bool
	raw     []byte
	ctx     decodeCtx

	streamID    int32
	domain      Domain
	flags       uint16
	payloadType wire.Type
	key         msgKey
	extHdr      []byte

	body       loadSlot
	bodyRaw    []byte
	encPayload Data

	enc encoder
}

func (m *msgBase) Code() DataCode { return NoCode }
func (m *msgBase) isData()        {}

func (m *msgBase) StreamID() int32 { return m.streamID }
func (m *msgBase) Domain() Domain  { return m.domain }

func (m *msgBase) SetStreamID(id int32) { m.streamID = id }
func (m *msgBase) SetDomain(d Domain)   { m.domain = d }

func (m *msgBase) HasKey() bool { return m.key.flags != 0 }

func (m *msgBase) Name() (string, bool) {
	return string(m.key.name), m.key.flags&keyName != 0
}

func (m *msgBase) NameType() (uint8, bool) {
	return m.key.nameType, m.key.flags&keyNameType != 0
}

func (m *msgBase) ServiceID() (uint16, bool) {
	return m.key.serviceID, m.key.flags&keyServiceID != 0
}

func (m *msgBase) Filter() (uint32, bool) {
	return m.key.filter, m.key.flags&keyFilter != 0
}

func (m *msgBase) Identifier() (int32, bool) {
	return m.key.identifier, m.key.flags&keyIdentifier != 0
}

// Attrib returns the key attributes, or nil.
func (m *msgBase) Attrib() Data {
	if m.key.flags&keyAttrib == 0 {
		return nil
	}
	if !m.decoded {
		return m.key.encAttrib
	}
	if m.key.attrib.load == nil {
		m.key.attrib.decode(m.ctx.nested(nil, nil), m.key.attribType, m.key.attribRaw)
	}
	return m.key.attrib.data()
}

func (m *msgBase) checkEncodable(dt DataType) error {
	if m.decoded {
		return invalidUsage("%s was decoded and is read-only", dt)
	}
	if m.enc.done {
		return invalidUsage("%s is complete; Clear it before changing it", dt)
	}
	return nil
}

func (m *msgBase) setName(dt DataType, name string) error {
	if err := m.checkEncodable(dt); err != nil {
		return err
	}
	if len(name) > wire.MaxU15 {
		return outOfRange("%s name length %d exceeds %d", dt, len(name), wire.MaxU15)
	}
	m.key.name = []byte(name)
	m.key.flags |= keyName
	return nil
}

func (m *msgBase) SetNameType(t uint8) {
	m.key.nameType = t
	m.key.flags |= keyNameType
}

func (m *msgBase) SetServiceID(id uint16) {
	m.key.serviceID = id
	m.key.flags |= keyServiceID
}

func (m *msgBase) SetFilter(f uint32) {
	m.key.filter = f
	m.key.flags |= keyFilter
}

func (m *msgBase) SetIdentifier(id int32) {
	m.key.identifier = id
	m.key.flags |= keyIdentifier
}

// containerLike reports whether d can be a message payload or key attrib.
func containerLike(d Data) bool {
	t := d.DataType()
	return t == TypeNoData || t == TypeOpaque || t == TypeXml || t == TypeAnsiPage || t.Container() || t.Msg()
}

func (m *msgBase) setAttrib(dt DataType, d Data) error {
	if err := m.checkEncodable(dt); err != nil {
		return err
	}
	if d == nil || !containerLike(d) {
		return invalidUsage("%s attrib must be a container", dt)
	}
	m.key.encAttrib = d
	m.key.attribType = d.DataType().Wire()
	m.key.flags |= keyAttrib
	return nil
}

func (m *msgBase) setPayload(dt DataType, d Data) error {
	if err := m.checkEncodable(dt); err != nil {
		return err
	}
	if d == nil || !containerLike(d) {
		return invalidUsage("%s payload must be a container or message", dt)
	}
	m.encPayload = d
	return nil
}

// Payload returns the message payload. A message without one has NoData.
func (m *msgBase) Payload() Data {
	if !m.decoded {
		return m.encPayload
	}
	if m.body.load == nil {
		m.body.decode(m.ctx.nested(nil, nil), m.payloadType, m.bodyRaw)
	}
	return m.body.data()
}

// PayloadType returns the declared payload type.
func (m *msgBase) PayloadType() DataType {
	if !m.decoded {
		if m.encPayload == nil {
			return TypeNoData
		}
		return m.encPayload.DataType()
	}
	if m.payloadType == wire.TypeMsg {
		dt, _ := peekMsgClass(m.bodyRaw)
		return dt
	}
	dt, _ := DataTypeOf(m.payloadType)
	return dt
}

func (m *msgBase) ExtendedHeader() []byte { return m.extHdr }

func (m *msgBase) setExtendedHeader(dt DataType, b []byte) error {
	if err := m.checkEncodable(dt); err != nil {
		return err
	}
	if len(b) > wire.MaxU15 {
		return outOfRange("%s extended header length %d exceeds %d", dt, len(b), wire.MaxU15)
	}
	m.extHdr = append([]byte(nil), b...)
	m.flags |= flagMsgExtHdr
	return nil
}

func (m *msgBase) has(f uint16) bool { return m.flags&f != 0 }

func (m *msgBase) setFlag(f uint16, on bool) {
	if on {
		m.flags |= f
	} else {
		m.flags &^= f
	}
}

func (m *msgBase) resetMsg() {
	m.decoded = false
	m.raw = nil
	m.ctx = decodeCtx{}
	m.streamID = 0
	m.domain = 0
	m.flags = 0
	m.payloadType = wire.TypeUnknown
	m.key.reset()
	m.extHdr = nil
	m.body.clear()
	m.bodyRaw = nil
	m.encPayload = nil
	m.enc.release()
}

// beginDecode reads the envelope and returns a reader over the class fields.
func (m *msgBase) beginDecode(b []byte, ctx decodeCtx, class msgClass) (wire.Reader, wire.Status) {
	m.decoded = true
	m.raw = b
	ctx.depth++
	m.ctx = ctx
	if ctx.depth > ctx.maxDepth {
		return wire.Reader{}, wire.IteratorOverrun
	}
	r := wire.NewReader(b)
	hdr := r.Bytes(int(r.Uint16()))
	m.bodyRaw = r.Rest()
	if r.Failed() {
		return wire.Reader{}, wire.IncompleteData
	}
	hr := wire.NewReader(hdr)
	if msgClass(hr.Uint8()) != class {
		return wire.Reader{}, wire.UnsupportedDataType
	}
	m.domain = Domain(hr.Uint8())
	m.streamID = hr.Int32()
	m.flags = hr.Uint16()
	m.payloadType = wire.Type(hr.Uint8())
	if hr.Failed() {
		return wire.Reader{}, wire.IncompleteData
	}
	return hr, wire.Success
}

// endDecode reads the key and extended header after the class fields.
func (m *msgBase) endDecode(r *wire.Reader) wire.Status {
	if m.flags&flagMsgKey != 0 {
		m.key.readFrom(r)
	}
	if m.flags&flagMsgExtHdr != 0 {
		m.extHdr = r.Buffer15()
	}
	if r.Failed() {
		return wire.IncompleteData
	}
	if _, ok := DataTypeOf(m.payloadType); !ok && m.payloadType != wire.TypeMsg {
		return wire.UnsupportedDataType
	}
	return wire.Success
}

// encode writes the envelope, the class fields, the key and the payload.
func (m *msgBase) encode(dt DataType, class msgClass, flags uint16, fields func(w *wire.Writer)) ([]byte, error) {
	if m.decoded {
		return m.raw, nil
	}
	if m.enc.done {
		return m.enc.out, nil
	}
	if m.enc.buffers == nil {
		m.enc.configure(nil)
	}
	var attrib []byte
	if m.key.flags&keyAttrib != 0 {
		b, err := m.enc.payloadOf(m.key.encAttrib)
		if err != nil {
			return nil, errors.Wrapf(err, "%s attrib", dt)
		}
		attrib = b
	}
	pt := wire.TypeNoData
	var payload []byte
	if m.encPayload != nil {
		b, err := m.enc.payloadOf(m.encPayload)
		if err != nil {
			return nil, errors.Wrapf(err, "%s payload", dt)
		}
		payload = b
		pt = m.encPayload.DataType().Wire()
	}
	flags |= m.flags &^ (flagMsgKey | flagMsgExtHdr)
	if m.key.flags != 0 {
		flags |= flagMsgKey
	}
	if m.extHdr != nil {
		flags |= flagMsgExtHdr
	}
	var headerLen int
	err := m.enc.write(nil, func(w *wire.Writer) {
		start := w.Pos()
		w.Uint16(0)
		w.Uint8(byte(class))
		w.Uint8(byte(m.domain))
		w.Int32(m.streamID)
		w.Uint16(flags)
		w.Uint8(byte(pt))
		fields(w)
		if flags&flagMsgKey != 0 {
			m.key.writeTo(w, attrib)
		}
		if flags&flagMsgExtHdr != 0 {
			w.Buffer15(m.extHdr)
		}
		headerLen = w.Pos() - start - 2
		if headerLen > maxMsgHeader {
			w.Fail()
			return
		}
		if w.Status() == wire.Success {
			w.PutUint16At(start, uint16(headerLen))
		}
		w.Data(payload)
	})
	if headerLen > maxMsgHeader {
		return nil, outOfRange("%s header length %d exceeds %d", dt, headerLen, maxMsgHeader)
	}
	if err != nil {
		return nil, errors.Wrap(err, dt.String())
	}
	return m.enc.finish(dt, nil)
}

// seqNum is embedded by classes that can carry a sequence number.
type seqNum struct {
	seq    uint32
	hasSeq bool
}

func (s *seqNum) SeqNum() (uint32, bool) { return s.seq, s.hasSeq }

func (s *seqNum) SetSeqNum(n uint32) { s.seq, s.hasSeq = n, true }

func (s *seqNum) seqFlag() uint16 {
	if s.hasSeq {
		return flagMsgSeqNum
	}
	return 0
}

func (s *seqNum) readSeq(r *wire.Reader, flags uint16) {
	if s.hasSeq = flags&flagMsgSeqNum != 0; s.hasSeq {
		s.seq = r.Uint32()
	}
}

func (s *seqNum) writeSeq(w *wire.Writer) {
	if s.hasSeq {
		w.Uint32(s.seq)
	}
}

// permData is embedded by classes that can carry permission data.
type permData struct {
	perm []byte
}

func (p *permData) PermData() []byte { return p.perm }

func (p *permData) SetPermData(b []byte) error {
	if len(b) > wire.MaxU15 {
		return outOfRange("permission data length %d exceeds %d", len(b), wire.MaxU15)
	}
	p.perm = append([]byte(nil), b...)
	return nil
}

func (p *permData) permFlag() uint16 {
	if p.perm != nil {
		return flagMsgPerm
	}
	return 0
}

func (p *permData) readPerm(r *wire.Reader, flags uint16) {
	p.perm = nil
	if flags&flagMsgPerm != 0 {
		p.perm = r.Buffer15()
	}
}

func (p *permData) writePerm(w *wire.Writer) {
	if p.perm != nil {
		w.Buffer15(p.perm)
	}
}

// qosField is embedded by classes that can carry a QoS.
type qosField struct {
	qos    Qos
	hasQos bool
}

// Qos returns the message QoS, if one was sent.
func (q *qosField) Qos() (*Qos, bool) { return &q.qos, q.hasQos }

func (q *qosField) SetQos(v *Qos) {
	if v == nil {
		q.hasQos = false
		return
	}
	q.qos = Qos{
		timeliness: v.timeliness, rate: v.rate, dynamic: v.dynamic,
		timeInfo: v.timeInfo, rateInfo: v.rateInfo,
	}
	q.hasQos = true
}

func (q *qosField) qosFlag() uint16 {
	if q.hasQos {
		return flagMsgQos
	}
	return 0
}

func (q *qosField) readQos(r *wire.Reader, flags uint16) {
	if q.hasQos = flags&flagMsgQos != 0; q.hasQos {
		q.qos.readFrom(r)
	}
}

func (q *qosField) writeQos(w *wire.Writer) {
	if q.hasQos {
		q.qos.writeTo(w)
	}
}
