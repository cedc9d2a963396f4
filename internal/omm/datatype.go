package omm

import (
	"fmt"

	"github.com/danmuck/omm/internal/protocol/wire"
)

// DataType discriminates every concrete Data kind.
type DataType uint8

const (
	TypeNoData DataType = iota
	TypeError

	TypeInt
	TypeUInt
	TypeFloat
	TypeDouble
	TypeReal
	TypeDate
	TypeTime
	TypeDateTime
	TypeQos
	TypeState
	TypeEnum
	TypeArray
	TypeBuffer
	TypeAscii
	TypeUtf8
	TypeRmtes
	TypeOpaque
	TypeXml
	TypeAnsiPage

	TypeFieldList
	TypeElementList
	TypeMap
	TypeFilterList
	TypeVector
	TypeSeries

	TypeReqMsg
	TypeRefreshMsg
	TypeUpdateMsg
	TypeStatusMsg
	TypeGenericMsg
	TypePostMsg
	TypeAckMsg

	numDataTypes
)

// DataCode marks a value as present or explicitly blank on the wire.
type DataCode uint8

const (
	NoCode DataCode = iota
	Blank
)

func (c DataCode) String() string {
	if c == Blank {
		return "Blank"
	}
	return "NoCode"
}

// Data is any decoded or encodable OMM value. The set of implementations is
// closed; switch on DataType or use a type switch.
type Data interface {
	DataType() DataType
	Code() DataCode
	String() string

	isData()
}

type typeInfo struct {
	name string
	wire wire.Type
}

var dataTypes = [numDataTypes]typeInfo{
	TypeNoData: {"NoData", wire.TypeNoData},
	TypeError:  {"Error", wire.TypeUnknown},

	TypeInt:      {"Int", wire.TypeInt},
	TypeUInt:     {"UInt", wire.TypeUInt},
	TypeFloat:    {"Float", wire.TypeFloat},
	TypeDouble:   {"Double", wire.TypeDouble},
	TypeReal:     {"Real", wire.TypeReal},
	TypeDate:     {"Date", wire.TypeDate},
	TypeTime:     {"Time", wire.TypeTime},
	TypeDateTime: {"DateTime", wire.TypeDateTime},
	TypeQos:      {"Qos", wire.TypeQos},
	TypeState:    {"State", wire.TypeState},
	TypeEnum:     {"Enum", wire.TypeEnum},
	TypeArray:    {"OmmArray", wire.TypeArray},
	TypeBuffer:   {"Buffer", wire.TypeBuffer},
	TypeAscii:    {"Ascii", wire.TypeASCII},
	TypeUtf8:     {"Utf8", wire.TypeUTF8},
	TypeRmtes:    {"Rmtes", wire.TypeRMTES},
	TypeOpaque:   {"Opaque", wire.TypeOpaque},
	TypeXml:      {"Xml", wire.TypeXML},
	TypeAnsiPage: {"AnsiPage", wire.TypeAnsiPage},

	TypeFieldList:   {"FieldList", wire.TypeFieldList},
	TypeElementList: {"ElementList", wire.TypeElementList},
	TypeMap:         {"Map", wire.TypeMap},
	TypeFilterList:  {"FilterList", wire.TypeFilterList},
	TypeVector:      {"Vector", wire.TypeVector},
	TypeSeries:      {"Series", wire.TypeSeries},

	TypeReqMsg:     {"ReqMsg", wire.TypeMsg},
	TypeRefreshMsg: {"RefreshMsg", wire.TypeMsg},
	TypeUpdateMsg:  {"UpdateMsg", wire.TypeMsg},
	TypeStatusMsg:  {"StatusMsg", wire.TypeMsg},
	TypeGenericMsg: {"GenericMsg", wire.TypeMsg},
	TypePostMsg:    {"PostMsg", wire.TypeMsg},
	TypeAckMsg:     {"AckMsg", wire.TypeMsg},
}

// wireTypes maps a wire type to the DataType it decodes into. Messages are
// resolved by class after the message header is read.
var wireTypes = func() map[wire.Type]DataType {
	m := make(map[wire.Type]DataType, numDataTypes)
	for dt := TypeNoData; dt < TypeReqMsg; dt++ {
		if dt == TypeError {
			continue
		}
		m[dataTypes[dt].wire] = dt
	}
	return m
}()

func (t DataType) String() string {
	if t < numDataTypes {
		return dataTypes[t].name
	}
	return fmt.Sprintf("DataType(%d)", uint8(t))
}

// Wire returns the wire type t is carried as.
func (t DataType) Wire() wire.Type {
	if t < numDataTypes {
		return dataTypes[t].wire
	}
	return wire.TypeUnknown
}

// Scalar reports whether t is one of the non-container value kinds.
func (t DataType) Scalar() bool { return t >= TypeInt && t <= TypeAnsiPage }

func (t DataType) Container() bool { return t >= TypeFieldList && t <= TypeSeries }

func (t DataType) Msg() bool { return t >= TypeReqMsg && t <= TypeAckMsg }

// keyable reports whether values of t can key a Map entry.
func (t DataType) keyable() bool {
	return t.Scalar() && t != TypeArray && t.Wire().Primitive()
}

// DataTypeOf returns the DataType a wire type decodes into.
func DataTypeOf(t wire.Type) (DataType, bool) {
	dt, ok := wireTypes[t]
	return dt, ok
}
