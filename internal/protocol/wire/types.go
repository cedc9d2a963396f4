package wire

import (
	"fmt"
	"strings"
)

// Type is the one-byte data type identifier carried in container headers and
// entries.
type Type uint8

// Primitive type IDs.
const (
	TypeUnknown  Type = 0
	TypeInt      Type = 3
	TypeUInt     Type = 4
	TypeFloat    Type = 5
	TypeDouble   Type = 6
	TypeReal     Type = 8
	TypeDate     Type = 9
	TypeTime     Type = 10
	TypeDateTime Type = 11
	TypeQos      Type = 12
	TypeState    Type = 13
	TypeEnum     Type = 14
	TypeArray    Type = 15
	TypeBuffer   Type = 16
	TypeASCII    Type = 17
	TypeUTF8     Type = 18
	TypeRMTES    Type = 19
)

// Container type IDs.
const (
	TypeNoData      Type = 128
	TypeOpaque      Type = 130
	TypeXML         Type = 131
	TypeFieldList   Type = 132
	TypeElementList Type = 133
	TypeAnsiPage    Type = 134
	TypeFilterList  Type = 135
	TypeVector      Type = 136
	TypeMap         Type = 137
	TypeSeries      Type = 138
	TypeMsg         Type = 141
)

var typeNames = map[Type]string{
	TypeUnknown:     "UNKNOWN",
	TypeInt:         "INT",
	TypeUInt:        "UINT",
	TypeFloat:       "FLOAT",
	TypeDouble:      "DOUBLE",
	TypeReal:        "REAL",
	TypeDate:        "DATE",
	TypeTime:        "TIME",
	TypeDateTime:    "DATETIME",
	TypeQos:         "QOS",
	TypeState:       "STATE",
	TypeEnum:        "ENUM",
	TypeArray:       "ARRAY",
	TypeBuffer:      "BUFFER",
	TypeASCII:       "ASCII_STRING",
	TypeUTF8:        "UTF8_STRING",
	TypeRMTES:       "RMTES_STRING",
	TypeNoData:      "NO_DATA",
	TypeOpaque:      "OPAQUE",
	TypeXML:         "XML",
	TypeFieldList:   "FIELD_LIST",
	TypeElementList: "ELEMENT_LIST",
	TypeAnsiPage:    "ANSI_PAGE",
	TypeFilterList:  "FILTER_LIST",
	TypeVector:      "VECTOR",
	TypeMap:         "MAP",
	TypeSeries:      "SERIES",
	TypeMsg:         "MSG",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TYPE(%d)", uint8(t))
}

// Known reports whether t is a type the codec can dispatch.
func (t Type) Known() bool {
	_, ok := typeNames[t]
	return ok && t != TypeUnknown
}

// Primitive reports whether t is a primitive type ID.
func (t Type) Primitive() bool {
	return t > TypeUnknown && t <= TypeRMTES && t.Known()
}

// Container reports whether t is a container type ID (opaque payloads included).
func (t Type) Container() bool {
	return t >= TypeNoData && t.Known()
}

// ParseType resolves a type name such as "REAL" or "RMTES_STRING".
// A few dictionary aliases are accepted.
func ParseType(name string) (Type, error) {
	want := strings.ToUpper(strings.TrimSpace(name))
	switch want {
	case "ASCII", "ALPHANUMERIC":
		return TypeASCII, nil
	case "UTF8":
		return TypeUTF8, nil
	case "RMTES":
		return TypeRMTES, nil
	case "PRICE":
		return TypeReal, nil
	case "INTEGER":
		return TypeInt, nil
	}
	for t, n := range typeNames {
		if n == want && t != TypeUnknown {
			return t, nil
		}
	}
	return TypeUnknown, fmt.Errorf("wire: unknown type name %q", name)
}
