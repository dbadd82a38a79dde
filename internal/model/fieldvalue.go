package model

import (
	"encoding/json"
	"strconv"
)

type FieldKind uint8

const (
	KindNull FieldKind = iota
	KindString
	KindNumber
	KindBoolean
	KindObject
	KindArray
)

func (k FieldKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "null"
	}
}

// FieldValue is one entry of a record's flattened field index. Scalars carry
// their decoded value; objects and arrays carry their raw JSON plus the number
// of keys or elements.
type FieldValue struct {
	Kind   FieldKind
	Str    string
	Number float64
	Bool   bool
	Raw    json.RawMessage
	Len    int
}

func StringValue(s string) FieldValue {
	return FieldValue{Kind: KindString, Str: s}
}

func NumberValue(n float64) FieldValue {
	return FieldValue{Kind: KindNumber, Number: n}
}

func BooleanValue(b bool) FieldValue {
	return FieldValue{Kind: KindBoolean, Bool: b}
}

func NullValue() FieldValue {
	return FieldValue{Kind: KindNull}
}

func ObjectValue(raw []byte, keys int) FieldValue {
	return FieldValue{Kind: KindObject, Raw: json.RawMessage(raw), Len: keys}
}

func ArrayValue(raw []byte, elements int) FieldValue {
	return FieldValue{Kind: KindArray, Raw: json.RawMessage(raw), Len: elements}
}

// String renders the value the way a table cell shows it.
func (v FieldValue) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.Bool)
	case KindObject, KindArray:
		return string(v.Raw)
	default:
		return "null"
	}
}

type fieldValueJSON struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
	Len   *int            `json:"len,omitempty"`
}

func (v FieldValue) MarshalJSON() ([]byte, error) {
	out := fieldValueJSON{Type: v.Kind.String()}
	var err error
	switch v.Kind {
	case KindString:
		out.Value, err = json.Marshal(v.Str)
	case KindNumber:
		out.Value, err = json.Marshal(v.Number)
	case KindBoolean:
		out.Value, err = json.Marshal(v.Bool)
	case KindObject, KindArray:
		out.Value = v.Raw
		n := v.Len
		out.Len = &n
	default:
		out.Value = json.RawMessage("null")
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}
