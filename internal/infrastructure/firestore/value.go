package firestore

import (
	"encoding/json"
	"math"
	"strconv"
)

// Kind enumerates the Value variants
type Kind int

const (
	KindNull Kind = iota
	KindBoolean
	KindInteger
	KindDouble
	KindString
	KindArray
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	default:
		return "null"
	}
}

// Value is the typed wire representation of a document field. The zero
// Value is Null.
type Value struct {
	kind    Kind
	boolean bool
	integer int64
	double  float64
	str     string
	array   []Value
	fields  map[string]Value
}

func NullValue() Value             { return Value{} }
func BooleanValue(b bool) Value    { return Value{kind: KindBoolean, boolean: b} }
func IntegerValue(i int64) Value   { return Value{kind: KindInteger, integer: i} }
func DoubleValue(f float64) Value  { return Value{kind: KindDouble, double: f} }
func StringValue(s string) Value   { return Value{kind: KindString, str: s} }
func ArrayValue(vs ...Value) Value { return Value{kind: KindArray, array: vs} }
func MapValue(fields map[string]Value) Value {
	return Value{kind: KindMap, fields: fields}
}

func (v Value) Kind() Kind               { return v.kind }
func (v Value) Bool() bool               { return v.boolean }
func (v Value) Int() int64               { return v.integer }
func (v Value) Float() float64           { return v.double }
func (v Value) Str() string              { return v.str }
func (v Value) Array() []Value           { return v.array }
func (v Value) Fields() map[string]Value { return v.fields }

// wireValue mirrors the Firestore REST value envelope. Exactly one member
// is set on a well-formed value.
type wireValue struct {
	NullValue    *string         `json:"nullValue,omitempty"`
	BooleanValue *bool           `json:"booleanValue,omitempty"`
	IntegerValue json.RawMessage `json:"integerValue,omitempty"`
	DoubleValue  json.RawMessage `json:"doubleValue,omitempty"`
	StringValue  *string         `json:"stringValue,omitempty"`
	ArrayValue   *wireArray      `json:"arrayValue,omitempty"`
	MapValue     *wireMap        `json:"mapValue,omitempty"`
}

type wireArray struct {
	Values []Value `json:"values,omitempty"`
}

type wireMap struct {
	Fields map[string]Value `json:"fields,omitempty"`
}

var nullLiteral = "NULL_VALUE"

// MarshalJSON writes the Firestore envelope. Integers are written as decimal
// strings; non-finite doubles use the string forms Firestore accepts.
func (v Value) MarshalJSON() ([]byte, error) {
	var w wireValue
	switch v.kind {
	case KindBoolean:
		b := v.boolean
		w.BooleanValue = &b
	case KindInteger:
		w.IntegerValue = json.RawMessage(strconv.Quote(strconv.FormatInt(v.integer, 10)))
	case KindDouble:
		w.DoubleValue = marshalDouble(v.double)
	case KindString:
		s := v.str
		w.StringValue = &s
	case KindArray:
		w.ArrayValue = &wireArray{Values: v.array}
	case KindMap:
		w.MapValue = &wireMap{Fields: v.fields}
	default:
		w.NullValue = &nullLiteral
	}
	return json.Marshal(w)
}

func marshalDouble(f float64) json.RawMessage {
	switch {
	case math.IsNaN(f):
		return json.RawMessage(`"NaN"`)
	case math.IsInf(f, 1):
		return json.RawMessage(`"Infinity"`)
	case math.IsInf(f, -1):
		return json.RawMessage(`"-Infinity"`)
	}
	return json.RawMessage(strconv.FormatFloat(f, 'g', -1, 64))
}

// UnmarshalJSON reads the Firestore envelope. Unknown or malformed variants
// (timestamps, references, geo points, bad numbers) become Null rather than
// failing the whole document.
func (v *Value) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		*v = NullValue()
		return nil
	}
	switch {
	case w.BooleanValue != nil:
		*v = BooleanValue(*w.BooleanValue)
	case len(w.IntegerValue) > 0:
		i, ok := parseInteger(w.IntegerValue)
		if !ok {
			*v = NullValue()
			return nil
		}
		*v = IntegerValue(i)
	case len(w.DoubleValue) > 0:
		f, ok := parseDouble(w.DoubleValue)
		if !ok {
			*v = NullValue()
			return nil
		}
		*v = DoubleValue(f)
	case w.StringValue != nil:
		*v = StringValue(*w.StringValue)
	case w.ArrayValue != nil:
		values := w.ArrayValue.Values
		if values == nil {
			values = []Value{}
		}
		*v = ArrayValue(values...)
	case w.MapValue != nil:
		fields := w.MapValue.Fields
		if fields == nil {
			fields = map[string]Value{}
		}
		*v = MapValue(fields)
	default:
		*v = NullValue()
	}
	return nil
}

func parseInteger(raw json.RawMessage) (int64, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		i, err := strconv.ParseInt(s, 10, 64)
		return i, err == nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	i, err := n.Int64()
	return i, err == nil
}

func parseDouble(raw json.RawMessage) (float64, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch s {
		case "NaN":
			return math.NaN(), true
		case "Infinity":
			return math.Inf(1), true
		case "-Infinity":
			return math.Inf(-1), true
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return f, true
}
