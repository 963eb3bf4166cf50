package firestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"pos-cloud-sync/internal/domain"
)

// DefaultMaxDepth bounds the nesting of encoded values
const DefaultMaxDepth = 64

// Codec converts between local record values and typed document values
type Codec struct {
	MaxDepth int
}

// NewCodec creates a codec; a non-positive depth selects DefaultMaxDepth
func NewCodec(maxDepth int) Codec {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return Codec{MaxDepth: maxDepth}
}

func (c Codec) limit() int {
	if c.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return c.MaxDepth
}

// Encode converts a local value to its typed form
func (c Codec) Encode(v any) (Value, error) {
	return c.encode(v, 0)
}

func (c Codec) encode(v any, depth int) (Value, error) {
	if depth > c.limit() {
		return Value{}, &domain.DepthExceededError{Limit: c.limit()}
	}

	switch t := v.(type) {
	case nil:
		return NullValue(), nil
	case bool:
		return BooleanValue(t), nil
	case string:
		return StringValue(t), nil
	case int:
		return IntegerValue(int64(t)), nil
	case int8:
		return IntegerValue(int64(t)), nil
	case int16:
		return IntegerValue(int64(t)), nil
	case int32:
		return IntegerValue(int64(t)), nil
	case int64:
		return IntegerValue(t), nil
	case uint:
		return encodeUnsigned(uint64(t)), nil
	case uint8:
		return IntegerValue(int64(t)), nil
	case uint16:
		return IntegerValue(int64(t)), nil
	case uint32:
		return IntegerValue(int64(t)), nil
	case uint64:
		return encodeUnsigned(t), nil
	case float32:
		return encodeFloat(float64(t)), nil
	case float64:
		return encodeFloat(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return IntegerValue(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("failed to encode number %q: %w", t.String(), err)
		}
		return encodeFloat(f), nil
	case []any:
		values := make([]Value, 0, len(t))
		for i, item := range t {
			ev, err := c.encode(item, depth+1)
			if err != nil {
				return Value{}, wrapPath(err, fmt.Sprintf("[%d]", i))
			}
			values = append(values, ev)
		}
		return ArrayValue(values...), nil
	case domain.Record:
		return c.encodeMap(t, depth)
	case map[string]any:
		return c.encodeMap(t, depth)
	case Value:
		return t, nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", v)
	}
}

func (c Codec) encodeMap(m map[string]any, depth int) (Value, error) {
	fields := make(map[string]Value, len(m))
	for k, item := range m {
		ev, err := c.encode(item, depth+1)
		if err != nil {
			return Value{}, wrapPath(err, k)
		}
		fields[k] = ev
	}
	return MapValue(fields), nil
}

func encodeUnsigned(u uint64) Value {
	if u > math.MaxInt64 {
		return DoubleValue(float64(u))
	}
	return IntegerValue(int64(u))
}

// encodeFloat selects the integer variant for values with no fractional part
func encodeFloat(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return DoubleValue(f)
	}
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return IntegerValue(int64(f))
	}
	return DoubleValue(f)
}

func wrapPath(err error, segment string) error {
	var depthErr *domain.DepthExceededError
	if errors.As(err, &depthErr) {
		return err
	}
	return fmt.Errorf("%s: %w", segment, err)
}

// Decode converts a typed value back to a local value. It never fails.
func (c Codec) Decode(v Value) any {
	switch v.Kind() {
	case KindBoolean:
		return v.Bool()
	case KindInteger:
		return v.Int()
	case KindDouble:
		return v.Float()
	case KindString:
		return v.Str()
	case KindArray:
		out := make([]any, 0, len(v.Array()))
		for _, item := range v.Array() {
			out = append(out, c.Decode(item))
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.Fields()))
		for k, item := range v.Fields() {
			out[k] = c.Decode(item)
		}
		return out
	default:
		return nil
	}
}

// EncodeFields encodes every field of a record
func (c Codec) EncodeFields(rec domain.Record) (map[string]Value, error) {
	fields := make(map[string]Value, len(rec))
	for k, item := range rec {
		ev, err := c.encode(item, 1)
		if err != nil {
			return nil, wrapPath(err, k)
		}
		fields[k] = ev
	}
	return fields, nil
}

// DecodeFields decodes document fields into a record
func (c Codec) DecodeFields(fields map[string]Value) domain.Record {
	rec := make(domain.Record, len(fields)+1)
	for k, v := range fields {
		rec[k] = c.Decode(v)
	}
	return rec
}

// Document is a Firestore document as returned by the REST API
type Document struct {
	Name       string           `json:"name,omitempty"`
	Fields     map[string]Value `json:"fields"`
	CreateTime string           `json:"createTime,omitempty"`
	UpdateTime string           `json:"updateTime,omitempty"`
}

// DecodeDocument decodes a document and adds remote_id from its name
func (c Codec) DecodeDocument(doc Document) domain.Record {
	rec := c.DecodeFields(doc.Fields)
	rec[domain.RemoteIDField] = lastSegment(doc.Name)
	return rec
}

func lastSegment(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}
