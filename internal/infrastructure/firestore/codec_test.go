package firestore

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"pos-cloud-sync/internal/domain"
)

func TestCodec_RoundTrip(t *testing.T) {
	codec := NewCodec(0)
	values := []any{
		nil,
		true,
		false,
		int64(0),
		int64(-42),
		int64(math.MaxInt64),
		3.5,
		-0.25,
		"",
		"héllo",
		[]any{},
		[]any{int64(1), "two", 3.25, nil, []any{false}},
		map[string]any{},
		map[string]any{
			"total": int64(42),
			"items": []any{map[string]any{"sku": "A-1", "qty": int64(2), "price": 9.99}},
			"meta":  map[string]any{"voided": false, "note": nil},
		},
	}

	for _, v := range values {
		encoded, err := codec.Encode(v)
		require.NoError(t, err)

		// through the wire as well
		raw, err := json.Marshal(encoded)
		require.NoError(t, err)
		var decodedWire Value
		require.NoError(t, json.Unmarshal(raw, &decodedWire))

		require.Equal(t, v, codec.Decode(encoded))
		require.Equal(t, v, codec.Decode(decodedWire), string(raw))
	}
}

func TestCodec_IntegerVariantSelection(t *testing.T) {
	codec := NewCodec(0)

	for _, v := range []any{42, int32(-7), uint8(3), float64(42), float32(8), json.Number("12"), uint64(math.MaxInt64)} {
		encoded, err := codec.Encode(v)
		require.NoError(t, err)
		require.Equal(t, KindInteger, encoded.Kind(), "%T %v", v, v)
	}

	for _, v := range []any{42.5, float32(0.5), json.Number("1.25"), math.Inf(1), math.NaN(), 1e300, uint64(math.MaxUint64)} {
		encoded, err := codec.Encode(v)
		require.NoError(t, err)
		require.Equal(t, KindDouble, encoded.Kind(), "%T %v", v, v)
	}
}

func TestCodec_WireFormat(t *testing.T) {
	codec := NewCodec(0)
	fields, err := codec.EncodeFields(domain.Record{
		"total": 42,
		"rate":  0.5,
		"name":  "s1",
		"ok":    true,
		"none":  nil,
		"tags":  []any{"a"},
		"meta":  map[string]any{"k": 1},
	})
	require.NoError(t, err)

	raw, err := json.Marshal(Document{Fields: fields})
	require.NoError(t, err)
	require.JSONEq(t, `{"fields":{
		"total":{"integerValue":"42"},
		"rate":{"doubleValue":0.5},
		"name":{"stringValue":"s1"},
		"ok":{"booleanValue":true},
		"none":{"nullValue":"NULL_VALUE"},
		"tags":{"arrayValue":{"values":[{"stringValue":"a"}]}},
		"meta":{"mapValue":{"fields":{"k":{"integerValue":"1"}}}}
	}}`, string(raw))
}

func nested(depth int) any {
	var v any = "leaf"
	for i := 0; i < depth; i++ {
		if i%2 == 0 {
			v = map[string]any{"n": v}
		} else {
			v = []any{v}
		}
	}
	return v
}

func TestCodec_DepthExceeded(t *testing.T) {
	codec := NewCodec(8)

	_, err := codec.Encode(nested(8))
	require.NoError(t, err)

	_, err = codec.Encode(nested(9))
	require.ErrorIs(t, err, domain.ErrDepthExceeded)

	var depthErr *domain.DepthExceededError
	require.ErrorAs(t, err, &depthErr)
	require.Equal(t, 8, depthErr.Limit)

	_, err = codec.EncodeFields(domain.Record{"deep": nested(20)})
	require.ErrorIs(t, err, domain.ErrDepthExceeded)
}

func TestCodec_DefaultDepthBound(t *testing.T) {
	codec := NewCodec(0)
	require.Equal(t, DefaultMaxDepth, codec.MaxDepth)

	_, err := codec.Encode(nested(500))
	require.ErrorIs(t, err, domain.ErrDepthExceeded)
}

func TestCodec_UnsupportedType(t *testing.T) {
	_, err := NewCodec(0).Encode(map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	require.Contains(t, err.Error(), "chan int")
}

func TestValue_TolerantDecoding(t *testing.T) {
	codec := NewCodec(0)
	cases := []string{
		`{"timestampValue":"2024-01-01T00:00:00Z"}`,
		`{"geoPointValue":{"latitude":1,"longitude":2}}`,
		`{"integerValue":"not-a-number"}`,
		`{"booleanValue":"yes"}`,
		`{}`,
		`null`,
		`"garbage"`,
	}
	for _, raw := range cases {
		var v Value
		require.NoError(t, json.Unmarshal([]byte(raw), &v), raw)
		require.Nil(t, codec.Decode(v), raw)
	}

	var v Value
	require.NoError(t, json.Unmarshal([]byte(`{"integerValue":17}`), &v))
	require.Equal(t, int64(17), codec.Decode(v))

	require.NoError(t, json.Unmarshal([]byte(`{"arrayValue":{}}`), &v))
	require.Equal(t, []any{}, codec.Decode(v))
}

func TestCodec_DecodeDocumentAddsRemoteID(t *testing.T) {
	codec := NewCodec(0)
	doc := Document{
		Name: "projects/p/databases/(default)/documents/tenants/t1/sales/s1",
		Fields: map[string]Value{
			"total": IntegerValue(42),
		},
	}

	rec := codec.DecodeDocument(doc)

	require.Equal(t, domain.Record{"total": int64(42), "remote_id": "s1"}, rec)
	// value-level decode does not synthesize remote_id
	require.Equal(t, domain.Record{"total": int64(42)}, codec.DecodeFields(doc.Fields))
}
