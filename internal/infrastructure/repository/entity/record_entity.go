package entity

import (
	"pos-cloud-sync/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoRecordDoc stores one tenant record. The logical path
// tenants/{tenantId}/{collection}/{docId} is flattened into key fields.
type MongoRecordDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	TenantID   string             `bson:"tenantId"`
	Collection string             `bson:"collection"`
	DocID      string             `bson:"docId"`
	Fields     bson.M             `bson:"fields"`
	UpdatedAt  int64              `bson:"updated_at"`
}

// ToDomain converts the MongoDB document to a record carrying remote_id
func (d *MongoRecordDoc) ToDomain() domain.Record {
	rec := make(domain.Record, len(d.Fields)+1)
	for k, v := range d.Fields {
		rec[k] = Normalize(v)
	}
	rec[domain.RemoteIDField] = d.DocID
	return rec
}

// MongoRecordDocFromDomain converts a record to a MongoDB document
func MongoRecordDocFromDomain(tenantID, collection, docID string, rec domain.Record, updatedAt int64) *MongoRecordDoc {
	fields := make(bson.M, len(rec))
	for k, v := range rec {
		fields[k] = v
	}
	return &MongoRecordDoc{
		TenantID:   tenantID,
		Collection: collection,
		DocID:      docID,
		Fields:     fields,
		UpdatedAt:  updatedAt,
	}
}

// Normalize maps BSON decode types onto the value set records use:
// int64, float64, bool, string, nil, []any and map[string]any.
func Normalize(v any) any {
	switch t := v.(type) {
	case int32:
		return int64(t)
	case int:
		return int64(t)
	case primitive.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Normalize(e)
		}
		return out
	case primitive.M:
		return normalizeMap(t)
	case map[string]any:
		return normalizeMap(t)
	case primitive.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = Normalize(e.Value)
		}
		return out
	case primitive.DateTime:
		return int64(t)
	case primitive.Null, primitive.Undefined:
		return nil
	default:
		return v
	}
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, e := range m {
		out[k] = Normalize(e)
	}
	return out
}
