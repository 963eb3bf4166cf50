package domain

import "fmt"

const (
	// RemoteIDField mirrors the terminal path segment of a decoded document
	RemoteIDField = "remote_id"
	// UpdatedAtField holds the epoch-millisecond modification stamp used by pull
	UpdatedAtField = "updated_at"

	unknownDocumentID = "unknown"
)

// Record is a flat or nested field map keyed by an opaque id
type Record map[string]any

// DocumentID returns the upsert key: id, then local_id, then "unknown"
func (r Record) DocumentID() string {
	for _, key := range []string{"id", "local_id"} {
		v, ok := r[key]
		if !ok || v == nil {
			continue
		}
		s := fmt.Sprint(v)
		if s != "" {
			return s
		}
	}
	return unknownDocumentID
}

// Clone returns a shallow copy of the record
func (r Record) Clone() Record {
	out := make(Record, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// PushResult is returned by a successful push
type PushResult struct {
	RemoteID  string `json:"remote_id"`
	UpdatedAt int64  `json:"updated_at"`
}
