package domain

import "strings"

// ConnectionsCollection is the per-tenant collection holding Connections
const ConnectionsCollection = "connections"

// Connection associates an external store with the tenant that owns it.
// Platform and StoreURL never change once created.
type Connection struct {
	ID       string   `json:"id" bson:"docId"`
	TenantID string   `json:"tenant_id" bson:"tenantId"`
	Platform Platform `json:"platform" bson:"platform"`
	StoreURL string   `json:"store_url" bson:"store_url"`
}

// ConnectionID derives the deterministic document id for a platform/store pair
func ConnectionID(platform Platform, storeURL string) string {
	host := StoreHost(storeURL)
	if host == "" {
		host = "unknown"
	}
	return string(platform) + "-" + strings.ReplaceAll(host, ".", "_")
}

// ToRecord converts the connection to its stored record form
func (c *Connection) ToRecord() Record {
	return Record{
		"id":        c.ID,
		"platform":  string(c.Platform),
		"store_url": c.StoreURL,
	}
}

// ConnectionFromRecord reads a stored connection record. The tenant id is
// not part of the record; it comes from the document path.
func ConnectionFromRecord(tenantID string, rec Record) *Connection {
	c := &Connection{TenantID: tenantID}
	c.ID, _ = rec["id"].(string)
	if c.ID == "" {
		c.ID, _ = rec[RemoteIDField].(string)
	}
	if p, ok := rec["platform"].(string); ok {
		c.Platform = Platform(p)
	}
	c.StoreURL, _ = rec["store_url"].(string)
	return c
}
