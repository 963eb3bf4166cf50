package firestore

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"pos-cloud-sync/internal/domain"
)

// AdminStore is the server-side view of the store: the global connection
// index and every tenant's event queue, reached with a service credential
// instead of a tenant token.
type AdminStore struct {
	client    *Client
	tokens    oauth2.TokenSource
	projectID string
}

// NewAdminStore creates an admin store for a project
func NewAdminStore(client *Client, tokens oauth2.TokenSource, projectID string) *AdminStore {
	return &AdminStore{
		client:    client,
		tokens:    tokens,
		projectID: projectID,
	}
}

func (s *AdminStore) bearer() (string, error) {
	token, err := s.tokens.Token()
	if err != nil {
		return "", fmt.Errorf("failed to get service token: %w", err)
	}
	return token.AccessToken, nil
}

// FindByStore returns connections whose platform and store_url equal the inputs
func (s *AdminStore) FindByStore(ctx context.Context, platform domain.Platform, storeURL string) ([]*domain.Connection, error) {
	return s.queryConnections(ctx, allOf(
		fieldCompare("platform", opEqual, StringValue(string(platform))),
		fieldCompare("store_url", opEqual, StringValue(storeURL)),
	))
}

// ListByPlatform returns every connection of a platform across all tenants
func (s *AdminStore) ListByPlatform(ctx context.Context, platform domain.Platform) ([]*domain.Connection, error) {
	return s.queryConnections(ctx, fieldCompare("platform", opEqual, StringValue(string(platform))))
}

func (s *AdminStore) queryConnections(ctx context.Context, where *queryFilter) ([]*domain.Connection, error) {
	bearer, err := s.bearer()
	if err != nil {
		return nil, err
	}

	query := structuredQuery{
		From:  []collectionSelector{{CollectionID: domain.ConnectionsCollection, AllDescendants: true}},
		Where: where,
	}
	docs, err := s.client.runQuery(ctx, bearer, s.client.documentsPath(s.projectID), query)
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}

	connections := make([]*domain.Connection, 0, len(docs))
	for _, doc := range docs {
		tenantID := tenantFromName(doc.Name)
		if tenantID == "" {
			continue
		}
		connections = append(connections, domain.ConnectionFromRecord(tenantID, s.client.codec.DecodeDocument(doc)))
	}
	return connections, nil
}

// AppendEvent writes rec as a new document with a fresh id in the tenant's
// collection. There is no deduplication.
func (s *AdminStore) AppendEvent(ctx context.Context, tenantID, collection string, rec domain.Record) (string, error) {
	bearer, err := s.bearer()
	if err != nil {
		return "", err
	}
	docID := uuid.NewString()
	result, err := s.client.write(ctx, bearer, s.projectID, tenantID, collection, docID, rec)
	if err != nil {
		return "", fmt.Errorf("failed to append event: %w", err)
	}
	return result.RemoteID, nil
}

// tenantFromName extracts {tenant} from ".../documents/tenants/{tenant}/..."
func tenantFromName(name string) string {
	const marker = "/documents/"
	i := strings.Index(name, marker)
	if i < 0 {
		return ""
	}
	segments := strings.Split(name[i+len(marker):], "/")
	if len(segments) < 2 || segments[0] != tenantsCollection {
		return ""
	}
	return segments[1]
}
