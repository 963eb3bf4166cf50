package firestore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"pos-cloud-sync/internal/domain"
)

type capturedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

type recorder struct {
	mu       sync.Mutex
	requests []capturedRequest
	calls    int32
}

func (r *recorder) all() []capturedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]capturedRequest(nil), r.requests...)
}

func (r *recorder) count() int32 {
	return atomic.LoadInt32(&r.calls)
}

func newTestServer(t *testing.T, status int, response string) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&rec.calls, 1)
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		rec.mu.Lock()
		rec.requests = append(rec.requests, capturedRequest{
			Method: r.Method,
			Path:   r.URL.EscapedPath(),
			Auth:   r.Header.Get("Authorization"),
			Body:   body,
		})
		rec.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func newTestClient(baseURL string) *Client {
	c := NewClient(Options{BaseURL: baseURL, ProjectID: "fallback-proj", Timeout: 2 * time.Second}, zerolog.Nop())
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return c
}

const exampleToken = "header.eyJ1c2VyX2lkIjoidGVuYW50LTEiLCJhdWQiOiJwcm9qLTEifQ==.sig"

var tenantOne = domain.Identity{TenantID: "tenant-1", ProjectID: "proj-1", Token: exampleToken}

func TestPush_UpsertsUnderTenantPath(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK,
		`{"name":"projects/proj-1/databases/(default)/documents/tenants/tenant-1/sales/s1","fields":{}}`)
	client := newTestClient(srv.URL)

	result, err := client.Push(context.Background(), tenantOne, "sales", domain.Record{"id": "s1", "total": 42})
	require.NoError(t, err)
	require.Equal(t, &domain.PushResult{RemoteID: "s1", UpdatedAt: 1700000000000}, result)

	require.Len(t, rec.all(), 1)
	req := rec.all()[0]
	require.Equal(t, http.MethodPatch, req.Method)
	require.Equal(t, "/projects/proj-1/databases/(default)/documents/tenants/tenant-1/sales/s1", req.Path)
	require.Equal(t, "Bearer "+exampleToken, req.Auth)

	fields := req.Body["fields"].(map[string]any)
	require.Equal(t, map[string]any{"integerValue": "42"}, fields["total"])
	require.Equal(t, map[string]any{"stringValue": "s1"}, fields["id"])
	require.Equal(t, map[string]any{"integerValue": "1700000000000"}, fields["updated_at"])
}

func TestPush_DocumentIDFallbacks(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{}`)
	client := newTestClient(srv.URL)

	_, err := client.Push(context.Background(), tenantOne, "sales", domain.Record{"local_id": "L-9"})
	require.NoError(t, err)
	result, err := client.Push(context.Background(), tenantOne, "sales", domain.Record{"total": 1})
	require.NoError(t, err)
	require.Equal(t, "unknown", result.RemoteID)

	require.Equal(t, "/projects/proj-1/databases/(default)/documents/tenants/tenant-1/sales/L-9", rec.all()[0].Path)
	require.Equal(t, "/projects/proj-1/databases/(default)/documents/tenants/tenant-1/sales/unknown", rec.all()[1].Path)
}

func TestPush_UsesDefaultProjectWhenIdentityHasNone(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{}`)
	client := newTestClient(srv.URL)

	id := domain.Identity{TenantID: "t", Token: "tok"}
	_, err := client.Push(context.Background(), id, "products", domain.Record{"id": "p"})
	require.NoError(t, err)
	require.Equal(t, "/projects/fallback-proj/databases/(default)/documents/tenants/t/products/p", rec.all()[0].Path)
}

func TestPush_WithoutIdentityMakesNoCall(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{}`)
	client := newTestClient(srv.URL)

	for _, id := range []domain.Identity{{}, {Token: "tok"}, {TenantID: "t"}} {
		result, err := client.Push(context.Background(), id, "sales", domain.Record{"id": "s1"})
		require.ErrorIs(t, err, domain.ErrNoIdentity)
		require.Nil(t, result)
	}
	require.Equal(t, int32(0), rec.count())
}

func TestPush_NonSuccessStatusFails(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusForbidden, `{"error":{"message":"denied"}}`)
	client := newTestClient(srv.URL)

	result, err := client.Push(context.Background(), tenantOne, "sales", domain.Record{"id": "s1"})
	require.Nil(t, result)

	var remoteErr *domain.RemoteError
	require.ErrorAs(t, err, &remoteErr)
	require.Equal(t, http.StatusForbidden, remoteErr.Status)
	require.Contains(t, remoteErr.Body, "denied")
	require.Equal(t, int32(1), rec.count(), "no retry")
}

func TestPush_TimeoutIsOrdinaryFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, zerolog.Nop())
	_, err := client.Push(context.Background(), tenantOne, "sales", domain.Record{"id": "s1"})
	require.Error(t, err)
}

func TestPush_EncodingFailureMakesNoCall(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{}`)
	client := newTestClient(srv.URL)

	_, err := client.Push(context.Background(), tenantOne, "sales", domain.Record{"id": "s1", "bad": struct{}{}})
	require.Error(t, err)
	require.Equal(t, int32(0), rec.count())
}

func TestPull_QueriesUpdatedAfter(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `[
		{"document":{"name":"projects/proj-1/databases/(default)/documents/tenants/tenant-1/sales/s1",
			"fields":{"total":{"integerValue":"42"},"updated_at":{"integerValue":"200"}}},"readTime":"x"},
		{"document":{"name":"projects/proj-1/databases/(default)/documents/tenants/tenant-1/sales/s2",
			"fields":{"total":{"doubleValue":1.5}}}}
	]`)
	client := newTestClient(srv.URL)

	since := int64(100)
	records, err := client.Pull(context.Background(), tenantOne, "sales", &since)
	require.NoError(t, err)
	require.ElementsMatch(t, []domain.Record{
		{"total": int64(42), "updated_at": int64(200), "remote_id": "s1"},
		{"total": 1.5, "remote_id": "s2"},
	}, records)

	req := rec.all()[0]
	require.Equal(t, http.MethodPost, req.Method)
	require.Equal(t, "/projects/proj-1/databases/(default)/documents/tenants/tenant-1:runQuery", req.Path)

	query := req.Body["structuredQuery"].(map[string]any)
	require.Equal(t, []any{map[string]any{"collectionId": "sales"}}, query["from"])
	require.Equal(t, map[string]any{
		"fieldFilter": map[string]any{
			"field": map[string]any{"fieldPath": "updated_at"},
			"op":    "GREATER_THAN",
			"value": map[string]any{"integerValue": "100"},
		},
	}, query["where"])
	require.NotContains(t, query, "orderBy")
}

func TestPull_NilTimestampMeansEpoch(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `[{"readTime":"x"}]`)
	client := newTestClient(srv.URL)

	records, err := client.Pull(context.Background(), tenantOne, "sales", nil)
	require.NoError(t, err)
	require.Empty(t, records)
	require.NotNil(t, records)

	where := rec.all()[0].Body["structuredQuery"].(map[string]any)["where"].(map[string]any)
	value := where["fieldFilter"].(map[string]any)["value"]
	require.Equal(t, map[string]any{"integerValue": "0"}, value)
}

func TestPull_WithoutIdentityIsEmpty(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `[]`)
	client := newTestClient(srv.URL)

	for _, collection := range []string{"sales", "", "products"} {
		records, err := client.Pull(context.Background(), domain.Identity{}, collection, nil)
		require.NoError(t, err)
		require.Empty(t, records)
	}
	require.Equal(t, int32(0), rec.count())
}

func TestPull_QueryFailureIsDistinguishable(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusBadRequest, `{"error":{"message":"The query requires an index"}}`)
	client := newTestClient(srv.URL)

	records, err := client.Pull(context.Background(), tenantOne, "sales", nil)
	require.Empty(t, records)
	require.ErrorIs(t, err, domain.ErrQueryFailed)
	require.Contains(t, err.Error(), "requires an index")
}

func TestAdminStore_FindByStore(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `[
		{"document":{"name":"projects/p/databases/(default)/documents/tenants/T/connections/shopify-s",
			"fields":{"platform":{"stringValue":"shopify"},"store_url":{"stringValue":"s.myshopify.com"}}}},
		{"document":{"name":"projects/p/databases/(default)/documents/orphans/connections/x","fields":{}}}
	]`)
	client := newTestClient(srv.URL)
	store := NewAdminStore(client, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "svc"}), "p")

	conns, err := store.FindByStore(context.Background(), domain.PlatformShopify, "s.myshopify.com")
	require.NoError(t, err)
	require.Equal(t, []*domain.Connection{{
		ID:       "shopify-s",
		TenantID: "T",
		Platform: domain.PlatformShopify,
		StoreURL: "s.myshopify.com",
	}}, conns)

	req := rec.all()[0]
	require.Equal(t, "/projects/p/databases/(default)/documents:runQuery", req.Path)
	require.Equal(t, "Bearer svc", req.Auth)
	query := req.Body["structuredQuery"].(map[string]any)
	require.Equal(t, []any{map[string]any{"collectionId": "connections", "allDescendants": true}}, query["from"])
	composite := query["where"].(map[string]any)["compositeFilter"].(map[string]any)
	require.Equal(t, "AND", composite["op"])
	require.Len(t, composite["filters"], 2)
}

func TestAdminStore_AppendEvent(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{}`)
	client := newTestClient(srv.URL)
	store := NewAdminStore(client, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "svc"}), "p")

	id, err := store.AppendEvent(context.Background(), "T", "shopify_events", domain.Record{"processed": false})
	require.NoError(t, err)
	require.Len(t, id, 36)

	req := rec.all()[0]
	require.Equal(t, http.MethodPatch, req.Method)
	require.Equal(t, "/projects/p/databases/(default)/documents/tenants/T/shopify_events/"+id, req.Path)
	fields := req.Body["fields"].(map[string]any)
	require.Equal(t, map[string]any{"booleanValue": false}, fields["processed"])
}

func TestTenantFromName(t *testing.T) {
	require.Equal(t, "T", tenantFromName("projects/p/databases/(default)/documents/tenants/T/connections/c"))
	require.Equal(t, "", tenantFromName("projects/p/databases/(default)/documents/other/T/connections/c"))
	require.Equal(t, "", tenantFromName("garbage"))
}
