package firestore

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"pos-cloud-sync/internal/domain"
)

const (
	DefaultBaseURL    = "https://firestore.googleapis.com/v1"
	DefaultDatabaseID = "(default)"
	DefaultTimeout    = 10 * time.Second

	tenantsCollection = "tenants"
)

// Options configures a Client
type Options struct {
	BaseURL    string
	ProjectID  string
	DatabaseID string
	Timeout    time.Duration
	MaxDepth   int
	HTTPClient *http.Client
}

// Client talks to the Firestore REST API. It holds no tenant state: every
// call receives the identity or bearer token it runs under.
type Client struct {
	http           *resty.Client
	codec          Codec
	defaultProject string
	databaseID     string
	timeout        time.Duration
	logger         zerolog.Logger
	now            func() time.Time
}

// NewClient creates a Firestore REST client
func NewClient(opts Options, logger zerolog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.DatabaseID == "" {
		opts.DatabaseID = DefaultDatabaseID
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		http:           rc,
		codec:          NewCodec(opts.MaxDepth),
		defaultProject: opts.ProjectID,
		databaseID:     opts.DatabaseID,
		timeout:        opts.Timeout,
		logger:         logger.With().Str("component", "firestore").Logger(),
		now:            time.Now,
	}
}

// Codec returns the codec used for documents
func (c *Client) Codec() Codec {
	return c.codec
}

func (c *Client) project(id domain.Identity) string {
	if id.ProjectID != "" {
		return id.ProjectID
	}
	return c.defaultProject
}

func (c *Client) documentsPath(project string) string {
	return fmt.Sprintf("/projects/%s/databases/%s/documents", url.PathEscape(project), c.databaseID)
}

func tenantPath(tenantID string) string {
	return tenantsCollection + "/" + url.PathEscape(tenantID)
}

// Push upserts a record at tenants/{tenant}/{collection}/{docId}
func (c *Client) Push(ctx context.Context, id domain.Identity, collection string, rec domain.Record) (*domain.PushResult, error) {
	if !id.Established() {
		return nil, domain.ErrNoIdentity
	}
	project := c.project(id)
	if project == "" {
		return nil, fmt.Errorf("%w: no project scope configured", domain.ErrNoIdentity)
	}
	return c.write(ctx, id.Token, project, id.TenantID, collection, rec.DocumentID(), rec)
}

// write stamps updated_at, encodes every field and upserts the document
func (c *Client) write(ctx context.Context, bearer, project, tenantID, collection, docID string, rec domain.Record) (*domain.PushResult, error) {
	stamped := rec.Clone()
	updatedAt := c.now().UnixMilli()
	stamped[domain.UpdatedAtField] = updatedAt

	fields, err := c.codec.EncodeFields(stamped)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	docPath := fmt.Sprintf("%s/%s/%s/%s", c.documentsPath(project), tenantPath(tenantID), url.PathEscape(collection), url.PathEscape(docID))

	var out Document
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(bearer).
		SetBody(Document{Fields: fields}).
		SetResult(&out).
		ForceContentType("application/json").
		Patch(docPath)
	if err != nil {
		c.logger.Error().Err(err).Str("tenantId", tenantID).Str("collection", collection).Msg("Upsert request failed")
		return nil, fmt.Errorf("failed to upsert document: %w", err)
	}
	if !success(resp) {
		c.logger.Error().
			Int("status", resp.StatusCode()).
			Str("tenantId", tenantID).
			Str("collection", collection).
			Str("body", resp.String()).
			Msg("Upsert rejected by remote store")
		return nil, &domain.RemoteError{Status: resp.StatusCode(), Body: resp.String()}
	}

	remoteID := lastSegment(out.Name)
	if remoteID == "" {
		remoteID = docID
	}
	return &domain.PushResult{RemoteID: remoteID, UpdatedAt: updatedAt}, nil
}

// Pull returns the records of a collection modified after since. Without an
// identity the result is empty and not an error. Any query failure returns an
// empty slice with an error wrapping domain.ErrQueryFailed.
func (c *Client) Pull(ctx context.Context, id domain.Identity, collection string, since *int64) ([]domain.Record, error) {
	if !id.Established() {
		return []domain.Record{}, nil
	}
	project := c.project(id)
	if project == "" {
		return []domain.Record{}, fmt.Errorf("%w: no project scope configured", domain.ErrQueryFailed)
	}

	var after int64
	if since != nil {
		after = *since
	}
	query := structuredQuery{
		From:  []collectionSelector{{CollectionID: collection}},
		Where: fieldCompare(domain.UpdatedAtField, opGreaterThan, IntegerValue(after)),
	}

	parent := c.documentsPath(project) + "/" + tenantPath(id.TenantID)
	docs, err := c.runQuery(ctx, id.Token, parent, query)
	if err != nil {
		c.logger.Warn().Err(err).Str("tenantId", id.TenantID).Str("collection", collection).Msg("Pull query failed")
		return []domain.Record{}, fmt.Errorf("%w: %w", domain.ErrQueryFailed, err)
	}

	records := make([]domain.Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, c.codec.DecodeDocument(doc))
	}
	return records, nil
}

func (c *Client) runQuery(ctx context.Context, bearer, parent string, query structuredQuery) ([]Document, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var out []runQueryResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(bearer).
		SetBody(runQueryRequest{StructuredQuery: query}).
		SetResult(&out).
		ForceContentType("application/json").
		Post(parent + ":runQuery")
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}
	if !success(resp) {
		return nil, &domain.RemoteError{Status: resp.StatusCode(), Body: resp.String()}
	}

	docs := make([]Document, 0, len(out))
	for _, item := range out {
		if item.Document != nil {
			docs = append(docs, *item.Document)
		}
	}
	return docs, nil
}

func success(resp *resty.Response) bool {
	return resp.StatusCode() >= 200 && resp.StatusCode() < 300
}
