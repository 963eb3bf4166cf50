package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pos-cloud-sync/internal/domain"
	"pos-cloud-sync/internal/infrastructure/repository/entity"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const recordsCollection = "records"

// MongoRepository implements RecordStore, ConnectionIndex and EventQueue
// on a single MongoDB collection
type MongoRepository struct {
	records *mongo.Collection
	timeout time.Duration
	logger  zerolog.Logger
	now     func() time.Time
}

// NewMongoRepository creates a new MongoDB repository
func NewMongoRepository(db *mongo.Database, timeout time.Duration, logger zerolog.Logger) *MongoRepository {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MongoRepository{
		records: db.Collection(recordsCollection),
		timeout: timeout,
		logger:  logger.With().Str("component", "mongo").Logger(),
		now:     time.Now,
	}
}

// EnsureIndexes creates the unique path index and the pull index
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "tenantId", Value: 1}, {Key: "collection", Value: 1}, {Key: "docId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "tenantId", Value: 1}, {Key: "collection", Value: 1}, {Key: "updated_at", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "collection", Value: 1}, {Key: "fields.platform", Value: 1}, {Key: "fields.store_url", Value: 1}},
		},
	}
	if _, err := r.records.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Push upserts a record at tenants/{tenant}/{collection}/{docId}
func (r *MongoRepository) Push(ctx context.Context, id domain.Identity, collection string, rec domain.Record) (*domain.PushResult, error) {
	if !id.Established() {
		return nil, domain.ErrNoIdentity
	}
	return r.write(ctx, id.TenantID, collection, rec.DocumentID(), rec)
}

func (r *MongoRepository) write(ctx context.Context, tenantID, collection, docID string, rec domain.Record) (*domain.PushResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	updatedAt := r.now().UnixMilli()
	stamped := rec.Clone()
	stamped[domain.UpdatedAtField] = updatedAt
	doc := entity.MongoRecordDocFromDomain(tenantID, collection, docID, stamped, updatedAt)

	filter := pathFilter(tenantID, collection, docID)
	update := bson.M{"$set": bson.M{"fields": doc.Fields, "updated_at": doc.UpdatedAt}}
	opts := options.Update().SetUpsert(true)

	if _, err := r.records.UpdateOne(ctx, filter, update, opts); err != nil {
		r.logger.Error().Err(err).
			Str("tenantId", tenantID).
			Str("collection", collection).
			Str("docId", docID).
			Msg("Failed to upsert record")
		return nil, fmt.Errorf("failed to save record: %w", err)
	}

	return &domain.PushResult{RemoteID: docID, UpdatedAt: updatedAt}, nil
}

// Pull returns records of the collection with updated_at greater than since
func (r *MongoRepository) Pull(ctx context.Context, id domain.Identity, collection string, since *int64) ([]domain.Record, error) {
	if !id.Established() {
		return []domain.Record{}, nil
	}

	var floor int64
	if since != nil {
		floor = *since
	}

	docs, err := r.find(ctx, sinceFilter(id.TenantID, collection, floor))
	if err != nil {
		r.logger.Error().Err(err).
			Str("tenantId", id.TenantID).
			Str("collection", collection).
			Msg("Failed to pull records")
		return []domain.Record{}, fmt.Errorf("%w: %w", domain.ErrQueryFailed, err)
	}

	out := make([]domain.Record, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.ToDomain())
	}
	return out, nil
}

// FindByStore returns connections registered with exactly this store url
func (r *MongoRepository) FindByStore(ctx context.Context, platform domain.Platform, storeURL string) ([]*domain.Connection, error) {
	return r.connections(ctx, bson.M{
		"collection":       domain.ConnectionsCollection,
		"fields.platform":  string(platform),
		"fields.store_url": storeURL,
	})
}

// ListByPlatform returns all connections of a platform across tenants
func (r *MongoRepository) ListByPlatform(ctx context.Context, platform domain.Platform) ([]*domain.Connection, error) {
	return r.connections(ctx, bson.M{
		"collection":      domain.ConnectionsCollection,
		"fields.platform": string(platform),
	})
}

func (r *MongoRepository) connections(ctx context.Context, filter bson.M) ([]*domain.Connection, error) {
	docs, err := r.find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrQueryFailed, err)
	}
	out := make([]*domain.Connection, 0, len(docs))
	for _, doc := range docs {
		out = append(out, domain.ConnectionFromRecord(doc.TenantID, doc.ToDomain()))
	}
	return out, nil
}

// AppendEvent stores an event record under a fresh id
func (r *MongoRepository) AppendEvent(ctx context.Context, tenantID, collection string, rec domain.Record) (string, error) {
	if tenantID == "" {
		return "", errors.New("tenant id is required")
	}
	res, err := r.write(ctx, tenantID, collection, uuid.NewString(), rec)
	if err != nil {
		return "", fmt.Errorf("failed to append event: %w", err)
	}
	return res.RemoteID, nil
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M) ([]entity.MongoRecordDoc, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.records.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []entity.MongoRecordDoc
	for cursor.Next(ctx) {
		var doc entity.MongoRecordDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return docs, nil
}

func pathFilter(tenantID, collection, docID string) bson.M {
	return bson.M{
		"tenantId":   tenantID,
		"collection": collection,
		"docId":      docID,
	}
}

func sinceFilter(tenantID, collection string, since int64) bson.M {
	return bson.M{
		"tenantId":   tenantID,
		"collection": collection,
		"updated_at": bson.M{"$gt": since},
	}
}
