package application

import (
	"context"
	"errors"
	"fmt"

	"pos-cloud-sync/internal/domain"
	"pos-cloud-sync/internal/ports"

	"github.com/rs/zerolog"
)

// SyncService pushes and pulls tenant records on behalf of desktop clients
type SyncService struct {
	store   ports.RecordStore
	metrics ports.MetricsRecorder
	logger  zerolog.Logger
}

// NewSyncService creates a new sync service. metrics may be nil.
func NewSyncService(store ports.RecordStore, metrics ports.MetricsRecorder, logger zerolog.Logger) *SyncService {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &SyncService{
		store:   store,
		metrics: metrics,
		logger:  logger,
	}
}

// Push upserts one record into the caller's collection
func (s *SyncService) Push(ctx context.Context, id domain.Identity, collection string, rec domain.Record) (*domain.PushResult, error) {
	if collection == "" {
		return nil, fmt.Errorf("collection is required")
	}

	result, err := s.store.Push(ctx, id, collection, rec)
	if err != nil {
		if errors.Is(err, domain.ErrNoIdentity) {
			s.metrics.StoreOperation("push", ResultNoIdentity)
			return nil, err
		}
		s.metrics.StoreOperation("push", ResultError)
		s.logger.Error().Err(err).
			Str("tenantId", id.TenantID).
			Str("collection", collection).
			Msg("Failed to push record")
		return nil, fmt.Errorf("failed to push record: %w", err)
	}

	s.metrics.StoreOperation("push", ResultOK)
	s.logger.Debug().
		Str("tenantId", id.TenantID).
		Str("collection", collection).
		Str("remoteId", result.RemoteID).
		Msg("Pushed record")
	return result, nil
}

// Pull returns the caller's records changed after since. An empty result with
// a nil error means caught up; a query failure is reported as an error.
func (s *SyncService) Pull(ctx context.Context, id domain.Identity, collection string, since *int64) ([]domain.Record, error) {
	if collection == "" {
		return nil, fmt.Errorf("collection is required")
	}
	if !id.Established() {
		s.metrics.StoreOperation("pull", ResultNoIdentity)
		return []domain.Record{}, nil
	}

	records, err := s.store.Pull(ctx, id, collection, since)
	if err != nil {
		s.metrics.StoreOperation("pull", ResultError)
		s.logger.Error().Err(err).
			Str("tenantId", id.TenantID).
			Str("collection", collection).
			Msg("Failed to pull records")
		return []domain.Record{}, err
	}

	s.metrics.StoreOperation("pull", ResultOK)
	s.logger.Debug().
		Str("tenantId", id.TenantID).
		Str("collection", collection).
		Int("count", len(records)).
		Msg("Pulled records")
	return records, nil
}
