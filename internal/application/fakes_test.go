package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pos-cloud-sync/internal/domain"
)

type appendedEvent struct {
	TenantID   string
	Collection string
	Record     domain.Record
}

type fakeIndex struct {
	connections []*domain.Connection
	err         error
	findCalls   int
	listCalls   int
}

func (f *fakeIndex) FindByStore(_ context.Context, platform domain.Platform, storeURL string) ([]*domain.Connection, error) {
	f.findCalls++
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.Connection
	for _, c := range f.connections {
		if c.Platform == platform && c.StoreURL == storeURL {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeIndex) ListByPlatform(_ context.Context, platform domain.Platform) ([]*domain.Connection, error) {
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.Connection
	for _, c := range f.connections {
		if c.Platform == platform {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeQueue struct {
	mu       sync.Mutex
	appended []appendedEvent
	err      error
}

func (f *fakeQueue) AppendEvent(_ context.Context, tenantID, collection string, rec domain.Record) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.appended = append(f.appended, appendedEvent{TenantID: tenantID, Collection: collection, Record: rec})
	return fmt.Sprintf("evt-%d", len(f.appended)), nil
}

type fakeNotifier struct {
	notices []domain.EventNotice
	err     error
}

func (f *fakeNotifier) Publish(_ context.Context, notice domain.EventNotice) error {
	f.notices = append(f.notices, notice)
	return f.err
}

type fakeMetrics struct {
	outcomes   []string
	operations []string
}

func (f *fakeMetrics) WebhookOutcome(platform domain.Platform, outcome string) {
	f.outcomes = append(f.outcomes, platform.String()+":"+outcome)
}

func (f *fakeMetrics) StoreOperation(operation, result string) {
	f.operations = append(f.operations, operation+":"+result)
}

// memoryStore is a RecordStore keyed by tenant/collection/docId
type memoryStore struct {
	records map[string]map[string]domain.Record
	pushErr error
	pullErr error
	now     int64
	pushes  int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[string]map[string]domain.Record), now: 1000}
}

func (m *memoryStore) Push(_ context.Context, id domain.Identity, collection string, rec domain.Record) (*domain.PushResult, error) {
	if !id.Established() {
		return nil, domain.ErrNoIdentity
	}
	m.pushes++
	if m.pushErr != nil {
		return nil, m.pushErr
	}
	key := id.TenantID + "/" + collection
	if m.records[key] == nil {
		m.records[key] = make(map[string]domain.Record)
	}
	stored := rec.Clone()
	stored[domain.UpdatedAtField] = m.now
	docID := rec.DocumentID()
	m.records[key][docID] = stored
	return &domain.PushResult{RemoteID: docID, UpdatedAt: m.now}, nil
}

func (m *memoryStore) Pull(_ context.Context, id domain.Identity, collection string, since *int64) ([]domain.Record, error) {
	if !id.Established() {
		return []domain.Record{}, nil
	}
	if m.pullErr != nil {
		return []domain.Record{}, fmt.Errorf("%w: %w", domain.ErrQueryFailed, m.pullErr)
	}
	var floor int64
	if since != nil {
		floor = *since
	}
	out := []domain.Record{}
	for docID, rec := range m.records[id.TenantID+"/"+collection] {
		if ts, _ := rec[domain.UpdatedAtField].(int64); ts > floor {
			r := rec.Clone()
			r[domain.RemoteIDField] = docID
			out = append(out, r)
		}
	}
	return out, nil
}

var errBoom = errors.New("boom")
