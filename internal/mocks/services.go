package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/guestbook-api/internal/models"
	"github.com/guestbook-api/internal/service"
	"github.com/guestbook-api/internal/storage"
)

// MockSnapshotService is a mock implementation of SnapshotService
type MockSnapshotService struct {
	CreateFunc func(ctx context.Context) (*models.Snapshot, error)
	Created    []*models.Snapshot
	Started    bool
	Stopped    bool
}

// Verify interface compliance
var _ service.SnapshotService = (*MockSnapshotService)(nil)

func NewMockSnapshotService() *MockSnapshotService {
	return &MockSnapshotService{
		Created: make([]*models.Snapshot, 0),
	}
}

func (m *MockSnapshotService) CreateSnapshot(ctx context.Context) (*models.Snapshot, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx)
	}
	snap := &models.Snapshot{
		Key:       "guestbook/snapshots/guestbook-test.json",
		Location:  "guestbook/snapshots/guestbook-test.json",
		CreatedAt: time.Now().UTC(),
	}
	m.Created = append(m.Created, snap)
	return snap, nil
}

func (m *MockSnapshotService) StartScheduler(ctx context.Context) { m.Started = true }

func (m *MockSnapshotService) StopScheduler() { m.Stopped = true }

// MockNotifier records notifications; safe for concurrent use
type MockNotifier struct {
	mu      sync.Mutex
	Entries []models.Entry
	Err     error
}

// Verify interface compliance
var _ service.Notifier = (*MockNotifier)(nil)

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) NotifyNewEntry(ctx context.Context, entry models.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, entry)
	return m.Err
}

// Received returns a copy of the recorded entries
func (m *MockNotifier) Received() []models.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Entry, len(m.Entries))
	copy(out, m.Entries)
	return out
}

// MockBlobStore keeps uploaded objects in memory
type MockBlobStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	PutErr  error
}

// Verify interface compliance
var _ storage.BlobStore = (*MockBlobStore)(nil)

func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{Objects: make(map[string][]byte)}
}

func (m *MockBlobStore) Put(ctx context.Context, key, contentType string, body []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		return "", m.PutErr
	}
	m.Objects[key] = append([]byte(nil), body...)
	return "mem://" + key, nil
}

func (m *MockBlobStore) Close() error { return nil }
