package mocks

import (
	"context"
	"sync"

	"github.com/guestbook-api/internal/models"
	"github.com/guestbook-api/internal/repository"
)

// MockBackend is an in-memory repository.Backend
type MockBackend struct {
	mu         sync.Mutex
	Document   []byte
	ReadError  error
	WriteError error
	Reads      int
	Writes     int
	Closed     bool
}

// Verify interface compliance
var _ repository.Backend = (*MockBackend)(nil)

func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

func (m *MockBackend) Name() string { return "mock" }

func (m *MockBackend) ReadDocument(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reads++
	if m.ReadError != nil {
		return nil, m.ReadError
	}
	if m.Document == nil {
		return nil, repository.ErrDocumentNotFound
	}
	out := make([]byte, len(m.Document))
	copy(out, m.Document)
	return out, nil
}

func (m *MockBackend) WriteDocument(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Writes++
	if m.WriteError != nil {
		return m.WriteError
	}
	m.Document = make([]byte, len(data))
	copy(m.Document, data)
	return nil
}

func (m *MockBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// SetDocument replaces the stored bytes
func (m *MockBackend) SetDocument(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Document = data
}

// Snapshot returns a copy of the stored bytes
func (m *MockBackend) Snapshot() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(m.Document))
	copy(out, m.Document)
	return out
}

// MockMessageRepository keeps messages in memory without serializing them
type MockMessageRepository struct {
	Messages   []*models.Message
	LoadError  error
	SaveError  error
	ExportData []byte
	LoadCalls  int
	SaveCalls  int
}

// Verify interface compliance
var _ repository.MessageRepository = (*MockMessageRepository)(nil)

func NewMockMessageRepository() *MockMessageRepository {
	return &MockMessageRepository{
		Messages: make([]*models.Message, 0),
	}
}

func (m *MockMessageRepository) Load(ctx context.Context) ([]*models.Message, error) {
	m.LoadCalls++
	if m.LoadError != nil {
		return nil, m.LoadError
	}
	out := make([]*models.Message, len(m.Messages))
	copy(out, m.Messages)
	return out, nil
}

func (m *MockMessageRepository) Save(ctx context.Context, messages []*models.Message) error {
	m.SaveCalls++
	if m.SaveError != nil {
		return m.SaveError
	}
	m.Messages = make([]*models.Message, len(messages))
	copy(m.Messages, messages)
	return nil
}

func (m *MockMessageRepository) Export(ctx context.Context) ([]byte, error) {
	if m.LoadError != nil {
		return nil, m.LoadError
	}
	if m.ExportData != nil {
		return m.ExportData, nil
	}
	return []byte(`{"version":1,"messages":[]}`), nil
}
