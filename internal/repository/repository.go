package repository

import (
	"context"
	"errors"

	"github.com/guestbook-api/internal/models"
	"github.com/rs/zerolog"
)

// ErrDocumentNotFound is returned by a Backend when nothing has been stored yet
var ErrDocumentNotFound = errors.New("guestbook document not found")

// Backend persists the serialized guestbook document as a single blob.
// WriteDocument must replace the previous document atomically.
type Backend interface {
	Name() string
	ReadDocument(ctx context.Context) ([]byte, error)
	WriteDocument(ctx context.Context, data []byte) error
	Close() error
}

// MessageRepository is the whole-collection record store for guestbook messages
type MessageRepository interface {
	// Load returns every message newest first. A missing or unparsable
	// document yields an empty collection; backend read failures are returned.
	Load(ctx context.Context) ([]*models.Message, error)
	// Save overwrites the stored collection in the current schema.
	Save(ctx context.Context, messages []*models.Message) error
	// Export returns the stored collection encoded in the current schema.
	Export(ctx context.Context) ([]byte, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Message MessageRepository
}

// New creates all repositories on top of the given backend
func New(backend Backend, log zerolog.Logger) *Repositories {
	return &Repositories{
		Message: NewMessageRepo(backend, log),
	}
}
