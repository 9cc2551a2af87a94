package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/guestbook-api/internal/metrics"
	"github.com/guestbook-api/internal/models"
	"github.com/rs/zerolog"
)

// messageRepo is the concrete implementation of MessageRepository
type messageRepo struct {
	backend Backend
	log     zerolog.Logger
}

// NewMessageRepo creates a new message repository
func NewMessageRepo(backend Backend, log zerolog.Logger) MessageRepository {
	return &messageRepo{
		backend: backend,
		log:     log.With().Str("component", "record_store").Str("backend", backend.Name()).Logger(),
	}
}

// Load reads and decodes the whole document, upgrading legacy schemas
func (r *messageRepo) Load(ctx context.Context) ([]*models.Message, error) {
	start := time.Now()
	data, err := r.backend.ReadDocument(ctx)
	metrics.StoreDuration.WithLabelValues(r.backend.Name(), "read").Observe(time.Since(start).Seconds())
	if errors.Is(err, ErrDocumentNotFound) {
		return []*models.Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read guestbook document: %w", err)
	}

	messages, version, err := decodeDocument(data)
	if err != nil {
		r.log.Error().
			Err(err).
			Str("size", humanize.Bytes(uint64(len(data)))).
			Msg("Guestbook document is unreadable, treating it as empty")
		return []*models.Message{}, nil
	}
	if version != CurrentSchemaVersion {
		r.log.Info().
			Int("from_version", version).
			Int("to_version", CurrentSchemaVersion).
			Int("messages", len(messages)).
			Msg("Upgraded guestbook document schema on load")
	}

	sortNewestFirst(messages)
	return messages, nil
}

// Save encodes messages in the current schema and replaces the document
func (r *messageRepo) Save(ctx context.Context, messages []*models.Message) error {
	data, err := encodeDocument(messages)
	if err != nil {
		return fmt.Errorf("encode guestbook document: %w", err)
	}

	start := time.Now()
	err = r.backend.WriteDocument(ctx, data)
	metrics.StoreDuration.WithLabelValues(r.backend.Name(), "write").Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("write guestbook document: %w", err)
	}

	metrics.DocumentBytes.Set(float64(len(data)))
	metrics.Messages.Set(float64(len(messages)))

	r.log.Debug().
		Int("messages", len(messages)).
		Str("size", humanize.Bytes(uint64(len(data)))).
		Msg("Guestbook document saved")
	return nil
}

// Export returns the current document in the current schema
func (r *messageRepo) Export(ctx context.Context) ([]byte, error) {
	messages, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	return encodeDocument(messages)
}

// sortNewestFirst orders by createdAt descending; ties keep stored order
func sortNewestFirst(messages []*models.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.After(messages[j].CreatedAt)
	})
}
