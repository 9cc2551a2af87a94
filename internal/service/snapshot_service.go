package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"github.com/dustin/go-humanize"
	"github.com/guestbook-api/internal/config"
	"github.com/guestbook-api/internal/metrics"
	"github.com/guestbook-api/internal/models"
	"github.com/guestbook-api/internal/repository"
	"github.com/guestbook-api/internal/storage"
	"github.com/guestbook-api/pkg/apperrors"
	"github.com/rs/zerolog"
)

const (
	snapshotContentType = "application/json"
	snapshotTimeFormat  = "20060102T150405Z"
	schedulerRetryDelay = 30 * time.Second
)

// snapshotService is the concrete implementation of SnapshotService
type snapshotService struct {
	repo    repository.MessageRepository
	blobs   storage.BlobStore
	cfg     config.SnapshotConfig
	log     zerolog.Logger
	now     func() time.Time
	lock    sync.Locker
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
	runMu   sync.Mutex
}

// newSnapshotService creates the snapshot service. lock is held for reading
// while the document is exported so a snapshot never observes a half-applied
// mutation.
func newSnapshotService(repo repository.MessageRepository, blobs storage.BlobStore, lock sync.Locker, cfg config.SnapshotConfig, log zerolog.Logger) *snapshotService {
	return &snapshotService{
		repo:  repo,
		blobs: blobs,
		cfg:   cfg,
		lock:  lock,
		log:   log.With().Str("service", "snapshot").Logger(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// CreateSnapshot uploads the current document to the blob store
func (s *snapshotService) CreateSnapshot(ctx context.Context) (*models.Snapshot, error) {
	if s.blobs == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "snapshot storage is not configured")
	}

	// One upload at a time; the scheduler and the admin endpoint share this.
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.lock.Lock()
	data, err := s.repo.Export(ctx)
	s.lock.Unlock()
	if err != nil {
		metrics.Snapshots.WithLabelValues(metrics.ResultError).Inc()
		return nil, apperrors.Internal("failed to export guestbook", err)
	}

	createdAt := s.now()
	key := snapshotKey(s.cfg.Prefix, createdAt)

	uploadCtx := ctx
	if s.cfg.UploadTimeout > 0 {
		var cancel context.CancelFunc
		uploadCtx, cancel = context.WithTimeout(ctx, s.cfg.UploadTimeout)
		defer cancel()
	}

	location, err := s.blobs.Put(uploadCtx, key, snapshotContentType, data)
	if err != nil {
		metrics.Snapshots.WithLabelValues(metrics.ResultError).Inc()
		s.log.Error().Err(err).Str("key", key).Msg("Snapshot upload failed")
		return nil, apperrors.Internal("failed to upload snapshot", err)
	}
	metrics.Snapshots.WithLabelValues(metrics.ResultOK).Inc()

	snap := &models.Snapshot{
		Key:          key,
		Location:     location,
		SizeBytes:    len(data),
		MessageCount: countMessages(data),
		CreatedAt:    createdAt,
	}

	s.log.Info().
		Str("key", key).
		Str("location", location).
		Str("size", humanize.Bytes(uint64(len(data)))).
		Int("messages", snap.MessageCount).
		Msg("Snapshot created")

	return snap, nil
}

// StartScheduler runs CreateSnapshot on the configured cron expression until
// the context is canceled or StopScheduler is called. It blocks.
func (s *snapshotService) StartScheduler(ctx context.Context) {
	if s.cfg.Cron == "" {
		s.log.Info().Msg("Snapshot scheduler disabled")
		return
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	s.log.Info().Str("cron", s.cfg.Cron).Msg("Snapshot scheduler started")

	for {
		next, err := gronx.NextTickAfter(s.cfg.Cron, s.now(), false)
		if err != nil {
			s.log.Error().Err(err).Str("cron", s.cfg.Cron).Msg("Failed to compute next snapshot tick")
			next = s.now().Add(schedulerRetryDelay)
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-s.ctx.Done():
			timer.Stop()
			s.log.Info().Msg("Snapshot scheduler stopping")
			return
		case <-timer.C:
			s.runScheduled()
		}
	}
}

// StopScheduler cancels the scheduler and waits for a running snapshot
func (s *snapshotService) StopScheduler() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	s.wg.Wait()
	s.running = false
	s.log.Info().Msg("Snapshot scheduler stopped")
}

func (s *snapshotService) runScheduled() {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("Scheduled snapshot panicked - recovered")
		}
	}()

	if _, err := s.CreateSnapshot(s.ctx); err != nil {
		s.log.Error().Err(err).Msg("Scheduled snapshot failed")
	}
}

func snapshotKey(prefix string, at time.Time) string {
	name := fmt.Sprintf("guestbook-%s.json", at.UTC().Format(snapshotTimeFormat))
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// countMessages reads only the message count from an exported document
func countMessages(data []byte) int {
	var doc struct {
		Messages []json.RawMessage `json:"messages"`
	}
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return 0
	}
	return len(doc.Messages)
}
