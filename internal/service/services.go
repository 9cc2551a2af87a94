package service

import (
	"context"

	"github.com/guestbook-api/internal/config"
	"github.com/guestbook-api/internal/models"
	"github.com/guestbook-api/internal/repository"
	"github.com/guestbook-api/internal/storage"
	"github.com/rs/zerolog"
)

// GuestbookService defines the message and reply operations
type GuestbookService interface {
	ListMessages(ctx context.Context) ([]*models.Message, error)
	Stats(ctx context.Context) (*models.GuestbookStats, error)
	AddMessage(ctx context.Context, content string, author models.UserRef) (*models.Message, error)
	AddReply(ctx context.Context, messageID, content string, author models.UserRef) (*models.Reply, error)
	ToggleLike(ctx context.Context, messageID string, user models.UserRef) (*models.Message, error)
	ToggleReplyLike(ctx context.Context, messageID, replyID string, user models.UserRef) (*models.Reply, error)
	HasUserLiked(ctx context.Context, messageID, userID string) (bool, error)
	HasUserLikedReply(ctx context.Context, messageID, replyID, userID string) (bool, error)
	EditMessage(ctx context.Context, messageID, userID, content string) (*models.Message, error)
	DeleteMessage(ctx context.Context, messageID, userID string) error
	EditReply(ctx context.Context, messageID, replyID, userID, content string) (*models.Reply, error)
	DeleteReply(ctx context.Context, messageID, replyID, userID string) error
	Close()
}

// SnapshotService defines guestbook snapshot operations
type SnapshotService interface {
	CreateSnapshot(ctx context.Context) (*models.Snapshot, error)
	StartScheduler(ctx context.Context)
	StopScheduler()
}

// Notifier is told about every new message and reply
type Notifier interface {
	NotifyNewEntry(ctx context.Context, entry models.Entry) error
}

// Services holds all service interfaces
type Services struct {
	Guestbook GuestbookService
	Snapshot  SnapshotService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, blobs storage.BlobStore, notifier Notifier, cfg *config.Config, log zerolog.Logger) *Services {
	guestbookSvc := newGuestbookService(repos.Message, notifier, cfg.Store.MaxMessages, log)
	snapshotSvc := newSnapshotService(repos.Message, blobs, guestbookSvc.mu.RLocker(), cfg.Snapshot, log)

	return &Services{
		Guestbook: guestbookSvc,
		Snapshot:  snapshotSvc,
	}
}
