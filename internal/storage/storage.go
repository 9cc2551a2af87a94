package storage

import (
	"context"
	"fmt"

	"github.com/guestbook-api/internal/config"
	"github.com/rs/zerolog"
)

// BlobStore uploads opaque objects and returns where they can be found
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
	Close() error
}

// New builds the blob store selected by SNAPSHOT_DRIVER
func New(ctx context.Context, cfg *config.SnapshotConfig, log zerolog.Logger) (BlobStore, error) {
	switch cfg.Driver {
	case config.SnapshotDriverLocal:
		return NewLocalStorage(cfg.LocalDir, log)
	case config.SnapshotDriverS3:
		return NewS3Client(cfg.S3Region, cfg.S3Bucket)
	case config.SnapshotDriverGCS:
		return NewGCSClient(ctx, cfg.GCSBucket, cfg.GCSCredsFile)
	default:
		return nil, fmt.Errorf("unknown snapshot driver %q", cfg.Driver)
	}
}
