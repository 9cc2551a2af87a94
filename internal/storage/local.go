package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

type LocalStorage struct {
	basePath string
	log      zerolog.Logger
}

func NewLocalStorage(basePath string, log zerolog.Logger) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{
		basePath: basePath,
		log:      log.With().Str("component", "local_storage").Logger(),
	}, nil
}

// Put writes body under basePath/key and returns the relative key
func (s *LocalStorage) Put(ctx context.Context, key, _ string, body []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}

	fullPath := filepath.Join(s.basePath, clean)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(fullPath, body, 0o644); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}

	s.log.Info().
		Str("path", fullPath).
		Str("size", humanize.Bytes(uint64(len(body)))).
		Msg("Object stored")
	return key, nil
}

func (s *LocalStorage) Close() error { return nil }
