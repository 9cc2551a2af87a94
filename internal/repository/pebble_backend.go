package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
)

var documentKey = []byte("guestbook/document")

// pebbleBackend stores the document under one key of an embedded Pebble DB
type pebbleBackend struct {
	db *pebble.DB
}

// NewPebbleBackend opens (or creates) the Pebble database in dir
func NewPebbleBackend(dir string) (Backend, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble at %s: %w", dir, err)
	}
	return &pebbleBackend{db: db}, nil
}

func (b *pebbleBackend) Name() string { return "pebble" }

func (b *pebbleBackend) ReadDocument(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	value, closer, err := b.db.Get(documentKey)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (b *pebbleBackend) WriteDocument(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Set(documentKey, data, pebble.Sync)
}

func (b *pebbleBackend) Close() error {
	return b.db.Close()
}
