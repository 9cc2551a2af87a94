package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/guestbook-api/internal/database"
)

// DefaultDocumentName is the row key of the guestbook document
const DefaultDocumentName = "guestbook"

// postgresBackend stores the document as one JSONB row
type postgresBackend struct {
	db   *database.DB
	name string
}

// NewPostgresBackend creates a backend on an already migrated database
func NewPostgresBackend(db *database.DB) Backend {
	return &postgresBackend{db: db, name: DefaultDocumentName}
}

func (b *postgresBackend) Name() string { return "postgres" }

func (b *postgresBackend) ReadDocument(ctx context.Context) ([]byte, error) {
	var body []byte
	err := b.db.QueryRowContext(ctx,
		`SELECT body FROM guestbook_documents WHERE name = $1`, b.name,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (b *postgresBackend) WriteDocument(ctx context.Context, data []byte) error {
	query := `
		INSERT INTO guestbook_documents (name, body, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (name) DO UPDATE SET
			body = EXCLUDED.body,
			updated_at = EXCLUDED.updated_at
	`
	_, err := b.db.ExecContext(ctx, query, b.name, string(data))
	return err
}

func (b *postgresBackend) Close() error {
	return b.db.Close()
}
