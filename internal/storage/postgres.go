package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// Postgres keeps snapshots in the storefront_state table.
type Postgres struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	query := `
		SELECT value
		FROM storefront_state
		WHERE key = $1
	`

	var value []byte
	err := p.db.GetContext(ctx, &value, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("postgres storage: failed to select %s: %w", key, classify(err))
	}

	return value, nil
}

func (p *Postgres) Put(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO storefront_state (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`

	_, err := p.db.ExecContext(ctx, query, key, string(value), time.Now().UTC())
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("postgres storage: failed to upsert state")
		return fmt.Errorf("postgres storage: failed to upsert %s: %w", key, classify(err))
	}

	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	query := `
		DELETE FROM storefront_state
		WHERE key = $1
	`

	if _, err := p.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("postgres storage: failed to delete %s: %w", key, classify(err))
	}

	return nil
}

// classify wraps errors caused by a missing storefront_state table with
// ErrSchemaMissing.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable {
		return fmt.Errorf("%w: %w", ErrSchemaMissing, err)
	}
	return err
}
