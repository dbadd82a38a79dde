package layoutstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"jsonweblog/internal/model"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// layoutKey identifies the single layout row.
const layoutKey = "default"

type postgresStore struct {
	pool      *pgxpool.Pool
	tableName string
}

// NewPostgresStore connects with retries and makes sure the layout table
// exists. The caller owns the returned pool.
func NewPostgresStore(ctx context.Context, dsn, tableName string) (Store, *pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid postgres DSN: %w", err)
	}

	var pool *pgxpool.Pool
	operation := func() error {
		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			log.Warn().Err(err).Msg("Attempt failed: unable to create postgres pool")
			return err
		}

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			pool.Close()
			log.Warn().Err(err).Msg("Attempt failed: postgres ping")
			return err
		}
		return nil
	}

	connectBackoff := backoff.NewExponentialBackOff()
	connectBackoff.InitialInterval = time.Second
	connectBackoff.MaxInterval = 10 * time.Second
	connectBackoff.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(connectBackoff, ctx)); err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	log.Info().Msg("Postgres connection pool created and verified.")

	s := &postgresStore{
		pool:      pool,
		tableName: tableName,
	}
	if err := s.ensureTable(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return s, pool, nil
}

func (s *postgresStore) ensureTable(ctx context.Context) error {
	createTableSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key        TEXT PRIMARY KEY,
			document   JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`, pgx.Identifier{s.tableName}.Sanitize())

	if _, err := s.pool.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create layout table %s: %w", s.tableName, err)
	}
	log.Info().Str("table", s.tableName).Msg("Ensured layout table exists.")
	return nil
}

func (s *postgresStore) Load(ctx context.Context) (*model.TableLayout, error) {
	query := fmt.Sprintf("SELECT document FROM %s WHERE key = $1", pgx.Identifier{s.tableName}.Sanitize())

	var document []byte
	err := s.pool.QueryRow(ctx, query, layoutKey).Scan(&document)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLayoutNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load layout: %w", err)
	}

	var layout model.TableLayout
	if err := json.Unmarshal(document, &layout); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}
	return &layout, nil
}

func (s *postgresStore) Save(ctx context.Context, layout *model.TableLayout) error {
	if layout == nil {
		return fmt.Errorf("save layout: nil layout")
	}

	document, err := json.Marshal(layout)
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}

	upsertSQL := fmt.Sprintf(`
		INSERT INTO %s (key, document, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at;`,
		pgx.Identifier{s.tableName}.Sanitize())

	if _, err := s.pool.Exec(ctx, upsertSQL, layoutKey, document); err != nil {
		return fmt.Errorf("save layout: %w", err)
	}
	log.Debug().Str("table", s.tableName).Int("columns", len(layout.Columns)).Msg("Saved layout")
	return nil
}
