package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Pool is the subset of pgxpool.Pool the cache needs; pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresCache implements Cache using pgxpool.
type PostgresCache struct {
	pool Pool
}

// NewPostgres creates a PostgresCache with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresCache, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresCache{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool; used by tests.
func NewPostgresFromPool(pool Pool) *PostgresCache {
	return &PostgresCache{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS pipeline_cache (
	input_hash TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL,
	payload    JSONB NOT NULL,
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

func (c *PostgresCache) Migrate(ctx context.Context) error {
	_, err := c.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (c *PostgresCache) Close() error {
	c.pool.Close()
	return nil
}

// Get returns the cached entry for a key, if present.
func (c *PostgresCache) Get(ctx context.Context, key string) (*Entry, bool, error) {
	var payload []byte
	row := c.pool.QueryRow(ctx,
		"SELECT payload FROM pipeline_cache WHERE input_hash = $1", key)
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, eris.Wrap(err, "postgres: get cache entry")
	}

	var entry Entry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, false, eris.Wrap(err, "postgres: decode cache entry")
	}

	zap.L().Debug("pipeline cache hit", zap.String("key", shortKey(key)))
	return &entry, true, nil
}

// Put stores an entry, replacing any previous value for the key.
func (c *PostgresCache) Put(ctx context.Context, key string, entry *Entry) error {
	entry.CachedAt = time.Now().UTC()
	payload, err := json.Marshal(entry)
	if err != nil {
		return eris.Wrap(err, "postgres: encode cache entry")
	}

	_, err = c.pool.Exec(ctx, `
		INSERT INTO pipeline_cache (input_hash, run_id, payload, cached_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (input_hash) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			payload = EXCLUDED.payload,
			cached_at = now()`,
		key, entry.RunID, payload,
	)
	return eris.Wrap(err, "postgres: put cache entry")
}
