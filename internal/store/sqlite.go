package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteCache implements Cache using modernc.org/sqlite.
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteCache{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS pipeline_cache (
	input_hash TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL,
	payload    TEXT NOT NULL,
	cached_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

func (c *SQLiteCache) Migrate(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// Get returns the cached entry for a key, if present.
func (c *SQLiteCache) Get(ctx context.Context, key string) (*Entry, bool, error) {
	var payload string
	row := c.db.QueryRowContext(ctx,
		"SELECT payload FROM pipeline_cache WHERE input_hash = ?", key)
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, eris.Wrap(err, "sqlite: get cache entry")
	}

	var entry Entry
	if err := json.Unmarshal([]byte(payload), &entry); err != nil {
		return nil, false, eris.Wrap(err, "sqlite: decode cache entry")
	}

	zap.L().Debug("pipeline cache hit", zap.String("key", shortKey(key)))
	return &entry, true, nil
}

// Put stores an entry, replacing any previous value for the key.
func (c *SQLiteCache) Put(ctx context.Context, key string, entry *Entry) error {
	entry.CachedAt = time.Now().UTC()
	payload, err := json.Marshal(entry)
	if err != nil {
		return eris.Wrap(err, "sqlite: encode cache entry")
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO pipeline_cache (input_hash, run_id, payload, cached_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT (input_hash) DO UPDATE SET
			run_id = excluded.run_id,
			payload = excluded.payload,
			cached_at = excluded.cached_at`,
		key, entry.RunID, string(payload),
	)
	return eris.Wrap(err, "sqlite: put cache entry")
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
