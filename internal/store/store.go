// Package store persists the content-addressed pipeline cache: identical
// raw inputs always normalize identically, so the canonical dataset and its
// ledger can be keyed by a hash of the input bytes and reused across runs.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/sells-group/polog/internal/model"
)

// PipelineVersion participates in every cache key so that a change to the
// normalization policy invalidates prior entries.
const PipelineVersion = "polog/v1"

// Entry is one cached normalization result.
type Entry struct {
	RunID    string              `json:"run_id"`
	Dataset  *model.Dataset      `json:"dataset"`
	Ledger   model.QualityLedger `json:"ledger"`
	CachedAt time.Time           `json:"cached_at"`
}

// Cache is the persistence interface for normalization results.
type Cache interface {
	Get(ctx context.Context, key string) (*Entry, bool, error)
	Put(ctx context.Context, key string, entry *Entry) error
	Migrate(ctx context.Context) error
	Close() error
}

// Key returns the SHA-256 hex content address of an input set: the pipeline
// version, then each source name and its raw bytes in order.
func Key(sources []model.Source) string {
	h := sha256.New()
	h.Write([]byte(PipelineVersion))
	for _, src := range sources {
		h.Write([]byte{0})
		h.Write([]byte(src.Name))
		h.Write([]byte{0})
		h.Write(src.Data)
	}
	return hex.EncodeToString(h.Sum(nil))
}
