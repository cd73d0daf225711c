package storage

import (
	"context"
	"io"
	"time"

	"github.com/aman-zulfiqar/solana-sweep-service/internal/models"
)

// MetaCache is a TTL key-value cache for idempotent external lookups
// (token metadata, oracle prices). Process-local state is never relied on
// for correctness, only for latency; multi-instance deployments share the
// cache through redis.
type MetaCache interface {
	// Get returns the cached value for key, or ok=false on miss/expiry.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Put stores value under key for at most ttl.
	Put(ctx context.Context, key, value string, ttl time.Duration) error

	// Ping checks if the cache is reachable.
	Ping(ctx context.Context) error

	io.Closer
}

// SweepStore is the append-only sink for sweep batch records.
type SweepStore interface {
	// InsertBatch records one sweep batch (planned or broadcast).
	InsertBatch(ctx context.Context, rec *models.SweepBatchRecord) error

	// Ping checks if the store is reachable.
	Ping(ctx context.Context) error

	io.Closer
}
