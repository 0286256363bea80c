// Package idempotency models the replay guard for retried write commands.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTTL is how long a stored response is replayed.
const DefaultTTL = 24 * time.Hour

// ErrDuplicate is returned by Insert when (tenant, key) already exists.
var ErrDuplicate = errors.New("idempotency record already exists")

// Record is a stored successful response for (tenant, key).
type Record struct {
	TenantID   string
	Key        string
	StatusCode int
	Response   []byte
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// NewRecord creates a record expiring ttl after now
func NewRecord(tenantID, key string, statusCode int, response []byte, now time.Time, ttl time.Duration) (*Record, error) {
	if tenantID == "" || key == "" {
		return nil, fmt.Errorf("tenant id and idempotency key are required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Record{
		TenantID:   tenantID,
		Key:        key,
		StatusCode: statusCode,
		Response:   response,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}, nil
}

// IsExpired reports whether the record no longer replays at now.
func (r *Record) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Repository stores idempotency records
type Repository interface {
	// Get returns the record for (tenant, key) or nil, nil.
	Get(ctx context.Context, tenantID, key string) (*Record, error)

	// Insert stores a record, returning ErrDuplicate on a unique key collision.
	Insert(ctx context.Context, r *Record) error

	// DeleteExpiredKey removes the record for (tenant, key) if it expired at or before now.
	DeleteExpiredKey(ctx context.Context, tenantID, key string, now time.Time) error

	// DeleteExpired purges up to limit records expired at or before now.
	DeleteExpired(ctx context.Context, now time.Time, limit int) (int64, error)
}
