package repositories

import (
	"context"
	"time"
)

// IdempotencyRepositoryFacade is the durable record of consumed external
// references. It is the sole defense against duplicate gateway webhook delivery
// and client retry storms.
type IdempotencyRepositoryFacade interface {
	// Reserve records the reference atomically and reports whether this call was
	// the first to see it. A false return means another request already holds
	// the reservation; the caller must return the previously recorded outcome
	// instead of reapplying any balance change.
	Reserve(ctx context.Context, reference string, now time.Time) (bool, error)

	// Bind associates the reservation with the transaction that consumed it.
	Bind(ctx context.Context, reference string, transactionID string) error

	// FindTransactionID returns the transaction a reference resolved to, or
	// apperrors.ErrNotFound when the reservation exists without an outcome yet.
	FindTransactionID(ctx context.Context, reference string) (string, error)
}

// ReferenceCache is a fast-path reservation layer (Redis) sitting in front of
// the durable reservation. Losing a cache entry is safe: the durable layer
// still rejects duplicates.
type ReferenceCache interface {
	// TryReserve returns true if the reference was not cached yet.
	TryReserve(ctx context.Context, reference string, ttl time.Duration) (bool, error)
	// Forget drops a cached reservation (used when processing fails before an
	// outcome is recorded, so a retry can get through the fast path).
	Forget(ctx context.Context, reference string) error
}
