package services

import (
	"context"
	"fmt"
	"time"

	portsrepo "github.com/savecircle/savecircle-backend/internal/core/ports/repositories"
	"github.com/savecircle/savecircle-backend/internal/middleware"
)

// reservationTTL bounds the Redis fast-path entry. The durable reservation in
// Postgres never expires, so a dropped cache entry only costs one extra
// round trip to the database.
const reservationTTL = 24 * time.Hour

// IdempotencyGuard ensures an external reference (gateway callback, client
// idempotency key) is applied at most once. A Redis fast path absorbs retry
// storms; the database reservation is the source of truth.
type IdempotencyGuard struct {
	repo  portsrepo.IdempotencyRepositoryFacade
	cache portsrepo.ReferenceCache // optional, nil disables the fast path
}

// NewIdempotencyGuard creates a new IdempotencyGuard. cache may be nil.
func NewIdempotencyGuard(repo portsrepo.IdempotencyRepositoryFacade, cache portsrepo.ReferenceCache) *IdempotencyGuard {
	return &IdempotencyGuard{repo: repo, cache: cache}
}

// Reserve reports whether this is the first time the reference is seen. A false
// result obliges the caller to return the previously recorded outcome rather
// than reapplying any balance change.
func (g *IdempotencyGuard) Reserve(ctx context.Context, reference string) (bool, error) {
	if reference == "" {
		return false, fmt.Errorf("reference cannot be empty")
	}

	if g.cache != nil {
		first, err := g.cache.TryReserve(ctx, reference, reservationTTL)
		if err != nil {
			// Cache failure degrades to the durable path.
			middleware.GetLoggerFromCtx(ctx).Warn("Reference cache unavailable, falling back to database reservation", "error", err)
		} else if !first {
			return false, nil
		}
	}

	first, err := g.repo.Reserve(ctx, reference, time.Now().UTC())
	if err != nil {
		// Leave no stale fast-path entry behind a failed durable reservation.
		if g.cache != nil {
			_ = g.cache.Forget(ctx, reference)
		}
		return false, fmt.Errorf("failed to reserve reference: %w", err)
	}
	return first, nil
}

// Bind records the transaction that consumed the reference.
func (g *IdempotencyGuard) Bind(ctx context.Context, reference string, transactionID string) error {
	return g.repo.Bind(ctx, reference, transactionID)
}

// PriorTransactionID returns the transaction a duplicate reference resolved to.
func (g *IdempotencyGuard) PriorTransactionID(ctx context.Context, reference string) (string, error) {
	return g.repo.FindTransactionID(ctx, reference)
}
