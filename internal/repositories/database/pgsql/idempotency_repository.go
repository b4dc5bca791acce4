package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/savecircle/savecircle-backend/internal/apperrors"
	portsrepo "github.com/savecircle/savecircle-backend/internal/core/ports/repositories"
)

type PgxIdempotencyRepository struct {
	BaseRepository
}

// newPgxIdempotencyRepository creates a new repository for idempotency reservations.
func newPgxIdempotencyRepository(pool *pgxpool.Pool) portsrepo.IdempotencyRepositoryFacade {
	return &PgxIdempotencyRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxIdempotencyRepository implements portsrepo.IdempotencyRepositoryFacade
var _ portsrepo.IdempotencyRepositoryFacade = (*PgxIdempotencyRepository)(nil)

// Reserve claims a reference atomically. ON CONFLICT DO NOTHING means exactly
// one concurrent caller sees an affected row and wins the reservation.
func (r *PgxIdempotencyRepository) Reserve(ctx context.Context, reference string, now time.Time) (bool, error) {
	query := `
		INSERT INTO idempotency_keys (reference, reserved_at)
		VALUES ($1, $2)
		ON CONFLICT (reference) DO NOTHING;
	`
	tag, err := r.Pool.Exec(ctx, query, reference, now)
	if err != nil {
		return false, fmt.Errorf("failed to reserve reference %s: %w", reference, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Bind records the transaction that consumed the reservation.
func (r *PgxIdempotencyRepository) Bind(ctx context.Context, reference string, transactionID string) error {
	query := `
		UPDATE idempotency_keys
		SET transaction_id = $2
		WHERE reference = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, reference, transactionID)
	if err != nil {
		return fmt.Errorf("failed to bind reference %s: %w", reference, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: no reservation for reference %s", apperrors.ErrNotFound, reference)
	}
	return nil
}

// FindTransactionID returns the transaction a reference resolved to.
func (r *PgxIdempotencyRepository) FindTransactionID(ctx context.Context, reference string) (string, error) {
	query := `SELECT transaction_id FROM idempotency_keys WHERE reference = $1;`
	var transactionID *string
	err := r.Pool.QueryRow(ctx, query, reference).Scan(&transactionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.ErrNotFound
		}
		return "", fmt.Errorf("failed to find reservation for reference %s: %w", reference, err)
	}
	if transactionID == nil {
		// Reserved but no outcome bound yet.
		return "", apperrors.ErrNotFound
	}
	return *transactionID, nil
}
