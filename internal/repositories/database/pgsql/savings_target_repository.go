package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/savecircle/savecircle-backend/internal/apperrors"
	"github.com/savecircle/savecircle-backend/internal/core/domain"
	portsrepo "github.com/savecircle/savecircle-backend/internal/core/ports/repositories"
	"github.com/savecircle/savecircle-backend/internal/models"
)

type PgxSavingsTargetRepository struct {
	BaseRepository
}

// newPgxSavingsTargetRepository creates a new repository for savings goal/group data.
func newPgxSavingsTargetRepository(pool *pgxpool.Pool) portsrepo.SavingsTargetRepositoryFacade {
	return &PgxSavingsTargetRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxSavingsTargetRepository implements portsrepo.SavingsTargetRepositoryFacade
var _ portsrepo.SavingsTargetRepositoryFacade = (*PgxSavingsTargetRepository)(nil)

// Helper to convert models.SavingsTarget from DB to domain.SavingsTarget
func toDomainSavingsTarget(m models.SavingsTarget) domain.SavingsTarget {
	return domain.SavingsTarget{
		TargetID:          m.TargetID,
		Kind:              domain.TargetKind(m.Kind),
		OwnerID:           m.OwnerID,
		TargetAmount:      m.TargetAmount,
		AccumulatedAmount: m.AccumulatedAmount,
		FundsReleased:     m.FundsReleased,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

// FindTargetByID retrieves a savings target of the given kind.
func (r *PgxSavingsTargetRepository) FindTargetByID(ctx context.Context, targetID string, kind domain.TargetKind) (*domain.SavingsTarget, error) {
	query := `
		SELECT target_id, kind, owner_id, target_amount, accumulated_amount, funds_released, created_at, created_by, last_updated_at, last_updated_by
		FROM savings_targets
		WHERE target_id = $1 AND kind = $2;
	`
	var m models.SavingsTarget
	err := r.Pool.QueryRow(ctx, query, targetID, string(kind)).Scan(
		&m.TargetID,
		&m.Kind,
		&m.OwnerID,
		&m.TargetAmount,
		&m.AccumulatedAmount,
		&m.FundsReleased,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find %s %s: %w", kind, targetID, err)
	}
	target := toDomainSavingsTarget(m)
	return &target, nil
}
