package repositories

import (
	"context"

	"github.com/savecircle/savecircle-backend/internal/core/domain"
)

// SavingsTargetRepositoryFacade is the ledger's narrow view of goal/group
// storage. Goal and group lifecycle beyond these fields is owned elsewhere.
// Writes to the accumulated total and the released flag happen inside the
// transaction repository's settlement operations, never through this facade.
type SavingsTargetRepositoryFacade interface {
	// FindTargetByID retrieves a savings target of the given kind.
	FindTargetByID(ctx context.Context, targetID string, kind domain.TargetKind) (*domain.SavingsTarget, error)
}
