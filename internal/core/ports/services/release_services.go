package services

import (
	"context"

	"github.com/savecircle/savecircle-backend/internal/core/domain"
)

// ReleaseSvcFacade transfers a savings target's accumulated contributions to
// its owner's wallet exactly once. Repeat calls return the prior release
// transaction instead of crediting again.
type ReleaseSvcFacade interface {
	Release(ctx context.Context, userID string, kind domain.TargetKind, targetID string) (*domain.Transaction, error)
}
