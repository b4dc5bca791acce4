package services

import (
	"context"

	"github.com/savecircle/savecircle-backend/internal/core/domain"
	"github.com/savecircle/savecircle-backend/internal/dto"
)

// ContributionSvcFacade coordinates a wallet debit with a savings target credit
// as one logical unit, compensating on partial failure.
type ContributionSvcFacade interface {
	Contribute(ctx context.Context, userID string, kind domain.TargetKind, req dto.ContributeRequest) (*domain.Transaction, error)
}
