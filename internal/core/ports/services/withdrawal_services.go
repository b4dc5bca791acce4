package services

import (
	"context"

	"github.com/savecircle/savecircle-backend/internal/core/domain"
	"github.com/savecircle/savecircle-backend/internal/dto"
)

// WithdrawalSvcFacade drives the withdrawal state machine:
// pending_review -> {approved -> processing -> completed} | rejected.
type WithdrawalSvcFacade interface {
	// RequestWithdrawal validates the destination, debits the wallet into
	// escrow immediately, and parks the request for review.
	RequestWithdrawal(ctx context.Context, userID string, req dto.WithdrawRequest) (*domain.WithdrawalRequest, error)

	// Approve moves the request to processing and executes the gateway payout.
	// Gateway failure credits the escrow back.
	Approve(ctx context.Context, reviewerID string, transactionID string) (*domain.WithdrawalRequest, error)

	// Reject credits the escrow back. Only permitted before processing starts.
	Reject(ctx context.Context, reviewerID string, transactionID string, reason string) (*domain.WithdrawalRequest, error)
}
