package repositories

import (
	"context"
	"time"

	"github.com/savecircle/savecircle-backend/internal/core/domain"
)

// WithdrawalReview carries the reviewer outcome applied to a withdrawal request.
type WithdrawalReview struct {
	ReviewerID        string
	Reason            string  // rejection reason, empty on approval
	TransferReference *string // gateway payout reference, set on completion
	At                time.Time
}

// WithdrawalRepositoryFacade defines persistence for withdrawal requests.
type WithdrawalRepositoryFacade interface {
	SaveWithdrawalRequest(ctx context.Context, req domain.WithdrawalRequest) error

	FindWithdrawalByTransactionID(ctx context.Context, transactionID string) (*domain.WithdrawalRequest, error)

	// TransitionStatus moves a withdrawal request from one approval status to
	// another as a conditional update. Returns apperrors.ErrConflict without any
	// change when the request is not currently in the `from` status, which is
	// what serializes concurrent reviewers.
	TransitionStatus(ctx context.Context, requestID string, from, to domain.WithdrawalApprovalStatus, review WithdrawalReview) error
}
