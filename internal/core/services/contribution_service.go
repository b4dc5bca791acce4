package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/savecircle/savecircle-backend/internal/apperrors"
	"github.com/savecircle/savecircle-backend/internal/core/domain"
	portsrepo "github.com/savecircle/savecircle-backend/internal/core/ports/repositories"
	portssvc "github.com/savecircle/savecircle-backend/internal/core/ports/services"
	"github.com/savecircle/savecircle-backend/internal/dto"
	"github.com/savecircle/savecircle-backend/internal/middleware"
	"github.com/savecircle/savecircle-backend/internal/platform/metrics"
)

// contributionService moves funds from a member's wallet into a savings goal
// or group. The wallet debit, the target's accumulated-amount increment, and
// the transaction completion are one database transaction: either all of it
// persists or none of it does, so no completed contribution can exist whose
// money never reached the target.
type contributionService struct {
	walletRepo portsrepo.WalletRepositoryFacade
	txnRepo    portsrepo.TransactionRepositoryFacade
	targetRepo portsrepo.SavingsTargetRepositoryFacade
	publisher  portssvc.TransactionPublisher
	currency   string
}

// NewContributionService creates a new ContributionService.
func NewContributionService(
	walletRepo portsrepo.WalletRepositoryFacade,
	txnRepo portsrepo.TransactionRepositoryFacade,
	targetRepo portsrepo.SavingsTargetRepositoryFacade,
	publisher portssvc.TransactionPublisher,
	currency string,
) portssvc.ContributionSvcFacade {
	return &contributionService{
		walletRepo: walletRepo,
		txnRepo:    txnRepo,
		targetRepo: targetRepo,
		publisher:  publisher,
		currency:   currency,
	}
}

var _ portssvc.ContributionSvcFacade = (*contributionService)(nil)

// Contribute debits the caller's wallet and credits the savings target's
// accumulated total. A contribution that cannot be covered, or whose target
// was released mid-flight, fails with the transaction marked failed and no
// balance or accumulated change.
func (s *contributionService) Contribute(ctx context.Context, userID string, kind domain.TargetKind, req dto.ContributeRequest) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}

	target, err := s.targetRepo.FindTargetByID(ctx, req.TargetID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s %s: %w", kind, req.TargetID, err)
	}
	if target.FundsReleased {
		return nil, fmt.Errorf("%w: %s funds have already been released", apperrors.ErrConflict, kind)
	}

	wallet, err := s.walletRepo.GetOrCreateWallet(ctx, userID, s.currency)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	if !wallet.IsActive() {
		return nil, apperrors.ErrWalletFrozen
	}

	now := time.Now().UTC()
	txn := domain.Transaction{
		TransactionID:   uuid.NewString(),
		WalletID:        wallet.WalletID,
		Type:            domain.TxnContribution,
		Amount:          -req.Amount,
		Status:          domain.TxnPending,
		RelatedTargetID: &req.TargetID,
		Description:     req.Description,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.txnRepo.SaveTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record contribution: %w", err)
	}

	// Debit, target credit, and completion settle as one database transaction.
	// Any failure leaves the ledger row pending and nothing else changed, so
	// the failure markers below never race a completed transaction.
	if _, err := s.txnRepo.CompleteContributionWithBalance(ctx, txn.TransactionID, wallet.WalletID, req.TargetID, kind, req.Amount); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInsufficientFunds):
			s.failContribution(ctx, &txn, "insufficient funds")
			return nil, fmt.Errorf("%w: balance cannot cover contribution of %d", apperrors.ErrInsufficientFunds, req.Amount)
		case errors.Is(err, apperrors.ErrConflict):
			logger.Info("Target released while contributing", "target_id", req.TargetID, "transaction_id", txn.TransactionID)
			s.failContribution(ctx, &txn, "funds already released")
			return nil, fmt.Errorf("%w: %s funds were released while contributing", apperrors.ErrConflict, kind)
		default:
			// Transient failure: the transaction stays pending for the recheck
			// collaborator; no funds moved.
			return nil, fmt.Errorf("failed to complete contribution %s: %w", txn.TransactionID, err)
		}
	}

	completedAt := time.Now().UTC()
	txn.Status = domain.TxnCompleted
	txn.CompletedAt = &completedAt
	logger.Info("Contribution completed", "transaction_id", txn.TransactionID, "target_id", req.TargetID, "amount", req.Amount)
	metrics.RecordTransaction(string(domain.TxnContribution), string(domain.TxnCompleted))
	publishTransactionEvent(ctx, s.publisher, wallet, &txn, domain.TxnCompleted)
	return &txn, nil
}

// failContribution marks the still-pending transaction failed with a reason.
func (s *contributionService) failContribution(ctx context.Context, txn *domain.Transaction, reason string) {
	if err := s.txnRepo.MarkFailed(ctx, txn.TransactionID, reason, time.Now().UTC()); err != nil {
		middleware.GetLoggerFromCtx(ctx).Error("Failed to mark contribution failed", "transaction_id", txn.TransactionID, "error", err)
	}
	txn.Status = domain.TxnFailed
	txn.FailureReason = reason
	metrics.RecordTransaction(string(domain.TxnContribution), string(domain.TxnFailed))
}
