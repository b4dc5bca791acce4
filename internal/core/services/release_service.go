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
	"github.com/savecircle/savecircle-backend/internal/middleware"
	"github.com/savecircle/savecircle-backend/internal/platform/metrics"
)

// releaseService transfers a savings target's accumulated contributions to its
// owner's wallet exactly once. The funds_released flag is flipped inside the
// same database transaction that credits the wallet, so concurrent release
// calls cannot double-credit.
type releaseService struct {
	walletRepo portsrepo.WalletRepositoryFacade
	txnRepo    portsrepo.TransactionRepositoryFacade
	targetRepo portsrepo.SavingsTargetRepositoryFacade
	publisher  portssvc.TransactionPublisher
	currency   string
}

// NewReleaseService creates a new ReleaseService.
func NewReleaseService(
	walletRepo portsrepo.WalletRepositoryFacade,
	txnRepo portsrepo.TransactionRepositoryFacade,
	targetRepo portsrepo.SavingsTargetRepositoryFacade,
	publisher portssvc.TransactionPublisher,
	currency string,
) portssvc.ReleaseSvcFacade {
	return &releaseService{
		walletRepo: walletRepo,
		txnRepo:    txnRepo,
		targetRepo: targetRepo,
		publisher:  publisher,
		currency:   currency,
	}
}

var _ portssvc.ReleaseSvcFacade = (*releaseService)(nil)

// Release credits the target's completed contribution total to the owner's
// wallet. Only the owner may release. A repeat call returns the transaction
// recorded by the first release instead of crediting again.
func (s *releaseService) Release(ctx context.Context, userID string, kind domain.TargetKind, targetID string) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	target, err := s.targetRepo.FindTargetByID(ctx, targetID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s %s: %w", kind, targetID, err)
	}
	if target.OwnerID != userID {
		return nil, fmt.Errorf("%w: only the %s owner can release funds", apperrors.ErrForbidden, kind)
	}
	if target.FundsReleased {
		// Already released: hand back the recorded outcome.
		return s.txnRepo.FindReleaseTransaction(ctx, targetID)
	}

	wallet, err := s.walletRepo.GetOrCreateWallet(ctx, userID, s.currency)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	if !wallet.IsActive() {
		return nil, apperrors.ErrWalletFrozen
	}

	// The release amount is the sum of completed contributions, not the cached
	// accumulated field, so a reconciliation gap cannot inflate a payout. This
	// read only screens out empty targets; the authoritative total is computed
	// again inside the settlement transaction.
	total, err := s.txnRepo.SumCompletedContributions(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to total contributions for %s: %w", targetID, err)
	}
	if total <= 0 {
		return nil, fmt.Errorf("%w: %s has no contributions to release", apperrors.ErrValidation, kind)
	}

	now := time.Now().UTC()
	txn := domain.Transaction{
		TransactionID:   uuid.NewString(),
		WalletID:        wallet.WalletID,
		Type:            domain.ReleaseTypeFor(kind),
		Amount:          total,
		Status:          domain.TxnPending,
		RelatedTargetID: &targetID,
		Description:     fmt.Sprintf("release of %s funds", kind),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.txnRepo.SaveTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record release: %w", err)
	}

	// Flag flip, contribution total, wallet credit, and completion happen in
	// one database transaction; a concurrent release loses on the flag
	// condition, and a contribution completing concurrently is either counted
	// into the payout or fails on its own funds_released condition.
	released, _, err := s.txnRepo.CompleteReleaseWithBalance(ctx, txn.TransactionID, wallet.WalletID, targetID, kind)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			if markErr := s.txnRepo.MarkFailed(ctx, txn.TransactionID, "funds already released", time.Now().UTC()); markErr != nil {
				logger.Error("Failed to mark superseded release failed", "transaction_id", txn.TransactionID, "error", markErr)
			}
			return s.txnRepo.FindReleaseTransaction(ctx, targetID)
		}
		return nil, fmt.Errorf("failed to complete release %s: %w", txn.TransactionID, err)
	}

	completedAt := time.Now().UTC()
	txn.Status = domain.TxnCompleted
	txn.Amount = released
	txn.CompletedAt = &completedAt
	logger.Info("Funds released", "transaction_id", txn.TransactionID, "target_id", targetID, "amount", released)
	metrics.RecordTransaction(string(txn.Type), string(domain.TxnCompleted))
	publishTransactionEvent(ctx, s.publisher, wallet, &txn, domain.TxnCompleted)
	return &txn, nil
}
