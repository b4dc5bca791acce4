package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/savecircle/savecircle-backend/internal/apperrors"
	"github.com/savecircle/savecircle-backend/internal/core/domain"
	portsrepo "github.com/savecircle/savecircle-backend/internal/core/ports/repositories"
	portssvc "github.com/savecircle/savecircle-backend/internal/core/ports/services"
	"github.com/savecircle/savecircle-backend/internal/dto"
	"github.com/savecircle/savecircle-backend/internal/middleware"
	"github.com/savecircle/savecircle-backend/internal/platform/metrics"
)

// withdrawalService drives the withdrawal-to-bank state machine. The wallet is
// debited into escrow the moment a request is accepted; approval executes the
// gateway payout, rejection (or payout failure) credits the escrow back.
type withdrawalService struct {
	walletRepo     portsrepo.WalletRepositoryFacade
	txnRepo        portsrepo.TransactionRepositoryFacade
	withdrawalRepo portsrepo.WithdrawalRepositoryFacade
	gateway        portssvc.PaymentGateway
	publisher      portssvc.TransactionPublisher
	currency       string
	feeRate        decimal.Decimal
}

// NewWithdrawalService creates a new WithdrawalService. feeRate is the
// fractional fee applied to the payout amount, e.g. 0.01 for 1%.
func NewWithdrawalService(
	walletRepo portsrepo.WalletRepositoryFacade,
	txnRepo portsrepo.TransactionRepositoryFacade,
	withdrawalRepo portsrepo.WithdrawalRepositoryFacade,
	gateway portssvc.PaymentGateway,
	publisher portssvc.TransactionPublisher,
	currency string,
	feeRate decimal.Decimal,
) portssvc.WithdrawalSvcFacade {
	return &withdrawalService{
		walletRepo:     walletRepo,
		txnRepo:        txnRepo,
		withdrawalRepo: withdrawalRepo,
		gateway:        gateway,
		publisher:      publisher,
		currency:       currency,
		feeRate:        feeRate,
	}
}

var _ portssvc.WithdrawalSvcFacade = (*withdrawalService)(nil)

// feeFor computes the withdrawal fee in minor units, rounded half up.
func (s *withdrawalService) feeFor(amount int64) int64 {
	return s.feeRate.Mul(decimal.NewFromInt(amount)).Round(0).IntPart()
}

// RequestWithdrawal validates the destination, debits amount plus fee into
// escrow, and parks the request for review. The transaction stays pending until
// the review resolves it.
func (s *withdrawalService) RequestWithdrawal(ctx context.Context, userID string, req dto.WithdrawRequest) (*domain.WithdrawalRequest, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	bank := req.BankAccount.ToBankAccount()
	if err := bank.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	wallet, err := s.walletRepo.GetOrCreateWallet(ctx, userID, s.currency)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	if !wallet.IsActive() {
		return nil, apperrors.ErrWalletFrozen
	}

	fee := s.feeFor(req.Amount)
	escrowed := req.Amount + fee

	now := time.Now().UTC()
	txn := domain.Transaction{
		TransactionID: uuid.NewString(),
		WalletID:      wallet.WalletID,
		Type:          domain.TxnWithdrawal,
		Amount:        -escrowed,
		Fee:           fee,
		Status:        domain.TxnPending,
		Description:   req.Description,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.txnRepo.SaveTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record withdrawal: %w", err)
	}

	// Escrow debit: the balance drops now, the transaction stays pending.
	if _, err := s.txnRepo.DebitForEscrow(ctx, txn.TransactionID, wallet.WalletID, txn.Amount); err != nil {
		if markErr := s.txnRepo.MarkFailed(ctx, txn.TransactionID, "insufficient funds", time.Now().UTC()); markErr != nil {
			logger.Error("Failed to mark withdrawal failed", "transaction_id", txn.TransactionID, "error", markErr)
		}
		if errors.Is(err, apperrors.ErrInsufficientFunds) {
			metrics.RecordTransaction(string(domain.TxnWithdrawal), string(domain.TxnFailed))
			return nil, fmt.Errorf("%w: balance cannot cover %d plus fee %d", apperrors.ErrInsufficientFunds, req.Amount, fee)
		}
		return nil, fmt.Errorf("failed to escrow withdrawal %s: %w", txn.TransactionID, err)
	}

	request := domain.WithdrawalRequest{
		RequestID:     uuid.NewString(),
		TransactionID: txn.TransactionID,
		WalletID:      wallet.WalletID,
		Amount:        req.Amount,
		Fee:           fee,
		BankAccount:   bank,
		Status:        domain.WithdrawalPendingReview,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.withdrawalRepo.SaveWithdrawalRequest(ctx, request); err != nil {
		// The escrow debit already happened; credit it back before failing.
		logger.Error("Failed to save withdrawal request, compensating escrow", "transaction_id", txn.TransactionID, "error", err)
		s.creditEscrowBack(ctx, &txn, escrowed, "could not record withdrawal request")
		return nil, fmt.Errorf("failed to save withdrawal request: %w", err)
	}

	logger.Info("Withdrawal requested", "request_id", request.RequestID, "transaction_id", txn.TransactionID, "amount", req.Amount, "fee", fee)
	metrics.RecordTransaction(string(domain.TxnWithdrawal), string(domain.TxnPending))
	return &request, nil
}

// Approve moves a pending_review request through approved and processing, then
// executes the gateway payout. A gateway failure credits the escrow back and
// rejects the request.
func (s *withdrawalService) Approve(ctx context.Context, reviewerID string, transactionID string) (*domain.WithdrawalRequest, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	request, err := s.withdrawalRepo.FindWithdrawalByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find withdrawal for transaction %s: %w", transactionID, err)
	}
	if !request.CanApprove() {
		return nil, fmt.Errorf("%w: withdrawal is %s, not pending review", apperrors.ErrConflict, request.Status)
	}

	now := time.Now().UTC()
	review := portsrepo.WithdrawalReview{ReviewerID: reviewerID, At: now}

	// The pending_review -> approved transition is the serialization point:
	// a concurrent approve or reject loses here with ErrConflict.
	if err := s.withdrawalRepo.TransitionStatus(ctx, request.RequestID, domain.WithdrawalPendingReview, domain.WithdrawalApproved, review); err != nil {
		return nil, fmt.Errorf("failed to approve withdrawal %s: %w", request.RequestID, err)
	}
	if err := s.withdrawalRepo.TransitionStatus(ctx, request.RequestID, domain.WithdrawalApproved, domain.WithdrawalProcessing, review); err != nil {
		return nil, fmt.Errorf("failed to start payout for withdrawal %s: %w", request.RequestID, err)
	}
	request.Status = domain.WithdrawalProcessing
	request.ReviewedBy = &reviewerID
	request.ReviewedAt = &now

	transfer, err := s.gateway.Transfer(ctx, portssvc.GatewayTransferRequest{
		Amount:      request.Amount,
		Currency:    s.currency,
		BankAccount: request.BankAccount,
		Reason:      "wallet withdrawal",
	})
	if err != nil {
		logger.Error("Gateway payout failed, crediting escrow back", "request_id", request.RequestID, "error", err)
		return s.failPayout(ctx, request, fmt.Sprintf("gateway payout failed: %v", err))
	}

	completedAt := time.Now().UTC()
	if err := s.txnRepo.MarkCompleted(ctx, request.TransactionID, completedAt); err != nil {
		logger.Error("Payout executed but transaction completion failed", "request_id", request.RequestID, "error", err)
		if markErr := s.txnRepo.MarkNeedsReconciliation(ctx, request.TransactionID, "payout executed, completion not recorded", completedAt); markErr != nil {
			logger.Error("Failed to flag withdrawal for reconciliation", "transaction_id", request.TransactionID, "error", markErr)
		}
		return nil, fmt.Errorf("payout executed but completion not recorded for %s: %w", request.TransactionID, err)
	}

	doneReview := portsrepo.WithdrawalReview{ReviewerID: reviewerID, TransferReference: &transfer.Reference, At: completedAt}
	if err := s.withdrawalRepo.TransitionStatus(ctx, request.RequestID, domain.WithdrawalProcessing, domain.WithdrawalCompleted, doneReview); err != nil {
		logger.Error("Failed to mark withdrawal completed", "request_id", request.RequestID, "error", err)
		return nil, fmt.Errorf("failed to complete withdrawal %s: %w", request.RequestID, err)
	}
	request.Status = domain.WithdrawalCompleted
	request.TransferReference = &transfer.Reference

	logger.Info("Withdrawal completed", "request_id", request.RequestID, "transfer_reference", transfer.Reference)
	metrics.RecordTransaction(string(domain.TxnWithdrawal), string(domain.TxnCompleted))
	s.publishWithdrawal(ctx, request, domain.TxnCompleted)
	return request, nil
}

// Reject credits the escrowed amount back and fails the withdrawal transaction.
// Only a pending_review request can be rejected by a reviewer.
func (s *withdrawalService) Reject(ctx context.Context, reviewerID string, transactionID string, reason string) (*domain.WithdrawalRequest, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	request, err := s.withdrawalRepo.FindWithdrawalByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find withdrawal for transaction %s: %w", transactionID, err)
	}
	if !request.CanReject() {
		return nil, fmt.Errorf("%w: withdrawal is %s, not pending review", apperrors.ErrConflict, request.Status)
	}

	now := time.Now().UTC()
	review := portsrepo.WithdrawalReview{ReviewerID: reviewerID, Reason: reason, At: now}
	if err := s.withdrawalRepo.TransitionStatus(ctx, request.RequestID, domain.WithdrawalPendingReview, domain.WithdrawalRejected, review); err != nil {
		return nil, fmt.Errorf("failed to reject withdrawal %s: %w", request.RequestID, err)
	}
	request.Status = domain.WithdrawalRejected
	request.ReviewedBy = &reviewerID
	request.ReviewedAt = &now
	request.RejectionReason = reason

	txn, err := s.txnRepo.FindTransactionByID(ctx, request.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load withdrawal transaction %s: %w", request.TransactionID, err)
	}
	s.creditEscrowBack(ctx, txn, request.Amount+request.Fee, fmt.Sprintf("rejected by reviewer: %s", reason))

	logger.Info("Withdrawal rejected", "request_id", request.RequestID, "reason", reason)
	metrics.RecordTransaction(string(domain.TxnWithdrawal), string(domain.TxnFailed))
	s.publishWithdrawal(ctx, request, domain.TxnFailed)
	return request, nil
}

// failPayout handles a gateway payout failure after processing started: escrow
// credited back, transaction failed, request rejected.
func (s *withdrawalService) failPayout(ctx context.Context, request *domain.WithdrawalRequest, reason string) (*domain.WithdrawalRequest, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	txn, err := s.txnRepo.FindTransactionByID(ctx, request.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load withdrawal transaction %s: %w", request.TransactionID, err)
	}
	s.creditEscrowBack(ctx, txn, request.Amount+request.Fee, reason)

	now := time.Now().UTC()
	review := portsrepo.WithdrawalReview{ReviewerID: *request.ReviewedBy, Reason: reason, At: now}
	if err := s.withdrawalRepo.TransitionStatus(ctx, request.RequestID, domain.WithdrawalProcessing, domain.WithdrawalRejected, review); err != nil {
		logger.Error("Failed to mark withdrawal rejected after payout failure", "request_id", request.RequestID, "error", err)
	}
	request.Status = domain.WithdrawalRejected
	request.RejectionReason = reason

	metrics.RecordTransaction(string(domain.TxnWithdrawal), string(domain.TxnFailed))
	s.publishWithdrawal(ctx, request, domain.TxnFailed)
	return request, fmt.Errorf("%w: %s", apperrors.ErrGatewayVerification, reason)
}

// creditEscrowBack returns escrowed funds to the wallet and fails the
// transaction. A failed credit-back leaves funds out of place, so the
// transaction is flagged needs_reconciliation instead.
func (s *withdrawalService) creditEscrowBack(ctx context.Context, txn *domain.Transaction, amount int64, reason string) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now().UTC()

	if _, err := s.walletRepo.AdjustBalance(ctx, txn.WalletID, amount); err != nil {
		logger.Error("Escrow credit-back failed, flagging for reconciliation", "transaction_id", txn.TransactionID, "error", err)
		if markErr := s.txnRepo.MarkNeedsReconciliation(ctx, txn.TransactionID, reason+"; escrow credit-back failed", now); markErr != nil {
			logger.Error("Failed to flag transaction for reconciliation", "transaction_id", txn.TransactionID, "error", markErr)
		}
		txn.Status = domain.TxnNeedsReconciliation
		return
	}
	if err := s.txnRepo.MarkFailed(ctx, txn.TransactionID, reason, now); err != nil {
		logger.Error("Failed to mark withdrawal transaction failed", "transaction_id", txn.TransactionID, "error", err)
	}
	txn.Status = domain.TxnFailed
	txn.FailureReason = reason
}

// publishWithdrawal emits the lifecycle event for a withdrawal outcome.
func (s *withdrawalService) publishWithdrawal(ctx context.Context, request *domain.WithdrawalRequest, status domain.TransactionStatus) {
	if s.publisher == nil {
		return
	}
	wallet, err := s.walletRepo.FindWalletByID(ctx, request.WalletID)
	if err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("Failed to load wallet for withdrawal event", "wallet_id", request.WalletID, "error", err)
		return
	}
	event := portssvc.TransactionEvent{
		TransactionID: request.TransactionID,
		WalletID:      request.WalletID,
		OwnerID:       wallet.OwnerID,
		Type:          string(domain.TxnWithdrawal),
		Status:        string(status),
		Amount:        -(request.Amount + request.Fee),
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.publisher.PublishTransaction(ctx, event); err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("Failed to publish withdrawal event", "transaction_id", request.TransactionID, "error", err)
	}
}
