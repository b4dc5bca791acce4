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

// walletService provides wallet reads, gateway-funded deposits, and the
// transaction history listing.
type walletService struct {
	walletRepo portsrepo.WalletRepositoryFacade
	txnRepo    portsrepo.TransactionRepositoryFacade
	guard      *IdempotencyGuard
	gateway    portssvc.PaymentGateway
	publisher  portssvc.TransactionPublisher // optional, nil disables events
	currency   string
}

// NewWalletService creates a new WalletService.
func NewWalletService(
	walletRepo portsrepo.WalletRepositoryFacade,
	txnRepo portsrepo.TransactionRepositoryFacade,
	guard *IdempotencyGuard,
	gateway portssvc.PaymentGateway,
	publisher portssvc.TransactionPublisher,
	currency string,
) portssvc.WalletSvcFacade {
	return &walletService{
		walletRepo: walletRepo,
		txnRepo:    txnRepo,
		guard:      guard,
		gateway:    gateway,
		publisher:  publisher,
		currency:   currency,
	}
}

var _ portssvc.WalletSvcFacade = (*walletService)(nil)

// GetWallet returns the caller's wallet, creating it lazily with a zero balance.
func (s *walletService) GetWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetOrCreateWallet(ctx, userID, s.currency)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet for user %s: %w", userID, err)
	}
	return wallet, nil
}

// InitializeDeposit starts a gateway checkout and records the pending deposit
// transaction the checkout (or its webhook) will later settle.
func (s *walletService) InitializeDeposit(ctx context.Context, userID string, req dto.InitializeDepositRequest) (*dto.InitializeDepositResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}

	wallet, err := s.walletRepo.GetOrCreateWallet(ctx, userID, s.currency)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	if !wallet.IsActive() {
		return nil, apperrors.ErrWalletFrozen
	}

	auth, err := s.gateway.Initialize(ctx, portssvc.GatewayInitRequest{
		Amount:   req.Amount,
		Currency: wallet.CurrencyCode,
		Email:    req.Email,
		Purpose:  "wallet_funding",
		Metadata: map[string]string{"userId": userID, "walletId": wallet.WalletID},
	})
	if err != nil {
		logger.Error("Gateway initialize failed", "error", err)
		return nil, fmt.Errorf("%w: could not initialize payment", apperrors.ErrGatewayVerification)
	}

	now := time.Now().UTC()
	txn := domain.Transaction{
		TransactionID: uuid.NewString(),
		WalletID:      wallet.WalletID,
		Type:          domain.TxnDeposit,
		Amount:        req.Amount,
		Status:        domain.TxnPending,
		Reference:     &auth.Reference,
		Description:   req.Description,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.txnRepo.SaveTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record pending deposit: %w", err)
	}

	// Reserve and bind the fresh gateway reference so the webhook and any
	// client confirmation call dedupe against the same record.
	if first, err := s.guard.Reserve(ctx, auth.Reference); err != nil {
		logger.Warn("Failed to reserve deposit reference", "error", err)
	} else if first {
		if err := s.guard.Bind(ctx, auth.Reference, txn.TransactionID); err != nil {
			logger.Warn("Failed to bind deposit reference", "error", err)
		}
	}

	logger.Info("Deposit initialized", "transaction_id", txn.TransactionID, "reference", auth.Reference)
	return &dto.InitializeDepositResponse{
		AuthorizationURL: auth.AuthorizationURL,
		Reference:        auth.Reference,
	}, nil
}

// AddFunds confirms a gateway-funded deposit under the idempotency guard.
// Submitting the same reference twice produces exactly one completed
// transaction and one balance change; the duplicate gets the prior outcome.
func (s *walletService) AddFunds(ctx context.Context, userID string, req dto.AddFundsRequest) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}

	wallet, err := s.walletRepo.GetOrCreateWallet(ctx, userID, s.currency)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	if !wallet.IsActive() {
		return nil, apperrors.ErrWalletFrozen
	}

	first, err := s.guard.Reserve(ctx, req.Reference)
	if err != nil {
		return nil, err
	}

	if !first {
		prior, err := s.priorTransaction(ctx, req.Reference)
		if err != nil {
			return nil, err
		}
		// A reference belongs to the wallet that first recorded it. A different
		// caller resubmitting it must not see, let alone settle, someone
		// else's deposit.
		if prior.WalletID != wallet.WalletID {
			logger.Warn("Deposit reference belongs to another wallet", "reference", req.Reference, "wallet_id", wallet.WalletID)
			return nil, fmt.Errorf("%w: reference belongs to another wallet", apperrors.ErrForbidden)
		}
		if prior.IsFinal() {
			logger.Info("Duplicate deposit reference, returning prior outcome", "transaction_id", prior.TransactionID, "status", prior.Status)
			return prior, nil
		}
		// Still pending: resume settlement (client retry or recheck job).
		return s.settleDeposit(ctx, wallet, prior)
	}

	now := time.Now().UTC()
	txn := domain.Transaction{
		TransactionID: uuid.NewString(),
		WalletID:      wallet.WalletID,
		Type:          domain.TxnDeposit,
		Amount:        req.Amount,
		Status:        domain.TxnPending,
		Reference:     &req.Reference,
		Description:   req.Description,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.txnRepo.SaveTransaction(ctx, txn); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// Reference raced past the guard; the unique constraint is the backstop.
			prior, findErr := s.priorTransaction(ctx, req.Reference)
			if findErr != nil {
				return nil, findErr
			}
			if prior.WalletID != wallet.WalletID {
				return nil, fmt.Errorf("%w: reference belongs to another wallet", apperrors.ErrForbidden)
			}
			return prior, nil
		}
		return nil, fmt.Errorf("failed to record deposit: %w", err)
	}
	if err := s.guard.Bind(ctx, req.Reference, txn.TransactionID); err != nil {
		logger.Warn("Failed to bind deposit reference", "error", err)
	}

	return s.settleDeposit(ctx, wallet, &txn)
}

// ConfirmDeposit resolves a pending deposit from a gateway callback. The
// scheduled "recheck pending transactions" collaborator calls the same entry
// point.
func (s *walletService) ConfirmDeposit(ctx context.Context, reference string) (*domain.Transaction, error) {
	txn, err := s.txnRepo.FindTransactionByReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("no transaction for reference %s: %w", reference, err)
	}
	if txn.IsFinal() {
		// Duplicate delivery: acknowledge with the recorded outcome.
		return txn, nil
	}

	wallet, err := s.walletRepo.FindWalletByID(ctx, txn.WalletID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet %s: %w", txn.WalletID, err)
	}
	return s.settleDeposit(ctx, wallet, txn)
}

// settleDeposit verifies the charge with the gateway and credits the wallet.
// The verified amount must exactly match the recorded amount; anything else
// fails the transaction without a credit. The credit always targets the
// transaction's own wallet, never the caller's.
func (s *walletService) settleDeposit(ctx context.Context, wallet *domain.Wallet, txn *domain.Transaction) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := time.Now().UTC()

	verification, err := s.gateway.Verify(ctx, *txn.Reference)
	if err != nil {
		if markErr := s.txnRepo.MarkFailed(ctx, txn.TransactionID, "gateway verification failed", now); markErr != nil {
			logger.Error("Failed to mark transaction failed after verification error", "transaction_id", txn.TransactionID, "error", markErr)
		}
		metrics.RecordTransaction(string(txn.Type), string(domain.TxnFailed))
		publishTransactionEvent(ctx, s.publisher, wallet, txn, domain.TxnFailed)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrGatewayVerification, err)
	}

	switch verification.Status {
	case portssvc.GatewayStatusSuccess:
		// fall through to amount check
	case portssvc.GatewayStatusPending:
		// Not settled on the gateway side yet; stay pending so a later webhook
		// or the recheck job can complete it.
		return nil, fmt.Errorf("%w: payment not yet confirmed", apperrors.ErrGatewayVerification)
	default:
		if err := s.txnRepo.MarkFailed(ctx, txn.TransactionID, "payment was not successful", now); err != nil {
			logger.Error("Failed to mark transaction failed", "transaction_id", txn.TransactionID, "error", err)
		}
		metrics.RecordTransaction(string(txn.Type), string(domain.TxnFailed))
		publishTransactionEvent(ctx, s.publisher, wallet, txn, domain.TxnFailed)
		return nil, fmt.Errorf("%w: payment status %q", apperrors.ErrGatewayVerification, verification.Status)
	}

	if verification.Amount != txn.Amount {
		reason := fmt.Sprintf("verified amount %d does not match requested amount %d", verification.Amount, txn.Amount)
		if err := s.txnRepo.MarkFailed(ctx, txn.TransactionID, reason, now); err != nil {
			logger.Error("Failed to mark transaction failed on amount mismatch", "transaction_id", txn.TransactionID, "error", err)
		}
		metrics.RecordTransaction(string(txn.Type), string(domain.TxnFailed))
		publishTransactionEvent(ctx, s.publisher, wallet, txn, domain.TxnFailed)
		return nil, fmt.Errorf("%w: %s", apperrors.ErrGatewayVerification, reason)
	}

	newBalance, err := s.txnRepo.CompleteWithBalance(ctx, txn.TransactionID, txn.WalletID, txn.Amount)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			// Lost a race with a concurrent settlement of the same deposit.
			return s.txnRepo.FindTransactionByID(ctx, txn.TransactionID)
		}
		return nil, fmt.Errorf("failed to complete deposit %s: %w", txn.TransactionID, err)
	}

	txn.Status = domain.TxnCompleted
	txn.CompletedAt = &now
	logger.Info("Deposit completed", "transaction_id", txn.TransactionID, "amount", txn.Amount, "balance", newBalance)
	metrics.RecordTransaction(string(txn.Type), string(domain.TxnCompleted))
	publishTransactionEvent(ctx, s.publisher, wallet, txn, domain.TxnCompleted)
	return txn, nil
}

// ListTransactions returns a filtered page of the caller's transaction history.
func (s *walletService) ListTransactions(ctx context.Context, userID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	wallet, err := s.walletRepo.FindWalletByOwner(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// No wallet yet means no history.
			return &dto.ListTransactionsResponse{Transactions: []dto.TransactionResponse{}}, nil
		}
		return nil, fmt.Errorf("failed to find wallet: %w", err)
	}

	filter := portsrepo.TransactionFilter{
		Limit:     params.Limit,
		NextToken: params.NextToken,
		From:      params.From,
		To:        params.To,
		Search:    params.Search,
	}
	if params.Type != nil {
		t := domain.TransactionType(*params.Type)
		filter.Type = &t
	}
	if params.Status != nil {
		st := domain.TransactionStatus(*params.Status)
		filter.Status = &st
	}

	txns, nextToken, err := s.txnRepo.ListTransactionsByWallet(ctx, wallet.WalletID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return &dto.ListTransactionsResponse{
		Transactions: dto.ToTransactionResponses(txns),
		NextToken:    nextToken,
	}, nil
}

// priorTransaction resolves the transaction a duplicate reference belongs to.
func (s *walletService) priorTransaction(ctx context.Context, reference string) (*domain.Transaction, error) {
	if txnID, err := s.guard.PriorTransactionID(ctx, reference); err == nil {
		return s.txnRepo.FindTransactionByID(ctx, txnID)
	}
	// Reservation exists but the outcome binding may have been lost; the
	// ledger's unique reference column still knows.
	return s.txnRepo.FindTransactionByReference(ctx, reference)
}

// publishTransactionEvent publishes a transaction lifecycle event, best-effort.
func publishTransactionEvent(ctx context.Context, publisher portssvc.TransactionPublisher, wallet *domain.Wallet, txn *domain.Transaction, status domain.TransactionStatus) {
	if publisher == nil {
		return
	}
	event := portssvc.TransactionEvent{
		TransactionID: txn.TransactionID,
		WalletID:      wallet.WalletID,
		OwnerID:       wallet.OwnerID,
		Type:          string(txn.Type),
		Status:        string(status),
		Amount:        txn.Amount,
		OccurredAt:    time.Now().UTC(),
	}
	if err := publisher.PublishTransaction(ctx, event); err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("Failed to publish transaction event", "transaction_id", txn.TransactionID, "error", err)
	}
}
