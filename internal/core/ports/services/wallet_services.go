package services

import (
	"context"

	"github.com/savecircle/savecircle-backend/internal/core/domain"
	"github.com/savecircle/savecircle-backend/internal/dto"
)

// WalletSvcFacade owns wallet reads, gateway-funded deposits, and the
// transaction history listing.
type WalletSvcFacade interface {
	// GetWallet returns the caller's wallet, creating it lazily.
	GetWallet(ctx context.Context, userID string) (*domain.Wallet, error)

	// InitializeDeposit starts a gateway checkout and records the pending
	// deposit transaction the checkout will settle.
	InitializeDeposit(ctx context.Context, userID string, req dto.InitializeDepositRequest) (*dto.InitializeDepositResponse, error)

	// AddFunds confirms a gateway-funded deposit: reserves the reference,
	// verifies the charge with the gateway (the verified amount must match
	// exactly), and credits the wallet. A duplicate reference returns the
	// previously recorded transaction without reapplying anything.
	AddFunds(ctx context.Context, userID string, req dto.AddFundsRequest) (*domain.Transaction, error)

	// ConfirmDeposit resolves a pending deposit from a gateway callback. The
	// same entry point serves the external "recheck pending transactions" job.
	ConfirmDeposit(ctx context.Context, reference string) (*domain.Transaction, error)

	// ListTransactions returns a filtered page of the caller's transactions.
	ListTransactions(ctx context.Context, userID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)
}
