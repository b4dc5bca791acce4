package repositories

import (
	"context"

	"github.com/savecircle/savecircle-backend/internal/core/domain"
)

// WalletRepositoryFacade defines persistence operations for wallets.
type WalletRepositoryFacade interface {
	// GetOrCreateWallet returns the owner's wallet, creating it with a zero
	// balance if it does not exist yet. Creation is race-safe: concurrent calls
	// for the same owner all observe the same wallet row.
	GetOrCreateWallet(ctx context.Context, ownerID string, currencyCode string) (*domain.Wallet, error)

	// FindWalletByID retrieves a wallet by its ID. Returns apperrors.ErrNotFound
	// if absent.
	FindWalletByID(ctx context.Context, walletID string) (*domain.Wallet, error)

	// FindWalletByOwner retrieves a wallet by owner. Returns apperrors.ErrNotFound
	// if the owner has no wallet yet.
	FindWalletByOwner(ctx context.Context, ownerID string) (*domain.Wallet, error)

	// AdjustBalance applies delta to the wallet balance as a single conditional
	// update at the storage layer (never read-then-write). Returns the new
	// balance. Returns apperrors.ErrInsufficientFunds when delta is negative and
	// the balance cannot cover it; no state changes in that case.
	AdjustBalance(ctx context.Context, walletID string, delta int64) (int64, error)
}
