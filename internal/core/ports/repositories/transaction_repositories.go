package repositories

import (
	"context"
	"time"

	"github.com/savecircle/savecircle-backend/internal/core/domain"
)

// TransactionFilter narrows a transaction listing. Zero values mean "no filter".
type TransactionFilter struct {
	Limit     int
	NextToken *string
	Type      *domain.TransactionType
	Status    *domain.TransactionStatus
	From      *time.Time
	To        *time.Time
	Search    string // free-text match against the description
}

// TransactionRepositoryFacade defines persistence operations for the append-only
// transaction ledger.
type TransactionRepositoryFacade interface {
	// SaveTransaction inserts a new transaction, normally in the pending status.
	// Returns apperrors.ErrDuplicate if the external reference is already
	// consumed by another transaction.
	SaveTransaction(ctx context.Context, txn domain.Transaction) error

	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// FindTransactionByReference looks a transaction up by its external
	// reference. Returns apperrors.ErrNotFound if no transaction consumed it.
	FindTransactionByReference(ctx context.Context, reference string) (*domain.Transaction, error)

	// CompleteWithBalance marks a pending transaction completed and applies its
	// signed amount to the wallet balance as one atomic unit: both happen or
	// neither does. Returns the new balance. Returns
	// apperrors.ErrInsufficientFunds (nothing changed, transaction stays
	// pending) when a debit cannot be covered, and apperrors.ErrConflict when
	// the transaction is not pending.
	CompleteWithBalance(ctx context.Context, transactionID string, walletID string, amount int64) (int64, error)

	// CompleteContributionWithBalance settles a contribution: the conditional
	// wallet debit, the target's accumulated-amount increment (conditional on
	// funds not being released), and the transaction completion all happen
	// inside one database transaction, so no partial state can persist. amount
	// is the positive contribution amount. Returns the new wallet balance.
	// Returns apperrors.ErrInsufficientFunds when the debit cannot be covered
	// and apperrors.ErrConflict when the funds were released mid-flight or the
	// transaction is not pending; in every error case nothing changed and the
	// transaction stays pending.
	CompleteContributionWithBalance(ctx context.Context, transactionID string, walletID string, targetID string, kind domain.TargetKind, amount int64) (int64, error)

	// CompleteReleaseWithBalance settles a release transaction: flips the
	// target's funds_released flag (conditional on it being false), totals the
	// completed contributions, credits the owner's wallet with that total, and
	// completes the transaction, all inside one database transaction. The sum
	// is computed inside the transaction so a contribution completing
	// concurrently is either included in the payout or rejected by its own
	// funds_released condition, never stranded. Returns the released amount and
	// the new balance. Returns apperrors.ErrConflict without any state change
	// if the funds were already released.
	CompleteReleaseWithBalance(ctx context.Context, transactionID string, walletID string, targetID string, kind domain.TargetKind) (int64, int64, error)

	// DebitForEscrow applies a negative delta to the wallet for a transaction
	// that intentionally stays pending (withdrawal escrow). Returns
	// apperrors.ErrInsufficientFunds when the balance cannot cover it.
	DebitForEscrow(ctx context.Context, transactionID string, walletID string, amount int64) (int64, error)

	// MarkCompleted finalizes a pending transaction without a balance change
	// (the matching balance change already happened, e.g. withdrawal escrow).
	MarkCompleted(ctx context.Context, transactionID string, completedAt time.Time) error

	// MarkFailed finalizes a transaction as failed with a reason.
	MarkFailed(ctx context.Context, transactionID string, reason string, failedAt time.Time) error

	// MarkNeedsReconciliation flags a transaction whose compensation could not
	// complete so administrative tooling can find it.
	MarkNeedsReconciliation(ctx context.Context, transactionID string, reason string, at time.Time) error

	// SumCompletedContributions totals the completed contribution amounts
	// recorded against a savings target. Contribution amounts are debits
	// (negative); the returned total is the positive sum contributed.
	SumCompletedContributions(ctx context.Context, targetID string) (int64, error)

	// FindReleaseTransaction returns the release transaction recorded for a
	// target, or apperrors.ErrNotFound if none exists.
	FindReleaseTransaction(ctx context.Context, targetID string) (*domain.Transaction, error)

	// ListTransactionsByWallet returns a page of transactions for a wallet,
	// newest first, with a token for the next page.
	ListTransactionsByWallet(ctx context.Context, walletID string, filter TransactionFilter) ([]domain.Transaction, *string, error)
}
