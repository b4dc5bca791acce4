package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/savecircle/savecircle-backend/internal/apperrors"
	"github.com/savecircle/savecircle-backend/internal/core/domain"
	portsrepo "github.com/savecircle/savecircle-backend/internal/core/ports/repositories"
	"github.com/savecircle/savecircle-backend/internal/models"
)

type PgxWalletRepository struct {
	BaseRepository
}

// newPgxWalletRepository creates a new repository for wallet data.
func newPgxWalletRepository(pool *pgxpool.Pool) portsrepo.WalletRepositoryFacade {
	return &PgxWalletRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxWalletRepository implements portsrepo.WalletRepositoryFacade
var _ portsrepo.WalletRepositoryFacade = (*PgxWalletRepository)(nil)

// Helper to convert models.Wallet from DB to domain.Wallet
func toDomainWallet(m models.Wallet) domain.Wallet {
	return domain.Wallet{
		WalletID:     m.WalletID,
		OwnerID:      m.OwnerID,
		Balance:      m.Balance,
		CurrencyCode: m.CurrencyCode,
		Status:       domain.WalletStatus(m.Status),
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

const walletColumns = `wallet_id, owner_id, balance, currency_code, status, created_at, created_by, last_updated_at, last_updated_by`

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var m models.Wallet
	err := row.Scan(
		&m.WalletID,
		&m.OwnerID,
		&m.Balance,
		&m.CurrencyCode,
		&m.Status,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan wallet: %w", err)
	}
	wallet := toDomainWallet(m)
	return &wallet, nil
}

// GetOrCreateWallet returns the owner's wallet, inserting a zero-balance row if
// none exists yet. ON CONFLICT DO NOTHING keeps concurrent first calls race-safe;
// both end up reading the single surviving row.
func (r *PgxWalletRepository) GetOrCreateWallet(ctx context.Context, ownerID string, currencyCode string) (*domain.Wallet, error) {
	insertQuery := `
		INSERT INTO wallets (wallet_id, owner_id, balance, currency_code, status, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, 0, $3, 'active', NOW(), $2, NOW(), $2)
		ON CONFLICT (owner_id) DO NOTHING;
	`
	if _, err := r.Pool.Exec(ctx, insertQuery, uuid.NewString(), ownerID, currencyCode); err != nil {
		return nil, fmt.Errorf("failed to create wallet for owner %s: %w", ownerID, err)
	}
	return r.FindWalletByOwner(ctx, ownerID)
}

// FindWalletByID retrieves a wallet by its ID.
func (r *PgxWalletRepository) FindWalletByID(ctx context.Context, walletID string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE wallet_id = $1;`
	wallet, err := scanWallet(r.Pool.QueryRow(ctx, query, walletID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find wallet %s: %w", walletID, err)
	}
	return wallet, nil
}

// FindWalletByOwner retrieves a wallet by its owner.
func (r *PgxWalletRepository) FindWalletByOwner(ctx context.Context, ownerID string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE owner_id = $1;`
	wallet, err := scanWallet(r.Pool.QueryRow(ctx, query, ownerID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find wallet for owner %s: %w", ownerID, err)
	}
	return wallet, nil
}

// AdjustBalance applies delta as one conditional UPDATE. The WHERE clause
// guarantees the balance never goes negative; zero rows affected on a debit
// means insufficient funds.
func (r *PgxWalletRepository) AdjustBalance(ctx context.Context, walletID string, delta int64) (int64, error) {
	return adjustBalance(ctx, r.Pool, walletID, delta)
}

// rowQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, so balance updates
// run the same way inside and outside a database transaction.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// adjustBalance is the single place wallet balances change. Everything routes
// through this conditional update; there is no read-then-write anywhere.
func adjustBalance(ctx context.Context, db rowQuerier, walletID string, delta int64) (int64, error) {
	query := `
		UPDATE wallets
		SET balance = balance + $2, last_updated_at = NOW()
		WHERE wallet_id = $1 AND balance + $2 >= 0
		RETURNING balance;
	`
	var newBalance int64
	err := db.QueryRow(ctx, query, walletID, delta).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the wallet is missing or the debit is not covered.
			var exists bool
			checkErr := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM wallets WHERE wallet_id = $1)`, walletID).Scan(&exists)
			if checkErr != nil {
				return 0, fmt.Errorf("failed to adjust balance for wallet %s: %w", walletID, checkErr)
			}
			if !exists {
				return 0, apperrors.ErrNotFound
			}
			return 0, fmt.Errorf("%w: wallet %s cannot cover debit of %d", apperrors.ErrInsufficientFunds, walletID, -delta)
		}
		return 0, fmt.Errorf("failed to adjust balance for wallet %s: %w", walletID, err)
	}
	return newBalance, nil
}
