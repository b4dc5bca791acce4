package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/savecircle/savecircle-backend/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		WalletRepo:      newPgxWalletRepository(dbPool),
		TransactionRepo: newPgxTransactionRepository(dbPool),
		TargetRepo:      newPgxSavingsTargetRepository(dbPool),
		WithdrawalRepo:  newPgxWithdrawalRepository(dbPool),
		IdempotencyRepo: newPgxIdempotencyRepository(dbPool),
	}
}
