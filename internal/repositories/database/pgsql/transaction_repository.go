package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/savecircle/savecircle-backend/internal/apperrors"
	"github.com/savecircle/savecircle-backend/internal/core/domain"
	portsrepo "github.com/savecircle/savecircle-backend/internal/core/ports/repositories"
	"github.com/savecircle/savecircle-backend/internal/models"
	"github.com/savecircle/savecircle-backend/internal/utils/pagination"
)

type PgxTransactionRepository struct {
	BaseRepository
}

// newPgxTransactionRepository creates a new repository for the transaction ledger.
func newPgxTransactionRepository(pool *pgxpool.Pool) portsrepo.TransactionRepositoryFacade {
	return &PgxTransactionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxTransactionRepository implements portsrepo.TransactionRepositoryFacade
var _ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)

// Helper to convert domain.Transaction to models.Transaction for DB storage
func toModelTransaction(d domain.Transaction) models.Transaction {
	return models.Transaction{
		TransactionID:   d.TransactionID,
		WalletID:        d.WalletID,
		Type:            string(d.Type),
		Amount:          d.Amount,
		Fee:             d.Fee,
		Status:          string(d.Status),
		Reference:       d.Reference,
		RelatedTargetID: d.RelatedTargetID,
		Description:     d.Description,
		FailureReason:   d.FailureReason,
		CompletedAt:     d.CompletedAt,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
}

// Helper to convert models.Transaction from DB to domain.Transaction
func toDomainTransaction(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		TransactionID:   m.TransactionID,
		WalletID:        m.WalletID,
		Type:            domain.TransactionType(m.Type),
		Amount:          m.Amount,
		Fee:             m.Fee,
		Status:          domain.TransactionStatus(m.Status),
		Reference:       m.Reference,
		RelatedTargetID: m.RelatedTargetID,
		Description:     m.Description,
		FailureReason:   m.FailureReason,
		CompletedAt:     m.CompletedAt,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

const transactionColumns = `transaction_id, wallet_id, transaction_type, amount, fee, status, reference, related_target_id, description, failure_reason, completed_at, created_at, created_by, last_updated_at, last_updated_by`

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var m models.Transaction
	err := row.Scan(
		&m.TransactionID,
		&m.WalletID,
		&m.Type,
		&m.Amount,
		&m.Fee,
		&m.Status,
		&m.Reference,
		&m.RelatedTargetID,
		&m.Description,
		&m.FailureReason,
		&m.CompletedAt,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}
	txn := toDomainTransaction(m)
	return &txn, nil
}

// SaveTransaction inserts a new ledger entry. The partial unique index on
// reference makes a reused external reference surface as ErrDuplicate.
func (r *PgxTransactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction) error {
	m := toModelTransaction(txn)
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.TransactionID,
		m.WalletID,
		m.Type,
		m.Amount,
		m.Fee,
		m.Status,
		m.Reference,
		m.RelatedTargetID,
		m.Description,
		m.FailureReason,
		m.CompletedAt,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: reference already consumed", apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to save transaction %s: %w", m.TransactionID, err)
	}
	return nil
}

// FindTransactionByID retrieves a transaction by its ID.
func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1;`
	return scanTransaction(r.Pool.QueryRow(ctx, query, transactionID))
}

// FindTransactionByReference retrieves the transaction that consumed an
// external reference.
func (r *PgxTransactionRepository) FindTransactionByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE reference = $1;`
	return scanTransaction(r.Pool.QueryRow(ctx, query, reference))
}

// CompleteWithBalance marks a pending transaction completed and applies its
// amount to the wallet in one database transaction. Completion is conditional
// on the pending status, the balance change on non-negativity; if either
// condition fails, everything rolls back.
func (r *PgxTransactionRepository) CompleteWithBalance(ctx context.Context, transactionID string, walletID string, amount int64) (int64, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer r.Rollback(ctx, tx)

	if err := completeInTx(ctx, tx, transactionID); err != nil {
		return 0, err
	}
	newBalance, err := adjustBalance(ctx, tx, walletID, amount)
	if err != nil {
		return 0, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// CompleteContributionWithBalance settles a contribution: wallet debit, target
// accumulated increment, and completion commit together or not at all. The
// increment is conditional on funds_released = FALSE, so a contribution racing
// a release loses cleanly with ErrConflict and the debit rolls back.
func (r *PgxTransactionRepository) CompleteContributionWithBalance(ctx context.Context, transactionID string, walletID string, targetID string, kind domain.TargetKind, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: contribution amount must be positive, got %d", apperrors.ErrValidation, amount)
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer r.Rollback(ctx, tx)

	incrementQuery := `
		UPDATE savings_targets
		SET accumulated_amount = accumulated_amount + $3, last_updated_at = NOW()
		WHERE target_id = $1 AND kind = $2 AND funds_released = FALSE;
	`
	tag, err := tx.Exec(ctx, incrementQuery, targetID, string(kind), amount)
	if err != nil {
		return 0, fmt.Errorf("failed to increment accumulated amount for %s %s: %w", kind, targetID, err)
	}
	if tag.RowsAffected() == 0 {
		// Either the target vanished or its funds were released mid-flight.
		var exists bool
		if checkErr := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM savings_targets WHERE target_id = $1 AND kind = $2)`, targetID, string(kind)).Scan(&exists); checkErr != nil {
			return 0, fmt.Errorf("failed to check %s %s: %w", kind, targetID, checkErr)
		}
		if !exists {
			return 0, apperrors.ErrNotFound
		}
		return 0, fmt.Errorf("%w: %s %s funds already released", apperrors.ErrConflict, kind, targetID)
	}

	newBalance, err := adjustBalance(ctx, tx, walletID, -amount)
	if err != nil {
		return 0, err
	}
	if err := completeInTx(ctx, tx, transactionID); err != nil {
		return 0, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// CompleteReleaseWithBalance settles a release transaction: the conditional
// funds_released flip, the contribution total, the wallet credit, and the
// completion all commit together or not at all. The total is read after the
// flip inside the same transaction, so every contribution it misses has failed
// on its own funds_released condition rather than being stranded. A target
// already released fails with ErrConflict and no state change.
func (r *PgxTransactionRepository) CompleteReleaseWithBalance(ctx context.Context, transactionID string, walletID string, targetID string, kind domain.TargetKind) (int64, int64, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer r.Rollback(ctx, tx)

	flagQuery := `
		UPDATE savings_targets
		SET funds_released = TRUE, last_updated_at = NOW()
		WHERE target_id = $1 AND kind = $2 AND funds_released = FALSE;
	`
	tag, err := tx.Exec(ctx, flagQuery, targetID, string(kind))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to flip funds_released for %s %s: %w", kind, targetID, err)
	}
	if tag.RowsAffected() == 0 {
		return 0, 0, fmt.Errorf("%w: %s %s funds already released", apperrors.ErrConflict, kind, targetID)
	}

	sumQuery := `
		SELECT COALESCE(-SUM(amount), 0)
		FROM transactions
		WHERE related_target_id = $1 AND transaction_type = 'contribution' AND status = 'completed';
	`
	var total int64
	if err := tx.QueryRow(ctx, sumQuery, targetID).Scan(&total); err != nil {
		return 0, 0, fmt.Errorf("failed to sum contributions for target %s: %w", targetID, err)
	}

	completeQuery := `
		UPDATE transactions
		SET status = 'completed', amount = $2, completed_at = NOW(), last_updated_at = NOW()
		WHERE transaction_id = $1 AND status = 'pending';
	`
	tag, err = tx.Exec(ctx, completeQuery, transactionID, total)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to complete release %s: %w", transactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return 0, 0, fmt.Errorf("%w: transaction %s is not pending", apperrors.ErrConflict, transactionID)
	}

	newBalance, err := adjustBalance(ctx, tx, walletID, total)
	if err != nil {
		return 0, 0, err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return 0, 0, err
	}
	return total, newBalance, nil
}

// DebitForEscrow applies a negative delta for a transaction that stays
// pending. The transaction row itself is untouched; only the balance moves.
func (r *PgxTransactionRepository) DebitForEscrow(ctx context.Context, transactionID string, walletID string, amount int64) (int64, error) {
	if amount >= 0 {
		return 0, fmt.Errorf("%w: escrow debit must be negative, got %d", apperrors.ErrValidation, amount)
	}
	// Guard against escrowing for a transaction that is no longer pending.
	var status string
	if err := r.Pool.QueryRow(ctx, `SELECT status FROM transactions WHERE transaction_id = $1`, transactionID).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrNotFound
		}
		return 0, fmt.Errorf("failed to check transaction %s: %w", transactionID, err)
	}
	if status != string(domain.TxnPending) {
		return 0, fmt.Errorf("%w: transaction %s is not pending", apperrors.ErrConflict, transactionID)
	}
	return adjustBalance(ctx, r.Pool, walletID, amount)
}

// completeInTx flips a pending transaction to completed inside tx. Zero rows
// affected means the transaction was not pending.
func completeInTx(ctx context.Context, tx pgx.Tx, transactionID string) error {
	query := `
		UPDATE transactions
		SET status = 'completed', completed_at = NOW(), last_updated_at = NOW()
		WHERE transaction_id = $1 AND status = 'pending';
	`
	tag, err := tx.Exec(ctx, query, transactionID)
	if err != nil {
		return fmt.Errorf("failed to complete transaction %s: %w", transactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: transaction %s is not pending", apperrors.ErrConflict, transactionID)
	}
	return nil
}

// MarkCompleted finalizes a pending transaction without touching the balance.
func (r *PgxTransactionRepository) MarkCompleted(ctx context.Context, transactionID string, completedAt time.Time) error {
	query := `
		UPDATE transactions
		SET status = 'completed', completed_at = $2, last_updated_at = $2
		WHERE transaction_id = $1 AND status = 'pending';
	`
	tag, err := r.Pool.Exec(ctx, query, transactionID, completedAt)
	if err != nil {
		return fmt.Errorf("failed to mark transaction %s completed: %w", transactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: transaction %s is not pending", apperrors.ErrConflict, transactionID)
	}
	return nil
}

// MarkFailed finalizes a transaction as failed with a reason.
func (r *PgxTransactionRepository) MarkFailed(ctx context.Context, transactionID string, reason string, failedAt time.Time) error {
	query := `
		UPDATE transactions
		SET status = 'failed', failure_reason = $2, last_updated_at = $3
		WHERE transaction_id = $1 AND status = 'pending';
	`
	tag, err := r.Pool.Exec(ctx, query, transactionID, reason, failedAt)
	if err != nil {
		return fmt.Errorf("failed to mark transaction %s failed: %w", transactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: transaction %s is not pending", apperrors.ErrConflict, transactionID)
	}
	return nil
}

// MarkNeedsReconciliation flags a transaction whose compensation did not
// complete. Unlike the other finalizers this applies to any non-final status.
func (r *PgxTransactionRepository) MarkNeedsReconciliation(ctx context.Context, transactionID string, reason string, at time.Time) error {
	query := `
		UPDATE transactions
		SET status = 'needs_reconciliation', failure_reason = $2, last_updated_at = $3
		WHERE transaction_id = $1 AND status NOT IN ('completed', 'failed');
	`
	tag, err := r.Pool.Exec(ctx, query, transactionID, reason, at)
	if err != nil {
		return fmt.Errorf("failed to flag transaction %s for reconciliation: %w", transactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: transaction %s already finalized", apperrors.ErrConflict, transactionID)
	}
	return nil
}

// SumCompletedContributions totals completed contribution amounts for a target.
// Amounts are stored negative (debits); the sum is returned positive.
func (r *PgxTransactionRepository) SumCompletedContributions(ctx context.Context, targetID string) (int64, error) {
	query := `
		SELECT COALESCE(-SUM(amount), 0)
		FROM transactions
		WHERE related_target_id = $1 AND transaction_type = 'contribution' AND status = 'completed';
	`
	var total int64
	if err := r.Pool.QueryRow(ctx, query, targetID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum contributions for target %s: %w", targetID, err)
	}
	return total, nil
}

// FindReleaseTransaction returns the completed release recorded for a target.
func (r *PgxTransactionRepository) FindReleaseTransaction(ctx context.Context, targetID string) (*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE related_target_id = $1
		  AND transaction_type IN ('goal_release', 'group_release')
		  AND status = 'completed'
		ORDER BY created_at DESC
		LIMIT 1;
	`
	return scanTransaction(r.Pool.QueryRow(ctx, query, targetID))
}

// ListTransactionsByWallet returns a page of a wallet's transactions, newest
// first. The cursor is the (created_at, transaction_id) pair of the last row.
func (r *PgxTransactionRepository) ListTransactionsByWallet(ctx context.Context, walletID string, filter portsrepo.TransactionFilter) ([]domain.Transaction, *string, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE wallet_id = $1`
	args := []any{walletID}

	if filter.NextToken != nil && *filter.NextToken != "" {
		createdAt, id, err := pagination.DecodeToken(*filter.NextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		args = append(args, createdAt, id)
		query += ` AND (created_at, transaction_id) < ($` + strconv.Itoa(len(args)-1) + `, $` + strconv.Itoa(len(args)) + `)`
	}
	if filter.Type != nil {
		args = append(args, string(*filter.Type))
		query += ` AND transaction_type = $` + strconv.Itoa(len(args))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += ` AND created_at >= $` + strconv.Itoa(len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += ` AND created_at <= $` + strconv.Itoa(len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += ` AND description ILIKE $` + strconv.Itoa(len(args))
	}

	// Fetch one extra row to know whether another page exists.
	args = append(args, limit+1)
	query += ` ORDER BY created_at DESC, transaction_id DESC LIMIT $` + strconv.Itoa(len(args)) + `;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list transactions for wallet %s: %w", walletID, err)
	}
	defer rows.Close()

	txns := make([]domain.Transaction, 0, limit)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, nil, err
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read transaction rows: %w", err)
	}

	var nextToken *string
	if len(txns) > limit {
		txns = txns[:limit]
		last := txns[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.TransactionID)
		nextToken = &token
	}
	return txns, nextToken, nil
}
