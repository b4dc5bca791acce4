package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/savecircle/savecircle-backend/internal/apperrors"
	"github.com/savecircle/savecircle-backend/internal/core/domain"
	portsrepo "github.com/savecircle/savecircle-backend/internal/core/ports/repositories"
	"github.com/savecircle/savecircle-backend/internal/models"
)

type PgxWithdrawalRepository struct {
	BaseRepository
}

// newPgxWithdrawalRepository creates a new repository for withdrawal requests.
func newPgxWithdrawalRepository(pool *pgxpool.Pool) portsrepo.WithdrawalRepositoryFacade {
	return &PgxWithdrawalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxWithdrawalRepository implements portsrepo.WithdrawalRepositoryFacade
var _ portsrepo.WithdrawalRepositoryFacade = (*PgxWithdrawalRepository)(nil)

// Helper to convert domain.WithdrawalRequest to models.WithdrawalRequest for DB storage
func toModelWithdrawal(d domain.WithdrawalRequest) models.WithdrawalRequest {
	return models.WithdrawalRequest{
		RequestID:         d.RequestID,
		TransactionID:     d.TransactionID,
		WalletID:          d.WalletID,
		Amount:            d.Amount,
		Fee:               d.Fee,
		BankName:          d.BankAccount.BankName,
		AccountName:       d.BankAccount.AccountName,
		AccountNumber:     d.BankAccount.AccountNumber,
		Status:            string(d.Status),
		ReviewedBy:        d.ReviewedBy,
		ReviewedAt:        d.ReviewedAt,
		RejectionReason:   d.RejectionReason,
		TransferReference: d.TransferReference,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			CreatedBy:     d.CreatedBy,
			LastUpdatedAt: d.LastUpdatedAt,
			LastUpdatedBy: d.LastUpdatedBy,
		},
	}
}

// Helper to convert models.WithdrawalRequest from DB to domain.WithdrawalRequest
func toDomainWithdrawal(m models.WithdrawalRequest) domain.WithdrawalRequest {
	return domain.WithdrawalRequest{
		RequestID:     m.RequestID,
		TransactionID: m.TransactionID,
		WalletID:      m.WalletID,
		Amount:        m.Amount,
		Fee:           m.Fee,
		BankAccount: domain.BankAccount{
			BankName:      m.BankName,
			AccountName:   m.AccountName,
			AccountNumber: m.AccountNumber,
		},
		Status:            domain.WithdrawalApprovalStatus(m.Status),
		ReviewedBy:        m.ReviewedBy,
		ReviewedAt:        m.ReviewedAt,
		RejectionReason:   m.RejectionReason,
		TransferReference: m.TransferReference,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

// SaveWithdrawalRequest inserts a new withdrawal request.
func (r *PgxWithdrawalRepository) SaveWithdrawalRequest(ctx context.Context, req domain.WithdrawalRequest) error {
	m := toModelWithdrawal(req)
	query := `
		INSERT INTO withdrawal_requests (request_id, transaction_id, wallet_id, amount, fee, bank_name, account_name, account_number, status, reviewed_by, reviewed_at, rejection_reason, transfer_reference, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.RequestID,
		m.TransactionID,
		m.WalletID,
		m.Amount,
		m.Fee,
		m.BankName,
		m.AccountName,
		m.AccountNumber,
		m.Status,
		m.ReviewedBy,
		m.ReviewedAt,
		m.RejectionReason,
		m.TransferReference,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: withdrawal request for transaction %s already exists", apperrors.ErrDuplicate, m.TransactionID)
		}
		return fmt.Errorf("failed to save withdrawal request %s: %w", m.RequestID, err)
	}
	return nil
}

// FindWithdrawalByTransactionID retrieves the request wrapping a withdrawal transaction.
func (r *PgxWithdrawalRepository) FindWithdrawalByTransactionID(ctx context.Context, transactionID string) (*domain.WithdrawalRequest, error) {
	query := `
		SELECT request_id, transaction_id, wallet_id, amount, fee, bank_name, account_name, account_number, status, reviewed_by, reviewed_at, rejection_reason, transfer_reference, created_at, created_by, last_updated_at, last_updated_by
		FROM withdrawal_requests
		WHERE transaction_id = $1;
	`
	var m models.WithdrawalRequest
	err := r.Pool.QueryRow(ctx, query, transactionID).Scan(
		&m.RequestID,
		&m.TransactionID,
		&m.WalletID,
		&m.Amount,
		&m.Fee,
		&m.BankName,
		&m.AccountName,
		&m.AccountNumber,
		&m.Status,
		&m.ReviewedBy,
		&m.ReviewedAt,
		&m.RejectionReason,
		&m.TransferReference,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find withdrawal for transaction %s: %w", transactionID, err)
	}
	req := toDomainWithdrawal(m)
	return &req, nil
}

// TransitionStatus moves a request between approval statuses as one conditional
// update. Zero rows affected means the request was not in the expected status,
// which serializes concurrent reviewers.
func (r *PgxWithdrawalRepository) TransitionStatus(ctx context.Context, requestID string, from, to domain.WithdrawalApprovalStatus, review portsrepo.WithdrawalReview) error {
	query := `
		UPDATE withdrawal_requests
		SET status = $3,
		    reviewed_by = $4,
		    reviewed_at = $5,
		    rejection_reason = CASE WHEN $6 = '' THEN rejection_reason ELSE $6 END,
		    transfer_reference = COALESCE($7, transfer_reference),
		    last_updated_at = $5,
		    last_updated_by = $4
		WHERE request_id = $1 AND status = $2;
	`
	tag, err := r.Pool.Exec(ctx, query,
		requestID,
		string(from),
		string(to),
		review.ReviewerID,
		review.At,
		review.Reason,
		review.TransferReference,
	)
	if err != nil {
		return fmt.Errorf("failed to transition withdrawal %s from %s to %s: %w", requestID, from, to, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: withdrawal %s is not %s", apperrors.ErrConflict, requestID, from)
	}
	return nil
}
