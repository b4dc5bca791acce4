package models

import "time"

// WithdrawalRequest is the persisted review wrapper around one withdrawal
// transaction.
type WithdrawalRequest struct {
	RequestID         string     `db:"request_id"`
	TransactionID     string     `db:"transaction_id"`
	WalletID          string     `db:"wallet_id"`
	Amount            int64      `db:"amount"`
	Fee               int64      `db:"fee"`
	BankName          string     `db:"bank_name"`
	AccountName       string     `db:"account_name"`
	AccountNumber     string     `db:"account_number"`
	Status            string     `db:"status"`
	ReviewedBy        *string    `db:"reviewed_by"`
	ReviewedAt        *time.Time `db:"reviewed_at"`
	RejectionReason   string     `db:"rejection_reason"`
	TransferReference *string    `db:"transfer_reference"`
	AuditFields
}
