package models

import "time"

// Transaction is the persisted ledger entry. Reference carries the external
// idempotency key and is protected by a partial unique index.
type Transaction struct {
	TransactionID   string     `db:"transaction_id"`
	WalletID        string     `db:"wallet_id"`
	Type            string     `db:"transaction_type"`
	Amount          int64      `db:"amount"`
	Fee             int64      `db:"fee"`
	Status          string     `db:"status"`
	Reference       *string    `db:"reference"`
	RelatedTargetID *string    `db:"related_target_id"`
	Description     string     `db:"description"`
	FailureReason   string     `db:"failure_reason"`
	CompletedAt     *time.Time `db:"completed_at"`
	AuditFields
}
