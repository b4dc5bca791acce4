package domain

import "time"

// TransactionType classifies a balance-affecting event.
type TransactionType string

const (
	TxnDeposit      TransactionType = "deposit"
	TxnWithdrawal   TransactionType = "withdrawal"
	TxnContribution TransactionType = "contribution"
	TxnGoalRelease  TransactionType = "goal_release"
	TxnGroupRelease TransactionType = "group_release"
	TxnFee          TransactionType = "fee"
)

// TransactionStatus is the settlement state of a transaction.
type TransactionStatus string

const (
	TxnPending   TransactionStatus = "pending"
	TxnCompleted TransactionStatus = "completed"
	TxnFailed    TransactionStatus = "failed"
	// TxnNeedsReconciliation marks a transaction whose compensation could not
	// complete. Funds may be out of place; administrative tooling picks these up.
	TxnNeedsReconciliation TransactionStatus = "needs_reconciliation"
)

// Transaction is an immutable record of a single balance-affecting event.
// Amount is signed: credits are positive, debits negative. A completed or failed
// transaction is never edited; corrections are recorded as new transactions.
type Transaction struct {
	TransactionID string            `json:"transactionID"`
	WalletID      string            `json:"walletID"`
	Type          TransactionType   `json:"type"`
	Amount        int64             `json:"amount"` // signed, minor units; includes fee for withdrawals
	Fee           int64             `json:"fee"`    // informational split of Amount, >= 0
	Status        TransactionStatus `json:"status"`
	// Reference is the external idempotency key (gateway reference or
	// client-supplied key). Unique across all transactions when present.
	Reference       *string    `json:"reference,omitempty"`
	RelatedTargetID *string    `json:"relatedTargetID,omitempty"` // goal/group this moves money for
	Description     string     `json:"description"`
	FailureReason   string     `json:"failureReason,omitempty"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	AuditFields
}

// IsFinal reports whether the transaction has reached a terminal status.
func (t *Transaction) IsFinal() bool {
	return t.Status == TxnCompleted || t.Status == TxnFailed
}

// ReleaseTypeFor maps a savings target kind to its release transaction type.
func ReleaseTypeFor(kind TargetKind) TransactionType {
	if kind == TargetGroup {
		return TxnGroupRelease
	}
	return TxnGoalRelease
}
