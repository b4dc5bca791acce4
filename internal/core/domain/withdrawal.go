package domain

import "time"

// WithdrawalApprovalStatus tracks a withdrawal request through review and payout.
// Valid transitions:
//
//	pending_review -> approved -> processing -> completed
//	pending_review -> rejected
//	processing     -> rejected (gateway payout failure only)
type WithdrawalApprovalStatus string

const (
	WithdrawalPendingReview WithdrawalApprovalStatus = "pending_review"
	WithdrawalApproved      WithdrawalApprovalStatus = "approved"
	WithdrawalProcessing    WithdrawalApprovalStatus = "processing"
	WithdrawalCompleted     WithdrawalApprovalStatus = "completed"
	WithdrawalRejected      WithdrawalApprovalStatus = "rejected"
)

// WithdrawalRequest wraps exactly one withdrawal transaction with the payout
// destination and the review state. The wallet is debited (escrowed) the moment
// the request is accepted; rejection credits the escrow back.
type WithdrawalRequest struct {
	RequestID       string                   `json:"requestID"`
	TransactionID   string                   `json:"transactionID"`
	WalletID        string                   `json:"walletID"`
	Amount          int64                    `json:"amount"` // payout amount, minor units, excludes fee
	Fee             int64                    `json:"fee"`
	BankAccount     BankAccount              `json:"bankAccount"`
	Status          WithdrawalApprovalStatus `json:"status"`
	ReviewedBy      *string                  `json:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time               `json:"reviewedAt,omitempty"`
	RejectionReason string                   `json:"rejectionReason,omitempty"`
	// TransferReference is the gateway's reference for the executed payout.
	TransferReference *string `json:"transferReference,omitempty"`
	AuditFields
}

// CanReject reports whether the request may still be rejected by a reviewer.
// Once payout processing has started only the gateway outcome resolves it.
func (r *WithdrawalRequest) CanReject() bool {
	return r.Status == WithdrawalPendingReview
}

// CanApprove reports whether the request is awaiting review.
func (r *WithdrawalRequest) CanApprove() bool {
	return r.Status == WithdrawalPendingReview
}
