package dto

import (
	"time"

	"github.com/savecircle/savecircle-backend/internal/core/domain"
)

// BankAccountRequest is the payout destination supplied with a withdrawal.
type BankAccountRequest struct {
	BankName      string `json:"bankName" binding:"required"`
	AccountName   string `json:"accountName" binding:"required"`
	AccountNumber string `json:"accountNumber" binding:"required,len=10,numeric"`
}

// WithdrawRequest submits a withdrawal-to-bank request. The wallet is debited
// (amount plus fee) immediately; the payout itself waits for review.
type WithdrawRequest struct {
	Amount      int64              `json:"amount" binding:"required,gt=0"`
	Description string             `json:"description"`
	BankAccount BankAccountRequest `json:"bankAccount" binding:"required"`
}

// ApproveWithdrawalRequest is the privileged approval action.
type ApproveWithdrawalRequest struct {
	TransactionID string `json:"transactionId" binding:"required"`
}

// RejectWithdrawalRequest is the privileged rejection action.
type RejectWithdrawalRequest struct {
	TransactionID string `json:"transactionId" binding:"required"`
	Reason        string `json:"reason" binding:"required"`
}

// WithdrawalResponse is the API view of a withdrawal request.
type WithdrawalResponse struct {
	RequestID       string     `json:"requestID"`
	TransactionID   string     `json:"transactionID"`
	Amount          int64      `json:"amount"`
	Fee             int64      `json:"fee"`
	Status          string     `json:"status"`
	BankName        string     `json:"bankName"`
	AccountName     string     `json:"accountName"`
	AccountNumber   string     `json:"accountNumber"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	ReviewedAt      *time.Time `json:"reviewedAt,omitempty"`
}

// ToWithdrawalResponse converts a domain.WithdrawalRequest to its API view.
func ToWithdrawalResponse(r *domain.WithdrawalRequest) WithdrawalResponse {
	return WithdrawalResponse{
		RequestID:       r.RequestID,
		TransactionID:   r.TransactionID,
		Amount:          r.Amount,
		Fee:             r.Fee,
		Status:          string(r.Status),
		BankName:        r.BankAccount.BankName,
		AccountName:     r.BankAccount.AccountName,
		AccountNumber:   r.BankAccount.AccountNumber,
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt,
		ReviewedAt:      r.ReviewedAt,
	}
}

// ToBankAccount converts the request DTO to the domain value.
func (b BankAccountRequest) ToBankAccount() domain.BankAccount {
	return domain.BankAccount{
		BankName:      b.BankName,
		AccountName:   b.AccountName,
		AccountNumber: b.AccountNumber,
	}
}
