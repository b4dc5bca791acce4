package dto

import (
	"time"

	"github.com/savecircle/savecircle-backend/internal/core/domain"
)

// ListTransactionsParams are the query parameters for the transaction history
// endpoint. All filters are optional.
type ListTransactionsParams struct {
	Limit     int        `form:"limit,default=20" binding:"omitempty,gt=0,lte=100"`
	NextToken *string    `form:"nextToken"`
	Type      *string    `form:"type" binding:"omitempty,oneof=deposit withdrawal contribution goal_release group_release fee"`
	Status    *string    `form:"status" binding:"omitempty,oneof=pending completed failed needs_reconciliation"`
	From      *time.Time `form:"from" time_format:"2006-01-02"`
	To        *time.Time `form:"to" time_format:"2006-01-02"`
	Search    string     `form:"search"`
}

// TransactionResponse is the API view of a ledger transaction.
type TransactionResponse struct {
	TransactionID   string     `json:"transactionID"`
	WalletID        string     `json:"walletID"`
	Type            string     `json:"type"`
	Amount          int64      `json:"amount"`
	Fee             int64      `json:"fee"`
	Status          string     `json:"status"`
	Reference       *string    `json:"reference,omitempty"`
	RelatedTargetID *string    `json:"relatedTargetID,omitempty"`
	Description     string     `json:"description"`
	FailureReason   string     `json:"failureReason,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
}

// ListTransactionsResponse is a page of transactions plus the cursor for the
// next page, nil when there is none.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// ToTransactionResponse converts a domain.Transaction to its API representation.
func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:   t.TransactionID,
		WalletID:        t.WalletID,
		Type:            string(t.Type),
		Amount:          t.Amount,
		Fee:             t.Fee,
		Status:          string(t.Status),
		Reference:       t.Reference,
		RelatedTargetID: t.RelatedTargetID,
		Description:     t.Description,
		FailureReason:   t.FailureReason,
		CreatedAt:       t.CreatedAt,
		CompletedAt:     t.CompletedAt,
	}
}

// ToTransactionResponses converts a slice of domain transactions.
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	res := make([]TransactionResponse, len(txns))
	for i := range txns {
		res[i] = ToTransactionResponse(&txns[i])
	}
	return res
}
