package dto

import (
	"time"

	"github.com/savecircle/savecircle-backend/internal/core/domain"
)

// InitializeDepositRequest starts a gateway checkout for funding a wallet.
type InitializeDepositRequest struct {
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Email       string `json:"email" binding:"required,email"`
	Description string `json:"description"`
}

// InitializeDepositResponse returns the gateway checkout handle to the client.
type InitializeDepositResponse struct {
	AuthorizationURL string `json:"authorizationUrl"`
	Reference        string `json:"reference"`
}

// AddFundsRequest confirms a gateway-funded deposit. The reference is the
// gateway (or client idempotency) reference and is consumed at most once.
type AddFundsRequest struct {
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Reference   string `json:"reference" binding:"required"`
	Description string `json:"description"`
}

// WalletResponse is the API view of a wallet.
type WalletResponse struct {
	WalletID     string    `json:"walletID"`
	Balance      int64     `json:"balance"`
	CurrencyCode string    `json:"currencyCode"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ToWalletResponse converts a domain.Wallet to its API representation.
func ToWalletResponse(w *domain.Wallet) WalletResponse {
	return WalletResponse{
		WalletID:     w.WalletID,
		Balance:      w.Balance,
		CurrencyCode: w.CurrencyCode,
		Status:       string(w.Status),
		CreatedAt:    w.CreatedAt,
	}
}
