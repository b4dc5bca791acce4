package domain

// WalletStatus is the lifecycle state of a wallet.
type WalletStatus string

const (
	WalletActive WalletStatus = "active"
	WalletFrozen WalletStatus = "frozen"
)

// Wallet is the custodial balance record owned by exactly one user.
// Balances are integer minor currency units (kobo for NGN); arithmetic on them
// never touches floating point. Wallets are created lazily on the owner's first
// financial action and are never hard-deleted.
type Wallet struct {
	WalletID     string       `json:"walletID"`
	OwnerID      string       `json:"ownerID"` // 1:1 with a user
	Balance      int64        `json:"balance"` // minor units, sum of completed transaction amounts
	CurrencyCode string       `json:"currencyCode"`
	Status       WalletStatus `json:"status"`
	AuditFields
}

// IsActive reports whether the wallet may participate in fund movements.
func (w *Wallet) IsActive() bool {
	return w.Status == WalletActive
}
