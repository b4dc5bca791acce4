package models

// Wallet is the persisted custodial balance for one owner. Balance is in minor
// units; the balance_non_negative check constraint backs the application-level
// conditional updates.
type Wallet struct {
	WalletID     string `db:"wallet_id"`
	OwnerID      string `db:"owner_id"`
	Balance      int64  `db:"balance"`
	CurrencyCode string `db:"currency_code"`
	Status       string `db:"status"`
	AuditFields
}
