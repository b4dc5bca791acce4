package models

// SavingsTarget is the persisted ledger view of a savings goal or group.
type SavingsTarget struct {
	TargetID          string `db:"target_id"`
	Kind              string `db:"kind"`
	OwnerID           string `db:"owner_id"`
	TargetAmount      int64  `db:"target_amount"`
	AccumulatedAmount int64  `db:"accumulated_amount"`
	FundsReleased     bool   `db:"funds_released"`
	AuditFields
}
