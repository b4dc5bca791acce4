package domain

// TargetKind distinguishes individual savings goals from shared savings groups.
// The ledger treats both uniformly; their wider lifecycle is owned elsewhere.
type TargetKind string

const (
	TargetGoal  TargetKind = "goal"
	TargetGroup TargetKind = "group"
)

// SavingsTarget is the ledger's view of a savings goal or group. The ledger only
// reads TargetAmount/AccumulatedAmount and writes AccumulatedAmount (on
// contribution) and FundsReleased (on release); everything else about goals and
// groups lives outside this service.
type SavingsTarget struct {
	TargetID          string     `json:"targetID"`
	Kind              TargetKind `json:"kind"`
	OwnerID           string     `json:"ownerID"`
	TargetAmount      int64      `json:"targetAmount"`      // minor units
	AccumulatedAmount int64      `json:"accumulatedAmount"` // minor units, only grows via completed contributions
	FundsReleased     bool       `json:"fundsReleased"`     // transitions false->true exactly once
	AuditFields
}
