package dto

// ContributeRequest moves funds from the caller's wallet into a savings goal or
// group. The target kind comes from the route.
type ContributeRequest struct {
	TargetID    string `json:"targetId" binding:"required"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Description string `json:"description"`
}

// ReleaseFundsRequest asks for a goal/group's accumulated contributions to be
// released to its owner's wallet.
type ReleaseFundsRequest struct {
	TargetID string `json:"targetId" binding:"required"`
}
