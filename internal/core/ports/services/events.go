package services

import (
	"context"
	"time"
)

// TransactionEvent is the message published when a transaction reaches a final
// status. The notification service (an external collaborator) consumes these.
type TransactionEvent struct {
	TransactionID string    `json:"transactionID"`
	WalletID      string    `json:"walletID"`
	OwnerID       string    `json:"ownerID"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	Amount        int64     `json:"amount"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// TransactionPublisher publishes transaction lifecycle events. Publishing is
// best-effort: a failure is logged by the caller and never affects ledger state.
type TransactionPublisher interface {
	PublishTransaction(ctx context.Context, event TransactionEvent) error
	Close() error
}
