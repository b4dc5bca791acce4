package services

import (
	"context"

	"github.com/savecircle/savecircle-backend/internal/core/domain"
)

// Gateway verification statuses as the adapter normalizes them.
const (
	GatewayStatusSuccess = "success"
	GatewayStatusPending = "pending"
	GatewayStatusFailed  = "failed"
)

// GatewayInitRequest starts an off-platform checkout.
type GatewayInitRequest struct {
	Amount   int64 // minor units
	Currency string
	Email    string
	Purpose  string
	Metadata map[string]string
}

// GatewayAuthorization is the checkout handle the gateway hands back.
type GatewayAuthorization struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// GatewayVerification is the gateway's view of a charge.
type GatewayVerification struct {
	Status   string
	Amount   int64 // minor units
	Currency string
}

// GatewayTransferRequest executes a payout to a bank account.
type GatewayTransferRequest struct {
	Amount      int64 // minor units
	Currency    string
	BankAccount domain.BankAccount
	Reason      string
}

// GatewayTransfer identifies an executed payout.
type GatewayTransfer struct {
	TransferCode string
	Reference    string
}

// PaymentGateway is the port the ledger consumes for off-platform money
// movement. Implementations are expected to bound every call with a fixed
// timeout and a small retry budget; a hard failure is surfaced to the caller
// rather than retried indefinitely.
type PaymentGateway interface {
	Initialize(ctx context.Context, req GatewayInitRequest) (*GatewayAuthorization, error)
	Verify(ctx context.Context, reference string) (*GatewayVerification, error)
	Transfer(ctx context.Context, req GatewayTransferRequest) (*GatewayTransfer, error)
}
