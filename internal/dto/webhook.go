package dto

// GatewayWebhookEvent is the payload the payment gateway posts to our callback
// endpoint. Only the fields the ledger needs are decoded.
type GatewayWebhookEvent struct {
	Event string                  `json:"event"`
	Data  GatewayWebhookEventData `json:"data"`
}

// GatewayWebhookEventData carries the reference/status/amount triple for the
// charge the event describes. Amount is in minor units, matching the gateway.
type GatewayWebhookEventData struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
}
