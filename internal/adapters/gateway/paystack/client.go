package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	portssvc "github.com/savecircle/savecircle-backend/internal/core/ports/services"
	"github.com/savecircle/savecircle-backend/internal/platform/metrics"
)

// Client talks to the Paystack REST API. Every call carries a request timeout
// and a bounded retry budget; amounts cross the wire in minor units, matching
// the ledger, so no conversion happens here.
type Client struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
	maxRetries uint64
}

// NewClient creates a Paystack API client.
func NewClient(secretKey, baseURL string, timeout time.Duration, maxRetries uint64) (*Client, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("paystack secret key is not set")
	}
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	return &Client{
		secretKey:  secretKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
	}, nil
}

var _ portssvc.PaymentGateway = (*Client)(nil)

type apiResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// doRequest executes one API call with exponential backoff on transport errors
// and 5xx responses. 4xx responses are not retried; the gateway has already
// made up its mind.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body any) (*apiResponse, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	operation := func() (*apiResponse, error) {
		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+c.secretKey)
		req.Header.Set("Content-Type", "application/json")

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		metrics.GatewayDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.GatewayCalls.WithLabelValues(endpoint, "error").Inc()
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			metrics.GatewayCalls.WithLabelValues(endpoint, "error").Inc()
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode >= 500 {
			metrics.GatewayCalls.WithLabelValues(endpoint, "server_error").Inc()
			return nil, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(respBody))
		}
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			metrics.GatewayCalls.WithLabelValues(endpoint, "client_error").Inc()
			return nil, backoff.Permanent(fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(respBody)))
		}

		var res apiResponse
		if err := json.Unmarshal(respBody, &res); err != nil {
			metrics.GatewayCalls.WithLabelValues(endpoint, "error").Inc()
			return nil, backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		if !res.Status {
			metrics.GatewayCalls.WithLabelValues(endpoint, "rejected").Inc()
			return nil, backoff.Permanent(fmt.Errorf("gateway rejected request: %s", res.Message))
		}
		metrics.GatewayCalls.WithLabelValues(endpoint, "ok").Inc()
		return &res, nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	return backoff.RetryWithData(operation, policy)
}

// Initialize starts a hosted checkout for the given amount.
func (c *Client) Initialize(ctx context.Context, req portssvc.GatewayInitRequest) (*portssvc.GatewayAuthorization, error) {
	form := map[string]any{
		"amount":   req.Amount,
		"currency": req.Currency,
		"email":    req.Email,
	}
	if len(req.Metadata) > 0 {
		form["metadata"] = req.Metadata
	}

	res, err := c.doRequest(ctx, http.MethodPost, "/transaction/initialize", form)
	if err != nil {
		return nil, fmt.Errorf("initialize payment: %w", err)
	}

	var data struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	if err := json.Unmarshal(res.Data, &data); err != nil {
		return nil, fmt.Errorf("decode initialize response: %w", err)
	}
	return &portssvc.GatewayAuthorization{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

// Verify fetches the gateway's view of a charge by reference.
func (c *Client) Verify(ctx context.Context, reference string) (*portssvc.GatewayVerification, error) {
	if reference == "" {
		return nil, fmt.Errorf("reference cannot be empty")
	}

	res, err := c.doRequest(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		return nil, fmt.Errorf("verify payment %s: %w", reference, err)
	}

	var data struct {
		Status   string `json:"status"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(res.Data, &data); err != nil {
		return nil, fmt.Errorf("decode verify response: %w", err)
	}
	return &portssvc.GatewayVerification{
		Status:   normalizeStatus(data.Status),
		Amount:   data.Amount,
		Currency: data.Currency,
	}, nil
}

// Transfer executes a payout: create a transfer recipient for the bank
// account, then initiate the transfer against it.
func (c *Client) Transfer(ctx context.Context, req portssvc.GatewayTransferRequest) (*portssvc.GatewayTransfer, error) {
	recipientForm := map[string]any{
		"type":           "nuban",
		"name":           req.BankAccount.AccountName,
		"account_number": req.BankAccount.AccountNumber,
		"bank_code":      req.BankAccount.BankName,
		"currency":       req.Currency,
	}
	recRes, err := c.doRequest(ctx, http.MethodPost, "/transferrecipient", recipientForm)
	if err != nil {
		return nil, fmt.Errorf("create transfer recipient: %w", err)
	}
	var recipient struct {
		RecipientCode string `json:"recipient_code"`
	}
	if err := json.Unmarshal(recRes.Data, &recipient); err != nil {
		return nil, fmt.Errorf("decode recipient response: %w", err)
	}

	transferForm := map[string]any{
		"source":    "balance",
		"amount":    req.Amount,
		"recipient": recipient.RecipientCode,
		"reason":    req.Reason,
	}
	res, err := c.doRequest(ctx, http.MethodPost, "/transfer", transferForm)
	if err != nil {
		return nil, fmt.Errorf("initiate transfer: %w", err)
	}

	var data struct {
		TransferCode string `json:"transfer_code"`
		Reference    string `json:"reference"`
	}
	if err := json.Unmarshal(res.Data, &data); err != nil {
		return nil, fmt.Errorf("decode transfer response: %w", err)
	}
	return &portssvc.GatewayTransfer{
		TransferCode: data.TransferCode,
		Reference:    data.Reference,
	}, nil
}

// normalizeStatus maps Paystack charge statuses onto the three the ledger
// understands.
func normalizeStatus(status string) string {
	switch status {
	case "success":
		return portssvc.GatewayStatusSuccess
	case "pending", "ongoing", "processing", "queued":
		return portssvc.GatewayStatusPending
	default:
		return portssvc.GatewayStatusFailed
	}
}
