package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/savecircle/savecircle-backend/internal/adapters/gateway/paystack"
	"github.com/savecircle/savecircle-backend/internal/apperrors"
	portssvc "github.com/savecircle/savecircle-backend/internal/core/ports/services"
	"github.com/savecircle/savecircle-backend/internal/dto"
	"github.com/savecircle/savecircle-backend/internal/middleware"
)

// webhookHandler receives payment gateway callbacks. The gateway retries until
// it gets a 2xx, so every recognized event is acknowledged with 200 even when
// it turns out to be a duplicate.
type webhookHandler struct {
	walletService portssvc.WalletSvcFacade
	secretKey     string
}

// newWebhookHandler creates a new webhookHandler.
func newWebhookHandler(ws portssvc.WalletSvcFacade, secretKey string) *webhookHandler {
	return &webhookHandler{walletService: ws, secretKey: secretKey}
}

// registerWebhookRoutes registers the public gateway callback endpoint.
// Authenticity comes from the HMAC signature, not from a bearer token.
func registerWebhookRoutes(r *gin.Engine, ws portssvc.WalletSvcFacade, secretKey string) {
	h := newWebhookHandler(ws, secretKey)
	r.POST("/webhooks/paystack", h.handlePaystackEvent)
}

// handlePaystackEvent godoc
// @Summary Paystack webhook callback
// @Description Verifies the HMAC-SHA512 signature over the raw body and settles the referenced deposit
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Unreadable body"
// @Failure 401 {object} map[string]string "Bad signature"
// @Router /webhooks/paystack [post]
func (h *webhookHandler) handlePaystackEvent(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read body"})
		return
	}

	signature := c.GetHeader("x-paystack-signature")
	if !paystack.VerifySignature(h.secretKey, signature, body) {
		logger.Warn("Webhook signature verification failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var event dto.GatewayWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		logger.Warn("Failed to decode webhook payload", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if event.Event != "charge.success" {
		// Other event kinds are acknowledged and ignored.
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	logger.Info("Received charge.success webhook", slog.String("reference", event.Data.Reference))

	txn, err := h.walletService.ConfirmDeposit(c.Request.Context(), event.Data.Reference)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			// No pending transaction knows this reference; nothing to settle.
			logger.Warn("Webhook reference matches no transaction", slog.String("reference", event.Data.Reference))
			c.JSON(http.StatusOK, gin.H{"status": "unknown reference"})
		case errors.Is(err, apperrors.ErrGatewayVerification):
			// Verification disagreed with the event; the transaction is failed or
			// still pending. Acknowledge so the gateway stops retrying.
			logger.Warn("Webhook settlement did not complete", slog.String("reference", event.Data.Reference), slog.String("error", err.Error()))
			c.JSON(http.StatusOK, gin.H{"status": "not settled"})
		default:
			// Transient failure: a non-2xx makes the gateway redeliver later.
			logger.Error("Webhook settlement failed", slog.String("reference", event.Data.Reference), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "settlement failed"})
		}
		return
	}

	logger.Info("Webhook settled deposit", slog.String("transaction_id", txn.TransactionID), slog.String("status", string(txn.Status)))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
