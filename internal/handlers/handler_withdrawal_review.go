package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/savecircle/savecircle-backend/internal/core/ports/services"
	"github.com/savecircle/savecircle-backend/internal/dto"
	"github.com/savecircle/savecircle-backend/internal/middleware"
)

// withdrawalReviewHandler handles the privileged review actions on withdrawal
// requests.
type withdrawalReviewHandler struct {
	withdrawalService portssvc.WithdrawalSvcFacade
}

// newWithdrawalReviewHandler creates a new withdrawalReviewHandler.
func newWithdrawalReviewHandler(ws portssvc.WithdrawalSvcFacade) *withdrawalReviewHandler {
	return &withdrawalReviewHandler{withdrawalService: ws}
}

// registerWithdrawalReviewRoutes registers the admin-only review routes.
func registerWithdrawalReviewRoutes(rg *gin.RouterGroup, ws portssvc.WithdrawalSvcFacade) {
	h := newWithdrawalReviewHandler(ws)

	review := rg.Group("/wallet", middleware.RequireAdmin())
	{
		review.POST("/approve-withdrawal", h.approveWithdrawal)
		review.POST("/reject-withdrawal", h.rejectWithdrawal)
	}
}

// approveWithdrawal godoc
// @Summary Approve a pending withdrawal
// @Description Moves the request to processing and executes the gateway payout. A payout failure credits the escrow back.
// @Tags admin
// @Accept json
// @Produce json
// @Param request body dto.ApproveWithdrawalRequest true "Withdrawal to approve"
// @Success 200 {object} dto.WithdrawalResponse
// @Failure 403 {object} map[string]string "Caller is not an admin"
// @Failure 404 {object} map[string]string "No such withdrawal"
// @Failure 409 {object} map[string]string "Request is not pending review"
// @Failure 502 {object} map[string]string "Gateway payout failed, escrow credited back"
// @Security BearerAuth
// @Router /wallet/approve-withdrawal [post]
func (h *withdrawalReviewHandler) approveWithdrawal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	reviewerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.ApproveWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ApproveWithdrawal", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	request, err := h.withdrawalService.Approve(c.Request.Context(), reviewerID, req.TransactionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToWithdrawalResponse(request))
}

// rejectWithdrawal godoc
// @Summary Reject a pending withdrawal
// @Description Rejects the request and credits the escrowed amount plus fee back to the wallet
// @Tags admin
// @Accept json
// @Produce json
// @Param request body dto.RejectWithdrawalRequest true "Withdrawal to reject with reason"
// @Success 200 {object} dto.WithdrawalResponse
// @Failure 403 {object} map[string]string "Caller is not an admin"
// @Failure 404 {object} map[string]string "No such withdrawal"
// @Failure 409 {object} map[string]string "Request is not pending review"
// @Security BearerAuth
// @Router /wallet/reject-withdrawal [post]
func (h *withdrawalReviewHandler) rejectWithdrawal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	reviewerID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.RejectWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RejectWithdrawal", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	request, err := h.withdrawalService.Reject(c.Request.Context(), reviewerID, req.TransactionID, req.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToWithdrawalResponse(request))
}
