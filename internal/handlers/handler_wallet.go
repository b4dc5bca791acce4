package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/savecircle/savecircle-backend/internal/apperrors"
	"github.com/savecircle/savecircle-backend/internal/core/domain"
	portssvc "github.com/savecircle/savecircle-backend/internal/core/ports/services"
	"github.com/savecircle/savecircle-backend/internal/dto"
	"github.com/savecircle/savecircle-backend/internal/middleware"
)

// walletHandler handles HTTP requests for wallet reads and fund movement.
type walletHandler struct {
	walletService       portssvc.WalletSvcFacade
	contributionService portssvc.ContributionSvcFacade
	releaseService      portssvc.ReleaseSvcFacade
	withdrawalService   portssvc.WithdrawalSvcFacade
}

// newWalletHandler creates a new walletHandler.
func newWalletHandler(
	ws portssvc.WalletSvcFacade,
	cs portssvc.ContributionSvcFacade,
	rs portssvc.ReleaseSvcFacade,
	wds portssvc.WithdrawalSvcFacade,
) *walletHandler {
	return &walletHandler{
		walletService:       ws,
		contributionService: cs,
		releaseService:      rs,
		withdrawalService:   wds,
	}
}

// registerWalletRoutes registers routes for wallet reads and fund movement.
func registerWalletRoutes(rg *gin.RouterGroup, h *walletHandler, rateLimit gin.HandlerFunc) {
	wallet := rg.Group("/wallet")
	{
		wallet.GET("", h.getWallet)
		wallet.GET("/transactions", h.listTransactions)

		moving := wallet.Group("", rateLimit)
		{
			moving.POST("/fund", h.initializeDeposit)
			moving.POST("/add", h.addFunds)
			moving.POST("/contribute/goal", h.contributeGoal)
			moving.POST("/contribute/group", h.contributeGroup)
			moving.POST("/release-goal-funds", h.releaseGoalFunds)
			moving.POST("/release-group-funds", h.releaseGroupFunds)
			moving.POST("/withdraw", h.withdraw)
		}
	}
}

// respondServiceError maps service errors onto HTTP statuses. Every
// fund-movement handler funnels through here so the mapping stays consistent.
func respondServiceError(c *gin.Context, err error) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	switch {
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInsufficientFunds):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrWalletFrozen):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrGatewayVerification):
		logger.Warn("Gateway error surfaced to client", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		logger.Error("Unhandled service error", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// getWallet godoc
// @Summary Get the caller's wallet
// @Description Returns the authenticated user's wallet, creating it with a zero balance on first access
// @Tags wallet
// @Produce json
// @Success 200 {object} dto.WalletResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /wallet [get]
func (h *walletHandler) getWallet(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	wallet, err := h.walletService.GetWallet(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToWalletResponse(wallet))
}

// initializeDeposit godoc
// @Summary Initialize a wallet funding checkout
// @Description Starts a payment gateway checkout and records the pending deposit it will settle
// @Tags wallet
// @Accept json
// @Produce json
// @Param request body dto.InitializeDepositRequest true "Funding details"
// @Success 200 {object} dto.InitializeDepositResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 502 {object} map[string]string "Gateway unavailable"
// @Security BearerAuth
// @Router /wallet/fund [post]
func (h *walletHandler) initializeDeposit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.InitializeDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for InitializeDeposit", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	res, err := h.walletService.InitializeDeposit(c.Request.Context(), userID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// addFunds godoc
// @Summary Confirm a gateway-funded deposit
// @Description Verifies the charge with the gateway and credits the wallet. Resubmitting the same reference returns the recorded outcome without a second credit.
// @Tags wallet
// @Accept json
// @Produce json
// @Param request body dto.AddFundsRequest true "Deposit confirmation"
// @Success 200 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 502 {object} map[string]string "Gateway verification failed"
// @Security BearerAuth
// @Router /wallet/add [post]
func (h *walletHandler) addFunds(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.AddFundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for AddFunds", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	txn, err := h.walletService.AddFunds(c.Request.Context(), userID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// listTransactions godoc
// @Summary List the caller's transactions
// @Description Returns a filtered, cursor-paginated page of the wallet's transaction history, newest first
// @Tags wallet
// @Produce json
// @Param limit query int false "Page size (default 20, max 100)"
// @Param nextToken query string false "Cursor from the previous page"
// @Param type query string false "Filter by transaction type"
// @Param status query string false "Filter by status"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Param search query string false "Free-text match against descriptions"
// @Success 200 {object} dto.ListTransactionsResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Security BearerAuth
// @Router /wallet/transactions [get]
func (h *walletHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for ListTransactions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	res, err := h.walletService.ListTransactions(c.Request.Context(), userID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// contributeGoal godoc
// @Summary Contribute to a savings goal
// @Description Moves funds from the caller's wallet into a savings goal
// @Tags contributions
// @Accept json
// @Produce json
// @Param request body dto.ContributeRequest true "Contribution details"
// @Success 200 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 409 {object} map[string]string "Goal funds already released"
// @Failure 422 {object} map[string]string "Insufficient funds"
// @Security BearerAuth
// @Router /wallet/contribute/goal [post]
func (h *walletHandler) contributeGoal(c *gin.Context) {
	h.contribute(c, domain.TargetGoal)
}

// contributeGroup godoc
// @Summary Contribute to a savings group
// @Description Moves funds from the caller's wallet into a savings group
// @Tags contributions
// @Accept json
// @Produce json
// @Param request body dto.ContributeRequest true "Contribution details"
// @Success 200 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 409 {object} map[string]string "Group funds already released"
// @Failure 422 {object} map[string]string "Insufficient funds"
// @Security BearerAuth
// @Router /wallet/contribute/group [post]
func (h *walletHandler) contributeGroup(c *gin.Context) {
	h.contribute(c, domain.TargetGroup)
}

func (h *walletHandler) contribute(c *gin.Context, kind domain.TargetKind) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Contribute", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	txn, err := h.contributionService.Contribute(c.Request.Context(), userID, kind, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// releaseGoalFunds godoc
// @Summary Release a savings goal's funds
// @Description Credits the goal's accumulated contributions to the owner's wallet, exactly once
// @Tags contributions
// @Accept json
// @Produce json
// @Param request body dto.ReleaseFundsRequest true "Goal to release"
// @Success 200 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Nothing to release"
// @Failure 403 {object} map[string]string "Caller does not own the goal"
// @Security BearerAuth
// @Router /wallet/release-goal-funds [post]
func (h *walletHandler) releaseGoalFunds(c *gin.Context) {
	h.releaseFunds(c, domain.TargetGoal)
}

// releaseGroupFunds godoc
// @Summary Release a savings group's funds
// @Description Credits the group's accumulated contributions to the owner's wallet, exactly once
// @Tags contributions
// @Accept json
// @Produce json
// @Param request body dto.ReleaseFundsRequest true "Group to release"
// @Success 200 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Nothing to release"
// @Failure 403 {object} map[string]string "Caller does not own the group"
// @Security BearerAuth
// @Router /wallet/release-group-funds [post]
func (h *walletHandler) releaseGroupFunds(c *gin.Context) {
	h.releaseFunds(c, domain.TargetGroup)
}

func (h *walletHandler) releaseFunds(c *gin.Context, kind domain.TargetKind) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.ReleaseFundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ReleaseFunds", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	txn, err := h.releaseService.Release(c.Request.Context(), userID, kind, req.TargetID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// withdraw godoc
// @Summary Request a withdrawal to a bank account
// @Description Debits the amount plus fee into escrow and parks the request for review
// @Tags withdrawals
// @Accept json
// @Produce json
// @Param request body dto.WithdrawRequest true "Withdrawal details"
// @Success 202 {object} dto.WithdrawalResponse
// @Failure 400 {object} map[string]string "Invalid input or bank account"
// @Failure 422 {object} map[string]string "Insufficient funds"
// @Security BearerAuth
// @Router /wallet/withdraw [post]
func (h *walletHandler) withdraw(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req dto.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Withdraw", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	request, err := h.withdrawalService.RequestWithdrawal(c.Request.Context(), userID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.ToWithdrawalResponse(request))
}
