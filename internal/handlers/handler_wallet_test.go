package handlers_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/savecircle/savecircle-backend/internal/apperrors"
	"github.com/savecircle/savecircle-backend/internal/core/domain"
	portssvc "github.com/savecircle/savecircle-backend/internal/core/ports/services"
	"github.com/savecircle/savecircle-backend/internal/core/services"
	"github.com/savecircle/savecircle-backend/internal/dto"
	"github.com/savecircle/savecircle-backend/internal/handlers"
	"github.com/savecircle/savecircle-backend/internal/platform/config"
)

// --- Mock WalletService ---
type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) GetWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletService) InitializeDeposit(ctx context.Context, userID string, req dto.InitializeDepositRequest) (*dto.InitializeDepositResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.InitializeDepositResponse), args.Error(1)
}

func (m *MockWalletService) AddFunds(ctx context.Context, userID string, req dto.AddFundsRequest) (*domain.Transaction, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockWalletService) ConfirmDeposit(ctx context.Context, reference string) (*domain.Transaction, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockWalletService) ListTransactions(ctx context.Context, userID string, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	args := m.Called(ctx, userID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListTransactionsResponse), args.Error(1)
}

var _ portssvc.WalletSvcFacade = (*MockWalletService)(nil)

// --- Mock ContributionService ---
type MockContributionService struct {
	mock.Mock
}

func (m *MockContributionService) Contribute(ctx context.Context, userID string, kind domain.TargetKind, req dto.ContributeRequest) (*domain.Transaction, error) {
	args := m.Called(ctx, userID, kind, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

var _ portssvc.ContributionSvcFacade = (*MockContributionService)(nil)

// --- Mock ReleaseService ---
type MockReleaseService struct {
	mock.Mock
}

func (m *MockReleaseService) Release(ctx context.Context, userID string, kind domain.TargetKind, targetID string) (*domain.Transaction, error) {
	args := m.Called(ctx, userID, kind, targetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

var _ portssvc.ReleaseSvcFacade = (*MockReleaseService)(nil)

// --- Mock WithdrawalService ---
type MockWithdrawalService struct {
	mock.Mock
}

func (m *MockWithdrawalService) RequestWithdrawal(ctx context.Context, userID string, req dto.WithdrawRequest) (*domain.WithdrawalRequest, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalService) Approve(ctx context.Context, reviewerID string, transactionID string) (*domain.WithdrawalRequest, error) {
	args := m.Called(ctx, reviewerID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalService) Reject(ctx context.Context, reviewerID string, transactionID string, reason string) (*domain.WithdrawalRequest, error) {
	args := m.Called(ctx, reviewerID, transactionID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WithdrawalRequest), args.Error(1)
}

var _ portssvc.WithdrawalSvcFacade = (*MockWithdrawalService)(nil)

// --- Test Suite Setup ---

const testJWTSecret = "test-secret"
const testPaystackSecret = "sk_test_secret"

type WalletHandlerTestSuite struct {
	suite.Suite
	router           *gin.Engine
	mockWallet       *MockWalletService
	mockContribution *MockContributionService
	mockRelease      *MockReleaseService
	mockWithdrawal   *MockWithdrawalService

	userID string
}

func (suite *WalletHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	suite.mockWallet = new(MockWalletService)
	suite.mockContribution = new(MockContributionService)
	suite.mockRelease = new(MockReleaseService)
	suite.mockWithdrawal = new(MockWithdrawalService)
	suite.userID = uuid.NewString()

	svc := &services.Container{
		Wallet:       suite.mockWallet,
		Contribution: suite.mockContribution,
		Release:      suite.mockRelease,
		Withdrawal:   suite.mockWithdrawal,
	}
	cfg := &config.Config{
		JWTSecret:         testJWTSecret,
		PaystackSecretKey: testPaystackSecret,
		IsProduction:      true,
	}

	suite.router = gin.New()
	noopRateLimit := func(c *gin.Context) { c.Next() }
	handlers.RegisterRoutes(suite.router, cfg, svc, noopRateLimit)
}

func (suite *WalletHandlerTestSuite) tokenFor(userID, role string) string {
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	if role != "" {
		claims["role"] = role
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	suite.Require().NoError(err)
	return signed
}

func (suite *WalletHandlerTestSuite) doJSON(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

// --- Test Cases ---

func (suite *WalletHandlerTestSuite) TestGetWallet_Unauthorized() {
	w := suite.doJSON(http.MethodGet, "/api/v1/wallet", "", nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *WalletHandlerTestSuite) TestGetWallet_Success() {
	wallet := &domain.Wallet{
		WalletID:     uuid.NewString(),
		OwnerID:      suite.userID,
		Balance:      4200,
		CurrencyCode: "NGN",
		Status:       domain.WalletActive,
	}
	suite.mockWallet.On("GetWallet", mock.Anything, suite.userID).Return(wallet, nil).Once()

	w := suite.doJSON(http.MethodGet, "/api/v1/wallet", suite.tokenFor(suite.userID, ""), nil)

	suite.Equal(http.StatusOK, w.Code)
	var res dto.WalletResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
	suite.Equal(int64(4200), res.Balance)
	suite.mockWallet.AssertExpectations(suite.T())
}

func (suite *WalletHandlerTestSuite) TestAddFunds_InsufficientFundsMapsTo422() {
	suite.mockContribution.On("Contribute", mock.Anything, suite.userID, domain.TargetGoal, mock.Anything).
		Return(nil, apperrors.ErrInsufficientFunds).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/wallet/contribute/goal", suite.tokenFor(suite.userID, ""), dto.ContributeRequest{
		TargetID: uuid.NewString(),
		Amount:   100,
	})

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (suite *WalletHandlerTestSuite) TestAddFunds_GatewayErrorMapsTo502() {
	suite.mockWallet.On("AddFunds", mock.Anything, suite.userID, mock.Anything).
		Return(nil, apperrors.ErrGatewayVerification).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/wallet/add", suite.tokenFor(suite.userID, ""), dto.AddFundsRequest{
		Amount:    100,
		Reference: "ref",
	})

	suite.Equal(http.StatusBadGateway, w.Code)
}

func (suite *WalletHandlerTestSuite) TestAddFunds_MissingReferenceRejected() {
	w := suite.doJSON(http.MethodPost, "/api/v1/wallet/add", suite.tokenFor(suite.userID, ""), map[string]any{
		"amount": 100,
	})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockWallet.AssertNotCalled(suite.T(), "AddFunds", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *WalletHandlerTestSuite) TestReleaseFunds_ForbiddenMapsTo403() {
	targetID := uuid.NewString()
	suite.mockRelease.On("Release", mock.Anything, suite.userID, domain.TargetGroup, targetID).
		Return(nil, apperrors.ErrForbidden).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/wallet/release-group-funds", suite.tokenFor(suite.userID, ""), dto.ReleaseFundsRequest{
		TargetID: targetID,
	})

	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *WalletHandlerTestSuite) TestApproveWithdrawal_NonAdminForbidden() {
	w := suite.doJSON(http.MethodPost, "/api/v1/wallet/approve-withdrawal", suite.tokenFor(suite.userID, ""), dto.ApproveWithdrawalRequest{
		TransactionID: uuid.NewString(),
	})

	suite.Equal(http.StatusForbidden, w.Code)
	suite.mockWithdrawal.AssertNotCalled(suite.T(), "Approve", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *WalletHandlerTestSuite) TestRejectWithdrawal_AdminAllowed() {
	txnID := uuid.NewString()
	request := &domain.WithdrawalRequest{
		RequestID:       uuid.NewString(),
		TransactionID:   txnID,
		Status:          domain.WithdrawalRejected,
		RejectionReason: "name mismatch",
	}
	suite.mockWithdrawal.On("Reject", mock.Anything, suite.userID, txnID, "name mismatch").Return(request, nil).Once()

	w := suite.doJSON(http.MethodPost, "/api/v1/wallet/reject-withdrawal", suite.tokenFor(suite.userID, "admin"), dto.RejectWithdrawalRequest{
		TransactionID: txnID,
		Reason:        "name mismatch",
	})

	suite.Equal(http.StatusOK, w.Code)
	suite.mockWithdrawal.AssertExpectations(suite.T())
}

func (suite *WalletHandlerTestSuite) TestWebhook_BadSignatureRejected() {
	body := []byte(`{"event":"charge.success","data":{"reference":"ref1"}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", bytes.NewReader(body))
	req.Header.Set("x-paystack-signature", "deadbeef")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.mockWallet.AssertNotCalled(suite.T(), "ConfirmDeposit", mock.Anything, mock.Anything)
}

func (suite *WalletHandlerTestSuite) TestWebhook_ValidSignatureSettlesDeposit() {
	body := []byte(`{"event":"charge.success","data":{"reference":"ref1","status":"success","amount":10000}}`)
	mac := hmac.New(sha512.New, []byte(testPaystackSecret))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	completedAt := time.Now().UTC()
	txn := &domain.Transaction{
		TransactionID: uuid.NewString(),
		Type:          domain.TxnDeposit,
		Amount:        10000,
		Status:        domain.TxnCompleted,
		CompletedAt:   &completedAt,
	}
	suite.mockWallet.On("ConfirmDeposit", mock.Anything, "ref1").Return(txn, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", bytes.NewReader(body))
	req.Header.Set("x-paystack-signature", signature)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
	suite.mockWallet.AssertExpectations(suite.T())
}

func (suite *WalletHandlerTestSuite) TestWebhook_OtherEventsAcknowledged() {
	body := []byte(`{"event":"transfer.success","data":{"reference":"trf1"}}`)
	mac := hmac.New(sha512.New, []byte(testPaystackSecret))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", bytes.NewReader(body))
	req.Header.Set("x-paystack-signature", signature)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
	suite.mockWallet.AssertNotCalled(suite.T(), "ConfirmDeposit", mock.Anything, mock.Anything)
}

func TestWalletHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(WalletHandlerTestSuite))
}
