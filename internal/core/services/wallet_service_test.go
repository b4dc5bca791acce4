package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/savecircle/savecircle-backend/internal/apperrors"
	"github.com/savecircle/savecircle-backend/internal/core/domain"
	portssvc "github.com/savecircle/savecircle-backend/internal/core/ports/services"
	"github.com/savecircle/savecircle-backend/internal/core/services"
	"github.com/savecircle/savecircle-backend/internal/dto"
)

type WalletServiceTestSuite struct {
	suite.Suite
	mockWalletRepo *MockWalletRepository
	mockTxnRepo    *MockTransactionRepository
	mockIdemRepo   *MockIdempotencyRepository
	mockGateway    *MockPaymentGateway
	service        portssvc.WalletSvcFacade

	userID string
	wallet *domain.Wallet
}

func (suite *WalletServiceTestSuite) SetupTest() {
	suite.mockWalletRepo = new(MockWalletRepository)
	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.mockIdemRepo = new(MockIdempotencyRepository)
	suite.mockGateway = new(MockPaymentGateway)

	guard := services.NewIdempotencyGuard(suite.mockIdemRepo, nil)
	suite.service = services.NewWalletService(
		suite.mockWalletRepo,
		suite.mockTxnRepo,
		guard,
		suite.mockGateway,
		nil,
		"NGN",
	)

	suite.userID = uuid.NewString()
	suite.wallet = &domain.Wallet{
		WalletID:     uuid.NewString(),
		OwnerID:      suite.userID,
		Balance:      5000,
		CurrencyCode: "NGN",
		Status:       domain.WalletActive,
	}
}

func (suite *WalletServiceTestSuite) TestGetWallet_CreatesLazily() {
	ctx := context.Background()
	suite.mockWalletRepo.On("GetOrCreateWallet", ctx, suite.userID, "NGN").Return(suite.wallet, nil).Once()

	wallet, err := suite.service.GetWallet(ctx, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(suite.wallet.WalletID, wallet.WalletID)
	suite.mockWalletRepo.AssertExpectations(suite.T())
}

func (suite *WalletServiceTestSuite) TestAddFunds_Success() {
	ctx := context.Background()
	req := dto.AddFundsRequest{Amount: 10000, Reference: "ps_ref_1"}

	suite.mockWalletRepo.On("GetOrCreateWallet", ctx, suite.userID, "NGN").Return(suite.wallet, nil).Once()
	suite.mockIdemRepo.On("Reserve", ctx, "ps_ref_1", mock.AnythingOfType("time.Time")).Return(true, nil).Once()
	suite.mockTxnRepo.On("SaveTransaction", ctx, mock.AnythingOfType("domain.Transaction")).Return(nil).Once()
	suite.mockIdemRepo.On("Bind", ctx, "ps_ref_1", mock.AnythingOfType("string")).Return(nil).Once()
	suite.mockGateway.On("Verify", ctx, "ps_ref_1").Return(&portssvc.GatewayVerification{
		Status: portssvc.GatewayStatusSuccess, Amount: 10000, Currency: "NGN",
	}, nil).Once()
	suite.mockTxnRepo.On("CompleteWithBalance", ctx, mock.AnythingOfType("string"), suite.wallet.WalletID, int64(10000)).Return(int64(15000), nil).Once()

	txn, err := suite.service.AddFunds(ctx, suite.userID, req)

	suite.Require().NoError(err)
	suite.Equal(domain.TxnCompleted, txn.Status)
	suite.Equal(int64(10000), txn.Amount)
	suite.mockTxnRepo.AssertExpectations(suite.T())
	suite.mockIdemRepo.AssertExpectations(suite.T())
}

func (suite *WalletServiceTestSuite) TestAddFunds_DuplicateReferenceReturnsPriorOutcome() {
	ctx := context.Background()
	req := dto.AddFundsRequest{Amount: 10000, Reference: "ps_ref_dup"}
	priorID := uuid.NewString()
	completedAt := time.Now().UTC()
	prior := &domain.Transaction{
		TransactionID: priorID,
		WalletID:      suite.wallet.WalletID,
		Type:          domain.TxnDeposit,
		Amount:        10000,
		Status:        domain.TxnCompleted,
		CompletedAt:   &completedAt,
	}

	suite.mockWalletRepo.On("GetOrCreateWallet", ctx, suite.userID, "NGN").Return(suite.wallet, nil).Once()
	suite.mockIdemRepo.On("Reserve", ctx, "ps_ref_dup", mock.AnythingOfType("time.Time")).Return(false, nil).Once()
	suite.mockIdemRepo.On("FindTransactionID", ctx, "ps_ref_dup").Return(priorID, nil).Once()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, priorID).Return(prior, nil).Once()

	txn, err := suite.service.AddFunds(ctx, suite.userID, req)

	suite.Require().NoError(err)
	suite.Equal(priorID, txn.TransactionID)
	// No verify, no credit: the duplicate gets the recorded outcome only.
	suite.mockGateway.AssertNotCalled(suite.T(), "Verify", mock.Anything, mock.Anything)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "CompleteWithBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *WalletServiceTestSuite) TestAddFunds_ForeignReferenceForbidden() {
	ctx := context.Background()
	req := dto.AddFundsRequest{Amount: 500, Reference: "ps_ref_foreign"}
	// The reference was recorded for another user's wallet and is still pending.
	priorID := uuid.NewString()
	prior := &domain.Transaction{
		TransactionID: priorID,
		WalletID:      uuid.NewString(),
		Type:          domain.TxnDeposit,
		Amount:        500,
		Status:        domain.TxnPending,
	}

	suite.mockWalletRepo.On("GetOrCreateWallet", ctx, suite.userID, "NGN").Return(suite.wallet, nil).Once()
	suite.mockIdemRepo.On("Reserve", ctx, "ps_ref_foreign", mock.AnythingOfType("time.Time")).Return(false, nil).Once()
	suite.mockIdemRepo.On("FindTransactionID", ctx, "ps_ref_foreign").Return(priorID, nil).Once()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, priorID).Return(prior, nil).Once()

	_, err := suite.service.AddFunds(ctx, suite.userID, req)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	// Someone else's deposit is neither settled nor disclosed to the caller.
	suite.mockGateway.AssertNotCalled(suite.T(), "Verify", mock.Anything, mock.Anything)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "CompleteWithBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *WalletServiceTestSuite) TestAddFunds_ForeignReferenceRaceForbidden() {
	ctx := context.Background()
	req := dto.AddFundsRequest{Amount: 500, Reference: "ps_ref_raced"}
	reference := "ps_ref_raced"
	prior := &domain.Transaction{
		TransactionID: uuid.NewString(),
		WalletID:      uuid.NewString(),
		Type:          domain.TxnDeposit,
		Amount:        500,
		Status:        domain.TxnPending,
		Reference:     &reference,
	}

	suite.mockWalletRepo.On("GetOrCreateWallet", ctx, suite.userID, "NGN").Return(suite.wallet, nil).Once()
	// The guard lets the call through but the ledger's unique reference
	// constraint catches the collision.
	suite.mockIdemRepo.On("Reserve", ctx, "ps_ref_raced", mock.AnythingOfType("time.Time")).Return(true, nil).Once()
	suite.mockTxnRepo.On("SaveTransaction", ctx, mock.AnythingOfType("domain.Transaction")).Return(apperrors.ErrDuplicate).Once()
	suite.mockIdemRepo.On("FindTransactionID", ctx, "ps_ref_raced").Return(prior.TransactionID, nil).Once()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, prior.TransactionID).Return(prior, nil).Once()

	_, err := suite.service.AddFunds(ctx, suite.userID, req)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockGateway.AssertNotCalled(suite.T(), "Verify", mock.Anything, mock.Anything)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "CompleteWithBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *WalletServiceTestSuite) TestConfirmDeposit_CreditsTransactionsOwnWallet() {
	ctx := context.Background()
	reference := "ps_ref_webhook"
	pending := &domain.Transaction{
		TransactionID: uuid.NewString(),
		WalletID:      suite.wallet.WalletID,
		Type:          domain.TxnDeposit,
		Amount:        500,
		Status:        domain.TxnPending,
		Reference:     &reference,
	}

	suite.mockTxnRepo.On("FindTransactionByReference", ctx, reference).Return(pending, nil).Once()
	suite.mockWalletRepo.On("FindWalletByID", ctx, suite.wallet.WalletID).Return(suite.wallet, nil).Once()
	suite.mockGateway.On("Verify", ctx, reference).Return(&portssvc.GatewayVerification{
		Status: portssvc.GatewayStatusSuccess, Amount: 500, Currency: "NGN",
	}, nil).Once()
	// The credit targets the wallet recorded on the transaction.
	suite.mockTxnRepo.On("CompleteWithBalance", ctx, pending.TransactionID, pending.WalletID, int64(500)).Return(int64(5500), nil).Once()

	txn, err := suite.service.ConfirmDeposit(ctx, reference)

	suite.Require().NoError(err)
	suite.Equal(domain.TxnCompleted, txn.Status)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *WalletServiceTestSuite) TestAddFunds_AmountMismatchFailsWithoutCredit() {
	ctx := context.Background()
	req := dto.AddFundsRequest{Amount: 10000, Reference: "ps_ref_mismatch"}

	suite.mockWalletRepo.On("GetOrCreateWallet", ctx, suite.userID, "NGN").Return(suite.wallet, nil).Once()
	suite.mockIdemRepo.On("Reserve", ctx, "ps_ref_mismatch", mock.AnythingOfType("time.Time")).Return(true, nil).Once()
	suite.mockTxnRepo.On("SaveTransaction", ctx, mock.AnythingOfType("domain.Transaction")).Return(nil).Once()
	suite.mockIdemRepo.On("Bind", ctx, "ps_ref_mismatch", mock.AnythingOfType("string")).Return(nil).Once()
	suite.mockGateway.On("Verify", ctx, "ps_ref_mismatch").Return(&portssvc.GatewayVerification{
		Status: portssvc.GatewayStatusSuccess, Amount: 7500, Currency: "NGN",
	}, nil).Once()
	suite.mockTxnRepo.On("MarkFailed", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil).Once()

	_, err := suite.service.AddFunds(ctx, suite.userID, req)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrGatewayVerification)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "CompleteWithBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *WalletServiceTestSuite) TestAddFunds_PendingVerificationStaysPending() {
	ctx := context.Background()
	req := dto.AddFundsRequest{Amount: 10000, Reference: "ps_ref_pending"}

	suite.mockWalletRepo.On("GetOrCreateWallet", ctx, suite.userID, "NGN").Return(suite.wallet, nil).Once()
	suite.mockIdemRepo.On("Reserve", ctx, "ps_ref_pending", mock.AnythingOfType("time.Time")).Return(true, nil).Once()
	suite.mockTxnRepo.On("SaveTransaction", ctx, mock.AnythingOfType("domain.Transaction")).Return(nil).Once()
	suite.mockIdemRepo.On("Bind", ctx, "ps_ref_pending", mock.AnythingOfType("string")).Return(nil).Once()
	suite.mockGateway.On("Verify", ctx, "ps_ref_pending").Return(&portssvc.GatewayVerification{
		Status: portssvc.GatewayStatusPending,
	}, nil).Once()

	_, err := suite.service.AddFunds(ctx, suite.userID, req)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrGatewayVerification)
	// Not finalized: the webhook or a retry can still settle it.
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "MarkFailed", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *WalletServiceTestSuite) TestAddFunds_FrozenWalletRejected() {
	ctx := context.Background()
	frozen := *suite.wallet
	frozen.Status = domain.WalletFrozen

	suite.mockWalletRepo.On("GetOrCreateWallet", ctx, suite.userID, "NGN").Return(&frozen, nil).Once()

	_, err := suite.service.AddFunds(ctx, suite.userID, dto.AddFundsRequest{Amount: 100, Reference: "r"})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrWalletFrozen)
}

func (suite *WalletServiceTestSuite) TestConfirmDeposit_DuplicateWebhookAcknowledged() {
	ctx := context.Background()
	completedAt := time.Now().UTC()
	reference := "ps_ref_settled"
	settled := &domain.Transaction{
		TransactionID: uuid.NewString(),
		WalletID:      suite.wallet.WalletID,
		Type:          domain.TxnDeposit,
		Amount:        10000,
		Status:        domain.TxnCompleted,
		Reference:     &reference,
		CompletedAt:   &completedAt,
	}

	suite.mockTxnRepo.On("FindTransactionByReference", ctx, reference).Return(settled, nil).Once()

	txn, err := suite.service.ConfirmDeposit(ctx, reference)

	suite.Require().NoError(err)
	suite.Equal(settled.TransactionID, txn.TransactionID)
	suite.mockGateway.AssertNotCalled(suite.T(), "Verify", mock.Anything, mock.Anything)
}

func (suite *WalletServiceTestSuite) TestListTransactions_NoWalletMeansEmptyPage() {
	ctx := context.Background()
	suite.mockWalletRepo.On("FindWalletByOwner", ctx, suite.userID).Return(nil, apperrors.ErrNotFound).Once()

	res, err := suite.service.ListTransactions(ctx, suite.userID, dto.ListTransactionsParams{Limit: 20})

	suite.Require().NoError(err)
	suite.Empty(res.Transactions)
	suite.Nil(res.NextToken)
}

func TestWalletServiceTestSuite(t *testing.T) {
	suite.Run(t, new(WalletServiceTestSuite))
}
