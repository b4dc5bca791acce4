package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/savecircle/savecircle-backend/internal/apperrors"
	"github.com/savecircle/savecircle-backend/internal/core/domain"
	portssvc "github.com/savecircle/savecircle-backend/internal/core/ports/services"
	"github.com/savecircle/savecircle-backend/internal/core/services"
	"github.com/savecircle/savecircle-backend/internal/dto"
)

type ContributionServiceTestSuite struct {
	suite.Suite
	mockWalletRepo *MockWalletRepository
	mockTxnRepo    *MockTransactionRepository
	mockTargetRepo *MockSavingsTargetRepository
	service        portssvc.ContributionSvcFacade

	userID string
	wallet *domain.Wallet
	target *domain.SavingsTarget
}

func (suite *ContributionServiceTestSuite) SetupTest() {
	suite.mockWalletRepo = new(MockWalletRepository)
	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.mockTargetRepo = new(MockSavingsTargetRepository)

	suite.service = services.NewContributionService(
		suite.mockWalletRepo,
		suite.mockTxnRepo,
		suite.mockTargetRepo,
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
	suite.target = &domain.SavingsTarget{
		TargetID:     uuid.NewString(),
		Kind:         domain.TargetGoal,
		OwnerID:      suite.userID,
		TargetAmount: 100000,
	}
}

func (suite *ContributionServiceTestSuite) TestContribute_Success() {
	ctx := context.Background()
	req := dto.ContributeRequest{TargetID: suite.target.TargetID, Amount: 2000}

	suite.mockTargetRepo.On("FindTargetByID", ctx, suite.target.TargetID, domain.TargetGoal).Return(suite.target, nil).Once()
	suite.mockWalletRepo.On("GetOrCreateWallet", ctx, suite.userID, "NGN").Return(suite.wallet, nil).Once()
	suite.mockTxnRepo.On("SaveTransaction", ctx, mock.AnythingOfType("domain.Transaction")).Return(nil).Once()
	suite.mockTxnRepo.On("CompleteContributionWithBalance", ctx, mock.AnythingOfType("string"), suite.wallet.WalletID, suite.target.TargetID, domain.TargetGoal, int64(2000)).Return(int64(3000), nil).Once()

	txn, err := suite.service.Contribute(ctx, suite.userID, domain.TargetGoal, req)

	suite.Require().NoError(err)
	suite.Equal(domain.TxnCompleted, txn.Status)
	suite.Equal(int64(-2000), txn.Amount)
	suite.Equal(domain.TxnContribution, txn.Type)
	suite.mockTargetRepo.AssertExpectations(suite.T())
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *ContributionServiceTestSuite) TestContribute_InsufficientFundsLeavesEverythingUnchanged() {
	ctx := context.Background()
	req := dto.ContributeRequest{TargetID: suite.target.TargetID, Amount: 9999999}

	suite.mockTargetRepo.On("FindTargetByID", ctx, suite.target.TargetID, domain.TargetGoal).Return(suite.target, nil).Once()
	suite.mockWalletRepo.On("GetOrCreateWallet", ctx, suite.userID, "NGN").Return(suite.wallet, nil).Once()
	suite.mockTxnRepo.On("SaveTransaction", ctx, mock.AnythingOfType("domain.Transaction")).Return(nil).Once()
	// The settlement rolls back as a unit; the transaction is still pending.
	suite.mockTxnRepo.On("CompleteContributionWithBalance", ctx, mock.AnythingOfType("string"), suite.wallet.WalletID, suite.target.TargetID, domain.TargetGoal, int64(9999999)).Return(int64(0), apperrors.ErrInsufficientFunds).Once()
	suite.mockTxnRepo.On("MarkFailed", ctx, mock.AnythingOfType("string"), "insufficient funds", mock.AnythingOfType("time.Time")).Return(nil).Once()

	_, err := suite.service.Contribute(ctx, suite.userID, domain.TargetGoal, req)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInsufficientFunds)
	// No compensation path exists: the debit never committed.
	suite.mockWalletRepo.AssertNotCalled(suite.T(), "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *ContributionServiceTestSuite) TestContribute_ReleasedMidFlightFailsCleanly() {
	ctx := context.Background()
	req := dto.ContributeRequest{TargetID: suite.target.TargetID, Amount: 2000}

	suite.mockTargetRepo.On("FindTargetByID", ctx, suite.target.TargetID, domain.TargetGoal).Return(suite.target, nil).Once()
	suite.mockWalletRepo.On("GetOrCreateWallet", ctx, suite.userID, "NGN").Return(suite.wallet, nil).Once()
	suite.mockTxnRepo.On("SaveTransaction", ctx, mock.AnythingOfType("domain.Transaction")).Return(nil).Once()
	// A release won the race: the settlement's funds_released condition fails
	// and everything rolls back, debit included.
	suite.mockTxnRepo.On("CompleteContributionWithBalance", ctx, mock.AnythingOfType("string"), suite.wallet.WalletID, suite.target.TargetID, domain.TargetGoal, int64(2000)).Return(int64(0), apperrors.ErrConflict).Once()
	suite.mockTxnRepo.On("MarkFailed", ctx, mock.AnythingOfType("string"), "funds already released", mock.AnythingOfType("time.Time")).Return(nil).Once()

	txn, err := suite.service.Contribute(ctx, suite.userID, domain.TargetGoal, req)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.Nil(txn)
	suite.mockWalletRepo.AssertNotCalled(suite.T(), "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *ContributionServiceTestSuite) TestContribute_TransientFailureLeavesTransactionPending() {
	ctx := context.Background()
	req := dto.ContributeRequest{TargetID: suite.target.TargetID, Amount: 2000}

	suite.mockTargetRepo.On("FindTargetByID", ctx, suite.target.TargetID, domain.TargetGoal).Return(suite.target, nil).Once()
	suite.mockWalletRepo.On("GetOrCreateWallet", ctx, suite.userID, "NGN").Return(suite.wallet, nil).Once()
	suite.mockTxnRepo.On("SaveTransaction", ctx, mock.AnythingOfType("domain.Transaction")).Return(nil).Once()
	suite.mockTxnRepo.On("CompleteContributionWithBalance", ctx, mock.AnythingOfType("string"), suite.wallet.WalletID, suite.target.TargetID, domain.TargetGoal, int64(2000)).Return(int64(0), apperrors.ErrInternal).Once()

	_, err := suite.service.Contribute(ctx, suite.userID, domain.TargetGoal, req)

	suite.Require().Error(err)
	// The transaction stays pending for the recheck collaborator; it is not
	// finalized on a transient storage error.
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "MarkFailed", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "MarkNeedsReconciliation", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ContributionServiceTestSuite) TestContribute_ReleasedTargetRejected() {
	ctx := context.Background()
	released := *suite.target
	released.FundsReleased = true

	suite.mockTargetRepo.On("FindTargetByID", ctx, suite.target.TargetID, domain.TargetGroup).Return(&released, nil).Once()

	_, err := suite.service.Contribute(ctx, suite.userID, domain.TargetGroup, dto.ContributeRequest{TargetID: suite.target.TargetID, Amount: 100})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "SaveTransaction", mock.Anything, mock.Anything)
}

func TestContributionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ContributionServiceTestSuite))
}
