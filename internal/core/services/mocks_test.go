package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/savecircle/savecircle-backend/internal/core/domain"
	portsrepo "github.com/savecircle/savecircle-backend/internal/core/ports/repositories"
	portssvc "github.com/savecircle/savecircle-backend/internal/core/ports/services"
)

// MockWalletRepository is a mock type for the WalletRepositoryFacade interface
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) GetOrCreateWallet(ctx context.Context, ownerID string, currencyCode string) (*domain.Wallet, error) {
	args := m.Called(ctx, ownerID, currencyCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) FindWalletByID(ctx context.Context, walletID string) (*domain.Wallet, error) {
	args := m.Called(ctx, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) FindWalletByOwner(ctx context.Context, ownerID string) (*domain.Wallet, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepository) AdjustBalance(ctx context.Context, walletID string, delta int64) (int64, error) {
	args := m.Called(ctx, walletID, delta)
	return args.Get(0).(int64), args.Error(1)
}

// MockTransactionRepository is a mock type for the TransactionRepositoryFacade interface
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindTransactionByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) CompleteWithBalance(ctx context.Context, transactionID string, walletID string, amount int64) (int64, error) {
	args := m.Called(ctx, transactionID, walletID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) CompleteContributionWithBalance(ctx context.Context, transactionID string, walletID string, targetID string, kind domain.TargetKind, amount int64) (int64, error) {
	args := m.Called(ctx, transactionID, walletID, targetID, kind, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) CompleteReleaseWithBalance(ctx context.Context, transactionID string, walletID string, targetID string, kind domain.TargetKind) (int64, int64, error) {
	args := m.Called(ctx, transactionID, walletID, targetID, kind)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockTransactionRepository) DebitForEscrow(ctx context.Context, transactionID string, walletID string, amount int64) (int64, error) {
	args := m.Called(ctx, transactionID, walletID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) MarkCompleted(ctx context.Context, transactionID string, completedAt time.Time) error {
	args := m.Called(ctx, transactionID, completedAt)
	return args.Error(0)
}

func (m *MockTransactionRepository) MarkFailed(ctx context.Context, transactionID string, reason string, failedAt time.Time) error {
	args := m.Called(ctx, transactionID, reason, failedAt)
	return args.Error(0)
}

func (m *MockTransactionRepository) MarkNeedsReconciliation(ctx context.Context, transactionID string, reason string, at time.Time) error {
	args := m.Called(ctx, transactionID, reason, at)
	return args.Error(0)
}

func (m *MockTransactionRepository) SumCompletedContributions(ctx context.Context, targetID string) (int64, error) {
	args := m.Called(ctx, targetID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepository) FindReleaseTransaction(ctx context.Context, targetID string) (*domain.Transaction, error) {
	args := m.Called(ctx, targetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListTransactionsByWallet(ctx context.Context, walletID string, filter portsrepo.TransactionFilter) ([]domain.Transaction, *string, error) {
	args := m.Called(ctx, walletID, filter)
	var txns []domain.Transaction
	if args.Get(0) != nil {
		txns = args.Get(0).([]domain.Transaction)
	}
	var next *string
	if args.Get(1) != nil {
		next = args.Get(1).(*string)
	}
	return txns, next, args.Error(2)
}

// MockSavingsTargetRepository is a mock type for the SavingsTargetRepositoryFacade interface
type MockSavingsTargetRepository struct {
	mock.Mock
}

func (m *MockSavingsTargetRepository) FindTargetByID(ctx context.Context, targetID string, kind domain.TargetKind) (*domain.SavingsTarget, error) {
	args := m.Called(ctx, targetID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SavingsTarget), args.Error(1)
}

// MockWithdrawalRepository is a mock type for the WithdrawalRepositoryFacade interface
type MockWithdrawalRepository struct {
	mock.Mock
}

func (m *MockWithdrawalRepository) SaveWithdrawalRequest(ctx context.Context, req domain.WithdrawalRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) FindWithdrawalByTransactionID(ctx context.Context, transactionID string) (*domain.WithdrawalRequest, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WithdrawalRequest), args.Error(1)
}

func (m *MockWithdrawalRepository) TransitionStatus(ctx context.Context, requestID string, from, to domain.WithdrawalApprovalStatus, review portsrepo.WithdrawalReview) error {
	args := m.Called(ctx, requestID, from, to, review)
	return args.Error(0)
}

// MockIdempotencyRepository is a mock type for the IdempotencyRepositoryFacade interface
type MockIdempotencyRepository struct {
	mock.Mock
}

func (m *MockIdempotencyRepository) Reserve(ctx context.Context, reference string, now time.Time) (bool, error) {
	args := m.Called(ctx, reference, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyRepository) Bind(ctx context.Context, reference string, transactionID string) error {
	args := m.Called(ctx, reference, transactionID)
	return args.Error(0)
}

func (m *MockIdempotencyRepository) FindTransactionID(ctx context.Context, reference string) (string, error) {
	args := m.Called(ctx, reference)
	return args.String(0), args.Error(1)
}

// MockReferenceCache is a mock type for the ReferenceCache interface
type MockReferenceCache struct {
	mock.Mock
}

func (m *MockReferenceCache) TryReserve(ctx context.Context, reference string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, reference, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockReferenceCache) Forget(ctx context.Context, reference string) error {
	args := m.Called(ctx, reference)
	return args.Error(0)
}

// MockPaymentGateway is a mock type for the PaymentGateway interface
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) Initialize(ctx context.Context, req portssvc.GatewayInitRequest) (*portssvc.GatewayAuthorization, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.GatewayAuthorization), args.Error(1)
}

func (m *MockPaymentGateway) Verify(ctx context.Context, reference string) (*portssvc.GatewayVerification, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.GatewayVerification), args.Error(1)
}

func (m *MockPaymentGateway) Transfer(ctx context.Context, req portssvc.GatewayTransferRequest) (*portssvc.GatewayTransfer, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.GatewayTransfer), args.Error(1)
}

// MockTransactionPublisher is a mock type for the TransactionPublisher interface
type MockTransactionPublisher struct {
	mock.Mock
}

func (m *MockTransactionPublisher) PublishTransaction(ctx context.Context, event portssvc.TransactionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockTransactionPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}
