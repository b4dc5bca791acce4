package services

import (
	"github.com/shopspring/decimal"

	portsrepo "github.com/savecircle/savecircle-backend/internal/core/ports/repositories"
	portssvc "github.com/savecircle/savecircle-backend/internal/core/ports/services"
)

// Container holds all the services and manages their dependencies.
type Container struct {
	Wallet       portssvc.WalletSvcFacade
	Contribution portssvc.ContributionSvcFacade
	Release      portssvc.ReleaseSvcFacade
	Withdrawal   portssvc.WithdrawalSvcFacade
}

// ContainerDeps carries the external collaborators the services need beyond
// repositories. Cache and Publisher may be nil; the services degrade gracefully.
type ContainerDeps struct {
	Gateway   portssvc.PaymentGateway
	Cache     portsrepo.ReferenceCache
	Publisher portssvc.TransactionPublisher
	Currency  string
	FeeRate   decimal.Decimal
}

// NewContainer creates a new service container with properly initialized dependencies.
func NewContainer(repos *portsrepo.RepositoryProvider, deps ContainerDeps) *Container {
	guard := NewIdempotencyGuard(repos.IdempotencyRepo, deps.Cache)

	return &Container{
		Wallet: NewWalletService(
			repos.WalletRepo,
			repos.TransactionRepo,
			guard,
			deps.Gateway,
			deps.Publisher,
			deps.Currency,
		),
		Contribution: NewContributionService(
			repos.WalletRepo,
			repos.TransactionRepo,
			repos.TargetRepo,
			deps.Publisher,
			deps.Currency,
		),
		Release: NewReleaseService(
			repos.WalletRepo,
			repos.TransactionRepo,
			repos.TargetRepo,
			deps.Publisher,
			deps.Currency,
		),
		Withdrawal: NewWithdrawalService(
			repos.WalletRepo,
			repos.TransactionRepo,
			repos.WithdrawalRepo,
			deps.Gateway,
			deps.Publisher,
			deps.Currency,
			deps.FeeRate,
		),
	}
}
