package repositories

// RepositoryProvider bundles every repository implementation so the service
// container can be wired from one value.
type RepositoryProvider struct {
	WalletRepo      WalletRepositoryFacade
	TransactionRepo TransactionRepositoryFacade
	TargetRepo      SavingsTargetRepositoryFacade
	WithdrawalRepo  WithdrawalRepositoryFacade
	IdempotencyRepo IdempotencyRepositoryFacade
}
