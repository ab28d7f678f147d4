package repositories

// RepositoryProvider bundles every repository implementation for injection
// into the service layer.
type RepositoryProvider struct {
	AccountRepo   AccountRepositoryFacade
	JournalRepo   JournalRepositoryWithTx
	LoanRepo      LoanRepositoryFacade
	ReportingRepo ReportingRepository
	PortfolioRepo PortfolioRepository
}
