package services

// ServiceContainer bundles every service implementation for injection into
// the HTTP layer.
type ServiceContainer struct {
	Account   AccountSvcFacade
	Journal   JournalSvcFacade
	Loan      LoanSvcFacade
	Reporting ReportingService
	Portfolio PortfolioService
}
