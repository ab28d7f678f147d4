package pgsql

import (
	portsrepo "github.com/coopledger/coopledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	accountRepo := newPgxAccountRepository(dbPool)
	journalRepo := newPgxJournalRepository(dbPool)
	loanRepo := newPgxLoanRepository(dbPool, journalRepo)
	reportingRepo := newPgxReportingRepository(dbPool)
	portfolioRepo := newPgxPortfolioRepository(dbPool)

	return portsrepo.RepositoryProvider{
		AccountRepo:   accountRepo,
		JournalRepo:   journalRepo,
		LoanRepo:      loanRepo,
		ReportingRepo: reportingRepo,
		PortfolioRepo: portfolioRepo,
	}
}
