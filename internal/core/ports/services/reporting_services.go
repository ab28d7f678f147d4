package services

import (
	"context"
	"time"

	"github.com/coopledger/coopledger/internal/core/domain"
)

// ReportingService defines the report generators. All reports are pure
// functions over posted ledger state.
type ReportingService interface {
	// TrialBalance lists every active account's balance as of a date, split
	// into debit and credit columns. Total debits must equal total credits.
	TrialBalance(ctx context.Context, asOf time.Time) (*domain.TrialBalanceReport, error)

	// IncomeStatement covers INCOME and EXPENSE accounts over a period.
	IncomeStatement(ctx context.Context, from, to time.Time) (*domain.IncomeStatementReport, error)

	// BalanceSheet reports assets, liabilities and equity as of a date, with a
	// derived current-year retained earnings equity row.
	BalanceSheet(ctx context.Context, asOf time.Time) (*domain.BalanceSheetReport, error)

	// GeneralLedger lists an account's journal lines over a period with an
	// opening balance and running totals.
	GeneralLedger(ctx context.Context, accountID string, from, to time.Time) (*domain.GeneralLedgerReport, error)
}

// PortfolioService computes read-only risk metrics over the loan book.
type PortfolioService interface {
	// PortfolioMetrics returns PAR1/7/30 and collection efficiency for today
	// and month-to-date, relative to now.
	PortfolioMetrics(ctx context.Context, now time.Time) (*domain.PortfolioMetrics, error)
}
