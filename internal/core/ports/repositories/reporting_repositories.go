package repositories

import (
	"context"
	"time"

	"github.com/coopledger/coopledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AccountActivity pairs an account with its posted debit/credit totals over a
// query window.
type AccountActivity struct {
	Account     domain.Account
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
}

// ReportingRepository defines the aggregation queries the report generators
// are built on. All queries consider POSTED journals only.
type ReportingRepository interface {
	// GetActivityByType returns per-account debit/credit totals for accounts
	// of the given types within an optional date window. Accounts with no
	// posted activity in the window are omitted; deactivated accounts with
	// history still report, so report totals stay symmetric.
	GetActivityByType(ctx context.Context, types []domain.AccountType, from, to *time.Time) ([]AccountActivity, error)

	// GetGeneralLedgerLines returns the chronological journal lines of one
	// account within a date window, with entry metadata attached.
	GetGeneralLedgerLines(ctx context.Context, accountID string, from, to time.Time) ([]domain.GeneralLedgerLine, error)
}

// PortfolioRepository defines the read-only aggregations behind the portfolio
// risk metrics.
type PortfolioRepository interface {
	// TotalOutstandingPrincipal sums outstanding principal across ACTIVE loans.
	TotalOutstandingPrincipal(ctx context.Context) (decimal.Decimal, error)

	// PrincipalAtRisk sums the outstanding principal of ACTIVE loans that have
	// at least one OVERDUE or PARTIAL installment due on or before cutoff.
	PrincipalAtRisk(ctx context.Context, cutoff time.Time) (decimal.Decimal, error)

	// PaymentsReceived sums loan payments with a payment date in [from, to].
	PaymentsReceived(ctx context.Context, from, to time.Time) (decimal.Decimal, error)

	// InstallmentsDue sums installment totals with a due date in [from, to].
	InstallmentsDue(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
}
