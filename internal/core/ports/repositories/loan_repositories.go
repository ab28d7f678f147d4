package repositories

import (
	"context"
	"time"

	"github.com/coopledger/coopledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LoanReader defines read operations for loan data
type LoanReader interface {
	// FindLoanByID retrieves a specific loan by its unique identifier.
	FindLoanByID(ctx context.Context, loanID string) (*domain.Loan, error)

	// FindInstallmentsByLoanID retrieves a loan's schedule ordered by
	// installment number.
	FindInstallmentsByLoanID(ctx context.Context, loanID string) ([]domain.LoanInstallment, error)

	// FindPaymentsByLoanID retrieves a loan's payments ordered by payment date.
	FindPaymentsByLoanID(ctx context.Context, loanID string) ([]domain.LoanPayment, error)

	// ListLoans retrieves loans, optionally filtered by status.
	ListLoans(ctx context.Context, status *domain.LoanStatus) ([]domain.Loan, error)
}

// LoanWriter defines write operations for loan data. Each method is one
// atomic unit: the loan mutation, its child rows and the generated journal
// are persisted in a single database transaction or not at all.
type LoanWriter interface {
	// CreateLoanWithSchedule persists a new loan, its installment schedule and
	// the disbursement journal atomically. It returns the loan with the
	// disbursement journal reference set.
	CreateLoanWithSchedule(ctx context.Context, loan domain.Loan, schedule []domain.LoanInstallment, journal domain.Journal, lines []domain.JournalLine) (*domain.Loan, error)

	// ApplyPayment persists a payment record, the updated installments, the
	// updated loan position and the repayment journal atomically. The loan
	// update is guarded on the outstanding position the caller computed from:
	// when another payment landed in between, nothing is written and an error
	// wrapping apperrors.ErrConflict is returned. It returns the payment with
	// its journal reference set.
	ApplyPayment(ctx context.Context, loan domain.Loan, priorPrincipal, priorInterest decimal.Decimal, payment domain.LoanPayment, installments []domain.LoanInstallment, journal domain.Journal, lines []domain.JournalLine) (*domain.LoanPayment, error)

	// MarkOverdueInstallments flips PENDING and PARTIAL installments that are
	// past due as of the given date to OVERDUE, returning the number changed.
	MarkOverdueInstallments(ctx context.Context, asOf time.Time) (int64, error)
}

// LoanRepositoryFacade combines all loan-related repository interfaces
type LoanRepositoryFacade interface {
	LoanReader
	LoanWriter
}
