package services

import (
	"context"
	"time"

	"github.com/coopledger/coopledger/internal/core/domain"
	"github.com/coopledger/coopledger/internal/dto"
)

// LoanReaderSvc defines read operations for loan data
type LoanReaderSvc interface {
	// GetLoan retrieves a loan with its installment schedule.
	GetLoan(ctx context.Context, loanID string) (*dto.LoanDetailResponse, error)

	// ListLoans retrieves loans, optionally filtered by status.
	ListLoans(ctx context.Context, status *domain.LoanStatus) ([]domain.Loan, error)

	// PreviewSchedule computes an amortization schedule without persisting
	// anything.
	PreviewSchedule(ctx context.Context, req dto.SchedulePreviewRequest) (*dto.SchedulePreviewResponse, error)
}

// LoanWriterSvc defines the loan lifecycle operations
type LoanWriterSvc interface {
	// DisburseLoan creates an ACTIVE loan with its installment schedule and
	// posts the disbursement journal, all in one atomic unit.
	DisburseLoan(ctx context.Context, req dto.DisburseLoanRequest, userID string) (*dto.LoanDetailResponse, error)

	// AllocatePayment waterfall-allocates an incoming payment across late fee,
	// interest and principal, updates installments and the loan position,
	// posts the repayment journal and closes the loan when the principal is
	// fully repaid. Atomic.
	AllocatePayment(ctx context.Context, loanID string, req dto.PaymentRequest, userID string) (*dto.PaymentResult, error)

	// CalculateSettlement prices an early payoff as of a date. Read-only.
	CalculateSettlement(ctx context.Context, loanID string, asOf time.Time) (*domain.SettlementQuote, error)

	// SettleLoan settles a loan against a quote: pays off all remaining
	// installments, zeroes the outstanding position, posts the settlement
	// journal and closes the loan. Atomic.
	SettleLoan(ctx context.Context, loanID string, quote domain.SettlementQuote, paymentDate time.Time, reference, userID string) (*domain.LoanPayment, error)

	// MarkOverdueInstallments sweeps past-due PENDING/PARTIAL installments to
	// OVERDUE as of the given date.
	MarkOverdueInstallments(ctx context.Context, asOf time.Time) (int64, error)
}

// LoanSvcFacade combines all loan-related service interfaces
type LoanSvcFacade interface {
	LoanReaderSvc
	LoanWriterSvc
}
