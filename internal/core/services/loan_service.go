package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/coopledger/coopledger/internal/apperrors"
	"github.com/coopledger/coopledger/internal/core/domain"
	portsrepo "github.com/coopledger/coopledger/internal/core/ports/repositories"
	portssvc "github.com/coopledger/coopledger/internal/core/ports/services"
	"github.com/coopledger/coopledger/internal/dto"
	"github.com/coopledger/coopledger/internal/utils/accounting"
	"github.com/coopledger/coopledger/internal/utils/amortization"
	"github.com/shopspring/decimal"
)

var (
	ErrLoanNotActive = errors.New("loan is not active")
	ErrOverpayment   = errors.New("payment exceeds total amount owed")
	ErrQuoteStale    = errors.New("settlement quote no longer matches the loan position")
)

var daysPerYearBasis = decimal.NewFromInt(36500) // rate% * days / 36500

// LoanPolicy carries the configurable lending policy constants.
type LoanPolicy struct {
	// LateFeePercent is charged on the overdue unpaid installment amount when
	// a payment arrives past due.
	LateFeePercent decimal.Decimal
	// SettlementDiscountPercent is the share of outstanding interest waived on
	// early settlement of FLAT loans. DIMINISHING loans settle at full
	// outstanding interest.
	SettlementDiscountPercent decimal.Decimal
	// ClosureEpsilon is the residual principal below which a loan is
	// considered fully repaid.
	ClosureEpsilon decimal.Decimal
}

// DefaultLoanPolicy returns the standard policy constants.
func DefaultLoanPolicy() LoanPolicy {
	return LoanPolicy{
		LateFeePercent:            decimal.NewFromInt(2),
		SettlementDiscountPercent: decimal.NewFromInt(10),
		ClosureEpsilon:            decimal.NewFromFloat(0.001),
	}
}

// loanService provides the loan lifecycle: disbursement, repayment waterfall,
// early settlement and the overdue sweep. Every mutation also posts its
// canonical journal in the same atomic unit via the repository.
type loanService struct {
	BaseService
	loanRepo   portsrepo.LoanRepositoryFacade
	accountSvc portssvc.AccountSvcFacade
	policy     LoanPolicy
}

// NewLoanService creates a new LoanService.
func NewLoanService(loanRepo portsrepo.LoanRepositoryFacade, accountSvc portssvc.AccountSvcFacade, policy LoanPolicy) portssvc.LoanSvcFacade {
	return &loanService{
		loanRepo:   loanRepo,
		accountSvc: accountSvc,
		policy:     policy,
	}
}

// Ensure loanService implements the portssvc.LoanSvcFacade interface
var _ portssvc.LoanSvcFacade = (*loanService)(nil)

// daysBetween counts whole calendar days from a to b, non-negative.
func daysBetween(a, b time.Time) int64 {
	aDay := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bDay := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	days := int64(bDay.Sub(aDay).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// accruedInterest computes simple daily interest on the outstanding principal
// since the last accrual: principal * rate% * days / 36500.
func accruedInterest(loan *domain.Loan, asOf time.Time) decimal.Decimal {
	days := daysBetween(loan.LastInterestAccrual, asOf)
	if days == 0 || !loan.OutstandingPrincipal.IsPositive() {
		return decimal.Zero
	}
	return accounting.RoundMoney(
		loan.OutstandingPrincipal.
			Mul(loan.InterestRate).
			Mul(decimal.NewFromInt(days)).
			Div(daysPerYearBasis))
}

// PreviewSchedule computes an amortization schedule without persisting anything.
func (s *loanService) PreviewSchedule(ctx context.Context, req dto.SchedulePreviewRequest) (*dto.SchedulePreviewResponse, error) {
	schedule, err := amortization.ComputeSchedule(req.PrincipalAmount, req.InterestRate, req.TenureMonths, req.InterestType, req.FirstPaymentDate)
	if err != nil {
		return nil, err
	}

	installments := make([]dto.InstallmentResponse, len(schedule.Entries))
	for i, entry := range schedule.Entries {
		installments[i] = dto.InstallmentResponse{
			InstallmentNumber: entry.Number,
			DueDate:           entry.DueDate,
			PrincipalAmount:   entry.Principal,
			InterestAmount:    entry.Interest,
			TotalAmount:       entry.Total,
			PaidAmount:        decimal.Zero,
			Status:            domain.InstallmentPending,
		}
	}
	return &dto.SchedulePreviewResponse{EMIAmount: schedule.EMI, Installments: installments}, nil
}

// DisburseLoan creates an ACTIVE loan with its schedule and posts the
// disbursement journal (debit loans receivable, credit cash) atomically.
func (s *loanService) DisburseLoan(ctx context.Context, req dto.DisburseLoanRequest, userID string) (*dto.LoanDetailResponse, error) {
	schedule, err := amortization.ComputeSchedule(req.PrincipalAmount, req.InterestRate, req.TenureMonths, req.InterestType, req.FirstPaymentDate)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	principal := accounting.RoundMoney(req.PrincipalAmount)
	loanID := uuid.NewString()
	audit := domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     userID,
		LastUpdatedAt: now,
		LastUpdatedBy: userID,
	}

	loan := domain.Loan{
		LoanID:               loanID,
		BorrowerID:           req.BorrowerID,
		PrincipalAmount:      principal,
		InterestRate:         req.InterestRate,
		TenureMonths:         req.TenureMonths,
		InterestType:         req.InterestType,
		DisbursementDate:     req.DisbursementDate,
		FirstPaymentDate:     req.FirstPaymentDate,
		EMIAmount:            schedule.EMI,
		OutstandingPrincipal: principal,
		OutstandingInterest:  decimal.Zero,
		LastInterestAccrual:  req.DisbursementDate,
		Status:               domain.LoanActive,
		AuditFields:          audit,
	}

	installments := make([]domain.LoanInstallment, len(schedule.Entries))
	for i, entry := range schedule.Entries {
		installments[i] = domain.LoanInstallment{
			InstallmentID:     uuid.NewString(),
			LoanID:            loanID,
			InstallmentNumber: entry.Number,
			DueDate:           entry.DueDate,
			PrincipalAmount:   entry.Principal,
			InterestAmount:    entry.Interest,
			TotalAmount:       entry.Total,
			PaidAmount:        decimal.Zero,
			Status:            domain.InstallmentPending,
			AuditFields:       audit,
		}
	}

	journal, lines, err := s.buildLoanJournal(ctx, loanJournalSpec{
		narration: fmt.Sprintf("Loan disbursement to borrower %s", req.BorrowerID),
		reference: loanID,
		date:      req.DisbursementDate,
		cashDebit: decimal.Zero,
		legs: []journalLeg{
			{code: domain.CodeLoansReceivable, debit: principal},
			{code: domain.CodeCash, credit: principal},
		},
	}, now, userID)
	if err != nil {
		return nil, err
	}

	saved, err := s.loanRepo.CreateLoanWithSchedule(ctx, loan, installments, journal, lines)
	if err != nil {
		s.LogError(ctx, err, "Failed to persist loan disbursement", slog.String("loan_id", loanID))
		return nil, fmt.Errorf("failed to disburse loan: %w", err)
	}

	s.LogInfo(ctx, "Loan disbursed",
		slog.String("loan_id", loanID),
		slog.String("borrower_id", req.BorrowerID),
		slog.String("principal", principal.String()),
		slog.String("emi", schedule.EMI.String()))

	return &dto.LoanDetailResponse{
		Loan:         dto.ToLoanResponse(saved),
		Installments: dto.ToInstallmentResponses(installments),
	}, nil
}

// journalLeg is one line of a loan journal, addressed by account code.
type journalLeg struct {
	code   string
	debit  decimal.Decimal
	credit decimal.Decimal
}

type loanJournalSpec struct {
	narration string
	reference string
	date      time.Time
	cashDebit decimal.Decimal
	legs      []journalLeg
}

// buildLoanJournal resolves account codes and assembles a POSTED journal for a
// loan event. Zero-amount legs are dropped; the result must balance.
func (s *loanService) buildLoanJournal(ctx context.Context, spec loanJournalSpec, now time.Time, userID string) (domain.Journal, []domain.JournalLine, error) {
	journalID := uuid.NewString()
	audit := domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     userID,
		LastUpdatedAt: now,
		LastUpdatedBy: userID,
	}

	legs := spec.legs
	if spec.cashDebit.IsPositive() {
		legs = append([]journalLeg{{code: domain.CodeCash, debit: spec.cashDebit}}, legs...)
	}

	lines := make([]domain.JournalLine, 0, len(legs))
	amount := decimal.Zero
	for _, leg := range legs {
		if leg.debit.IsZero() && leg.credit.IsZero() {
			continue
		}
		account, err := s.accountSvc.GetAccountByCode(ctx, leg.code)
		if err != nil {
			return domain.Journal{}, nil, fmt.Errorf("failed to resolve account %s: %w", leg.code, err)
		}
		lines = append(lines, domain.JournalLine{
			LineID:      uuid.NewString(),
			JournalID:   journalID,
			AccountID:   account.AccountID,
			Debit:       leg.debit,
			Credit:      leg.credit,
			AuditFields: audit,
		})
		amount = amount.Add(leg.debit)
	}

	if err := accounting.ValidateJournalBalance(lines); err != nil {
		return domain.Journal{}, nil, fmt.Errorf("%w: %s", apperrors.ErrInternal, err)
	}

	journal := domain.Journal{
		JournalID:   journalID,
		JournalDate: spec.date,
		Narration:   spec.narration,
		Reference:   spec.reference,
		Status:      domain.Posted,
		Amount:      amount,
		AuditFields: audit,
	}
	return journal, lines, nil
}

// GetLoan retrieves a loan with its schedule.
func (s *loanService) GetLoan(ctx context.Context, loanID string) (*dto.LoanDetailResponse, error) {
	loan, err := s.loanRepo.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	installments, err := s.loanRepo.FindInstallmentsByLoanID(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve schedule for loan %s: %w", loanID, err)
	}
	return &dto.LoanDetailResponse{
		Loan:         dto.ToLoanResponse(loan),
		Installments: dto.ToInstallmentResponses(installments),
	}, nil
}

// ListLoans retrieves loans, optionally filtered by status.
func (s *loanService) ListLoans(ctx context.Context, status *domain.LoanStatus) ([]domain.Loan, error) {
	return s.loanRepo.ListLoans(ctx, status)
}

// AllocatePayment runs the repayment waterfall: accrue daily interest, then
// allocate the payment late fee -> interest -> principal, each component
// capped at what remains owed. A surplus beyond full payoff rejects the whole
// payment. All resulting mutations and the repayment journal are persisted as
// one atomic unit.
func (s *loanService) AllocatePayment(ctx context.Context, loanID string, req dto.PaymentRequest, userID string) (*dto.PaymentResult, error) {
	amount := accounting.RoundMoney(req.Amount)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: payment amount must be positive, got %s", apperrors.ErrValidation, amount)
	}

	loan, err := s.loanRepo.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != domain.LoanActive {
		return nil, fmt.Errorf("%w: loan %s is %s", ErrLoanNotActive, loanID, loan.Status)
	}

	installments, err := s.loanRepo.FindInstallmentsByLoanID(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve schedule for loan %s: %w", loanID, err)
	}

	// Interest accrues daily on the outstanding principal since the last
	// payment, on top of any carried-over unpaid interest.
	interestDue := loan.OutstandingInterest.Add(accruedInterest(loan, req.PaymentDate))

	// Late fee applies to the overdue unpaid portion of the schedule.
	overdueUnpaid := decimal.Zero
	for _, inst := range installments {
		if inst.Status == domain.InstallmentPaid {
			continue
		}
		if inst.DueDate.Before(req.PaymentDate) {
			overdueUnpaid = overdueUnpaid.Add(inst.TotalAmount.Sub(inst.PaidAmount))
		}
	}
	lateFeeDue := accounting.RoundMoney(overdueUnpaid.Mul(s.policy.LateFeePercent).Div(decimal.NewFromInt(100)))

	// Waterfall: late fee -> interest -> principal, each capped at what is owed.
	remaining := amount
	feePaid := decimal.Min(remaining, lateFeeDue)
	remaining = remaining.Sub(feePaid)
	interestPaid := decimal.Min(remaining, interestDue)
	remaining = remaining.Sub(interestPaid)
	principalPaid := decimal.Min(remaining, loan.OutstandingPrincipal)
	remaining = remaining.Sub(principalPaid)

	if remaining.IsPositive() {
		return nil, fmt.Errorf("%w: surplus of %s beyond full payoff", ErrOverpayment, remaining)
	}

	now := time.Now().UTC()
	updated := *loan
	updated.OutstandingInterest = interestDue.Sub(interestPaid)
	updated.OutstandingPrincipal = loan.OutstandingPrincipal.Sub(principalPaid)
	updated.LastInterestAccrual = req.PaymentDate
	updated.LastUpdatedAt = now
	updated.LastUpdatedBy = userID

	closed := updated.OutstandingPrincipal.LessThanOrEqual(s.policy.ClosureEpsilon)
	if closed {
		updated.OutstandingPrincipal = decimal.Zero
		updated.Status = domain.LoanClosed
		closure := req.PaymentDate
		updated.ClosureDate = &closure
	}

	// Only principal and interest service the schedule. The late fee is
	// income on top of the installments, never part of their TotalAmount.
	changed := applyCashToSchedule(installments, amount.Sub(feePaid), closed, now, userID)

	payment := domain.LoanPayment{
		PaymentID:          uuid.NewString(),
		LoanID:             loanID,
		Amount:             amount,
		PrincipalComponent: principalPaid,
		InterestComponent:  interestPaid,
		LateFeeComponent:   feePaid,
		PaymentDate:        req.PaymentDate,
		Reference:          req.Reference,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	journal, lines, err := s.buildLoanJournal(ctx, loanJournalSpec{
		narration: fmt.Sprintf("Loan repayment %s", loanID),
		reference: payment.PaymentID,
		date:      req.PaymentDate,
		cashDebit: amount,
		legs: []journalLeg{
			{code: domain.CodeLoansReceivable, credit: principalPaid},
			{code: domain.CodeInterestIncome, credit: interestPaid},
			{code: domain.CodeLateFeeIncome, credit: feePaid},
		},
	}, now, userID)
	if err != nil {
		return nil, err
	}

	saved, err := s.loanRepo.ApplyPayment(ctx, updated, loan.OutstandingPrincipal, loan.OutstandingInterest, payment, changed, journal, lines)
	if err != nil {
		s.LogError(ctx, err, "Failed to persist payment", slog.String("loan_id", loanID))
		return nil, fmt.Errorf("failed to apply payment: %w", err)
	}

	s.LogInfo(ctx, "Payment allocated",
		slog.String("loan_id", loanID),
		slog.String("amount", amount.String()),
		slog.String("principal", principalPaid.String()),
		slog.String("interest", interestPaid.String()),
		slog.String("late_fee", feePaid.String()),
		slog.Bool("loan_closed", closed))

	return &dto.PaymentResult{
		Payment:              dto.ToPaymentResponse(saved),
		OutstandingPrincipal: updated.OutstandingPrincipal,
		OutstandingInterest:  updated.OutstandingInterest,
		LoanStatus:           updated.Status,
		LoanClosed:           closed,
	}, nil
}

// applyCashToSchedule spreads received cash across unpaid installments oldest
// first, and returns the installments whose paid amount or status changed.
// When the loan closed with this payment, every remaining installment is
// marked PAID: nothing further is owed under daily accrual.
func applyCashToSchedule(installments []domain.LoanInstallment, cash decimal.Decimal, loanClosed bool, now time.Time, userID string) []domain.LoanInstallment {
	changed := make([]domain.LoanInstallment, 0, len(installments))
	for i := range installments {
		inst := installments[i]
		if inst.Status == domain.InstallmentPaid {
			continue
		}

		before := inst
		owed := inst.TotalAmount.Sub(inst.PaidAmount)
		if cash.IsPositive() && owed.IsPositive() {
			pay := decimal.Min(cash, owed)
			inst.PaidAmount = inst.PaidAmount.Add(pay)
			cash = cash.Sub(pay)
		}

		switch {
		case inst.PaidAmount.GreaterThanOrEqual(inst.TotalAmount), loanClosed:
			inst.Status = domain.InstallmentPaid
		case inst.PaidAmount.IsPositive():
			inst.Status = domain.InstallmentPartial
		}

		if !inst.PaidAmount.Equal(before.PaidAmount) || inst.Status != before.Status {
			inst.LastUpdatedAt = now
			inst.LastUpdatedBy = userID
			changed = append(changed, inst)
		}
	}
	return changed
}

// CalculateSettlement prices an early payoff as of a date. FLAT loans get the
// policy discount on outstanding interest as a borrower incentive; DIMINISHING
// loans settle at full outstanding interest.
func (s *loanService) CalculateSettlement(ctx context.Context, loanID string, asOf time.Time) (*domain.SettlementQuote, error) {
	loan, err := s.loanRepo.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != domain.LoanActive {
		return nil, fmt.Errorf("%w: loan %s is %s", ErrLoanNotActive, loanID, loan.Status)
	}

	outstandingInterest := loan.OutstandingInterest.Add(accruedInterest(loan, asOf))
	discount := decimal.Zero
	if loan.InterestType == domain.Flat {
		discount = accounting.RoundMoney(outstandingInterest.Mul(s.policy.SettlementDiscountPercent).Div(decimal.NewFromInt(100)))
	}

	return &domain.SettlementQuote{
		LoanID:               loanID,
		AsOfDate:             asOf,
		OutstandingPrincipal: loan.OutstandingPrincipal,
		OutstandingInterest:  outstandingInterest,
		InterestDiscount:     discount,
		SettlementAmount:     loan.OutstandingPrincipal.Add(outstandingInterest).Sub(discount),
	}, nil
}

// SettleLoan executes an early settlement against a quote: all remaining
// installments are marked PAID, the outstanding position is zeroed, the
// settlement journal is posted and the loan transitions to CLOSED. Atomic.
func (s *loanService) SettleLoan(ctx context.Context, loanID string, quote domain.SettlementQuote, paymentDate time.Time, reference, userID string) (*domain.LoanPayment, error) {
	if quote.LoanID != loanID {
		return nil, fmt.Errorf("%w: quote is for loan %s", apperrors.ErrValidation, quote.LoanID)
	}

	loan, err := s.loanRepo.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != domain.LoanActive {
		return nil, fmt.Errorf("%w: loan %s is %s", ErrLoanNotActive, loanID, loan.Status)
	}
	if !quote.OutstandingPrincipal.Equal(loan.OutstandingPrincipal) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrConflict, ErrQuoteStale)
	}

	installments, err := s.loanRepo.FindInstallmentsByLoanID(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve schedule for loan %s: %w", loanID, err)
	}

	now := time.Now().UTC()
	interestNet := quote.OutstandingInterest.Sub(quote.InterestDiscount)

	updated := *loan
	updated.OutstandingPrincipal = decimal.Zero
	updated.OutstandingInterest = decimal.Zero
	updated.LastInterestAccrual = paymentDate
	updated.Status = domain.LoanClosed
	closure := paymentDate
	updated.ClosureDate = &closure
	updated.LastUpdatedAt = now
	updated.LastUpdatedBy = userID

	changed := make([]domain.LoanInstallment, 0, len(installments))
	for _, inst := range installments {
		if inst.Status == domain.InstallmentPaid {
			continue
		}
		inst.PaidAmount = inst.TotalAmount
		inst.Status = domain.InstallmentPaid
		inst.LastUpdatedAt = now
		inst.LastUpdatedBy = userID
		changed = append(changed, inst)
	}

	payment := domain.LoanPayment{
		PaymentID:          uuid.NewString(),
		LoanID:             loanID,
		Amount:             quote.SettlementAmount,
		PrincipalComponent: quote.OutstandingPrincipal,
		InterestComponent:  interestNet,
		LateFeeComponent:   decimal.Zero,
		PaymentDate:        paymentDate,
		Reference:          reference,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	journal, lines, err := s.buildLoanJournal(ctx, loanJournalSpec{
		narration: fmt.Sprintf("Early settlement of loan %s", loanID),
		reference: payment.PaymentID,
		date:      paymentDate,
		cashDebit: quote.SettlementAmount,
		legs: []journalLeg{
			{code: domain.CodeLoansReceivable, credit: quote.OutstandingPrincipal},
			{code: domain.CodeInterestIncome, credit: interestNet},
		},
	}, now, userID)
	if err != nil {
		return nil, err
	}

	saved, err := s.loanRepo.ApplyPayment(ctx, updated, loan.OutstandingPrincipal, loan.OutstandingInterest, payment, changed, journal, lines)
	if err != nil {
		s.LogError(ctx, err, "Failed to persist settlement", slog.String("loan_id", loanID))
		return nil, fmt.Errorf("failed to settle loan: %w", err)
	}

	s.LogInfo(ctx, "Loan settled",
		slog.String("loan_id", loanID),
		slog.String("settlement_amount", quote.SettlementAmount.String()),
		slog.String("interest_discount", quote.InterestDiscount.String()))
	return saved, nil
}

// MarkOverdueInstallments flips past-due PENDING/PARTIAL installments to
// OVERDUE. Run daily before computing portfolio metrics.
func (s *loanService) MarkOverdueInstallments(ctx context.Context, asOf time.Time) (int64, error) {
	count, err := s.loanRepo.MarkOverdueInstallments(ctx, asOf)
	if err != nil {
		s.LogError(ctx, err, "Failed to mark overdue installments")
		return 0, fmt.Errorf("failed to mark overdue installments: %w", err)
	}
	if count > 0 {
		s.LogInfo(ctx, "Installments marked overdue", slog.Int64("count", count))
	}
	return count, nil
}
