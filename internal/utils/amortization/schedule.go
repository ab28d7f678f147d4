package amortization

import (
	"fmt"
	"time"

	"github.com/coopledger/coopledger/internal/apperrors"
	"github.com/coopledger/coopledger/internal/core/domain"
	"github.com/coopledger/coopledger/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

var (
	twelveHundred = decimal.NewFromInt(1200)
	one           = decimal.NewFromInt(1)
)

// Entry is one period of an amortization schedule. Amounts are rounded to the
// currency minor unit.
type Entry struct {
	Number    int
	DueDate   time.Time
	Principal decimal.Decimal
	Interest  decimal.Decimal
	Total     decimal.Decimal
}

// Schedule is the full amortization of a loan. The sum of entry principals
// equals the original principal exactly: the final entry absorbs all rounding
// residue.
type Schedule struct {
	EMI     decimal.Decimal
	Entries []Entry
}

// ComputeSchedule builds the amortization schedule for a loan.
//
// FLAT: interest is principal*rate/1200 every month and the principal portion
// is a constant principal/tenure.
//
// DIMINISHING: the standard annuity formula
// emi = P*r*(1+r)^n / ((1+r)^n - 1) with monthly rate r = rate/1200; each
// period's interest is the outstanding principal times r. A zero rate
// degrades to an even principal split.
//
// Due dates advance by calendar months from firstPaymentDate.
func ComputeSchedule(principal, annualRatePercent decimal.Decimal, tenureMonths int, interestType domain.InterestType, firstPaymentDate time.Time) (*Schedule, error) {
	if !principal.IsPositive() {
		return nil, fmt.Errorf("%w: principal must be positive, got %s", apperrors.ErrValidation, principal)
	}
	if tenureMonths < 1 {
		return nil, fmt.Errorf("%w: tenure must be at least 1 month, got %d", apperrors.ErrValidation, tenureMonths)
	}
	if annualRatePercent.IsNegative() {
		return nil, fmt.Errorf("%w: interest rate must not be negative, got %s", apperrors.ErrValidation, annualRatePercent)
	}
	if !interestType.IsValid() {
		return nil, fmt.Errorf("%w: unknown interest type %q", apperrors.ErrValidation, interestType)
	}

	switch interestType {
	case domain.Flat:
		return flatSchedule(principal, annualRatePercent, tenureMonths, firstPaymentDate), nil
	default:
		return diminishingSchedule(principal, annualRatePercent, tenureMonths, firstPaymentDate), nil
	}
}

func flatSchedule(principal, annualRatePercent decimal.Decimal, tenureMonths int, firstPaymentDate time.Time) *Schedule {
	tenure := decimal.NewFromInt(int64(tenureMonths))
	monthlyInterest := accounting.RoundMoney(principal.Mul(annualRatePercent).Div(twelveHundred))
	monthlyPrincipal := accounting.RoundMoney(principal.Div(tenure))
	emi := monthlyPrincipal.Add(monthlyInterest)

	entries := make([]Entry, 0, tenureMonths)
	remaining := principal
	for i := 1; i <= tenureMonths; i++ {
		principalPart := monthlyPrincipal
		if i == tenureMonths {
			// Final installment absorbs the rounding residue so the schedule
			// amortizes the principal exactly.
			principalPart = remaining
		}
		remaining = remaining.Sub(principalPart)
		entries = append(entries, Entry{
			Number:    i,
			DueDate:   firstPaymentDate.AddDate(0, i-1, 0),
			Principal: principalPart,
			Interest:  monthlyInterest,
			Total:     principalPart.Add(monthlyInterest),
		})
	}
	return &Schedule{EMI: emi, Entries: entries}
}

func diminishingSchedule(principal, annualRatePercent decimal.Decimal, tenureMonths int, firstPaymentDate time.Time) *Schedule {
	tenure := decimal.NewFromInt(int64(tenureMonths))
	monthlyRate := annualRatePercent.Div(twelveHundred)

	var emi decimal.Decimal
	if monthlyRate.IsZero() {
		emi = accounting.RoundMoney(principal.Div(tenure))
	} else {
		// P * r * (1+r)^n / ((1+r)^n - 1)
		factor := one.Add(monthlyRate).Pow(tenure)
		emi = accounting.RoundMoney(principal.Mul(monthlyRate).Mul(factor).Div(factor.Sub(one)))
	}

	entries := make([]Entry, 0, tenureMonths)
	remaining := principal
	for i := 1; i <= tenureMonths; i++ {
		interest := accounting.RoundMoney(remaining.Mul(monthlyRate))
		principalPart := emi.Sub(interest)
		if i == tenureMonths || principalPart.GreaterThan(remaining) {
			// Final installment absorbs the rounding residue: its principal
			// is forced to whatever remains outstanding.
			principalPart = remaining
		}
		remaining = remaining.Sub(principalPart)
		entries = append(entries, Entry{
			Number:    i,
			DueDate:   firstPaymentDate.AddDate(0, i-1, 0),
			Principal: principalPart,
			Interest:  interest,
			Total:     principalPart.Add(interest),
		})
	}
	return &Schedule{EMI: emi, Entries: entries}
}
