package accounting

import (
	"fmt"

	"github.com/coopledger/coopledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// MinorUnitPlaces is the number of decimal places of the currency minor unit.
const MinorUnitPlaces = 2

// RoundMoney rounds an amount to the currency minor unit, half up.
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MinorUnitPlaces)
}

// NormalSide reports whether the account type's balance normally sits on the
// debit side. ASSET and EXPENSE balances are debit-normal; LIABILITY, EQUITY
// and INCOME balances are credit-normal.
func NormalSide(accountType domain.AccountType) (debitNormal bool, err error) {
	switch accountType {
	case domain.Asset, domain.Expense:
		return true, nil
	case domain.Liability, domain.Equity, domain.Income:
		return false, nil
	default:
		return false, fmt.Errorf("unknown account type %q", accountType)
	}
}

// BalanceFromTotals derives an account balance from its posted debit and
// credit totals, applying the sign convention for the account type:
//
//	ASSET, EXPENSE            -> totalDebit - totalCredit
//	LIABILITY, EQUITY, INCOME -> totalCredit - totalDebit
//
// Every balance, report row and identity check in the system goes through
// this function; the convention is never applied anywhere else.
func BalanceFromTotals(accountType domain.AccountType, totalDebit, totalCredit decimal.Decimal) (decimal.Decimal, error) {
	debitNormal, err := NormalSide(accountType)
	if err != nil {
		return decimal.Zero, err
	}
	if debitNormal {
		return totalDebit.Sub(totalCredit), nil
	}
	return totalCredit.Sub(totalDebit), nil
}

// ValidateJournalBalance checks the double-entry invariant for a set of lines:
// every line carries exactly one positive side, and the debit and credit sums
// are exactly equal at minor-unit precision.
func ValidateJournalBalance(lines []domain.JournalLine) error {
	if len(lines) < 2 {
		return fmt.Errorf("journal must have at least two lines")
	}

	debitsSum := decimal.Zero
	creditsSum := decimal.Zero

	for i, line := range lines {
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return fmt.Errorf("line %d: debit and credit amounts must not be negative", i+1)
		}
		hasDebit := line.Debit.IsPositive()
		hasCredit := line.Credit.IsPositive()
		if hasDebit == hasCredit {
			return fmt.Errorf("line %d: exactly one of debit or credit must be nonzero", i+1)
		}
		debitsSum = debitsSum.Add(line.Debit)
		creditsSum = creditsSum.Add(line.Credit)
	}

	if !debitsSum.Equal(creditsSum) {
		return fmt.Errorf("journal does not balance: debits %s, credits %s, difference %s",
			debitsSum.String(), creditsSum.String(), debitsSum.Sub(creditsSum).String())
	}
	return nil
}
