package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrialBalanceRow represents a single account in a trial balance report.
// The balance sits in the debit or credit column according to the account
// type's normal side; zero-balance accounts are dropped from the report.
type TrialBalanceRow struct {
	AccountID   string          `json:"accountID"`
	Code        string          `json:"code"`
	AccountName string          `json:"accountName"`
	AccountType AccountType     `json:"accountType"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// TrialBalanceReport is the trial balance as of a date. TotalDebits and
// TotalCredits must be equal; OutOfBalance flags a ledger defect, not a valid
// report state.
type TrialBalanceReport struct {
	AsOf         time.Time         `json:"asOf"`
	Rows         []TrialBalanceRow `json:"rows"`
	TotalDebits  decimal.Decimal   `json:"totalDebits"`
	TotalCredits decimal.Decimal   `json:"totalCredits"`
	OutOfBalance bool              `json:"outOfBalance"`
}

// AccountAmount represents an account with its net amount for financial reports.
type AccountAmount struct {
	AccountID string          `json:"accountID"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	NetAmount decimal.Decimal `json:"netAmount"`
}

// IncomeStatementReport covers INCOME and EXPENSE accounts over a period.
type IncomeStatementReport struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	Income        []AccountAmount `json:"income"`
	Expenses      []AccountAmount `json:"expenses"`
	TotalIncome   decimal.Decimal `json:"totalIncome"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	NetIncome     decimal.Decimal `json:"netIncome"`
}

// BalanceSheetReport is the statement of financial position as of a date.
// Equity includes a synthetic current-year retained earnings row that is
// derived at report time and never persisted.
type BalanceSheetReport struct {
	AsOf             time.Time       `json:"asOf"`
	Assets           []AccountAmount `json:"assets"`
	Liabilities      []AccountAmount `json:"liabilities"`
	Equity           []AccountAmount `json:"equity"`
	TotalAssets      decimal.Decimal `json:"totalAssets"`
	TotalLiabilities decimal.Decimal `json:"totalLiabilities"`
	TotalEquity      decimal.Decimal `json:"totalEquity"`
	// Balanced asserts the accounting identity assets == liabilities + equity.
	Balanced bool `json:"balanced"`
}

// GeneralLedgerLine is one journal line in an account's ledger view.
type GeneralLedgerLine struct {
	JournalID      string          `json:"journalID"`
	EntryNumber    string          `json:"entryNumber"`
	JournalDate    time.Time       `json:"journalDate"`
	Narration      string          `json:"narration"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	RunningBalance decimal.Decimal `json:"runningBalance"`
}

// GeneralLedgerReport is the chronological ledger of a single account over a
// period, with the opening balance taken as of the day before the period start.
type GeneralLedgerReport struct {
	AccountID      string              `json:"accountID"`
	From           time.Time           `json:"from"`
	To             time.Time           `json:"to"`
	OpeningBalance decimal.Decimal     `json:"openingBalance"`
	Lines          []GeneralLedgerLine `json:"lines"`
	TotalDebits    decimal.Decimal     `json:"totalDebits"`
	TotalCredits   decimal.Decimal     `json:"totalCredits"`
	ClosingBalance decimal.Decimal     `json:"closingBalance"`
}

// PortfolioMetrics is the read-only risk snapshot over the loan book.
// Ratios are fractions in [0,1]; a zero denominator yields zero.
type PortfolioMetrics struct {
	PAR1                      decimal.Decimal `json:"par1"`
	PAR7                      decimal.Decimal `json:"par7"`
	PAR30                     decimal.Decimal `json:"par30"`
	CollectionEfficiencyToday decimal.Decimal `json:"collectionEfficiencyToday"`
	CollectionEfficiencyMTD   decimal.Decimal `json:"collectionEfficiencyMTD"`
}
