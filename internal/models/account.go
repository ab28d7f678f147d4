package models

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Income    AccountType = "INCOME"
	Expense   AccountType = "EXPENSE"
)

// Account represents a chart-of-accounts row.
type Account struct {
	AccountID   string      `db:"account_id"`
	Code        string      `db:"code"` // Unique ledger code (e.g. "1001")
	Name        string      `db:"name"`
	AccountType AccountType `db:"account_type"`
	Description string      `db:"description"`
	IsActive    bool        `db:"is_active"`
	AuditFields
}
