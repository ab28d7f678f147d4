package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Income    AccountType = "INCOME"
	Expense   AccountType = "EXPENSE"
)

// IsValid reports whether t is one of the five ledger account types.
func (t AccountType) IsValid() bool {
	switch t {
	case Asset, Liability, Equity, Income, Expense:
		return true
	}
	return false
}

// Account represents a ledger account in the chart of accounts.
// This is the primary representation used by services.
// AccountType is immutable after creation: the sign convention used to
// derive balances depends on it.
type Account struct {
	AccountID   string      `json:"accountID"`   // Primary Key (UUID)
	Code        string      `json:"code"`        // Unique, external-facing chart-of-accounts code
	Name        string      `json:"name"`        // User-defined name
	AccountType AccountType `json:"accountType"` // ASSET, LIABILITY, etc.
	Description string      `json:"description"` // Nullable user description
	IsActive    bool        `json:"isActive"`    // Inactive accounts cannot be posted to
	AuditFields
}
