package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalStatus indicates the state of a journal entry.
type JournalStatus string

const (
	Draft    JournalStatus = "DRAFT"
	Posted   JournalStatus = "POSTED"
	Reversed JournalStatus = "REVERSED"
)

// Journal represents a single, balanced financial event composed of multiple lines.
// Only POSTED journals contribute to account balances. POSTED and REVERSED
// journals are immutable.
type Journal struct {
	JournalID          string        `json:"journalID"`   // Primary Key (UUID)
	EntryNumber        string        `json:"entryNumber"` // Unique, human-readable (JE-YYYYMMDD-NNNN)
	JournalDate        time.Time     `json:"journalDate"` // Date the event occurred
	Narration          string        `json:"narration"`
	Reference          string        `json:"reference"` // Nullable external reference
	Status             JournalStatus `json:"status"`
	OriginalJournalID  *string       `json:"originalJournalID,omitempty"`  // Set on a reversing journal
	ReversingJournalID *string       `json:"reversingJournalID,omitempty"` // Set on the journal that was reversed
	ReversalReason     string        `json:"reversalReason,omitempty"`

	// Amount is the economic value of the journal: the sum of its debit side,
	// which for a balanced journal equals the sum of its credit side.
	Amount decimal.Decimal `json:"amount"`

	Lines []JournalLine `json:"lines,omitempty"` // Often loaded separately
	AuditFields
}

// JournalLine is a single line item within a Journal, affecting one account.
// Exactly one of Debit/Credit is nonzero; both are non-negative.
type JournalLine struct {
	LineID    string          `json:"lineID"`    // Primary Key (UUID)
	JournalID string          `json:"journalID"` // FK -> Journal.journalID
	AccountID string          `json:"accountID"` // FK -> Account.accountID
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Notes     string          `json:"notes"` // Nullable
	AuditFields
}

// IsDebit reports whether the line carries its amount on the debit side.
func (l JournalLine) IsDebit() bool {
	return l.Debit.IsPositive()
}

// Amount returns the nonzero side of the line.
func (l JournalLine) Amount() decimal.Decimal {
	if l.IsDebit() {
		return l.Debit
	}
	return l.Credit
}
