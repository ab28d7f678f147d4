package models

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

// Journal represents a single balanced financial event composed of multiple lines.
type Journal struct {
	JournalID          string        `db:"journal_id"`
	EntryNumber        string        `db:"entry_number"` // Sequential human-readable id, assigned at save
	JournalDate        time.Time     `db:"journal_date"`
	Narration          string        `db:"narration"`
	Reference          string        `db:"reference"` // Nullable external reference
	Status             JournalStatus `db:"status"`
	OriginalJournalID  *string       `db:"original_journal_id"`  // Set on reversal entries
	ReversingJournalID *string       `db:"reversing_journal_id"` // Set on reversed entries
	ReversalReason     string        `db:"reversal_reason"`
	// Amount is the journal's total debit side, persisted for listing views.
	Amount decimal.Decimal `db:"amount"`
	AuditFields
}

// JournalLine represents one line of a journal, affecting a single account.
// Exactly one of Debit/Credit is positive; the other is zero.
type JournalLine struct {
	LineID    string          `db:"line_id"`
	JournalID string          `db:"journal_id"`
	AccountID string          `db:"account_id"`
	Debit     decimal.Decimal `db:"debit"`
	Credit    decimal.Decimal `db:"credit"`
	Notes     string          `db:"notes"`
	AuditFields
}
