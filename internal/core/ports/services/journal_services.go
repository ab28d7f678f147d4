package services

import (
	"context"
	"time"

	"github.com/coopledger/coopledger/internal/core/domain"
	"github.com/coopledger/coopledger/internal/dto"
	"github.com/shopspring/decimal"
)

// JournalReaderSvc defines read operations for journal data
type JournalReaderSvc interface {
	// GetJournalByID retrieves a specific journal with its lines.
	GetJournalByID(ctx context.Context, journalID string) (*domain.Journal, error)

	// ListJournals retrieves a paginated list of journals.
	ListJournals(ctx context.Context, params dto.ListJournalsParams) (*dto.ListJournalsResponse, error)
}

// JournalWriterSvc defines write operations for journal data
type JournalWriterSvc interface {
	// PostJournalEntry validates and persists a new journal with its lines.
	// Entries created manually start as DRAFT unless the request posts them
	// directly; the whole operation fails on any unbalanced or invalid line.
	PostJournalEntry(ctx context.Context, req dto.CreateJournalRequest, creatorUserID string) (*domain.Journal, error)

	// PostMappedTransaction records one of the canonical financial actions
	// (deposit, withdrawal, disbursement, ...) as a balanced POSTED journal
	// resolved through the fixed posting-rule table.
	PostMappedTransaction(ctx context.Context, kind domain.TransactionKind, amount decimal.Decimal, date time.Time, narration, reference, userID string) (*domain.Journal, error)

	// ApproveJournal transitions a DRAFT journal to POSTED.
	ApproveJournal(ctx context.Context, journalID string, approverUserID string) (*domain.Journal, error)

	// ReverseJournal reverses a journal: a DRAFT is marked REVERSED in place,
	// a POSTED journal gets a compensating journal with swapped sides. The
	// reason is mandatory.
	ReverseJournal(ctx context.Context, journalID string, reason string, userID string) (*domain.Journal, error)
}

// BalanceCalculatorSvc defines balance derivation over posted journal lines
type BalanceCalculatorSvc interface {
	// AccountBalance computes the balance of an account from its POSTED
	// debit/credit totals within an optional date window, applying the
	// account-type sign convention.
	AccountBalance(ctx context.Context, accountID string, from, to *time.Time) (decimal.Decimal, error)
}

// JournalSvcFacade combines all journal-related service interfaces
type JournalSvcFacade interface {
	JournalReaderSvc
	JournalWriterSvc
	BalanceCalculatorSvc
}
