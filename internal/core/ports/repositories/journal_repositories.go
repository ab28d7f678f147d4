package repositories

import (
	"context"
	"time"

	"github.com/coopledger/coopledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// JournalReader defines read operations for journal data
type JournalReader interface {
	// FindJournalByID retrieves a specific journal by its unique identifier.
	FindJournalByID(ctx context.Context, journalID string) (*domain.Journal, error)

	// ListJournals retrieves a paginated list of journals using token-based
	// pagination. It returns the journals, a token for the next page, and an error.
	ListJournals(ctx context.Context, limit int, nextToken *string, includeReversals bool) ([]domain.Journal, *string, error)

	// GetAccountActivity sums the posted debit and credit amounts for an
	// account within an optional date window. Only POSTED journals count.
	GetAccountActivity(ctx context.Context, accountID string, from, to *time.Time) (totalDebit, totalCredit decimal.Decimal, err error)
}

// JournalWriter defines write operations for journal data
type JournalWriter interface {
	// SaveJournal persists a journal and its lines atomically, assigning the
	// entry number from the transactional daily sequence. It returns the
	// journal as persisted.
	SaveJournal(ctx context.Context, journal domain.Journal, lines []domain.JournalLine) (*domain.Journal, error)

	// UpdateJournalStatus transitions a journal from an expected current status
	// to a new one, recording the reversal reason and linkage where applicable.
	// When the journal is missing or no longer in the expected status, it
	// returns an error wrapping apperrors.ErrConflict and changes nothing.
	UpdateJournalStatus(ctx context.Context, journalID string, from, to domain.JournalStatus, reversalReason string, reversingJournalID *string, updatedByUserID string, updatedAt time.Time) error
}

// LineReader defines read operations for journal line data
type LineReader interface {
	// FindLinesByJournalID retrieves all lines of a single journal.
	FindLinesByJournalID(ctx context.Context, journalID string) ([]domain.JournalLine, error)
}

// JournalTransactionSupport exposes journal persistence inside a caller-owned
// database transaction, so multi-journal flows (loan mutations, posted
// reversals) can run as one atomic unit.
type JournalTransactionSupport interface {
	// SaveJournalInTx persists a journal and its lines within tx and returns
	// the assigned entry number.
	SaveJournalInTx(ctx context.Context, tx pgx.Tx, journal domain.Journal, lines []domain.JournalLine) (string, error)

	// UpdateJournalStatusInTx is UpdateJournalStatus within the caller's
	// transaction, with the same expected-status guard.
	UpdateJournalStatusInTx(ctx context.Context, tx pgx.Tx, journalID string, from, to domain.JournalStatus, reversalReason string, reversingJournalID *string, updatedByUserID string, updatedAt time.Time) error
}

// JournalRepositoryFacade combines all journal-related repository interfaces
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
	LineReader
	JournalTransactionSupport
}

// JournalRepositoryWithTx extends JournalRepositoryFacade with transaction capabilities
type JournalRepositoryWithTx interface {
	JournalRepositoryFacade
	TransactionManager
}
