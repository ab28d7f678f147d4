package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coopledger/coopledger/internal/apperrors"
	"github.com/coopledger/coopledger/internal/core/domain"
	portsrepo "github.com/coopledger/coopledger/internal/core/ports/repositories"
	"github.com/coopledger/coopledger/internal/models"
	"github.com/coopledger/coopledger/internal/utils/mapping"
	"github.com/coopledger/coopledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const journalColumns = `journal_id, entry_number, journal_date, narration, reference, status, original_journal_id, reversing_journal_id, reversal_reason, amount, created_at, created_by, last_updated_at, last_updated_by`

type PgxJournalRepository struct {
	BaseRepository
}

// newPgxJournalRepository creates a new repository for journal and line data.
func newPgxJournalRepository(pool *pgxpool.Pool) portsrepo.JournalRepositoryWithTx {
	return &PgxJournalRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxJournalRepository implements portsrepo.JournalRepositoryWithTx
var _ portsrepo.JournalRepositoryWithTx = (*PgxJournalRepository)(nil)

// nextEntryNumber increments the daily counter row inside tx and formats the
// sequential entry number. The row lock serializes concurrent posters on the
// same day, so numbers are gapless per committed day.
func nextEntryNumber(ctx context.Context, tx pgx.Tx, journalDate time.Time) (string, error) {
	seqDate := journalDate.Format("2006-01-02")
	query := `
		INSERT INTO journal_entry_sequences (seq_date, last_value)
		VALUES ($1, 1)
		ON CONFLICT (seq_date) DO UPDATE SET last_value = journal_entry_sequences.last_value + 1
		RETURNING last_value;
	`
	var seq int64
	if err := tx.QueryRow(ctx, query, seqDate).Scan(&seq); err != nil {
		return "", fmt.Errorf("failed to advance entry sequence for %s: %w", seqDate, err)
	}
	return fmt.Sprintf("JE-%s-%04d", journalDate.Format("20060102"), seq), nil
}

// SaveJournalInTx persists a journal and its lines within the caller's
// transaction, assigning the entry number. Loan flows use this to post their
// journal in the same atomic unit as the loan mutation.
func (r *PgxJournalRepository) SaveJournalInTx(ctx context.Context, tx pgx.Tx, journal domain.Journal, lines []domain.JournalLine) (string, error) {
	entryNumber, err := nextEntryNumber(ctx, tx, journal.JournalDate)
	if err != nil {
		return "", err
	}

	m := mapping.ToModelJournal(journal)
	m.EntryNumber = entryNumber

	journalQuery := `
		INSERT INTO journals (` + journalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err = tx.Exec(ctx, journalQuery,
		m.JournalID,
		m.EntryNumber,
		m.JournalDate,
		m.Narration,
		m.Reference,
		m.Status,
		m.OriginalJournalID,
		m.ReversingJournalID,
		m.ReversalReason,
		m.Amount,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert journal %s: %w", m.JournalID, err)
	}

	batch := &pgx.Batch{}
	lineQuery := `
		INSERT INTO journal_lines (line_id, journal_id, account_id, debit, credit, notes, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	for _, line := range lines {
		ml := mapping.ToModelJournalLine(line)
		batch.Queue(lineQuery,
			ml.LineID,
			ml.JournalID,
			ml.AccountID,
			ml.Debit,
			ml.Credit,
			ml.Notes,
			ml.CreatedAt,
			ml.CreatedBy,
			ml.LastUpdatedAt,
			ml.LastUpdatedBy,
		)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return "", fmt.Errorf("failed to insert lines for journal %s: %w", m.JournalID, err)
	}
	return entryNumber, nil
}

// SaveJournal persists a journal and its lines in a new transaction and
// returns the journal with its assigned entry number.
func (r *PgxJournalRepository) SaveJournal(ctx context.Context, journal domain.Journal, lines []domain.JournalLine) (*domain.Journal, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	entryNumber, err := r.SaveJournalInTx(ctx, tx, journal, lines)
	if err != nil {
		return nil, err
	}
	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}

	journal.EntryNumber = entryNumber
	journal.Lines = lines
	return &journal, nil
}

func scanJournal(row pgx.Row) (*models.Journal, error) {
	var m models.Journal
	err := row.Scan(
		&m.JournalID,
		&m.EntryNumber,
		&m.JournalDate,
		&m.Narration,
		&m.Reference,
		&m.Status,
		&m.OriginalJournalID,
		&m.ReversingJournalID,
		&m.ReversalReason,
		&m.Amount,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindJournalByID retrieves a journal by its ID, without lines.
func (r *PgxJournalRepository) FindJournalByID(ctx context.Context, journalID string) (*domain.Journal, error) {
	query := `SELECT ` + journalColumns + ` FROM journals WHERE journal_id = $1;`

	m, err := scanJournal(r.Pool.QueryRow(ctx, query, journalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, journalID)
		}
		return nil, fmt.Errorf("failed to find journal %s: %w", journalID, err)
	}
	j := mapping.ToDomainJournal(*m)
	return &j, nil
}

// FindLinesByJournalID retrieves all lines of a journal in insertion order.
func (r *PgxJournalRepository) FindLinesByJournalID(ctx context.Context, journalID string) ([]domain.JournalLine, error) {
	query := `
		SELECT line_id, journal_id, account_id, debit, credit, notes, created_at, created_by, last_updated_at, last_updated_by
		FROM journal_lines
		WHERE journal_id = $1
		ORDER BY created_at, line_id;
	`
	rows, err := r.Pool.Query(ctx, query, journalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines for journal %s: %w", journalID, err)
	}
	defer rows.Close()

	var lines []models.JournalLine
	for rows.Next() {
		var m models.JournalLine
		err := rows.Scan(
			&m.LineID,
			&m.JournalID,
			&m.AccountID,
			&m.Debit,
			&m.Credit,
			&m.Notes,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal line: %w", err)
		}
		lines = append(lines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal lines: %w", err)
	}
	return mapping.ToDomainJournalLineSlice(lines), nil
}

// ListJournals retrieves journals newest first with token-based pagination.
func (r *PgxJournalRepository) ListJournals(ctx context.Context, limit int, nextToken *string, includeReversals bool) ([]domain.Journal, *string, error) {
	query := `SELECT ` + journalColumns + ` FROM journals`

	var conditions []string
	var args []any
	argIdx := 1

	if !includeReversals {
		conditions = append(conditions, "original_journal_id IS NULL")
	}
	if nextToken != nil && *nextToken != "" {
		journalDate, createdAt, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err)
		}
		conditions = append(conditions, fmt.Sprintf("(journal_date, created_at) < ($%d, $%d)", argIdx, argIdx+1))
		args = append(args, journalDate, createdAt)
		argIdx += 2
	}

	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	// Fetch one extra row to detect whether a next page exists.
	query += fmt.Sprintf(" ORDER BY journal_date DESC, created_at DESC LIMIT $%d;", argIdx)
	args = append(args, limit+1)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list journals: %w", err)
	}
	defer rows.Close()

	var journalModels []models.Journal
	for rows.Next() {
		m, err := scanJournal(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		journalModels = append(journalModels, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating journal rows: %w", err)
	}

	var newNextToken *string
	if len(journalModels) > limit {
		journalModels = journalModels[:limit]
		last := journalModels[len(journalModels)-1]
		token := pagination.EncodeToken(last.JournalDate, last.CreatedAt)
		newNextToken = &token
	}

	journals := make([]domain.Journal, len(journalModels))
	for i, m := range journalModels {
		journals[i] = mapping.ToDomainJournal(m)
	}
	return journals, newNextToken, nil
}

// GetAccountActivity sums posted debit and credit amounts for an account
// within an optional date window.
func (r *PgxJournalRepository) GetAccountActivity(ctx context.Context, accountID string, from, to *time.Time) (decimal.Decimal, decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
		FROM journal_lines l
		JOIN journals j ON j.journal_id = l.journal_id
		WHERE l.account_id = $1 AND j.status = $2
	`
	args := []any{accountID, models.Posted}
	argIdx := 3

	if from != nil {
		query += fmt.Sprintf(" AND j.journal_date >= $%d", argIdx)
		args = append(args, *from)
		argIdx++
	}
	if to != nil {
		query += fmt.Sprintf(" AND j.journal_date <= $%d", argIdx)
		args = append(args, *to)
	}
	query += ";"

	var totalDebit, totalCredit decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, args...).Scan(&totalDebit, &totalCredit); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("failed to sum activity for account %s: %w", accountID, err)
	}
	return totalDebit, totalCredit, nil
}

// execer is satisfied by both pgx.Tx and *pgxpool.Pool.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// updateJournalStatus runs the guarded status transition against db. The
// status predicate in the WHERE clause makes the transition first-writer-wins:
// a journal that was concurrently posted or reversed matches zero rows.
func updateJournalStatus(ctx context.Context, db execer, journalID string, from, to domain.JournalStatus, reversalReason string, reversingJournalID *string, updatedByUserID string, updatedAt time.Time) error {
	query := `
		UPDATE journals
		SET status = $3, reversal_reason = $4, reversing_journal_id = COALESCE($5, reversing_journal_id), last_updated_at = $6, last_updated_by = $7
		WHERE journal_id = $1 AND status = $2;
	`
	tag, err := db.Exec(ctx, query, journalID, models.JournalStatus(from), models.JournalStatus(to), reversalReason, reversingJournalID, updatedAt, updatedByUserID)
	if err != nil {
		return fmt.Errorf("failed to update status of journal %s: %w", journalID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: journal %s is missing or no longer %s", apperrors.ErrConflict, journalID, from)
	}
	return nil
}

// UpdateJournalStatus transitions a journal's status and reversal linkage,
// guarded on the expected current status.
func (r *PgxJournalRepository) UpdateJournalStatus(ctx context.Context, journalID string, from, to domain.JournalStatus, reversalReason string, reversingJournalID *string, updatedByUserID string, updatedAt time.Time) error {
	return updateJournalStatus(ctx, r.Pool, journalID, from, to, reversalReason, reversingJournalID, updatedByUserID, updatedAt)
}

// UpdateJournalStatusInTx is the guarded transition within the caller's
// transaction.
func (r *PgxJournalRepository) UpdateJournalStatusInTx(ctx context.Context, tx pgx.Tx, journalID string, from, to domain.JournalStatus, reversalReason string, reversingJournalID *string, updatedByUserID string, updatedAt time.Time) error {
	return updateJournalStatus(ctx, tx, journalID, from, to, reversalReason, reversingJournalID, updatedByUserID, updatedAt)
}
