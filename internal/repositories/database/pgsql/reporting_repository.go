package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/coopledger/coopledger/internal/core/domain"
	portsrepo "github.com/coopledger/coopledger/internal/core/ports/repositories"
	"github.com/coopledger/coopledger/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxReportingRepository struct {
	pool *pgxpool.Pool
}

// newPgxReportingRepository creates a new repository for report aggregations.
func newPgxReportingRepository(pool *pgxpool.Pool) portsrepo.ReportingRepository {
	return &PgxReportingRepository{pool: pool}
}

// Ensure PgxReportingRepository implements portsrepo.ReportingRepository
var _ portsrepo.ReportingRepository = (*PgxReportingRepository)(nil)

// GetActivityByType aggregates posted debit/credit totals per account for the
// given account types, ordered by code. Accounts with no posted lines in the
// window are omitted.
func (r *PgxReportingRepository) GetActivityByType(ctx context.Context, types []domain.AccountType, from, to *time.Time) ([]portsrepo.AccountActivity, error) {
	typeStrings := make([]string, len(types))
	for i, t := range types {
		typeStrings[i] = string(t)
	}

	query := `
		SELECT a.account_id, a.code, a.name, a.account_type, a.description, a.is_active,
		       a.created_at, a.created_by, a.last_updated_at, a.last_updated_by,
		       COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
		FROM accounts a
		JOIN journal_lines l ON l.account_id = a.account_id
		JOIN journals j ON j.journal_id = l.journal_id
		WHERE a.account_type = ANY($1) AND j.status = $2
	`
	args := []any{typeStrings, models.Posted}
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
	query += `
		GROUP BY a.account_id
		ORDER BY a.code;
	`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate account activity: %w", err)
	}
	defer rows.Close()

	var activity []portsrepo.AccountActivity
	for rows.Next() {
		var act portsrepo.AccountActivity
		err := rows.Scan(
			&act.Account.AccountID,
			&act.Account.Code,
			&act.Account.Name,
			&act.Account.AccountType,
			&act.Account.Description,
			&act.Account.IsActive,
			&act.Account.CreatedAt,
			&act.Account.CreatedBy,
			&act.Account.LastUpdatedAt,
			&act.Account.LastUpdatedBy,
			&act.TotalDebit,
			&act.TotalCredit,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		activity = append(activity, act)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}
	return activity, nil
}

// GetGeneralLedgerLines returns one account's posted lines in a window,
// chronological, with journal metadata attached. The running balance column
// is left for the service layer to fill.
func (r *PgxReportingRepository) GetGeneralLedgerLines(ctx context.Context, accountID string, from, to time.Time) ([]domain.GeneralLedgerLine, error) {
	query := `
		SELECT j.journal_id, j.entry_number, j.journal_date, j.narration, l.debit, l.credit
		FROM journal_lines l
		JOIN journals j ON j.journal_id = l.journal_id
		WHERE l.account_id = $1 AND j.status = $2 AND j.journal_date >= $3 AND j.journal_date <= $4
		ORDER BY j.journal_date, j.created_at, l.line_id;
	`
	rows, err := r.pool.Query(ctx, query, accountID, models.Posted, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger lines for account %s: %w", accountID, err)
	}
	defer rows.Close()

	var lines []domain.GeneralLedgerLine
	for rows.Next() {
		var line domain.GeneralLedgerLine
		err := rows.Scan(
			&line.JournalID,
			&line.EntryNumber,
			&line.JournalDate,
			&line.Narration,
			&line.Debit,
			&line.Credit,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger lines: %w", err)
	}
	return lines, nil
}
