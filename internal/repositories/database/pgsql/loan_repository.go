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
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const loanColumns = `loan_id, borrower_id, principal_amount, interest_rate, tenure_months, interest_type, disbursement_date, first_payment_date, emi_amount, outstanding_principal, outstanding_interest, last_interest_accrual, status, closure_date, created_at, created_by, last_updated_at, last_updated_by`

const installmentColumns = `installment_id, loan_id, installment_number, due_date, principal_amount, interest_amount, total_amount, paid_amount, status, created_at, created_by, last_updated_at, last_updated_by`

type PgxLoanRepository struct {
	BaseRepository
	journalTx portsrepo.JournalTransactionSupport
}

// newPgxLoanRepository creates a new repository for loan data. The journal
// transaction support lets every loan mutation post its journal in the same
// database transaction.
func newPgxLoanRepository(pool *pgxpool.Pool, journalTx portsrepo.JournalTransactionSupport) portsrepo.LoanRepositoryFacade {
	return &PgxLoanRepository{
		BaseRepository: BaseRepository{Pool: pool},
		journalTx:      journalTx,
	}
}

// Ensure PgxLoanRepository implements portsrepo.LoanRepositoryFacade
var _ portsrepo.LoanRepositoryFacade = (*PgxLoanRepository)(nil)

func scanLoan(row pgx.Row) (*models.Loan, error) {
	var m models.Loan
	err := row.Scan(
		&m.LoanID,
		&m.BorrowerID,
		&m.PrincipalAmount,
		&m.InterestRate,
		&m.TenureMonths,
		&m.InterestType,
		&m.DisbursementDate,
		&m.FirstPaymentDate,
		&m.EMIAmount,
		&m.OutstandingPrincipal,
		&m.OutstandingInterest,
		&m.LastInterestAccrual,
		&m.Status,
		&m.ClosureDate,
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

func scanInstallment(row pgx.Row) (*models.LoanInstallment, error) {
	var m models.LoanInstallment
	err := row.Scan(
		&m.InstallmentID,
		&m.LoanID,
		&m.InstallmentNumber,
		&m.DueDate,
		&m.PrincipalAmount,
		&m.InterestAmount,
		&m.TotalAmount,
		&m.PaidAmount,
		&m.Status,
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

// FindLoanByID retrieves a loan by its ID.
func (r *PgxLoanRepository) FindLoanByID(ctx context.Context, loanID string) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE loan_id = $1;`

	m, err := scanLoan(r.Pool.QueryRow(ctx, query, loanID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: loan %s", apperrors.ErrNotFound, loanID)
		}
		return nil, fmt.Errorf("failed to find loan %s: %w", loanID, err)
	}
	loan := mapping.ToDomainLoan(*m)
	return &loan, nil
}

// FindInstallmentsByLoanID retrieves a loan's schedule ordered by number.
func (r *PgxLoanRepository) FindInstallmentsByLoanID(ctx context.Context, loanID string) ([]domain.LoanInstallment, error) {
	query := `SELECT ` + installmentColumns + ` FROM loan_installments WHERE loan_id = $1 ORDER BY installment_number;`

	rows, err := r.Pool.Query(ctx, query, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query installments for loan %s: %w", loanID, err)
	}
	defer rows.Close()

	var installments []models.LoanInstallment
	for rows.Next() {
		m, err := scanInstallment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan installment row: %w", err)
		}
		installments = append(installments, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating installment rows: %w", err)
	}
	return mapping.ToDomainInstallmentSlice(installments), nil
}

// FindPaymentsByLoanID retrieves a loan's payments oldest first.
func (r *PgxLoanRepository) FindPaymentsByLoanID(ctx context.Context, loanID string) ([]domain.LoanPayment, error) {
	query := `
		SELECT payment_id, loan_id, amount, principal_component, interest_component, late_fee_component, payment_date, reference, journal_id, created_at, created_by, last_updated_at, last_updated_by
		FROM loan_payments
		WHERE loan_id = $1
		ORDER BY payment_date, created_at;
	`
	rows, err := r.Pool.Query(ctx, query, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments for loan %s: %w", loanID, err)
	}
	defer rows.Close()

	var payments []models.LoanPayment
	for rows.Next() {
		var m models.LoanPayment
		err := rows.Scan(
			&m.PaymentID,
			&m.LoanID,
			&m.Amount,
			&m.PrincipalComponent,
			&m.InterestComponent,
			&m.LateFeeComponent,
			&m.PaymentDate,
			&m.Reference,
			&m.JournalID,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		payments = append(payments, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment rows: %w", err)
	}
	return mapping.ToDomainPaymentSlice(payments), nil
}

// ListLoans retrieves loans newest first, optionally filtered by status.
func (r *PgxLoanRepository) ListLoans(ctx context.Context, status *domain.LoanStatus) ([]domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans`
	var args []any
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, models.LoanStatus(*status))
	}
	query += ` ORDER BY created_at DESC;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	var loans []models.Loan
	for rows.Next() {
		m, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan row: %w", err)
		}
		loans = append(loans, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating loan rows: %w", err)
	}
	return mapping.ToDomainLoanSlice(loans), nil
}

// CreateLoanWithSchedule persists a new loan, its schedule and the
// disbursement journal in one transaction.
func (r *PgxLoanRepository) CreateLoanWithSchedule(ctx context.Context, loan domain.Loan, schedule []domain.LoanInstallment, journal domain.Journal, lines []domain.JournalLine) (*domain.Loan, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	if err := insertLoan(ctx, tx, mapping.ToModelLoan(loan)); err != nil {
		return nil, err
	}

	batch := &pgx.Batch{}
	instQuery := `
		INSERT INTO loan_installments (` + installmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	for _, inst := range schedule {
		mi := mapping.ToModelInstallment(inst)
		batch.Queue(instQuery,
			mi.InstallmentID,
			mi.LoanID,
			mi.InstallmentNumber,
			mi.DueDate,
			mi.PrincipalAmount,
			mi.InterestAmount,
			mi.TotalAmount,
			mi.PaidAmount,
			mi.Status,
			mi.CreatedAt,
			mi.CreatedBy,
			mi.LastUpdatedAt,
			mi.LastUpdatedBy,
		)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return nil, fmt.Errorf("failed to insert schedule for loan %s: %w", loan.LoanID, err)
	}

	if _, err := r.journalTx.SaveJournalInTx(ctx, tx, journal, lines); err != nil {
		return nil, fmt.Errorf("failed to post disbursement journal for loan %s: %w", loan.LoanID, err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return &loan, nil
}

func insertLoan(ctx context.Context, tx pgx.Tx, m models.Loan) error {
	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);
	`
	_, err := tx.Exec(ctx, query,
		m.LoanID,
		m.BorrowerID,
		m.PrincipalAmount,
		m.InterestRate,
		m.TenureMonths,
		m.InterestType,
		m.DisbursementDate,
		m.FirstPaymentDate,
		m.EMIAmount,
		m.OutstandingPrincipal,
		m.OutstandingInterest,
		m.LastInterestAccrual,
		m.Status,
		m.ClosureDate,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert loan %s: %w", m.LoanID, err)
	}
	return nil
}

// ApplyPayment persists a payment, the updated loan position, the changed
// installments and the repayment journal in one transaction. The loan update
// matches only when the outstanding position still equals what the caller read
// before computing the waterfall, so the later of two concurrent payments
// rolls back instead of overwriting the earlier one. The returned payment
// carries its journal reference.
func (r *PgxLoanRepository) ApplyPayment(ctx context.Context, loan domain.Loan, priorPrincipal, priorInterest decimal.Decimal, payment domain.LoanPayment, installments []domain.LoanInstallment, journal domain.Journal, lines []domain.JournalLine) (*domain.LoanPayment, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	if _, err := r.journalTx.SaveJournalInTx(ctx, tx, journal, lines); err != nil {
		return nil, fmt.Errorf("failed to post repayment journal for loan %s: %w", loan.LoanID, err)
	}
	payment.JournalID = &journal.JournalID

	loanQuery := `
		UPDATE loans
		SET outstanding_principal = $2, outstanding_interest = $3, last_interest_accrual = $4, status = $5, closure_date = $6, last_updated_at = $7, last_updated_by = $8
		WHERE loan_id = $1 AND outstanding_principal = $9 AND outstanding_interest = $10;
	`
	ml := mapping.ToModelLoan(loan)
	tag, err := tx.Exec(ctx, loanQuery,
		ml.LoanID,
		ml.OutstandingPrincipal,
		ml.OutstandingInterest,
		ml.LastInterestAccrual,
		ml.Status,
		ml.ClosureDate,
		ml.LastUpdatedAt,
		ml.LastUpdatedBy,
		priorPrincipal,
		priorInterest,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update loan %s: %w", ml.LoanID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: loan %s position changed since it was read", apperrors.ErrConflict, ml.LoanID)
	}

	batch := &pgx.Batch{}
	instQuery := `
		UPDATE loan_installments
		SET paid_amount = $2, status = $3, last_updated_at = $4, last_updated_by = $5
		WHERE installment_id = $1;
	`
	for _, inst := range installments {
		mi := mapping.ToModelInstallment(inst)
		batch.Queue(instQuery, mi.InstallmentID, mi.PaidAmount, mi.Status, mi.LastUpdatedAt, mi.LastUpdatedBy)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return nil, fmt.Errorf("failed to update installments for loan %s: %w", ml.LoanID, err)
	}

	mp := mapping.ToModelPayment(payment)
	paymentQuery := `
		INSERT INTO loan_payments (payment_id, loan_id, amount, principal_component, interest_component, late_fee_component, payment_date, reference, journal_id, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err = tx.Exec(ctx, paymentQuery,
		mp.PaymentID,
		mp.LoanID,
		mp.Amount,
		mp.PrincipalComponent,
		mp.InterestComponent,
		mp.LateFeeComponent,
		mp.PaymentDate,
		mp.Reference,
		mp.JournalID,
		mp.CreatedAt,
		mp.CreatedBy,
		mp.LastUpdatedAt,
		mp.LastUpdatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert payment %s: %w", mp.PaymentID, err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}
	return &payment, nil
}

// MarkOverdueInstallments flips past-due open installments of active loans to
// OVERDUE and returns the number changed.
func (r *PgxLoanRepository) MarkOverdueInstallments(ctx context.Context, asOf time.Time) (int64, error) {
	query := `
		UPDATE loan_installments i
		SET status = $1, last_updated_at = $2
		FROM loans l
		WHERE l.loan_id = i.loan_id
		  AND l.status = $3
		  AND i.status IN ($4, $5)
		  AND i.due_date < $6;
	`
	tag, err := r.Pool.Exec(ctx, query,
		models.InstallmentOverdue,
		time.Now().UTC(),
		models.LoanActive,
		models.InstallmentPending,
		models.InstallmentPartial,
		asOf,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue installments: %w", err)
	}
	return tag.RowsAffected(), nil
}
