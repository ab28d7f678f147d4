package pgsql

import (
	"context"
	"fmt"
	"time"

	portsrepo "github.com/coopledger/coopledger/internal/core/ports/repositories"
	"github.com/coopledger/coopledger/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxPortfolioRepository struct {
	pool *pgxpool.Pool
}

// newPgxPortfolioRepository creates a new repository for portfolio risk
// aggregations.
func newPgxPortfolioRepository(pool *pgxpool.Pool) portsrepo.PortfolioRepository {
	return &PgxPortfolioRepository{pool: pool}
}

// Ensure PgxPortfolioRepository implements portsrepo.PortfolioRepository
var _ portsrepo.PortfolioRepository = (*PgxPortfolioRepository)(nil)

// TotalOutstandingPrincipal sums outstanding principal across active loans.
func (r *PgxPortfolioRepository) TotalOutstandingPrincipal(ctx context.Context) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(outstanding_principal), 0) FROM loans WHERE status = $1;`

	var total decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, models.LoanActive).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum outstanding principal: %w", err)
	}
	return total, nil
}

// PrincipalAtRisk sums the outstanding principal of active loans with at
// least one open installment due on or before cutoff. The whole outstanding
// principal of an affected loan counts, not just the overdue portion.
func (r *PgxPortfolioRepository) PrincipalAtRisk(ctx context.Context, cutoff time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(l.outstanding_principal), 0)
		FROM loans l
		WHERE l.status = $1
		  AND EXISTS (
			SELECT 1 FROM loan_installments i
			WHERE i.loan_id = l.loan_id
			  AND i.status IN ($2, $3)
			  AND i.due_date <= $4
		  );
	`
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, query, models.LoanActive, models.InstallmentOverdue, models.InstallmentPartial, cutoff).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum principal at risk: %w", err)
	}
	return total, nil
}

// PaymentsReceived sums loan payments with a payment date in [from, to].
func (r *PgxPortfolioRepository) PaymentsReceived(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM loan_payments WHERE payment_date >= $1 AND payment_date <= $2;`

	var total decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, from, to).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum payments received: %w", err)
	}
	return total, nil
}

// InstallmentsDue sums installment totals with a due date in [from, to].
func (r *PgxPortfolioRepository) InstallmentsDue(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(total_amount), 0) FROM loan_installments WHERE due_date >= $1 AND due_date <= $2;`

	var total decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, from, to).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum installments due: %w", err)
	}
	return total, nil
}
