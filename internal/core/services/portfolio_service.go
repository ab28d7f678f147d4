package services

import (
	"context"
	"fmt"
	"time"

	"github.com/coopledger/coopledger/internal/core/domain"
	portsrepo "github.com/coopledger/coopledger/internal/core/ports/repositories"
	portssvc "github.com/coopledger/coopledger/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// ratioPlaces is the precision of the PAR and collection efficiency fractions.
const ratioPlaces = 4

// portfolioService computes the read-only risk snapshot of the loan book.
// It assumes the overdue sweep has already run for the reporting date.
type portfolioService struct {
	BaseService
	portfolioRepo portsrepo.PortfolioRepository
}

// NewPortfolioService creates a new PortfolioService.
func NewPortfolioService(portfolioRepo portsrepo.PortfolioRepository) portssvc.PortfolioService {
	return &portfolioService{portfolioRepo: portfolioRepo}
}

// Ensure portfolioService implements the portssvc.PortfolioService interface
var _ portssvc.PortfolioService = (*portfolioService)(nil)

// PortfolioMetrics returns PAR1/7/30 and collection efficiency for today and
// month-to-date. PAR-N is the outstanding principal of loans with an
// installment more than N days past due, as a fraction of total outstanding
// principal. All ratios degrade to zero on a zero denominator.
func (s *portfolioService) PortfolioMetrics(ctx context.Context, now time.Time) (*domain.PortfolioMetrics, error) {
	totalOutstanding, err := s.portfolioRepo.TotalOutstandingPrincipal(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to sum outstanding principal")
		return nil, fmt.Errorf("failed to compute portfolio metrics: %w", err)
	}

	metrics := &domain.PortfolioMetrics{
		PAR1:                      decimal.Zero,
		PAR7:                      decimal.Zero,
		PAR30:                     decimal.Zero,
		CollectionEfficiencyToday: decimal.Zero,
		CollectionEfficiencyMTD:   decimal.Zero,
	}

	if totalOutstanding.IsPositive() {
		for _, bucket := range []struct {
			days   int
			target *decimal.Decimal
		}{
			{1, &metrics.PAR1},
			{7, &metrics.PAR7},
			{30, &metrics.PAR30},
		} {
			atRisk, err := s.portfolioRepo.PrincipalAtRisk(ctx, now.AddDate(0, 0, -bucket.days))
			if err != nil {
				s.LogError(ctx, err, "Failed to sum principal at risk", "bucket_days", bucket.days)
				return nil, fmt.Errorf("failed to compute portfolio metrics: %w", err)
			}
			*bucket.target = atRisk.Div(totalOutstanding).Round(ratioPlaces)
		}
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	metrics.CollectionEfficiencyToday, err = s.collectionEfficiency(ctx, dayStart, now)
	if err != nil {
		return nil, fmt.Errorf("failed to compute portfolio metrics: %w", err)
	}
	metrics.CollectionEfficiencyMTD, err = s.collectionEfficiency(ctx, monthStart, now)
	if err != nil {
		return nil, fmt.Errorf("failed to compute portfolio metrics: %w", err)
	}

	s.LogDebug(ctx, "Portfolio metrics computed",
		"total_outstanding", totalOutstanding.String(),
		"par30", metrics.PAR30.String())
	return metrics, nil
}

// collectionEfficiency divides payments received by installments due over a
// window. An over-collection (prepayments) can push the ratio above one.
func (s *portfolioService) collectionEfficiency(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	due, err := s.portfolioRepo.InstallmentsDue(ctx, from, to)
	if err != nil {
		s.LogError(ctx, err, "Failed to sum installments due")
		return decimal.Zero, err
	}
	if !due.IsPositive() {
		return decimal.Zero, nil
	}

	received, err := s.portfolioRepo.PaymentsReceived(ctx, from, to)
	if err != nil {
		s.LogError(ctx, err, "Failed to sum payments received")
		return decimal.Zero, err
	}
	return received.Div(due).Round(ratioPlaces), nil
}
