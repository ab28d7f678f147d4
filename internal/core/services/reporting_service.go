package services

import (
	"context"
	"fmt"
	"time"

	"github.com/coopledger/coopledger/internal/core/domain"
	portsrepo "github.com/coopledger/coopledger/internal/core/ports/repositories"
	portssvc "github.com/coopledger/coopledger/internal/core/ports/services"
	"github.com/coopledger/coopledger/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// retainedEarningsCode is the synthetic equity row the balance sheet derives
// at report time for current-year net income. It is not a real ledger account.
const retainedEarningsCode = "3999"

// reportingService generates the financial statements. Every figure is
// derived from posted journal activity through the shared sign convention in
// the accounting package, so the reports cannot disagree with the ledger.
type reportingService struct {
	BaseService
	reportRepo portsrepo.ReportingRepository
	accountSvc portssvc.AccountSvcFacade
	balanceSvc portssvc.BalanceCalculatorSvc
}

// NewReportingService creates a new ReportingService.
func NewReportingService(reportRepo portsrepo.ReportingRepository, accountSvc portssvc.AccountSvcFacade, balanceSvc portssvc.BalanceCalculatorSvc) portssvc.ReportingService {
	return &reportingService{
		reportRepo: reportRepo,
		accountSvc: accountSvc,
		balanceSvc: balanceSvc,
	}
}

// Ensure reportingService implements the portssvc.ReportingService interface
var _ portssvc.ReportingService = (*reportingService)(nil)

var allAccountTypes = []domain.AccountType{
	domain.Asset,
	domain.Liability,
	domain.Equity,
	domain.Income,
	domain.Expense,
}

// TrialBalance lists every account with activity as of a date. Each balance
// sits in its type's normal column; a negative (contra) balance flips to the
// opposite column so both columns stay non-negative.
func (s *reportingService) TrialBalance(ctx context.Context, asOf time.Time) (*domain.TrialBalanceReport, error) {
	activity, err := s.reportRepo.GetActivityByType(ctx, allAccountTypes, nil, &asOf)
	if err != nil {
		s.LogError(ctx, err, "Failed to aggregate account activity for trial balance")
		return nil, fmt.Errorf("failed to generate trial balance: %w", err)
	}

	report := &domain.TrialBalanceReport{
		AsOf:         asOf,
		Rows:         make([]domain.TrialBalanceRow, 0, len(activity)),
		TotalDebits:  decimal.Zero,
		TotalCredits: decimal.Zero,
	}

	for _, act := range activity {
		balance, err := accounting.BalanceFromTotals(act.Account.AccountType, act.TotalDebit, act.TotalCredit)
		if err != nil {
			return nil, err
		}
		if balance.IsZero() {
			continue
		}

		debitNormal, err := accounting.NormalSide(act.Account.AccountType)
		if err != nil {
			return nil, err
		}
		// A negative balance is a contra position and reports on the
		// opposite side of the account type's normal column.
		if balance.IsNegative() {
			debitNormal = !debitNormal
			balance = balance.Neg()
		}

		row := domain.TrialBalanceRow{
			AccountID:   act.Account.AccountID,
			Code:        act.Account.Code,
			AccountName: act.Account.Name,
			AccountType: act.Account.AccountType,
			Debit:       decimal.Zero,
			Credit:      decimal.Zero,
		}
		if debitNormal {
			row.Debit = balance
			report.TotalDebits = report.TotalDebits.Add(balance)
		} else {
			row.Credit = balance
			report.TotalCredits = report.TotalCredits.Add(balance)
		}
		report.Rows = append(report.Rows, row)
	}

	report.OutOfBalance = !report.TotalDebits.Equal(report.TotalCredits)
	if report.OutOfBalance {
		s.LogWarn(ctx, "Trial balance out of balance",
			"total_debits", report.TotalDebits.String(),
			"total_credits", report.TotalCredits.String())
	}
	return report, nil
}

// IncomeStatement nets INCOME and EXPENSE activity over a period.
func (s *reportingService) IncomeStatement(ctx context.Context, from, to time.Time) (*domain.IncomeStatementReport, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("period end %s precedes start %s", to.Format(time.DateOnly), from.Format(time.DateOnly))
	}

	income, totalIncome, err := s.typedBalances(ctx, domain.Income, &from, &to)
	if err != nil {
		return nil, fmt.Errorf("failed to generate income statement: %w", err)
	}
	expenses, totalExpenses, err := s.typedBalances(ctx, domain.Expense, &from, &to)
	if err != nil {
		return nil, fmt.Errorf("failed to generate income statement: %w", err)
	}

	return &domain.IncomeStatementReport{
		From:          from,
		To:            to,
		Income:        income,
		Expenses:      expenses,
		TotalIncome:   totalIncome,
		TotalExpenses: totalExpenses,
		NetIncome:     totalIncome.Sub(totalExpenses),
	}, nil
}

// BalanceSheet reports the financial position as of a date. Current-year net
// income appears as a synthetic retained earnings equity row so the statement
// balances without a period-close process.
func (s *reportingService) BalanceSheet(ctx context.Context, asOf time.Time) (*domain.BalanceSheetReport, error) {
	assets, totalAssets, err := s.typedBalances(ctx, domain.Asset, nil, &asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to generate balance sheet: %w", err)
	}
	liabilities, totalLiabilities, err := s.typedBalances(ctx, domain.Liability, nil, &asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to generate balance sheet: %w", err)
	}
	equity, totalEquity, err := s.typedBalances(ctx, domain.Equity, nil, &asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to generate balance sheet: %w", err)
	}

	yearStart := time.Date(asOf.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	ytd, err := s.IncomeStatement(ctx, yearStart, asOf)
	if err != nil {
		return nil, err
	}
	if !ytd.NetIncome.IsZero() {
		equity = append(equity, domain.AccountAmount{
			Code:      retainedEarningsCode,
			Name:      "Retained Earnings (Current Year)",
			NetAmount: ytd.NetIncome,
		})
		totalEquity = totalEquity.Add(ytd.NetIncome)
	}

	return &domain.BalanceSheetReport{
		AsOf:             asOf,
		Assets:           assets,
		Liabilities:      liabilities,
		Equity:           equity,
		TotalAssets:      totalAssets,
		TotalLiabilities: totalLiabilities,
		TotalEquity:      totalEquity,
		Balanced:         totalAssets.Equal(totalLiabilities.Add(totalEquity)),
	}, nil
}

// typedBalances returns the nonzero signed balances of all accounts of one
// type over a window, plus their sum.
func (s *reportingService) typedBalances(ctx context.Context, accountType domain.AccountType, from, to *time.Time) ([]domain.AccountAmount, decimal.Decimal, error) {
	activity, err := s.reportRepo.GetActivityByType(ctx, []domain.AccountType{accountType}, from, to)
	if err != nil {
		s.LogError(ctx, err, "Failed to aggregate account activity", "account_type", string(accountType))
		return nil, decimal.Zero, err
	}

	rows := make([]domain.AccountAmount, 0, len(activity))
	total := decimal.Zero
	for _, act := range activity {
		balance, err := accounting.BalanceFromTotals(accountType, act.TotalDebit, act.TotalCredit)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if balance.IsZero() {
			continue
		}
		rows = append(rows, domain.AccountAmount{
			AccountID: act.Account.AccountID,
			Code:      act.Account.Code,
			Name:      act.Account.Name,
			NetAmount: balance,
		})
		total = total.Add(balance)
	}
	return rows, total, nil
}

// GeneralLedger lists one account's journal lines over a period with a
// running balance. The opening balance covers everything posted before the
// period start; line deltas follow the account type's sign convention.
func (s *reportingService) GeneralLedger(ctx context.Context, accountID string, from, to time.Time) (*domain.GeneralLedgerReport, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("period end %s precedes start %s", to.Format(time.DateOnly), from.Format(time.DateOnly))
	}

	account, err := s.accountSvc.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	openingCutoff := from.AddDate(0, 0, -1)
	opening, err := s.balanceSvc.AccountBalance(ctx, accountID, nil, &openingCutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to compute opening balance: %w", err)
	}

	lines, err := s.reportRepo.GetGeneralLedgerLines(ctx, accountID, from, to)
	if err != nil {
		s.LogError(ctx, err, "Failed to retrieve ledger lines", "account_id", accountID)
		return nil, fmt.Errorf("failed to generate general ledger: %w", err)
	}

	report := &domain.GeneralLedgerReport{
		AccountID:      accountID,
		From:           from,
		To:             to,
		OpeningBalance: opening,
		Lines:          lines,
		TotalDebits:    decimal.Zero,
		TotalCredits:   decimal.Zero,
		ClosingBalance: opening,
	}

	running := opening
	for i := range report.Lines {
		delta, err := accounting.BalanceFromTotals(account.AccountType, report.Lines[i].Debit, report.Lines[i].Credit)
		if err != nil {
			return nil, err
		}
		running = running.Add(delta)
		report.Lines[i].RunningBalance = running
		report.TotalDebits = report.TotalDebits.Add(report.Lines[i].Debit)
		report.TotalCredits = report.TotalCredits.Add(report.Lines[i].Credit)
	}
	report.ClosingBalance = running
	return report, nil
}
