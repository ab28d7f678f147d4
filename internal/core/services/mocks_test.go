package services_test

import (
	"context"
	"time"

	"github.com/coopledger/coopledger/internal/core/domain"
	portsrepo "github.com/coopledger/coopledger/internal/core/ports/repositories"
	portssvc "github.com/coopledger/coopledger/internal/core/ports/services"
	"github.com/coopledger/coopledger/internal/dto"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mock AccountRepository ---

type MockAccountRepository struct {
	mock.Mock
}

var _ portsrepo.AccountRepositoryFacade = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, activeOnly bool) ([]domain.Account, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) HasJournalLines(ctx context.Context, accountID string) (bool, error) {
	args := m.Called(ctx, accountID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error {
	args := m.Called(ctx, accountID, userID, now)
	return args.Error(0)
}

// --- Mock AccountService (as consumed by the journal and loan services) ---

type MockAccountService struct {
	mock.Mock
}

var _ portssvc.AccountSvcFacade = (*MockAccountService)(nil)

func (m *MockAccountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountService) ListAccounts(ctx context.Context, activeOnly bool) ([]domain.Account, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error) {
	args := m.Called(ctx, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountService) DeactivateAccount(ctx context.Context, accountID string, userID string) error {
	args := m.Called(ctx, accountID, userID)
	return args.Error(0)
}

// --- Mock JournalRepository ---

type MockJournalRepository struct {
	mock.Mock
}

var _ portsrepo.JournalRepositoryWithTx = (*MockJournalRepository)(nil)

func (m *MockJournalRepository) SaveJournal(ctx context.Context, journal domain.Journal, lines []domain.JournalLine) (*domain.Journal, error) {
	args := m.Called(ctx, journal, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}

func (m *MockJournalRepository) SaveJournalInTx(ctx context.Context, tx pgx.Tx, journal domain.Journal, lines []domain.JournalLine) (string, error) {
	args := m.Called(ctx, tx, journal, lines)
	return args.String(0), args.Error(1)
}

func (m *MockJournalRepository) FindJournalByID(ctx context.Context, journalID string) (*domain.Journal, error) {
	args := m.Called(ctx, journalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}

func (m *MockJournalRepository) FindLinesByJournalID(ctx context.Context, journalID string) ([]domain.JournalLine, error) {
	args := m.Called(ctx, journalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JournalLine), args.Error(1)
}

func (m *MockJournalRepository) ListJournals(ctx context.Context, limit int, nextToken *string, includeReversals bool) ([]domain.Journal, *string, error) {
	args := m.Called(ctx, limit, nextToken, includeReversals)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedToken = &tokenVal
	}
	return args.Get(0).([]domain.Journal), returnedToken, args.Error(2)
}

func (m *MockJournalRepository) GetAccountActivity(ctx context.Context, accountID string, from, to *time.Time) (decimal.Decimal, decimal.Decimal, error) {
	args := m.Called(ctx, accountID, from, to)
	return args.Get(0).(decimal.Decimal), args.Get(1).(decimal.Decimal), args.Error(2)
}

func (m *MockJournalRepository) UpdateJournalStatus(ctx context.Context, journalID string, from, to domain.JournalStatus, reversalReason string, reversingJournalID *string, updatedByUserID string, updatedAt time.Time) error {
	args := m.Called(ctx, journalID, from, to, reversalReason, reversingJournalID, updatedByUserID, updatedAt)
	return args.Error(0)
}

func (m *MockJournalRepository) UpdateJournalStatusInTx(ctx context.Context, tx pgx.Tx, journalID string, from, to domain.JournalStatus, reversalReason string, reversingJournalID *string, updatedByUserID string, updatedAt time.Time) error {
	args := m.Called(ctx, tx, journalID, from, to, reversalReason, reversingJournalID, updatedByUserID, updatedAt)
	return args.Error(0)
}

func (m *MockJournalRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockJournalRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockJournalRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// --- Mock LoanRepository ---

type MockLoanRepository struct {
	mock.Mock
}

var _ portsrepo.LoanRepositoryFacade = (*MockLoanRepository)(nil)

func (m *MockLoanRepository) FindLoanByID(ctx context.Context, loanID string) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) FindInstallmentsByLoanID(ctx context.Context, loanID string) ([]domain.LoanInstallment, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LoanInstallment), args.Error(1)
}

func (m *MockLoanRepository) FindPaymentsByLoanID(ctx context.Context, loanID string) ([]domain.LoanPayment, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LoanPayment), args.Error(1)
}

func (m *MockLoanRepository) ListLoans(ctx context.Context, status *domain.LoanStatus) ([]domain.Loan, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) CreateLoanWithSchedule(ctx context.Context, loan domain.Loan, schedule []domain.LoanInstallment, journal domain.Journal, lines []domain.JournalLine) (*domain.Loan, error) {
	args := m.Called(ctx, loan, schedule, journal, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) ApplyPayment(ctx context.Context, loan domain.Loan, priorPrincipal, priorInterest decimal.Decimal, payment domain.LoanPayment, installments []domain.LoanInstallment, journal domain.Journal, lines []domain.JournalLine) (*domain.LoanPayment, error) {
	args := m.Called(ctx, loan, priorPrincipal, priorInterest, payment, installments, journal, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoanPayment), args.Error(1)
}

func (m *MockLoanRepository) MarkOverdueInstallments(ctx context.Context, asOf time.Time) (int64, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock ReportingRepository ---

type MockReportingRepository struct {
	mock.Mock
}

var _ portsrepo.ReportingRepository = (*MockReportingRepository)(nil)

func (m *MockReportingRepository) GetActivityByType(ctx context.Context, types []domain.AccountType, from, to *time.Time) ([]portsrepo.AccountActivity, error) {
	args := m.Called(ctx, types, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]portsrepo.AccountActivity), args.Error(1)
}

func (m *MockReportingRepository) GetGeneralLedgerLines(ctx context.Context, accountID string, from, to time.Time) ([]domain.GeneralLedgerLine, error) {
	args := m.Called(ctx, accountID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.GeneralLedgerLine), args.Error(1)
}

// --- Mock PortfolioRepository ---

type MockPortfolioRepository struct {
	mock.Mock
}

var _ portsrepo.PortfolioRepository = (*MockPortfolioRepository)(nil)

func (m *MockPortfolioRepository) TotalOutstandingPrincipal(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPortfolioRepository) PrincipalAtRisk(ctx context.Context, cutoff time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPortfolioRepository) PaymentsReceived(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPortfolioRepository) InstallmentsDue(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// --- Mock BalanceCalculator ---

type MockBalanceCalculator struct {
	mock.Mock
}

var _ portssvc.BalanceCalculatorSvc = (*MockBalanceCalculator)(nil)

func (m *MockBalanceCalculator) AccountBalance(ctx context.Context, accountID string, from, to *time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
