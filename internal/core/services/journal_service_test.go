package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/coopledger/coopledger/internal/apperrors"
	"github.com/coopledger/coopledger/internal/core/domain"
	portssvc "github.com/coopledger/coopledger/internal/core/ports/services"
	"github.com/coopledger/coopledger/internal/core/services"
	"github.com/coopledger/coopledger/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type JournalServiceTestSuite struct {
	suite.Suite
	mockJournalRepo  *MockJournalRepository
	mockAccountSvc   *MockAccountService
	service          portssvc.JournalSvcFacade
	assetAccount     domain.Account
	liabilityAccount domain.Account
	incomeAccount    domain.Account
	userID           string
}

func (suite *JournalServiceTestSuite) SetupTest() {
	suite.mockJournalRepo = new(MockJournalRepository)
	suite.mockAccountSvc = new(MockAccountService)
	suite.service = services.NewJournalService(suite.mockJournalRepo, suite.mockAccountSvc)

	suite.userID = uuid.NewString()

	suite.assetAccount = domain.Account{
		AccountID:   uuid.NewString(),
		Code:        "1001",
		AccountType: domain.Asset,
		IsActive:    true,
	}
	suite.liabilityAccount = domain.Account{
		AccountID:   uuid.NewString(),
		Code:        "2001",
		AccountType: domain.Liability,
		IsActive:    true,
	}
	suite.incomeAccount = domain.Account{
		AccountID:   uuid.NewString(),
		Code:        "4001",
		AccountType: domain.Income,
		IsActive:    true,
	}
}

func (suite *JournalServiceTestSuite) accountsMap(accounts ...domain.Account) map[string]domain.Account {
	m := make(map[string]domain.Account, len(accounts))
	for _, acc := range accounts {
		m[acc.AccountID] = acc
	}
	return m
}

func (suite *JournalServiceTestSuite) TestPostJournalEntry_Success() {
	ctx := context.Background()
	req := dto.CreateJournalRequest{
		Date:      time.Now().UTC(),
		Narration: "Member deposit",
		PostNow:   true,
		Lines: []dto.JournalLineRequest{
			{AccountID: suite.assetAccount.AccountID, Debit: decimal.NewFromInt(100)},
			{AccountID: suite.liabilityAccount.AccountID, Credit: decimal.NewFromInt(100)},
		},
	}

	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, []string{suite.assetAccount.AccountID, suite.liabilityAccount.AccountID}).
		Return(suite.accountsMap(suite.assetAccount, suite.liabilityAccount), nil).Once()

	saved := &domain.Journal{
		JournalID:   uuid.NewString(),
		EntryNumber: "JE-20260829-0001",
		Status:      domain.Posted,
		Amount:      decimal.NewFromInt(100),
	}
	suite.mockJournalRepo.On("SaveJournal", ctx,
		mock.MatchedBy(func(j domain.Journal) bool {
			return j.Status == domain.Posted && j.Amount.Equal(decimal.NewFromInt(100))
		}),
		mock.AnythingOfType("[]domain.JournalLine")).Return(saved, nil).Once()

	journal, err := suite.service.PostJournalEntry(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(journal)
	suite.Equal("JE-20260829-0001", journal.EntryNumber)
	suite.Equal(domain.Posted, journal.Status)
	suite.Len(journal.Lines, 2)

	suite.mockAccountSvc.AssertExpectations(suite.T())
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestPostJournalEntry_DefaultsToDraft() {
	ctx := context.Background()
	req := dto.CreateJournalRequest{
		Date:      time.Now().UTC(),
		Narration: "Manual adjustment",
		Lines: []dto.JournalLineRequest{
			{AccountID: suite.assetAccount.AccountID, Debit: decimal.NewFromInt(50)},
			{AccountID: suite.incomeAccount.AccountID, Credit: decimal.NewFromInt(50)},
		},
	}

	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, mock.Anything).
		Return(suite.accountsMap(suite.assetAccount, suite.incomeAccount), nil).Once()
	suite.mockJournalRepo.On("SaveJournal", ctx,
		mock.MatchedBy(func(j domain.Journal) bool { return j.Status == domain.Draft }),
		mock.AnythingOfType("[]domain.JournalLine")).
		Return(&domain.Journal{JournalID: uuid.NewString(), Status: domain.Draft}, nil).Once()

	journal, err := suite.service.PostJournalEntry(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.Draft, journal.Status)
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestPostJournalEntry_LessThanTwoLines() {
	ctx := context.Background()
	req := dto.CreateJournalRequest{
		Narration: "Half an entry",
		Lines: []dto.JournalLineRequest{
			{AccountID: suite.assetAccount.AccountID, Debit: decimal.NewFromInt(100)},
		},
	}

	_, err := suite.service.PostJournalEntry(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveJournal", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestPostJournalEntry_Unbalanced() {
	ctx := context.Background()
	req := dto.CreateJournalRequest{
		Date:      time.Now().UTC(),
		Narration: "Off by a cent",
		Lines: []dto.JournalLineRequest{
			{AccountID: suite.assetAccount.AccountID, Debit: decimal.RequireFromString("100.00")},
			{AccountID: suite.liabilityAccount.AccountID, Credit: decimal.RequireFromString("99.99")},
		},
	}

	_, err := suite.service.PostJournalEntry(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrJournalUnbalanced)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveJournal", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestPostJournalEntry_SingleAccount() {
	ctx := context.Background()
	// Balanced, but both lines hit the same account.
	req := dto.CreateJournalRequest{
		Date:      time.Now().UTC(),
		Narration: "Self transfer",
		Lines: []dto.JournalLineRequest{
			{AccountID: suite.assetAccount.AccountID, Debit: decimal.NewFromInt(100)},
			{AccountID: suite.assetAccount.AccountID, Credit: decimal.NewFromInt(100)},
		},
	}

	_, err := suite.service.PostJournalEntry(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrJournalMinAccounts)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveJournal", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestPostJournalEntry_AccountNotFound() {
	ctx := context.Background()
	unknownID := uuid.NewString()
	req := dto.CreateJournalRequest{
		Date:      time.Now().UTC(),
		Narration: "Posting to nowhere",
		Lines: []dto.JournalLineRequest{
			{AccountID: suite.assetAccount.AccountID, Debit: decimal.NewFromInt(100)},
			{AccountID: unknownID, Credit: decimal.NewFromInt(100)},
		},
	}

	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, mock.Anything).
		Return(suite.accountsMap(suite.assetAccount), nil).Once()

	_, err := suite.service.PostJournalEntry(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrAccountNotFound)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveJournal", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestPostJournalEntry_InactiveAccount() {
	ctx := context.Background()
	inactive := domain.Account{
		AccountID:   uuid.NewString(),
		Code:        "5001",
		AccountType: domain.Expense,
		IsActive:    false,
	}
	req := dto.CreateJournalRequest{
		Date:      time.Now().UTC(),
		Narration: "Posting to a retired account",
		Lines: []dto.JournalLineRequest{
			{AccountID: inactive.AccountID, Debit: decimal.NewFromInt(100)},
			{AccountID: suite.assetAccount.AccountID, Credit: decimal.NewFromInt(100)},
		},
	}

	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, mock.Anything).
		Return(suite.accountsMap(suite.assetAccount, inactive), nil).Once()

	_, err := suite.service.PostJournalEntry(ctx, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrAccountInactive)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveJournal", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestPostMappedTransaction_Success() {
	ctx := context.Background()
	amount := decimal.NewFromInt(500)
	date := time.Now().UTC()

	suite.mockAccountSvc.On("GetAccountByCode", ctx, domain.CodeCash).Return(&suite.assetAccount, nil).Once()
	suite.mockAccountSvc.On("GetAccountByCode", ctx, domain.CodeCustomerDeposits).Return(&suite.liabilityAccount, nil).Once()
	suite.mockAccountSvc.On("GetAccountsByIDs", ctx, mock.Anything).
		Return(suite.accountsMap(suite.assetAccount, suite.liabilityAccount), nil).Once()

	suite.mockJournalRepo.On("SaveJournal", ctx,
		mock.MatchedBy(func(j domain.Journal) bool { return j.Status == domain.Posted }),
		mock.MatchedBy(func(lines []domain.JournalLine) bool {
			return len(lines) == 2 &&
				lines[0].AccountID == suite.assetAccount.AccountID && lines[0].Debit.Equal(amount) &&
				lines[1].AccountID == suite.liabilityAccount.AccountID && lines[1].Credit.Equal(amount)
		})).
		Return(&domain.Journal{JournalID: uuid.NewString(), Status: domain.Posted, Amount: amount}, nil).Once()

	journal, err := suite.service.PostMappedTransaction(ctx, domain.KindDeposit, amount, date, "Member deposit", "rcpt-1", suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.Posted, journal.Status)
	suite.mockAccountSvc.AssertExpectations(suite.T())
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestPostMappedTransaction_UnknownKind() {
	ctx := context.Background()

	_, err := suite.service.PostMappedTransaction(ctx, domain.TransactionKind("BARTER"), decimal.NewFromInt(10), time.Now(), "n", "", suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrUnknownPostingKind)
}

func (suite *JournalServiceTestSuite) TestPostMappedTransaction_NonPositiveAmount() {
	ctx := context.Background()

	_, err := suite.service.PostMappedTransaction(ctx, domain.KindDeposit, decimal.Zero, time.Now(), "n", "", suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *JournalServiceTestSuite) TestApproveJournal_Success() {
	ctx := context.Background()
	journalID := uuid.NewString()
	draft := &domain.Journal{JournalID: journalID, Status: domain.Draft}

	suite.mockJournalRepo.On("FindJournalByID", ctx, journalID).Return(draft, nil).Once()
	suite.mockJournalRepo.On("UpdateJournalStatus", ctx, journalID, domain.Draft, domain.Posted, "", (*string)(nil), suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	journal, err := suite.service.ApproveJournal(ctx, journalID, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.Posted, journal.Status)
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestApproveJournal_ConcurrentlyChanged() {
	ctx := context.Background()
	journalID := uuid.NewString()
	draft := &domain.Journal{JournalID: journalID, Status: domain.Draft}

	// Another approver won the race between the read and the update.
	suite.mockJournalRepo.On("FindJournalByID", ctx, journalID).Return(draft, nil).Once()
	suite.mockJournalRepo.On("UpdateJournalStatus", ctx, journalID, domain.Draft, domain.Posted, "", (*string)(nil), suite.userID, mock.AnythingOfType("time.Time")).
		Return(fmt.Errorf("%w: journal %s is missing or no longer DRAFT", apperrors.ErrConflict, journalID)).Once()

	_, err := suite.service.ApproveJournal(ctx, journalID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestApproveJournal_AlreadyPosted() {
	ctx := context.Background()
	journalID := uuid.NewString()
	posted := &domain.Journal{JournalID: journalID, Status: domain.Posted}

	suite.mockJournalRepo.On("FindJournalByID", ctx, journalID).Return(posted, nil).Once()

	_, err := suite.service.ApproveJournal(ctx, journalID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "UpdateJournalStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestReverseJournal_ReasonTooShort() {
	ctx := context.Background()

	_, err := suite.service.ReverseJournal(ctx, uuid.NewString(), "oops", suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *JournalServiceTestSuite) TestReverseJournal_DraftReversedInPlace() {
	ctx := context.Background()
	journalID := uuid.NewString()
	reason := "entered against the wrong member"
	draft := &domain.Journal{JournalID: journalID, Status: domain.Draft}

	suite.mockJournalRepo.On("FindJournalByID", ctx, journalID).Return(draft, nil).Once()
	suite.mockJournalRepo.On("UpdateJournalStatus", ctx, journalID, domain.Draft, domain.Reversed, reason, (*string)(nil), suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	journal, err := suite.service.ReverseJournal(ctx, journalID, reason, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(domain.Reversed, journal.Status)
	suite.Equal(reason, journal.ReversalReason)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "SaveJournal", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestReverseJournal_PostedGetsCompensatingEntry() {
	ctx := context.Background()
	journalID := uuid.NewString()
	reason := "duplicate capture of the same receipt"
	original := &domain.Journal{
		JournalID:   journalID,
		EntryNumber: "JE-20260810-0003",
		Status:      domain.Posted,
		Amount:      decimal.NewFromInt(100),
	}
	originalLines := []domain.JournalLine{
		{LineID: uuid.NewString(), JournalID: journalID, AccountID: suite.assetAccount.AccountID, Debit: decimal.NewFromInt(100), Credit: decimal.Zero},
		{LineID: uuid.NewString(), JournalID: journalID, AccountID: suite.incomeAccount.AccountID, Debit: decimal.Zero, Credit: decimal.NewFromInt(100)},
	}

	suite.mockJournalRepo.On("FindJournalByID", ctx, journalID).Return(original, nil).Once()
	suite.mockJournalRepo.On("FindLinesByJournalID", ctx, journalID).Return(originalLines, nil).Once()

	// Both writes happen inside one transaction.
	suite.mockJournalRepo.On("Begin", ctx).Return(nil, nil).Once()

	var reversingID string
	suite.mockJournalRepo.On("SaveJournalInTx", ctx, mock.Anything,
		mock.MatchedBy(func(j domain.Journal) bool {
			reversingID = j.JournalID
			return j.Status == domain.Posted && j.OriginalJournalID != nil && *j.OriginalJournalID == journalID
		}),
		mock.MatchedBy(func(lines []domain.JournalLine) bool {
			// Sides must be swapped relative to the original.
			return len(lines) == 2 &&
				lines[0].Credit.Equal(originalLines[0].Debit) && lines[0].Debit.IsZero() &&
				lines[1].Debit.Equal(originalLines[1].Credit) && lines[1].Credit.IsZero()
		})).
		Return("JE-20260810-0007", nil).Once()

	suite.mockJournalRepo.On("UpdateJournalStatusInTx", ctx, mock.Anything, journalID, domain.Posted, domain.Reversed, reason,
		mock.MatchedBy(func(id *string) bool { return id != nil && *id == reversingID }),
		suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	suite.mockJournalRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()
	suite.mockJournalRepo.On("Rollback", ctx, mock.Anything).Return(nil).Maybe()

	reversing, err := suite.service.ReverseJournal(ctx, journalID, reason, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(reversingID, reversing.JournalID)
	suite.Equal("JE-20260810-0007", reversing.EntryNumber)
	suite.Require().NotNil(reversing.OriginalJournalID)
	suite.Equal(journalID, *reversing.OriginalJournalID)
	suite.Len(reversing.Lines, 2)
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestReverseJournal_PostedMarkFailureDiscardsCompensatingEntry() {
	ctx := context.Background()
	journalID := uuid.NewString()
	reason := "captured against the wrong branch"
	original := &domain.Journal{
		JournalID:   journalID,
		EntryNumber: "JE-20260810-0004",
		Status:      domain.Posted,
		Amount:      decimal.NewFromInt(75),
	}
	originalLines := []domain.JournalLine{
		{LineID: uuid.NewString(), JournalID: journalID, AccountID: suite.assetAccount.AccountID, Debit: decimal.NewFromInt(75), Credit: decimal.Zero},
		{LineID: uuid.NewString(), JournalID: journalID, AccountID: suite.incomeAccount.AccountID, Debit: decimal.Zero, Credit: decimal.NewFromInt(75)},
	}

	suite.mockJournalRepo.On("FindJournalByID", ctx, journalID).Return(original, nil).Once()
	suite.mockJournalRepo.On("FindLinesByJournalID", ctx, journalID).Return(originalLines, nil).Once()
	suite.mockJournalRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockJournalRepo.On("SaveJournalInTx", ctx, mock.Anything, mock.Anything, mock.Anything).Return("JE-20260810-0008", nil).Once()

	// Someone reversed the original first; the whole transaction must unwind
	// so the compensating journal never becomes visible.
	suite.mockJournalRepo.On("UpdateJournalStatusInTx", ctx, mock.Anything, journalID, domain.Posted, domain.Reversed, reason,
		mock.Anything, suite.userID, mock.AnythingOfType("time.Time")).
		Return(fmt.Errorf("%w: journal %s is missing or no longer POSTED", apperrors.ErrConflict, journalID)).Once()
	suite.mockJournalRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()

	_, err := suite.service.ReverseJournal(ctx, journalID, reason, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockJournalRepo.AssertNotCalled(suite.T(), "Commit", mock.Anything, mock.Anything)
	suite.mockJournalRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestReverseJournal_CannotReverseAReversal() {
	ctx := context.Background()
	journalID := uuid.NewString()
	originalID := uuid.NewString()
	reversal := &domain.Journal{JournalID: journalID, Status: domain.Posted, OriginalJournalID: &originalID}

	suite.mockJournalRepo.On("FindJournalByID", ctx, journalID).Return(reversal, nil).Once()

	_, err := suite.service.ReverseJournal(ctx, journalID, "reversing the reversal", suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *JournalServiceTestSuite) TestReverseJournal_AlreadyReversed() {
	ctx := context.Background()
	journalID := uuid.NewString()
	reversed := &domain.Journal{JournalID: journalID, Status: domain.Reversed}

	suite.mockJournalRepo.On("FindJournalByID", ctx, journalID).Return(reversed, nil).Once()

	_, err := suite.service.ReverseJournal(ctx, journalID, "second time around", suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *JournalServiceTestSuite) TestAccountBalance_DebitNormal() {
	ctx := context.Background()

	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.assetAccount.AccountID).Return(&suite.assetAccount, nil).Once()
	suite.mockJournalRepo.On("GetAccountActivity", ctx, suite.assetAccount.AccountID, (*time.Time)(nil), (*time.Time)(nil)).
		Return(decimal.NewFromInt(500), decimal.NewFromInt(120), nil).Once()

	balance, err := suite.service.AccountBalance(ctx, suite.assetAccount.AccountID, nil, nil)

	suite.Require().NoError(err)
	suite.True(balance.Equal(decimal.NewFromInt(380)), "balance = %s", balance)
}

func (suite *JournalServiceTestSuite) TestAccountBalance_CreditNormal() {
	ctx := context.Background()

	suite.mockAccountSvc.On("GetAccountByID", ctx, suite.incomeAccount.AccountID).Return(&suite.incomeAccount, nil).Once()
	suite.mockJournalRepo.On("GetAccountActivity", ctx, suite.incomeAccount.AccountID, (*time.Time)(nil), (*time.Time)(nil)).
		Return(decimal.NewFromInt(20), decimal.NewFromInt(500), nil).Once()

	balance, err := suite.service.AccountBalance(ctx, suite.incomeAccount.AccountID, nil, nil)

	suite.Require().NoError(err)
	suite.True(balance.Equal(decimal.NewFromInt(480)), "balance = %s", balance)
}

func TestJournalServiceTestSuite(t *testing.T) {
	suite.Run(t, new(JournalServiceTestSuite))
}
