package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coopledger/coopledger/internal/apperrors"
	"github.com/coopledger/coopledger/internal/core/domain"
	portssvc "github.com/coopledger/coopledger/internal/core/ports/services"
	"github.com/coopledger/coopledger/internal/dto"
	"github.com/coopledger/coopledger/internal/handlers"
	"github.com/coopledger/coopledger/internal/middleware"
	"github.com/coopledger/coopledger/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock AccountService ---

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

// --- Mock JournalService ---

type MockJournalService struct {
	mock.Mock
}

var _ portssvc.JournalSvcFacade = (*MockJournalService)(nil)

func (m *MockJournalService) PostJournalEntry(ctx context.Context, req dto.CreateJournalRequest, creatorUserID string) (*domain.Journal, error) {
	args := m.Called(ctx, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}

func (m *MockJournalService) PostMappedTransaction(ctx context.Context, kind domain.TransactionKind, amount decimal.Decimal, date time.Time, narration, reference, userID string) (*domain.Journal, error) {
	args := m.Called(ctx, kind, amount, date, narration, reference, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}

func (m *MockJournalService) GetJournalByID(ctx context.Context, journalID string) (*domain.Journal, error) {
	args := m.Called(ctx, journalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}

func (m *MockJournalService) ListJournals(ctx context.Context, params dto.ListJournalsParams) (*dto.ListJournalsResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListJournalsResponse), args.Error(1)
}

func (m *MockJournalService) ApproveJournal(ctx context.Context, journalID string, approverUserID string) (*domain.Journal, error) {
	args := m.Called(ctx, journalID, approverUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}

func (m *MockJournalService) ReverseJournal(ctx context.Context, journalID string, reason string, userID string) (*domain.Journal, error) {
	args := m.Called(ctx, journalID, reason, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}

func (m *MockJournalService) AccountBalance(ctx context.Context, accountID string, from, to *time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// --- Test suite ---

type AccountHandlerTestSuite struct {
	suite.Suite
	router         *gin.Engine
	mockAccountSvc *MockAccountService
	mockJournalSvc *MockJournalService
}

func (suite *AccountHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	suite.mockAccountSvc = new(MockAccountService)
	suite.mockJournalSvc = new(MockJournalService)

	suite.router = gin.New()
	suite.router.Use(middleware.ActorMiddleware())
	handlers.RegisterRoutes(suite.router, &config.Config{}, &portssvc.ServiceContainer{
		Account: suite.mockAccountSvc,
		Journal: suite.mockJournalSvc,
	})
}

func (suite *AccountHandlerTestSuite) performRequest(method, path string, body any, actor string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set("X-Actor-ID", actor)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *AccountHandlerTestSuite) TestCreateAccount_Success() {
	req := dto.CreateAccountRequest{
		Code:        "1201",
		Name:        "Office Equipment",
		AccountType: domain.Asset,
	}
	created := &domain.Account{
		AccountID:   uuid.NewString(),
		Code:        req.Code,
		Name:        req.Name,
		AccountType: req.AccountType,
		IsActive:    true,
	}

	suite.mockAccountSvc.On("CreateAccount", mock.Anything, req, "teller-7").Return(created, nil).Once()

	w := suite.performRequest(http.MethodPost, "/api/v1/accounts", req, "teller-7")

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.AccountResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(created.AccountID, resp.AccountID)
	suite.Equal("1201", resp.Code)
	suite.mockAccountSvc.AssertExpectations(suite.T())
}

func (suite *AccountHandlerTestSuite) TestCreateAccount_DefaultsToSystemActor() {
	req := dto.CreateAccountRequest{Code: "1202", Name: "Vehicles", AccountType: domain.Asset}
	created := &domain.Account{AccountID: uuid.NewString(), Code: req.Code, AccountType: domain.Asset, IsActive: true}

	suite.mockAccountSvc.On("CreateAccount", mock.Anything, req, "system").Return(created, nil).Once()

	w := suite.performRequest(http.MethodPost, "/api/v1/accounts", req, "")

	suite.Equal(http.StatusCreated, w.Code)
	suite.mockAccountSvc.AssertExpectations(suite.T())
}

func (suite *AccountHandlerTestSuite) TestCreateAccount_BindError() {
	w := suite.performRequest(http.MethodPost, "/api/v1/accounts", gin.H{"code": "1201"}, "teller-7")

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockAccountSvc.AssertNotCalled(suite.T(), "CreateAccount", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountHandlerTestSuite) TestCreateAccount_DuplicateCode() {
	req := dto.CreateAccountRequest{Code: "1001", Name: "Cash again", AccountType: domain.Asset}

	suite.mockAccountSvc.On("CreateAccount", mock.Anything, req, mock.Anything).Return(nil, apperrors.ErrDuplicate).Once()

	w := suite.performRequest(http.MethodPost, "/api/v1/accounts", req, "teller-7")

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *AccountHandlerTestSuite) TestGetAccount_NotFound() {
	accountID := uuid.NewString()

	suite.mockAccountSvc.On("GetAccountByID", mock.Anything, accountID).Return(nil, apperrors.ErrNotFound).Once()

	w := suite.performRequest(http.MethodGet, "/api/v1/accounts/"+accountID, nil, "")

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *AccountHandlerTestSuite) TestListAccounts_ActiveOnly() {
	accounts := []domain.Account{
		{AccountID: uuid.NewString(), Code: "1001", AccountType: domain.Asset, IsActive: true},
		{AccountID: uuid.NewString(), Code: "2001", AccountType: domain.Liability, IsActive: true},
	}

	suite.mockAccountSvc.On("ListAccounts", mock.Anything, true).Return(accounts, nil).Once()

	w := suite.performRequest(http.MethodGet, "/api/v1/accounts?activeOnly=true", nil, "")

	suite.Equal(http.StatusOK, w.Code)
	var resp struct {
		Accounts []dto.AccountResponse `json:"accounts"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp.Accounts, 2)
	suite.mockAccountSvc.AssertExpectations(suite.T())
}

func (suite *AccountHandlerTestSuite) TestGetAccountBalance_Success() {
	accountID := uuid.NewString()

	suite.mockJournalSvc.On("AccountBalance", mock.Anything, accountID, (*time.Time)(nil), (*time.Time)(nil)).
		Return(decimal.RequireFromString("1234.56"), nil).Once()

	w := suite.performRequest(http.MethodGet, "/api/v1/accounts/"+accountID+"/balance", nil, "")

	suite.Equal(http.StatusOK, w.Code)
	var resp struct {
		AccountID string          `json:"accountID"`
		Balance   decimal.Decimal `json:"balance"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(accountID, resp.AccountID)
	suite.True(resp.Balance.Equal(decimal.RequireFromString("1234.56")))
}

func (suite *AccountHandlerTestSuite) TestGetAccountBalance_BadDate() {
	accountID := uuid.NewString()

	w := suite.performRequest(http.MethodGet, "/api/v1/accounts/"+accountID+"/balance?from=notadate", nil, "")

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockJournalSvc.AssertNotCalled(suite.T(), "AccountBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountHandlerTestSuite) TestDeactivateAccount_Success() {
	accountID := uuid.NewString()

	suite.mockAccountSvc.On("DeactivateAccount", mock.Anything, accountID, "admin-1").Return(nil).Once()

	w := suite.performRequest(http.MethodDelete, "/api/v1/accounts/"+accountID, nil, "admin-1")

	suite.Equal(http.StatusNoContent, w.Code)
	suite.mockAccountSvc.AssertExpectations(suite.T())
}

func TestAccountHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(AccountHandlerTestSuite))
}
