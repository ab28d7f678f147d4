package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coopledger/coopledger/internal/apperrors"
	"github.com/coopledger/coopledger/internal/core/domain"
	portsrepo "github.com/coopledger/coopledger/internal/core/ports/repositories"
	portssvc "github.com/coopledger/coopledger/internal/core/ports/services"
	"github.com/coopledger/coopledger/internal/dto"
)

var (
	ErrAccountTypeInvalid  = errors.New("invalid account type")
	ErrAccountCodeRequired = errors.New("account code is required")
)

// codeCache is a read-through cache of accounts keyed by chart code. It is
// owned by the account service instance and invalidated on create/update, so
// posting flows do not hit the database for the well-known accounts on every
// journal.
type codeCache struct {
	mu     sync.RWMutex
	byCode map[string]domain.Account
}

func newCodeCache() *codeCache {
	return &codeCache{byCode: make(map[string]domain.Account)}
}

func (c *codeCache) get(code string) (domain.Account, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	acc, ok := c.byCode[code]
	return acc, ok
}

func (c *codeCache) put(acc domain.Account) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byCode[acc.Code] = acc
}

func (c *codeCache) invalidate(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byCode, code)
}

// accountService provides chart-of-accounts operations.
type accountService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
	cache       *codeCache
}

// NewAccountService creates a new AccountService.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade) portssvc.AccountSvcFacade {
	return &accountService{
		accountRepo: accountRepo,
		cache:       newCodeCache(),
	}
}

// Ensure accountService implements the portssvc.AccountSvcFacade interface
var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// CreateAccount persists a new account after validating its code and type.
func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error) {
	if req.Code == "" {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrAccountCodeRequired)
	}
	if !req.AccountType.IsValid() {
		return nil, fmt.Errorf("%w: %s %q", apperrors.ErrValidation, ErrAccountTypeInvalid, req.AccountType)
	}

	if existing, err := s.accountRepo.FindAccountByCode(ctx, req.Code); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: account code %s", apperrors.ErrDuplicate, req.Code)
	} else if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check account code: %w", err)
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountID:   uuid.NewString(),
		Code:        req.Code,
		Name:        req.Name,
		AccountType: req.AccountType,
		Description: req.Description,
		IsActive:    true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		s.LogError(ctx, err, "Failed to save account", slog.String("code", req.Code))
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	s.cache.invalidate(account.Code)
	s.LogInfo(ctx, "Account created", slog.String("account_id", account.AccountID), slog.String("code", account.Code))
	return &account, nil
}

// GetAccountByID retrieves a specific account by ID.
func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account by ID", slog.String("account_id", accountID))
		}
		return nil, err
	}
	return account, nil
}

// GetAccountByCode retrieves an account by chart code through the cache.
func (s *accountService) GetAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	if acc, ok := s.cache.get(code); ok {
		return &acc, nil
	}

	account, err := s.accountRepo.FindAccountByCode(ctx, code)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account by code", slog.String("code", code))
		}
		return nil, err
	}

	s.cache.put(*account)
	return account, nil
}

// GetAccountsByIDs retrieves multiple accounts by their IDs.
func (s *accountService) GetAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	return s.accountRepo.FindAccountsByIDs(ctx, accountIDs)
}

// ListAccounts retrieves accounts, optionally restricted to active ones.
func (s *accountService) ListAccounts(ctx context.Context, activeOnly bool) ([]domain.Account, error) {
	return s.accountRepo.ListAccounts(ctx, activeOnly)
}

// UpdateAccount updates an account's name and description. The account type
// is immutable: the sign convention of already-posted lines depends on it.
func (s *accountService) UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	updated := false
	if req.Name != nil {
		account.Name = *req.Name
		updated = true
	}
	if req.Description != nil {
		account.Description = *req.Description
		updated = true
	}
	if !updated {
		return account, nil
	}

	account.LastUpdatedAt = time.Now().UTC()
	account.LastUpdatedBy = userID

	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		s.LogError(ctx, err, "Failed to update account", slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to update account: %w", err)
	}

	s.cache.invalidate(account.Code)
	s.LogInfo(ctx, "Account updated", slog.String("account_id", accountID))
	return account, nil
}

// DeactivateAccount marks an account inactive. Accounts referenced by journal
// lines are never deleted; deactivation is the only retirement path.
func (s *accountService) DeactivateAccount(ctx context.Context, accountID string, userID string) error {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return err
	}

	inUse, err := s.accountRepo.HasJournalLines(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to check account usage: %w", err)
	}
	if inUse {
		s.LogWarn(ctx, "Deactivating account that has journal history", slog.String("account_id", accountID))
	}

	if err := s.accountRepo.DeactivateAccount(ctx, accountID, userID, time.Now().UTC()); err != nil {
		s.LogError(ctx, err, "Failed to deactivate account", slog.String("account_id", accountID))
		return fmt.Errorf("failed to deactivate account: %w", err)
	}

	s.cache.invalidate(account.Code)
	s.LogInfo(ctx, "Account deactivated", slog.String("account_id", accountID))
	return nil
}
