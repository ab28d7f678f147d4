package dto

import (
	"github.com/coopledger/coopledger/internal/core/domain"
)

// CreateAccountRequest defines the payload for creating a chart-of-accounts entry.
type CreateAccountRequest struct {
	Code        string             `json:"code" binding:"required"`
	Name        string             `json:"name" binding:"required"`
	AccountType domain.AccountType `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	Description string             `json:"description"`
}

// UpdateAccountRequest defines the mutable fields of an account. The account
// type is deliberately absent: it is immutable after creation.
type UpdateAccountRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID   string             `json:"accountID"`
	Code        string             `json:"code"`
	Name        string             `json:"name"`
	AccountType domain.AccountType `json:"accountType"`
	Description string             `json:"description,omitempty"`
	IsActive    bool               `json:"isActive"`
}

// ToAccountResponse converts a domain.Account to AccountResponse.
func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:   a.AccountID,
		Code:        a.Code,
		Name:        a.Name,
		AccountType: a.AccountType,
		Description: a.Description,
		IsActive:    a.IsActive,
	}
}

// ToAccountResponses converts a slice of domain accounts.
func ToAccountResponses(accounts []domain.Account) []AccountResponse {
	responses := make([]AccountResponse, len(accounts))
	for i := range accounts {
		responses[i] = ToAccountResponse(&accounts[i])
	}
	return responses
}
