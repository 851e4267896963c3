package dto

import (
	"github.com/copropia/conjunto_ledger_app/internal/core/domain"
)

// CreateAccountRequest defines the expected JSON body for creating an account.
type CreateAccountRequest struct {
	Code               string `json:"code" binding:"required"`
	Name               string `json:"name" binding:"required"`
	AccountType        string `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	Nature             string `json:"nature" binding:"omitempty,oneof=DEBIT CREDIT"`
	AcceptsPosting     bool   `json:"acceptsPosting"`
	RequiresThirdParty bool   `json:"requiresThirdParty"`
}

// UpdateAccountRequest defines fields that can be changed after creation.
type UpdateAccountRequest struct {
	Name               *string `json:"name,omitempty"`
	RequiresThirdParty *bool   `json:"requiresThirdParty,omitempty"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID          string `json:"accountID"`
	Code               string `json:"code"`
	Name               string `json:"name"`
	AccountType        string `json:"accountType"`
	Nature             string `json:"nature"`
	Level              int    `json:"level"`
	ParentCode         string `json:"parentCode,omitempty"`
	AcceptsPosting     bool   `json:"acceptsPosting"`
	RequiresThirdParty bool   `json:"requiresThirdParty"`
	IsActive           bool   `json:"isActive"`
}

// ToAccountResponse converts a domain.Account to its response DTO.
func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:          a.AccountID,
		Code:               a.Code,
		Name:               a.Name,
		AccountType:        string(a.AccountType),
		Nature:             string(a.Nature),
		Level:              a.Level,
		ParentCode:         a.ParentCode,
		AcceptsPosting:     a.AcceptsPosting,
		RequiresThirdParty: a.RequiresThirdParty,
		IsActive:           a.IsActive,
	}
}

// ToAccountResponses converts a slice of accounts.
func ToAccountResponses(accounts []domain.Account) []AccountResponse {
	responses := make([]AccountResponse, len(accounts))
	for i := range accounts {
		responses[i] = ToAccountResponse(&accounts[i])
	}
	return responses
}
