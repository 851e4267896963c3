package dto

import (
	"time"

	"github.com/copropia/conjunto_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateEntryRequest describes one debit or credit line in a request body.
type CreateEntryRequest struct {
	AccountCode    string          `json:"accountCode" binding:"required"`
	Description    string          `json:"description"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	ThirdPartyType string          `json:"thirdPartyType"`
	ThirdPartyID   string          `json:"thirdPartyID"`
}

// ThirdParty converts the optional counterparty fields to a domain reference.
func (r CreateEntryRequest) ThirdParty() *domain.ThirdParty {
	if r.ThirdPartyID == "" {
		return nil
	}
	return &domain.ThirdParty{Type: r.ThirdPartyType, ID: r.ThirdPartyID}
}

// CreateTransactionRequest defines the body for creating a draft transaction.
type CreateTransactionRequest struct {
	Date          time.Time            `json:"date" binding:"required"`
	Description   string               `json:"description" binding:"required"`
	ReferenceType string               `json:"referenceType"`
	ReferenceID   string               `json:"referenceID"`
	Entries       []CreateEntryRequest `json:"entries" binding:"omitempty,dive"`
}

// ListTransactionsParams holds query parameters for listing transactions.
type ListTransactionsParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// EntryResponse defines the data returned for a ledger entry.
type EntryResponse struct {
	EntryID        string          `json:"entryID"`
	AccountID      string          `json:"accountID"`
	AccountCode    string          `json:"accountCode"`
	Description    string          `json:"description,omitempty"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	ThirdPartyType string          `json:"thirdPartyType,omitempty"`
	ThirdPartyID   string          `json:"thirdPartyID,omitempty"`
}

// TransactionResponse defines the data returned for a ledger transaction.
type TransactionResponse struct {
	TransactionID string          `json:"transactionID"`
	Number        string          `json:"number"`
	Date          time.Time       `json:"date"`
	Status        string          `json:"status"`
	Description   string          `json:"description"`
	ReferenceType string          `json:"referenceType,omitempty"`
	ReferenceID   string          `json:"referenceID,omitempty"`
	TotalDebit    decimal.Decimal `json:"totalDebit"`
	TotalCredit   decimal.Decimal `json:"totalCredit"`
	PostedAt      *time.Time      `json:"postedAt,omitempty"`
	PostedBy      string          `json:"postedBy,omitempty"`
	Entries       []EntryResponse `json:"entries,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	CreatedBy     string          `json:"createdBy"`
}

// ListTransactionsResponse wraps a page of transactions.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// ToEntryResponse converts a domain.Entry to its response DTO.
func ToEntryResponse(e *domain.Entry) EntryResponse {
	return EntryResponse{
		EntryID:        e.EntryID,
		AccountID:      e.AccountID,
		AccountCode:    e.AccountCode,
		Description:    e.Description,
		Debit:          e.Debit,
		Credit:         e.Credit,
		ThirdPartyType: e.ThirdPartyType,
		ThirdPartyID:   e.ThirdPartyID,
	}
}

// ToTransactionResponse converts a domain.LedgerTransaction to its response DTO.
func ToTransactionResponse(t *domain.LedgerTransaction) TransactionResponse {
	resp := TransactionResponse{
		TransactionID: t.TransactionID,
		Number:        t.Number,
		Date:          t.Date,
		Status:        string(t.Status),
		Description:   t.Description,
		ReferenceType: t.ReferenceType,
		ReferenceID:   t.ReferenceID,
		TotalDebit:    t.TotalDebit,
		TotalCredit:   t.TotalCredit,
		PostedAt:      t.PostedAt,
		PostedBy:      t.PostedBy,
		CreatedAt:     t.CreatedAt,
		CreatedBy:     t.CreatedBy,
	}
	if len(t.Entries) > 0 {
		resp.Entries = make([]EntryResponse, len(t.Entries))
		for i := range t.Entries {
			resp.Entries[i] = ToEntryResponse(&t.Entries[i])
		}
	}
	return resp
}

// ToTransactionResponses converts a slice of transactions.
func ToTransactionResponses(txns []domain.LedgerTransaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txns))
	for i := range txns {
		responses[i] = ToTransactionResponse(&txns[i])
	}
	return responses
}
