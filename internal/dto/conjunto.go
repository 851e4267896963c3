package dto

import (
	"github.com/copropia/conjunto_ledger_app/internal/core/domain"
)

// CreateConjuntoRequest defines the expected JSON body for registering a
// conjunto.
type CreateConjuntoRequest struct {
	Name string `json:"name" binding:"required"`
	City string `json:"city"`
}

// ConjuntoResponse defines the data returned for a conjunto.
type ConjuntoResponse struct {
	ConjuntoID string `json:"conjuntoID"`
	Name       string `json:"name"`
	City       string `json:"city,omitempty"`
	IsActive   bool   `json:"isActive"`
}

// ToConjuntoResponse converts a domain.Conjunto to its response DTO.
func ToConjuntoResponse(c *domain.Conjunto) ConjuntoResponse {
	return ConjuntoResponse{
		ConjuntoID: c.ConjuntoID,
		Name:       c.Name,
		City:       c.City,
		IsActive:   c.IsActive,
	}
}

// ToConjuntoResponses converts a slice of conjuntos.
func ToConjuntoResponses(conjuntos []domain.Conjunto) []ConjuntoResponse {
	responses := make([]ConjuntoResponse, len(conjuntos))
	for i := range conjuntos {
		responses[i] = ToConjuntoResponse(&conjuntos[i])
	}
	return responses
}
