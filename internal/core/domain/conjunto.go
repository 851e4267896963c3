package domain

// Conjunto is a residential property (the tenant scope for every ledger
// operation). All accounts, transactions and entries belong to exactly one
// conjunto; nothing in the core may cross this boundary.
type Conjunto struct {
	ConjuntoID string `json:"conjuntoID"` // Primary Key (e.g., UUID)
	Name       string `json:"name"`
	City       string `json:"city"`
	IsActive   bool   `json:"isActive"`
	AuditFields
}
