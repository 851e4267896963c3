package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionPosted is emitted whenever a ledger transaction transitions to
// POSTED. It carries enough data for listeners (notifications, accounting
// hooks) to act without re-querying the ledger.
type TransactionPosted struct {
	ConjuntoID    string          `json:"conjuntoID"`
	TransactionID string          `json:"transactionID"`
	Number        string          `json:"number"`
	TotalDebit    decimal.Decimal `json:"totalDebit"`
	TotalCredit   decimal.Decimal `json:"totalCredit"`
	PostedBy      string          `json:"postedBy"`
	PostedAt      time.Time       `json:"postedAt"`
}

// ReserveAppropriationCreated is emitted when the reserve fund engine posts a
// monthly appropriation transaction.
type ReserveAppropriationCreated struct {
	ConjuntoID         string          `json:"conjuntoID"`
	TransactionID      string          `json:"transactionID"`
	Month              int             `json:"month"`
	Year               int             `json:"year"`
	AppropriatedAmount decimal.Decimal `json:"appropriatedAmount"`
	MonthlyIncome      decimal.Decimal `json:"monthlyIncome"`
	Forced             bool            `json:"forced"`
}
