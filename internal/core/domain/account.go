package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Income    AccountType = "INCOME"
	Expense   AccountType = "EXPENSE"
)

// AccountNature indicates on which side an account naturally increases.
type AccountNature string

const (
	NatureDebit  AccountNature = "DEBIT"
	NatureCredit AccountNature = "CREDIT"
)

// DefaultNature returns the conventional nature for an account type:
// assets and expenses grow on the debit side, everything else on credit.
func (t AccountType) DefaultNature() AccountNature {
	switch t {
	case Asset, Expense:
		return NatureDebit
	default:
		return NatureCredit
	}
}

// Account is a node of a conjunto's chart of accounts. Only posting-eligible
// leaf accounts (AcceptsPosting) may receive ledger entries; parent accounts
// exist for rollups. Accounts referenced by entries are never deleted, only
// retired via IsActive=false.
type Account struct {
	AccountID          string      `json:"accountID"`  // Primary Key (e.g., UUID)
	ConjuntoID         string      `json:"conjuntoID"` // Owning scope (NON-NULL)
	Code               string      `json:"code"`       // Hierarchical code, e.g. "530502"
	Name               string      `json:"name"`
	AccountType        AccountType `json:"accountType"`
	Nature             AccountNature `json:"nature"`
	Level              int         `json:"level"`      // Depth derived from code length
	ParentCode         string      `json:"parentCode"` // Weak reference, lookup only
	AcceptsPosting     bool        `json:"acceptsPosting"`
	RequiresThirdParty bool        `json:"requiresThirdParty"`
	IsActive           bool        `json:"isActive"`
	AuditFields
}

// LevelForCode derives the hierarchy depth from a chart code following the
// usual class/group/account/subaccount code lengths (1, 2, 4, 6 digits).
func LevelForCode(code string) int {
	switch {
	case len(code) <= 1:
		return 1
	case len(code) == 2:
		return 2
	case len(code) <= 4:
		return 3
	case len(code) <= 6:
		return 4
	default:
		return 5
	}
}

// ParentCodeFor returns the code of the immediate parent level, or "" for a
// class-level code.
func ParentCodeFor(code string) string {
	switch {
	case len(code) <= 1:
		return ""
	case len(code) == 2:
		return code[:1]
	case len(code) <= 4:
		return code[:2]
	case len(code) <= 6:
		return code[:4]
	default:
		return code[:6]
	}
}
