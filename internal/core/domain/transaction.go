package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus indicates the lifecycle state of a ledger transaction.
type TransactionStatus string

const (
	Draft  TransactionStatus = "DRAFT"
	Posted TransactionStatus = "POSTED"
	Void   TransactionStatus = "VOID"
)

// Reference types used to tag system-generated transactions.
const (
	ReferenceReserveAppropriation = "reserve_appropriation"
	// ReferenceReserveAppropriationExtra marks forced re-appropriations. They
	// are additive and deliberately outside the once-per-period uniqueness key.
	ReferenceReserveAppropriationExtra = "reserve_appropriation_extra"
	ReferenceReversal                  = "reversal"
	ReferenceManualEntry               = "manual_entry"
)

var (
	// ErrInvalidEntry indicates an entry with bad amounts (both or neither of
	// debit/credit set, or a negative amount).
	ErrInvalidEntry = errors.New("invalid ledger entry")
	// ErrUnbalancedTransaction indicates debits and credits differ beyond the
	// posting tolerance.
	ErrUnbalancedTransaction = errors.New("transaction debits and credits do not balance")
	// ErrAlreadyPosted indicates a post attempt on an already posted transaction.
	ErrAlreadyPosted = errors.New("transaction is already posted")
	// ErrNotDraft indicates a mutation attempt on a non-draft transaction.
	ErrNotDraft = errors.New("transaction is not in draft state")
	// ErrNoEntries indicates a post attempt on a transaction without entries.
	ErrNoEntries = errors.New("transaction has no entries")
	// ErrEntryNotFound indicates the referenced entry is not part of the
	// transaction.
	ErrEntryNotFound = errors.New("entry not found in transaction")
)

// PostingTolerance is the maximum absolute difference between total debits
// and credits accepted at posting time. Covers residual rounding from
// percentage calculations; stored amounts are otherwise exact.
var PostingTolerance = decimal.NewFromFloat(0.01)

// ThirdParty is a weak reference to an external counterparty (an apartment,
// a provider) that some accounts require entries to be attributed to.
type ThirdParty struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Entry is a single debit or credit line within a ledger transaction.
// Exactly one of Debit/Credit is positive; entries never outlive their
// owning transaction.
type Entry struct {
	EntryID            string          `json:"entryID"`       // Primary Key (e.g., UUID)
	TransactionID      string          `json:"transactionID"` // FK -> LedgerTransaction (Not Null)
	AccountID          string          `json:"accountID"`     // FK -> Account (Not Null)
	AccountCode        string          `json:"accountCode"`   // Denormalised for reporting
	Description        string          `json:"description"`
	Debit              decimal.Decimal `json:"debit"`
	Credit             decimal.Decimal `json:"credit"`
	ThirdPartyType     string          `json:"thirdPartyType,omitempty"`
	ThirdPartyID       string          `json:"thirdPartyID,omitempty"`
	RequiresThirdParty bool            `json:"-"` // Carried from the account at entry time
	AuditFields
}

// HasThirdParty reports whether the entry carries a counterparty reference.
func (e Entry) HasThirdParty() bool {
	return e.ThirdPartyID != ""
}

// LedgerTransaction is the aggregate root for one atomic accounting event.
// It owns its entries and enforces the draft -> posted / draft -> void state
// machine; posted history is immutable and corrected only by new offsetting
// transactions.
type LedgerTransaction struct {
	TransactionID string            `json:"transactionID"` // Primary Key (e.g., UUID)
	ConjuntoID    string            `json:"conjuntoID"`    // Owning scope (NON-NULL)
	Number        string            `json:"number"`        // Unique per conjunto, e.g. "2024-000123"
	Date          time.Time         `json:"date"`
	Status        TransactionStatus `json:"status"`
	Description   string            `json:"description"`
	ReferenceType string            `json:"referenceType,omitempty"` // Originating business event
	ReferenceID   string            `json:"referenceID,omitempty"`
	TotalDebit    decimal.Decimal   `json:"totalDebit"`  // Derived, frozen at posting
	TotalCredit   decimal.Decimal   `json:"totalCredit"` // Derived, frozen at posting
	PostedAt      *time.Time        `json:"postedAt,omitempty"`
	PostedBy      string            `json:"postedBy,omitempty"`
	ApprovedBy    string            `json:"approvedBy,omitempty"`
	ApprovedAt    *time.Time        `json:"approvedAt,omitempty"`
	Entries       []Entry           `json:"entries,omitempty"`
	AuditFields
}

// NewLedgerTransaction creates a draft transaction with no entries.
func NewLedgerTransaction(transactionID, conjuntoID, number string, date time.Time, description string, createdBy string, now time.Time) LedgerTransaction {
	return LedgerTransaction{
		TransactionID: transactionID,
		ConjuntoID:    conjuntoID,
		Number:        number,
		Date:          date,
		Status:        Draft,
		Description:   description,
		TotalDebit:    decimal.Zero,
		TotalCredit:   decimal.Zero,
		AuditFields:   NewAuditFields(createdBy, now),
	}
}

// AddEntry appends a debit or credit line to a draft transaction. The account
// must be active and posting-eligible; exactly one of debit/credit must be
// positive and neither may be negative.
func (t *LedgerTransaction) AddEntry(entryID string, account Account, description string, debit, credit decimal.Decimal, thirdParty *ThirdParty, actorID string, now time.Time) error {
	if t.Status != Draft {
		return fmt.Errorf("%w: cannot add entries in status %s", ErrNotDraft, t.Status)
	}
	if account.ConjuntoID != t.ConjuntoID {
		return fmt.Errorf("%w: account %s belongs to another conjunto", ErrInvalidEntry, account.Code)
	}
	if !account.IsActive {
		return fmt.Errorf("%w: account %s is inactive", ErrInvalidEntry, account.Code)
	}
	if !account.AcceptsPosting {
		return fmt.Errorf("%w: account %s does not accept direct postings", ErrInvalidEntry, account.Code)
	}
	if debit.IsNegative() || credit.IsNegative() {
		return fmt.Errorf("%w: amounts must not be negative", ErrInvalidEntry)
	}
	if debit.IsPositive() == credit.IsPositive() {
		return fmt.Errorf("%w: exactly one of debit or credit must be set", ErrInvalidEntry)
	}

	entry := Entry{
		EntryID:            entryID,
		TransactionID:      t.TransactionID,
		AccountID:          account.AccountID,
		AccountCode:        account.Code,
		Description:        description,
		Debit:              debit,
		Credit:             credit,
		RequiresThirdParty: account.RequiresThirdParty,
		AuditFields:        NewAuditFields(actorID, now),
	}
	if thirdParty != nil {
		entry.ThirdPartyType = thirdParty.Type
		entry.ThirdPartyID = thirdParty.ID
	}
	t.Entries = append(t.Entries, entry)
	t.RecomputeTotals()
	t.LastUpdatedAt = now
	t.LastUpdatedBy = actorID
	return nil
}

// RemoveEntry drops an entry from a draft transaction and refreshes the
// cached totals.
func (t *LedgerTransaction) RemoveEntry(entryID string, actorID string, now time.Time) error {
	if t.Status != Draft {
		return fmt.Errorf("%w: cannot remove entries in status %s", ErrNotDraft, t.Status)
	}
	for i := range t.Entries {
		if t.Entries[i].EntryID != entryID {
			continue
		}
		t.Entries = append(t.Entries[:i], t.Entries[i+1:]...)
		t.RecomputeTotals()
		t.LastUpdatedAt = now
		t.LastUpdatedBy = actorID
		return nil
	}
	return fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
}

// RecomputeTotals refreshes the cached debit/credit totals from the entries.
func (t *LedgerTransaction) RecomputeTotals() {
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, e := range t.Entries {
		totalDebit = totalDebit.Add(e.Debit)
		totalCredit = totalCredit.Add(e.Credit)
	}
	t.TotalDebit = totalDebit
	t.TotalCredit = totalCredit
}

// IsBalanced reports whether totals agree within the posting tolerance.
func (t *LedgerTransaction) IsBalanced() bool {
	return t.TotalDebit.Sub(t.TotalCredit).Abs().LessThanOrEqual(PostingTolerance)
}

// Post transitions a draft transaction to POSTED. Totals are recomputed from
// the entries and frozen; on success the typed TransactionPosted event is
// returned for the caller to dispatch. Posting a transaction twice fails with
// ErrAlreadyPosted and leaves the aggregate untouched.
func (t *LedgerTransaction) Post(actorID string, now time.Time) (*TransactionPosted, error) {
	switch t.Status {
	case Posted:
		return nil, fmt.Errorf("%w: transaction %s", ErrAlreadyPosted, t.Number)
	case Void:
		return nil, fmt.Errorf("%w: transaction %s is void", ErrNotDraft, t.Number)
	}
	if len(t.Entries) == 0 {
		return nil, fmt.Errorf("%w: transaction %s", ErrNoEntries, t.Number)
	}
	t.RecomputeTotals()
	if !t.IsBalanced() {
		return nil, fmt.Errorf("%w: debits %s, credits %s", ErrUnbalancedTransaction,
			t.TotalDebit.String(), t.TotalCredit.String())
	}

	postedAt := now
	t.Status = Posted
	t.PostedAt = &postedAt
	t.PostedBy = actorID
	t.LastUpdatedAt = now
	t.LastUpdatedBy = actorID

	return &TransactionPosted{
		ConjuntoID:    t.ConjuntoID,
		TransactionID: t.TransactionID,
		Number:        t.Number,
		TotalDebit:    t.TotalDebit,
		TotalCredit:   t.TotalCredit,
		PostedBy:      actorID,
		PostedAt:      postedAt,
	}, nil
}

// Approve records the optional second signature. Allowed in any non-void
// state; system-generated transactions are approved by the system actor.
func (t *LedgerTransaction) Approve(actorID string, now time.Time) error {
	if t.Status == Void {
		return fmt.Errorf("%w: cannot approve a void transaction", ErrNotDraft)
	}
	approvedAt := now
	t.ApprovedBy = actorID
	t.ApprovedAt = &approvedAt
	t.LastUpdatedAt = now
	t.LastUpdatedBy = actorID
	return nil
}

// MarkVoid transitions a draft transaction to VOID. Posted transactions are
// never voided; they are corrected by a new offsetting transaction.
func (t *LedgerTransaction) MarkVoid(actorID string, now time.Time) error {
	if t.Status == Posted {
		return fmt.Errorf("%w: posted transactions require an offsetting reversal", ErrAlreadyPosted)
	}
	if t.Status == Void {
		return fmt.Errorf("%w: transaction %s is already void", ErrNotDraft, t.Number)
	}
	t.Status = Void
	t.LastUpdatedAt = now
	t.LastUpdatedBy = actorID
	return nil
}
