package accounting

import (
	"fmt"

	"github.com/copropia/conjunto_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SignedMovement returns the entry amount signed relative to the account's
// nature: positive when the entry increases the account, negative when it
// decreases it. Debit-natured accounts (assets, expenses) grow on debits;
// credit-natured accounts (liabilities, equity, income) grow on credits.
func SignedMovement(entry domain.Entry, nature domain.AccountNature) (decimal.Decimal, error) {
	amount := entry.Debit.Sub(entry.Credit)
	switch nature {
	case domain.NatureDebit:
		return amount, nil
	case domain.NatureCredit:
		return amount.Neg(), nil
	default:
		return decimal.Zero, fmt.Errorf("unknown account nature '%s' for account %s", nature, entry.AccountCode)
	}
}

// MovesAgainstNature reports whether an entry decreases its account, i.e. a
// credit on a debit-natured account or a debit on a credit-natured one. Such
// movements are legal but unusual and surface as validation warnings.
func MovesAgainstNature(entry domain.Entry, nature domain.AccountNature) bool {
	switch nature {
	case domain.NatureDebit:
		return entry.Credit.IsPositive()
	case domain.NatureCredit:
		return entry.Debit.IsPositive()
	default:
		return false
	}
}

// ApplyPercentage computes amount * percentage / 100 rounded to 2 decimal
// places, the scale used for all stored currency values.
func ApplyPercentage(amount, percentage decimal.Decimal) decimal.Decimal {
	return amount.Mul(percentage).Div(decimal.NewFromInt(100)).Round(2)
}
