package accounting_test

import (
	"testing"

	"github.com/copropia/conjunto_ledger_app/internal/core/domain"
	"github.com/copropia/conjunto_ledger_app/internal/utils/accounting"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedMovement(t *testing.T) {
	debitEntry := domain.Entry{AccountCode: "530502", Debit: decimal.NewFromInt(100), Credit: decimal.Zero}
	creditEntry := domain.Entry{AccountCode: "413505", Debit: decimal.Zero, Credit: decimal.NewFromInt(100)}

	got, err := accounting.SignedMovement(debitEntry, domain.NatureDebit)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(100)), "debit on debit-natured account increases it")

	got, err = accounting.SignedMovement(debitEntry, domain.NatureCredit)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(-100)), "debit on credit-natured account decreases it")

	got, err = accounting.SignedMovement(creditEntry, domain.NatureCredit)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(100)))

	_, err = accounting.SignedMovement(debitEntry, domain.AccountNature("WEIRD"))
	assert.Error(t, err)
}

func TestMovesAgainstNature(t *testing.T) {
	debitEntry := domain.Entry{Debit: decimal.NewFromInt(50)}
	creditEntry := domain.Entry{Credit: decimal.NewFromInt(50)}

	assert.False(t, accounting.MovesAgainstNature(debitEntry, domain.NatureDebit))
	assert.True(t, accounting.MovesAgainstNature(creditEntry, domain.NatureDebit))
	assert.True(t, accounting.MovesAgainstNature(debitEntry, domain.NatureCredit))
	assert.False(t, accounting.MovesAgainstNature(creditEntry, domain.NatureCredit))
}

func TestApplyPercentage(t *testing.T) {
	income := decimal.NewFromInt(1000000)
	got := accounting.ApplyPercentage(income, decimal.NewFromInt(30))
	assert.True(t, got.Equal(decimal.NewFromInt(300000)))

	odd := decimal.NewFromFloat(1050001.55)
	got = accounting.ApplyPercentage(odd, decimal.NewFromInt(30))
	assert.Equal(t, "315000.47", got.StringFixed(2))
}
