package accounting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckIntegrityPassesDerivedSnapshot(t *testing.T) {
	snap, err := Derive(sampleInputs(), DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, CheckIntegrity(snap))
}

func TestCheckIntegrityFlagsTamperedSnapshot(t *testing.T) {
	snap, err := Derive(sampleInputs(), DefaultOptions())
	require.NoError(t, err)
	require.NotEmpty(t, snap.Transactions)

	snap.Transactions[0].Credit.Amount = snap.Transactions[0].Credit.Amount.Add(amount(1))
	snap.TrialBalance.TotalCredit = snap.TrialBalance.TotalCredit.Add(amount(1))
	snap.BalanceSheet.Difference = amount(5)

	issues := CheckIntegrity(snap)
	require.Len(t, issues, 3)
	assert.Equal(t, CheckTransactionBalance, issues[0].Check)
	assert.Contains(t, issues[0].Detail, snap.Transactions[0].ID)
	assert.Equal(t, CheckTrialBalance, issues[1].Check)
	assert.Equal(t, CheckBalanceSheet, issues[2].Check)
	assert.Contains(t, issues[2].Detail, "5")
}
