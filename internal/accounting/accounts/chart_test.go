package accounts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/posledger/posledger/testing"
)

func TestNewChartSeedsSystemAccounts(t *testing.T) {
	chart := NewChart(nil)
	require.Equal(t, len(SystemAccounts), chart.Len())

	cases := map[string]AccountType{
		CashBank:           AccountTypeAsset,
		AccountsReceivable: AccountTypeAsset,
		Inventory:          AccountTypeAsset,
		AccountsPayable:    AccountTypeLiability,
		Sales:              AccountTypeRevenue,
		CostOfGoodsSold:    AccountTypeExpense,
		OperatingExpenses:  AccountTypeExpense,
	}
	for name, typ := range cases {
		acc, ok := chart.Lookup(name)
		require.Truef(t, ok, "missing %s", name)
		assert.Equal(t, typ, acc.Type)
		assert.True(t, acc.System)
	}
}

func TestNewChartSystemTypesWin(t *testing.T) {
	chart := NewChart([]Account{
		{ID: 9, Name: CashBank, Type: AccountTypeLiability},
		{ID: 10, Name: "Rent Expense", Type: AccountTypeExpense},
		{Name: ""},
	})
	cash, _ := chart.Lookup(CashBank)
	assert.Equal(t, AccountTypeAsset, cash.Type)
	assert.Equal(t, int64(9), cash.ID)
	assert.True(t, chart.Has("Rent Expense"))
	assert.Equal(t, len(SystemAccounts)+1, chart.Len())

	names := make([]string, 0)
	for _, acc := range chart.Accounts() {
		names = append(names, acc.Name)
	}
	assert.IsIncreasing(t, names)
}

func TestNormalSide(t *testing.T) {
	assert.Equal(t, SideDebit, AccountTypeAsset.NormalSide())
	assert.Equal(t, SideDebit, AccountTypeExpense.NormalSide())
	assert.Equal(t, SideCredit, AccountTypeLiability.NormalSide())
	assert.Equal(t, SideCredit, AccountTypeEquity.NormalSide())
	assert.Equal(t, SideCredit, AccountTypeRevenue.NormalSide())
	assert.Equal(t, SideCredit, SideDebit.Opposite())
}

func TestParseAccountType(t *testing.T) {
	typ, ok := ParseAccountType(" Expense ")
	assert.True(t, ok)
	assert.Equal(t, AccountTypeExpense, typ)
	_, ok = ParseAccountType("income")
	assert.False(t, ok)
}
