package reports

import (
	"github.com/shopspring/decimal"

	"github.com/posledger/posledger/internal/accounting/accounts"
)

// TrialBalanceRow is an account's balance placed in the debit or credit column.
type TrialBalanceRow struct {
	Account  string               `json:"account"`
	Type     accounts.AccountType `json:"type,omitempty"`
	Debit    decimal.Decimal      `json:"debit"`
	Credit   decimal.Decimal      `json:"credit"`
	Abnormal bool                 `json:"abnormal"`
}

// TrialBalance lists non-zero balances with column totals.
type TrialBalance struct {
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"totalDebit"`
	TotalCredit decimal.Decimal   `json:"totalCredit"`
}

// Balanced reports whether both columns sum to the same amount.
func (tb TrialBalance) Balanced() bool {
	return tb.TotalDebit.Equal(tb.TotalCredit)
}

// Difference is debit minus credit totals.
func (tb TrialBalance) Difference() decimal.Decimal {
	return tb.TotalDebit.Sub(tb.TotalCredit)
}

// Row finds the row of name.
func (tb TrialBalance) Row(name string) (TrialBalanceRow, bool) {
	for _, row := range tb.Rows {
		if row.Account == name {
			return row, true
		}
	}
	return TrialBalanceRow{}, false
}

// DeriveTrialBalance places each non-zero balance on the account's normal
// side, or its absolute value on the opposite side when negative.
func DeriveTrialBalance(ledgers Ledgers) TrialBalance {
	result := TrialBalance{Rows: []TrialBalanceRow{}, TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}
	for _, name := range ledgers.Names() {
		ledger := ledgers[name]
		if ledger.Balance.IsZero() {
			continue
		}
		side := ledger.NormalSide()
		row := TrialBalanceRow{Account: name, Type: ledger.Type, Debit: decimal.Zero, Credit: decimal.Zero}
		if ledger.Balance.IsNegative() {
			side = side.Opposite()
			row.Abnormal = true
		}
		amount := ledger.Balance.Abs()
		if side == accounts.SideDebit {
			row.Debit = amount
			result.TotalDebit = result.TotalDebit.Add(amount)
		} else {
			row.Credit = amount
			result.TotalCredit = result.TotalCredit.Add(amount)
		}
		result.Rows = append(result.Rows, row)
	}
	return result
}
