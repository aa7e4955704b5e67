package reports

import (
	"github.com/shopspring/decimal"

	"github.com/posledger/posledger/internal/accounting/accounts"
)

// Assets is the asset side of the balance sheet.
type Assets struct {
	CashAndBank        decimal.Decimal `json:"cashAndBank"`
	AccountsReceivable decimal.Decimal `json:"accountsReceivable"`
	Inventory          decimal.Decimal `json:"inventory"`
	Total              decimal.Decimal `json:"total"`
}

// Liabilities is what the business owes.
type Liabilities struct {
	AccountsPayable decimal.Decimal `json:"accountsPayable"`
	Total           decimal.Decimal `json:"total"`
}

// Equity only models retained earnings.
type Equity struct {
	RetainedEarnings decimal.Decimal `json:"retainedEarnings"`
	Total            decimal.Decimal `json:"total"`
}

// BalanceSheet is the simplified statement of financial position.
type BalanceSheet struct {
	Assets                    Assets          `json:"assets"`
	Liabilities               Liabilities     `json:"liabilities"`
	Equity                    Equity          `json:"equity"`
	TotalLiabilitiesAndEquity decimal.Decimal `json:"totalLiabilitiesAndEquity"`
	Difference                decimal.Decimal `json:"difference"`
}

// Balanced reports whether assets equal liabilities plus equity.
func (bs BalanceSheet) Balanced() bool {
	return bs.Difference.IsZero()
}

// DeriveBalanceSheet reads the system asset and liability ledgers and takes
// retained earnings from the net profit.
func DeriveBalanceSheet(ledgers Ledgers, pl ProfitAndLoss) BalanceSheet {
	assets := Assets{
		CashAndBank:        ledgers.Balance(accounts.CashBank),
		AccountsReceivable: ledgers.Balance(accounts.AccountsReceivable),
		Inventory:          ledgers.Balance(accounts.Inventory),
	}
	assets.Total = assets.CashAndBank.Add(assets.AccountsReceivable).Add(assets.Inventory)

	payable := ledgers.Balance(accounts.AccountsPayable)
	liabilities := Liabilities{AccountsPayable: payable, Total: payable}
	equity := Equity{RetainedEarnings: pl.NetProfit, Total: pl.NetProfit}

	total := liabilities.Total.Add(equity.Total)
	return BalanceSheet{
		Assets:                    assets,
		Liabilities:               liabilities,
		Equity:                    equity,
		TotalLiabilitiesAndEquity: total,
		Difference:                assets.Total.Sub(total),
	}
}
