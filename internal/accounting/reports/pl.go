package reports

import (
	"github.com/shopspring/decimal"

	"github.com/posledger/posledger/internal/accounting/accounts"
)

// ProfitAndLossAccount is a revenue or expense account outside the system set.
type ProfitAndLossAccount struct {
	Account string          `json:"account"`
	Amount  decimal.Decimal `json:"amount"`
}

// ProfitAndLoss summarises trading results from the system accounts.
type ProfitAndLoss struct {
	Revenue           decimal.Decimal        `json:"revenue"`
	COGS              decimal.Decimal        `json:"cogs"`
	GrossProfit       decimal.Decimal        `json:"grossProfit"`
	OperatingExpenses decimal.Decimal        `json:"operatingExpenses"`
	NetProfit         decimal.Decimal        `json:"netProfit"`
	OtherRevenue      []ProfitAndLossAccount `json:"otherRevenue"`
	OtherExpenses     []ProfitAndLossAccount `json:"otherExpenses"`
	NetIncome         decimal.Decimal        `json:"netIncome"`
}

// DeriveProfitAndLoss reads the Sales, Cost of Goods Sold and Operating
// Expenses balances. Other revenue and expense ledgers are listed and only
// affect NetIncome.
func DeriveProfitAndLoss(ledgers Ledgers) ProfitAndLoss {
	pl := ProfitAndLoss{
		Revenue:           ledgers.Balance(accounts.Sales),
		COGS:              ledgers.Balance(accounts.CostOfGoodsSold),
		OperatingExpenses: ledgers.Balance(accounts.OperatingExpenses),
		OtherRevenue:      []ProfitAndLossAccount{},
		OtherExpenses:     []ProfitAndLossAccount{},
	}
	pl.GrossProfit = pl.Revenue.Sub(pl.COGS)
	pl.NetProfit = pl.GrossProfit.Sub(pl.OperatingExpenses)
	pl.NetIncome = pl.NetProfit

	for _, name := range ledgers.Names() {
		ledger := ledgers[name]
		if !ledger.Classified || accounts.IsSystemAccount(name) || ledger.Balance.IsZero() {
			continue
		}
		row := ProfitAndLossAccount{Account: name, Amount: ledger.Balance}
		switch ledger.Type {
		case accounts.AccountTypeRevenue:
			pl.OtherRevenue = append(pl.OtherRevenue, row)
			pl.NetIncome = pl.NetIncome.Add(row.Amount)
		case accounts.AccountTypeExpense:
			pl.OtherExpenses = append(pl.OtherExpenses, row)
			pl.NetIncome = pl.NetIncome.Sub(row.Amount)
		}
	}
	return pl
}
