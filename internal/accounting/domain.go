package accounting

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/posledger/posledger/internal/accounting/accounts"
	"github.com/posledger/posledger/internal/accounting/journals"
	"github.com/posledger/posledger/internal/accounting/reports"
	"github.com/posledger/posledger/internal/accounting/shared"
)

// Options tunes a derivation.
type Options struct {
	CreditMatch journals.CreditMatch
	Policy      reports.Policy
}

// DefaultOptions matches the historical POS behaviour for credit sales and
// refuses to classify unknown accounts.
func DefaultOptions() Options {
	return Options{CreditMatch: journals.CreditMatchExact, Policy: reports.PolicyStrict}
}

// Inputs is an immutable snapshot of everything a derivation reads.
type Inputs struct {
	Sales     []journals.Sale
	Expenses  []journals.Expense
	Vouchers  []journals.Voucher
	Chart     accounts.Chart
	Inventory []reports.InventoryItem
}

// Snapshot bundles every derived view of one set of inputs.
type Snapshot struct {
	Scope          string                         `json:"scope"`
	GeneratedAt    time.Time                      `json:"generatedAt"`
	Accounts       []accounts.Account             `json:"accounts"`
	Transactions   []journals.Transaction         `json:"transactions"`
	Ledgers        reports.Ledgers                `json:"ledgers"`
	TrialBalance   reports.TrialBalance           `json:"trialBalance"`
	ProfitAndLoss  reports.ProfitAndLoss          `json:"profitAndLoss"`
	BalanceSheet   reports.BalanceSheet           `json:"balanceSheet"`
	StockValuation reports.StockValuation         `json:"stockValuation"`
	InventoryBook  decimal.Decimal                `json:"inventoryLedgerBalance"`
	Rejected       []*shared.MalformedRecordError `json:"rejected"`
	Warnings       []string                       `json:"warnings"`
}

// Derive computes every view from in. It is a pure function: equal inputs
// and options always produce equal snapshots.
func Derive(in Inputs, opts Options) (Snapshot, error) {
	txs, rejected := journals.Derive(in.Sales, in.Expenses, in.Vouchers, journals.Options{CreditMatch: opts.CreditMatch})
	ledgers, err := reports.DeriveLedgers(txs, in.Chart, opts.Policy)
	if err != nil {
		return Snapshot{}, err
	}
	pl := reports.DeriveProfitAndLoss(ledgers)
	if rejected == nil {
		rejected = []*shared.MalformedRecordError{}
	}
	return Snapshot{
		Accounts:       in.Chart.Accounts(),
		Transactions:   txs,
		Ledgers:        ledgers,
		TrialBalance:   reports.DeriveTrialBalance(ledgers),
		ProfitAndLoss:  pl,
		BalanceSheet:   reports.DeriveBalanceSheet(ledgers, pl),
		StockValuation: reports.DeriveStockValuation(in.Inventory),
		InventoryBook:  ledgers.Balance(accounts.Inventory),
		Rejected:       rejected,
		Warnings:       []string{},
	}, nil
}
