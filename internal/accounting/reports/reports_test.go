package reports

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/posledger/posledger/internal/accounting/accounts"
	"github.com/posledger/posledger/internal/accounting/journals"
	"github.com/posledger/posledger/internal/accounting/shared"
	_ "github.com/posledger/posledger/testing"
)

var base = time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func nullDec(v int64) decimal.NullDecimal { return decimal.NewNullDecimal(dec(v)) }

func decPtr(v int64) *decimal.Decimal {
	d := dec(v)
	return &d
}

func derive(t *testing.T, sales []journals.Sale, expenses []journals.Expense, vouchers []journals.Voucher, chart accounts.Chart, policy Policy) Ledgers {
	t.Helper()
	txs, rejected := journals.Derive(sales, expenses, vouchers, journals.Options{})
	require.Empty(t, rejected)
	ledgers, err := DeriveLedgers(txs, chart, policy)
	require.NoError(t, err)
	return ledgers
}

func TestCashSaleScenario(t *testing.T) {
	sales := []journals.Sale{{ID: 1, Timestamp: base, Total: nullDec(100000), Profit: decPtr(40000), PaymentMethod: "Cash"}}
	ledgers := derive(t, sales, nil, nil, accounts.NewChart(nil), PolicyStrict)

	assert.True(t, ledgers.Balance(accounts.Sales).Equal(dec(100000)))
	assert.True(t, ledgers.Balance(accounts.CashBank).Equal(dec(100000)))
	assert.True(t, ledgers.Balance(accounts.CostOfGoodsSold).Equal(dec(60000)))
	assert.True(t, ledgers.Balance(accounts.Inventory).Equal(dec(-60000)))

	pl := DeriveProfitAndLoss(ledgers)
	assert.True(t, pl.GrossProfit.Equal(dec(40000)))
	assert.True(t, pl.NetProfit.Equal(dec(40000)))
}

func TestCreditSaleScenario(t *testing.T) {
	sales := []journals.Sale{{ID: 2, Timestamp: base, Total: nullDec(50000), PaymentMethod: "Credit"}}
	ledgers := derive(t, sales, nil, nil, accounts.NewChart(nil), PolicyStrict)

	assert.True(t, ledgers.Balance(accounts.AccountsReceivable).Equal(dec(50000)))
	assert.True(t, ledgers.Balance(accounts.CashBank).IsZero())
	assert.Empty(t, ledgers[accounts.CostOfGoodsSold].Entries)
}

func TestSaleReturnNetsSalesToZero(t *testing.T) {
	sales := []journals.Sale{
		{ID: 1, Timestamp: base, Total: nullDec(100000), PaymentMethod: "Cash"},
		{ID: 2, Timestamp: base.Add(time.Hour), Total: nullDec(-100000), PaymentMethod: "Cash"},
	}
	ledgers := derive(t, sales, nil, nil, accounts.NewChart(nil), PolicyStrict)

	assert.True(t, ledgers.Balance(accounts.Sales).IsZero())
	assert.True(t, ledgers.Balance(accounts.CashBank).IsZero())
	require.Len(t, ledgers[accounts.Sales].Entries, 2)

	tb := DeriveTrialBalance(ledgers)
	assert.Empty(t, tb.Rows)
	assert.True(t, DeriveProfitAndLoss(ledgers).Revenue.IsZero())
}

func TestExpenseScenario(t *testing.T) {
	expenses := []journals.Expense{{ID: 3, Timestamp: base, Description: "Rent", Amount: nullDec(20000)}}
	ledgers := derive(t, nil, expenses, nil, accounts.NewChart(nil), PolicyStrict)

	assert.True(t, ledgers.Balance(accounts.OperatingExpenses).Equal(dec(20000)))
	assert.True(t, ledgers.Balance(accounts.CashBank).Equal(dec(-20000)))
	assert.True(t, DeriveProfitAndLoss(ledgers).NetProfit.Equal(dec(-20000)))

	tb := DeriveTrialBalance(ledgers)
	row, ok := tb.Row(accounts.CashBank)
	require.True(t, ok)
	assert.True(t, row.Abnormal)
	assert.True(t, row.Credit.Equal(dec(20000)))
	assert.True(t, tb.Balanced())
}

func rentVoucher() journals.Voucher {
	return journals.Voucher{
		ID: uuid.New(), Date: base, Type: journals.VoucherJournal, Amount: dec(15000),
		DebitAccount: "Rent Expense", CreditAccount: accounts.CashBank,
	}
}

func TestUnregisteredAccountStrict(t *testing.T) {
	txs, _ := journals.Derive(nil, nil, []journals.Voucher{rentVoucher()}, journals.Options{})

	_, err := DeriveLedgers(txs, accounts.NewChart(nil), PolicyStrict)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrUnknownAccount))

	var unclassified *shared.UnclassifiedAccountError
	require.True(t, errors.As(err, &unclassified))
	assert.Equal(t, []string{"Rent Expense"}, unclassified.Accounts)
}

func TestUnregisteredAccountLegacyIsCreditNormal(t *testing.T) {
	ledgers := derive(t, nil, nil, []journals.Voucher{rentVoucher()}, accounts.NewChart(nil), PolicyLegacy)

	rent := ledgers["Rent Expense"]
	assert.False(t, rent.Classified)
	assert.Equal(t, accounts.SideCredit, rent.NormalSide())
	// A debit decreases a credit-normal balance: the historical misclassification.
	assert.True(t, rent.Balance.Equal(dec(-15000)))
	assert.True(t, ledgers.Balance(accounts.CashBank).Equal(dec(-15000)))

	tb := DeriveTrialBalance(ledgers)
	assert.True(t, tb.Balanced())
}

func TestRegisteredVoucherAccount(t *testing.T) {
	chart := accounts.NewChart([]accounts.Account{{Name: "Rent Expense", Type: accounts.AccountTypeExpense}})
	ledgers := derive(t, nil, nil, []journals.Voucher{rentVoucher()}, chart, PolicyStrict)

	assert.True(t, ledgers.Balance("Rent Expense").Equal(dec(15000)))
	pl := DeriveProfitAndLoss(ledgers)
	require.Len(t, pl.OtherExpenses, 1)
	assert.True(t, pl.NetProfit.IsZero())
	assert.True(t, pl.NetIncome.Equal(dec(-15000)))
}

func TestEmptyInputs(t *testing.T) {
	ledgers, err := DeriveLedgers(nil, accounts.EmptyChart(), PolicyStrict)
	require.NoError(t, err)
	assert.Empty(t, ledgers)

	tb := DeriveTrialBalance(ledgers)
	assert.Empty(t, tb.Rows)
	assert.True(t, tb.Balanced())

	pl := DeriveProfitAndLoss(ledgers)
	assert.True(t, pl.NetProfit.IsZero())
	bs := DeriveBalanceSheet(ledgers, pl)
	assert.True(t, bs.Balanced())
	assert.Empty(t, DeriveStockValuation(nil).Rows)
}

func TestChartAccountsWithoutPostingsGetEmptyLedgers(t *testing.T) {
	ledgers, err := DeriveLedgers(nil, accounts.NewChart(nil), PolicyStrict)
	require.NoError(t, err)
	assert.Len(t, ledgers, len(accounts.SystemAccounts))
	for _, ledger := range ledgers {
		assert.Empty(t, ledger.Entries)
		assert.True(t, ledger.Balance.IsZero())
	}
}

func mixedInputs() ([]journals.Sale, []journals.Expense, []journals.Voucher) {
	sales := []journals.Sale{
		{ID: 1, Timestamp: base, Total: nullDec(120000), Profit: decPtr(30000), PaymentMethod: "Cash"},
		{ID: 2, Timestamp: base.Add(2 * time.Hour), Total: nullDec(45000), PaymentMethod: "Credit"},
		{ID: 3, Timestamp: base.Add(time.Hour), Total: nullDec(80000), Profit: decPtr(80000), PaymentMethod: "QRIS"},
	}
	expenses := []journals.Expense{
		{ID: 1, Timestamp: base.Add(3 * time.Hour), Description: "Electricity", Amount: nullDec(25000)},
		{ID: 2, Timestamp: base, Description: "Cleaning", Amount: nullDec(5000)},
	}
	vouchers := []journals.Voucher{
		{ID: uuid.New(), Date: base.Add(4 * time.Hour), Type: journals.VoucherReceipt, Amount: dec(45000), DebitAccount: accounts.CashBank, CreditAccount: accounts.AccountsReceivable},
		{ID: uuid.New(), Date: base.Add(5 * time.Hour), Type: journals.VoucherPayment, Amount: dec(10000), DebitAccount: accounts.Inventory, CreditAccount: accounts.CashBank},
	}
	return sales, expenses, vouchers
}

func TestTrialBalanceIdentity(t *testing.T) {
	sales, expenses, vouchers := mixedInputs()
	ledgers := derive(t, sales, expenses, vouchers, accounts.NewChart(nil), PolicyStrict)

	tb := DeriveTrialBalance(ledgers)
	assert.True(t, tb.Balanced(), "debit %s credit %s", tb.TotalDebit, tb.TotalCredit)
	assert.True(t, tb.Difference().IsZero())
}

// randomInputs builds a seeded mix of sales, returns, expenses, refunds and
// vouchers between random system accounts.
func randomInputs(r *rand.Rand) ([]journals.Sale, []journals.Expense, []journals.Voucher) {
	methods := []string{"Cash", "Credit", "QRIS", "Card", ""}
	amount := func(max int64) decimal.Decimal { return decimal.New(r.Int64N(max), -2) }

	var sales []journals.Sale
	for i := range 40 + r.IntN(60) {
		total := amount(50_000_000)
		if r.IntN(5) == 0 {
			total = total.Neg()
		}
		sale := journals.Sale{
			ID:            int64(i + 1),
			Timestamp:     base.Add(time.Duration(r.IntN(10_000)) * time.Minute),
			Total:         decimal.NewNullDecimal(total),
			PaymentMethod: methods[r.IntN(len(methods))],
		}
		if r.IntN(2) == 0 {
			profit := amount(20_000_000)
			sale.Profit = &profit
		}
		sales = append(sales, sale)
	}

	var expenses []journals.Expense
	for i := range r.IntN(30) {
		amt := amount(5_000_000)
		if r.IntN(6) == 0 {
			amt = amt.Neg()
		}
		expenses = append(expenses, journals.Expense{
			ID:          int64(i + 1),
			Timestamp:   base.Add(time.Duration(r.IntN(10_000)) * time.Minute),
			Description: "expense",
			Amount:      decimal.NewNullDecimal(amt),
		})
	}

	names := make([]string, 0, len(accounts.SystemAccounts))
	for _, acc := range accounts.SystemAccounts {
		names = append(names, acc.Name)
	}
	types := []journals.VoucherType{journals.VoucherPayment, journals.VoucherReceipt, journals.VoucherJournal, journals.VoucherContra}
	var vouchers []journals.Voucher
	for range r.IntN(20) {
		debit := r.IntN(len(names))
		credit := (debit + 1 + r.IntN(len(names)-1)) % len(names)
		vouchers = append(vouchers, journals.Voucher{
			ID:            uuid.New(),
			Date:          base.Add(time.Duration(r.IntN(10_000)) * time.Minute),
			Type:          types[r.IntN(len(types))],
			Amount:        amount(10_000_000).Add(decimal.New(1, -2)),
			DebitAccount:  names[debit],
			CreditAccount: names[credit],
		})
	}
	return sales, expenses, vouchers
}

func TestIdentitiesHoldForRandomInputs(t *testing.T) {
	for seed := uint64(1); seed <= 25; seed++ {
		r := rand.New(rand.NewPCG(seed, seed*31))
		sales, expenses, vouchers := randomInputs(r)

		txs, rejected := journals.Derive(sales, expenses, vouchers, journals.Options{})
		require.Empty(t, rejected, "seed %d", seed)
		for _, tx := range txs {
			require.True(t, tx.Balanced(), "seed %d: %s", seed, tx.ID)
		}
		ledgers, err := DeriveLedgers(txs, accounts.NewChart(nil), PolicyStrict)
		require.NoError(t, err, "seed %d", seed)

		tb := DeriveTrialBalance(ledgers)
		assert.True(t, tb.Balanced(), "seed %d: debit %s credit %s", seed, tb.TotalDebit, tb.TotalCredit)

		bs := DeriveBalanceSheet(ledgers, DeriveProfitAndLoss(ledgers))
		assert.True(t, bs.Balanced(), "seed %d: difference %s", seed, bs.Difference)
	}
}

func TestBalanceSheetIdentityForSystemFlows(t *testing.T) {
	sales, expenses, vouchers := mixedInputs()
	ledgers := derive(t, sales, expenses, vouchers, accounts.NewChart(nil), PolicyStrict)

	bs := DeriveBalanceSheet(ledgers, DeriveProfitAndLoss(ledgers))
	assert.True(t, bs.Balanced(), "difference %s", bs.Difference)
	assert.True(t, bs.Assets.Total.Equal(bs.TotalLiabilitiesAndEquity))
}

func TestDeriveLedgersIsDeterministic(t *testing.T) {
	sales, expenses, vouchers := mixedInputs()
	chart := accounts.NewChart(nil)
	first := derive(t, sales, expenses, vouchers, chart, PolicyStrict)
	second := derive(t, sales, expenses, vouchers, chart, PolicyStrict)
	assert.Equal(t, first, second)
}

func TestRunningBalancesAscendDates(t *testing.T) {
	sales, expenses, vouchers := mixedInputs()
	ledgers := derive(t, sales, expenses, vouchers, accounts.NewChart(nil), PolicyStrict)

	cash := ledgers[accounts.CashBank]
	require.NotEmpty(t, cash.Entries)
	running := decimal.Zero
	for i, entry := range cash.Entries {
		if i > 0 {
			assert.False(t, entry.Date.Before(cash.Entries[i-1].Date))
		}
		if entry.Side == accounts.SideDebit {
			running = running.Add(entry.Amount)
		} else {
			running = running.Sub(entry.Amount)
		}
		assert.True(t, entry.Balance.Equal(running))
	}
	assert.True(t, cash.Balance.Equal(running))
}

func TestSignConvention(t *testing.T) {
	chart := accounts.NewChart(nil)
	debitCash := []journals.Voucher{{ID: uuid.New(), Date: base, Type: journals.VoucherReceipt, Amount: dec(100), DebitAccount: accounts.CashBank, CreditAccount: accounts.Sales}}
	ledgers := derive(t, nil, nil, debitCash, chart, PolicyStrict)
	assert.True(t, ledgers.Balance(accounts.CashBank).IsPositive(), "asset debit increases")
	assert.True(t, ledgers.Balance(accounts.Sales).IsPositive(), "revenue credit increases")

	creditCash := []journals.Voucher{{ID: uuid.New(), Date: base, Type: journals.VoucherPayment, Amount: dec(100), DebitAccount: accounts.Sales, CreditAccount: accounts.CashBank}}
	ledgers = derive(t, nil, nil, creditCash, chart, PolicyStrict)
	assert.True(t, ledgers.Balance(accounts.CashBank).IsNegative(), "asset credit decreases")
	assert.True(t, ledgers.Balance(accounts.Sales).IsNegative(), "revenue debit decreases")
}

func TestZeroBalanceOmitted(t *testing.T) {
	vouchers := []journals.Voucher{
		{ID: uuid.New(), Date: base, Type: journals.VoucherReceipt, Amount: dec(700), DebitAccount: accounts.CashBank, CreditAccount: accounts.AccountsReceivable},
		{ID: uuid.New(), Date: base.Add(time.Minute), Type: journals.VoucherPayment, Amount: dec(700), DebitAccount: accounts.AccountsReceivable, CreditAccount: accounts.CashBank},
	}
	ledgers := derive(t, nil, nil, vouchers, accounts.NewChart(nil), PolicyStrict)
	require.Len(t, ledgers[accounts.CashBank].Entries, 2)

	tb := DeriveTrialBalance(ledgers)
	_, ok := tb.Row(accounts.CashBank)
	assert.False(t, ok)
	_, ok = tb.Row(accounts.AccountsReceivable)
	assert.False(t, ok)
	assert.Empty(t, tb.Rows)
}

func TestStockValuation(t *testing.T) {
	items := []InventoryItem{
		{ID: 1, Name: "Coffee beans", Stock: dec(12), CostPrice: decimal.RequireFromString("45000.50")},
		{ID: 2, Name: "Milk", Stock: dec(0), CostPrice: dec(18000)},
	}
	sv := DeriveStockValuation(items)
	require.Len(t, sv.Rows, 2)
	assert.True(t, sv.Rows[0].Value.Equal(decimal.RequireFromString("540006")))
	assert.True(t, sv.Rows[1].Value.IsZero())
	assert.True(t, sv.Total.Equal(decimal.RequireFromString("540006")))
}

func TestParsePolicy(t *testing.T) {
	assert.Equal(t, PolicyLegacy, ParsePolicy("legacy"))
	assert.Equal(t, PolicyStrict, ParsePolicy(""))
	assert.Equal(t, PolicyStrict, ParsePolicy("anything"))
}
