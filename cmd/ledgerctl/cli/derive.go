package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/posledger/posledger/internal/accounting"
	"github.com/posledger/posledger/internal/accounting/accounts"
	"github.com/posledger/posledger/internal/accounting/journals"
	"github.com/posledger/posledger/internal/accounting/reports"
)

// Report names accepted by --report.
const (
	ReportJournal = "journal"
	ReportTrial   = "trial-balance"
	ReportPL      = "profit-and-loss"
	ReportBS      = "balance-sheet"
	ReportStock   = "stock-valuation"
	ReportAll     = "all"
)

// InputFile is the JSON document read by derive.
type InputFile struct {
	Sales     []journals.Sale         `json:"sales"`
	Expenses  []journals.Expense      `json:"expenses"`
	Vouchers  []journals.Voucher      `json:"vouchers"`
	Accounts  []accounts.Account      `json:"accounts"`
	Inventory []reports.InventoryItem `json:"inventory"`
}

// Inputs converts the file into derivation inputs.
func (f InputFile) Inputs() accounting.Inputs {
	return accounting.Inputs{
		Sales:     f.Sales,
		Expenses:  f.Expenses,
		Vouchers:  f.Vouchers,
		Chart:     accounts.NewChart(f.Accounts),
		Inventory: f.Inventory,
	}
}

// DeriveOptions collects the derive flags.
type DeriveOptions struct {
	Input       string
	Report      string
	CreditMatch string
	Policy      string
	Locale      string
	JSON        bool
}

func newDeriveCommand() *cobra.Command {
	opts := DeriveOptions{}

	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive ledger reports from a JSON export of POS records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunDerive(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "path to the input JSON file, - for stdin (required)")
	_ = cmd.MarkFlagRequired("input")
	cmd.Flags().StringVarP(&opts.Report, "report", "r", ReportAll, "journal, trial-balance, profit-and-loss, balance-sheet, stock-valuation or all")
	cmd.Flags().StringVar(&opts.CreditMatch, "credit-match", string(journals.CreditMatchExact), "credit sale matching: exact or fold")
	cmd.Flags().StringVar(&opts.Policy, "policy", string(reports.PolicyStrict), "unknown account policy: strict or legacy")
	cmd.Flags().StringVar(&opts.Locale, "locale", "id-ID", "locale used for amount formatting")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print the full snapshot as JSON")

	return cmd
}

// RunDerive reads the input file, derives a snapshot and prints the report.
func RunDerive(out io.Writer, opts DeriveOptions) error {
	file, err := readInput(opts.Input)
	if err != nil {
		return err
	}
	switch journals.CreditMatch(opts.CreditMatch) {
	case journals.CreditMatchExact, journals.CreditMatchFold:
	default:
		return fmt.Errorf("unknown credit match %q", opts.CreditMatch)
	}
	switch reports.Policy(opts.Policy) {
	case reports.PolicyStrict, reports.PolicyLegacy:
	default:
		return fmt.Errorf("unknown policy %q", opts.Policy)
	}

	snap, err := accounting.Derive(file.Inputs(), accounting.Options{
		CreditMatch: journals.ParseCreditMatch(opts.CreditMatch),
		Policy:      reports.ParsePolicy(opts.Policy),
	})
	if err != nil {
		return fmt.Errorf("derive: %w", err)
	}

	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	fmtr, err := newAmountFormatter(opts.Locale)
	if err != nil {
		return err
	}
	p := reportPrinter{out: out, amount: fmtr}
	switch opts.Report {
	case ReportJournal:
		p.journal(snap)
	case ReportTrial:
		p.trialBalance(snap)
	case ReportPL:
		p.profitAndLoss(snap)
	case ReportBS:
		p.balanceSheet(snap)
	case ReportStock:
		p.stock(snap)
	case ReportAll:
		p.journal(snap)
		p.trialBalance(snap)
		p.profitAndLoss(snap)
		p.balanceSheet(snap)
		p.stock(snap)
	default:
		return fmt.Errorf("unknown report %q", opts.Report)
	}
	p.rejected(snap)
	return nil
}

func readInput(path string) (InputFile, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return InputFile{}, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	var file InputFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return InputFile{}, fmt.Errorf("decode input: %w", err)
	}
	return file, nil
}

type reportPrinter struct {
	out    io.Writer
	amount amountFormatter
}

func (p reportPrinter) table(title string, rows func(w io.Writer)) {
	fmt.Fprintf(p.out, "== %s ==\n", title)
	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', tabwriter.AlignRight)
	rows(w)
	_ = w.Flush()
	fmt.Fprintln(p.out)
}

func (p reportPrinter) journal(snap accounting.Snapshot) {
	p.table("Journal", func(w io.Writer) {
		fmt.Fprintln(w, "Date\tID\tType\tDebit\tCredit\tAmount\t")
		for _, tx := range snap.Transactions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
				tx.Date.Format("2006-01-02"), tx.ID, tx.Type, tx.Debit.Account, tx.Credit.Account, p.amount.Format(tx.Debit.Amount))
		}
	})
}

func (p reportPrinter) trialBalance(snap accounting.Snapshot) {
	tb := snap.TrialBalance
	p.table("Trial Balance", func(w io.Writer) {
		fmt.Fprintln(w, "Account\tType\tDebit\tCredit\t")
		for _, row := range tb.Rows {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", row.Account, row.Type, p.amount.Format(row.Debit), p.amount.Format(row.Credit))
		}
		fmt.Fprintf(w, "Total\t\t%s\t%s\t\n", p.amount.Format(tb.TotalDebit), p.amount.Format(tb.TotalCredit))
	})
	if !tb.Balanced() {
		fmt.Fprintf(p.out, "WARNING: trial balance differs by %s\n\n", p.amount.Format(tb.Difference()))
	}
}

func (p reportPrinter) profitAndLoss(snap accounting.Snapshot) {
	pl := snap.ProfitAndLoss
	p.table("Profit & Loss", func(w io.Writer) {
		fmt.Fprintf(w, "Revenue\t%s\t\n", p.amount.Format(pl.Revenue))
		fmt.Fprintf(w, "Cost of Goods Sold\t%s\t\n", p.amount.Format(pl.COGS))
		fmt.Fprintf(w, "Gross Profit\t%s\t\n", p.amount.Format(pl.GrossProfit))
		fmt.Fprintf(w, "Operating Expenses\t%s\t\n", p.amount.Format(pl.OperatingExpenses))
		fmt.Fprintf(w, "Net Profit\t%s\t\n", p.amount.Format(pl.NetProfit))
		for _, acc := range pl.OtherRevenue {
			fmt.Fprintf(w, "+ %s\t%s\t\n", acc.Account, p.amount.Format(acc.Amount))
		}
		for _, acc := range pl.OtherExpenses {
			fmt.Fprintf(w, "- %s\t%s\t\n", acc.Account, p.amount.Format(acc.Amount))
		}
		fmt.Fprintf(w, "Net Income\t%s\t\n", p.amount.Format(pl.NetIncome))
	})
}

func (p reportPrinter) balanceSheet(snap accounting.Snapshot) {
	bs := snap.BalanceSheet
	p.table("Balance Sheet", func(w io.Writer) {
		fmt.Fprintf(w, "Cash & Bank\t%s\t\n", p.amount.Format(bs.Assets.CashAndBank))
		fmt.Fprintf(w, "Accounts Receivable\t%s\t\n", p.amount.Format(bs.Assets.AccountsReceivable))
		fmt.Fprintf(w, "Inventory\t%s\t\n", p.amount.Format(bs.Assets.Inventory))
		fmt.Fprintf(w, "Total Assets\t%s\t\n", p.amount.Format(bs.Assets.Total))
		fmt.Fprintf(w, "Accounts Payable\t%s\t\n", p.amount.Format(bs.Liabilities.AccountsPayable))
		fmt.Fprintf(w, "Retained Earnings\t%s\t\n", p.amount.Format(bs.Equity.RetainedEarnings))
		fmt.Fprintf(w, "Total Liabilities & Equity\t%s\t\n", p.amount.Format(bs.TotalLiabilitiesAndEquity))
	})
	if !bs.Balanced() {
		fmt.Fprintf(p.out, "WARNING: balance sheet differs by %s\n\n", p.amount.Format(bs.Difference))
	}
}

func (p reportPrinter) stock(snap accounting.Snapshot) {
	p.table("Stock Valuation", func(w io.Writer) {
		fmt.Fprintln(w, "Item\tSKU\tStock\tCost\tValue\t")
		for _, row := range snap.StockValuation.Rows {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n", row.Name, row.SKU, row.Stock, p.amount.Format(row.CostPrice), p.amount.Format(row.Value))
		}
		fmt.Fprintf(w, "Total\t\t\t\t%s\t\n", p.amount.Format(snap.StockValuation.Total))
	})
}

func (p reportPrinter) rejected(snap accounting.Snapshot) {
	for _, bad := range snap.Rejected {
		fmt.Fprintf(p.out, "skipped: %s\n", bad.Error())
	}
}
