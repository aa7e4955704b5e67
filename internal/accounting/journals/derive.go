package journals

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/posledger/posledger/internal/accounting/accounts"
	"github.com/posledger/posledger/internal/accounting/shared"
)

// ValidateSale checks the fields a sale needs before it can be journaled.
// Only missing values are rejected; negative totals are returns.
func ValidateSale(s Sale) *shared.MalformedRecordError {
	id := strconv.FormatInt(s.ID, 10)
	switch {
	case s.Timestamp.IsZero():
		return malformed(shared.RecordSale, id, "timestamp", "is required")
	case !s.Total.Valid:
		return malformed(shared.RecordSale, id, "total", "is required")
	}
	return nil
}

// ValidateExpense checks the fields an expense needs before it can be journaled.
// Only missing values are rejected; negative amounts are refunds.
func ValidateExpense(e Expense) *shared.MalformedRecordError {
	id := strconv.FormatInt(e.ID, 10)
	switch {
	case e.Timestamp.IsZero():
		return malformed(shared.RecordExpense, id, "timestamp", "is required")
	case !e.Amount.Valid:
		return malformed(shared.RecordExpense, id, "amount", "is required")
	}
	return nil
}

// ValidateVoucher checks a stored voucher. Chart membership is not checked
// here; it is enforced when the voucher is added.
func ValidateVoucher(v Voucher) *shared.MalformedRecordError {
	id := v.ID.String()
	switch {
	case v.Date.IsZero():
		return malformed(shared.RecordVoucher, id, "date", "is required")
	case !v.Amount.IsPositive():
		return malformed(shared.RecordVoucher, id, "amount", "must be greater than zero")
	case strings.TrimSpace(v.DebitAccount) == "":
		return malformed(shared.RecordVoucher, id, "debitAccount", "is required")
	case strings.TrimSpace(v.CreditAccount) == "":
		return malformed(shared.RecordVoucher, id, "creditAccount", "is required")
	case !v.Type.Valid():
		return malformed(shared.RecordVoucher, id, "type", fmt.Sprintf("unknown voucher type %q", v.Type))
	}
	return nil
}

func malformed(kind shared.RecordKind, id, field, reason string) *shared.MalformedRecordError {
	return &shared.MalformedRecordError{Kind: kind, ID: id, Field: field, Reason: reason}
}

// IsCreditSale reports whether method books the sale to receivables.
func (o Options) IsCreditSale(method string) bool {
	if o.CreditMatch == CreditMatchFold {
		return strings.EqualFold(strings.TrimSpace(method), CreditPaymentMethod)
	}
	return method == CreditPaymentMethod
}

// Derive turns the input records into journal transactions, newest first.
// Records failing validation are skipped and returned as rejections.
func Derive(sales []Sale, expenses []Expense, vouchers []Voucher, opts Options) ([]Transaction, []*shared.MalformedRecordError) {
	txs := make([]Transaction, 0, len(sales)*2+len(expenses)+len(vouchers))
	var rejected []*shared.MalformedRecordError

	for _, s := range sales {
		if bad := ValidateSale(s); bad != nil {
			rejected = append(rejected, bad)
			continue
		}
		txs = append(txs, saleTransactions(s, opts)...)
	}
	for _, e := range expenses {
		if bad := ValidateExpense(e); bad != nil {
			rejected = append(rejected, bad)
			continue
		}
		txs = append(txs, expenseTransaction(e))
	}
	for _, v := range vouchers {
		if bad := ValidateVoucher(v); bad != nil {
			rejected = append(rejected, bad)
			continue
		}
		txs = append(txs, voucherTransaction(v))
	}

	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.After(txs[j].Date)
	})
	return txs, rejected
}

func saleTransactions(s Sale, opts Options) []Transaction {
	id := strconv.FormatInt(s.ID, 10)
	debit := accounts.CashBank
	if opts.IsCreditSale(s.PaymentMethod) {
		debit = accounts.AccountsReceivable
	}
	total := s.Total.Decimal
	sale := Transaction{
		ID:        "sale-" + id,
		Date:      s.Timestamp,
		Type:      TransactionSale,
		Narration: "Sale #" + id,
		Source:    Source{Kind: shared.RecordSale, ID: id},
		Debit:     Posting{Account: debit, Amount: total},
		Credit:    Posting{Account: accounts.Sales, Amount: total},
	}
	if total.IsNegative() {
		// A return reverses the sale: Sales is debited back.
		sale.Type = TransactionReturn
		sale.Narration = "Return #" + id
		sale.Debit = Posting{Account: accounts.Sales, Amount: total.Neg()}
		sale.Credit = Posting{Account: debit, Amount: total.Neg()}
	}
	if name := strings.TrimSpace(s.CustomerName); name != "" {
		if sale.Type == TransactionReturn {
			sale.Narration += " from " + name
		} else {
			sale.Narration += " to " + name
		}
	}
	out := []Transaction{sale}
	if s.Profit == nil {
		return out
	}
	cost := total.Sub(*s.Profit)
	if !cost.IsPositive() {
		return out
	}
	return append(out, Transaction{
		ID:        "cogs-" + id,
		Date:      s.Timestamp,
		Type:      TransactionCOGS,
		Narration: "Cost of goods for sale #" + id,
		Source:    Source{Kind: shared.RecordSale, ID: id},
		Debit:     Posting{Account: accounts.CostOfGoodsSold, Amount: cost},
		Credit:    Posting{Account: accounts.Inventory, Amount: cost},
	})
}

func expenseTransaction(e Expense) Transaction {
	id := strconv.FormatInt(e.ID, 10)
	narration := strings.TrimSpace(e.Description)
	if narration == "" {
		narration = "Expense #" + id
	}
	amount := e.Amount.Decimal
	if amount.IsNegative() {
		return Transaction{
			ID:        "expense-" + id,
			Date:      e.Timestamp,
			Type:      TransactionRefund,
			Narration: narration,
			Source:    Source{Kind: shared.RecordExpense, ID: id},
			Debit:     Posting{Account: accounts.CashBank, Amount: amount.Neg()},
			Credit:    Posting{Account: accounts.OperatingExpenses, Amount: amount.Neg()},
		}
	}
	return Transaction{
		ID:        "expense-" + id,
		Date:      e.Timestamp,
		Type:      TransactionExpense,
		Narration: narration,
		Source:    Source{Kind: shared.RecordExpense, ID: id},
		Debit:     Posting{Account: accounts.OperatingExpenses, Amount: amount},
		Credit:    Posting{Account: accounts.CashBank, Amount: amount},
	}
}

func voucherTransaction(v Voucher) Transaction {
	id := v.ID.String()
	return Transaction{
		ID:        "voucher-" + id,
		Date:      v.Date,
		Type:      TransactionType(v.Type),
		Narration: v.Narration,
		Source:    Source{Kind: shared.RecordVoucher, ID: id},
		Debit:     Posting{Account: v.DebitAccount, Amount: v.Amount},
		Credit:    Posting{Account: v.CreditAccount, Amount: v.Amount},
	}
}
