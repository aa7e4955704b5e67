package journals

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/posledger/posledger/internal/accounting/shared"
)

// Sale is a POS sale as written by the transaction API. Returns arrive as
// separate sales with a negative total.
type Sale struct {
	ID            int64               `json:"id"`
	Timestamp     time.Time           `json:"timestamp"`
	Total         decimal.NullDecimal `json:"total"`
	Profit        *decimal.Decimal    `json:"profit,omitempty"`
	PaymentMethod string              `json:"paymentMethod"`
	CustomerName  string              `json:"customerName"`
}

// Expense is an operating expense recorded at the till. A negative amount
// is a refund of an earlier expense.
type Expense struct {
	ID          int64               `json:"id"`
	Timestamp   time.Time           `json:"timestamp"`
	Description string              `json:"description"`
	Amount      decimal.NullDecimal `json:"amount"`
}

// VoucherType enumerates manual voucher kinds.
type VoucherType string

const (
	VoucherPayment VoucherType = "Payment"
	VoucherReceipt VoucherType = "Receipt"
	VoucherJournal VoucherType = "Journal"
	VoucherContra  VoucherType = "Contra"
)

// Valid reports whether t is a known voucher kind.
func (t VoucherType) Valid() bool {
	switch t {
	case VoucherPayment, VoucherReceipt, VoucherJournal, VoucherContra:
		return true
	}
	return false
}

// Voucher is a manually entered journal transaction.
type Voucher struct {
	ID            uuid.UUID       `json:"id"`
	Date          time.Time       `json:"date"`
	Type          VoucherType     `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	DebitAccount  string          `json:"debitAccount"`
	CreditAccount string          `json:"creditAccount"`
	Narration     string          `json:"narration"`
	CreatedBy     int64           `json:"createdBy,omitempty"`
	CreatedAt     time.Time       `json:"createdAt,omitempty"`
}

// TransactionType labels a derived journal entry.
type TransactionType string

const (
	TransactionSale    TransactionType = "Sale"
	TransactionCOGS    TransactionType = "COGS"
	TransactionExpense TransactionType = "Expense"
	TransactionReturn  TransactionType = "Return"
	TransactionRefund  TransactionType = "Refund"
)

// Posting is one side of a transaction.
type Posting struct {
	Account string          `json:"account"`
	Amount  decimal.Decimal `json:"amount"`
}

// Source points back at the input record a transaction came from.
type Source struct {
	Kind shared.RecordKind `json:"kind"`
	ID   string            `json:"id"`
}

// Transaction is a derived two-line journal entry.
type Transaction struct {
	ID        string          `json:"id"`
	Date      time.Time       `json:"date"`
	Type      TransactionType `json:"type"`
	Narration string          `json:"narration"`
	Source    Source          `json:"source"`
	Debit     Posting         `json:"debit"`
	Credit    Posting         `json:"credit"`
}

// Balanced reports whether both sides carry the same amount.
func (t Transaction) Balanced() bool {
	return t.Debit.Amount.Equal(t.Credit.Amount)
}

// CreditMatch selects how a sale's payment method is compared with the
// credit payment method.
type CreditMatch string

const (
	// CreditMatchExact only treats the literal "Credit" as a credit sale.
	CreditMatchExact CreditMatch = "exact"
	// CreditMatchFold compares case-insensitively, so "credit" also matches.
	CreditMatchFold CreditMatch = "fold"
)

// CreditPaymentMethod is the payment method that books a sale to receivables.
const CreditPaymentMethod = "Credit"

// Options tunes transaction derivation.
type Options struct {
	CreditMatch CreditMatch
}

// ParseCreditMatch maps a configuration value to a CreditMatch. Anything other
// than "fold" selects exact matching.
func ParseCreditMatch(raw string) CreditMatch {
	if CreditMatch(raw) == CreditMatchFold {
		return CreditMatchFold
	}
	return CreditMatchExact
}
