package shared

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownAccount indicates a name missing from the chart of accounts.
	ErrUnknownAccount = errors.New("accounting: account not in chart of accounts")
	// ErrSystemAccount indicates an attempt to redefine a seeded system account.
	ErrSystemAccount = errors.New("accounting: system account cannot be redefined")
	// ErrDuplicateAccount indicates the account name is already taken.
	ErrDuplicateAccount = errors.New("accounting: account name already exists")
	// ErrVoucherNotFound indicates missing voucher.
	ErrVoucherNotFound = errors.New("accounting: voucher not found")
	// ErrLedgerNotFound indicates no ledger exists for the requested account.
	ErrLedgerNotFound = errors.New("accounting: ledger not found")
)

// RecordKind names the input collection a record came from.
type RecordKind string

const (
	RecordSale    RecordKind = "sale"
	RecordExpense RecordKind = "expense"
	RecordVoucher RecordKind = "voucher"
)

// MalformedRecordError reports an input record excluded from aggregation.
type MalformedRecordError struct {
	Kind   RecordKind `json:"kind"`
	ID     string     `json:"id"`
	Field  string     `json:"field"`
	Reason string     `json:"reason"`
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("accounting: malformed %s %q: %s %s", e.Kind, e.ID, e.Field, e.Reason)
}

// InvalidVoucherError reports a voucher rejected before it is stored.
type InvalidVoucherError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *InvalidVoucherError) Error() string {
	if e.Field == "" {
		return "accounting: invalid voucher: " + e.Reason
	}
	return fmt.Sprintf("accounting: invalid voucher: %s %s", e.Field, e.Reason)
}

// UnclassifiedAccountError lists transaction accounts that have no chart entry.
type UnclassifiedAccountError struct {
	Accounts []string
}

func (e *UnclassifiedAccountError) Error() string {
	return "accounting: unclassified accounts: " + strings.Join(e.Accounts, ", ")
}

// Unwrap lets callers match with errors.Is(err, ErrUnknownAccount).
func (e *UnclassifiedAccountError) Unwrap() error {
	return ErrUnknownAccount
}
