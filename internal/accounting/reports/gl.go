package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/posledger/posledger/internal/accounting/accounts"
	"github.com/posledger/posledger/internal/accounting/journals"
	"github.com/posledger/posledger/internal/accounting/shared"
)

// Policy decides how accounts missing from the chart are classified.
type Policy string

const (
	// PolicyStrict fails the derivation when any account is unclassified.
	PolicyStrict Policy = "strict"
	// PolicyLegacy treats unclassified accounts as credit-normal.
	PolicyLegacy Policy = "legacy"
)

// ParsePolicy maps a config value onto a Policy, defaulting to strict.
func ParsePolicy(raw string) Policy {
	if Policy(raw) == PolicyLegacy {
		return PolicyLegacy
	}
	return PolicyStrict
}

// LedgerEntry is one posting to an account with the balance after it.
type LedgerEntry struct {
	TransactionID string          `json:"transactionId"`
	Date          time.Time       `json:"date"`
	Narration     string          `json:"narration"`
	Side          accounts.Side   `json:"side"`
	Amount        decimal.Decimal `json:"amount"`
	Balance       decimal.Decimal `json:"balance"`
}

// Ledger holds the postings of a single account in date order.
type Ledger struct {
	Account    string               `json:"account"`
	Type       accounts.AccountType `json:"type,omitempty"`
	Classified bool                 `json:"classified"`
	Entries    []LedgerEntry        `json:"entries"`
	Balance    decimal.Decimal      `json:"balance"`
}

// NormalSide is the side that increases the balance. Unclassified ledgers
// fall back to credit.
func (l Ledger) NormalSide() accounts.Side {
	if !l.Classified {
		return accounts.SideCredit
	}
	return l.Type.NormalSide()
}

// Ledgers maps account names to their ledger.
type Ledgers map[string]Ledger

// Balance returns the balance of name, zero when the account has no ledger.
func (l Ledgers) Balance(name string) decimal.Decimal {
	if ledger, ok := l[name]; ok {
		return ledger.Balance
	}
	return decimal.Zero
}

// Names lists the ledger accounts in name order.
func (l Ledgers) Names() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DeriveLedgers posts every transaction to both of its accounts and computes
// running balances in ascending date order. Every chart account gets a
// ledger even when it has no postings.
func DeriveLedgers(txs []journals.Transaction, chart accounts.Chart, policy Policy) (Ledgers, error) {
	ledgers := make(Ledgers, chart.Len())
	for _, acc := range chart.Accounts() {
		ledgers[acc.Name] = Ledger{Account: acc.Name, Type: acc.Type, Classified: true, Entries: []LedgerEntry{}, Balance: decimal.Zero}
	}

	var unknown []string
	post := func(tx journals.Transaction, p journals.Posting, side accounts.Side) {
		ledger, ok := ledgers[p.Account]
		if !ok {
			unknown = append(unknown, p.Account)
			ledger = Ledger{Account: p.Account, Entries: []LedgerEntry{}, Balance: decimal.Zero}
		}
		ledger.Entries = append(ledger.Entries, LedgerEntry{
			TransactionID: tx.ID,
			Date:          tx.Date,
			Narration:     tx.Narration,
			Side:          side,
			Amount:        p.Amount,
		})
		ledgers[p.Account] = ledger
	}
	for _, tx := range txs {
		post(tx, tx.Debit, accounts.SideDebit)
		post(tx, tx.Credit, accounts.SideCredit)
	}

	if len(unknown) > 0 && policy != PolicyLegacy {
		sort.Strings(unknown)
		return nil, &shared.UnclassifiedAccountError{Accounts: unknown}
	}

	for name, ledger := range ledgers {
		sort.SliceStable(ledger.Entries, func(i, j int) bool {
			return ledger.Entries[i].Date.Before(ledger.Entries[j].Date)
		})
		normal := ledger.NormalSide()
		balance := decimal.Zero
		for i := range ledger.Entries {
			entry := &ledger.Entries[i]
			if entry.Side == normal {
				balance = balance.Add(entry.Amount)
			} else {
				balance = balance.Sub(entry.Amount)
			}
			entry.Balance = balance
		}
		ledger.Balance = balance
		ledgers[name] = ledger
	}
	return ledgers, nil
}
