package accounts

import (
	"strings"
	"time"
)

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// Side is one side of a double entry.
type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideDebit {
		return SideCredit
	}
	return SideDebit
}

// ParseAccountType normalises user input into a known type.
func ParseAccountType(raw string) (AccountType, bool) {
	t := AccountType(strings.ToLower(strings.TrimSpace(raw)))
	return t, t.Valid()
}

// Valid reports whether t is one of the five CoA categories.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// NormalSide is the side on which the balance of t increases.
func (t AccountType) NormalSide() Side {
	if t == AccountTypeAsset || t == AccountTypeExpense {
		return SideDebit
	}
	return SideCredit
}

// Account models a chart of accounts node.
type Account struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Type      AccountType `json:"type"`
	System    bool        `json:"system"`
	CreatedAt time.Time   `json:"created_at"`
}

// CreateInput is the payload accepted by Service.Create.
type CreateInput struct {
	Name string `json:"name" validate:"required,max=120"`
	Type string `json:"type" validate:"required,oneof=asset liability equity revenue expense"`
}
