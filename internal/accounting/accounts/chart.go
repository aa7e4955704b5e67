package accounts

import "sort"

// System account names referenced by derived transactions.
const (
	CashBank           = "Cash/Bank"
	AccountsReceivable = "Accounts Receivable"
	Inventory          = "Inventory"
	AccountsPayable    = "Accounts Payable"
	Sales              = "Sales"
	CostOfGoodsSold    = "Cost of Goods Sold"
	OperatingExpenses  = "Operating Expenses"
)

// SystemAccounts is the non-removable seed every chart starts from.
var SystemAccounts = []Account{
	{Name: CashBank, Type: AccountTypeAsset, System: true},
	{Name: AccountsReceivable, Type: AccountTypeAsset, System: true},
	{Name: Inventory, Type: AccountTypeAsset, System: true},
	{Name: AccountsPayable, Type: AccountTypeLiability, System: true},
	{Name: Sales, Type: AccountTypeRevenue, System: true},
	{Name: CostOfGoodsSold, Type: AccountTypeExpense, System: true},
	{Name: OperatingExpenses, Type: AccountTypeExpense, System: true},
}

// IsSystemAccount reports whether name is one of the seeded accounts.
func IsSystemAccount(name string) bool {
	for _, acc := range SystemAccounts {
		if acc.Name == name {
			return true
		}
	}
	return false
}

// Chart is an immutable registry of accounts keyed by name.
type Chart struct {
	byName map[string]Account
}

// NewChart seeds the system accounts and overlays the given accounts. System
// account types always win over stored rows with the same name.
func NewChart(accs []Account) Chart {
	byName := make(map[string]Account, len(SystemAccounts)+len(accs))
	for _, acc := range accs {
		if acc.Name == "" {
			continue
		}
		byName[acc.Name] = acc
	}
	for _, sys := range SystemAccounts {
		if stored, ok := byName[sys.Name]; ok {
			sys.ID = stored.ID
			sys.CreatedAt = stored.CreatedAt
		}
		byName[sys.Name] = sys
	}
	return Chart{byName: byName}
}

// EmptyChart returns a chart with no accounts at all, not even the seed. It is
// only useful for reproducing unseeded classification behaviour.
func EmptyChart() Chart {
	return Chart{byName: map[string]Account{}}
}

// Lookup finds an account by name.
func (c Chart) Lookup(name string) (Account, bool) {
	acc, ok := c.byName[name]
	return acc, ok
}

// Has reports whether name is registered.
func (c Chart) Has(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// Len returns the number of registered accounts.
func (c Chart) Len() int {
	return len(c.byName)
}

// Accounts lists registered accounts sorted by name.
func (c Chart) Accounts() []Account {
	out := make([]Account, 0, len(c.byName))
	for _, acc := range c.byName {
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
