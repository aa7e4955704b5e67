package accounting

import "fmt"

// Integrity check names, used as metric labels.
const (
	CheckTransactionBalance = "transaction_balance"
	CheckTrialBalance       = "trial_balance"
	CheckBalanceSheet       = "balance_sheet"
)

// IntegrityIssue is one failed double-entry assertion.
type IntegrityIssue struct {
	Check  string `json:"check"`
	Detail string `json:"detail"`
}

// CheckIntegrity re-verifies the double-entry identities of snap.
func CheckIntegrity(snap Snapshot) []IntegrityIssue {
	var issues []IntegrityIssue
	for _, tx := range snap.Transactions {
		if !tx.Balanced() {
			issues = append(issues, IntegrityIssue{
				Check:  CheckTransactionBalance,
				Detail: fmt.Sprintf("%s debits %s but credits %s", tx.ID, tx.Debit.Amount, tx.Credit.Amount),
			})
		}
	}
	if !snap.TrialBalance.Balanced() {
		issues = append(issues, IntegrityIssue{
			Check: CheckTrialBalance,
			Detail: fmt.Sprintf("debit total %s, credit total %s",
				snap.TrialBalance.TotalDebit, snap.TrialBalance.TotalCredit),
		})
	}
	if !snap.BalanceSheet.Balanced() {
		issues = append(issues, IntegrityIssue{
			Check:  CheckBalanceSheet,
			Detail: fmt.Sprintf("assets exceed liabilities and equity by %s", snap.BalanceSheet.Difference),
		})
	}
	return issues
}
