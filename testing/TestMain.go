package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("POSLEDGER_TEST_MODE", "1")
		if os.Getenv("LEDGER_CREDIT_MATCH") == "" {
			_ = os.Setenv("LEDGER_CREDIT_MATCH", "exact")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
