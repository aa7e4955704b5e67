package accounting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/posledger/posledger/internal/accounting/journals"
	"github.com/posledger/posledger/internal/shared"
)

func newLedgerRouter(t *testing.T, stub *stubSources) (http.Handler, *shared.SessionManager) {
	t.Helper()
	svc, _ := newTestService(t, stub)
	mr := miniredis.RunT(t)
	sessions := shared.NewSessionManager(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test_session", "secret", time.Hour, false)
	r := chi.NewRouter()
	r.Route("/api/ledger", NewHandler(nil, svc).MountRoutes)
	return r, sessions
}

func ledgerRequest(t *testing.T, sessions *shared.SessionManager, target string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	sess.SetUser("1", "admin")
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func TestHandlerTrialBalance(t *testing.T) {
	router, sessions := newLedgerRouter(t, &stubSources{in: sampleInputs()})

	res := httptest.NewRecorder()
	router.ServeHTTP(res, ledgerRequest(t, sessions, "/api/ledger/trial-balance"))
	require.Equal(t, http.StatusOK, res.Code)

	var body struct {
		Rows        []map[string]any `json:"rows"`
		TotalDebit  string           `json:"totalDebit"`
		TotalCredit string           `json:"totalCredit"`
		Balanced    bool             `json:"balanced"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.True(t, body.Balanced)
	assert.Equal(t, body.TotalDebit, body.TotalCredit)
	assert.NotEmpty(t, body.Rows)
}

func TestHandlerTransactionsPaginate(t *testing.T) {
	router, sessions := newLedgerRouter(t, &stubSources{in: sampleInputs()})

	res := httptest.NewRecorder()
	router.ServeHTTP(res, ledgerRequest(t, sessions, "/api/ledger/transactions?page=2&per_page=2"))
	require.Equal(t, http.StatusOK, res.Code)

	var body struct {
		Transactions []journals.Transaction `json:"transactions"`
		Pagination   shared.Pagination      `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Len(t, body.Transactions, 2)
	assert.Equal(t, 5, body.Pagination.Total)
	assert.Equal(t, 3, body.Pagination.TotalPages)
}

func TestHandlerTransactionsHugePageServesLastPage(t *testing.T) {
	router, sessions := newLedgerRouter(t, &stubSources{in: sampleInputs()})

	res := httptest.NewRecorder()
	router.ServeHTTP(res, ledgerRequest(t, sessions, "/api/ledger/transactions?page=184467440737095520&per_page=2"))
	require.Equal(t, http.StatusOK, res.Code)

	var body struct {
		Transactions []journals.Transaction `json:"transactions"`
		Pagination   shared.Pagination      `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Pagination.Page)
	assert.Len(t, body.Transactions, 1)
}

func TestHandlerLedgerByName(t *testing.T) {
	router, sessions := newLedgerRouter(t, &stubSources{in: sampleInputs()})

	res := httptest.NewRecorder()
	router.ServeHTTP(res, ledgerRequest(t, sessions, "/api/ledger/ledgers/Cash%2FBank"))
	require.Equal(t, http.StatusOK, res.Code)
	var ledger struct {
		Account string `json:"account"`
		Balance string `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &ledger))
	assert.Equal(t, "Cash/Bank", ledger.Account)
	assert.Equal(t, "130000", ledger.Balance)

	res = httptest.NewRecorder()
	router.ServeHTTP(res, ledgerRequest(t, sessions, "/api/ledger/ledgers/Petty%20Cash"))
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestHandlerUnclassifiedAccountIsValidationProblem(t *testing.T) {
	in := sampleInputs()
	in.Vouchers[0].DebitAccount = "Owner Drawings"
	router, sessions := newLedgerRouter(t, &stubSources{in: in})

	res := httptest.NewRecorder()
	router.ServeHTTP(res, ledgerRequest(t, sessions, "/api/ledger/snapshot"))
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Contains(t, res.Body.String(), "Owner Drawings")
}
