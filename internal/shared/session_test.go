package shared

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/posledger/posledger/testing"
)

func newTestSessionManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "posledger_session", "session-secret", time.Hour, false), mr
}

func TestSessionRoundTrip(t *testing.T) {
	sm, _ := newTestSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser("42", "manager")

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, httptest.NewRequest(http.MethodGet, "/", nil), sess))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "posledger_session", cookies[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	loaded, err := sm.Load(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.Equal(t, "42", loaded.User())
	assert.Equal(t, "manager", loaded.Get(SessionRoleKey))
}

func TestAnonymousSessionIsNotPersisted(t *testing.T) {
	sm, mr := newTestSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, httptest.NewRequest(http.MethodGet, "/", nil), sess))
	assert.Empty(t, rec.Result().Cookies())
	assert.Empty(t, mr.Keys())
}

func TestUnknownSessionCookieGetsFreshID(t *testing.T) {
	sm, _ := newTestSessionManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "posledger_session", Value: "forged"})
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, "forged", sess.ID)
	assert.Empty(t, sess.User())
}

func TestDestroyClearsCookie(t *testing.T) {
	sm, mr := newTestSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser("7", "cashier")
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), sess))
	require.NotEmpty(t, mr.Keys())

	sm.Destroy(sess)
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, httptest.NewRequest(http.MethodGet, "/", nil), sess))
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
	assert.Empty(t, mr.Keys())
}

func TestCSRFTokens(t *testing.T) {
	sm, _ := newTestSessionManager(t)
	csrf := NewCSRFManager("csrf-secret")
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	token, err := csrf.EnsureToken(sess)
	require.NoError(t, err)
	again, err := csrf.EnsureToken(sess)
	require.NoError(t, err)
	assert.Equal(t, token, again)

	assert.NoError(t, csrf.VerifyToken(sess, token))
	assert.ErrorIs(t, csrf.VerifyToken(sess, "nope"), ErrCSRFTokenMismatch)
	assert.ErrorIs(t, csrf.VerifyToken(sess, ""), ErrCSRFTokenMissing)
	assert.ErrorIs(t, csrf.VerifyToken(nil, token), ErrCSRFTokenMissing)

	_, err = csrf.EnsureToken(nil)
	assert.ErrorIs(t, err, ErrSessionMissing)
}

func TestPagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/ledger/journal?page=3&per_page=20", nil)
	p := PaginationFromRequest(req, 45)
	assert.Equal(t, Pagination{Page: 3, PerPage: 20, Total: 45, TotalPages: 3}, p)
	start, end := p.Bounds()
	assert.Equal(t, 40, start)
	assert.Equal(t, 45, end)

	p = NewPagination(9, 5000, 10)
	assert.Equal(t, maxPerPage, p.PerPage)
	assert.Equal(t, 1, p.Page)
	start, end = p.Bounds()
	assert.Equal(t, 0, start)
	assert.Equal(t, 10, end)

	p = NewPagination(0, 0, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, defaultPerPage, p.PerPage)
	assert.Equal(t, 0, p.TotalPages)
}

func TestPaginationHugePageStaysInRange(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/ledger/transactions?page=184467440737095520&per_page=50", nil)
	p := PaginationFromRequest(req, 120)
	assert.Equal(t, 3, p.Page)
	start, end := p.Bounds()
	assert.Equal(t, 100, start)
	assert.Equal(t, 120, end)

	raw := Pagination{Page: math.MaxInt / 2, PerPage: 50, Total: 120}
	start, end = raw.Bounds()
	assert.Equal(t, 120, start)
	assert.Equal(t, 120, end)
}
