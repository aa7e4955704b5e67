package accounting

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/posledger/posledger/internal/accounting/journals"
	"github.com/posledger/posledger/internal/accounting/reports"
	"github.com/posledger/posledger/internal/accounting/shared"
	"github.com/posledger/posledger/internal/platform/httpx"
	"github.com/posledger/posledger/internal/rbac"
	internalShared "github.com/posledger/posledger/internal/shared"
)

// Handler exposes derived ledger views over HTTP.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler builds the ledger handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers ledger routes. Callers gate them to signed-in users.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/snapshot", h.snapshotView(func(s Snapshot) any { return s }))
	r.Get("/transactions", h.listTransactions)
	r.Get("/ledgers", h.snapshotView(func(s Snapshot) any { return s.Ledgers }))
	r.Get("/ledgers/{account}", h.showLedger)
	r.Get("/trial-balance", h.snapshotView(func(s Snapshot) any {
		return trialBalanceResponse{TrialBalance: s.TrialBalance, Balanced: s.TrialBalance.Balanced()}
	}))
	r.Get("/profit-and-loss", h.snapshotView(func(s Snapshot) any { return s.ProfitAndLoss }))
	r.Get("/balance-sheet", h.snapshotView(func(s Snapshot) any {
		return balanceSheetResponse{BalanceSheet: s.BalanceSheet, Balanced: s.BalanceSheet.Balanced()}
	}))
	r.Get("/stock-valuation", h.snapshotView(func(s Snapshot) any {
		return stockResponse{StockValuation: s.StockValuation, InventoryLedgerBalance: s.InventoryBook}
	}))
}

type trialBalanceResponse struct {
	reports.TrialBalance
	Balanced bool `json:"balanced"`
}

type balanceSheetResponse struct {
	reports.BalanceSheet
	Balanced bool `json:"balanced"`
}

type stockResponse struct {
	reports.StockValuation
	InventoryLedgerBalance decimal.Decimal `json:"inventoryLedgerBalance"`
}

type transactionsResponse struct {
	Transactions []journals.Transaction    `json:"transactions"`
	Pagination   internalShared.Pagination `json:"pagination"`
}

func (h *Handler) snapshotView(view func(Snapshot) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, ok := h.load(w, r)
		if !ok {
			return
		}
		httpx.JSON(w, http.StatusOK, view(snap))
	}
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.load(w, r)
	if !ok {
		return
	}
	page := internalShared.PaginationFromRequest(r, len(snap.Transactions))
	start, end := page.Bounds()
	httpx.JSON(w, http.StatusOK, transactionsResponse{Transactions: snap.Transactions[start:end], Pagination: page})
}

func (h *Handler) showLedger(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "account"))
	if err != nil {
		httpx.RespondError(w, httpx.Wrap(httpx.ErrBadRequest, err))
		return
	}
	snap, ok := h.load(w, r)
	if !ok {
		return
	}
	ledger, found := snap.Ledgers[name]
	if !found {
		httpx.RespondError(w, httpx.Wrap(httpx.ErrNotFound, shared.ErrLedgerNotFound))
		return
	}
	httpx.JSON(w, http.StatusOK, ledger)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (Snapshot, bool) {
	snap, err := h.service.Snapshot(r.Context(), rbac.PrincipalFromRequest(r))
	if err == nil {
		return snap, true
	}
	var unclassified *shared.UnclassifiedAccountError
	if errors.As(err, &unclassified) {
		fields := make(map[string]string, len(unclassified.Accounts))
		for _, name := range unclassified.Accounts {
			fields[name] = "not in chart of accounts"
		}
		httpx.ValidationProblem(w, unclassified.Error(), fields)
		return Snapshot{}, false
	}
	h.logger.Error("derive ledger snapshot", slog.Any("error", err))
	httpx.RespondError(w, err)
	return Snapshot{}, false
}
