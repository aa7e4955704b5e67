package vouchers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/posledger/posledger/internal/accounting/journals"
	"github.com/posledger/posledger/internal/accounting/shared"
	"github.com/posledger/posledger/internal/platform/httpx"
	"github.com/posledger/posledger/internal/rbac"
	internalShared "github.com/posledger/posledger/internal/shared"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// MountRoutes registers voucher routes. Callers gate them to signed-in users.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.add)
}

type listResponse struct {
	Vouchers []journals.Voucher `json:"vouchers"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	vouchers, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list vouchers", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if vouchers == nil {
		vouchers = []journals.Voucher{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Vouchers: vouchers})
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	var input AddInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	v, replayed, err := h.service.Add(r.Context(), rbac.PrincipalFromRequest(r), input, r.Header.Get(internalShared.IdempotencyHeader))
	if err != nil {
		var invalid *shared.InvalidVoucherError
		if errors.As(err, &invalid) {
			httpx.ValidationProblem(w, invalid.Error(), map[string]string{invalid.Field: invalid.Reason})
			return
		}
		h.logger.Error("add voucher", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	httpx.JSON(w, status, v)
}
