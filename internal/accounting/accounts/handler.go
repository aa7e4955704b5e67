package accounts

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/posledger/posledger/internal/platform/httpx"
	"github.com/posledger/posledger/internal/rbac"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers chart of accounts routes. Callers gate them to admins.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
}

type chartResponse struct {
	Accounts []Account `json:"accounts"`
	Warnings []string  `json:"warnings,omitempty"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	chart, warnings := h.service.Chart(r.Context(), rbac.PrincipalFromRequest(r))
	httpx.JSON(w, http.StatusOK, chartResponse{Accounts: chart.Accounts(), Warnings: warnings})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	acc, err := h.service.Create(r.Context(), rbac.PrincipalFromRequest(r), input)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			httpx.ValidationProblem(w, "invalid account", verr.Fields)
			return
		}
		if !errors.Is(err, httpx.ErrDuplicate) && !errors.Is(err, httpx.ErrForbidden) {
			h.logger.Error("create account", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, acc)
}
