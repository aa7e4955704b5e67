package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/posledger/posledger/internal/accounting/shared"
	"github.com/posledger/posledger/internal/platform/httpx"
	"github.com/posledger/posledger/internal/rbac"
	internalShared "github.com/posledger/posledger/internal/shared"
)

// AuditPort records chart changes.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// Invalidator drops derived data that depends on the chart.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// ValidationError carries per-field rule failures for a create request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, rule := range e.Fields {
		parts = append(parts, field+":"+rule)
	}
	return "accounts: invalid input " + strings.Join(parts, ",")
}

func (e *ValidationError) Unwrap() error { return httpx.ErrValidation }

type Service struct {
	repo     Repository
	audit    AuditPort
	cache    Invalidator
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

func NewService(repo Repository, audit AuditPort, cache Invalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, cache: cache, logger: logger, validate: validator.New(), now: time.Now}
}

// Chart resolves the chart of accounts visible to principal. Only admins fetch
// stored accounts; everyone else gets the system seed.
func (s *Service) Chart(ctx context.Context, principal rbac.Principal) (Chart, []string) {
	if !principal.IsAdmin() {
		return NewChart(nil), nil
	}
	return s.Classification(ctx)
}

// Classification loads every stored account merged over the system seed. A
// failed fetch degrades to the seed: auth failures silently, anything else
// with a warning.
func (s *Service) Classification(ctx context.Context) (Chart, []string) {
	accs, err := s.repo.List(ctx)
	if err == nil {
		return NewChart(accs), nil
	}
	if errors.Is(err, httpx.ErrUnauthorized) || errors.Is(err, httpx.ErrForbidden) {
		s.logger.Debug("chart fetch denied", slog.Any("error", err))
		return NewChart(nil), nil
	}
	s.logger.Warn("chart fetch failed", slog.Any("error", err))
	return NewChart(nil), []string{fmt.Sprintf("chart of accounts unavailable: %v", err)}
}

// Create adds a custom account. Local state changes only after the store
// accepts the row.
func (s *Service) Create(ctx context.Context, principal rbac.Principal, input CreateInput) (Account, error) {
	if !principal.IsAdmin() {
		return Account{}, httpx.ErrForbidden
	}
	input.Name = strings.TrimSpace(input.Name)
	input.Type = strings.ToLower(strings.TrimSpace(input.Type))
	if err := s.validate.Struct(input); err != nil {
		return Account{}, &ValidationError{Fields: httpx.FieldErrors(err)}
	}
	if IsSystemAccount(input.Name) {
		return Account{}, httpx.Wrap(httpx.ErrDuplicate, shared.ErrSystemAccount)
	}
	typ, _ := ParseAccountType(input.Type)
	acc, err := s.repo.Create(ctx, input.Name, typ)
	if err != nil {
		if errors.Is(err, shared.ErrDuplicateAccount) {
			return Account{}, httpx.Wrap(httpx.ErrDuplicate, err)
		}
		return Account{}, fmt.Errorf("accounts: create: %w", err)
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, internalShared.AuditLog{
			ActorID:  principal.UserID,
			Action:   internalShared.AuditAccountCreate,
			Entity:   "account",
			EntityID: strconv.FormatInt(acc.ID, 10),
			Meta:     map[string]any{"name": acc.Name, "type": string(acc.Type)},
			At:       s.now(),
		}); err != nil {
			s.logger.Warn("audit account create", slog.Any("error", err))
		}
	}
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("bump ledger cache", slog.Any("error", err))
		}
	}
	return acc, nil
}
