package vouchers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/posledger/posledger/internal/accounting/accounts"
	"github.com/posledger/posledger/internal/accounting/journals"
	"github.com/posledger/posledger/internal/accounting/shared"
	"github.com/posledger/posledger/internal/platform/httpx"
	"github.com/posledger/posledger/internal/rbac"
	internalShared "github.com/posledger/posledger/internal/shared"
)

// ChartLoader resolves the chart vouchers are checked against.
type ChartLoader interface {
	Classification(ctx context.Context) (accounts.Chart, []string)
}

// AuditPort records voucher creation.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// Invalidator drops derived snapshots once a voucher lands.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Service validates and stores manual vouchers.
type Service struct {
	repo     Repository
	chart    ChartLoader
	audit    AuditPort
	cache    Invalidator
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
	newID    func() uuid.UUID
}

// NewService wires the voucher service. audit and cache may be nil.
func NewService(repo Repository, chart ChartLoader, audit AuditPort, cache Invalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &Service{
		repo:     repo,
		chart:    chart,
		audit:    audit,
		cache:    cache,
		logger:   logger,
		validate: validate,
		now:      time.Now,
		newID:    uuid.New,
	}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// List returns stored vouchers, newest first.
func (s *Service) List(ctx context.Context) ([]journals.Voucher, error) {
	return s.repo.List(ctx)
}

// Add validates input and stores it as a new voucher. A repeated
// idempotency key returns the voucher stored by the first request and
// replayed=true, for as long as that voucher exists.
func (s *Service) Add(ctx context.Context, actor rbac.Principal, input AddInput, idempotencyKey string) (journals.Voucher, bool, error) {
	input.DebitAccount = strings.TrimSpace(input.DebitAccount)
	input.CreditAccount = strings.TrimSpace(input.CreditAccount)
	input.Narration = strings.TrimSpace(input.Narration)
	if err := s.check(ctx, input); err != nil {
		return journals.Voucher{}, false, err
	}

	idempotencyKey = strings.TrimSpace(idempotencyKey)
	now := s.now()
	v := journals.Voucher{
		ID:            s.newID(),
		Date:          input.Date,
		Type:          journals.VoucherType(input.Type),
		Amount:        input.Amount,
		DebitAccount:  input.DebitAccount,
		CreditAccount: input.CreditAccount,
		Narration:     input.Narration,
		CreatedBy:     actor.UserID,
		CreatedAt:     now,
	}
	if err := s.repo.Insert(ctx, v, idempotencyKey); err != nil {
		if idempotencyKey != "" && errors.Is(err, internalShared.ErrIdempotencyConflict) {
			return s.replay(ctx, idempotencyKey)
		}
		return journals.Voucher{}, false, fmt.Errorf("vouchers: insert: %w", err)
	}

	if s.audit != nil {
		if err := s.audit.Record(ctx, internalShared.AuditLog{
			ActorID:  actor.UserID,
			Action:   internalShared.AuditVoucherCreate,
			Entity:   "voucher",
			EntityID: v.ID.String(),
			Meta: map[string]any{
				"type":   string(v.Type),
				"amount": v.Amount.String(),
				"debit":  v.DebitAccount,
				"credit": v.CreditAccount,
			},
			At: now,
		}); err != nil {
			s.logger.Warn("audit voucher create", slog.Any("error", err))
		}
	}
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("bump ledger cache", slog.Any("error", err))
		}
	}
	return v, false, nil
}

// replay returns the voucher already bound to key.
func (s *Service) replay(ctx context.Context, key string) (journals.Voucher, bool, error) {
	prior, err := s.repo.FindByIdempotencyKey(ctx, key)
	if errors.Is(err, shared.ErrVoucherNotFound) {
		return journals.Voucher{}, false, httpx.Wrap(httpx.ErrDuplicate, fmt.Errorf("vouchers: idempotency key %q is in use: %w", key, err))
	}
	if err != nil {
		return journals.Voucher{}, false, fmt.Errorf("vouchers: replay %q: %w", key, err)
	}
	return prior, true, nil
}

func (s *Service) check(ctx context.Context, input AddInput) error {
	if err := s.validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			reason := first.Tag()
			if first.Param() != "" {
				reason += "=" + first.Param()
			}
			return &shared.InvalidVoucherError{Field: first.Field(), Reason: reason}
		}
		return &shared.InvalidVoucherError{Reason: err.Error()}
	}
	if !input.Amount.IsPositive() {
		return &shared.InvalidVoucherError{Field: "amount", Reason: "must be greater than zero"}
	}
	if input.DebitAccount == input.CreditAccount {
		return &shared.InvalidVoucherError{Field: "creditAccount", Reason: "must differ from debitAccount"}
	}
	chart := accounts.NewChart(nil)
	if s.chart != nil {
		chart, _ = s.chart.Classification(ctx)
	}
	if !chart.Has(input.DebitAccount) {
		return &shared.InvalidVoucherError{Field: "debitAccount", Reason: fmt.Sprintf("%q is not in the chart of accounts", input.DebitAccount)}
	}
	if !chart.Has(input.CreditAccount) {
		return &shared.InvalidVoucherError{Field: "creditAccount", Reason: fmt.Sprintf("%q is not in the chart of accounts", input.CreditAccount)}
	}
	return nil
}
