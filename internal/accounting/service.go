package accounting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/posledger/posledger/internal/accounting/accounts"
	"github.com/posledger/posledger/internal/accounting/journals"
	"github.com/posledger/posledger/internal/accounting/reports"
	"github.com/posledger/posledger/internal/rbac"
)

// SalesSource reads POS sales, returns included.
type SalesSource interface {
	ListSales(ctx context.Context) ([]journals.Sale, error)
}

// ExpenseSource reads POS expenses.
type ExpenseSource interface {
	ListExpenses(ctx context.Context) ([]journals.Expense, error)
}

// InventorySource reads stocked items.
type InventorySource interface {
	ListInventory(ctx context.Context) ([]reports.InventoryItem, error)
}

// VoucherLister reads stored vouchers.
type VoucherLister interface {
	List(ctx context.Context) ([]journals.Voucher, error)
}

// ChartLoader resolves the chart used to classify ledger accounts.
type ChartLoader interface {
	Classification(ctx context.Context) (accounts.Chart, []string)
}

// Watermarker fingerprints inputs written outside this service. A change in
// the watermark selects a fresh cache key.
type Watermarker interface {
	Watermark(ctx context.Context) (string, error)
}

// Sources groups the ports a derivation reads from.
type Sources struct {
	Sales     SalesSource
	Expenses  ExpenseSource
	Inventory InventorySource
	Vouchers  VoucherLister
	Chart     ChartLoader
	Watermark Watermarker
}

// Service loads inputs, derives snapshots and caches them per scope.
type Service struct {
	sources Sources
	cache   *Cache
	metrics *Metrics
	opts    Options
	logger  *slog.Logger
	group   singleflight.Group
	now     func() time.Time
}

// NewService constructs the ledger service.
func NewService(sources Sources, cache *Cache, metrics *Metrics, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{sources: sources, cache: cache, metrics: metrics, opts: opts, logger: logger, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Options returns the derivation options in effect.
func (s *Service) Options() Options {
	return s.opts
}

// Snapshot returns the derived snapshot for principal's scope, from cache
// when neither the source watermark nor the cache version has moved since it
// was built.
func (s *Service) Snapshot(ctx context.Context, principal rbac.Principal) (Snapshot, error) {
	parts := []string{"posledger", "ledger", "snapshot", principal.Scope()}
	if s.sources.Watermark != nil {
		mark, err := s.sources.Watermark.Watermark(ctx)
		if err != nil {
			s.logger.Warn("ledger source watermark", slog.Any("error", err))
			return s.build(ctx, principal)
		}
		parts = append(parts, mark)
	}
	key, err := s.cache.BuildKey(ctx, parts...)
	if err != nil {
		s.logger.Warn("ledger cache key", slog.Any("error", err))
		return s.build(ctx, principal)
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		var snap Snapshot
		hit, err := s.cache.FetchJSON(ctx, key, &snap, func(ctx context.Context) (any, error) {
			return s.build(ctx, principal)
		})
		if err != nil {
			return Snapshot{}, err
		}
		s.metrics.observeCache(hit)
		return snap, nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return v.(Snapshot), nil
}

// Rebuild derives a fresh snapshot for principal without touching the cache.
func (s *Service) Rebuild(ctx context.Context, principal rbac.Principal) (Snapshot, error) {
	return s.build(ctx, principal)
}

// Invalidate bumps the cache version.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) build(ctx context.Context, principal rbac.Principal) (snap Snapshot, err error) {
	start := s.now()
	defer func() { s.metrics.observeDerivation(start, snap, err) }()

	in, warnings, err := s.load(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap, err = Derive(in, s.opts)
	if err != nil {
		return Snapshot{}, fmt.Errorf("accounting: derive: %w", err)
	}
	snap.Scope = principal.Scope()
	snap.GeneratedAt = s.now()
	if principal.IsAdmin() {
		snap.Warnings = append(snap.Warnings, warnings...)
	} else {
		snap.Accounts = accounts.NewChart(nil).Accounts()
	}
	if len(snap.Rejected) > 0 {
		s.logger.Warn("ledger inputs rejected", slog.Int("count", len(snap.Rejected)), slog.Any("kinds", rejectedKinds(snap)))
	}
	return snap, nil
}

func (s *Service) load(ctx context.Context) (Inputs, []string, error) {
	var (
		in       Inputs
		warnings []string
	)
	g, gctx := errgroup.WithContext(ctx)
	if s.sources.Sales != nil {
		g.Go(func() error {
			sales, err := s.sources.Sales.ListSales(gctx)
			if err != nil {
				return fmt.Errorf("accounting: load sales: %w", err)
			}
			in.Sales = sales
			return nil
		})
	}
	if s.sources.Expenses != nil {
		g.Go(func() error {
			expenses, err := s.sources.Expenses.ListExpenses(gctx)
			if err != nil {
				return fmt.Errorf("accounting: load expenses: %w", err)
			}
			in.Expenses = expenses
			return nil
		})
	}
	if s.sources.Vouchers != nil {
		g.Go(func() error {
			vouchers, err := s.sources.Vouchers.List(gctx)
			if err != nil {
				return fmt.Errorf("accounting: load vouchers: %w", err)
			}
			in.Vouchers = vouchers
			return nil
		})
	}
	if s.sources.Inventory != nil {
		g.Go(func() error {
			items, err := s.sources.Inventory.ListInventory(gctx)
			if err != nil {
				return fmt.Errorf("accounting: load inventory: %w", err)
			}
			in.Inventory = items
			return nil
		})
	}
	g.Go(func() error {
		if s.sources.Chart == nil {
			in.Chart = accounts.NewChart(nil)
			return nil
		}
		in.Chart, warnings = s.sources.Chart.Classification(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return Inputs{}, nil, ctx.Err()
		}
		return Inputs{}, nil, err
	}
	return in, warnings, nil
}
