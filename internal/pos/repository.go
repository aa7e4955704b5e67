// Package pos reads the records written by the point-of-sale transaction API.
// The ledger never writes to these tables.
package pos

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/posledger/posledger/internal/accounting/journals"
	"github.com/posledger/posledger/internal/accounting/reports"
)

// Querier is the subset of pgxpool.Pool the repository needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository reads sales, expenses and inventory.
type Repository struct {
	db Querier
}

// NewRepository returns a Repository over the pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// NewRepositoryWith wraps any Querier, e.g. a transaction.
func NewRepositoryWith(db Querier) *Repository {
	return &Repository{db: db}
}

// ListSales returns every sale in insertion order, returns included. Missing
// timestamps and totals come back unset so derivation can reject them.
func (r *Repository) ListSales(ctx context.Context) ([]journals.Sale, error) {
	rows, err := r.db.Query(ctx, `SELECT id, created_at, total::text, profit::text, COALESCE(payment_method, ''), COALESCE(customer_name, '')
FROM sales ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("pos: list sales: %w", err)
	}
	defer rows.Close()
	var out []journals.Sale
	for rows.Next() {
		var (
			s         journals.Sale
			ts        *time.Time
			total     *string
			profitRaw *string
		)
		if err := rows.Scan(&s.ID, &ts, &total, &profitRaw, &s.PaymentMethod, &s.CustomerName); err != nil {
			return nil, fmt.Errorf("pos: scan sale: %w", err)
		}
		if ts != nil {
			s.Timestamp = *ts
		}
		s.Total = parseNullAmount(total)
		if profitRaw != nil {
			profit := parseAmount(profitRaw)
			s.Profit = &profit
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListExpenses returns recorded expenses in insertion order.
func (r *Repository) ListExpenses(ctx context.Context) ([]journals.Expense, error) {
	rows, err := r.db.Query(ctx, `SELECT id, created_at, COALESCE(description, ''), amount::text FROM expenses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("pos: list expenses: %w", err)
	}
	defer rows.Close()
	var out []journals.Expense
	for rows.Next() {
		var (
			e      journals.Expense
			ts     *time.Time
			amount *string
		)
		if err := rows.Scan(&e.ID, &ts, &e.Description, &amount); err != nil {
			return nil, fmt.Errorf("pos: scan expense: %w", err)
		}
		if ts != nil {
			e.Timestamp = *ts
		}
		e.Amount = parseNullAmount(amount)
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListInventory returns stocked items ordered by name.
func (r *Repository) ListInventory(ctx context.Context) ([]reports.InventoryItem, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, COALESCE(sku, ''), stock::text, cost_price::text, COALESCE(category, ''), COALESCE(unit, '')
FROM inventory_items ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("pos: list inventory: %w", err)
	}
	defer rows.Close()
	var out []reports.InventoryItem
	for rows.Next() {
		var (
			item           reports.InventoryItem
			stock, cost    *string
			category, unit string
		)
		if err := rows.Scan(&item.ID, &item.Name, &item.SKU, &stock, &cost, &category, &unit); err != nil {
			return nil, fmt.Errorf("pos: scan inventory item: %w", err)
		}
		item.Stock = parseAmount(stock)
		item.CostPrice = parseAmount(cost)
		item.Attributes = attributes(category, unit)
		out = append(out, item)
	}
	return out, rows.Err()
}

// Watermark fingerprints the sales, expenses and inventory tables. It changes
// whenever a row is inserted, updated or deleted.
func (r *Repository) Watermark(ctx context.Context) (string, error) {
	rows, err := r.db.Query(ctx, watermarkSQL)
	if err != nil {
		return "", fmt.Errorf("pos: watermark: %w", err)
	}
	defer rows.Close()
	var mark string
	if rows.Next() {
		if err := rows.Scan(&mark); err != nil {
			return "", fmt.Errorf("pos: scan watermark: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("pos: watermark: %w", err)
	}
	return mark, nil
}

const watermarkSQL = `SELECT
    COALESCE((SELECT md5(string_agg(s::text, ',' ORDER BY s.id)) FROM sales s), '-') || ':' ||
    COALESCE((SELECT md5(string_agg(e::text, ',' ORDER BY e.id)) FROM expenses e), '-') || ':' ||
    COALESCE((SELECT md5(string_agg(i::text, ',' ORDER BY i.id)) FROM inventory_items i), '-')`

// parseNullAmount keeps NULL and unparsable values unset.
func parseNullAmount(raw *string) decimal.NullDecimal {
	if raw == nil {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(*raw)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func parseAmount(raw *string) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(*raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func attributes(category, unit string) map[string]any {
	attrs := map[string]any{}
	if category != "" {
		attrs["category"] = category
	}
	if unit != "" {
		attrs["unit"] = unit
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}
