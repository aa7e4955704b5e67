package reports

import "github.com/shopspring/decimal"

// InventoryItem is a stocked product as kept by the POS.
type InventoryItem struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	SKU        string          `json:"sku,omitempty"`
	Stock      decimal.Decimal `json:"stock"`
	CostPrice  decimal.Decimal `json:"costPrice"`
	Attributes map[string]any  `json:"attributes,omitempty"`
}

// StockValuationRow values one item at cost.
type StockValuationRow struct {
	InventoryItem
	Value decimal.Decimal `json:"value"`
}

// StockValuation lists item values and their total.
type StockValuation struct {
	Rows  []StockValuationRow `json:"rows"`
	Total decimal.Decimal     `json:"total"`
}

// DeriveStockValuation values each item at stock times cost price. It is not
// reconciled against the Inventory ledger.
func DeriveStockValuation(items []InventoryItem) StockValuation {
	out := StockValuation{Rows: make([]StockValuationRow, 0, len(items)), Total: decimal.Zero}
	for _, item := range items {
		value := item.Stock.Mul(item.CostPrice)
		out.Rows = append(out.Rows, StockValuationRow{InventoryItem: item, Value: value})
		out.Total = out.Total.Add(value)
	}
	return out
}
