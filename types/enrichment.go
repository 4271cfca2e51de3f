package types

import "github.com/shopspring/decimal"

// LineItem is one order line from the enrichment source.
// Lines are associated with a shipment via the business order number,
// not the shipment identifier.
type LineItem struct {
	LineNumber  int             `json:"line_number"`
	SKU         string          `json:"sku"`
	Description string          `json:"description"`
	QtyOrdered  float64         `json:"qty_ordered"`
	QtyShipped  float64         `json:"qty_shipped"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}
