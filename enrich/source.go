// Package enrich supplies supplementary order-line data from the order
// management database. The source is optional: a nil *Source means
// "disabled", and orders are created without line items. Enrichment is
// never required for correctness; it only enriches remote packing slips
// and confirmation output.
package enrich

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	// Postgres driver registered for database/sql.
	_ "github.com/lib/pq"

	"github.com/pelorus-io/shipbridge/log"
	"github.com/pelorus-io/shipbridge/types"
)

// ErrUnavailable marks connection-level failures: the database cannot be
// reached at all. Distinguished from QueryError so callers can report
// "source down" separately from "lookup failed".
var ErrUnavailable = errors.New("enrichment source unavailable")

// QueryError marks a failed lookup against a reachable database.
type QueryError struct {
	OrderNumber string
	Err         error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("order %s: query failed: %v", e.OrderNumber, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Source looks up order lines by business order number.
type Source struct {
	db     *sql.DB
	logger *log.SugaredLogger
}

// Open connects to the order database. The connection is validated lazily;
// call Ping for an explicit preflight.
func Open(dsn string, logger *log.SugaredLogger) (*Source, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &Source{db: db, logger: logger}, nil
}

// NewWithDB wraps an existing handle. For tests.
func NewWithDB(db *sql.DB, logger *log.SugaredLogger) *Source {
	return &Source{db: db, logger: logger}
}

// Ping verifies connectivity. Failures wrap ErrUnavailable.
func (s *Source) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// OrderLines returns the line items for an order number, ordered by line
// number. A nil slice with nil error means the order is unknown — a valid
// state distinct from a lookup failure.
func (s *Source) OrderLines(ctx context.Context, orderNumber string) ([]types.LineItem, error) {
	var orderID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM order_headers WHERE order_number = $1`,
		orderNumber,
	).Scan(&orderID)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Debugf("order %s not found in order database", orderNumber)
		return nil, nil
	}
	if err != nil {
		return nil, &QueryError{OrderNumber: orderNumber, Err: err}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT line_number, sku, description, qty_ordered, qty_shipped, unit_price
		 FROM order_lines
		 WHERE order_id = $1
		 ORDER BY line_number`,
		orderID,
	)
	if err != nil {
		return nil, &QueryError{OrderNumber: orderNumber, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var items []types.LineItem
	for rows.Next() {
		var item types.LineItem
		var price string
		if err := rows.Scan(&item.LineNumber, &item.SKU, &item.Description,
			&item.QtyOrdered, &item.QtyShipped, &price); err != nil {
			return nil, &QueryError{OrderNumber: orderNumber, Err: err}
		}
		item.UnitPrice = parsePrice(price)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{OrderNumber: orderNumber, Err: err}
	}

	s.logger.Debugf("order %s: %d line item(s)", orderNumber, len(items))
	return items, nil
}

// Close releases the database handle.
func (s *Source) Close() error { return s.db.Close() }

// parsePrice reads a numeric column scanned as text. Unparseable values
// decay to zero, which downstream treats as "no price".
func parsePrice(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
