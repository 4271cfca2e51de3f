// Package translate maps an intake work unit (plus optional enrichment
// lines) into the remote gateway's wire format. It is a pure function
// layer: no I/O, deterministic output for a given input.
package translate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pelorus-io/shipbridge/gateway"
	"github.com/pelorus-io/shipbridge/types"
)

// Separator joins the customer code and shipment identifier into the
// external order number. That value is both the human-readable order
// number and the idempotency key for upsert.
const Separator = "_"

// shipmentIDPattern matches the identifier portion of our order numbers:
// an alphabetic prefix followed by digits.
var shipmentIDPattern = regexp.MustCompile(`^[A-Za-z]+\d+$`)

// OrderNumber builds the external order number for a shipment.
func OrderNumber(h *types.ShipmentHeader) string {
	return h.CustomerCode + Separator + h.ShipmentID
}

// MatchesOrderNumber reports whether an order number follows this system's
// naming convention. Orders created elsewhere are filtered out of the
// inbound reconciliation with this check.
func MatchesOrderNumber(orderNumber string) bool {
	_, id, ok := SplitOrderNumber(orderNumber)
	return ok && shipmentIDPattern.MatchString(id)
}

// SplitOrderNumber splits an order number into customer code and shipment
// identifier. ok is false when the separator is absent.
func SplitOrderNumber(orderNumber string) (customerCode, shipmentID string, ok bool) {
	idx := strings.Index(orderNumber, Separator)
	if idx < 0 {
		return "", "", false
	}
	return orderNumber[:idx], orderNumber[idx+1:], true
}

// Options carries the destination-account hints for a translation.
type Options struct {
	// StoreID routes the order to a sub-store of the destination account.
	StoreID *int
}

// ToOrderRequest builds the remote order payload from a decoded work unit.
//
// Deterministic rules:
//   - weight is aggregated across packages; dimensions come from the
//     largest-volume package, omitted entirely if any dimension is zero
//   - internal notes exist only when at least one fact contributes
//   - line items keep their original line numbers; non-positive unit
//     prices are omitted rather than sent as zero
//   - 8-digit YYYYMMDD dates become ISO midnight; anything else is omitted
func ToOrderRequest(h *types.ShipmentHeader, d *types.ShipmentDetail, items []types.LineItem, opts Options) *gateway.OrderRequest {
	orderNumber := OrderNumber(h)
	shipTo := buildAddress(h)

	req := &gateway.OrderRequest{
		OrderNumber:              orderNumber,
		OrderKey:                 orderNumber,
		OrderStatus:              "awaiting_shipment",
		OrderDate:                formatDate(h.OrderDate),
		ShipDate:                 formatDate(h.ShipDate),
		ShipTo:                   shipTo,
		BillTo:                   shipTo,
		PackageCode:              "package",
		RequestedShippingService: h.ShipViaCode,
		InternalNotes:            buildNotes(h, d),
		Items:                    buildItems(items),
		AdvancedOptions: gateway.AdvancedOptions{
			Source:       h.CustomerCode,
			CustomField1: h.PONumber,
			CustomField2: h.ShipmentID,
			CustomField3: d.PackageCountLabel(),
			StoreID:      opts.StoreID,
		},
	}

	req.Weight = aggregateWeight(d)
	req.Dimensions = selectDimensions(d)

	return req
}

func buildAddress(h *types.ShipmentHeader) gateway.Address {
	return gateway.Address{
		Name:        h.ShipName,
		Street1:     h.ShipAddr1,
		Street2:     h.ShipAddr2,
		Street3:     h.ShipAddr3,
		City:        h.ShipCity,
		State:       h.ShipState,
		PostalCode:  h.ShipZip,
		Country:     h.ShipCountry,
		Phone:       h.ContactPhone,
		Email:       h.ShipEmail,
		Residential: h.Residential(),
	}
}

// aggregateWeight sums package weights. Nil when the total is zero.
func aggregateWeight(d *types.ShipmentDetail) *gateway.Weight {
	var total float64
	for _, pkg := range d.Packages {
		total += pkg.Weight
	}
	if total <= 0 {
		return nil
	}
	return &gateway.Weight{Value: total, Units: "pounds"}
}

// selectDimensions picks the largest-volume package. Nil when there are no
// packages or any of the winning package's dimensions is zero: zeroes are
// never sent as real measurements.
func selectDimensions(d *types.ShipmentDetail) *gateway.Dimensions {
	if len(d.Packages) == 0 {
		return nil
	}
	largest := d.Packages[0]
	for _, pkg := range d.Packages[1:] {
		if pkg.Volume() > largest.Volume() {
			largest = pkg
		}
	}
	if largest.Length <= 0 || largest.Width <= 0 || largest.Height <= 0 {
		return nil
	}
	return &gateway.Dimensions{
		Length: largest.Length,
		Width:  largest.Width,
		Height: largest.Height,
		Units:  "inches",
	}
}

// buildNotes assembles the free-text notes field. Empty when nothing
// contributes: shipping terms, a carrier account, or (for multi-package
// shipments) the per-package breakdown.
func buildNotes(h *types.ShipmentHeader, d *types.ShipmentDetail) string {
	var parts []string
	if h.ShippingTerms != "" {
		parts = append(parts, "Shipping terms: "+h.ShippingTerms)
	}
	if h.CarrierAccount != "" && h.CarrierAccount != "0" {
		parts = append(parts, "Carrier account: "+h.CarrierAccount)
	}
	if len(d.Packages) > 1 {
		parts = append(parts, fmt.Sprintf("Packages: %d", len(d.Packages)))
		for _, pkg := range d.Packages {
			parts = append(parts, fmt.Sprintf("Pkg %d: %v lbs %vx%vx%v",
				pkg.PackageNo, pkg.Weight, pkg.Length, pkg.Width, pkg.Height))
		}
	}
	return strings.Join(parts, " | ")
}

// buildItems maps enrichment lines to remote order items, keyed by their
// original line numbers.
func buildItems(items []types.LineItem) []gateway.OrderItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]gateway.OrderItem, 0, len(items))
	for _, item := range items {
		orderItem := gateway.OrderItem{
			LineItemKey: fmt.Sprintf("%d", item.LineNumber),
			SKU:         item.SKU,
			Name:        item.Description,
			Quantity:    int(item.QtyOrdered),
		}
		if item.UnitPrice.IsPositive() {
			price := item.UnitPrice.Round(2).InexactFloat64()
			orderItem.UnitPrice = &price
		}
		out = append(out, orderItem)
	}
	return out
}

// formatDate converts an 8-digit YYYYMMDD date to ISO midnight. Malformed
// or absent dates yield "", never a defaulted "now".
func formatDate(raw string) string {
	if len(raw) != 8 {
		return ""
	}
	parsed, err := time.Parse("20060102", raw)
	if err != nil {
		return ""
	}
	return parsed.Format("2006-01-02T15:04:05")
}
