// Package types defines core domain types for shipbridge.
//
//nolint:revive // types is a common Go package naming convention
package types

import "github.com/shopspring/decimal"

// ShipmentHeader is the decoded shipment-level half of an intake work unit.
// String fields carry the exchange values verbatim; flag fields ("Y"/"N",
// "0"/"1") are interpreted by the pipelines, not at decode time.
type ShipmentHeader struct {
	ShipmentID     string `json:"shipment_id"`
	BOLNo          string `json:"bol_no,omitempty"`
	CarrierCode    string `json:"carrier_code,omitempty"`
	CarrierService string `json:"carrier_service,omitempty"`
	CollType       string `json:"coll_type,omitempty"`
	IsCOD          string `json:"is_cod,omitempty"`
	Location       string `json:"location,omitempty"`
	IsResidential  string `json:"is_residential,omitempty"`
	OrderNo        string `json:"order_no,omitempty"`
	OrderDate      string `json:"order_date,omitempty"`
	PONumber       string `json:"po_number,omitempty"`
	ShipAddr1      string `json:"ship_addr1,omitempty"`
	ShipAddr2      string `json:"ship_addr2,omitempty"`
	ShipAddr3      string `json:"ship_addr3,omitempty"`
	ShipCity       string `json:"ship_city,omitempty"`
	ShipContact    string `json:"ship_contact,omitempty"`
	ShipCountry    string `json:"ship_country,omitempty"`
	ShipDate       string `json:"ship_date,omitempty"`
	ShipEmail      string `json:"ship_email,omitempty"`
	ShipName       string `json:"ship_name,omitempty"`
	ShipPhone      string `json:"ship_phone,omitempty"`
	ShipState      string `json:"ship_state,omitempty"`
	ShipViaCode    string `json:"ship_via_code,omitempty"`
	ShipZip        string `json:"ship_zip,omitempty"`
	Void           string `json:"void,omitempty"`
	PKNumber       string `json:"pk_number,omitempty"`
	CustomerCode   string `json:"customer_code,omitempty"`
	ContactPhone   string `json:"contact_phone,omitempty"`
	ShippingTerms  string `json:"shipping_terms,omitempty"`
	CarrierAccount string `json:"carrier_account,omitempty"`
	OrgID          string `json:"org_id,omitempty"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	RateOnly       string `json:"rate_only,omitempty"`
}

// IsVoid reports whether the header carries the void flag.
func (h *ShipmentHeader) IsVoid() bool { return equalsY(h.Void) }

// IsRateOnly reports whether the header carries the rate-only flag.
func (h *ShipmentHeader) IsRateOnly() bool { return equalsY(h.RateOnly) }

// Residential reports whether the residential flag is set.
// Only the exact value "1" counts as true.
func (h *ShipmentHeader) Residential() bool { return h.IsResidential == "1" }

func equalsY(s string) bool { return s == "Y" || s == "y" }

// PackageDetail is one package record from the detail half of a work unit.
// Physical measures stay as float64 (the exchange writes them with six
// decimal places); monetary amounts use decimal to keep exact 4-dp output.
type PackageDetail struct {
	ShipmentID    string          `json:"shipment_id,omitempty"`
	PackageID     string          `json:"package_id,omitempty"`
	PackageNo     int             `json:"package_no"`
	Weight        float64         `json:"weight"`
	Length        float64         `json:"length"`
	Width         float64         `json:"width"`
	Height        float64         `json:"height"`
	DeclaredValue decimal.Decimal `json:"declared_value"`
	CODAmount     decimal.Decimal `json:"cod_amount"`
	Units         string          `json:"units,omitempty"`
	Comment       string          `json:"comment,omitempty"`
}

// Volume returns length × width × height, used to pick the dimension-carrying
// package for multi-package shipments.
func (p *PackageDetail) Volume() float64 { return p.Length * p.Width * p.Height }

// ShipmentDetail is the decoded detail half of a work unit.
type ShipmentDetail struct {
	Packages []PackageDetail `json:"packages"`
}

// PackageCount returns the number of packages.
func (d *ShipmentDetail) PackageCount() int { return len(d.Packages) }

// PackageCountLabel returns the label the remote order carries in its
// custom fields: "Single Package" or "Multi Package".
func (d *ShipmentDetail) PackageCountLabel() string {
	if d.PackageCount() <= 1 {
		return "Single Package"
	}
	return "Multi Package"
}

// ShipTo is the destination-address snapshot captured into the pending
// ledger and echoed back into confirmation output.
type ShipTo struct {
	Name        string `json:"name"`
	Company     string `json:"company,omitempty"`
	Street1     string `json:"street1"`
	Street2     string `json:"street2,omitempty"`
	Street3     string `json:"street3,omitempty"`
	City        string `json:"city"`
	State       string `json:"state"`
	Country     string `json:"country"`
	PostalCode  string `json:"postal_code"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	Residential bool   `json:"residential"`
}
