package gateway

// Wire types for the label provider's V1 REST API. Optional sections use
// pointers with omitempty so absent data is absent on the wire, never a
// zero-valued stand-in.

// OrderRequest is the create-or-update order payload. OrderKey doubles as
// the idempotency key: posting the same key updates the existing order.
type OrderRequest struct {
	OrderNumber              string          `json:"orderNumber"`
	OrderKey                 string          `json:"orderKey"`
	OrderStatus              string          `json:"orderStatus"`
	OrderDate                string          `json:"orderDate,omitempty"`
	ShipDate                 string          `json:"shipDate,omitempty"`
	ShipTo                   Address         `json:"shipTo"`
	BillTo                   Address         `json:"billTo"`
	PackageCode              string          `json:"packageCode"`
	RequestedShippingService string          `json:"requestedShippingService"`
	Weight                   *Weight         `json:"weight,omitempty"`
	Dimensions               *Dimensions     `json:"dimensions,omitempty"`
	InternalNotes            string          `json:"internalNotes,omitempty"`
	Items                    []OrderItem     `json:"items,omitempty"`
	AdvancedOptions          AdvancedOptions `json:"advancedOptions"`
}

// Address is a wire-format postal address.
type Address struct {
	Name        string `json:"name"`
	Street1     string `json:"street1"`
	Street2     string `json:"street2,omitempty"`
	Street3     string `json:"street3,omitempty"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postalCode"`
	Country     string `json:"country"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	Residential bool   `json:"residential"`
}

// Weight is a wire-format weight value.
type Weight struct {
	Value float64 `json:"value"`
	Units string  `json:"units"`
}

// Dimensions is a wire-format dimension triple.
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Units  string  `json:"units"`
}

// OrderItem is one order line on the remote order, shown on packing slips.
// UnitPrice is omitted entirely for lines with no usable price.
type OrderItem struct {
	LineItemKey string   `json:"lineItemKey"`
	SKU         string   `json:"sku"`
	Name        string   `json:"name"`
	Quantity    int      `json:"quantity"`
	UnitPrice   *float64 `json:"unitPrice,omitempty"`
}

// AdvancedOptions carries the order source, custom fields and store routing.
type AdvancedOptions struct {
	Source       string `json:"source"`
	CustomField1 string `json:"customField1"`
	CustomField2 string `json:"customField2"`
	CustomField3 string `json:"customField3"`
	StoreID      *int   `json:"storeId,omitempty"`
}

// Order is the subset of the remote order representation the pipelines use.
type Order struct {
	OrderID     int64  `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	OrderKey    string `json:"orderKey"`
	OrderStatus string `json:"orderStatus"`
}

// Shipment is one completed shipment returned by the poll endpoint.
type Shipment struct {
	ShipmentID     int64       `json:"shipmentId"`
	OrderID        int64       `json:"orderId"`
	OrderNumber    string      `json:"orderNumber"`
	TrackingNumber string      `json:"trackingNumber"`
	CarrierCode    string      `json:"carrierCode"`
	ServiceCode    string      `json:"serviceCode"`
	ShipDate       string      `json:"shipDate"`
	Voided         bool        `json:"voided"`
	Weight         *Weight     `json:"weight,omitempty"`
	Dimensions     *Dimensions `json:"dimensions,omitempty"`
}

// ShipmentPage is one page of poll results.
type ShipmentPage struct {
	Shipments []Shipment `json:"shipments"`
	Total     int        `json:"total"`
	Page      int        `json:"page"`
	Pages     int        `json:"pages"`
}

// Store is one sub-store of a destination account.
type Store struct {
	StoreID         int64  `json:"storeId"`
	StoreName       string `json:"storeName"`
	MarketplaceName string `json:"marketplaceName"`
}

// ordersPage is the response envelope for order lookups.
type ordersPage struct {
	Orders []Order `json:"orders"`
}
