package pipeline

// Shared test doubles for the flow tests.

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pelorus-io/shipbridge/gateway"
	"github.com/pelorus-io/shipbridge/types"
)

type fakeGateway struct {
	createCalls []gateway.OrderRequest
	createErr   error
	nextOrderID int64

	findResult *gateway.Order
	findCalls  int

	pages    []gateway.ShipmentPage
	listErr  error
	listOpts []gateway.ListShipmentsOptions

	stores []gateway.Store
}

func (f *fakeGateway) CreateOrUpdateOrder(_ context.Context, req *gateway.OrderRequest) (*gateway.Order, error) {
	f.createCalls = append(f.createCalls, *req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextOrderID++
	return &gateway.Order{OrderID: f.nextOrderID, OrderNumber: req.OrderNumber, OrderKey: req.OrderKey}, nil
}

func (f *fakeGateway) FindOrderByNumber(context.Context, string) *gateway.Order {
	f.findCalls++
	return f.findResult
}

func (f *fakeGateway) ListShipments(_ context.Context, opts gateway.ListShipmentsOptions) (*gateway.ShipmentPage, error) {
	f.listOpts = append(f.listOpts, opts)
	if f.listErr != nil {
		return nil, f.listErr
	}
	if opts.Page > len(f.pages) {
		return &gateway.ShipmentPage{Page: opts.Page, Pages: len(f.pages)}, nil
	}
	page := f.pages[opts.Page-1]
	page.Page = opts.Page
	page.Pages = len(f.pages)
	return &page, nil
}

func (f *fakeGateway) ListStores(context.Context) ([]gateway.Store, error) {
	return f.stores, nil
}

// fakeEnricher answers order-line lookups from a canned map. A nil map with
// a non-nil err fails every lookup.
type fakeEnricher struct {
	lines map[string][]types.LineItem
	err   error
}

func (f *fakeEnricher) OrderLines(_ context.Context, orderNumber string) ([]types.LineItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.lines[orderNumber], nil
}

// writeIntakePair drops a well-formed header/detail pair into dir.
func writeIntakePair(t *testing.T, dir, shipmentID, customerCode string, extraHeader string) {
	t.Helper()
	header := fmt.Sprintf(`<?xml version="1.0"?>
<ProcessWeaverInHeader>
    <ShipmentID>%s</ShipmentID>
    <orderno>SO-1</orderno>
    <shipname>Acme Corp</shipname>
    <shipaddr1>100 Main St</shipaddr1>
    <shipcity>Springfield</shipcity>
    <shipstate>IL</shipstate>
    <shipzip>62704</shipzip>
    <shipcountry>US</shipcountry>
    <shipviacode>UPSGND</shipviacode>
    <customercode>%s</customercode>
    %s
</ProcessWeaverInHeader>`, shipmentID, customerCode, extraHeader)

	detail := fmt.Sprintf(`<?xml version="1.0"?>
<ProcessWeaverInDetail>
    <InQueueDetail>
        <ShipmentID>%s</ShipmentID>
        <packageno>1</packageno>
        <weight>5.000000</weight>
        <length>10</length>
        <width>8</width>
        <height>6</height>
    </InQueueDetail>
</ProcessWeaverInDetail>`, shipmentID)

	writeFile(t, filepath.Join(dir, "HeaderIn_"+shipmentID+"_20260218-060000.xml"), header)
	writeFile(t, filepath.Join(dir, "DetailIn_"+shipmentID+"_20260218-060000.xml"), detail)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
