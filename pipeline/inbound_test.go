package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelorus-io/shipbridge/codec"
	"github.com/pelorus-io/shipbridge/gateway"
	"github.com/pelorus-io/shipbridge/ledger"
	"github.com/pelorus-io/shipbridge/log"
	"github.com/pelorus-io/shipbridge/runstate"
	"github.com/pelorus-io/shipbridge/types"
)

var testNow = time.Date(2026, 2, 18, 12, 0, 0, 0, time.UTC)

type inboundFixture struct {
	flow    *Inbound
	gw      *fakeGateway
	pending *ledger.Ledger
	state   *runstate.Store
	output  string
}

func newInboundFixture(t *testing.T) *inboundFixture {
	t.Helper()
	root := t.TempDir()
	output := filepath.Join(root, "output")

	gw := &fakeGateway{}
	pending := ledger.New(filepath.Join(root, "pending"))
	state := runstate.NewStore(filepath.Join(root, "state.json"), 0)

	flow := &Inbound{
		Accounts:  []Account{{Name: "primary", Client: gw}},
		Ledger:    pending,
		State:     state,
		OutputDir: output,
		ShipFrom:  codec.ShipFrom{AccountNo: "12345", Name: "Warehouse One"},
		Logger:    log.Nop().Sugar(),
		Now:       func() time.Time { return testNow },
	}
	return &inboundFixture{flow: flow, gw: gw, pending: pending, state: state, output: output}
}

func putEntry(t *testing.T, l *ledger.Ledger, shipmentID string) {
	t.Helper()
	err := l.Put(&ledger.Entry{
		ShipmentID:  shipmentID,
		OrderNumber: "HO1002_" + shipmentID,
		ShipTo:      types.ShipTo{Name: "Acme", City: "Springfield"},
		Packages:    []types.PackageDetail{{PackageNo: 1, Weight: 5}},
		Account:     "primary",
		CreatedAt:   testNow.Add(-24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("put entry: %v", err)
	}
}

func shipmentFor(id int64, shipmentID string) gateway.Shipment {
	return gateway.Shipment{
		ShipmentID:     id,
		OrderNumber:    "HO1002_" + shipmentID,
		TrackingNumber: "1Z" + shipmentID,
		CarrierCode:    "ups",
		ServiceCode:    "ups_ground",
		ShipDate:       "2026-02-18T09:00:00.000",
	}
}

func TestInboundConfirmsMatchedShipment(t *testing.T) {
	fx := newInboundFixture(t)
	putEntry(t, fx.pending, "SHIP0000000001")
	fx.gw.pages = []gateway.ShipmentPage{{Shipments: []gateway.Shipment{shipmentFor(90210, "SHIP0000000001")}}}

	report, err := fx.flow.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Processed != 1 || report.Errors != 0 {
		t.Fatalf("report = %+v", report)
	}

	names := dirNames(t, fx.output)
	if len(names) != 2 {
		t.Fatalf("output = %v", names)
	}
	for _, name := range names {
		if !strings.HasPrefix(name, "HEADEROUT_SHIP0000000001_") && !strings.HasPrefix(name, "DETAILOUT_SHIP0000000001_") {
			t.Errorf("unexpected output file %s", name)
		}
	}

	// The pending entry is consumed and the shipment joins the dedup set.
	if entry, _ := fx.pending.Get("SHIP0000000001"); entry != nil {
		t.Error("pending entry should be deleted after confirmation")
	}
	state, err := fx.state.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !state.Has(90210) {
		t.Error("shipment not marked reconciled")
	}
	if state.LastPollDate != "2026-02-18" {
		t.Errorf("watermark = %q", state.LastPollDate)
	}
}

func TestInboundIgnoresForeignOrders(t *testing.T) {
	fx := newInboundFixture(t)
	fx.gw.pages = []gateway.ShipmentPage{{Shipments: []gateway.Shipment{
		{ShipmentID: 1, OrderNumber: "AMZ-ORDER-9876"},
		{ShipmentID: 2, OrderNumber: "12345"},
	}}}

	report, err := fx.flow.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Processed != 0 || report.Skipped != 0 || report.Errors != 0 {
		t.Fatalf("report = %+v", report)
	}
	if got := dirNames(t, fx.output); len(got) != 0 {
		t.Errorf("output = %v", got)
	}
}

func TestInboundIgnoresVoidedShipments(t *testing.T) {
	fx := newInboundFixture(t)
	putEntry(t, fx.pending, "SHIP0000000001")
	voided := shipmentFor(90210, "SHIP0000000001")
	voided.Voided = true
	fx.gw.pages = []gateway.ShipmentPage{{Shipments: []gateway.Shipment{voided}}}

	report, err := fx.flow.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Processed != 0 {
		t.Fatalf("report = %+v", report)
	}
	if entry, _ := fx.pending.Get("SHIP0000000001"); entry == nil {
		t.Error("voided shipment must not consume the pending entry")
	}
}

func TestInboundAbsentPendingEntrySkipsOnce(t *testing.T) {
	fx := newInboundFixture(t)
	fx.gw.pages = []gateway.ShipmentPage{{Shipments: []gateway.Shipment{shipmentFor(90210, "SHIP0000000001")}}}

	report, err := fx.flow.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Skipped != 1 || report.Errors != 0 {
		t.Fatalf("report = %+v", report)
	}

	// Marked reconciled so the warning does not repeat every run.
	state, err := fx.state.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !state.Has(90210) {
		t.Error("no-context shipment should still be marked reconciled")
	}
}

func TestInboundDedupAcrossRuns(t *testing.T) {
	fx := newInboundFixture(t)
	putEntry(t, fx.pending, "SHIP0000000001")
	fx.gw.pages = []gateway.ShipmentPage{{Shipments: []gateway.Shipment{shipmentFor(90210, "SHIP0000000001")}}}

	if _, err := fx.flow.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	firstOutput := dirNames(t, fx.output)

	// Same shipment polled again next run.
	if _, err := fx.flow.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if got := dirNames(t, fx.output); len(got) != len(firstOutput) {
		t.Errorf("second run produced duplicate output: %v", got)
	}
}

func TestInboundPagesThroughResults(t *testing.T) {
	fx := newInboundFixture(t)
	putEntry(t, fx.pending, "SHIP0000000001")
	putEntry(t, fx.pending, "SHIP0000000002")
	fx.gw.pages = []gateway.ShipmentPage{
		{Shipments: []gateway.Shipment{shipmentFor(1, "SHIP0000000001")}},
		{Shipments: []gateway.Shipment{shipmentFor(2, "SHIP0000000002")}},
	}

	report, err := fx.flow.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Processed != 2 {
		t.Fatalf("report = %+v", report)
	}
	if len(fx.gw.listOpts) != 2 {
		t.Errorf("list calls = %d", len(fx.gw.listOpts))
	}
}

func TestInboundOneAccountDownDoesNotBlockOther(t *testing.T) {
	fx := newInboundFixture(t)
	putEntry(t, fx.pending, "SHIP0000000001")

	downGW := &fakeGateway{listErr: &gateway.TransientError{Op: "list shipments", Attempts: 3, Err: errors.New("503")}}
	fx.gw.pages = []gateway.ShipmentPage{{Shipments: []gateway.Shipment{shipmentFor(1, "SHIP0000000001")}}}
	fx.flow.Accounts = []Account{
		{Name: "secondary", Client: downGW},
		{Name: "primary", Client: fx.gw},
	}

	report, err := fx.flow.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Processed != 1 || report.Errors != 1 {
		t.Fatalf("report = %+v", report)
	}

	// The healthy account's confirmations landed and the watermark moved.
	state, err := fx.state.Load()
	if err != nil {
		t.Fatal(err)
	}
	if state.LastPollDate != "2026-02-18" {
		t.Errorf("watermark = %q", state.LastPollDate)
	}
}

func TestInboundFirstRunUsesLookbackWindow(t *testing.T) {
	fx := newInboundFixture(t)
	fx.flow.LookbackDays = 7
	fx.gw.pages = []gateway.ShipmentPage{{}}

	if _, err := fx.flow.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(fx.gw.listOpts) == 0 {
		t.Fatal("no list call made")
	}
	opts := fx.gw.listOpts[0]
	if opts.CreateDateStart != "2026-02-11" || opts.CreateDateEnd != "2026-02-18" {
		t.Errorf("window = %s..%s", opts.CreateDateStart, opts.CreateDateEnd)
	}
}

func TestInboundDryRunSavesNothing(t *testing.T) {
	fx := newInboundFixture(t)
	putEntry(t, fx.pending, "SHIP0000000001")
	fx.gw.pages = []gateway.ShipmentPage{{Shipments: []gateway.Shipment{shipmentFor(90210, "SHIP0000000001")}}}
	fx.flow.DryRun = true

	report, err := fx.flow.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Processed != 1 {
		t.Fatalf("report = %+v", report)
	}
	if got := dirNames(t, fx.output); len(got) != 0 {
		t.Errorf("dry run wrote output: %v", got)
	}
	if entry, _ := fx.pending.Get("SHIP0000000001"); entry == nil {
		t.Error("dry run must not consume pending entries")
	}
	state, err := fx.state.Load()
	if err != nil {
		t.Fatal(err)
	}
	if state.LastPollDate != "" || state.Has(90210) {
		t.Errorf("dry run must not save state: %+v", state)
	}
}
