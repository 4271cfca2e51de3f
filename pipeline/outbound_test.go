package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelorus-io/shipbridge/gateway"
	"github.com/pelorus-io/shipbridge/ledger"
	"github.com/pelorus-io/shipbridge/log"
	"github.com/pelorus-io/shipbridge/types"
)

type outboundFixture struct {
	flow    *Outbound
	gw      *fakeGateway
	inbox   string
	proc    string
	errs    string
	pending *ledger.Ledger
}

func newOutboundFixture(t *testing.T) *outboundFixture {
	t.Helper()
	root := t.TempDir()
	inbox := filepath.Join(root, "inbox")
	proc := filepath.Join(root, "processed")
	errs := filepath.Join(root, "error")
	if err := os.MkdirAll(inbox, 0o755); err != nil {
		t.Fatal(err)
	}

	gw := &fakeGateway{}
	pending := ledger.New(filepath.Join(root, "pending"))
	flow := &Outbound{
		Inbox:        inbox,
		ProcessedDir: proc,
		ErrorDir:     errs,
		Primary:      Account{Name: "primary", Client: gw},
		Ledger:       pending,
		Policy:       FixedPolicy{Continue: true},
		Logger:       log.Nop().Sugar(),
	}
	return &outboundFixture{flow: flow, gw: gw, inbox: inbox, proc: proc, errs: errs, pending: pending}
}

func TestOutboundHappyPath(t *testing.T) {
	fx := newOutboundFixture(t)
	writeIntakePair(t, fx.inbox, "SHIP0000000001", "HO1002", "")

	report, err := fx.flow.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Processed != 1 || report.Errors != 0 {
		t.Fatalf("report = %+v", report)
	}

	if len(fx.gw.createCalls) != 1 {
		t.Fatalf("create calls = %d", len(fx.gw.createCalls))
	}
	req := fx.gw.createCalls[0]
	if req.OrderNumber != "HO1002_SHIP0000000001" || req.OrderKey != req.OrderNumber {
		t.Errorf("order number/key = %q/%q", req.OrderNumber, req.OrderKey)
	}

	entry, err := fx.pending.Get("SHIP0000000001")
	if err != nil || entry == nil {
		t.Fatalf("pending entry missing: %v", err)
	}
	if entry.OrderNumber != "HO1002_SHIP0000000001" || entry.Account != "primary" {
		t.Errorf("entry = %+v", entry)
	}
	if len(entry.Packages) != 1 {
		t.Errorf("entry packages = %d", len(entry.Packages))
	}

	if got := dirNames(t, fx.inbox); len(got) != 0 {
		t.Errorf("inbox not emptied: %v", got)
	}
	if got := dirNames(t, fx.proc); len(got) != 2 {
		t.Errorf("processed = %v", got)
	}
}

func TestOutboundVoidSkippedWithoutRemoteCall(t *testing.T) {
	fx := newOutboundFixture(t)
	writeIntakePair(t, fx.inbox, "SHIP0000000001", "HO1002", "<void>Y</void>")

	report, err := fx.flow.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Skipped != 1 || report.Processed != 0 {
		t.Fatalf("report = %+v", report)
	}
	if len(fx.gw.createCalls) != 0 || fx.gw.findCalls != 0 {
		t.Error("void shipment must not touch the remote")
	}
	// Completed business case: files still leave the inbox.
	if got := dirNames(t, fx.proc); len(got) != 2 {
		t.Errorf("processed = %v", got)
	}
	if entry, _ := fx.pending.Get("SHIP0000000001"); entry != nil {
		t.Error("void shipment must not get a pending entry")
	}
}

func TestOutboundRateOnlySkipped(t *testing.T) {
	fx := newOutboundFixture(t)
	writeIntakePair(t, fx.inbox, "SHIP0000000001", "HO1002", "<RateOnly>Y</RateOnly>")

	report, err := fx.flow.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Skipped != 1 || len(fx.gw.createCalls) != 0 {
		t.Fatalf("report = %+v, creates = %d", report, len(fx.gw.createCalls))
	}
}

func TestOutboundIdentifierMismatchQuarantined(t *testing.T) {
	fx := newOutboundFixture(t)
	header := `<ProcessWeaverInHeader><ShipmentID>SHIP0000000001</ShipmentID><customercode>HO1002</customercode></ProcessWeaverInHeader>`
	detail := `<ProcessWeaverInDetail><InQueueDetail><ShipmentID>SHIP0000000099</ShipmentID><packageno>1</packageno></InQueueDetail></ProcessWeaverInDetail>`
	writeFile(t, filepath.Join(fx.inbox, "HeaderIn_SHIP0000000001_x.xml"), header)
	writeFile(t, filepath.Join(fx.inbox, "DetailIn_SHIP0000000001_x.xml"), detail)

	report, err := fx.flow.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Errors != 1 {
		t.Fatalf("report = %+v", report)
	}
	if len(fx.gw.createCalls) != 0 {
		t.Error("mismatched unit must not reach the remote")
	}

	data, err := os.ReadFile(filepath.Join(fx.errs, "SHIP0000000001.error.txt"))
	if err != nil {
		t.Fatalf("reason file: %v", err)
	}
	if !strings.Contains(string(data), "mismatch") {
		t.Errorf("reason = %q", data)
	}
}

func TestOutboundTransientLeavesFilesInPlace(t *testing.T) {
	fx := newOutboundFixture(t)
	writeIntakePair(t, fx.inbox, "SHIP0000000001", "HO1002", "")
	fx.gw.createErr = &gateway.TransientError{Op: "create order", Attempts: 3, Err: errors.New("server error 503")}

	report, err := fx.flow.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Transient != 1 || report.Errors != 0 {
		t.Fatalf("report = %+v", report)
	}
	// Next run retries: both files stay put, nothing recorded.
	if got := dirNames(t, fx.inbox); len(got) != 2 {
		t.Errorf("inbox = %v", got)
	}
	if entry, _ := fx.pending.Get("SHIP0000000001"); entry != nil {
		t.Error("transient failure must not write a pending entry")
	}
}

func TestOutboundPermanentQuarantined(t *testing.T) {
	fx := newOutboundFixture(t)
	writeIntakePair(t, fx.inbox, "SHIP0000000001", "HO1002", "")
	fx.gw.createErr = &gateway.PermanentError{Op: "create order", Status: 400, Detail: "postalCode invalid"}

	report, err := fx.flow.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Errors != 1 {
		t.Fatalf("report = %+v", report)
	}
	if got := dirNames(t, fx.errs); len(got) != 3 {
		t.Errorf("error dir = %v (want 2 files + reason)", got)
	}
}

func TestOutboundRoutesByCountry(t *testing.T) {
	fx := newOutboundFixture(t)
	secondaryGW := &fakeGateway{}
	fx.flow.Secondary = &Account{Name: "secondary", Client: secondaryGW, Country: "CA"}

	writeIntakePair(t, fx.inbox, "SHIP0000000001", "HO1002", "")
	header := strings.ReplaceAll(`<ProcessWeaverInHeader>
    <ShipmentID>__ID__</ShipmentID>
    <customercode>HO1002</customercode>
    <shipcountry>ca</shipcountry>
</ProcessWeaverInHeader>`, "__ID__", "TEST00000001")
	detail := `<ProcessWeaverInDetail><InQueueDetail><packageno>1</packageno><weight>1</weight></InQueueDetail></ProcessWeaverInDetail>`
	writeFile(t, filepath.Join(fx.inbox, "HeaderIn_TEST00000001_x.xml"), header)
	writeFile(t, filepath.Join(fx.inbox, "DetailIn_TEST00000001_x.xml"), detail)

	if _, err := fx.flow.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(fx.gw.createCalls) != 1 || fx.gw.createCalls[0].OrderNumber != "HO1002_SHIP0000000001" {
		t.Errorf("primary got %+v", fx.gw.createCalls)
	}
	// Country match is case-insensitive.
	if len(secondaryGW.createCalls) != 1 || secondaryGW.createCalls[0].OrderNumber != "HO1002_TEST00000001" {
		t.Errorf("secondary got %+v", secondaryGW.createCalls)
	}

	entry, _ := fx.pending.Get("TEST00000001")
	if entry == nil || entry.Account != "secondary" {
		t.Errorf("secondary entry = %+v", entry)
	}
}

func TestOutboundEnrichmentAttachesItems(t *testing.T) {
	fx := newOutboundFixture(t)
	writeIntakePair(t, fx.inbox, "SHIP0000000001", "HO1002", "")
	fx.flow.Enrich = &fakeEnricher{lines: map[string][]types.LineItem{
		"SO-1": {{LineNumber: 1, SKU: "WID-1", Description: "Widget", QtyOrdered: 2}},
	}}

	if _, err := fx.flow.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(fx.gw.createCalls) != 1 || len(fx.gw.createCalls[0].Items) != 1 {
		t.Fatalf("create calls = %+v", fx.gw.createCalls)
	}
	entry, _ := fx.pending.Get("SHIP0000000001")
	if entry == nil || len(entry.Items) != 1 {
		t.Errorf("entry items = %+v", entry)
	}
}

func TestOutboundEnrichmentLookupFailureProceedsDegraded(t *testing.T) {
	fx := newOutboundFixture(t)
	writeIntakePair(t, fx.inbox, "SHIP0000000001", "HO1002", "")
	fx.flow.Enrich = &fakeEnricher{err: errors.New("query timeout")}

	report, err := fx.flow.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Processed != 1 {
		t.Fatalf("report = %+v", report)
	}
	if len(fx.gw.createCalls) != 1 || len(fx.gw.createCalls[0].Items) != 0 {
		t.Errorf("degraded order should go out without items: %+v", fx.gw.createCalls)
	}
}

func TestOutboundHeldCohortSkipped(t *testing.T) {
	fx := newOutboundFixture(t)
	writeIntakePair(t, fx.inbox, "SHIP0000000001", "HO1002", "")
	// Empty lines with no error: legitimately zero items, a decision point.
	fx.flow.Enrich = &fakeEnricher{lines: map[string][]types.LineItem{}}
	fx.flow.Policy = FixedPolicy{Continue: true, Release: false}

	report, err := fx.flow.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Held != 1 || report.Skipped != 1 || report.Processed != 0 {
		t.Fatalf("report = %+v", report)
	}
	if len(fx.gw.createCalls) != 0 {
		t.Error("skipped held unit must not reach the remote")
	}
	if got := dirNames(t, fx.inbox); len(got) != 2 {
		t.Errorf("held-and-skipped files must stay for retry: %v", got)
	}
}

func TestOutboundHeldCohortReleased(t *testing.T) {
	fx := newOutboundFixture(t)
	writeIntakePair(t, fx.inbox, "SHIP0000000001", "HO1002", "")
	fx.flow.Enrich = &fakeEnricher{lines: map[string][]types.LineItem{}}
	fx.flow.Policy = FixedPolicy{Continue: true, Release: true}

	report, err := fx.flow.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Held != 1 || report.Processed != 1 {
		t.Fatalf("report = %+v", report)
	}
	if len(fx.gw.createCalls) != 1 || len(fx.gw.createCalls[0].Items) != 0 {
		t.Errorf("released unit goes out without items: %+v", fx.gw.createCalls)
	}
}

func TestOutboundDryRunMutatesNothing(t *testing.T) {
	fx := newOutboundFixture(t)
	writeIntakePair(t, fx.inbox, "SHIP0000000001", "HO1002", "")
	fx.flow.DryRun = true

	report, err := fx.flow.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Processed != 1 {
		t.Fatalf("report = %+v", report)
	}
	if len(fx.gw.createCalls) != 0 || fx.gw.findCalls != 0 {
		t.Error("dry run must not call the remote")
	}
	if got := dirNames(t, fx.inbox); len(got) != 2 {
		t.Errorf("dry run must not move files: %v", got)
	}
	if entry, _ := fx.pending.Get("SHIP0000000001"); entry != nil {
		t.Error("dry run must not write pending entries")
	}
}

func TestOutboundOrphansReportedAndLeft(t *testing.T) {
	fx := newOutboundFixture(t)
	writeFile(t, filepath.Join(fx.inbox, "HeaderIn_SHIP0000000001_x.xml"), "<ProcessWeaverInHeader/>")

	report, err := fx.flow.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Orphans != 1 {
		t.Fatalf("report = %+v", report)
	}
	if got := dirNames(t, fx.inbox); len(got) != 1 {
		t.Errorf("orphan must stay in inbox: %v", got)
	}
}
