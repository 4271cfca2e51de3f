package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pelorus-io/shipbridge/codec"
	"github.com/pelorus-io/shipbridge/exchange"
	"github.com/pelorus-io/shipbridge/gateway"
	"github.com/pelorus-io/shipbridge/ledger"
	"github.com/pelorus-io/shipbridge/log"
	"github.com/pelorus-io/shipbridge/translate"
	"github.com/pelorus-io/shipbridge/types"
)

// GatewayClient is the slice of the remote gateway the pipelines use.
// *gateway.Client satisfies it; tests inject fakes.
type GatewayClient interface {
	CreateOrUpdateOrder(ctx context.Context, req *gateway.OrderRequest) (*gateway.Order, error)
	FindOrderByNumber(ctx context.Context, orderNumber string) *gateway.Order
	ListShipments(ctx context.Context, opts gateway.ListShipmentsOptions) (*gateway.ShipmentPage, error)
	ListStores(ctx context.Context) ([]gateway.Store, error)
}

// Enricher supplies order lines for a business order number.
type Enricher interface {
	OrderLines(ctx context.Context, orderNumber string) ([]types.LineItem, error)
}

// Account is one configured destination account. A secondary account claims
// the shipments whose ship-to country matches Country; everything else
// routes to the primary.
type Account struct {
	Name    string
	Client  GatewayClient
	StoreID *int
	Country string
}

// HeldUnit is a work unit deferred for the end-of-run batch decision
// because its enrichment lookup legitimately returned zero lines.
type HeldUnit struct {
	Unit    exchange.WorkUnit
	Header  *types.ShipmentHeader
	Detail  *types.ShipmentDetail
	Account *Account
	Reason  string
}

// Outbound drives flow 1: scan the inbox, translate each work unit, create
// the remote order, record the pending entry, relocate the files.
type Outbound struct {
	Inbox        string
	ProcessedDir string
	ErrorDir     string

	Primary   Account
	Secondary *Account

	// Enrich is nil when the enrichment source is not configured.
	Enrich Enricher
	Ledger *ledger.Ledger
	Policy DecisionPolicy
	DryRun bool
	Logger *log.SugaredLogger

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// outcome is the terminal state of one work unit within a run.
type outcome int

const (
	outcomeProcessed outcome = iota
	outcomeSkipped
	outcomeError
	outcomeTransient
	outcomeHeld
)

// Run executes one outbound pass. Every discovered work unit terminates in
// exactly one of processed, error, or left-in-place.
func (o *Outbound) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	if err := o.preflightEnrichment(ctx); err != nil {
		return report, err
	}

	o.Logger.Infof("scanning %s", o.Inbox)
	scan, err := exchange.Scan(o.Inbox)
	if err != nil {
		return report, err
	}

	for _, orphan := range scan.Orphans {
		o.Logger.Warnf("%s | %s file has no matching counterpart, left in place", orphan.ShipmentID, orphan.Role)
	}
	report.Orphans = len(scan.Orphans)

	if len(scan.Units) == 0 {
		o.Logger.Infof("no work units found")
		return report, nil
	}
	o.Logger.Infof("found %d work unit(s)", len(scan.Units))

	var held []HeldUnit
	for _, unit := range scan.Units {
		result, heldUnit := o.processUnit(ctx, unit)
		o.count(report, result)
		if heldUnit != nil {
			held = append(held, *heldUnit)
		}
	}

	o.resolveHeld(ctx, held, report)

	o.Logger.Infof("summary: %d processed, %d skipped, %d errors, %d left for retry",
		report.Processed, report.Skipped, report.Errors, report.Transient)
	return report, nil
}

// preflightEnrichment pings the enrichment source when it supports it.
// On failure, the run either degrades (all orders go out without line
// items) or aborts, per the decision policy.
func (o *Outbound) preflightEnrichment(ctx context.Context) error {
	if o.Enrich == nil {
		o.Logger.Infof("enrichment source not configured, orders will have no line items")
		return nil
	}
	pinger, ok := o.Enrich.(interface{ Ping(context.Context) error })
	if !ok {
		return nil
	}
	err := pinger.Ping(ctx)
	if err == nil {
		o.Logger.Infof("enrichment source connected, line items will be included")
		return nil
	}

	o.Logger.Warnf("enrichment source unavailable: %v", err)
	if !o.Policy.ContinueWithoutEnrichment(err.Error()) {
		return fmt.Errorf("aborted: enrichment source unavailable: %w", err)
	}
	o.Logger.Infof("continuing without line items (enrichment source unavailable)")
	o.Enrich = nil
	return nil
}

// processUnit runs the per-unit state machine up to held or a terminal
// outcome: discovered → validated → routed → (held | submitted) → relocated.
func (o *Outbound) processUnit(ctx context.Context, unit exchange.WorkUnit) (outcome, *HeldUnit) {
	logger := o.Logger.With("shipment_id", unit.ShipmentID)
	logger.Infof("processing")

	header, detail, err := o.decode(unit)
	if err != nil {
		logger.Errorf("permanent error: %v", err)
		o.quarantine(unit, err.Error(), logger)
		return outcomeError, nil
	}

	// Void and rate-only shipments are deliberately skipped business
	// cases, completed without any remote call.
	if header.IsVoid() || header.IsRateOnly() {
		reason := "void=Y"
		if header.IsRateOnly() {
			reason = "rate-only=Y"
		}
		logger.Infof("skipped: %s", reason)
		if !o.DryRun {
			if err := exchange.MoveToProcessed(unit, o.ProcessedDir); err != nil {
				logger.Errorf("relocate failed: %v", err)
				return outcomeError, nil
			}
		}
		return outcomeSkipped, nil
	}

	account := o.route(header.ShipCountry)
	logger.Infof("routing to %s account (country: %s)", account.Name, header.ShipCountry)

	items, heldReason := o.lookupItems(ctx, header, logger)
	if heldReason != "" {
		logger.Infof("held, waiting for batch decision (%s)", heldReason)
		return outcomeHeld, &HeldUnit{
			Unit:    unit,
			Header:  header,
			Detail:  detail,
			Account: account,
			Reason:  heldReason,
		}
	}

	return o.submit(ctx, unit, header, detail, account, items, logger), nil
}

// decode parses both halves and validates identifier consistency.
func (o *Outbound) decode(unit exchange.WorkUnit) (*types.ShipmentHeader, *types.ShipmentDetail, error) {
	header, err := codec.DecodeHeaderFile(unit.HeaderPath)
	if err != nil {
		return nil, nil, err
	}
	detail, err := codec.DecodeDetailFile(unit.DetailPath)
	if err != nil {
		return nil, nil, err
	}
	for _, pkg := range detail.Packages {
		if pkg.ShipmentID != "" && pkg.ShipmentID != header.ShipmentID {
			return nil, nil, fmt.Errorf("shipment identifier mismatch: header=%s, detail=%s",
				header.ShipmentID, pkg.ShipmentID)
		}
	}
	return header, detail, nil
}

// route selects the destination account by ship-to country.
func (o *Outbound) route(country string) *Account {
	if o.Secondary != nil && o.Secondary.Country != "" && strings.EqualFold(country, o.Secondary.Country) {
		return o.Secondary
	}
	return &o.Primary
}

// lookupItems attempts enrichment. Three outcomes: lines found (proceed),
// lookup failure (proceed degraded), lines legitimately empty (held for the
// batch decision, heldReason non-empty).
func (o *Outbound) lookupItems(ctx context.Context, header *types.ShipmentHeader, logger *log.SugaredLogger) ([]types.LineItem, string) {
	if o.Enrich == nil || header.OrderNo == "" {
		return nil, ""
	}

	items, err := o.Enrich.OrderLines(ctx, header.OrderNo)
	if err != nil {
		// Degraded-but-valid: the order goes out without line items.
		logger.Warnf("enrichment lookup failed for order %s, proceeding without items: %v", header.OrderNo, err)
		return nil, ""
	}
	if len(items) == 0 {
		return nil, fmt.Sprintf("order %s has no line items", header.OrderNo)
	}

	logger.Infof("enrichment: %d line item(s) for order %s", len(items), header.OrderNo)
	return items, ""
}

// submit translates, upserts the remote order, writes the pending entry and
// relocates the files. Relocation and the ledger write come last so a crash
// before them leaves the unit re-processable.
func (o *Outbound) submit(ctx context.Context, unit exchange.WorkUnit, header *types.ShipmentHeader, detail *types.ShipmentDetail, account *Account, items []types.LineItem, logger *log.SugaredLogger) outcome {
	orderNumber := translate.OrderNumber(header)
	request := translate.ToOrderRequest(header, detail, items, translate.Options{StoreID: account.StoreID})

	if o.DryRun {
		logger.Infof("dry run: would create order %s in %s account", orderNumber, account.Name)
		return outcomeProcessed
	}

	// Best-effort probe; an existing order means this is a re-send and the
	// upsert below will update it in place.
	if existing := account.Client.FindOrderByNumber(ctx, orderNumber); existing != nil {
		logger.Infof("order %s already exists, updating (re-send)", orderNumber)
	}

	created, err := account.Client.CreateOrUpdateOrder(ctx, request)
	if err != nil {
		if gateway.IsTransient(err) {
			logger.Warnf("transient error (will retry next run): %v", err)
			return outcomeTransient
		}
		logger.Errorf("permanent error: %v", err)
		o.quarantine(unit, err.Error(), logger)
		return outcomeError
	}
	logger.Infof("order %s created/updated (remote id %d)", orderNumber, created.OrderID)

	entry := o.buildEntry(header, detail, orderNumber, account.Name, items)
	if err := o.Ledger.Put(entry); err != nil {
		// The remote order exists but the bridge record does not; the
		// inbound pipeline will log this shipment as having no original
		// context. Quarantine so the gap is visible.
		logger.Errorf("pending entry write failed after remote create: %v", err)
		o.quarantine(unit, fmt.Sprintf("order %s created remotely but pending entry write failed: %v", orderNumber, err), logger)
		return outcomeError
	}

	if err := exchange.MoveToProcessed(unit, o.ProcessedDir); err != nil {
		logger.Errorf("relocate failed: %v", err)
		return outcomeError
	}
	logger.Infof("processed")
	return outcomeProcessed
}

// resolveHeld settles the held cohort with a single batch decision.
func (o *Outbound) resolveHeld(ctx context.Context, held []HeldUnit, report *Report) {
	if len(held) == 0 {
		return
	}
	report.Held = len(held)

	if o.DryRun {
		for _, h := range held {
			o.Logger.Infof("%s | dry run: would hold (%s)", h.Header.ShipmentID, h.Reason)
			report.Skipped++
		}
		return
	}

	if !o.Policy.ReleaseHeld(held) {
		for _, h := range held {
			o.Logger.Infof("%s | held unit skipped, files left in place (%s)", h.Header.ShipmentID, h.Reason)
			report.Skipped++
		}
		return
	}

	for _, h := range held {
		logger := o.Logger.With("shipment_id", h.Header.ShipmentID)
		result := o.submit(ctx, h.Unit, h.Header, h.Detail, h.Account, nil, logger)
		o.count(report, result)
	}
}

func (o *Outbound) buildEntry(header *types.ShipmentHeader, detail *types.ShipmentDetail, orderNumber, accountName string, items []types.LineItem) *ledger.Entry {
	now := time.Now
	if o.Now != nil {
		now = o.Now
	}
	return &ledger.Entry{
		ShipmentID:   header.ShipmentID,
		OrderNumber:  orderNumber,
		CustomerCode: header.CustomerCode,
		ShipTo: types.ShipTo{
			Name:        header.ShipName,
			Street1:     header.ShipAddr1,
			Street2:     header.ShipAddr2,
			Street3:     header.ShipAddr3,
			City:        header.ShipCity,
			State:       header.ShipState,
			Country:     header.ShipCountry,
			PostalCode:  header.ShipZip,
			Phone:       header.ContactPhone,
			Email:       header.ShipEmail,
			Residential: header.Residential(),
		},
		ShipVia:   header.ShipViaCode,
		IsCOD:     header.IsCOD,
		CollType:  header.CollType,
		Packages:  detail.Packages,
		Items:     items,
		Account:   accountName,
		CreatedAt: now(),
	}
}

// quarantine relocates a permanently failed unit to the error area with its
// reason attached. In dry runs nothing moves.
func (o *Outbound) quarantine(unit exchange.WorkUnit, reason string, logger *log.SugaredLogger) {
	if o.DryRun {
		return
	}
	if err := exchange.MoveToError(unit, o.ErrorDir, reason); err != nil {
		logger.Errorf("quarantine failed: %v", err)
	}
}

func (o *Outbound) count(report *Report, result outcome) {
	switch result {
	case outcomeProcessed:
		report.Processed++
	case outcomeSkipped:
		report.Skipped++
	case outcomeError:
		report.Errors++
	case outcomeTransient:
		report.Transient++
	case outcomeHeld:
		// Counted when the cohort is resolved.
	}
}
