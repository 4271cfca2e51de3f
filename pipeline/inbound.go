package pipeline

import (
	"context"
	"time"

	"github.com/pelorus-io/shipbridge/codec"
	"github.com/pelorus-io/shipbridge/gateway"
	"github.com/pelorus-io/shipbridge/ledger"
	"github.com/pelorus-io/shipbridge/log"
	"github.com/pelorus-io/shipbridge/runstate"
	"github.com/pelorus-io/shipbridge/translate"
)

// Inbound drives flow 2: poll each account for completed shipments, match
// them to pending ledger entries, emit confirmation output, and advance the
// reconciled set and poll watermark.
type Inbound struct {
	Accounts []Account

	Ledger    *ledger.Ledger
	State     *runstate.Store
	OutputDir string
	ShipFrom  codec.ShipFrom

	// LookbackDays is the first-run poll window when no watermark exists.
	LookbackDays int
	// PageSize is the poll page size; zero takes the client default.
	PageSize int

	DryRun bool
	Logger *log.SugaredLogger

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Run executes one inbound pass. The watermark only advances after the full
// pass completes, so a failed run re-polls the same window; the reconciled
// set keeps the re-poll idempotent.
func (i *Inbound) Run(ctx context.Context) (*Report, error) {
	report := &Report{}
	now := i.now()

	state, err := i.State.Load()
	if err != nil {
		return report, err
	}

	windowStart := state.WindowStart(now, i.LookbackDays)
	windowEnd := now.Format("2006-01-02")
	i.Logger.Infof("polling shipments created %s to %s", windowStart, windowEnd)

	anyAccountSucceeded := false
	for idx := range i.Accounts {
		account := &i.Accounts[idx]
		if err := i.pollAccount(ctx, account, windowStart, windowEnd, state, report); err != nil {
			// One account down must not block the other's confirmations.
			i.Logger.Errorf("%s account poll failed, skipping: %v", account.Name, err)
			report.Errors++
			continue
		}
		anyAccountSucceeded = true
	}

	if i.DryRun {
		i.Logger.Infof("dry run: state not saved")
	} else if anyAccountSucceeded {
		state.LastPollDate = windowEnd
		trimmed, err := i.State.Save(state)
		if err != nil {
			return report, err
		}
		if trimmed > 0 {
			i.Logger.Infof("reconciled set trimmed by %d oldest entrie(s)", trimmed)
		}
	}

	i.Logger.Infof("summary: %d confirmed, %d skipped, %d errors",
		report.Processed, report.Skipped, report.Errors)
	return report, nil
}

// pollAccount walks every page of one account's shipment window.
func (i *Inbound) pollAccount(ctx context.Context, account *Account, start, end string, state *runstate.State, report *Report) error {
	logger := i.Logger.With("account", account.Name)

	for page := 1; ; page++ {
		result, err := account.Client.ListShipments(ctx, gateway.ListShipmentsOptions{
			StoreID:         account.StoreID,
			CreateDateStart: start,
			CreateDateEnd:   end,
			Page:            page,
			PageSize:        i.PageSize,
		})
		if err != nil {
			return err
		}
		logger.Infof("page %d/%d: %d shipment(s)", result.Page, max(result.Pages, 1), len(result.Shipments))

		for idx := range result.Shipments {
			i.reconcile(&result.Shipments[idx], account, state, report, logger)
		}

		if page >= result.Pages {
			return nil
		}
	}
}

// reconcile handles one polled shipment: filter, dedup, match, emit.
func (i *Inbound) reconcile(shipment *gateway.Shipment, account *Account, state *runstate.State, report *Report, logger *log.SugaredLogger) {
	// Only orders this system created follow the naming convention; the
	// account may carry unrelated orders created by hand or other systems.
	if !translate.MatchesOrderNumber(shipment.OrderNumber) {
		return
	}
	if shipment.Voided {
		logger.Debugf("shipment %d (%s) is voided, ignoring", shipment.ShipmentID, shipment.OrderNumber)
		return
	}
	if state.Has(shipment.ShipmentID) {
		logger.Debugf("shipment %d (%s) already reconciled", shipment.ShipmentID, shipment.OrderNumber)
		return
	}

	_, shipmentID, _ := translate.SplitOrderNumber(shipment.OrderNumber)
	entryLogger := logger.With("shipment_id", shipmentID)

	entry, err := i.Ledger.Get(shipmentID)
	if err != nil {
		entryLogger.Errorf("pending entry read failed: %v", err)
		report.Errors++
		return
	}
	if entry == nil {
		// No original context. The record may have been reconciled before
		// the dedup set evicted it, or the entry write failed after the
		// remote create. Mark it so the warning does not repeat every run.
		entryLogger.Warnf("shipment %d (%s) has no pending entry, skipping", shipment.ShipmentID, shipment.OrderNumber)
		if !i.DryRun {
			state.MarkReconciled(shipment.ShipmentID)
		}
		report.Skipped++
		return
	}

	if i.DryRun {
		entryLogger.Infof("dry run: would confirm %s (tracking %s via %s)",
			shipment.OrderNumber, shipment.TrackingNumber, shipment.CarrierCode)
		report.Processed++
		return
	}

	headerPath, detailPath, err := codec.WriteConfirmation(i.OutputDir, entry, shipment, i.ShipFrom, i.now())
	if err != nil {
		// Not marked reconciled: the next run retries the write.
		entryLogger.Errorf("confirmation write failed: %v", err)
		report.Errors++
		return
	}
	entryLogger.Infof("confirmation written: %s, %s (tracking %s)", headerPath, detailPath, shipment.TrackingNumber)

	if err := i.Ledger.Delete(shipmentID); err != nil {
		entryLogger.Warnf("pending entry delete failed (will re-confirm next run): %v", err)
	}
	state.MarkReconciled(shipment.ShipmentID)
	report.Processed++
}

func (i *Inbound) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now()
}
