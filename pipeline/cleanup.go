package pipeline

import (
	"time"

	"github.com/pelorus-io/shipbridge/ledger"
	"github.com/pelorus-io/shipbridge/log"
)

// Cleanup audits the pending ledger for stale records. Records older than
// the threshold usually mean a shipment was canceled remotely or its
// confirmation window was missed; deleting them is an operator decision.
type Cleanup struct {
	Ledger *ledger.Ledger
	Policy DecisionPolicy
	DryRun bool
	Logger *log.SugaredLogger

	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// PurgeStale lists records older than olderThan and, on confirmation,
// deletes them. It returns the stale records found and how many were
// deleted.
func (c *Cleanup) PurgeStale(olderThan time.Duration) ([]ledger.Record, int, error) {
	records, err := c.Ledger.List()
	if err != nil {
		return nil, 0, err
	}

	now := time.Now()
	if c.Now != nil {
		now = c.Now()
	}

	var stale []ledger.Record
	for _, record := range records {
		if record.CreatedAt.IsZero() {
			continue
		}
		if now.Sub(record.CreatedAt) > olderThan {
			stale = append(stale, record)
		}
	}

	if len(stale) == 0 {
		c.Logger.Infof("no pending records older than %s (%d total)", olderThan, len(records))
		return nil, 0, nil
	}

	for _, record := range stale {
		age := now.Sub(record.CreatedAt).Round(time.Hour)
		source := ""
		if record.FromFileTime {
			source = " (age from file time)"
		}
		c.Logger.Infof("stale: %s order=%s age=%s%s", record.ShipmentID, record.OrderNumber, age, source)
	}

	if c.DryRun {
		c.Logger.Infof("dry run: %d stale record(s) would be considered for deletion", len(stale))
		return stale, 0, nil
	}

	if !c.Policy.ConfirmPurge(stale) {
		c.Logger.Infof("purge declined, %d stale record(s) kept", len(stale))
		return stale, 0, nil
	}

	deleted := 0
	for _, record := range stale {
		if err := c.Ledger.Delete(record.ShipmentID); err != nil {
			c.Logger.Errorf("delete %s: %v", record.ShipmentID, err)
			continue
		}
		deleted++
	}
	c.Logger.Infof("purged %d of %d stale record(s)", deleted, len(stale))
	return stale, deleted, nil
}
