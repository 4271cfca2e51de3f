// Package pipeline drives the two reconciliation flows: outbound order
// creation from intake work units, and inbound confirmation generation from
// polled shipments. Each flow is a single-threaded, synchronous pass; the
// only side effects signaling state transitions are file relocations and
// ledger/state writes, kept as the last steps of each unit's handling so an
// interrupted run is always safely re-processable.
package pipeline

// Report accumulates per-run outcome counters. Every work unit or polled
// shipment lands in exactly one counter; nothing is silently dropped.
type Report struct {
	// Processed units completed their full path (submitted or confirmed).
	Processed int
	// Skipped units were deliberately not acted on (void, rate-only,
	// held-and-skipped, no original context).
	Skipped int
	// Errors is the count of permanently failed, quarantined units.
	Errors int
	// Transient units hit a retryable failure and were left in place.
	Transient int
	// Held units entered the deferred-decision cohort this run.
	Held int
	// Orphans is the count of unpaired intake files observed.
	Orphans int
}
