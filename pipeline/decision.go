package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pelorus-io/shipbridge/ledger"
)

// DecisionPolicy resolves the operator decisions a run can raise. The
// pipelines yield the pending decision and its full context; how it gets
// answered (console prompt or fixed choice) is the policy's concern.
type DecisionPolicy interface {
	// ContinueWithoutEnrichment is asked when the enrichment source fails
	// its preflight. True proceeds with no line items for every order;
	// false aborts the run before any unit is touched.
	ContinueWithoutEnrichment(reason string) bool

	// ReleaseHeld is asked once per run for the whole held cohort. True
	// pushes every held unit without line items; false leaves all their
	// files untouched for the next run.
	ReleaseHeld(held []HeldUnit) bool

	// ConfirmPurge is asked before stale pending records are deleted.
	ConfirmPurge(stale []ledger.Record) bool
}

// FixedPolicy answers every decision with a preset choice. It is the policy
// for non-interactive and dry runs; the zero value is the safe,
// no-data-loss default on every branch except enrichment degradation.
type FixedPolicy struct {
	// Continue allows proceeding without enrichment (degraded, not lossy).
	Continue bool
	// Release pushes held units without line items.
	Release bool
	// Purge confirms stale-record deletion.
	Purge bool
}

func (p FixedPolicy) ContinueWithoutEnrichment(string) bool { return p.Continue }

func (p FixedPolicy) ReleaseHeld([]HeldUnit) bool { return p.Release }

func (p FixedPolicy) ConfirmPurge([]ledger.Record) bool { return p.Purge }

// InteractivePolicy resolves decisions on a console. Execution suspends
// until the operator answers; use FixedPolicy wherever that wait is
// unacceptable.
type InteractivePolicy struct {
	In  io.Reader
	Out io.Writer
}

func (p InteractivePolicy) ContinueWithoutEnrichment(reason string) bool {
	fmt.Fprintf(p.Out, "\n*** Enrichment source unavailable ***\n    %s\n\n", reason)
	return p.ask("    [C]ontinue without items for all orders, or [A]bort? ", "C", "A") == "C"
}

func (p InteractivePolicy) ReleaseHeld(held []HeldUnit) bool {
	fmt.Fprintf(p.Out, "\n  %d order(s) had no line items from the enrichment source:\n", len(held))
	for _, h := range held {
		fmt.Fprintf(p.Out, "    %-20s order=%-16s reason: %s\n", h.Header.ShipmentID, h.Header.OrderNo, h.Reason)
	}
	fmt.Fprintln(p.Out)
	return p.ask("    [P]ush all without items, or [S]kip all (leave for retry)? ", "P", "S") == "P"
}

func (p InteractivePolicy) ConfirmPurge(stale []ledger.Record) bool {
	return p.ask(fmt.Sprintf("  Delete all %d record(s)? [Y]es or [N]o? ", len(stale)), "Y", "N") == "Y"
}

// ask loops until one of the accepted single-letter answers arrives.
// EOF resolves to the last (safe) choice.
func (p InteractivePolicy) ask(prompt string, choices ...string) string {
	scanner := bufio.NewScanner(p.In)
	for {
		fmt.Fprint(p.Out, prompt)
		if !scanner.Scan() {
			return choices[len(choices)-1]
		}
		answer := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		for _, choice := range choices {
			if answer == choice {
				return answer
			}
		}
		fmt.Fprintf(p.Out, "    Please enter %s.\n", strings.Join(choices, " or "))
	}
}
