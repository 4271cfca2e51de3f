// Package runstate persists the tiny cross-run record the inbound pipeline
// needs: the last successful poll watermark and a capped, ordered set of
// remote shipment identifiers already reconciled.
package runstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultCap bounds the reconciled-ID set. Eviction is oldest-first and is
// safe: an evicted identifier's pending entry has already been deleted, so
// re-encountering it only risks a duplicate low-severity warning, never a
// duplicate mutation.
const DefaultCap = 500

// DefaultLookbackDays is the first-run poll window when no watermark exists.
const DefaultLookbackDays = 7

// State is the durable run-state document.
type State struct {
	// LastPollDate is the watermark, format YYYY-MM-DD. Empty on first run.
	LastPollDate string `json:"last_poll_date,omitempty"`
	// ReconciledIDs is ordered oldest-first.
	ReconciledIDs []int64 `json:"reconciled_shipment_ids"`
}

// Has reports whether a remote shipment identifier was already reconciled.
func (s *State) Has(id int64) bool {
	for _, existing := range s.ReconciledIDs {
		if existing == id {
			return true
		}
	}
	return false
}

// MarkReconciled appends an identifier if not already present.
func (s *State) MarkReconciled(id int64) {
	if !s.Has(id) {
		s.ReconciledIDs = append(s.ReconciledIDs, id)
	}
}

// WindowStart returns the poll window start: the watermark when present,
// otherwise now minus the look-back.
func (s *State) WindowStart(now time.Time, lookbackDays int) string {
	if s.LastPollDate != "" {
		return s.LastPollDate
	}
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	return now.AddDate(0, 0, -lookbackDays).Format("2006-01-02")
}

// Store reads and writes the state document.
type Store struct {
	path string
	cap  int
}

// NewStore creates a store at path. cap <= 0 uses DefaultCap.
func NewStore(path string, cap int) *Store {
	if cap <= 0 {
		cap = DefaultCap
	}
	return &Store{path: path, cap: cap}
}

// Load reads the state. A missing file yields an empty state.
func (s *Store) Load() (*State, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("run state: read %s: %w", s.path, err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("run state: decode %s: %w", s.path, err)
	}
	return &state, nil
}

// Save trims the reconciled set to the cap (dropping the oldest entries
// first) and writes the document atomically.
//
// Returns how many identifiers were trimmed.
func (s *Store) Save(state *State) (int, error) {
	trimmed := 0
	if len(state.ReconciledIDs) > s.cap {
		trimmed = len(state.ReconciledIDs) - s.cap
		state.ReconciledIDs = append([]int64(nil), state.ReconciledIDs[trimmed:]...)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("run state: encode: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("run state: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("run state: write %s: %w", s.path, err)
	}
	tmpPath := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("run state: write %s: %w", s.path, writeErr)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("run state: write %s: %w", s.path, err)
	}

	return trimmed, nil
}
