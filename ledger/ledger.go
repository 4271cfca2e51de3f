// Package ledger is the durable bridge between the outbound and inbound
// pipelines: one pending record per shipment, created right after a
// successful remote create/update and consumed when the matching
// confirmation arrives. The ledger has no other writer.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelorus-io/shipbridge/types"
)

// Entry is everything the confirmation generator needs later: the ship-to
// snapshot, the original package records, the carrier-selection inputs,
// which remote account holds the order, and the optional enrichment lines.
type Entry struct {
	ShipmentID   string                `json:"shipment_id"`
	OrderNumber  string                `json:"order_number"`
	CustomerCode string                `json:"customer_code"`
	ShipTo       types.ShipTo          `json:"ship_to"`
	ShipVia      string                `json:"ship_via"`
	IsCOD        string                `json:"is_cod"`
	CollType     string                `json:"coll_type"`
	Packages     []types.PackageDetail `json:"packages"`
	Items        []types.LineItem      `json:"items"`
	Account      string                `json:"account"`
	CreatedAt    time.Time             `json:"created_at"`
}

// Ledger stores entries as one JSON document per shipment identifier.
type Ledger struct {
	dir string
}

// New creates a ledger rooted at dir. The directory is created on first Put.
func New(dir string) *Ledger {
	return &Ledger{dir: dir}
}

// Put durably persists an entry, overwriting any existing entry with the
// same shipment identifier, so at most one live entry per shipment. The write
// is atomic: a concurrent reader sees the old document or the new one,
// never a torn value.
func (l *Ledger) Put(entry *Entry) error {
	if entry.ShipmentID == "" {
		return errors.New("ledger: entry has no shipment identifier")
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("ledger: create %s: %w", l.dir, err)
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("ledger: encode %s: %w", entry.ShipmentID, err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(l.dir, entry.ShipmentID+".*.tmp")
	if err != nil {
		return fmt.Errorf("ledger: write %s: %w", entry.ShipmentID, err)
	}
	tmpPath := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("ledger: write %s: %w", entry.ShipmentID, writeErr)
	}

	if err := os.Rename(tmpPath, l.path(entry.ShipmentID)); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("ledger: write %s: %w", entry.ShipmentID, err)
	}
	return nil
}

// Get returns the entry for a shipment identifier, or nil if absent.
// Absence is not an error.
func (l *Ledger) Get(shipmentID string) (*Entry, error) {
	data, err := os.ReadFile(l.path(shipmentID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: read %s: %w", shipmentID, err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("ledger: decode %s: %w", shipmentID, err)
	}
	return &entry, nil
}

// Delete removes an entry. Deleting an absent key is a no-op.
func (l *Ledger) Delete(shipmentID string) error {
	err := os.Remove(l.path(shipmentID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ledger: delete %s: %w", shipmentID, err)
	}
	return nil
}

// Record describes one stored entry for the stale-record audit. Age is
// computed from the entry's own creation timestamp; unreadable documents
// fall back to the file's modification time.
type Record struct {
	ShipmentID  string
	OrderNumber string
	CreatedAt   time.Time
	// FromFileTime marks records whose CreatedAt came from the file
	// modification time rather than the document itself.
	FromFileTime bool
	Path         string
}

// List returns all stored entries sorted by shipment identifier.
// A missing ledger directory yields an empty list.
func (l *Ledger) List() ([]Record, error) {
	entries, err := os.ReadDir(l.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: list %s: %w", l.dir, err)
	}

	var records []Record
	for _, dirEntry := range entries {
		name := dirEntry.Name()
		if dirEntry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		path := filepath.Join(l.dir, name)
		record := Record{
			ShipmentID:  strings.TrimSuffix(name, ".json"),
			OrderNumber: "?",
			Path:        path,
		}

		if entry, err := l.Get(record.ShipmentID); err == nil && entry != nil && !entry.CreatedAt.IsZero() {
			record.OrderNumber = entry.OrderNumber
			record.CreatedAt = entry.CreatedAt
		} else if info, statErr := dirEntry.Info(); statErr == nil {
			record.CreatedAt = info.ModTime()
			record.FromFileTime = true
		}

		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].ShipmentID < records[j].ShipmentID })
	return records, nil
}

func (l *Ledger) path(shipmentID string) string {
	return filepath.Join(l.dir, shipmentID+".json")
}
