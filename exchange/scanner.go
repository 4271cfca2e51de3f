// Package exchange implements the file-based side of the shipment exchange
// folder: pairing raw intake files into work units and relocating them as
// the only side effect of a state transition.
//
// The exchange folder is single-writer. Concurrent runs against the same
// folder must be serialized externally.
package exchange

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

// Filename patterns for the two halves of a work unit. The identifier is an
// alphabetic prefix followed by digits (e.g. SHIP0000447526, TEST0000000001).
//
//	HeaderIn_SHIP0000447526_20260213-063014.xml
//	DetailIn_SHIP0000447526_20260213-063014.xml
var (
	headerPattern = regexp.MustCompile(`(?i)^HeaderIn_([A-Za-z]+\d+)_.*\.xml$`)
	detailPattern = regexp.MustCompile(`(?i)^DetailIn_([A-Za-z]+\d+)_.*\.xml$`)
)

// WorkUnit is one matched header+detail file pair for a single shipment.
// It is consumed and relocated at most once per run, never mutated in place.
type WorkUnit struct {
	ShipmentID string
	HeaderPath string
	DetailPath string
}

// Role distinguishes the two halves of a work unit.
type Role string

const (
	RoleHeader Role = "header"
	RoleDetail Role = "detail"
)

// Orphan is a header or detail file with no counterpart. Orphans are never
// relocated; they stay visible in the inbox until resolved and are reported
// again on every scan.
type Orphan struct {
	ShipmentID string
	Path       string
	Role       Role
}

// ScanResult holds the outcome of one inbox scan.
type ScanResult struct {
	Units   []WorkUnit
	Orphans []Orphan
}

// Scan pairs the files found directly in dir (non-recursive) by shipment
// identifier. Units and orphans are sorted by identifier so output is
// reproducible.
func Scan(dir string) (*ScanResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan inbox %s: %w", dir, err)
	}

	headers := make(map[string]string)
	details := make(map[string]string)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(dir, name)

		if m := headerPattern.FindStringSubmatch(name); m != nil {
			headers[m[1]] = path
			continue
		}
		if m := detailPattern.FindStringSubmatch(name); m != nil {
			details[m[1]] = path
		}
	}

	ids := make(map[string]struct{}, len(headers)+len(details))
	for id := range headers {
		ids[id] = struct{}{}
	}
	for id := range details {
		ids[id] = struct{}{}
	}

	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	result := &ScanResult{}
	for _, id := range sorted {
		headerPath, hasHeader := headers[id]
		detailPath, hasDetail := details[id]
		switch {
		case hasHeader && hasDetail:
			result.Units = append(result.Units, WorkUnit{
				ShipmentID: id,
				HeaderPath: headerPath,
				DetailPath: detailPath,
			})
		case hasHeader:
			result.Orphans = append(result.Orphans, Orphan{ShipmentID: id, Path: headerPath, Role: RoleHeader})
		default:
			result.Orphans = append(result.Orphans, Orphan{ShipmentID: id, Path: detailPath, Role: RoleDetail})
		}
	}

	return result, nil
}
