package exchange

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func makeUnit(t *testing.T, dir, id string) WorkUnit {
	t.Helper()
	return WorkUnit{
		ShipmentID: id,
		HeaderPath: touch(t, dir, "HeaderIn_"+id+"_x.xml"),
		DetailPath: touch(t, dir, "DetailIn_"+id+"_x.xml"),
	}
}

func TestMoveToProcessed(t *testing.T) {
	inbox := t.TempDir()
	processed := filepath.Join(t.TempDir(), "processed")
	unit := makeUnit(t, inbox, "SHIP0000000001")

	if err := MoveToProcessed(unit, processed); err != nil {
		t.Fatalf("MoveToProcessed: %v", err)
	}

	if _, err := os.Stat(unit.HeaderPath); !os.IsNotExist(err) {
		t.Error("header still in inbox")
	}
	if _, err := os.Stat(filepath.Join(processed, "HeaderIn_SHIP0000000001_x.xml")); err != nil {
		t.Errorf("header not in processed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(processed, "DetailIn_SHIP0000000001_x.xml")); err != nil {
		t.Errorf("detail not in processed: %v", err)
	}
}

func TestMoveToErrorWritesReason(t *testing.T) {
	inbox := t.TempDir()
	errDir := filepath.Join(t.TempDir(), "error")
	unit := makeUnit(t, inbox, "SHIP0000000002")

	if err := MoveToError(unit, errDir, "identifier mismatch"); err != nil {
		t.Fatalf("MoveToError: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(errDir, "SHIP0000000002.error.txt"))
	if err != nil {
		t.Fatalf("reason file: %v", err)
	}
	body := string(data)
	if !strings.Contains(body, "ShipmentID: SHIP0000000002") {
		t.Errorf("reason body missing shipment id: %q", body)
	}
	if !strings.Contains(body, "Error: identifier mismatch") {
		t.Errorf("reason body missing error: %q", body)
	}
}

func TestMoveCollisionGetsSuffix(t *testing.T) {
	inbox := t.TempDir()
	processed := t.TempDir()
	touch(t, processed, "HeaderIn_SHIP0000000003_x.xml")
	touch(t, processed, "DetailIn_SHIP0000000003_x.xml")
	unit := makeUnit(t, inbox, "SHIP0000000003")

	if err := MoveToProcessed(unit, processed); err != nil {
		t.Fatalf("MoveToProcessed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(processed, "HeaderIn_SHIP0000000003_x_1.xml")); err != nil {
		t.Errorf("expected suffixed copy: %v", err)
	}
}
