package exchange

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// MoveToProcessed relocates both files of a unit to the processed area.
func MoveToProcessed(unit WorkUnit, processedDir string) error {
	if err := moveFile(unit.HeaderPath, processedDir); err != nil {
		return fmt.Errorf("%s: %w", unit.ShipmentID, err)
	}
	if err := moveFile(unit.DetailPath, processedDir); err != nil {
		return fmt.Errorf("%s: %w", unit.ShipmentID, err)
	}
	return nil
}

// MoveToError relocates both files of a unit to the error area and writes a
// companion <id>.error.txt with the human-readable failure reason.
func MoveToError(unit WorkUnit, errorDir, reason string) error {
	if err := moveFile(unit.HeaderPath, errorDir); err != nil {
		return fmt.Errorf("%s: %w", unit.ShipmentID, err)
	}
	if err := moveFile(unit.DetailPath, errorDir); err != nil {
		return fmt.Errorf("%s: %w", unit.ShipmentID, err)
	}

	reasonPath := filepath.Join(errorDir, unit.ShipmentID+".error.txt")
	body := fmt.Sprintf("ShipmentID: %s\nError: %s\n", unit.ShipmentID, reason)
	if err := os.WriteFile(reasonPath, []byte(body), 0o644); err != nil {
		return fmt.Errorf("%s: write error reason: %w", unit.ShipmentID, err)
	}
	return nil
}

// moveFile moves src into destDir, creating the directory if needed.
// Name collisions get a numeric suffix rather than overwriting.
func moveFile(src, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", destDir, err)
	}

	name := filepath.Base(src)
	dest := filepath.Join(destDir, name)

	ext := filepath.Ext(name)
	base := name[:len(name)-len(ext)]
	for counter := 1; ; counter++ {
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			break
		}
		dest = filepath.Join(destDir, fmt.Sprintf("%s_%d%s", base, counter, ext))
	}

	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	// Rename fails across filesystems; fall back to copy-then-remove.
	return copyAndRemove(src, dest)
}

func copyAndRemove(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("move %s: %w", src, err)
	}
	out, err := os.Create(dest)
	if err != nil {
		_ = in.Close()
		return fmt.Errorf("move %s: %w", src, err)
	}
	_, copyErr := io.Copy(out, in)
	_ = in.Close()
	if closeErr := out.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		return fmt.Errorf("move %s: %w", src, copyErr)
	}
	return os.Remove(src)
}
