package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/verte-zerg/vezaxff/internal/model"
)

var csvHeader = []string{
	"Player",
	"Number of Debuffs",
	"Friendly Fire Dealt (pre-mitigation)",
	"Vezax Healed (pre-reductions)",
}

// WriteCSV writes one row per player after the fixed header.
func WriteCSV(w io.Writer, rows []model.PlayerTotal) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.Name,
			strconv.Itoa(r.DebuffCount),
			strconv.FormatInt(r.TotalDamage, 10),
			strconv.FormatInt(r.Healed, 10),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile replaces path with the CSV report.
func WriteCSVFile(path string, rows []model.PlayerTotal) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".vezaxff-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp csv: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if err := WriteCSV(tmpFile, rows); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close csv: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("failed to chmod csv: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
