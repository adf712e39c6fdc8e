package export

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"energy_profile/internal/aggregate"
	"energy_profile/internal/model"
)

const (
	readingsSheet = "consumption"
	dailySheet    = "daily"
)

// BuildXLSX renders the readings and their daily totals as a workbook.
func BuildXLSX(n *model.NarrowTable) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", readingsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(dailySheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(readingsSheet, "A1", Header[0])
	_ = f.SetCellValue(readingsSheet, "B1", Header[1])
	for i, r := range n.Rows {
		row := i + 2
		_ = f.SetCellValue(readingsSheet, fmt.Sprintf("A%d", row), r.Timestamp.Format(TimestampLayout))
		if !math.IsNaN(r.Value) {
			_ = f.SetCellValue(readingsSheet, fmt.Sprintf("B%d", row), r.Value)
		}
	}

	_ = f.SetCellValue(dailySheet, "A1", "day")
	_ = f.SetCellValue(dailySheet, "B1", "consumption")
	for i, d := range aggregate.ResampleDaily(n) {
		row := i + 2
		_ = f.SetCellValue(dailySheet, fmt.Sprintf("A%d", row), d.Timestamp.Format("2006-01-02"))
		_ = f.SetCellValue(dailySheet, fmt.Sprintf("B%d", row), d.Value)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteXLSXFile writes BuildXLSX output to path.
func WriteXLSXFile(path string, n *model.NarrowTable) error {
	data, err := BuildXLSX(n)
	if err != nil {
		return fmt.Errorf("building workbook: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
