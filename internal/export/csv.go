// Package export writes reshaped consumption series to disk.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"energy_profile/internal/aggregate"
	"energy_profile/internal/model"
)

const (
	// DefaultPath is where prepared consumption is written when no path is given.
	DefaultPath = "data/output.csv"
	// TimestampLayout is the timestamp format of exported rows.
	TimestampLayout = "2006-01-02 15:04:05"
)

// Header is the column header of the output CSV.
var Header = []string{"timestamp", "consumption"}

// WriteCSV writes n as comma-separated timestamp,consumption rows.
// NaN values become empty cells.
func WriteCSV(w io.Writer, n *model.NarrowTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range n.Rows {
		if err := cw.Write([]string{r.Timestamp.Format(TimestampLayout), formatValue(r.Value)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile creates or truncates path, creating parent directories.
func WriteCSVFile(path string, n *model.NarrowTable) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, n); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func formatValue(v float64) string {
	return aggregate.FormatFloat(v)
}
