// Package table reads arbitrary delimited files into a column/row grid for
// the generic CSV tools.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
)

// Options configures Read. Zero fields fall back to ',' and '.'.
type Options struct {
	Delimiter rune
	Decimal   rune
}

func (o Options) withDefaults() Options {
	if o.Delimiter == 0 {
		o.Delimiter = ','
	}
	if o.Decimal == 0 {
		o.Decimal = '.'
	}
	return o
}

// Table is a parsed delimited file. Every row has len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]string

	decimal rune
}

var ErrEmpty = errors.New("file has no header row")

// Read parses r. Short rows are padded with empty cells; long rows are an error.
func Read(r io.Reader, opts Options) (*Table, error) {
	opts = opts.withDefaults()

	cr := csv.NewReader(r)
	cr.Comma = opts.Delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	t := &Table{Columns: header, decimal: opts.Decimal}
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("reading CSV line %d: %w", line, err)
		}
		if len(record) > len(header) {
			return nil, fmt.Errorf("line %d: expected %d fields, got %d", line, len(header), len(record))
		}
		for len(record) < len(header) {
			record = append(record, "")
		}
		t.Rows = append(t.Rows, record)
	}
	return t, nil
}

// ReadFile opens path and calls Read.
func ReadFile(path string, opts Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, opts)
}

// Index returns the position of the named column or -1.
func (t *Table) Index(column string) int {
	return slices.Index(t.Columns, column)
}

// Shape returns (rows, columns).
func (t *Table) Shape() (int, int) {
	return len(t.Rows), len(t.Columns)
}

// Number parses a cell as a float using the table's decimal separator.
// Empty cells are NaN.
func (t *Table) Number(row, col int) (float64, error) {
	cell := strings.TrimSpace(t.Rows[row][col])
	if cell == "" {
		return math.NaN(), nil
	}
	if t.decimal != 0 && t.decimal != '.' {
		cell = strings.ReplaceAll(cell, string(t.decimal), ".")
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, fmt.Errorf("row %d, column %q: %w", row+1, t.Columns[col], err)
	}
	return v, nil
}

// Head returns up to n leading rows.
func (t *Table) Head(n int) [][]string {
	return t.Rows[:min(n, len(t.Rows))]
}

// Tail returns up to n trailing rows.
func (t *Table) Tail(n int) [][]string {
	return t.Rows[len(t.Rows)-min(n, len(t.Rows)):]
}
