package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"energy_profile/internal/model"
)

// SchemaMode controls how LoadDir reacts to files whose headers differ.
type SchemaMode string

const (
	// SchemaLenient unions the headers in order of first appearance and
	// fills buckets a file does not have with NaN.
	SchemaLenient SchemaMode = "lenient"
	// SchemaStrict rejects any file whose header differs from the first one.
	SchemaStrict SchemaMode = "strict"
)

// IsValid reports whether m is a recognised schema mode.
func (m SchemaMode) IsValid() bool {
	return m == SchemaLenient || m == SchemaStrict
}

// LoadOptions configures LoadDir. The zero value loads meter exports leniently.
type LoadOptions struct {
	Schema SchemaMode
	// Parser overrides the meter export parser.
	Parser Parser
	Logger *slog.Logger
}

// LoadDir reads every *.csv file directly inside dir and concatenates them
// into one wide table, in file-name order, without deduplicating rows.
//
// A missing directory or one without CSV files yields an error matching
// model.ErrNoData; callers must check for it before reshaping.
func LoadDir(dir string, opts LoadOptions) (*model.WideTable, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	parser := opts.Parser
	if parser == nil {
		parser = NewMeterExportParser()
	}
	mode := opts.Schema
	if mode == "" {
		mode = SchemaLenient
	}

	paths, err := csvFiles(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("input folder not found", "dir", dir)
			return nil, model.Wrap(model.KindNotFound, err, "folder %q", dir)
		}
		return nil, fmt.Errorf("reading input directory: %w", err)
	}
	if len(paths) == 0 {
		logger.Warn("no CSV files in input folder", "dir", dir)
		return nil, model.Errorf(model.KindNoInputData, "no .csv files in folder %q", dir)
	}

	var merged *model.WideTable
	for _, path := range paths {
		logger.Debug("loading meter export", "path", path)

		table, err := parseFile(path, parser)
		if err != nil {
			return nil, err
		}
		logger.Debug("loaded meter export", "path", path, "rows", len(table.Rows), "buckets", len(table.Buckets))

		if merged == nil {
			merged = table
			continue
		}
		if err := appendTable(merged, table, mode, path, logger); err != nil {
			return nil, err
		}
	}

	return merged, nil
}

// csvFiles lists regular *.csv files in dir, sorted by name.
func csvFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}

func parseFile(path string, parser Parser) (*model.WideTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	table, err := parser.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return table, nil
}

// appendTable concatenates next onto dst according to mode.
func appendTable(dst, next *model.WideTable, mode SchemaMode, path string, logger *slog.Logger) error {
	sameSchema := dst.KeyColumn == next.KeyColumn && slices.Equal(dst.Buckets, next.Buckets)
	if sameSchema {
		dst.Rows = append(dst.Rows, next.Rows...)
		return nil
	}

	if mode == SchemaStrict {
		return model.Errorf(model.KindSchemaMismatch,
			"%s: header [%s;%s] differs from [%s;%s]",
			path, next.KeyColumn, strings.Join(next.Buckets, ";"),
			dst.KeyColumn, strings.Join(dst.Buckets, ";"))
	}

	if dst.KeyColumn != next.KeyColumn {
		logger.Warn("key column name differs, using first column as key",
			"path", path, "want", dst.KeyColumn, "got", next.KeyColumn)
	}

	// Union the buckets, then remap every row onto the union.
	pos := make(map[string]int, len(dst.Buckets))
	for i, b := range dst.Buckets {
		pos[b] = i
	}
	added := 0
	for _, b := range next.Buckets {
		if _, ok := pos[b]; !ok {
			pos[b] = len(dst.Buckets)
			dst.Buckets = append(dst.Buckets, b)
			added++
		}
	}
	logger.Warn("header differs from previous files, padding missing buckets with NaN",
		"path", path, "new_buckets", added)

	if added > 0 {
		for i := range dst.Rows {
			dst.Rows[i].Values = padNaN(dst.Rows[i].Values, len(dst.Buckets))
		}
	}

	for _, row := range next.Rows {
		values := padNaN(nil, len(dst.Buckets))
		for i, b := range next.Buckets {
			values[pos[b]] = row.Values[i]
		}
		dst.Rows = append(dst.Rows, model.WideRow{Key: row.Key, Values: values})
	}
	return nil
}

func padNaN(values []float64, n int) []float64 {
	for len(values) < n {
		values = append(values, math.NaN())
	}
	return values
}
