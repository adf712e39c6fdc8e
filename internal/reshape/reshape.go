// Package reshape turns wide meter tables (one row per day, one column per
// time-of-day bucket) into narrow time series.
package reshape

import (
	"log/slog"
	"math"
	"regexp"
	"sort"
	"time"

	"energy_profile/internal/model"
)

// TimestampLayout is the DD/MM/YYYY HH:MM layout of a combined key and bucket
// start. Day, month and hour accept one or two digits.
const TimestampLayout = "2/1/2006 15:04"

var startTimePattern = regexp.MustCompile(`^(\d{1,2}:\d{2})`)

// StartTime returns the leading H:MM or HH:MM of a bucket label, e.g.
// "00:00-06:00" -> "00:00". Labels without that prefix are returned unchanged.
// The value is not range-checked.
func StartTime(label string) string {
	if m := startTimePattern.FindStringSubmatch(label); m != nil {
		return m[1]
	}
	return label
}

// Options configures ReshapeWith.
type Options struct {
	// SkipMalformed drops rows whose timestamp cannot be parsed instead of
	// failing the whole reshape.
	SkipMalformed bool
	Logger        *slog.Logger
}

// Reshape unpivots w into a narrow table sorted by timestamp. Any row whose
// key and bucket start do not form a valid timestamp aborts the reshape.
func Reshape(w *model.WideTable) (*model.NarrowTable, error) {
	return ReshapeWith(w, Options{})
}

// ReshapeWith is Reshape with options.
func ReshapeWith(w *model.WideTable, opts Options) (*model.NarrowTable, error) {
	starts := make([]string, len(w.Buckets))
	for i, label := range w.Buckets {
		starts[i] = StartTime(label)
	}

	out := &model.NarrowTable{Rows: make([]model.Reading, 0, w.Cells())}

	// Column-major, like a dataframe melt: every row of bucket 0, then bucket 1...
	for col := range w.Buckets {
		for rowIdx, row := range w.Rows {
			ts, err := time.Parse(TimestampLayout, row.Key+" "+starts[col])
			if err != nil {
				if opts.SkipMalformed {
					logger(opts).Warn("skipping row with malformed timestamp",
						"row", rowIdx, "key", row.Key, "bucket", w.Buckets[col], "err", err)
					continue
				}
				return nil, model.Wrap(model.KindMalformedTimestamp, err,
					"row %d: key %q, bucket %q", rowIdx, row.Key, w.Buckets[col])
			}
			value := math.NaN()
			if col < len(row.Values) {
				value = row.Values[col]
			}
			out.Rows = append(out.Rows, model.Reading{Timestamp: ts, Value: value})
		}
	}

	sort.SliceStable(out.Rows, func(i, j int) bool {
		return out.Rows[i].Timestamp.Before(out.Rows[j].Timestamp)
	})

	return out, nil
}

func logger(opts Options) *slog.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return slog.Default()
}
