package model

import (
	"math"
	"time"
)

// WideRow is one day of a meter export: the key column value and one
// consumption value per bucket. Missing cells are NaN.
type WideRow struct {
	Key    string
	Values []float64
}

// WideTable is the concatenation of one or more meter exports. It has one row
// per (file, date) pair and one value column per time-of-day bucket.
type WideTable struct {
	// KeyColumn is the header of the first column (usually a date).
	KeyColumn string
	// Buckets holds the remaining header labels in column order.
	Buckets []string
	Rows    []WideRow
}

// Cells returns the number of value cells in the table.
func (w *WideTable) Cells() int {
	return len(w.Rows) * len(w.Buckets)
}

// Reading is a single (timestamp, value) observation.
type Reading struct {
	Timestamp time.Time
	Value     float64
}

// NarrowTable is the long form of a WideTable, sorted by timestamp.
type NarrowTable struct {
	Rows []Reading
}

func (n *NarrowTable) Len() int {
	return len(n.Rows)
}

// TimeRange returns the first and last timestamps of the table.
func (n *NarrowTable) TimeRange() (TimeRange, bool) {
	if len(n.Rows) == 0 {
		return TimeRange{}, false
	}
	return TimeRange{Start: n.Rows[0].Timestamp, End: n.Rows[len(n.Rows)-1].Timestamp}, true
}

// Total sums all non-NaN values.
func (n *NarrowTable) Total() float64 {
	var sum float64
	for _, r := range n.Rows {
		if !math.IsNaN(r.Value) {
			sum += r.Value
		}
	}
	return sum
}

type TimeRange struct {
	Start time.Time
	End   time.Time
}
