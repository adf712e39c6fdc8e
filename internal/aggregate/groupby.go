// Package aggregate summarises tables and consumption series.
package aggregate

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"energy_profile/internal/table"
)

// Func names an aggregation applied to each group.
type Func string

const (
	Sum    Func = "sum"
	Mean   Func = "mean"
	Median Func = "median"
	Min    Func = "min"
	Max    Func = "max"
	Count  Func = "count"
	Std    Func = "std"
	Var    Func = "var"
	First  Func = "first"
	Last   Func = "last"
)

// Funcs lists the supported aggregation names.
var Funcs = []Func{Sum, Mean, Median, Min, Max, Count, Std, Var, First, Last}

// ParseFunc validates a user-supplied function name.
func ParseFunc(name string) (Func, error) {
	fn := Func(strings.ToLower(strings.TrimSpace(name)))
	if !slices.Contains(Funcs, fn) {
		return "", fmt.Errorf("unknown aggregation function %q", name)
	}
	return fn, nil
}

// Apply reduces values with fn. NaN values are ignored; an all-NaN input
// gives NaN for every function except count and sum, which give 0.
func Apply(fn Func, values []float64) float64 {
	x := lo.Filter(values, func(v float64, _ int) bool { return !math.IsNaN(v) })

	switch fn {
	case Sum:
		return lo.Sum(x)
	case Count:
		return float64(len(x))
	}
	if len(x) == 0 {
		return math.NaN()
	}

	switch fn {
	case Mean:
		return stat.Mean(x, nil)
	case Median:
		return median(x)
	case Min:
		return lo.Min(x)
	case Max:
		return lo.Max(x)
	case Std:
		if len(x) < 2 {
			return math.NaN()
		}
		return stat.StdDev(x, nil)
	case Var:
		if len(x) < 2 {
			return math.NaN()
		}
		return stat.Variance(x, nil)
	case First:
		return x[0]
	case Last:
		return x[len(x)-1]
	}
	return math.NaN()
}

// median interpolates between the two middle values for even lengths.
func median(x []float64) float64 {
	s := slices.Clone(x)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

type group struct {
	key    []string
	values []float64
}

// GroupBy groups t by the named columns and reduces valueColumn with fn.
// The result has the group columns followed by valueColumn, one row per
// distinct key, sorted ascending. Rows with an empty key cell are dropped.
func GroupBy(t *table.Table, groupBy []string, valueColumn string, fn Func) (*table.Table, error) {
	if len(groupBy) == 0 {
		return nil, fmt.Errorf("no group-by columns given")
	}
	keyIdx := make([]int, len(groupBy))
	for i, name := range groupBy {
		keyIdx[i] = t.Index(name)
		if keyIdx[i] < 0 {
			return nil, fmt.Errorf("column %q not found", name)
		}
	}
	valIdx := t.Index(valueColumn)
	if valIdx < 0 {
		return nil, fmt.Errorf("column %q not found", valueColumn)
	}

	groups := make(map[string]*group)
	for r, row := range t.Rows {
		key := lo.Map(keyIdx, func(i int, _ int) string { return strings.TrimSpace(row[i]) })
		if slices.Contains(key, "") {
			continue
		}
		v, err := t.Number(r, valIdx)
		if err != nil {
			return nil, err
		}

		id := strings.Join(key, "\x00")
		g, ok := groups[id]
		if !ok {
			g = &group{key: key}
			groups[id] = g
		}
		g.values = append(g.values, v)
	}

	sorted := lo.Values(groups)
	sort.Slice(sorted, func(i, j int) bool {
		return compareKeys(sorted[i].key, sorted[j].key) < 0
	})

	out := &table.Table{Columns: append(slices.Clone(groupBy), valueColumn)}
	for _, g := range sorted {
		v := Apply(fn, g.values)
		cell := FormatFloat(v)
		if fn == Count {
			cell = strconv.Itoa(int(v))
		}
		row := append(slices.Clone(g.key), cell)
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// compareKeys orders numerically where both components are numbers.
func compareKeys(a, b []string) int {
	for i := range a {
		fa, errA := strconv.ParseFloat(a[i], 64)
		fb, errB := strconv.ParseFloat(b[i], 64)
		if errA == nil && errB == nil {
			if fa != fb {
				if fa < fb {
					return -1
				}
				return 1
			}
			continue
		}
		if c := strings.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

// FormatFloat renders v the way CSV float columns are written elsewhere in
// the toolchain: shortest round-trip digits, a trailing ".0" on whole
// numbers, and exponent form with a two-digit exponent below 1e-4 or from
// 1e16 up. NaN becomes an empty string.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return ""
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	e := strconv.FormatFloat(v, 'e', -1, 64)
	exp, err := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
	if err == nil && (exp < -4 || exp >= 16) {
		return e
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
