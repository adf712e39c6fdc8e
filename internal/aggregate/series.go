package aggregate

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"energy_profile/internal/model"
)

// ResampleDaily sums readings per calendar day, from the first to the last
// day inclusive. Days without readings get 0.
func ResampleDaily(n *model.NarrowTable) []model.Reading {
	if n == nil || len(n.Rows) == 0 {
		return nil
	}

	first := truncateDay(n.Rows[0].Timestamp)
	last := first
	sums := make(map[time.Time]float64)
	for _, r := range n.Rows {
		day := truncateDay(r.Timestamp)
		if day.Before(first) {
			first = day
		}
		if day.After(last) {
			last = day
		}
		if !math.IsNaN(r.Value) {
			sums[day] += r.Value
		}
	}

	var out []model.Reading
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		out = append(out, model.Reading{Timestamp: day, Value: sums[day]})
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Stats describes the distribution of a series.
type Stats struct {
	N    int
	Mean float64
	// Std is the population standard deviation.
	Std float64
	Min float64
	Max float64
}

// Describe computes Stats over the non-NaN values.
func Describe(values []float64) Stats {
	var x []float64
	for _, v := range values {
		if !math.IsNaN(v) {
			x = append(x, v)
		}
	}
	if len(x) == 0 {
		nan := math.NaN()
		return Stats{Mean: nan, Std: nan, Min: nan, Max: nan}
	}

	mean, std := stat.PopMeanStdDev(x, nil)
	s := Stats{N: len(x), Mean: mean, Std: std, Min: x[0], Max: x[0]}
	for _, v := range x[1:] {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	return s
}

// Values extracts the value of each reading.
func Values(readings []model.Reading) []float64 {
	out := make([]float64, len(readings))
	for i, r := range readings {
		out[i] = r.Value
	}
	return out
}
