package aggregate

import (
	"math"

	"energy_profile/internal/model"
)

// HourlyProfile holds the average consumption shape over a day.
type HourlyProfile struct {
	// Mean holds the average value for readings starting in each hour [0-23].
	Mean [24]float64
	// Count is the number of readings that contributed to each hour.
	Count [24]int
	// Factor is Mean normalized so the peak hour is 1.0.
	Factor [24]float64
	// PeakHour is the hour with the highest average.
	PeakHour int
}

// BuildHourlyProfile averages readings by hour of day. NaN readings are skipped.
func BuildHourlyProfile(readings []model.Reading) HourlyProfile {
	var sum [24]float64
	var p HourlyProfile

	for _, r := range readings {
		if math.IsNaN(r.Value) {
			continue
		}
		h := r.Timestamp.Hour()
		sum[h] += r.Value
		p.Count[h]++
	}

	var peak float64
	for h := 0; h < 24; h++ {
		if p.Count[h] == 0 {
			continue
		}
		p.Mean[h] = sum[h] / float64(p.Count[h])
		if p.Mean[h] > peak {
			peak = p.Mean[h]
			p.PeakHour = h
		}
	}

	if peak > 0 {
		for h := 0; h < 24; h++ {
			p.Factor[h] = p.Mean[h] / peak
		}
	}
	return p
}

// Hours returns the hours that have at least one reading.
func (p HourlyProfile) Hours() []int {
	var hours []int
	for h, c := range p.Count {
		if c > 0 {
			hours = append(hours, h)
		}
	}
	return hours
}
