// Package balance offsets metered consumption with simulated PV production.
package balance

import (
	"math"
	"time"

	"energy_profile/internal/model"
	"energy_profile/internal/pvgis"
	"energy_profile/internal/store"
)

const consumptionSeries = "consumption"

// NetReading is one consumption bucket with the PV energy produced in it.
type NetReading struct {
	Start       time.Time
	End         time.Time
	Consumption float64
	PVKWh       float64
	Net         float64
}

type hourKey struct {
	month time.Month
	day   int
	hour  int
}

// NetLoad matches PV energy to each consumption bucket. A bucket runs from
// its timestamp to the next distinct timestamp, and never past midnight.
// PV records match on month, day and hour only, so a typical-year series can
// be applied to any consumption year.
func NetLoad(consumption *model.NarrowTable, pv []pvgis.HourlyRecord) []NetReading {
	if consumption == nil || len(consumption.Rows) == 0 {
		return nil
	}

	pvByHour := make(map[hourKey]float64, len(pv))
	for _, r := range pv {
		pvByHour[keyOf(r.Time)] += r.PowerW / 1000
	}

	s := store.New()
	s.Add(consumptionSeries, consumption.Rows)

	readings := s.All(consumptionSeries)
	out := make([]NetReading, 0, len(readings))
	for _, r := range readings {
		end := nextMidnight(r.Timestamp)
		if next, ok := s.After(consumptionSeries, r.Timestamp); ok && next.Timestamp.Before(end) {
			end = next.Timestamp
		}

		var produced float64
		for h := r.Timestamp.Truncate(time.Hour); h.Before(end); h = h.Add(time.Hour) {
			produced += pvByHour[keyOf(h)]
		}

		out = append(out, NetReading{
			Start:       r.Timestamp,
			End:         end,
			Consumption: r.Value,
			PVKWh:       produced,
			Net:         r.Value - produced,
		})
	}
	return out
}

func keyOf(t time.Time) hourKey {
	return hourKey{month: t.Month(), day: t.Day(), hour: t.Hour()}
}

func nextMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}

// Totals sums consumption, PV and net over the readings. NaN consumption
// buckets are left out of every total.
func Totals(readings []NetReading) (consumption, pv, net float64) {
	for _, r := range readings {
		if math.IsNaN(r.Consumption) {
			continue
		}
		consumption += r.Consumption
		pv += r.PVKWh
		net += r.Net
	}
	return consumption, pv, net
}
