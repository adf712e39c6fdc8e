package pvgis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TimeLayout is the format of outputs.hourly[].time.
const TimeLayout = "20060102:1504"

// Response is the subset of the seriescalc JSON the tools use.
type Response struct {
	Inputs struct {
		Location Location `json:"location"`
	} `json:"inputs"`
	Outputs struct {
		Hourly []HourlyRaw `json:"hourly"`
	} `json:"outputs"`

	// Raw is the undecoded body.
	Raw json.RawMessage `json:"-"`
	// Year is the simulated year that was requested.
	Year int `json:"-"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation"`
}

// HourlyRaw is one hourly record as sent by PVGIS.
type HourlyRaw struct {
	Time string `json:"time"`
	// P is the PV power in W.
	P          float64 `json:"P"`
	Irradiance float64 `json:"G(i)"`
	SunHeight  float64 `json:"H_sun"`
	T2m        float64 `json:"T2m"`
	WS10m      float64 `json:"WS10m"`
	Int        float64 `json:"Int"`
}

// HourlyRecord is an hourly record with a parsed UTC timestamp.
type HourlyRecord struct {
	Time       time.Time
	PowerW     float64
	Irradiance float64
	TempC      float64
}

// Hourly parses the time of every record.
func (r *Response) Hourly() ([]HourlyRecord, error) {
	out := make([]HourlyRecord, 0, len(r.Outputs.Hourly))
	for i, h := range r.Outputs.Hourly {
		ts, err := time.Parse(TimeLayout, h.Time)
		if err != nil {
			return nil, fmt.Errorf("hourly record %d: %w", i, err)
		}
		out = append(out, HourlyRecord{Time: ts, PowerW: h.P, Irradiance: h.Irradiance, TempC: h.T2m})
	}
	return out, nil
}

// SaveRaw writes the response body as indented JSON.
func (r *Response) SaveRaw(path string) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, r.Raw, "", "  "); err != nil {
		return fmt.Errorf("formatting PVGIS response: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Summary condenses an hourly series.
type Summary struct {
	Hours     int
	AnnualKWh float64
	PeakW     float64
	PeakTime  time.Time
	// MonthlyKWh is indexed by month-1.
	MonthlyKWh [12]float64
}

// Summarize integrates hourly power into energy. Each record covers one hour.
func Summarize(records []HourlyRecord) Summary {
	var s Summary
	s.Hours = len(records)
	for _, r := range records {
		kwh := r.PowerW / 1000
		s.AnnualKWh += kwh
		s.MonthlyKWh[r.Time.Month()-1] += kwh
		if r.PowerW > s.PeakW {
			s.PeakW = r.PowerW
			s.PeakTime = r.Time
		}
	}
	return s
}
