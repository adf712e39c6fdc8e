package tools

import (
	"context"
	"fmt"
	"math"
	"time"

	"energy_profile/internal/llm"
	"energy_profile/internal/pvgis"
)

type pvArgs struct {
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Efficiency   float64  `json:"efficiency"`
	Azimuth      float64  `json:"azimuth"`
	Tilt         float64  `json:"tilt"`
	Slope        float64  `json:"slope"`
	ModulePower  *float64 `json:"module_power"`
	SystemLosses *float64 `json:"system_losses"`
	Year         *int     `json:"year"`
}

func (a pvArgs) request(defaults pvgis.Request, angle float64) (pvgis.Request, error) {
	if a.Latitude == nil || a.Longitude == nil {
		return pvgis.Request{}, fmt.Errorf("latitude and longitude are required")
	}
	req := defaults
	req.Latitude = *a.Latitude
	req.Longitude = *a.Longitude
	req.Efficiency = a.Efficiency
	req.Azimuth = a.Azimuth
	req.Slope = angle
	if a.ModulePower != nil {
		req.ModulePower = *a.ModulePower
	}
	if a.SystemLosses != nil {
		req.Loss = *a.SystemLosses
	}
	if a.Year != nil {
		req.Year = *a.Year
	}
	return req.WithDefaults(), nil
}

func pvProperties(angleName, angleDesc string) map[string]any {
	num := func(desc string) map[string]any {
		return map[string]any{"type": "number", "description": desc}
	}
	return map[string]any{
		"latitude":      num("Latitude in decimal degrees."),
		"longitude":     num("Longitude in decimal degrees."),
		"efficiency":    num("Module efficiency (e.g. 0.2)."),
		"azimuth":       num("Panel azimuth in degrees, 0 = south, -90 = east, 90 = west."),
		angleName:       num(angleDesc),
		"module_power":  num("Installed peak power in kW, default 0.5."),
		"system_losses": num("System losses in percent, default 15."),
	}
}

type estimateResult struct {
	AnnualKWh     float64 `json:"annual_kwh"`
	SpecificYield float64 `json:"specific_yield_kwh_per_kwp"`
	PeakW         float64 `json:"peak_w"`
	Hours         int     `json:"hours"`
	ModulePowerKW float64 `json:"module_power_kw"`
	Year          int     `json:"year"`
}

func estimatePVTool(cfg Config) Tool {
	return Tool{
		Definition: llm.ToolDefinition{
			Name:        "estimate_pv_output",
			Description: "Estimate the annual energy (kWh) produced by a PV system at a location using PVGIS hourly data.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": pvProperties("tilt", "Panel tilt from horizontal in degrees."),
				"required":   []string{"latitude", "longitude", "efficiency", "azimuth", "tilt"},
			},
		},
		Handler: func(ctx context.Context, args string) (string, error) {
			var a pvArgs
			if err := decodeArgs("estimate_pv_output", args, &a); err != nil {
				return "", err
			}
			req, err := a.request(cfg.PVDefaults, a.Tilt)
			if err != nil {
				return "", err
			}
			resp, err := cfg.PVGIS.SeriesCalc(ctx, req)
			if err != nil {
				return "", err
			}
			records, err := resp.Hourly()
			if err != nil {
				return "", err
			}

			s := pvgis.Summarize(records)
			return encodeResult("estimate_pv_output", estimateResult{
				AnnualKWh:     round(s.AnnualKWh, 3),
				SpecificYield: round(s.AnnualKWh/req.ModulePower, 1),
				PeakW:         s.PeakW,
				Hours:         s.Hours,
				ModulePowerKW: req.ModulePower,
				Year:          req.Year,
			})
		},
	}
}

type calculateResult struct {
	Location pvgis.Location `json:"location"`
	Year     int            `json:"year"`
	Summary  summaryJSON    `json:"summary"`
}

type summaryJSON struct {
	AnnualKWh  float64   `json:"annual_kwh"`
	PeakW      float64   `json:"peak_w"`
	PeakTime   string    `json:"peak_time,omitempty"`
	MonthlyKWh []float64 `json:"monthly_kwh"`
}

func calculatePVTool(cfg Config) Tool {
	props := pvProperties("slope", "Panel slope from horizontal in degrees.")
	props["year"] = map[string]any{"type": "integer", "description": "Year of the radiation data, default 2023."}
	return Tool{
		Definition: llm.ToolDefinition{
			Name:        "calculate_pv_output",
			Description: "Simulate a PV system with PVGIS and return the location, the year and a production summary with monthly kWh.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": props,
				"required":   []string{"latitude", "longitude", "efficiency", "azimuth", "slope"},
			},
		},
		Handler: func(ctx context.Context, args string) (string, error) {
			var a pvArgs
			if err := decodeArgs("calculate_pv_output", args, &a); err != nil {
				return "", err
			}
			req, err := a.request(cfg.PVDefaults, a.Slope)
			if err != nil {
				return "", err
			}
			resp, err := cfg.PVGIS.SeriesCalc(ctx, req)
			if err != nil {
				return "", err
			}
			if cfg.PVSavePath != "" {
				if err := resp.SaveRaw(cfg.PVSavePath); err != nil {
					cfg.Logger.Warn("saving PVGIS response failed", "path", cfg.PVSavePath, "err", err)
				}
			}
			records, err := resp.Hourly()
			if err != nil {
				return "", err
			}

			s := pvgis.Summarize(records)
			out := calculateResult{
				Location: resp.Inputs.Location,
				Year:     req.Year,
				Summary: summaryJSON{
					AnnualKWh:  round(s.AnnualKWh, 3),
					PeakW:      s.PeakW,
					MonthlyKWh: make([]float64, 12),
				},
			}
			if !s.PeakTime.IsZero() {
				out.Summary.PeakTime = s.PeakTime.Format(time.DateTime)
			}
			for i, v := range s.MonthlyKWh {
				out.Summary.MonthlyKWh[i] = round(v, 3)
			}
			return encodeResult("calculate_pv_output", out)
		},
	}
}

func round(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}
