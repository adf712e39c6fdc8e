package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"energy_profile/internal/app"
	"energy_profile/internal/balance"
	"energy_profile/internal/export"
	"energy_profile/internal/ingest"
	"energy_profile/internal/pvgis"
	"energy_profile/internal/table"
	"energy_profile/internal/tools"
)

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to YAML config file")
	lat := flag.Float64("lat", 0, "latitude in decimal degrees (required)")
	lon := flag.Float64("lon", 0, "longitude in decimal degrees (required)")
	slope := flag.Float64("slope", 35, "panel tilt from horizontal in degrees")
	azimuth := flag.Float64("azimuth", 0, "panel azimuth, 0 = south, -90 = east")
	efficiency := flag.Float64("efficiency", 0, "module efficiency, passed through to PVGIS")
	power := flag.Float64("power", 0, "peak power in kW (overrides config)")
	loss := flag.Float64("loss", -1, "system losses in percent (overrides config)")
	year := flag.Int("year", 0, "simulation year (overrides config)")
	jsonPath := flag.String("json", "", "save the raw PVGIS response to this path")
	csvPath := flag.String("csv", "", "save hourly records as CSV to this path")
	consumptionDir := flag.String("consumption", "", "folder of meter exports to offset against the PV series")
	flag.Parse()

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger := app.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if !isSet("lat") || !isSet("lon") {
		logger.Error("-lat and -lon are required")
		return 2
	}

	req := app.PVDefaults(cfg.PVGIS)
	req.Latitude = *lat
	req.Longitude = *lon
	req.Slope = *slope
	req.Azimuth = *azimuth
	req.Efficiency = *efficiency
	if *power > 0 {
		req.ModulePower = *power
	}
	if *loss >= 0 {
		req.Loss = *loss
	}
	if *year > 0 {
		req.Year = *year
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := app.NewPVGIS(cfg.PVGIS, nil, logger)
	resp, err := client.SeriesCalc(ctx, req.WithDefaults())
	if err != nil {
		logger.Error("PVGIS request failed", "err", err)
		return 1
	}
	records, err := resp.Hourly()
	if err != nil {
		logger.Error("decoding hourly series", "err", err)
		return 1
	}

	if *jsonPath != "" {
		if err := resp.SaveRaw(*jsonPath); err != nil {
			logger.Error("saving response", "path", *jsonPath, "err", err)
			return 1
		}
		logger.Info("saved raw response", "path", *jsonPath)
	}
	if *csvPath != "" {
		if err := writeHourlyFile(*csvPath, records); err != nil {
			logger.Error("saving hourly CSV", "path", *csvPath, "err", err)
			return 1
		}
		logger.Info("saved hourly series", "path", *csvPath, "records", len(records))
	}

	if err := printSummary(os.Stdout, resp, pvgis.Summarize(records), req.ModulePower); err != nil {
		logger.Error("printing summary", "err", err)
		return 1
	}

	if *consumptionDir != "" {
		prepared, err := tools.Prepare(*consumptionDir,
			ingest.LoadOptions{Schema: cfg.Consumption.SchemaMode, Logger: logger}, cfg.Consumption.SkipMalformed)
		if err != nil {
			logger.Error("loading consumption", "dir", *consumptionDir, "err", err)
			return 1
		}
		printNetLoad(os.Stdout, balance.NetLoad(prepared.Narrow, records))
	}
	return 0
}

func isSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func printSummary(w io.Writer, resp *pvgis.Response, s pvgis.Summary, peakKW float64) error {
	loc := resp.Inputs.Location
	fmt.Fprintln(w)
	fmt.Fprintln(w, "PV Production Estimate")
	fmt.Fprintf(w, "  Location: %.4f, %.4f (elevation %.0f m)\n", loc.Latitude, loc.Longitude, loc.Elevation)
	fmt.Fprintf(w, "  Year:     %d (%d hourly records)\n", resp.Year, s.Hours)
	fmt.Fprintf(w, "  Annual:   %.1f kWh", s.AnnualKWh)
	if peakKW > 0 {
		fmt.Fprintf(w, " (%.0f kWh/kWp)", s.AnnualKWh/peakKW)
	}
	fmt.Fprintln(w)
	if s.Hours > 0 {
		fmt.Fprintf(w, "  Peak:     %.0f W at %s\n", s.PeakW, s.PeakTime.Format(export.TimestampLayout))
	}
	fmt.Fprintln(w)

	rows := make([][]string, 0, 12)
	for m, kwh := range s.MonthlyKWh {
		rows = append(rows, []string{monthNames[m], fmt.Sprintf("%.1f", kwh)})
	}
	return table.Render(w, []string{"Month", "kWh"}, rows)
}

func printNetLoad(w io.Writer, readings []balance.NetReading) {
	consumption, pv, net := balance.Totals(readings)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Net load ===")
	fmt.Fprintf(w, "  Buckets:     %d\n", len(readings))
	fmt.Fprintf(w, "  Consumption: %.2f kWh\n", consumption)
	fmt.Fprintf(w, "  PV:          %.2f kWh\n", pv)
	fmt.Fprintf(w, "  Net:         %.2f kWh\n", net)
	if consumption > 0 {
		fmt.Fprintf(w, "  Coverage:    %.1f%%\n", (consumption-net)/consumption*100)
	}
}

func writeHourlyFile(path string, records []pvgis.HourlyRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeHourlyCSV(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeHourlyCSV(w io.Writer, records []pvgis.HourlyRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "power_w", "irradiance_w_m2", "temp_c"}); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write([]string{
			r.Time.Format(export.TimestampLayout),
			strconv.FormatFloat(r.PowerW, 'f', -1, 64),
			strconv.FormatFloat(r.Irradiance, 'f', -1, 64),
			strconv.FormatFloat(r.TempC, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
