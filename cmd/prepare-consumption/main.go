package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"energy_profile/internal/aggregate"
	"energy_profile/internal/app"
	"energy_profile/internal/export"
	"energy_profile/internal/ingest"
	"energy_profile/internal/model"
	"energy_profile/internal/table"
	"energy_profile/internal/tools"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to YAML config file")
	inputDir := flag.String("input-dir", "", "folder of meter export CSV files (overrides config)")
	output := flag.String("output", "", "prepared CSV path (overrides config)")
	xlsxPath := flag.String("xlsx", "", "also write an XLSX workbook to this path")
	strict := flag.Bool("strict", false, "reject files whose header differs from the first one")
	skipMalformed := flag.Bool("skip-malformed", false, "drop rows with unparseable dates instead of failing")
	days := flag.Int("days", 7, "number of daily totals to print")
	flag.Parse()

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger := app.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	c := cfg.Consumption
	if *inputDir != "" {
		c.InputDir = *inputDir
	}
	if *output != "" {
		c.OutputPath = *output
	}
	if *xlsxPath != "" {
		c.XLSXPath = *xlsxPath
	}
	if *strict {
		c.SchemaMode = ingest.SchemaStrict
	}
	c.SkipMalformed = c.SkipMalformed || *skipMalformed

	prepared, err := tools.Prepare(c.InputDir, ingest.LoadOptions{Schema: c.SchemaMode, Logger: logger}, c.SkipMalformed)
	if err != nil {
		if errors.Is(err, model.ErrNoData) {
			logger.Error("no consumption data to prepare", "dir", c.InputDir, "err", err)
		} else {
			logger.Error("preparing consumption", "err", err)
		}
		return 1
	}

	if err := export.WriteCSVFile(c.OutputPath, prepared.Narrow); err != nil {
		logger.Error("writing CSV", "path", c.OutputPath, "err", err)
		return 1
	}
	logger.Info("wrote prepared consumption", "path", c.OutputPath, "readings", len(prepared.Narrow.Rows))

	if c.XLSXPath != "" {
		if err := export.WriteXLSXFile(c.XLSXPath, prepared.Narrow); err != nil {
			logger.Error("writing XLSX", "path", c.XLSXPath, "err", err)
			return 1
		}
		logger.Info("wrote workbook", "path", c.XLSXPath)
	}

	if err := printReport(os.Stdout, prepared, *days); err != nil {
		logger.Error("printing report", "err", err)
		return 1
	}
	return 0
}

func printReport(w io.Writer, p *tools.Prepared, days int) error {
	n := p.Narrow
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Consumption Profile")
	fmt.Fprintf(w, "  Source: %d daily rows x %d time bands\n", len(p.Wide.Rows), len(p.Wide.Buckets))
	if tr, ok := n.TimeRange(); ok {
		fmt.Fprintf(w, "  Range:  %s to %s\n", tr.Start.Format(export.TimestampLayout), tr.End.Format(export.TimestampLayout))
	}
	fmt.Fprintln(w)

	daily := aggregate.ResampleDaily(n)
	fmt.Fprintln(w, "=== Daily totals ===")
	if err := table.Render(w, []string{"Date", "kWh"}, dailyRows(daily, days)); err != nil {
		return err
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Statistics ===")
	if err := table.Render(w, []string{"Series", "N", "Mean", "Std", "Min", "Max"}, [][]string{
		statsRow("readings", aggregate.Describe(aggregate.Values(n.Rows))),
		statsRow("daily", aggregate.Describe(aggregate.Values(daily))),
	}); err != nil {
		return err
	}
	fmt.Fprintln(w)

	profile := aggregate.BuildHourlyProfile(n.Rows)
	fmt.Fprintf(w, "=== Hourly profile (peak %02d:00) ===\n", profile.PeakHour)
	return table.Render(w, []string{"Hour", "Mean", "Factor", "Readings"}, profileRows(profile))
}

func dailyRows(daily []model.Reading, limit int) [][]string {
	if limit > 0 && len(daily) > limit {
		daily = daily[:limit]
	}
	rows := make([][]string, 0, len(daily))
	for _, d := range daily {
		rows = append(rows, []string{d.Timestamp.Format("2006-01-02"), fmt.Sprintf("%.3f", d.Value)})
	}
	return rows
}

func statsRow(name string, s aggregate.Stats) []string {
	return []string{
		name,
		strconv.Itoa(s.N),
		fmt.Sprintf("%.3f", s.Mean),
		fmt.Sprintf("%.3f", s.Std),
		fmt.Sprintf("%.3f", s.Min),
		fmt.Sprintf("%.3f", s.Max),
	}
}

func profileRows(p aggregate.HourlyProfile) [][]string {
	hours := p.Hours()
	rows := make([][]string, 0, len(hours))
	for _, h := range hours {
		rows = append(rows, []string{
			fmt.Sprintf("%02d:00", h),
			fmt.Sprintf("%.3f", p.Mean[h]),
			fmt.Sprintf("%.2f", p.Factor[h]),
			strconv.Itoa(p.Count[h]),
		})
	}
	return rows
}
