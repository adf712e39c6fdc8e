package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"energy_profile/internal/aggregate"
	"energy_profile/internal/export"
	"energy_profile/internal/ingest"
	"energy_profile/internal/llm"
	"energy_profile/internal/model"
	"energy_profile/internal/reshape"
	"energy_profile/internal/table"
)

// Prepared is the outcome of loading and reshaping a folder of meter exports.
type Prepared struct {
	Wide   *model.WideTable
	Narrow *model.NarrowTable
}

// Prepare runs the loader and reshaper over dir. It is shared by the tool and
// the prepare-consumption command.
func Prepare(dir string, opts ingest.LoadOptions, skipMalformed bool) (*Prepared, error) {
	wide, err := ingest.LoadDir(dir, opts)
	if err != nil {
		return nil, err
	}
	narrow, err := reshape.ReshapeWith(wide, reshape.Options{SkipMalformed: skipMalformed, Logger: opts.Logger})
	if err != nil {
		return nil, err
	}
	return &Prepared{Wide: wide, Narrow: narrow}, nil
}

type prepareArgs struct {
	InputDir   string `json:"input_dir"`
	OutputPath string `json:"output_path"`
}

func prepareConsumptionTool(cfg Config) Tool {
	return Tool{
		Definition: llm.ToolDefinition{
			Name: "prepare_consumption",
			Description: "Load every meter export CSV (semicolon separated, decimal comma, one row per day and one " +
				"column per time band) in a folder, convert it to a timestamp,consumption series and save it as CSV.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"input_dir": map[string]any{
						"type":        "string",
						"description": "Folder containing the meter export CSV files.",
					},
					"output_path": map[string]any{
						"type":        "string",
						"description": "Where to write the prepared CSV. Defaults to " + export.DefaultPath + ".",
					},
				},
				"required": []string{"input_dir"},
			},
		},
		Handler: func(ctx context.Context, args string) (string, error) {
			var a prepareArgs
			if err := decodeArgs("prepare_consumption", args, &a); err != nil {
				return "", err
			}
			if a.OutputPath == "" {
				a.OutputPath = export.DefaultPath
			}
			inDir, err := safePath(cfg.BaseDir, a.InputDir)
			if err != nil {
				return "", err
			}
			outPath, err := safePath(cfg.BaseDir, a.OutputPath)
			if err != nil {
				return "", err
			}

			p, err := Prepare(inDir, ingest.LoadOptions{Schema: cfg.Schema, Logger: cfg.Logger}, cfg.SkipMalformed)
			if errors.Is(err, model.ErrNoData) {
				return "", fmt.Errorf("no consumption data in %q: %w", a.InputDir, err)
			}
			if err != nil {
				return "", err
			}
			cfg.Metrics.Prepared(len(p.Wide.Rows), p.Narrow.Len())

			if err := export.WriteCSVFile(outPath, p.Narrow); err != nil {
				return "", err
			}
			return describePrepared(p, a.OutputPath)
		},
	}
}

func describePrepared(p *Prepared, outPath string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Prepared %d readings from %d daily rows x %d time bands.\n",
		p.Narrow.Len(), len(p.Wide.Rows), len(p.Wide.Buckets))
	if tr, ok := p.Narrow.TimeRange(); ok {
		fmt.Fprintf(&b, "Time range: %s to %s\n",
			tr.Start.Format(export.TimestampLayout), tr.End.Format(export.TimestampLayout))
	}
	fmt.Fprintf(&b, "Total consumption: %s\n", aggregate.FormatFloat(p.Narrow.Total()))
	fmt.Fprintf(&b, "Saved to %s\n", outPath)

	daily := aggregate.ResampleDaily(p.Narrow)
	if len(daily) == 0 {
		return b.String(), nil
	}
	fmt.Fprintf(&b, "\nDaily totals (first %d days):\n", min(previewRows, len(daily)))
	var rows [][]string
	for _, d := range daily[:min(previewRows, len(daily))] {
		rows = append(rows, []string{d.Timestamp.Format("2006-01-02"), aggregate.FormatFloat(d.Value)})
	}
	if err := table.Render(&b, []string{"day", "consumption"}, rows); err != nil {
		return "", err
	}
	return b.String(), nil
}
