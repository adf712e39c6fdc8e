package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"

	"energy_profile/internal/aggregate"
	"energy_profile/internal/llm"
	"energy_profile/internal/table"
)

const previewRows = 5

type csvOptions struct {
	Delimiter string `json:"delimiter"`
	Decimal   string `json:"decimal"`
}

func (o csvOptions) table() (table.Options, error) {
	var opts table.Options
	for _, f := range []struct {
		name string
		val  string
		dst  *rune
	}{
		{"delimiter", o.Delimiter, &opts.Delimiter},
		{"decimal", o.Decimal, &opts.Decimal},
	} {
		if f.val == "" {
			continue
		}
		r := []rune(f.val)
		if len(r) != 1 {
			return opts, fmt.Errorf("%s must be a single character, got %q", f.name, f.val)
		}
		*f.dst = r[0]
	}
	return opts, nil
}

var csvOptionProps = map[string]any{
	"delimiter": map[string]any{
		"type":        "string",
		"description": "Field separator, default ','. Use ';' for meter exports.",
	},
	"decimal": map[string]any{
		"type":        "string",
		"description": "Decimal separator, default '.'.",
	},
}

func withCSVOptions(props map[string]any) map[string]any {
	return lo.Assign(props, csvOptionProps)
}

func openTable(baseDir, path string, o csvOptions) (*table.Table, error) {
	abs, err := safePath(baseDir, path)
	if err != nil {
		return nil, err
	}
	opts, err := o.table()
	if err != nil {
		return nil, err
	}
	t, err := table.ReadFile(abs, opts)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("file %q not found", path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	return t, nil
}

type readCSVArgs struct {
	FilePath string `json:"file_path"`
	csvOptions
}

func readCSVTool(cfg Config) Tool {
	return Tool{
		Definition: llm.ToolDefinition{
			Name:        "read_csv",
			Description: "Read a CSV file and report its shape, column names and the first and last rows.",
			Parameters: map[string]any{
				"type": "object",
				"properties": withCSVOptions(map[string]any{
					"file_path": map[string]any{
						"type":        "string",
						"description": "Path of the CSV file inside the data directory.",
					},
				}),
				"required": []string{"file_path"},
			},
		},
		Handler: func(ctx context.Context, args string) (string, error) {
			var a readCSVArgs
			if err := decodeArgs("read_csv", args, &a); err != nil {
				return "", err
			}
			t, err := openTable(cfg.BaseDir, a.FilePath, a.csvOptions)
			if err != nil {
				return "", err
			}

			rows, cols := t.Shape()
			var b strings.Builder
			fmt.Fprintf(&b, "Successfully read CSV %s\n", a.FilePath)
			fmt.Fprintf(&b, "Shape: %d rows x %d columns\n", rows, cols)
			fmt.Fprintf(&b, "Columns: %s\n\n", strings.Join(t.Columns, ", "))
			fmt.Fprintf(&b, "First %d rows:\n", min(previewRows, rows))
			if err := table.Render(&b, t.Columns, t.Head(previewRows)); err != nil {
				return "", err
			}
			fmt.Fprintf(&b, "\nLast %d rows:\n", min(previewRows, rows))
			if err := table.Render(&b, t.Columns, t.Tail(previewRows)); err != nil {
				return "", err
			}
			return b.String(), nil
		},
	}
}

type aggregateCSVArgs struct {
	FilePath    string `json:"file_path"`
	GroupBy     string `json:"group_by"`
	AggColumn   string `json:"agg_column"`
	AggFunction string `json:"agg_function"`
	csvOptions
}

func aggregateCSVTool(cfg Config) Tool {
	funcs := lo.Map(aggregate.Funcs, func(f aggregate.Func, _ int) string { return string(f) })
	return Tool{
		Definition: llm.ToolDefinition{
			Name:        "aggregate_csv",
			Description: "Group a CSV file by one or more columns and aggregate a numeric column.",
			Parameters: map[string]any{
				"type": "object",
				"properties": withCSVOptions(map[string]any{
					"file_path": map[string]any{
						"type":        "string",
						"description": "Path of the CSV file inside the data directory.",
					},
					"group_by": map[string]any{
						"type":        "string",
						"description": "Comma-separated column names to group by.",
					},
					"agg_column": map[string]any{
						"type":        "string",
						"description": "Numeric column to aggregate.",
					},
					"agg_function": map[string]any{
						"type":        "string",
						"enum":        funcs,
						"description": "Aggregation function.",
					},
				}),
				"required": []string{"file_path", "group_by", "agg_column", "agg_function"},
			},
		},
		Handler: func(ctx context.Context, args string) (string, error) {
			var a aggregateCSVArgs
			if err := decodeArgs("aggregate_csv", args, &a); err != nil {
				return "", err
			}
			fn, err := aggregate.ParseFunc(a.AggFunction)
			if err != nil {
				return "", err
			}
			groupBy := lo.Compact(lo.Map(strings.Split(a.GroupBy, ","), func(s string, _ int) string {
				return strings.TrimSpace(s)
			}))

			t, err := openTable(cfg.BaseDir, a.FilePath, a.csvOptions)
			if err != nil {
				return "", err
			}
			out, err := aggregate.GroupBy(t, groupBy, a.AggColumn, fn)
			if err != nil {
				return "", err
			}

			var b strings.Builder
			fmt.Fprintf(&b, "%s of %s grouped by %s (%d groups):\n",
				fn, a.AggColumn, strings.Join(groupBy, ", "), len(out.Rows))
			if err := table.Render(&b, out.Columns, out.Rows); err != nil {
				return "", err
			}
			return b.String(), nil
		},
	}
}
