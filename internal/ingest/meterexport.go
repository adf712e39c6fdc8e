package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"energy_profile/internal/model"
)

// MeterExportParser parses distributor meter exports.
//
// Expected format (semicolon-delimited, comma as decimal separator):
//
//	Giorno;00:00-06:00;06:00-12:00;12:00-18:00;18:00-24:00
//	01/01/2023;1,23;4,56;7,89;0,12
//
// Bucket labels may also be bare start times ("14:00", "14:15", ...).
type MeterExportParser struct {
	// Comma is the field delimiter. Defaults to ';'.
	Comma rune
	// Decimal is the decimal separator of numeric cells. Defaults to ','.
	Decimal rune
}

func NewMeterExportParser() *MeterExportParser {
	return &MeterExportParser{Comma: ';', Decimal: ','}
}

func (p *MeterExportParser) Parse(r io.Reader) (*model.WideTable, error) {
	cr := csv.NewReader(r)
	cr.Comma = p.comma()
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	if err := validateMeterHeader(header); err != nil {
		return nil, err
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	table := &model.WideTable{
		KeyColumn: header[0],
		Buckets:   append([]string(nil), header[1:]...),
	}

	lineNum := 1
	for {
		lineNum++
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV line %d: %w", lineNum, err)
		}

		row, err := p.parseRecord(record, len(table.Buckets), lineNum)
		if err != nil {
			return nil, err
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func validateMeterHeader(header []string) error {
	if len(header) < 2 {
		return fmt.Errorf("expected a key column and at least 1 bucket column, got %d columns", len(header))
	}
	return nil
}

// parseRecord maps one data line onto the header. Short lines are padded with
// NaN; surplus fields are only accepted when empty (trailing delimiters).
func (p *MeterExportParser) parseRecord(record []string, buckets, lineNum int) (model.WideRow, error) {
	row := model.WideRow{
		Key:    record[0],
		Values: make([]float64, buckets),
	}

	for i := range row.Values {
		col := i + 1
		if col >= len(record) {
			row.Values[i] = math.NaN()
			continue
		}
		v, err := p.parseNumber(record[col])
		if err != nil {
			return model.WideRow{}, model.Wrap(model.KindMalformedValue, err, "line %d, column %d", lineNum, col+1)
		}
		row.Values[i] = v
	}

	for col := buckets + 1; col < len(record); col++ {
		if strings.TrimSpace(record[col]) != "" {
			return model.WideRow{}, fmt.Errorf("line %d: expected %d fields, got %d", lineNum, buckets+1, len(record))
		}
	}

	return row, nil
}

// parseNumber parses a locale-formatted number; empty cells become NaN.
func (p *MeterExportParser) parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	if dec := p.decimal(); dec != '.' {
		s = strings.ReplaceAll(s, string(dec), ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing value %q: %w", s, err)
	}
	return v, nil
}

func (p *MeterExportParser) comma() rune {
	if p.Comma == 0 {
		return ';'
	}
	return p.Comma
}

func (p *MeterExportParser) decimal() rune {
	if p.Decimal == 0 {
		return ','
	}
	return p.Decimal
}
