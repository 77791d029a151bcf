// Package dataset loads the consolidated, geocoded transaction table from
// CSV and materializes it into domain records with tolerant numeric
// coercion. Column roles are resolved by fuzzy header detection.
package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"itbi-insight-lab/internal/domain"
)

// Table is a raw CSV table: one header row plus data rows.
type Table struct {
	Headers []string
	Rows    [][]string
}

// LoadFile reads a CSV file into a Table. A missing file is fatal and
// reported with the resolved path.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("input file not found: %s", path)
		}
		return nil, fmt.Errorf("open input %s: %w", path, err)
	}
	defer f.Close()

	t, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("read input %s: %w", path, err)
	}
	return t, nil
}

// Load reads CSV data into a Table. The field separator is sniffed from
// the header line (the municipal parcels alternate between comma and
// semicolon exports). Ragged rows are tolerated.
func Load(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &Table{}, nil
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffSeparator(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return &Table{}, nil
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}
	return &Table{Headers: headers, Rows: records[1:]}, nil
}

// sniffSeparator picks the separator with more occurrences on the first line.
func sniffSeparator(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

// Records materializes table rows into transactions. Non-numeric value
// and count cells become 0; a non-numeric year leaves Year nil so the
// row is excluded from period aggregation downstream.
func Records(t *Table, cols Columns) []domain.Transaction {
	pos := make(map[string]int, len(t.Headers))
	for i, h := range t.Headers {
		pos[h] = i
	}
	cell := func(row []string, name string) string {
		if name == "" {
			return ""
		}
		i, ok := pos[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	out := make([]domain.Transaction, 0, len(t.Rows))
	for _, row := range t.Rows {
		tx := domain.Transaction{
			Neighborhood: cell(row, cols.Neighborhood),
			Street:       cell(row, cols.Street),
			NominalValue: parseFloat(cell(row, cols.Value)),
			Count:        parseFloat(cell(row, cols.Count)),
			GeoTier:      domain.GeoTier(cell(row, cols.GeoTier)),
		}
		if y, ok := parseYear(cell(row, cols.Year)); ok {
			tx.Year = &y
		}
		out = append(out, tx)
	}
	return out
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseYear accepts integer years and float renderings like "2023.0".
func parseYear(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int(v), true
}
