package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Dataset is tabular report content. Notes are free-text lines shown above
// the table in formats that support them; CSV leaves them out.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
	Notes   []string
}

// ErrNoHeaders is returned when a dataset has no columns.
var ErrNoHeaders = errors.New("dataset has no headers")

// CSVExporter renders a Dataset as RFC 4180 CSV for spreadsheet import.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render writes the header row then one record per row. Missing cells are empty.
// Text cells that a spreadsheet would evaluate as a formula are prefixed with a quote.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, ErrNoHeaders
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	record := make([]string, len(data.Headers))
	for i, header := range data.Headers {
		record[i] = spreadsheetSafe(header)
	}
	if err := w.Write(record); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for n, row := range data.Rows {
		for i, header := range data.Headers {
			record[i] = spreadsheetSafe(row[header])
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", n+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// spreadsheetSafe leaves numbers alone and quotes text starting with a formula trigger.
func spreadsheetSafe(cell string) string {
	if cell == "" || !strings.ContainsAny(cell[:1], "=+-@\t\r") {
		return cell
	}
	if _, err := strconv.ParseFloat(cell, 64); err == nil {
		return cell
	}
	return "'" + cell
}
