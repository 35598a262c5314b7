package importer

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is one data row of an uploaded file, keeping its 1-based position in the
// source file (the header is row 1) for error reporting.
type Row struct {
	Number int
	Cells  []string
}

// Table is a parsed upload: the raw header row plus all non-empty data rows.
type Table struct {
	Headers []string
	Rows    []Row
}

// ParseLine tokenizes a single raw CSV line into cells using standard CSV
// quoting rules: a field wrapped in quotes may contain commas and newlines,
// and a doubled quote inside a quoted field is an escaped literal quote.
func ParseLine(raw string) ([]string, error) {
	reader := newCSVReader(strings.NewReader(raw))
	cells, err := reader.Read()
	if err == io.EOF {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV line: %w", err)
	}
	return cells, nil
}

// ReadTable parses an uploaded sales export. The filename decides the format:
// .xlsx goes through excelize, everything else is treated as CSV.
func ReadTable(r io.Reader, filename string) (*Table, error) {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return readXLSX(r)
	}
	return readCSV(r)
}

func readCSV(r io.Reader) (*Table, error) {
	reader := newCSVReader(bufio.NewReader(r))

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	table := &Table{Headers: headers}
	rowNumber := 1
	for {
		cells, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNumber++
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", rowNumber, err)
		}
		if isRowEmpty(cells) {
			continue
		}
		table.Rows = append(table.Rows, Row{Number: rowNumber, Cells: cells})
	}
	return table, nil
}

func readXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("XLSX file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("file is empty")
	}

	table := &Table{Headers: rows[0]}
	for i, cells := range rows[1:] {
		if isRowEmpty(cells) {
			continue
		}
		table.Rows = append(table.Rows, Row{Number: i + 2, Cells: cells})
	}
	return table, nil
}

func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	// Export files are inconsistent: allow ragged rows and sloppy quoting.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	return reader
}

func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
