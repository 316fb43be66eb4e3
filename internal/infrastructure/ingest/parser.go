package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Parser reads tabular uploads (CSV or XLSX) into a header row and string
// cells. Typing happens later, against the dataset schema, when rows are
// loaded into the relational store.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(filename string, r io.Reader) ([]string, []map[string]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", "":
		return parseCSV(r)
	case ".xlsx", ".xlsm":
		return parseWorkbook(r)
	default:
		return nil, nil, fmt.Errorf("unsupported file type %q, expected .csv or .xlsx", filepath.Ext(filename))
	}
}

func parseCSV(r io.Reader) ([]string, []map[string]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	return tabulate(records)
}

func parseWorkbook(r io.Reader) ([]string, []map[string]string, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}

	records, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return tabulate(records)
}

// tabulate turns raw records into header + row maps. Headers are lowercased
// and trimmed so uploads survive the usual spreadsheet casing drift. Short
// rows are padded with empty cells; fully empty rows are skipped.
func tabulate(records [][]string) ([]string, []map[string]string, error) {
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("file is empty")
	}

	columns := make([]string, 0, len(records[0]))
	for _, h := range records[0] {
		name := strings.ToLower(strings.TrimSpace(h))
		if name == "" {
			name = fmt.Sprintf("column_%d", len(columns)+1)
		}
		columns = append(columns, name)
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(columns))
		empty := true
		for i, col := range columns {
			var cell string
			if i < len(record) {
				cell = strings.TrimSpace(record[i])
			}
			if cell != "" {
				empty = false
			}
			row[col] = cell
		}
		if !empty {
			rows = append(rows, row)
		}
	}

	return columns, rows, nil
}
