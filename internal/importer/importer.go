// Package importer reads block catalogs from CSV, Excel and DXF files and
// guest patterns from plain text. Spreadsheet imports detect the delimiter
// and map columns by header name.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/piwi3910/BlockMerchant/internal/model"
	"github.com/xuri/excelize/v2"
)

// ImportResult collects the blocks read from a file together with per-row
// problems. Rows with errors are skipped; warnings do not drop the row.
type ImportResult struct {
	Blocks   []model.BlockDef
	Errors   []string
	Warnings []string
}

// Catalog wraps the imported blocks in a named catalog.
func (r ImportResult) Catalog(name string) model.Catalog {
	return model.Catalog{Name: name, Blocks: r.Blocks}
}

func (r *ImportResult) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ImportResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// ColumnMapping holds the column index of each block field, -1 if absent.
type ColumnMapping struct {
	Name    int
	Shape   int
	Color   int
	Request int
}

// positional is used when the first row is not a header.
var positional = ColumnMapping{Name: 0, Shape: 1, Color: 2, Request: 3}

// columnAliases lists the lowercase header names accepted for each field.
var columnAliases = []struct {
	field func(*ColumnMapping) *int
	names []string
}{
	{func(m *ColumnMapping) *int { return &m.Name }, []string{"name", "block", "block name", "label", "item", "dish", "food"}},
	{func(m *ColumnMapping) *int { return &m.Shape }, []string{"shape", "cells", "offsets", "footprint", "polyomino"}},
	{func(m *ColumnMapping) *int { return &m.Color }, []string{"color", "colour", "hex", "rgb"}},
	{func(m *ColumnMapping) *int { return &m.Request }, []string{"request", "request type", "type", "category", "tag", "flavor", "flavour"}},
}

var delimiterNames = map[rune]string{',': "comma", ';': "semicolon", '\t': "tab", '|': "pipe"}

// DetectCSVDelimiter guesses the delimiter of CSV data among comma,
// semicolon, tab and pipe. A candidate must split the first row into at
// least two fields; the one whose rows most often match the first row's
// width wins, wider splits breaking ties.
func DetectCSVDelimiter(data []byte) rune {
	best, bestRows, bestWidth := ',', -1, 0
	for _, delim := range []rune{',', ';', '\t', '|'} {
		records, err := readCSV(bytes.NewReader(data), delim)
		if err != nil || len(records) == 0 || len(records[0]) < 2 {
			continue
		}
		width := len(records[0])
		rows := 0
		for _, rec := range records {
			if len(rec) == width {
				rows++
			}
		}
		if rows > bestRows || (rows == bestRows && width > bestWidth) {
			best, bestRows, bestWidth = delim, rows, width
		}
	}
	return best
}

// DetectColumns maps header names in row to block fields, ignoring case and
// surrounding spaces. The first matching column wins for each field. If no
// cell is a known header it returns the positional mapping
// (name, shape, color, request) and false.
func DetectColumns(row []string) (ColumnMapping, bool) {
	m := ColumnMapping{Name: -1, Shape: -1, Color: -1, Request: -1}
	found := false
	for i, cell := range row {
		header := strings.ToLower(strings.TrimSpace(cell))
		for _, ca := range columnAliases {
			for _, name := range ca.names {
				if header != name {
					continue
				}
				found = true
				if idx := ca.field(&m); *idx == -1 {
					*idx = i
				}
			}
		}
	}
	if !found {
		return positional, false
	}
	return m, true
}

// ImportCSV reads blocks from a delimited text file. Shapes that contain the
// delimiter must be quoted.
func ImportCSV(path string) ImportResult {
	var result ImportResult
	data, err := os.ReadFile(path)
	if err != nil {
		result.errorf("Cannot open file: %v", err)
		return result
	}
	if len(bytes.TrimSpace(data)) == 0 {
		result.errorf("File is empty")
		return result
	}

	delim := DetectCSVDelimiter(data)
	if delim != ',' {
		result.warnf("Detected %s delimiter", delimiterNames[delim])
	}
	records, err := readCSV(bytes.NewReader(data), delim)
	if err != nil {
		result.errorf("Cannot read CSV: %v", err)
		return result
	}
	if len(records) == 0 {
		result.errorf("File is empty")
		return result
	}
	result.addRows(records, "Line")
	return result
}

// ImportCSVFromReader reads blocks from r using a known delimiter.
func ImportCSVFromReader(r io.Reader, delim rune) ImportResult {
	var result ImportResult
	records, err := readCSV(r, delim)
	if err != nil {
		result.errorf("Cannot read CSV: %v", err)
		return result
	}
	if len(records) == 0 {
		result.errorf("File is empty")
		return result
	}
	result.addRows(records, "Line")
	return result
}

// ImportExcel reads blocks from the first sheet of an .xlsx workbook.
func ImportExcel(path string) ImportResult {
	var result ImportResult
	f, err := excelize.OpenFile(path)
	if err != nil {
		result.errorf("Cannot open Excel file: %v", err)
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.errorf("Excel file has no sheets")
		return result
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.errorf("Cannot read Excel data: %v", err)
		return result
	}
	if len(rows) == 0 {
		result.errorf("Sheet is empty")
		return result
	}
	result.addRows(rows, "Row")
	return result
}

func readCSV(r io.Reader, delim rune) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	return cr.ReadAll()
}

// addRows parses spreadsheet rows into blocks. Row numbers in messages are
// 1-based and prefixed with unit ("Line" or "Row").
func (r *ImportResult) addRows(rows [][]string, unit string) {
	m, header := DetectColumns(rows[0])
	first := 0
	switch {
	case header:
		first = 1
		r.warnf("Detected header row, skipping")
		if m.Shape == -1 {
			r.errorf("Required columns not found in header: Shape")
			return
		}
	case len(rows[0]) >= 2:
		// An unrecognised header still fails to parse as a shape.
		if _, err := model.ParseShape(strings.TrimSpace(rows[0][1])); err != nil {
			first = 1
			r.warnf("Detected header row, skipping")
		}
	}

	names := make(map[string]bool)
	for i := first; i < len(rows); i++ {
		if blankRow(rows[i]) {
			continue
		}
		where := fmt.Sprintf("%s %d", unit, i+1)
		block, ok := r.parseBlock(rows[i], m, where)
		if !ok {
			continue
		}
		if names[block.Name] {
			r.errorf("%s: Duplicate block name '%s'", where, block.Name)
			continue
		}
		names[block.Name] = true
		r.Blocks = append(r.Blocks, block)
	}
}

func (r *ImportResult) parseBlock(row []string, m ColumnMapping, where string) (model.BlockDef, bool) {
	field := func(idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	text := field(m.Shape)
	if text == "" {
		r.errorf("%s: Missing shape value", where)
		return model.BlockDef{}, false
	}
	shape, err := model.ParseShape(text)
	if err != nil {
		r.errorf("%s: Invalid shape '%s': %v", where, text, err)
		return model.BlockDef{}, false
	}
	if shape.IsEmpty() {
		r.errorf("%s: Shape has no cells", where)
		return model.BlockDef{}, false
	}

	color := model.White
	if hex := field(m.Color); hex != "" {
		if c, err := model.ParseColor(hex); err == nil {
			color = c
		} else {
			r.warnf("%s: Unknown color '%s', defaulting to white", where, hex)
		}
	}

	name := field(m.Name)
	if name == "" {
		name = fmt.Sprintf("Block %d", len(r.Blocks)+1)
	}
	block := model.NewBlockDef(name, color, shape)
	block.Request = model.RequestType(strings.ToLower(field(m.Request)))
	return block, true
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
