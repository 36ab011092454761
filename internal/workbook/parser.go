package workbook

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ErrMalformedWorkbook signals a sheet whose layout cannot be read as billing
// blocks. It is surfaced per file and never aborts a whole upload batch.
var ErrMalformedWorkbook = errors.New("nieprawidłowy układ arkusza")

// ErrUnsupportedFileType signals a file rejected before parsing.
var ErrUnsupportedFileType = errors.New("nieobsługiwany typ pliku")

// blockRows is the height of one apartment-period block:
// start readings, end readings, consumption, rate, total.
const blockRows = 5

var acceptedMIME = map[string]bool{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/vnd.ms-excel": true,
	"text/csv":                 true,
	"application/csv":          true,
}

// Accepted reports whether a file should be parsed at all, judged by its
// extension or MIME type.
func Accepted(filename, mime string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls", ".csv":
		return true
	}
	return acceptedMIME[strings.ToLower(strings.TrimSpace(mime))]
}

// Parse reads raw spreadsheet bytes into a Workbook. Only the first worksheet
// is considered. The header row provides metric names from column index 2
// onward; data rows are scanned in 5-row blocks starting at row 1.
func Parse(filename string, data []byte) (*Workbook, error) {
	var (
		grid [][]CellValue
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		grid, err = readGridCSV(data)
	case ".xlsx", ".xls":
		grid, err = readGridXLSX(data)
	default:
		// Extension missing or unknown: trust the caller's Accepted check
		// and sniff the content.
		if looksLikeZip(data) {
			grid, err = readGridXLSX(data)
		} else {
			grid, err = readGridCSV(data)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedWorkbook, err)
	}
	return scanBlocks(grid)
}

func looksLikeZip(data []byte) bool {
	return len(data) >= 2 && data[0] == 'P' && data[1] == 'K'
}

func readGridXLSX(data []byte) ([][]CellValue, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("brak arkuszy w pliku")
	}
	// GetRows returns the formatted display string of each cell, which is
	// exactly what the block scanner wants (dates and numbers as shown).
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	grid := make([][]CellValue, len(rows))
	for i, row := range rows {
		cells := make([]CellValue, len(row))
		for j, v := range row {
			cells[j] = StringCell(v)
		}
		grid[i] = cells
	}
	return grid, nil
}

func readGridCSV(data []byte) ([][]CellValue, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.Comma = sniffDelimiter(data)

	var grid [][]CellValue
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		cells := make([]CellValue, len(rec))
		for j, v := range rec {
			cells[j] = StringCell(v)
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

// sniffDelimiter picks ';' when the first line carries more semicolons than
// commas. Billing exports from Polish tooling commonly use the semicolon.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

// scanBlocks walks the cell grid: header row first, then 5-row blocks.
// A block is only emitted when both the apartment label and the period start
// date are present; otherwise the scanner advances a single row, tolerating
// stray content between blocks.
func scanBlocks(grid [][]CellValue) (*Workbook, error) {
	if len(grid) == 0 {
		return nil, fmt.Errorf("%w: pusty arkusz", ErrMalformedWorkbook)
	}

	header := grid[0]
	var headers []string
	var cols []int // grid column index per metric
	for j := 2; j < len(header); j++ {
		if name := header[j].Text(); name != "" {
			headers = append(headers, name)
			cols = append(cols, j)
		}
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: brak kolumn z licznikami w wierszu nagłówka", ErrMalformedWorkbook)
	}

	var records []Record
	i := 1
	for i+blockRows <= len(grid) {
		apartment := cellAt(grid, i, 0).Text()
		dateFrom := cellAt(grid, i, 1).Text()
		if apartment == "" || dateFrom == "" {
			i++
			continue
		}

		rec := Record{
			Apartment: apartment,
			DateFrom:  normalizeOrRaw(dateFrom),
			DateTo:    normalizeOrRaw(cellAt(grid, i+1, 1).Text()),
			Metrics:   make([]Metric, len(headers)),
		}
		for m, col := range cols {
			rec.Metrics[m] = Metric{
				Name:        headers[m],
				StartValue:  cellAt(grid, i, col).Text(),
				EndValue:    cellAt(grid, i+1, col).Text(),
				Consumption: cellAt(grid, i+2, col).Text(),
				Rate:        cellAt(grid, i+3, col).Text(),
				Total:       cellAt(grid, i+4, col).Text(),
			}
		}
		records = append(records, rec)
		i += blockRows
	}

	return &Workbook{Headers: headers, Records: records}, nil
}

func cellAt(grid [][]CellValue, row, col int) CellValue {
	if row >= len(grid) || col >= len(grid[row]) {
		return CellValue{}
	}
	return grid[row][col]
}

var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"2.1.2006",
	"02-01-2006",
	"02/01/2006",
	"2006.01.02",
	"2006/01/02",
	"01-02-06",
}

// NormalizeDate converts a date string to YYYY-MM-DD, or returns "" when the
// input matches none of the known layouts.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

func normalizeOrRaw(s string) string {
	if iso := NormalizeDate(s); iso != "" {
		return iso
	}
	return s
}
