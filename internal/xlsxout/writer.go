// Package xlsxout renders the report engine's table descriptions into binary
// spreadsheet files. It is the only package that talks to excelize for
// writing; the engine itself deals in styled cell values only.
package xlsxout

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"licznik/internal/report"
)

const (
	pivotSheet  = "Zestawienie"
	annualSheet = "Podsumowanie roczne"
	yoySheet    = "Porównanie roczne"

	fixedFeeRowLabel = "Opłata stała razem"
	notAvailable     = "N/D"
)

// PivotFilename derives the download name from the session id prefix.
func PivotFilename(sessionID string) string {
	return "zestawienie_" + idPrefix(sessionID) + ".xlsx"
}

// YoYFilename derives the comparison download name from the session id prefix.
func YoYFilename(sessionID string) string {
	return "porownanie_" + idPrefix(sessionID) + ".xlsx"
}

func idPrefix(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// styleKey collapses a cell's visual state into one lookup key so every
// distinct combination maps to exactly one excelize style.
type styleKey struct {
	style   report.Style
	zero    bool
	outlier bool
}

type styler struct {
	f     *excelize.File
	cache map[styleKey]int
}

func newStyler(f *excelize.File) *styler {
	return &styler{f: f, cache: make(map[styleKey]int)}
}

// id returns (creating on demand) the excelize style for a cell state.
func (s *styler) id(k styleKey) (int, error) {
	if id, ok := s.cache[k]; ok {
		return id, nil
	}

	style := &excelize.Style{}
	switch k.style {
	case report.StyleOK:
		style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"C6EFCE"}}
		style.Font = &excelize.Font{Color: "006100"}
	case report.StyleError:
		style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFC7CE"}}
		style.Font = &excelize.Font{Color: "9C0006"}
	case report.StyleWarning:
		style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFEB9C"}}
		style.Font = &excelize.Font{Color: "9C6500"}
	case report.StyleNegative:
		style.Font = &excelize.Font{Color: "CC0000", Bold: true}
	}
	if k.zero {
		// Exact zeros always stand out, whatever the other tag says.
		font := style.Font
		if font == nil {
			font = &excelize.Font{}
		}
		font.Italic = true
		font.Bold = true
		style.Font = font
	}
	if k.outlier {
		style.Border = []excelize.Border{
			{Type: "left", Style: 2, Color: "FF0000"},
			{Type: "right", Style: 2, Color: "FF0000"},
			{Type: "top", Style: 2, Color: "FF0000"},
			{Type: "bottom", Style: 2, Color: "FF0000"},
		}
	}

	id, err := s.f.NewStyle(style)
	if err != nil {
		return 0, err
	}
	s.cache[k] = id
	return id, nil
}

// WritePivot renders the pivot table, and the annual rollup on a second sheet
// when annual rows are given, into a finished xlsx file.
func WritePivot(p report.Pivot, annual []report.AnnualRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", pivotSheet); err != nil {
		return nil, err
	}
	st := newStyler(f)

	if err := writePivotSheet(f, st, p); err != nil {
		return nil, err
	}
	if annual != nil {
		if err := writeAnnualSheet(f, st, annual); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writePivotSheet(f *excelize.File, st *styler, p report.Pivot) error {
	const fixedCols = 3 // address, apartment, metric
	blockWidth := len(p.Columns)

	// Header row 1: fixed columns span both header rows, period labels merge
	// across their column block.
	for i, label := range []string{"Adres", "Lokal", "Licznik"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		below, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := f.SetCellValue(pivotSheet, cell, label); err != nil {
			return err
		}
		if err := f.MergeCell(pivotSheet, cell, below); err != nil {
			return err
		}
	}
	for pi, period := range p.Periods {
		startCol := fixedCols + 1 + pi*blockWidth
		from, _ := excelize.CoordinatesToCellName(startCol, 1)
		to, _ := excelize.CoordinatesToCellName(startCol+blockWidth-1, 1)
		if err := f.SetCellValue(pivotSheet, from, period.Label); err != nil {
			return err
		}
		if blockWidth > 1 {
			if err := f.MergeCell(pivotSheet, from, to); err != nil {
				return err
			}
		}
		for ci, col := range p.Columns {
			cell, _ := excelize.CoordinatesToCellName(startCol+ci, 2)
			if err := f.SetCellValue(pivotSheet, cell, col.Label()); err != nil {
				return err
			}
		}
	}

	// Data rows.
	rowIdx := 3
	for _, row := range p.Rows {
		for i, v := range []string{row.Address, row.Apartment, row.Metric} {
			cell, _ := excelize.CoordinatesToCellName(i+1, rowIdx)
			if err := f.SetCellValue(pivotSheet, cell, v); err != nil {
				return err
			}
		}
		for pi := range p.Periods {
			startCol := fixedCols + 1 + pi*blockWidth
			cells := row.Cells[pi]
			for ci := range p.Columns {
				name, _ := excelize.CoordinatesToCellName(startCol+ci, rowIdx)
				var c *report.Cell
				if cells != nil {
					c = cells[ci]
				}
				if err := writeCell(f, st, name, c); err != nil {
					return err
				}
			}
		}
		rowIdx++
	}

	// Fixed-fee rollup row at the reported-total column of each period block.
	totalIdx := columnIndex(p.Columns, report.ColReportedTotal)
	if len(p.FixedFeeByPeriod) > 0 && totalIdx >= 0 {
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx)
		if err := f.SetCellValue(pivotSheet, cell, fixedFeeRowLabel); err != nil {
			return err
		}
		for pi, period := range p.Periods {
			fee, ok := p.FixedFeeByPeriod[period.Key]
			if !ok {
				continue
			}
			name, _ := excelize.CoordinatesToCellName(fixedCols+1+pi*blockWidth+totalIdx, rowIdx)
			if err := f.SetCellValue(pivotSheet, name, fee.InexactFloat64()); err != nil {
				return err
			}
		}
	}

	return nil
}

func writeCell(f *excelize.File, st *styler, name string, c *report.Cell) error {
	if c == nil {
		c = &report.Cell{Text: notAvailable, Style: report.StyleWarning}
	}
	if c.Value != nil {
		if err := f.SetCellValue(pivotSheet, name, c.Value.InexactFloat64()); err != nil {
			return err
		}
	} else if c.Text != "" {
		if err := f.SetCellValue(pivotSheet, name, c.Text); err != nil {
			return err
		}
	}
	k := styleKey{style: c.Style, zero: c.Zero, outlier: c.Outlier}
	if k == (styleKey{}) {
		return nil
	}
	id, err := st.id(k)
	if err != nil {
		return err
	}
	return f.SetCellStyle(pivotSheet, name, name, id)
}

func columnIndex(cols []report.Column, want report.Column) int {
	for i, c := range cols {
		if c == want {
			return i
		}
	}
	return -1
}

var annualHeaders = []string{
	"Adres", "Lokal", "Licznik", "Rok", "Liczba okresów",
	"Zużycie wykazane", "Zużycie obliczone",
	"Kwota wykazana", "Kwota obliczona", "Różnica", "Status",
}

func writeAnnualSheet(f *excelize.File, st *styler, rows []report.AnnualRow) error {
	if _, err := f.NewSheet(annualSheet); err != nil {
		return err
	}
	for i, h := range annualHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(annualSheet, cell, h); err != nil {
			return err
		}
	}
	for ri, r := range rows {
		values := []interface{}{
			r.Address, r.Apartment, r.Metric, r.Year, r.Periods,
			r.ReportedConsumption.InexactFloat64(), optFloat(r.ComputedConsumption),
			r.ReportedTotal.InexactFloat64(), optFloat(r.ComputedTotal),
			optFloat(r.Difference), r.Status,
		}
		for ci, v := range values {
			cell, _ := excelize.CoordinatesToCellName(ci+1, ri+2)
			if v == nil {
				v = notAvailable
			}
			if err := f.SetCellValue(annualSheet, cell, v); err != nil {
				return err
			}
		}

		statusStyle := report.StyleOK
		if r.Status != report.AnnualStatusOK {
			statusStyle = report.StyleError
		}
		id, err := st.id(styleKey{style: statusStyle})
		if err != nil {
			return err
		}
		cell, _ := excelize.CoordinatesToCellName(len(values), ri+2)
		if err := f.SetCellStyle(annualSheet, cell, cell, id); err != nil {
			return err
		}
	}
	return nil
}

var yoyHeaders = []string{
	"Adres", "Lokal", "Licznik", "Rok",
	"Zużycie roczne", "Zużycie rok wcześniej", "Różnica", "Zmiana %", "Trend", "Uwagi",
}

// WriteYearOverYear renders the comparison rows into a standalone xlsx file.
func WriteYearOverYear(rows []report.YoYRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", yoySheet); err != nil {
		return nil, err
	}
	st := newStyler(f)

	for i, h := range yoyHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(yoySheet, cell, h); err != nil {
			return nil, err
		}
	}
	for ri, r := range rows {
		change := interface{}(notAvailable)
		if r.ChangePercent != nil {
			change = r.ChangePercent.InexactFloat64()
		}
		values := []interface{}{
			r.Address, r.Apartment, r.Metric, r.Year,
			r.Consumption.InexactFloat64(), r.PrevConsumption.InexactFloat64(),
			r.Difference.InexactFloat64(), change, r.Trend,
			strings.Join(r.Notes, "; "),
		}
		for ci, v := range values {
			cell, _ := excelize.CoordinatesToCellName(ci+1, ri+2)
			if err := f.SetCellValue(yoySheet, cell, v); err != nil {
				return nil, err
			}
		}

		if len(r.Notes) > 0 {
			id, err := st.id(styleKey{style: report.StyleWarning})
			if err != nil {
				return nil, err
			}
			cell, _ := excelize.CoordinatesToCellName(len(values), ri+2)
			if err := f.SetCellStyle(yoySheet, cell, cell, id); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// optFloat converts a nullable decimal for SetCellValue; nil stays nil and is
// rendered as "N/D" by the caller.
func optFloat(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.InexactFloat64()
}
