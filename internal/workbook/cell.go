package workbook

import (
	"strconv"
	"strings"
)

// CellKind discriminates the variants of CellValue.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellString
	CellNumber
)

// CellValue is a typed view of a single spreadsheet cell. Spreadsheet readers
// expose cells as loosely-typed values; everything past the ingestion boundary
// works with this variant instead.
type CellValue struct {
	kind CellKind
	str  string
	num  float64
}

// StringCell wraps a display string. Blank strings collapse to the empty cell.
func StringCell(s string) CellValue {
	if strings.TrimSpace(s) == "" {
		return CellValue{}
	}
	return CellValue{kind: CellString, str: s}
}

// NumberCell wraps a numeric cell value.
func NumberCell(f float64) CellValue {
	return CellValue{kind: CellNumber, num: f}
}

// Kind returns the variant of the cell.
func (c CellValue) Kind() CellKind { return c.kind }

// IsEmpty reports whether the cell holds no value.
func (c CellValue) IsEmpty() bool { return c.kind == CellEmpty }

// Text returns the cell content as a trimmed display string.
// The formatted string is preferred over the raw value, so a cell that was
// read as "1 234,56" stays "1 234,56" here.
func (c CellValue) Text() string {
	switch c.kind {
	case CellString:
		return strings.TrimSpace(c.str)
	case CellNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	default:
		return ""
	}
}
