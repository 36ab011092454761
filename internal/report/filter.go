package report

import (
	"github.com/shopspring/decimal"

	"licznik/internal/workbook"
)

// Request selects and shapes the detailed rows derived from one session's
// workbook. Empty Metrics means every available metric.
type Request struct {
	Apartment         string   `json:"apartment,omitempty"`
	DateFrom          string   `json:"dateFrom,omitempty"`
	DateTo            string   `json:"dateTo,omitempty"`
	Metrics           []string `json:"metrics,omitempty"`
	IncludeValidation bool     `json:"includeValidation,omitempty"`
	OnlyMismatches    bool     `json:"includeOnlyMismatches,omitempty"`
}

// Row is one derived (apartment, period, metric) summary row. Nullable
// numerics stay nil when the raw cell did not parse; validity flags stay nil
// when either side of the comparison is missing. Rows are computed per
// request and never cached.
type Row struct {
	Address   string
	Apartment string
	Metric    string

	DateFrom string // raw value as parsed from the sheet
	DateTo   string
	PeriodFrom string // ISO date or "" when not normalizable
	PeriodTo   string
	PeriodKey  string

	Start               *decimal.Decimal
	End                 *decimal.Decimal
	ReportedConsumption *decimal.Decimal
	Rate                *decimal.Decimal
	ReportedTotal       *decimal.Decimal
	ComputedConsumption *decimal.Decimal
	ComputedTotal       *decimal.Decimal

	ConsumptionOK *bool
	ChargeOK      *bool
}

// BuildRows reduces a workbook into the filtered detailed rows. It is a pure
// function of its inputs: filtering, numeric parsing and validation happen in
// one pass and the workbook is never mutated.
func BuildRows(wb *workbook.Workbook, req Request) []Row {
	metricSet := make(map[string]bool, len(req.Metrics))
	for _, m := range req.Metrics {
		metricSet[m] = true
	}
	reqFrom := workbook.NormalizeDate(req.DateFrom)
	reqTo := workbook.NormalizeDate(req.DateTo)

	var rows []Row
	for _, rec := range wb.Records {
		if req.Apartment != "" && rec.Apartment != req.Apartment {
			continue
		}
		recFrom := workbook.NormalizeDate(rec.DateFrom)
		recTo := workbook.NormalizeDate(rec.DateTo)
		if !periodIntersects(recFrom, recTo, reqFrom, reqTo) {
			continue
		}

		address, unit := SplitApartment(rec.Apartment)
		for _, m := range rec.Metrics {
			if len(metricSet) > 0 && !metricSet[m.Name] {
				continue
			}
			rows = append(rows, buildRow(rec, m, address, unit, recFrom, recTo))
		}
	}

	if req.OnlyMismatches {
		kept := rows[:0]
		for _, r := range rows {
			if isSuspicious(r) {
				kept = append(kept, r)
			}
		}
		rows = kept
	}
	return rows
}

// periodIntersects reports whether a record's span touches the requested
// inclusive range. Records whose dates do not normalize are always kept:
// ambiguous data must never be silently excluded.
func periodIntersects(recFrom, recTo, reqFrom, reqTo string) bool {
	if recFrom == "" || recTo == "" {
		return true
	}
	if reqFrom != "" && recTo < reqFrom {
		return false
	}
	if reqTo != "" && recFrom > reqTo {
		return false
	}
	return true
}

func buildRow(rec workbook.Record, m workbook.Metric, address, unit, recFrom, recTo string) Row {
	row := Row{
		Address:    address,
		Apartment:  unit,
		Metric:     m.Name,
		DateFrom:   rec.DateFrom,
		DateTo:     rec.DateTo,
		PeriodFrom: recFrom,
		PeriodTo:   recTo,
	}
	if recFrom != "" && recTo != "" {
		row.PeriodKey = recFrom + ".." + recTo
	} else {
		row.PeriodKey = rec.DateFrom + ".." + rec.DateTo
	}

	row.Start = parseOpt(m.StartValue)
	row.End = parseOpt(m.EndValue)
	row.ReportedConsumption = parseOpt(m.Consumption)
	row.Rate = parseOpt(m.Rate)
	row.ReportedTotal = parseOpt(m.Total)

	if row.Start != nil && row.End != nil {
		row.ComputedConsumption = round2p(ptr(row.End.Sub(*row.Start)))
	}
	if row.ReportedConsumption != nil && row.Rate != nil {
		row.ComputedTotal = round2p(ptr(row.ReportedConsumption.Mul(*row.Rate)))
	}

	if row.ReportedConsumption != nil && row.ComputedConsumption != nil {
		row.ConsumptionOK = ptr(withinTolerance(*row.ReportedConsumption, *row.ComputedConsumption))
	}
	if row.ReportedTotal != nil && row.ComputedTotal != nil {
		row.ChargeOK = ptr(withinTolerance(*row.ReportedTotal, *row.ComputedTotal))
	}
	return row
}

// isSuspicious keeps a row in "only mismatches" mode: any failed validation,
// or non-positive reported usage, which is surfaced even when the
// reconciliation itself adds up.
func isSuspicious(r Row) bool {
	if r.ConsumptionOK != nil && !*r.ConsumptionOK {
		return true
	}
	if r.ChargeOK != nil && !*r.ChargeOK {
		return true
	}
	if r.ReportedConsumption != nil && r.ReportedConsumption.Sign() <= 0 {
		return true
	}
	return false
}

func parseOpt(s string) *decimal.Decimal {
	if d, ok := ParseNumber(s); ok {
		return &d
	}
	return nil
}

func ptr[T any](v T) *T { return &v }
