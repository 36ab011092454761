package report

import (
	"sort"

	"github.com/shopspring/decimal"
)

// RowView is the on-screen form of one detailed row.
type RowView struct {
	Address             string           `json:"address"`
	Apartment           string           `json:"apartment"`
	Metric              string           `json:"metric"`
	DateFrom            string           `json:"dateFrom"`
	DateTo              string           `json:"dateTo"`
	Start               *decimal.Decimal `json:"startValue"`
	End                 *decimal.Decimal `json:"endValue"`
	ReportedConsumption *decimal.Decimal `json:"reportedConsumption"`
	Rate                *decimal.Decimal `json:"rate"`
	ReportedTotal       *decimal.Decimal `json:"reportedTotal"`
	ComputedConsumption *decimal.Decimal `json:"computedConsumption,omitempty"`
	ComputedTotal       *decimal.Decimal `json:"computedTotal,omitempty"`
	ConsumptionOK       *bool            `json:"consumptionValid,omitempty"`
	ChargeOK            *bool            `json:"chargeValid,omitempty"`
}

// MetricTotals aggregates the rows of one metric.
type MetricTotals struct {
	Metric              string           `json:"metric"`
	Rows                int              `json:"rows"`
	ReportedConsumption decimal.Decimal  `json:"reportedConsumption"`
	ReportedTotal       decimal.Decimal  `json:"reportedTotal"`
	ComputedTotal       *decimal.Decimal `json:"computedTotal,omitempty"`
	Difference          *decimal.Decimal `json:"difference,omitempty"`
}

// Summary is the on-screen result of a summary request.
type Summary struct {
	Rows   []RowView      `json:"rows"`
	Totals []MetricTotals `json:"totals"`
}

// Summarize turns detailed rows into on-screen totals. Validation-derived
// fields are withheld when the request disabled validation; everything else
// is rounded to two decimals at this boundary.
func Summarize(rows []Row, req Request) Summary {
	views := make([]RowView, 0, len(rows))
	byMetric := make(map[string]*MetricTotals)
	var order []string

	for _, r := range rows {
		v := RowView{
			Address:             r.Address,
			Apartment:           r.Apartment,
			Metric:              r.Metric,
			DateFrom:            r.DateFrom,
			DateTo:              r.DateTo,
			Start:               round2p(r.Start),
			End:                 round2p(r.End),
			ReportedConsumption: round2p(r.ReportedConsumption),
			Rate:                r.Rate,
			ReportedTotal:       round2p(r.ReportedTotal),
		}
		if req.IncludeValidation {
			v.ComputedConsumption = round2p(r.ComputedConsumption)
			v.ComputedTotal = round2p(r.ComputedTotal)
			v.ConsumptionOK = r.ConsumptionOK
			v.ChargeOK = r.ChargeOK
		}
		views = append(views, v)

		mt, ok := byMetric[r.Metric]
		if !ok {
			mt = &MetricTotals{Metric: r.Metric}
			byMetric[r.Metric] = mt
			order = append(order, r.Metric)
		}
		mt.Rows++
		if r.ReportedConsumption != nil {
			mt.ReportedConsumption = mt.ReportedConsumption.Add(*r.ReportedConsumption)
		}
		if r.ReportedTotal != nil {
			mt.ReportedTotal = mt.ReportedTotal.Add(*r.ReportedTotal)
		}
		if req.IncludeValidation && r.ComputedTotal != nil {
			if mt.ComputedTotal == nil {
				mt.ComputedTotal = ptr(decimal.Decimal{})
			}
			*mt.ComputedTotal = mt.ComputedTotal.Add(*r.ComputedTotal)
		}
	}

	sort.Strings(order)
	totals := make([]MetricTotals, 0, len(order))
	for _, name := range order {
		mt := byMetric[name]
		mt.ReportedConsumption = Round2(mt.ReportedConsumption)
		mt.ReportedTotal = Round2(mt.ReportedTotal)
		if mt.ComputedTotal != nil {
			mt.ComputedTotal = round2p(mt.ComputedTotal)
			mt.Difference = ptr(Round2(mt.ReportedTotal.Sub(*mt.ComputedTotal)))
		}
		totals = append(totals, *mt)
	}

	return Summary{Rows: views, Totals: totals}
}
