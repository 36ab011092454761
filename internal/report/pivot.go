package report

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Style is the closed set of cell style tags consumed by the spreadsheet
// writer. The engine never deals in style details, only in these tags.
type Style int

const (
	StyleNone Style = iota
	StyleOK
	StyleError
	StyleZero
	StyleNegative
	StyleWarning
)

func (s Style) String() string {
	switch s {
	case StyleOK:
		return "ok"
	case StyleError:
		return "error"
	case StyleZero:
		return "zero"
	case StyleNegative:
		return "negative"
	case StyleWarning:
		return "warning"
	default:
		return "none"
	}
}

// Column identifies one export column within each period block.
type Column string

const (
	ColPrevReading         Column = "previousReading"
	ColCurrReading         Column = "currentReading"
	ColReportedConsumption Column = "reportedConsumption"
	ColComputedConsumption Column = "computedConsumption"
	ColConsumptionStatus   Column = "consumptionStatus"
	ColRate                Column = "rate"
	ColReportedTotal       Column = "reportedTotal"
	ColComputedTotal       Column = "computedTotal"
	ColTotalStatus         Column = "totalStatus"
)

// DefaultColumns is the full ordered column set used when a request names none.
var DefaultColumns = []Column{
	ColPrevReading,
	ColCurrReading,
	ColReportedConsumption,
	ColComputedConsumption,
	ColConsumptionStatus,
	ColRate,
	ColReportedTotal,
	ColComputedTotal,
	ColTotalStatus,
}

var columnLabels = map[Column]string{
	ColPrevReading:         "Odczyt poprzedni",
	ColCurrReading:         "Odczyt bieżący",
	ColReportedConsumption: "Zużycie wykazane",
	ColComputedConsumption: "Zużycie obliczone",
	ColConsumptionStatus:   "Status zużycia",
	ColRate:                "Stawka",
	ColReportedTotal:       "Kwota wykazana",
	ColComputedTotal:       "Kwota obliczona",
	ColTotalStatus:         "Status kwoty",
}

// Label returns the header text for a column.
func (c Column) Label() string {
	if l, ok := columnLabels[c]; ok {
		return l
	}
	return string(c)
}

// NormalizeColumns validates a requested column subset, falling back to the
// full default set when the request names none.
func NormalizeColumns(requested []string) []Column {
	if len(requested) == 0 {
		return DefaultColumns
	}
	want := make(map[Column]bool, len(requested))
	for _, r := range requested {
		want[Column(r)] = true
	}
	var cols []Column
	for _, c := range DefaultColumns {
		if want[c] {
			cols = append(cols, c)
		}
	}
	if len(cols) == 0 {
		return DefaultColumns
	}
	return cols
}

// FixedFeeMetric is matched case-insensitively against metric names; matching
// rows feed the cross-apartment fixed-fee rollup.
const FixedFeeMetric = "opłata stała"

// Period is one distinct (dateFrom, dateTo) pair across the filtered rows.
type Period struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Cell is one styled export cell. A nil *Cell in a PivotRow means the group
// has no data for that period. Zero is carried separately from Style because
// an exact zero always renders in the distinguishing font, whatever other tag
// the cell ends up with.
type Cell struct {
	Value   *decimal.Decimal `json:"value,omitempty"`
	Text    string           `json:"text,omitempty"`
	Style   Style            `json:"style"`
	Zero    bool             `json:"zero,omitempty"`
	Outlier bool             `json:"outlier,omitempty"`
}

// PivotRow is one (address, apartment, metric) group with one cell-set per
// period: Cells[periodIdx][columnIdx].
type PivotRow struct {
	Address   string    `json:"address"`
	Apartment string    `json:"apartment"`
	Metric    string    `json:"metric"`
	Cells     [][]*Cell `json:"cells"`
}

// Pivot is the full export table description. Rendering it into a binary
// spreadsheet is the writer's job.
type Pivot struct {
	Periods          []Period                   `json:"periods"`
	Columns          []Column                   `json:"columns"`
	Rows             []PivotRow                 `json:"rows"`
	OutlierAddresses []string                   `json:"outlierAddresses"`
	FixedFeeByPeriod map[string]decimal.Decimal `json:"fixedFeeByPeriod"`
}

type groupKey struct {
	address, apartment, metric string
}

// BuildPivot assembles the multi-period export table from filtered rows.
func BuildPivot(rows []Row, cols []Column) Pivot {
	if len(cols) == 0 {
		cols = DefaultColumns
	}
	periods := collectPeriods(rows)
	periodIdx := make(map[string]int, len(periods))
	for i, p := range periods {
		periodIdx[p.Key] = i
	}

	outliers := detectRateOutliers(rows)

	groups := make(map[groupKey]map[string]Row)
	var keys []groupKey
	fixedFee := make(map[string]decimal.Decimal)
	outlierAddrs := make(map[string]bool)

	for _, r := range rows {
		k := groupKey{r.Address, r.Apartment, r.Metric}
		if _, ok := groups[k]; !ok {
			groups[k] = make(map[string]Row)
			keys = append(keys, k)
		}
		groups[k][r.PeriodKey] = r

		if strings.EqualFold(r.Metric, FixedFeeMetric) && r.ReportedTotal != nil {
			fixedFee[r.PeriodKey] = Round2(fixedFee[r.PeriodKey].Add(*r.ReportedTotal))
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.address != b.address {
			return a.address < b.address
		}
		if c := CompareApartments(a.apartment, b.apartment); c != 0 {
			return c < 0
		}
		return a.metric < b.metric
	})

	pivotRows := make([]PivotRow, 0, len(keys))
	for _, k := range keys {
		pr := PivotRow{
			Address:   k.address,
			Apartment: k.apartment,
			Metric:    k.metric,
			Cells:     make([][]*Cell, len(periods)),
		}
		for key, r := range groups[k] {
			pi, ok := periodIdx[key]
			if !ok {
				continue
			}
			outlier := outliers[outlierKey{r.Metric, r.PeriodKey, rateString(r.Rate)}]
			if outlier {
				outlierAddrs[r.Address] = true
			}
			cells := make([]*Cell, len(cols))
			for ci, col := range cols {
				cells[ci] = buildCell(r, col, outlier)
			}
			pr.Cells[pi] = cells
		}
		pivotRows = append(pivotRows, pr)
	}

	addrs := make([]string, 0, len(outlierAddrs))
	for a := range outlierAddrs {
		addrs = append(addrs, a)
	}
	sort.Strings(addrs)

	return Pivot{
		Periods:          periods,
		Columns:          cols,
		Rows:             pivotRows,
		OutlierAddresses: addrs,
		FixedFeeByPeriod: fixedFee,
	}
}

func collectPeriods(rows []Row) []Period {
	seen := make(map[string]Period)
	for _, r := range rows {
		if _, ok := seen[r.PeriodKey]; ok {
			continue
		}
		from, to := r.PeriodFrom, r.PeriodTo
		if from == "" {
			from = r.DateFrom
		}
		if to == "" {
			to = r.DateTo
		}
		seen[r.PeriodKey] = Period{
			From:  from,
			To:    to,
			Key:   r.PeriodKey,
			Label: from + " do " + to,
		}
	}
	periods := make([]Period, 0, len(seen))
	for _, p := range seen {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool {
		if periods[i].From != periods[j].From {
			return periods[i].From < periods[j].From
		}
		return periods[i].To < periods[j].To
	})
	return periods
}

type outlierKey struct {
	metric, periodKey, rate string
}

// detectRateOutliers finds, per (metric, period), the most frequent rate and
// flags every distinct rate differing from it beyond tolerance. Frequency
// ties resolve to the smaller rate so the result is deterministic.
func detectRateOutliers(rows []Row) map[outlierKey]bool {
	type mp struct{ metric, periodKey string }
	counts := make(map[mp]map[string]int)
	values := make(map[mp]map[string]decimal.Decimal)

	for _, r := range rows {
		if r.Rate == nil {
			continue
		}
		k := mp{r.Metric, r.PeriodKey}
		if counts[k] == nil {
			counts[k] = make(map[string]int)
			values[k] = make(map[string]decimal.Decimal)
		}
		s := rateString(r.Rate)
		counts[k][s]++
		values[k][s] = *r.Rate
	}

	flagged := make(map[outlierKey]bool)
	for k, byRate := range counts {
		var mode decimal.Decimal
		best := -1
		for s, n := range byRate {
			v := values[k][s]
			if n > best || (n == best && v.Cmp(mode) < 0) {
				best, mode = n, v
			}
		}
		for s, v := range values[k] {
			if !withinTolerance(v, mode) {
				flagged[outlierKey{k.metric, k.periodKey, s}] = true
			}
		}
	}
	return flagged
}

func rateString(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func buildCell(r Row, col Column, outlier bool) *Cell {
	switch col {
	case ColPrevReading:
		return numericCell(r.Start, false)
	case ColCurrReading:
		return numericCell(r.End, false)
	case ColReportedConsumption:
		return numericCell(r.ReportedConsumption, false)
	case ColComputedConsumption:
		return numericCell(r.ComputedConsumption, false)
	case ColConsumptionStatus:
		return statusCell(r.ConsumptionOK)
	case ColRate:
		return numericCell(r.Rate, outlier)
	case ColReportedTotal:
		return numericCell(r.ReportedTotal, false)
	case ColComputedTotal:
		return numericCell(r.ComputedTotal, false)
	case ColTotalStatus:
		return statusCell(r.ChargeOK)
	default:
		return &Cell{Text: "N/D", Style: StyleWarning}
	}
}

func numericCell(v *decimal.Decimal, outlier bool) *Cell {
	if v == nil {
		return &Cell{Text: "N/D", Style: StyleWarning, Outlier: outlier}
	}
	rounded := Round2(*v)
	c := &Cell{Value: &rounded, Outlier: outlier}
	switch rounded.Sign() {
	case 0:
		c.Style = StyleZero
		c.Zero = true
	case -1:
		c.Style = StyleNegative
	}
	return c
}

func statusCell(ok *bool) *Cell {
	switch {
	case ok == nil:
		return &Cell{Text: "N/D", Style: StyleWarning}
	case *ok:
		return &Cell{Text: "OK", Style: StyleOK}
	default:
		return &Cell{Text: "Błąd", Style: StyleError}
	}
}
