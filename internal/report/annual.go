package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Annual row statuses.
const (
	AnnualStatusOK     = "OK"
	AnnualStatusReview = "Wymaga sprawdzenia"
)

// AnnualRow is the rollup of one (address, apartment, metric) group over one
// fully-covered calendar year.
type AnnualRow struct {
	Address             string           `json:"address"`
	Apartment           string           `json:"apartment"`
	Metric              string           `json:"metric"`
	Year                int              `json:"year"`
	Periods             int              `json:"periods"`
	ReportedConsumption decimal.Decimal  `json:"reportedConsumption"`
	ComputedConsumption *decimal.Decimal `json:"computedConsumption,omitempty"`
	ReportedTotal       decimal.Decimal  `json:"reportedTotal"`
	ComputedTotal       *decimal.Decimal `json:"computedTotal,omitempty"`
	Difference          *decimal.Decimal `json:"difference,omitempty"`
	Status              string           `json:"status"`
}

type dayInterval struct {
	from, to time.Time // inclusive UTC days
}

// BuildAnnual emits one row per (address, apartment, metric, year) whenever
// the year is fully covered by the group's periods: the periods, clipped to
// the year and merged with overlapping or adjacent neighbours (gap of at most
// one day), must form a single interval spanning Jan 1 through Dec 31.
func BuildAnnual(rows []Row) []AnnualRow {
	groups := make(map[groupKey][]Row)
	var keys []groupKey
	for _, r := range rows {
		k := groupKey{r.Address, r.Apartment, r.Metric}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], r)
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

	var out []AnnualRow
	for _, k := range keys {
		grs := groups[k]
		for _, year := range candidateYears(grs) {
			if !yearFullyCovered(grs, year) {
				continue
			}
			out = append(out, rollupYear(k, grs, year))
		}
	}
	return out
}

func candidateYears(rows []Row) []int {
	seen := make(map[int]bool)
	var years []int
	for _, r := range rows {
		iv, ok := interval(r)
		if !ok {
			continue
		}
		for y := iv.from.Year(); y <= iv.to.Year(); y++ {
			if !seen[y] {
				seen[y] = true
				years = append(years, y)
			}
		}
	}
	sort.Ints(years)
	return years
}

func interval(r Row) (dayInterval, bool) {
	if r.PeriodFrom == "" || r.PeriodTo == "" {
		return dayInterval{}, false
	}
	from, err1 := time.Parse("2006-01-02", r.PeriodFrom)
	to, err2 := time.Parse("2006-01-02", r.PeriodTo)
	if err1 != nil || err2 != nil || to.Before(from) {
		return dayInterval{}, false
	}
	return dayInterval{from: from.UTC(), to: to.UTC()}, true
}

func yearFullyCovered(rows []Row, year int) bool {
	yearStart := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)

	var clipped []dayInterval
	for _, r := range rows {
		iv, ok := interval(r)
		if !ok {
			continue
		}
		if iv.to.Before(yearStart) || iv.from.After(yearEnd) {
			continue
		}
		if iv.from.Before(yearStart) {
			iv.from = yearStart
		}
		if iv.to.After(yearEnd) {
			iv.to = yearEnd
		}
		clipped = append(clipped, iv)
	}
	if len(clipped) == 0 {
		return false
	}

	sort.Slice(clipped, func(i, j int) bool {
		return clipped[i].from.Before(clipped[j].from)
	})

	merged := clipped[0]
	for _, iv := range clipped[1:] {
		// Adjacent means a gap of at most one day between consecutive periods.
		if iv.from.Sub(merged.to) > 48*time.Hour {
			return false
		}
		if iv.to.After(merged.to) {
			merged.to = iv.to
		}
	}
	return !merged.from.After(yearStart) && !merged.to.Before(yearEnd)
}

func rollupYear(k groupKey, rows []Row, year int) AnnualRow {
	yearStart := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)

	out := AnnualRow{
		Address:   k.address,
		Apartment: k.apartment,
		Metric:    k.metric,
		Year:      year,
		Status:    AnnualStatusOK,
	}

	var computedConsumption, computedTotal *decimal.Decimal
	review := false
	for _, r := range rows {
		iv, ok := interval(r)
		if !ok || iv.to.Before(yearStart) || iv.from.After(yearEnd) {
			continue
		}
		out.Periods++
		if r.ReportedConsumption != nil {
			out.ReportedConsumption = out.ReportedConsumption.Add(*r.ReportedConsumption)
			if r.ReportedConsumption.Sign() <= 0 {
				review = true
			}
		}
		if r.ReportedTotal != nil {
			out.ReportedTotal = out.ReportedTotal.Add(*r.ReportedTotal)
		}
		if r.ComputedConsumption != nil {
			computedConsumption = addOpt(computedConsumption, *r.ComputedConsumption)
		}
		if r.ComputedTotal != nil {
			computedTotal = addOpt(computedTotal, *r.ComputedTotal)
		}
		if (r.ConsumptionOK != nil && !*r.ConsumptionOK) || (r.ChargeOK != nil && !*r.ChargeOK) {
			review = true
		}
	}

	out.ReportedConsumption = Round2(out.ReportedConsumption)
	out.ReportedTotal = Round2(out.ReportedTotal)
	out.ComputedConsumption = round2p(computedConsumption)
	out.ComputedTotal = round2p(computedTotal)
	if out.ComputedTotal != nil {
		out.Difference = ptr(Round2(out.ReportedTotal.Sub(*out.ComputedTotal)))
		if !withinTolerance(out.ReportedTotal, *out.ComputedTotal) {
			review = true
		}
	}
	if review {
		out.Status = AnnualStatusReview
	}
	return out
}

func addOpt(acc *decimal.Decimal, v decimal.Decimal) *decimal.Decimal {
	if acc == nil {
		return &v
	}
	sum := acc.Add(v)
	return &sum
}
