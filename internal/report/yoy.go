package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Year-over-year trend labels.
const (
	TrendFlat = "Bez zmian"
	TrendUp   = "Wzrost"
	TrendDown = "Spadek"
)

// Cross-check notes attached to comparison rows.
const (
	NoteContinuity = "Niezgodność odczytów między kolejnymi okresami"
	NoteSumDiverge = "Zużycie roczne odbiega od sumy okresów"
	NoteMonthEnd   = "Ostatni okres nie kończy się w wybranym miesiącu"
)

// YoYRow compares one group's annual consumption against the previous year.
type YoYRow struct {
	Address         string           `json:"address"`
	Apartment       string           `json:"apartment"`
	Metric          string           `json:"metric"`
	Year            int              `json:"year"`
	Consumption     decimal.Decimal  `json:"consumption"`
	PrevConsumption decimal.Decimal  `json:"previousConsumption"`
	Difference      decimal.Decimal  `json:"difference"`
	ChangePercent   *decimal.Decimal `json:"changePercent"`
	Trend           string           `json:"trend"`
	Notes           []string         `json:"notes,omitempty"`
}

type yearFigure struct {
	consumption decimal.Decimal
	notes       []string
}

// BuildYearOverYear derives annual consumption per (address, apartment,
// metric, year) from meter-reading continuity: last period's end reading
// minus first period's start reading, periods sorted chronologically. A row
// is emitted for every year whose predecessor also has a figure. month is the
// requested comparison month (1-12); a year whose last period does not end in
// that month is annotated.
func BuildYearOverYear(rows []Row, month int) []YoYRow {
	if month < 1 || month > 12 {
		month = 12
	}

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

	var out []YoYRow
	for _, k := range keys {
		figures := annualFigures(groups[k], month)

		var years []int
		for y := range figures {
			years = append(years, y)
		}
		sort.Ints(years)

		for _, y := range years {
			prev, ok := figures[y-1]
			if !ok {
				continue
			}
			cur := figures[y]
			diff := Round2(cur.consumption.Sub(prev.consumption))

			row := YoYRow{
				Address:         k.address,
				Apartment:       k.apartment,
				Metric:          k.metric,
				Year:            y,
				Consumption:     Round2(cur.consumption),
				PrevConsumption: Round2(prev.consumption),
				Difference:      diff,
				Notes:           cur.notes,
			}
			if prev.consumption.Abs().Cmp(Tolerance) > 0 {
				pct := diff.Div(prev.consumption).Mul(decimal.NewFromInt(100))
				row.ChangePercent = ptr(Round2(pct))
			}
			switch {
			case diff.Abs().Cmp(Tolerance) <= 0:
				row.Trend = TrendFlat
			case diff.Sign() > 0:
				row.Trend = TrendUp
			default:
				row.Trend = TrendDown
			}
			out = append(out, row)
		}
	}
	return out
}

// annualFigures computes the per-year consumption of one group. Periods are
// assigned to the year their start date falls in; both boundary readings must
// be present for the year to produce a figure.
func annualFigures(rows []Row, month int) map[int]yearFigure {
	byYear := make(map[int][]Row)
	for _, r := range rows {
		iv, ok := interval(r)
		if !ok {
			continue
		}
		byYear[iv.from.Year()] = append(byYear[iv.from.Year()], r)
	}

	figures := make(map[int]yearFigure)
	for year, periods := range byYear {
		sort.Slice(periods, func(i, j int) bool {
			if periods[i].PeriodFrom != periods[j].PeriodFrom {
				return periods[i].PeriodFrom < periods[j].PeriodFrom
			}
			return periods[i].PeriodTo < periods[j].PeriodTo
		})

		first, last := periods[0], periods[len(periods)-1]
		if first.Start == nil || last.End == nil {
			continue
		}
		fig := yearFigure{consumption: last.End.Sub(*first.Start)}

		for i := 1; i < len(periods); i++ {
			prevEnd, curStart := periods[i-1].End, periods[i].Start
			if prevEnd != nil && curStart != nil && !withinTolerance(*prevEnd, *curStart) {
				fig.notes = appendOnce(fig.notes, NoteContinuity)
			}
		}

		var periodSum decimal.Decimal
		haveSum := false
		for _, p := range periods {
			if p.ReportedConsumption != nil {
				periodSum = periodSum.Add(*p.ReportedConsumption)
				haveSum = true
			}
		}
		if haveSum && !withinTolerance(fig.consumption, periodSum) {
			fig.notes = appendOnce(fig.notes, NoteSumDiverge)
		}

		if end, err := time.Parse("2006-01-02", last.PeriodTo); err == nil {
			if int(end.Month()) != month {
				fig.notes = appendOnce(fig.notes, NoteMonthEnd)
			}
		}

		figures[year] = fig
	}
	return figures
}

func appendOnce(notes []string, note string) []string {
	for _, n := range notes {
		if n == note {
			return notes
		}
	}
	return append(notes, note)
}
