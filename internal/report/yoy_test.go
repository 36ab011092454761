package report

import (
	"testing"

	"licznik/internal/workbook"
)

func TestBuildYearOverYear_Decrease(t *testing.T) {
	wb := &workbook.Workbook{Headers: []string{"Woda"}}
	block(wb, "A/1", "2022-01-01", "2022-12-31", woda("1000", "1100", "100", "2", "200"))
	block(wb, "A/1", "2023-01-01", "2023-12-31", woda("1100", "1180", "80", "2", "160"))

	rows := BuildYearOverYear(BuildRows(wb, Request{}), 12)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1 (only 2023 has a predecessor)", len(rows))
	}
	r := rows[0]
	if r.Year != 2023 {
		t.Errorf("year = %d, want 2023", r.Year)
	}
	if r.Consumption.String() != "80" || r.PrevConsumption.String() != "100" {
		t.Errorf("consumption = %s (prev %s), want 80 (prev 100)", r.Consumption, r.PrevConsumption)
	}
	if r.Difference.String() != "-20" {
		t.Errorf("difference = %s, want -20", r.Difference)
	}
	if r.ChangePercent == nil || r.ChangePercent.String() != "-20" {
		t.Errorf("changePercent = %v, want -20", r.ChangePercent)
	}
	if r.Trend != TrendDown {
		t.Errorf("trend = %q, want %q", r.Trend, TrendDown)
	}
	if len(r.Notes) != 0 {
		t.Errorf("notes = %v, want none", r.Notes)
	}
}

func TestBuildYearOverYear_AnnualFromReadingContinuity(t *testing.T) {
	wb := &workbook.Workbook{Headers: []string{"Woda"}}
	// Two half-year periods: annual figure must come from the boundary
	// readings, not from summing consumptions.
	block(wb, "A/1", "2022-01-01", "2022-12-31", woda("0", "50", "50", "1", "50"))
	block(wb, "A/1", "2023-01-01", "2023-06-30", woda("50", "80", "30", "1", "30"))
	block(wb, "A/1", "2023-07-01", "2023-12-31", woda("80", "120", "40", "1", "40"))

	rows := BuildYearOverYear(BuildRows(wb, Request{}), 12)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].Consumption.String() != "70" {
		t.Errorf("2023 consumption = %s, want 70 (120-50)", rows[0].Consumption)
	}
	if rows[0].Trend != TrendUp {
		t.Errorf("trend = %q, want %q", rows[0].Trend, TrendUp)
	}
}

func TestBuildYearOverYear_ContinuityNote(t *testing.T) {
	wb := &workbook.Workbook{Headers: []string{"Woda"}}
	block(wb, "A/1", "2022-01-01", "2022-12-31", woda("0", "50", "50", "1", "50"))
	// 2023 second period starts at 90 although the first ended at 80.
	block(wb, "A/1", "2023-01-01", "2023-06-30", woda("50", "80", "30", "1", "30"))
	block(wb, "A/1", "2023-07-01", "2023-12-31", woda("90", "120", "30", "1", "30"))

	rows := BuildYearOverYear(BuildRows(wb, Request{}), 12)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if !hasNote(rows[0].Notes, NoteContinuity) {
		t.Errorf("notes = %v, want continuity note", rows[0].Notes)
	}
}

func TestBuildYearOverYear_SumDivergenceNote(t *testing.T) {
	wb := &workbook.Workbook{Headers: []string{"Woda"}}
	block(wb, "A/1", "2022-01-01", "2022-12-31", woda("0", "50", "50", "1", "50"))
	// Readings say 60 for 2023 but the reported consumption says 40.
	block(wb, "A/1", "2023-01-01", "2023-12-31", woda("50", "110", "40", "1", "40"))

	rows := BuildYearOverYear(BuildRows(wb, Request{}), 12)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if !hasNote(rows[0].Notes, NoteSumDiverge) {
		t.Errorf("notes = %v, want sum-divergence note", rows[0].Notes)
	}
}

func TestBuildYearOverYear_MonthEndNote(t *testing.T) {
	wb := &workbook.Workbook{Headers: []string{"Woda"}}
	block(wb, "A/1", "2022-01-01", "2022-12-31", woda("0", "50", "50", "1", "50"))
	block(wb, "A/1", "2023-01-01", "2023-12-31", woda("50", "100", "50", "1", "50"))

	rows := BuildYearOverYear(BuildRows(wb, Request{}), 6)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if !hasNote(rows[0].Notes, NoteMonthEnd) {
		t.Errorf("notes = %v, want month-end note (period ends in December, not June)", rows[0].Notes)
	}
}

func TestBuildYearOverYear_FlatTrendAndZeroBase(t *testing.T) {
	wb := &workbook.Workbook{Headers: []string{"Woda"}}
	block(wb, "A/1", "2022-01-01", "2022-12-31", woda("100", "100", "0", "1", "0"))
	block(wb, "A/1", "2023-01-01", "2023-12-31", woda("100", "100", "0", "1", "0"))

	rows := BuildYearOverYear(BuildRows(wb, Request{}), 12)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].Trend != TrendFlat {
		t.Errorf("trend = %q, want %q", rows[0].Trend, TrendFlat)
	}
	if rows[0].ChangePercent != nil {
		t.Errorf("changePercent = %v, want nil (base consumption is zero)", rows[0].ChangePercent)
	}
}

func TestBuildYearOverYear_MissingReadingSkipsYear(t *testing.T) {
	wb := &workbook.Workbook{Headers: []string{"Woda"}}
	block(wb, "A/1", "2022-01-01", "2022-12-31", woda("", "100", "100", "1", "100"))
	block(wb, "A/1", "2023-01-01", "2023-12-31", woda("100", "180", "80", "1", "80"))

	rows := BuildYearOverYear(BuildRows(wb, Request{}), 12)
	if len(rows) != 0 {
		t.Fatalf("rows = %d, want 0 (2022 has no start reading, so no pair)", len(rows))
	}
}

func hasNote(notes []string, want string) bool {
	for _, n := range notes {
		if n == want {
			return true
		}
	}
	return false
}
