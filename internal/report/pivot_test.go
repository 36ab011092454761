package report

import (
	"testing"

	"licznik/internal/workbook"
)

func TestBuildPivot_PeriodsOrderedAndDistinct(t *testing.T) {
	wb := &workbook.Workbook{Headers: []string{"Woda"}}
	block(wb, "A/1", "2023-07-01", "2023-12-31", woda("2", "3", "1", "1", "1"))
	block(wb, "A/1", "2023-01-01", "2023-06-30", woda("1", "2", "1", "1", "1"))
	block(wb, "A/2", "2023-01-01", "2023-06-30", woda("1", "2", "1", "1", "1"))

	p := BuildPivot(BuildRows(wb, Request{}), nil)
	if len(p.Periods) != 2 {
		t.Fatalf("periods = %d, want 2", len(p.Periods))
	}
	if p.Periods[0].From != "2023-01-01" || p.Periods[1].From != "2023-07-01" {
		t.Errorf("period order = %v", p.Periods)
	}
}

func TestBuildPivot_RowOrdering(t *testing.T) {
	wb := &workbook.Workbook{Headers: []string{"Woda"}}
	block(wb, "Polna/10A", "2023-01-01", "2023-06-30", woda("1", "2", "1", "1", "1"))
	block(wb, "Polna/2A", "2023-01-01", "2023-06-30", woda("1", "2", "1", "1", "1"))
	block(wb, "Polna/1B", "2023-01-01", "2023-06-30", woda("1", "2", "1", "1", "1"))

	p := BuildPivot(BuildRows(wb, Request{}), nil)
	got := make([]string, len(p.Rows))
	for i, r := range p.Rows {
		got[i] = r.Apartment
	}
	want := []string{"1B", "2A", "10A"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row order = %v, want %v", got, want)
		}
	}
}

func TestBuildPivot_MissingPeriodYieldsNilCells(t *testing.T) {
	wb := &workbook.Workbook{Headers: []string{"Woda"}}
	block(wb, "A/1", "2023-01-01", "2023-06-30", woda("1", "2", "1", "1", "1"))
	block(wb, "A/1", "2023-07-01", "2023-12-31", woda("2", "3", "1", "1", "1"))
	block(wb, "A/2", "2023-01-01", "2023-06-30", woda("1", "2", "1", "1", "1"))

	p := BuildPivot(BuildRows(wb, Request{}), nil)
	var a2 *PivotRow
	for i := range p.Rows {
		if p.Rows[i].Apartment == "2" {
			a2 = &p.Rows[i]
		}
	}
	if a2 == nil {
		t.Fatal("missing A/2 row")
	}
	if a2.Cells[0] == nil {
		t.Error("first period must have cells")
	}
	if a2.Cells[1] != nil {
		t.Error("second period must be nil (no data)")
	}
}

func TestBuildPivot_CellStyles(t *testing.T) {
	wb := &workbook.Workbook{Headers: []string{"Woda"}}
	block(wb, "A/1", "2023-01-01", "2023-06-30", woda("100", "100", "0", "2", "-5"))

	p := BuildPivot(BuildRows(wb, Request{}), DefaultColumns)
	cells := p.Rows[0].Cells[0]

	byCol := make(map[Column]*Cell)
	for i, c := range DefaultColumns {
		byCol[c] = cells[i]
	}

	if c := byCol[ColReportedConsumption]; c.Style != StyleZero || !c.Zero {
		t.Errorf("zero consumption cell = %+v, want zero style", c)
	}
	if c := byCol[ColReportedTotal]; c.Style != StyleNegative {
		t.Errorf("negative total cell = %+v, want negative style", c)
	}
	// 0 == 100-100 so consumption reconciles.
	if c := byCol[ColConsumptionStatus]; c.Style != StyleOK || c.Text != "OK" {
		t.Errorf("consumption status cell = %+v, want OK", c)
	}
	// -5 != 0*2 so the charge fails.
	if c := byCol[ColTotalStatus]; c.Style != StyleError || c.Text != "Błąd" {
		t.Errorf("total status cell = %+v, want error", c)
	}
}

func TestBuildPivot_StatusIndeterminate(t *testing.T) {
	wb := &workbook.Workbook{Headers: []string{"Woda"}}
	block(wb, "A/1", "2023-01-01", "2023-06-30", woda("", "100", "50", "", "100"))

	p := BuildPivot(BuildRows(wb, Request{}), []Column{ColConsumptionStatus, ColTotalStatus})
	cells := p.Rows[0].Cells[0]
	for _, c := range cells {
		if c.Style != StyleWarning || c.Text != "N/D" {
			t.Errorf("indeterminate status cell = %+v, want N/D warning", c)
		}
	}
}

func TestBuildPivot_RateOutliers(t *testing.T) {
	wb := &workbook.Workbook{Headers: []string{"Woda"}}
	block(wb, "A/1", "2023-01-01", "2023-06-30", woda("1", "2", "1", "1,0", "1"))
	block(wb, "A/2", "2023-01-01", "2023-06-30", woda("1", "2", "1", "1,0", "1"))
	block(wb, "A/3", "2023-01-01", "2023-06-30", woda("1", "2", "1", "1,0", "1"))
	block(wb, "B/1", "2023-01-01", "2023-06-30", woda("1", "2", "1", "1,2", "1"))

	p := BuildPivot(BuildRows(wb, Request{}), DefaultColumns)

	rateIdx := -1
	for i, c := range p.Columns {
		if c == ColRate {
			rateIdx = i
		}
	}

	for _, row := range p.Rows {
		cell := row.Cells[0][rateIdx]
		wantOutlier := row.Address == "B"
		if cell.Outlier != wantOutlier {
			t.Errorf("%s/%s outlier = %v, want %v", row.Address, row.Apartment, cell.Outlier, wantOutlier)
		}
	}

	if len(p.OutlierAddresses) != 1 || p.OutlierAddresses[0] != "B" {
		t.Errorf("outlier addresses = %v, want [B]", p.OutlierAddresses)
	}
}

func TestBuildPivot_FixedFeeRollup(t *testing.T) {
	fee := func(total string) workbook.Metric {
		return workbook.Metric{Name: "Opłata Stała", Consumption: "1", Rate: total, Total: total}
	}
	wb := &workbook.Workbook{Headers: []string{"Opłata Stała"}}
	block(wb, "A/1", "2023-01-01", "2023-06-30", fee("10,50"))
	block(wb, "A/2", "2023-01-01", "2023-06-30", fee("9,50"))
	block(wb, "A/1", "2023-07-01", "2023-12-31", fee("11,00"))

	p := BuildPivot(BuildRows(wb, Request{}), nil)

	jan := p.FixedFeeByPeriod["2023-01-01..2023-06-30"]
	if jan.String() != "20" {
		t.Errorf("first period fixed fee = %s, want 20", jan.String())
	}
	jul := p.FixedFeeByPeriod["2023-07-01..2023-12-31"]
	if jul.String() != "11" {
		t.Errorf("second period fixed fee = %s, want 11", jul.String())
	}
}
