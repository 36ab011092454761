package workbook

import (
	"errors"
	"strings"
	"testing"
)

// buildCSV joins rows into a semicolon-delimited CSV body.
func buildCSV(rows ...string) []byte {
	return []byte(strings.Join(rows, "\n") + "\n")
}

func TestParse_WellFormedBlocks(t *testing.T) {
	data := buildCSV(
		"Lokal;Data;Woda;Prąd",
		"Kwiatowa 1/2;2023-01-01;100,5;200",
		";2023-06-30;150,5;250",
		";;50;50",
		";;9,99;0,80",
		";;499,50;40,00",
		"Kwiatowa 1/3;2023-01-01;10;20",
		";2023-06-30;20;30",
		";;10;10",
		";;9,99;0,80",
		";;99,90;8,00",
	)

	wb, err := Parse("rozliczenie.csv", data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(wb.Headers) != 2 || wb.Headers[0] != "Woda" || wb.Headers[1] != "Prąd" {
		t.Fatalf("headers = %v, want [Woda Prąd]", wb.Headers)
	}
	if len(wb.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(wb.Records))
	}

	rec := wb.Records[0]
	if rec.Apartment != "Kwiatowa 1/2" {
		t.Errorf("apartment = %q", rec.Apartment)
	}
	if rec.DateFrom != "2023-01-01" || rec.DateTo != "2023-06-30" {
		t.Errorf("period = %q..%q", rec.DateFrom, rec.DateTo)
	}
	woda := rec.Metrics[0]
	if woda.StartValue != "100,5" || woda.EndValue != "150,5" {
		t.Errorf("woda readings = %q..%q", woda.StartValue, woda.EndValue)
	}
	if woda.Consumption != "50" || woda.Rate != "9,99" || woda.Total != "499,50" {
		t.Errorf("woda block = %+v", woda)
	}
}

func TestParse_ToleratesStrayRows(t *testing.T) {
	data := buildCSV(
		"Lokal;Data;Woda",
		";;", // stray row before the first block
		"Polna 2/1;2023-01-01;1",
		";2023-12-31;2",
		";;1",
		";;1",
		";;1",
	)

	wb, err := Parse("plik.csv", data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(wb.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(wb.Records))
	}
}

func TestParse_StopsWhenFewerThanFiveRowsRemain(t *testing.T) {
	data := buildCSV(
		"Lokal;Data;Woda",
		"Polna 2/1;2023-01-01;1",
		";2023-12-31;2",
		";;1",
		";;1",
		";;1",
		"Polna 2/2;2024-01-01;5", // truncated block: only 3 of 5 rows
		";2024-12-31;6",
		";;1",
	)

	wb, err := Parse("plik.csv", data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(wb.Records) != 1 {
		t.Fatalf("records = %d, want 1 (truncated block must be dropped)", len(wb.Records))
	}
}

func TestParse_NoMetricColumns(t *testing.T) {
	data := buildCSV(
		"Lokal;Data",
		"Polna 2/1;2023-01-01",
	)
	_, err := Parse("plik.csv", data)
	if !errors.Is(err, ErrMalformedWorkbook) {
		t.Fatalf("err = %v, want ErrMalformedWorkbook", err)
	}
}

func TestParse_EmptySheet(t *testing.T) {
	_, err := Parse("plik.csv", []byte(""))
	if !errors.Is(err, ErrMalformedWorkbook) {
		t.Fatalf("err = %v, want ErrMalformedWorkbook", err)
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2023-01-02", "2023-01-02"},
		{"02.01.2023", "2023-01-02"},
		{"2.1.2023", "2023-01-02"},
		{"02-01-2023", "2023-01-02"},
		{"02/01/2023", "2023-01-02"},
		{"nie-data", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeDate(tt.in); got != tt.want {
			t.Errorf("NormalizeDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAccepted(t *testing.T) {
	tests := []struct {
		name string
		mime string
		want bool
	}{
		{"rozliczenie.xlsx", "", true},
		{"rozliczenie.xls", "", true},
		{"rozliczenie.csv", "", true},
		{"rozliczenie.XLSX", "", true},
		{"dane", "text/csv", true},
		{"dane", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", true},
		{"zdjecie.png", "image/png", false},
		{"dok.pdf", "application/pdf", false},
	}
	for _, tt := range tests {
		if got := Accepted(tt.name, tt.mime); got != tt.want {
			t.Errorf("Accepted(%q, %q) = %v, want %v", tt.name, tt.mime, got, tt.want)
		}
	}
}

func TestSniffDelimiter(t *testing.T) {
	if d := sniffDelimiter([]byte("a;b;c\n1;2;3")); d != ';' {
		t.Errorf("delimiter = %q, want ';'", d)
	}
	if d := sniffDelimiter([]byte("a,b,c\n1,2,3")); d != ',' {
		t.Errorf("delimiter = %q, want ','", d)
	}
}
