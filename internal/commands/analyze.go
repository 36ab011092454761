package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"licznik/internal/output"
	"licznik/internal/report"
	"licznik/internal/ui"
	"licznik/internal/workbook"
)

// AnalyzeOptions narrows the one-shot analysis.
type AnalyzeOptions struct {
	Apartment      string
	Metrics        []string
	OnlyMismatches bool
}

// analyzeResult is the JSON-mode payload of `licznik analyze`.
type analyzeResult struct {
	Files   []string       `json:"files"`
	Records int            `json:"records"`
	Summary report.Summary `json:"summary"`
}

// RunAnalyze parses the given sheets, merges them and prints the validated
// summary. Validation is always on for the CLI path.
func RunAnalyze(paths []string, opts AnalyzeOptions) {
	var workbooks []*workbook.Workbook
	var names []string

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			output.PrintError(fmt.Errorf("odczyt %s: %w", path, err))
			return
		}
		wb, err := workbook.Parse(filepath.Base(path), data)
		if err != nil {
			output.PrintError(fmt.Errorf("%s: %w", path, err))
			return
		}
		workbooks = append(workbooks, wb)
		names = append(names, filepath.Base(path))
	}

	merged, err := workbook.Merge(workbooks...)
	if err != nil {
		output.PrintError(err)
		return
	}

	req := report.Request{
		Apartment:         opts.Apartment,
		Metrics:           opts.Metrics,
		IncludeValidation: true,
		OnlyMismatches:    opts.OnlyMismatches,
	}
	rows := report.BuildRows(merged, req)
	summary := report.Summarize(rows, req)

	result := analyzeResult{
		Files:   names,
		Records: len(merged.Records),
		Summary: summary,
	}
	output.Print(result, func() { renderSummary(result) })
}

func renderSummary(res analyzeResult) {
	ui.ShowHeader("Analiza rozliczeń")
	ui.ShowKeyValue("Pliki", fmt.Sprintf("%d", len(res.Files)))
	ui.ShowKeyValue("Rekordy", fmt.Sprintf("%d", res.Records))
	ui.ShowKeyValue("Wiersze", fmt.Sprintf("%d", len(res.Summary.Rows)))
	fmt.Println()

	problems := 0
	for _, r := range res.Summary.Rows {
		if (r.ConsumptionOK != nil && !*r.ConsumptionOK) || (r.ChargeOK != nil && !*r.ChargeOK) {
			problems++
			ui.ShowWarning("%s %s/%s (%s..%s): zużycie %s, kwota %s",
				r.Metric, r.Address, r.Apartment, r.DateFrom, r.DateTo,
				validityText(r.ConsumptionOK), validityText(r.ChargeOK))
		}
	}
	if problems == 0 {
		ui.ShowSuccess("Wszystkie wiersze zgodne")
	} else {
		ui.ShowError(fmt.Sprintf("Niezgodnych wierszy: %d", problems), nil)
	}
	fmt.Println()

	for _, tot := range res.Summary.Totals {
		line := fmt.Sprintf("%s: zużycie %s, kwota %s", tot.Metric,
			tot.ReportedConsumption.String(), tot.ReportedTotal.String())
		if tot.Difference != nil {
			line += fmt.Sprintf(", różnica %s", tot.Difference.String())
		}
		if tot.Difference != nil && tot.Difference.Abs().Cmp(decimal.Zero) > 0 {
			ui.ShowWarning("%s", line)
		} else {
			ui.ShowInfo("%s", line)
		}
	}
}

func validityText(ok *bool) string {
	switch {
	case ok == nil:
		return "N/D"
	case *ok:
		return "OK"
	default:
		return "Błąd"
	}
}
