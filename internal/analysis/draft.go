package analysis

import (
	"sort"

	"licznik/internal/report"
	"licznik/internal/workbook"
)

// PeriodRange is the min/max normalized period boundary across a session.
type PeriodRange struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// Draft is the lightweight view of a freshly created session, returned to the
// caller right after upload so the UI can offer filters.
type Draft struct {
	SessionID        string      `json:"sessionId"`
	Apartments       []string    `json:"apartments"`
	Addresses        []string    `json:"addresses"`
	AvailableMetrics []string    `json:"availableMetrics"`
	PeriodRange      PeriodRange `json:"periodRange"`
	RecordsCount     int         `json:"recordsCount"`
	SourceFiles      []string    `json:"sourceFiles"`
}

// BuildDraft summarizes a session's workbook: distinct apartments and
// addresses, the available metrics and the covered date range.
func BuildDraft(s *Session) Draft {
	d := Draft{
		SessionID:        s.ID,
		AvailableMetrics: append([]string(nil), s.Workbook.Headers...),
		RecordsCount:     len(s.Workbook.Records),
		SourceFiles:      s.SourceFiles,
	}

	apartments := make(map[string]bool)
	addresses := make(map[string]bool)
	for _, rec := range s.Workbook.Records {
		apartments[rec.Apartment] = true
		addr, _ := report.SplitApartment(rec.Apartment)
		addresses[addr] = true

		for _, raw := range []string{rec.DateFrom, rec.DateTo} {
			iso := workbook.NormalizeDate(raw)
			if iso == "" {
				continue
			}
			if d.PeriodRange.Min == "" || iso < d.PeriodRange.Min {
				d.PeriodRange.Min = iso
			}
			if iso > d.PeriodRange.Max {
				d.PeriodRange.Max = iso
			}
		}
	}

	d.Apartments = sortedKeys(apartments)
	d.Addresses = sortedKeys(addresses)
	return d
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
