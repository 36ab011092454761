package workbook

import (
	"errors"
	"sort"
)

// Merge combines the workbooks of one upload batch into a single canonical
// Workbook. Headers are unioned in first-seen order and every record's metric
// list is re-aligned to the union, with empty placeholders for metrics a file
// did not carry. Records are never deduplicated across files.
func Merge(workbooks ...*Workbook) (*Workbook, error) {
	if len(workbooks) == 0 {
		return nil, errors.New("brak arkuszy do scalenia")
	}

	var headers []string
	seen := make(map[string]int)
	for _, wb := range workbooks {
		for _, h := range wb.Headers {
			if _, ok := seen[h]; !ok {
				seen[h] = len(headers)
				headers = append(headers, h)
			}
		}
	}

	var records []Record
	for _, wb := range workbooks {
		for _, rec := range wb.Records {
			aligned := make([]Metric, len(headers))
			for i, h := range headers {
				aligned[i] = Metric{Name: h}
			}
			for _, m := range rec.Metrics {
				if idx, ok := seen[m.Name]; ok {
					aligned[idx] = m
				}
			}
			rec.Metrics = aligned
			records = append(records, rec)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Apartment != b.Apartment {
			return a.Apartment < b.Apartment
		}
		af, bf := NormalizeDate(a.DateFrom), NormalizeDate(b.DateFrom)
		if af != bf {
			return af < bf
		}
		return NormalizeDate(a.DateTo) < NormalizeDate(b.DateTo)
	})

	return &Workbook{Headers: headers, Records: records}, nil
}
