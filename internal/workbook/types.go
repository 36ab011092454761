package workbook

// Metric holds the five readings of one meter within one billing block.
// All values are raw display strings (possibly locale-formatted numbers);
// parsing happens lazily in the report layer.
type Metric struct {
	Name        string `json:"metric"`
	StartValue  string `json:"startValue"`
	EndValue    string `json:"endValue"`
	Consumption string `json:"consumption"`
	Rate        string `json:"rate"`
	Total       string `json:"total"`
}

// Record is one apartment-period block: the apartment label (which may encode
// "address/unit"), the period boundaries and one Metric per header column.
type Record struct {
	Apartment string   `json:"apartment"`
	DateFrom  string   `json:"dateFrom"`
	DateTo    string   `json:"dateTo"`
	Metrics   []Metric `json:"metrics"`
}

// Workbook is the parsed form of one billing spreadsheet (or of several merged
// ones). Invariant: after Merge every record's Metrics slice is aligned 1:1 to
// Headers, with empty placeholders where a file lacked a metric.
type Workbook struct {
	Headers []string `json:"headers"`
	Records []Record `json:"records"`
}
