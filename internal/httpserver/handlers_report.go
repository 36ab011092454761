package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"licznik/internal/report"
	"licznik/internal/xlsxout"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleSummary handles POST /reports/summary: the filtered detail rows and
// per-metric totals of one session, as JSON.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req SummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	sess, ok := s.session(w, req.SessionID)
	if !ok {
		return
	}

	rows := report.BuildRows(sess.Workbook, req.Request)
	respondJSON(w, http.StatusOK, report.Summarize(rows, req.Request))
}

// handlePivot handles POST /reports/pivot: the multi-period spreadsheet
// export, streamed back as an xlsx attachment.
func (s *Server) handlePivot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req PivotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	sess, ok := s.session(w, req.SessionID)
	if !ok {
		return
	}

	rows := report.BuildRows(sess.Workbook, req.Request)
	pivot := report.BuildPivot(rows, report.NormalizeColumns(req.Columns))

	var annual []report.AnnualRow
	if req.IncludeAnnual {
		annual = report.BuildAnnual(rows)
		if annual == nil {
			annual = []report.AnnualRow{}
		}
	}

	data, err := xlsxout.WritePivot(pivot, annual)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("export failed: %v", err))
		return
	}
	s.metrics.exportsTotal.WithLabelValues("pivot").Inc()
	serveAttachment(w, xlsxout.PivotFilename(sess.ID), data)
}

// handleYearOverYear handles POST /reports/yoy: the year-over-year comparison
// as an xlsx attachment.
func (s *Server) handleYearOverYear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req YoYRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	if req.ComparisonMonth < 0 || req.ComparisonMonth > 12 {
		respondError(w, http.StatusBadRequest, "field 'comparisonMonth' must be between 1 and 12")
		return
	}

	sess, ok := s.session(w, req.SessionID)
	if !ok {
		return
	}

	rows := report.BuildRows(sess.Workbook, req.Request)
	yoy := report.BuildYearOverYear(rows, req.ComparisonMonth)

	data, err := xlsxout.WriteYearOverYear(yoy)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("export failed: %v", err))
		return
	}
	s.metrics.exportsTotal.WithLabelValues("yoy").Inc()
	serveAttachment(w, xlsxout.YoYFilename(sess.ID), data)
}

func serveAttachment(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		// Client went away mid-download; nothing to clean up.
		return
	}
}
