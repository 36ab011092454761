package httpserver

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"

	"licznik/internal/analysis"
	"licznik/internal/workbook"
)

// handleUpload handles POST /uploads: a multipart batch of source sheets is
// parsed, merged into one workbook and registered as an analysis session.
// Files that fail to parse are reported per file without failing the batch.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart request: %v", err))
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		respondError(w, http.StatusBadRequest, "field 'files' must contain at least one file")
		return
	}

	userID := r.Header.Get("X-User-ID")
	batchID := uuid.NewString()

	type parsedFile struct {
		name string
		data []byte
	}
	var (
		records   []FileUploadRecord
		workbooks []*workbook.Workbook
		archived  []parsedFile
		names     []string
	)

	for _, fh := range files {
		rec := FileUploadRecord{FileName: fh.Filename, Size: fh.Size}

		data, err := readUploadedFile(fh)
		if err != nil {
			rec.Error = fmt.Sprintf("odczyt pliku: %v", err)
			s.metrics.parseFailures.Inc()
			records = append(records, rec)
			continue
		}

		if !workbook.Accepted(fh.Filename, fh.Header.Get("Content-Type")) {
			rec.Error = workbook.ErrUnsupportedFileType.Error()
			s.metrics.parseFailures.Inc()
			records = append(records, rec)
			continue
		}

		wb, err := workbook.Parse(fh.Filename, data)
		if err != nil {
			rec.Error = err.Error()
			s.metrics.parseFailures.Inc()
			records = append(records, rec)
			continue
		}

		rec.Accepted = true
		rec.Records = len(wb.Records)
		records = append(records, rec)
		workbooks = append(workbooks, wb)
		archived = append(archived, parsedFile{name: fh.Filename, data: data})
		names = append(names, fh.Filename)
		s.metrics.uploadsTotal.Inc()
	}

	resp := UploadResponse{
		BatchID:    batchID,
		FilesCount: len(files),
		Files:      records,
	}

	if len(workbooks) == 0 {
		respondJSON(w, http.StatusBadRequest, resp)
		return
	}

	merged, err := workbook.Merge(workbooks...)
	if err != nil {
		resp.DraftError = err.Error()
		respondJSON(w, http.StatusBadRequest, resp)
		return
	}

	session := s.sessions.Create(merged, names, userID)
	draft := analysis.BuildDraft(session)
	resp.Uploaded = true
	resp.Draft = &draft

	// Archiving is best effort: a failed write must not lose the session.
	if s.archive != nil {
		for _, f := range archived {
			if _, err := s.archive.SaveUpload(batchID, session.ID, userID, f.name, f.data); err != nil {
				log.Printf("[ARCHIVE] Failed to store %s: %v", f.name, err)
			}
		}
	}

	respondJSON(w, http.StatusCreated, resp)
}

func readUploadedFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
