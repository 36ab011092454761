package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"licznik/internal/analysis"
	"licznik/internal/archive"
	"licznik/internal/report"
)

const testToken = "sekretny-token"

const sampleCSV = "Lokal;Data;Woda\n" +
	"Polna 2/1;2023-01-01;100\n" +
	";2023-06-30;150\n" +
	";;50\n" +
	";;2\n" +
	";;100\n" +
	"Polna 2/3;2023-01-01;200\n" +
	";2023-06-30;230\n" +
	";;30\n" +
	";;2\n" +
	";;61\n"

func newTestServer(t *testing.T) (*httptest.Server, *archive.Store) {
	t.Helper()
	sessions := analysis.NewStore(0)
	t.Cleanup(sessions.Close)

	arch, err := archive.NewStore(filepath.Join(t.TempDir(), "archiwum.db"))
	if err != nil {
		t.Fatalf("archive.NewStore: %v", err)
	}
	t.Cleanup(func() { arch.Close() })

	srv := NewServer(Options{
		Tokens:   []string{testToken},
		Version:  "test",
		Sessions: sessions,
		Archive:  arch,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, arch
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func doUpload(t *testing.T, ts *httptest.Server, files map[string]string) (*http.Response, UploadResponse) {
	t.Helper()
	body, contentType := multipartBody(t, files)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/uploads", body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("X-User-ID", "tester")

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	return resp, out
}

func postJSON(t *testing.T, ts *httptest.Server, path string, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	req, err := http.NewRequest(http.MethodPost, ts.URL+path, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testToken)

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestHealth_NoAuth(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "ok" || health.Version != "test" {
		t.Errorf("health = %+v", health)
	}
}

func TestAuth_Rejections(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"wrong token", "Bearer zly-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodPost, ts.URL+"/uploads", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := ts.Client().Do(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", resp.StatusCode)
			}
		})
	}
}

func TestUpload_CreatesSessionAndArchives(t *testing.T) {
	ts, arch := newTestServer(t)

	resp, out := doUpload(t, ts, map[string]string{"rozliczenie.csv": sampleCSV})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if !out.Uploaded || out.Draft == nil {
		t.Fatalf("upload response = %+v", out)
	}
	if out.Draft.RecordsCount != 2 {
		t.Errorf("recordsCount = %d, want 2", out.Draft.RecordsCount)
	}
	if len(out.Files) != 1 || !out.Files[0].Accepted {
		t.Errorf("files = %+v", out.Files)
	}

	stored, err := arch.ListUploads(out.BatchID)
	if err != nil {
		t.Fatalf("ListUploads: %v", err)
	}
	if len(stored) != 1 || stored[0].FileName != "rozliczenie.csv" {
		t.Errorf("archived = %+v", stored)
	}
	if stored[0].UserID != "tester" {
		t.Errorf("archived userId = %q", stored[0].UserID)
	}
}

func TestUpload_PerFileErrors(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, out := doUpload(t, ts, map[string]string{
		"dobry.csv":   sampleCSV,
		"notatki.txt": "to nie jest arkusz",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (one file parsed)", resp.StatusCode)
	}

	var rejected *FileUploadRecord
	for i := range out.Files {
		if out.Files[i].FileName == "notatki.txt" {
			rejected = &out.Files[i]
		}
	}
	if rejected == nil || rejected.Accepted || rejected.Error == "" {
		t.Errorf("rejected record = %+v", rejected)
	}
}

func TestUpload_AllFilesRejected(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, out := doUpload(t, ts, map[string]string{"notatki.txt": "nie arkusz"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if out.Uploaded || out.Draft != nil {
		t.Errorf("response = %+v", out)
	}
}

func TestSummary_RoundTrip(t *testing.T) {
	ts, _ := newTestServer(t)
	_, up := doUpload(t, ts, map[string]string{"rozliczenie.csv": sampleCSV})

	resp := postJSON(t, ts, "/reports/summary", SummaryRequest{
		SessionID: up.Draft.SessionID,
		Request:   report.Request{IncludeValidation: true},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var summary report.Summary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatal(err)
	}
	if len(summary.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(summary.Rows))
	}
	if len(summary.Totals) != 1 || summary.Totals[0].Metric != "Woda" {
		t.Errorf("totals = %+v", summary.Totals)
	}
}

func TestSummary_UnknownSession(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts, "/reports/summary", SummaryRequest{SessionID: "nieznana"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestSummary_RequiresJSONContentType(t *testing.T) {
	ts, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/reports/summary", strings.NewReader("{}"))
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Content-Type", "text/plain")
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", resp.StatusCode)
	}
}

func TestPivotExport(t *testing.T) {
	ts, _ := newTestServer(t)
	_, up := doUpload(t, ts, map[string]string{"rozliczenie.csv": sampleCSV})

	resp := postJSON(t, ts, "/reports/pivot", PivotRequest{
		SessionID:     up.Draft.SessionID,
		IncludeAnnual: true,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("content type = %q", ct)
	}
	cd := resp.Header.Get("Content-Disposition")
	if !strings.Contains(cd, "zestawienie_") || !strings.Contains(cd, ".xlsx") {
		t.Errorf("content disposition = %q", cd)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 4 || data[0] != 'P' || data[1] != 'K' {
		t.Errorf("body is not an xlsx archive (%d bytes)", len(data))
	}
}

func TestYearOverYearExport(t *testing.T) {
	ts, _ := newTestServer(t)
	_, up := doUpload(t, ts, map[string]string{"rozliczenie.csv": sampleCSV})

	resp := postJSON(t, ts, "/reports/yoy", YoYRequest{
		SessionID:       up.Draft.SessionID,
		ComparisonMonth: 12,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "porownanie_") {
		t.Errorf("content disposition = %q", cd)
	}
}

func TestYearOverYear_BadMonth(t *testing.T) {
	ts, _ := newTestServer(t)
	_, up := doUpload(t, ts, map[string]string{"rozliczenie.csv": sampleCSV})

	resp := postJSON(t, ts, "/reports/yoy", YoYRequest{
		SessionID:       up.Draft.SessionID,
		ComparisonMonth: 13,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/uploads", nil)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", testToken))
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}
