package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hardytee1/LED-Automation/internal/config"
	"github.com/hardytee1/LED-Automation/internal/ingest"
	"github.com/hardytee1/LED-Automation/internal/output"
	"github.com/hardytee1/LED-Automation/internal/vectorstore"
)

const testReportUUID = "7b6d02b0-7f4e-4f10-9b7b-1f6f1d1f0001"

type fakeStore struct {
	chunks map[string][]vectorstore.Chunk
}

func (s *fakeStore) Scan(_ context.Context, collection string, required bool) ([]vectorstore.Chunk, error) {
	chunks, ok := s.chunks[collection]
	if !ok {
		if required {
			return nil, vectorstore.ErrCollectionNotFound
		}
		return nil, nil
	}
	return chunks, nil
}

func (s *fakeStore) SimilarityQuery(_ context.Context, collection, _ string, _ int) ([]vectorstore.ScoredChunk, error) {
	var out []vectorstore.ScoredChunk
	for _, c := range s.chunks[collection] {
		out = append(out, vectorstore.ScoredChunk{Chunk: c, Score: 0.9})
	}
	return out, nil
}

func (s *fakeStore) Exists(_ context.Context, collection string) (bool, error) {
	_, ok := s.chunks[collection]
	return ok, nil
}

func (s *fakeStore) Count(_ context.Context, collection string) (int, error) {
	return len(s.chunks[collection]), nil
}

type noopDocStore struct{}

func (noopDocStore) EnsureCollection(context.Context, string) error { return nil }
func (noopDocStore) AddDocuments(context.Context, string, []vectorstore.Document) (int, error) {
	return 0, nil
}

func apiTestConfig() config.Config {
	return config.Config{
		DocumentCollection:       "docs",
		HyperlinkCollection:      "docs_hyperlink",
		HyperlinkSuffix:          "-hyperlink",
		PenetapanAllowedOrders:   []int{0, 5, 10},
		PelaksanaanAllowedOrders: []int{1, 6, 11},
		SectionCollections:       config.DefaultSectionCollections(),
		SimilarityThreshold:      0.6,
		ChunkSize:                1000,
		ChunkOverlap:             200,
		ReferenceTopK:            1,
		NestedReferenceTopK:      1,
		ResultLimit:              8,
		WorkerCount:              1,
		MaxQueueSize:             4,
		MaxUploadBytes:           1 << 20,
	}
}

func docChunk(order int, heading, text string) vectorstore.Chunk {
	return vectorstore.Chunk{
		Text: text,
		Payload: map[string]any{
			"page_content": text,
			"metadata": map[string]any{
				"order":   order,
				"heading": heading,
				"source":  "laporan.pdf",
			},
		},
	}
}

func newTestServer(t *testing.T, store *fakeStore, cfg config.Config) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := output.NewEngine(store, cfg, log)
	orch := ingest.NewOrchestrator(cfg, noopDocStore{}, nil, log)
	return NewServer(engine, orch, nil, log, cfg)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeStore{chunks: map[string][]vectorstore.Chunk{}}, apiTestConfig())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestAuth_RequiredWhenTokenConfigured(t *testing.T) {
	cfg := apiTestConfig()
	cfg.AutomationToken = "secret-token"
	srv := newTestServer(t, &fakeStore{chunks: map[string][]vectorstore.Chunk{}}, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/stats/embedding", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/stats/embedding", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/stats/embedding", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	// Stats are nil in this server, but the request must clear auth.
	if rec.Code == http.StatusUnauthorized {
		t.Fatalf("expected authorized request to pass, got %d", rec.Code)
	}
}

func TestGenerateOutput_InvalidUUID(t *testing.T) {
	srv := newTestServer(t, &fakeStore{chunks: map[string][]vectorstore.Chunk{}}, apiTestConfig())

	req := httptest.NewRequest(http.MethodPost, "/reports/not-a-uuid/outputs/penetapan", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid report UUID.") {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestGenerateOutput_UnsupportedType(t *testing.T) {
	srv := newTestServer(t, &fakeStore{chunks: map[string][]vectorstore.Chunk{}}, apiTestConfig())

	req := httptest.NewRequest(http.MethodPost, "/reports/"+testReportUUID+"/outputs/rekapitulasi", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Unsupported output type 'rekapitulasi'.") {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestGenerateOutput_PenetapanEnvelope(t *testing.T) {
	store := &fakeStore{chunks: map[string][]vectorstore.Chunk{
		"docs": {
			docChunk(0, "Bab I", "Narasi penetapan anggaran."),
			docChunk(5, "Bab II", "Narasi kedua."),
		},
	}}
	srv := newTestServer(t, store, apiTestConfig())

	body := `{"job_key":"job-77","report_id":12,"user_id":3,"metadata":{}}`
	req := httptest.NewRequest(http.MethodPost, "/reports/"+testReportUUID+"/outputs/penetapan", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Status  string         `json:"status"`
		Payload map[string]any `json:"payload"`
		Meta    map[string]any `json:"meta"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "completed" {
		t.Errorf("expected status completed, got %q", resp.Status)
	}
	if resp.Payload["summary"] != "Generated 2 penetapan entries with hyperlink mapping." {
		t.Errorf("unexpected summary %v", resp.Payload["summary"])
	}
	if resp.Meta["job_key"] != "job-77" {
		t.Errorf("expected job_key to round-trip, got %v", resp.Meta["job_key"])
	}
	if resp.Meta["report_id"] != float64(12) {
		t.Errorf("expected report_id 12, got %v", resp.Meta["report_id"])
	}
	if resp.Meta["output_type"] != "penetapan" {
		t.Errorf("expected output_type penetapan, got %v", resp.Meta["output_type"])
	}
	if resp.Meta["generated_at"] == nil {
		t.Error("expected generated_at in meta")
	}
}

func TestGenerateOutput_MissingCollection(t *testing.T) {
	srv := newTestServer(t, &fakeStore{chunks: map[string][]vectorstore.Chunk{}}, apiTestConfig())

	req := httptest.NewRequest(http.MethodPost, "/reports/"+testReportUUID+"/outputs/penetapan", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Collection 'docs' not found") {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func multipartIngestBody(t *testing.T, fields map[string]string, archive []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %q: %v", k, err)
		}
	}
	if archive != nil {
		fw, err := mw.CreateFormFile("archive", "documents.zip")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(archive); err != nil {
			t.Fatalf("write archive: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestIngest_Accepted(t *testing.T) {
	srv := newTestServer(t, &fakeStore{chunks: map[string][]vectorstore.Chunk{}}, apiTestConfig())

	body, contentType := multipartIngestBody(t, map[string]string{
		"batch_id":    "7",
		"report_uuid": testReportUUID,
	}, []byte("zip-bytes"))

	req := httptest.NewRequest(http.MethodPost, "/api/ingest", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	jobID, _ := resp["job_id"].(string)
	if jobID == "" {
		t.Fatal("expected job_id in response")
	}
	if resp["status_url"] != "/api/ingest/"+jobID+"/status" {
		t.Errorf("unexpected status_url %v", resp["status_url"])
	}

	// The orchestrator is not started, so the job stays queued.
	statusReq := httptest.NewRequest(http.MethodGet, "/api/ingest/"+jobID+"/status", nil)
	statusRec := httptest.NewRecorder()
	srv.ServeHTTP(statusRec, statusReq)
	if statusRec.Code != http.StatusOK {
		t.Fatalf("expected 200 for status, got %d", statusRec.Code)
	}
	var snap map[string]any
	if err := json.Unmarshal(statusRec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap["status"] != "queued" {
		t.Errorf("expected queued status, got %v", snap["status"])
	}
	if snap["collection"] != testReportUUID {
		t.Errorf("expected collection %q, got %v", testReportUUID, snap["collection"])
	}
}

func TestIngest_Validation(t *testing.T) {
	srv := newTestServer(t, &fakeStore{chunks: map[string][]vectorstore.Chunk{}}, apiTestConfig())

	body, contentType := multipartIngestBody(t, map[string]string{
		"batch_id":    "x",
		"report_uuid": testReportUUID,
	}, []byte("zip"))
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad batch_id, got %d", rec.Code)
	}

	body, contentType = multipartIngestBody(t, map[string]string{
		"batch_id":    "7",
		"report_uuid": "nope",
	}, []byte("zip"))
	req = httptest.NewRequest(http.MethodPost, "/api/ingest", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bad report_uuid, got %d", rec.Code)
	}
}

func TestIngestStatus_UnknownJob(t *testing.T) {
	srv := newTestServer(t, &fakeStore{chunks: map[string][]vectorstore.Chunk{}}, apiTestConfig())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ingest/missing/status", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListChunks(t *testing.T) {
	store := &fakeStore{chunks: map[string][]vectorstore.Chunk{
		"report-collection": {
			docChunk(0, "Bab I", "Isi pertama."),
			docChunk(1, "Bab II", "Isi kedua."),
		},
	}}
	srv := newTestServer(t, store, apiTestConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/collections/report-collection/chunks?limit=1", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Status  string         `json:"status"`
		Payload map[string]any `json:"payload"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "completed" {
		t.Errorf("expected status completed, got %q", resp.Status)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/collections/report-collection/chunks?limit=0", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for limit=0, got %d", rec.Code)
	}
}

func TestListChunks_MissingCollection(t *testing.T) {
	srv := newTestServer(t, &fakeStore{chunks: map[string][]vectorstore.Chunk{}}, apiTestConfig())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/collections/absent/chunks", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGenerateOutput_TypeCaseInsensitive(t *testing.T) {
	store := &fakeStore{chunks: map[string][]vectorstore.Chunk{
		"docs": {docChunk(0, "Bab I", "Narasi penetapan.")},
	}}
	srv := newTestServer(t, store, apiTestConfig())

	req := httptest.NewRequest(http.MethodPost, "/reports/"+testReportUUID+"/outputs/Penetapan", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for mixed-case type, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Meta map[string]any `json:"meta"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Meta["output_type"] != "penetapan" {
		t.Errorf("expected normalized output_type, got %v", resp.Meta["output_type"])
	}
}
