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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/docsift/internal/config"
	"github.com/dgallion1/docsift/internal/doctree"
	"github.com/dgallion1/docsift/internal/llm"
	"github.com/dgallion1/docsift/internal/pipeline"
	"github.com/dgallion1/docsift/internal/store"
)

const testKey = "secret"

type echoAnalyzer struct{}

func (echoAnalyzer) AnalyzeReader(ctx context.Context, r io.Reader, filename string) (doctree.Record, error) {
	data, _ := io.ReadAll(r)
	return doctree.Record{Title: filename, TextLength: len(bytes.Fields(data)), Keywords: []string{"mot"}}, nil
}

// memRecords satisfies both Records and pipeline.RecordStore.
type memRecords struct {
	mu   sync.Mutex
	recs []doctree.Record
}

func (m *memRecords) Save(ctx context.Context, rec doctree.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return nil
}

func (m *memRecords) GetByHash(ctx context.Context, hash string) (doctree.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.recs {
		if r.ContentHash == hash {
			return r, nil
		}
	}
	return doctree.Record{}, store.ErrNotFound
}

func (m *memRecords) Get(ctx context.Context, id string) (doctree.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.recs {
		if r.ID == id {
			return r, nil
		}
	}
	return doctree.Record{}, store.ErrNotFound
}

func (m *memRecords) List(ctx context.Context, limit, offset int) ([]doctree.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]doctree.Record{}, m.recs...)
	if offset > len(out) {
		return []doctree.Record{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRecords) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recs), nil
}

func (m *memRecords) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.recs {
		if r.ID == id {
			m.recs = append(m.recs[:i], m.recs[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func newTestServer(t *testing.T) (*Server, *memRecords) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Defaults()
	cfg.DocsiftAPIKey = testKey
	cfg.WorkerCount = 1
	cfg.MaxUploadBytes = 1024

	recs := &memRecords{}
	orch := pipeline.NewOrchestrator(cfg, echoAnalyzer{}, recs, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	stats := llm.NewStats(time.Hour)
	stats.Observe("summary", 120*time.Millisecond, nil)
	return NewServer(orch, recs, stats, log, cfg), recs
}

func do(s *Server, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+testKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func upload(t *testing.T, field string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealth_NoAuth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/records", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/records", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid api key")
}

func TestAnalyze_UnsupportedType(t *testing.T) {
	s, _ := newTestServer(t)
	body, ct := upload(t, "file", map[string]string{"ancien.ppt": "binary"})
	rec := do(s, http.MethodPost, "/api/analyze", body, ct)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported file type: .ppt")
}

func TestAnalyze_TooLarge(t *testing.T) {
	s, _ := newTestServer(t)
	body, ct := upload(t, "file", map[string]string{"gros.txt": string(bytes.Repeat([]byte("a"), 2048))})
	rec := do(s, http.MethodPost, "/api/analyze", body, ct)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func pollJob(t *testing.T, s *Server, jobID string) pipeline.JobSnapshot {
	t.Helper()
	var snap pipeline.JobSnapshot
	require.Eventually(t, func() bool {
		rec := do(s, http.MethodGet, "/api/analyze/"+jobID, nil, "")
		if rec.Code != http.StatusOK {
			return false
		}
		snap = pipeline.JobSnapshot{}
		if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
			return false
		}
		return snap.Status.Done()
	}, 2*time.Second, 10*time.Millisecond)
	return snap
}

func TestAnalyze_UploadAndPoll(t *testing.T) {
	s, recs := newTestServer(t)
	body, ct := upload(t, "file", map[string]string{"note.txt": "un deux trois"})
	rec := do(s, http.MethodPost, "/api/analyze", body, ct)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	jobID, _ := resp["job_id"].(string)
	require.NotEmpty(t, jobID)
	assert.Equal(t, "/api/analyze/"+jobID, resp["poll_url"])

	snap := pollJob(t, s, jobID)
	assert.Equal(t, pipeline.StatusCompleted, snap.Status)
	require.NotNil(t, snap.Record)
	assert.Equal(t, 3, snap.Record.TextLength)

	n, _ := recs.Count(context.Background())
	assert.Equal(t, 1, n)

	// Same bytes again resolve to the stored record.
	body, ct = upload(t, "file", map[string]string{"copie.txt": "un deux trois"})
	rec = do(s, http.MethodPost, "/api/analyze", body, ct)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	dup := pollJob(t, s, resp["job_id"].(string))
	assert.Equal(t, pipeline.StatusDuplicate, dup.Status)
	assert.Equal(t, snap.Record.ID, dup.Record.ID)
}

func TestJobStatus_NotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(s, http.MethodGet, "/api/analyze/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBatchAnalyze(t *testing.T) {
	s, _ := newTestServer(t)
	body, ct := upload(t, "files", map[string]string{"a.md": "# A", "b.exe": "MZ"})
	rec := do(s, http.MethodPost, "/api/analyze/batch", body, ct)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp struct {
		Jobs []map[string]any `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Jobs, 2)

	var accepted, rejected int
	for _, j := range resp.Jobs {
		if _, ok := j["job_id"]; ok {
			accepted++
		}
		if _, ok := j["error"]; ok {
			rejected++
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, rejected)
}

func TestRecords_GetListDelete(t *testing.T) {
	s, recs := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, recs.Save(ctx, doctree.Record{ID: "r1", Title: "Un", Keywords: []string{}}))
	require.NoError(t, recs.Save(ctx, doctree.Record{ID: "r2", Title: "Deux", Keywords: []string{}}))

	rec := do(s, http.MethodGet, "/api/records?limit=1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Records []doctree.Record `json:"records"`
		Total   int              `json:"total"`
		Limit   int              `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Records, 1)
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, 1, list.Limit)

	rec = do(s, http.MethodGet, "/api/records/r2", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got doctree.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Deux", got.Title)

	rec = do(s, http.MethodDelete, "/api/records/r2", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(s, http.MethodGet, "/api/records/r2", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(s, http.MethodDelete, "/api/records/r2", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportRecords(t *testing.T) {
	s, recs := newTestServer(t)
	require.NoError(t, recs.Save(context.Background(), doctree.Record{ID: "r1", Title: "Rapport", Keywords: []string{"budget"}}))

	rec := do(s, http.MethodGet, "/api/records/export.xlsx", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "docsift-records.xlsx")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	title, err := f.GetCellValue("Analyses", "C2")
	require.NoError(t, err)
	assert.Equal(t, "Rapport", title)
}

func TestLLMStats(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(s, http.MethodGet, "/api/stats/llm", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Model string                  `json:"model"`
		Stats map[string]llm.Snapshot `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "mistral-small-latest", resp.Model)
	assert.Equal(t, 1, resp.Stats["summary"].Calls)
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"rapport.pdf":          "rapport.pdf",
		"../../etc/passwd.txt": "passwd.txt",
		`C:\docs\note.docx`:    "note.docx",
		"":                     "unnamed",
		"a..b.md":              "a_b.md",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
