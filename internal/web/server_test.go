package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/listcheck/internal/config"
	"github.com/JonMunkholm/listcheck/internal/core"
	"github.com/JonMunkholm/listcheck/internal/history"
)

// mockBackend is an in-memory job service.
type mockBackend struct {
	mu    sync.Mutex
	calls []string

	jobID      string
	page       core.ResultPage
	resultsErr error
	export     string
	healthErr  error
}

func (m *mockBackend) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockBackend) Verify(_ context.Context, email string) (core.VerificationRow, error) {
	m.record("verify:" + email)
	if strings.HasPrefix(email, "bad") {
		hard := core.BounceHard
		return core.VerificationRow{Email: email, Status: core.StatusInvalid, BounceType: &hard}, nil
	}
	return core.VerificationRow{Email: email, Status: core.StatusValid}, nil
}

func (m *mockBackend) Extract(_ context.Context, website string) ([]core.ExtractedRow, error) {
	m.record("extract:" + website)
	return []core.ExtractedRow{{Email: "info@x.com", Domain: "x.com"}}, nil
}

func (m *mockBackend) BulkVerify(_ context.Context, _ core.UploadFile, col string, _ bool) (string, error) {
	m.record("bulk-verify:" + col)
	return m.jobID, nil
}

func (m *mockBackend) BulkExtract(_ context.Context, _ core.UploadFile, col string) ([]core.ExtractedRow, error) {
	m.record("bulk-extract:" + col)
	return []core.ExtractedRow{{Email: "a@x.com", Domain: "x.com", Site: "http://x.com"}}, nil
}

func (m *mockBackend) Results(_ context.Context, jobID string, page, _ int) (core.ResultPage, error) {
	m.record("results:" + jobID)
	if m.resultsErr != nil {
		return core.ResultPage{}, m.resultsErr
	}
	p := m.page
	p.JobID = jobID
	p.Page = page
	return p, nil
}

func (m *mockBackend) Download(_ context.Context, jobID string, t core.ExportType) (io.ReadCloser, error) {
	m.record("download:" + jobID + ":" + string(t))
	return io.NopCloser(strings.NewReader(m.export)), nil
}

func (m *mockBackend) Stats(context.Context) (core.DashboardStats, error) {
	return core.DashboardStats{TotalToday: 3, TotalAll: 10}, nil
}

func (m *mockBackend) Health(context.Context) error {
	return m.healthErr
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 10 * time.Second, WorkspaceIdleTTL: time.Hour},
		Upload: config.UploadConfig{MaxFileSize: 1 << 10, PreviewRows: 5},
	}
}

type testServer struct {
	*Server
	backend *mockBackend
	cookie  *http.Cookie
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	backend := &mockBackend{
		jobID:  "job-42",
		export: "email,status\na@x.com,valid\n",
		page: core.ResultPage{
			FileName: "leads.csv",
			PageSize: 20,
			Total:    2,
			Valid:    1,
			Invalid:  1,
			Rows: []core.RowResult{
				core.VerificationRow{Email: "ann@example.com", Status: core.StatusValid},
				core.VerificationRow{Email: "bob@example.com", Status: core.StatusInvalid},
			},
		},
	}
	svc := core.NewService(backend, history.NewMemoryStore(), core.NewSubmitLimiter(2, time.Second), core.Options{
		MaxFileSize: cfg.Upload.MaxFileSize,
		PreviewRows: cfg.Upload.PreviewRows,
	})
	return &testServer{Server: NewServer(svc, cfg), backend: backend}
}

// do sends req through the router, carrying the workspace cookie between calls.
func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	if ts.cookie != nil {
		req.AddCookie(ts.cookie)
	}
	w := httptest.NewRecorder()
	ts.Router().ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == WorkspaceCookie {
			ts.cookie = c
		}
	}
	return w
}

func (ts *testServer) postJSON(path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return ts.do(req)
}

func (ts *testServer) upload(t *testing.T, name, mode, body string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("mode", mode))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/session/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return ts.do(req)
}

type sessionBody struct {
	Session struct {
		State      string          `json:"state"`
		Selected   string          `json:"selectedColumn"`
		Fields     []string        `json:"fields"`
		Submission json.RawMessage `json:"submission"`
	} `json:"session"`
	Events []core.UiEvent `json:"events"`
}

func decodeSession(t *testing.T, w *httptest.ResponseRecorder) sessionBody {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body sessionBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

const leadsCSV = "name,email\nAnn,ann@example.com\nBob,bob@example.com\n"

func TestSession_VerifyFlow(t *testing.T) {
	ts := newTestServer(t, nil)

	body := decodeSession(t, ts.upload(t, "leads.csv", "verify", leadsCSV))
	assert.Equal(t, "column_confirmable", body.Session.State)
	assert.Equal(t, "email", body.Session.Selected)
	assert.Equal(t, []string{"name", "email"}, body.Session.Fields)
	require.NotNil(t, ts.cookie, "workspace cookie set")

	body = decodeSession(t, ts.postJSON("/api/session/confirm", nil))
	assert.Equal(t, "submitted", body.Session.State)
	assert.Contains(t, string(body.Session.Submission), "job-42")
	require.Len(t, body.Events, 1)
	assert.Equal(t, core.EventSuccess, body.Events[0].Kind)
	assert.Equal(t, []string{"bulk-verify:email"}, ts.backend.calls)

	w := ts.do(httptest.NewRequest(http.MethodGet, "/api/lists?q=LEADS", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var lists struct {
		Lists []core.HistoryEntry `json:"lists"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &lists))
	require.Len(t, lists.Lists, 1)
	assert.Equal(t, "job-42", lists.Lists[0].JobID)
}

func TestSession_RejectionsAreEvents(t *testing.T) {
	tests := []struct {
		name string
		file string
		mode string
		body string
		code string
	}{
		{"unsupported type", "leads.pdf", "verify", leadsCSV, "FILE001"},
		{"no candidates", "leads.csv", "verify", "name,city\nAnn,Oslo\n", "COL001"},
		{"bad mode", "leads.csv", "scrape", leadsCSV, "RES003"},
		{"too large", "leads.csv", "verify", "email\n" + strings.Repeat("a@example.com\n", 100), "FILE003"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, nil)
			body := decodeSession(t, ts.upload(t, tt.file, tt.mode, tt.body))
			assert.Equal(t, "idle", body.Session.State)
			require.Len(t, body.Events, 1)
			assert.Equal(t, tt.code, body.Events[0].Code)
		})
	}
}

func TestSession_SelectColumn(t *testing.T) {
	ts := newTestServer(t, nil)
	decodeSession(t, ts.upload(t, "leads.csv", "verify", leadsCSV))

	body := decodeSession(t, ts.postJSON("/api/session/column", map[string]string{"column": "name"}))
	assert.Equal(t, "email", body.Session.Selected, "selection kept")
	require.Len(t, body.Events, 1)
	assert.Equal(t, "COL002", body.Events[0].Code)

	w := ts.postJSON("/api/session/column", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "REQ001")

	body = decodeSession(t, ts.postJSON("/api/session/cancel", nil))
	assert.Equal(t, "idle", body.Session.State)
}

func TestSession_NoFile(t *testing.T) {
	ts := newTestServer(t, nil)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("mode", "verify"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/session/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := ts.do(req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "FILE004")
}

func TestBatch_ExtractKeepsLocalSet(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.postJSON("/api/batch", map[string]string{"mode": "extract", "text": "http://x.com\nnot a site\nhttp://y.com"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Result core.BatchResult `json:"result"`
		Local  core.LocalPage   `json:"local"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Result.Candidates)
	assert.Equal(t, 2, resp.Local.Total)
	assert.Equal(t, []string{"extract:http://x.com", "extract:http://y.com"}, ts.backend.calls)

	w = ts.do(httptest.NewRequest(http.MethodGet, "/api/local/"+resp.Local.Handle+"/export", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="simple_extracted_emails.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "email,domain,site\ninfo@x.com,x.com,http://x.com\ninfo@x.com,x.com,http://y.com", w.Body.String())
}

func TestBatch_Validation(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.postJSON("/api/batch", map[string]string{"mode": "scrape", "text": "http://x.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.postJSON("/api/batch", map[string]string{"mode": "verify", "text": "nothing here"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "COL001")
}

func TestLocal_UnknownHandle(t *testing.T) {
	ts := newTestServer(t, nil)
	w := ts.do(httptest.NewRequest(http.MethodGet, "/api/local/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "RES002")
}

func TestResults_Filter(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(httptest.NewRequest(http.MethodGet, "/api/jobs/job-42/results?page=1&status=invalid", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var view struct {
		TotalPages int               `json:"totalPages"`
		Rows       []json.RawMessage `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, 1, view.TotalPages)
	require.Len(t, view.Rows, 1)
	assert.Contains(t, string(view.Rows[0]), "bob@example.com")
}

func TestResults_BadQuery(t *testing.T) {
	ts := newTestServer(t, nil)
	for _, q := range []string{"page=abc", "page=0", "status=maybe"} {
		w := ts.do(httptest.NewRequest(http.MethodGet, "/api/jobs/job-42/results?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestResults_FetchFailure(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.backend.resultsErr = &core.ServerError{Status: http.StatusInternalServerError, Message: "db down"}

	w := ts.do(httptest.NewRequest(http.MethodGet, "/api/jobs/job-42/results", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "RES001")
}

func TestResultsPage(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(httptest.NewRequest(http.MethodGet, "/results/job-42?q=ann", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ann@example.com")
	assert.NotContains(t, w.Body.String(), "bob@example.com")

	ts.backend.resultsErr = &core.ServerError{Status: http.StatusNotFound, Message: "no such job"}
	w = ts.do(httptest.NewRequest(http.MethodGet, "/results/job-404", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "job-404")
}

func TestResultsPage_FetchFailureShowsNotFound(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.backend.resultsErr = &core.NetworkError{Op: "results", Err: errors.New("connection reset")}

	w := ts.do(httptest.NewRequest(http.MethodGet, "/results/job-9", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "job-9")
	assert.Contains(t, w.Body.String(), "Back to upload")
	assert.NotContains(t, w.Body.String(), "RES001")
}

func TestExport(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(httptest.NewRequest(http.MethodGet, "/api/jobs/job-42/export?type=valid", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "email,status\na@x.com,valid\n", w.Body.String())
	assert.Equal(t, `attachment; filename="results-valid-job-42.csv"`, w.Header().Get("Content-Disposition"))

	w = ts.do(httptest.NewRequest(http.MethodGet, "/api/jobs/job-42/export?type=bogus", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSingleItems(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.postJSON("/api/verify", map[string]string{"value": "bad@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	var verify struct {
		Label core.Label `json:"label"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verify))
	assert.Equal(t, core.Label{Text: "Bad", Color: core.ColorRed}, verify.Label)

	w = ts.postJSON("/api/extract", map[string]string{"value": "http://x.com"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"site":"http://x.com"`)

	w = ts.postJSON("/api/verify", map[string]string{"value": "not-an-email"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.NotNil(t, resp.Submits)
	assert.Equal(t, 2, resp.Submits.MaxConcurrent)

	ts.backend.healthErr = errors.New("connection refused")
	w = ts.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStats(t *testing.T) {
	ts := newTestServer(t, nil)
	w := ts.do(httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalToday":3`)
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret"}}
	ts := newTestServer(t, cfg)

	w := ts.do(httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("X-API-Key", "secret")
	w = ts.do(req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code, "health stays open")

	w = ts.do(httptest.NewRequest(http.MethodGet, "/results/j1", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code, "results page needs a key")

	req = httptest.NewRequest(http.MethodGet, "/results/j1", nil)
	req.Header.Set("X-API-Key", "secret")
	w = ts.do(req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTMXErrorsRenderHTML(t *testing.T) {
	ts := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/local/missing", nil)
	req.Header.Set("HX-Request", "true")
	w := ts.do(req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "RES002")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrUnsupportedFileType, http.StatusUnsupportedMediaType},
		{core.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{&core.CandidateError{Err: core.ErrNoCandidateFound, Mode: core.ModeVerify}, http.StatusUnprocessableEntity},
		{core.ErrTooManySubmissions, http.StatusServiceUnavailable},
		{core.ErrStaleResponse, http.StatusConflict},
		{&core.NetworkError{Op: "stats", Err: errors.New("boom")}, http.StatusBadGateway},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
