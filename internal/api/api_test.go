package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "apply-orchestrator/internal/common/errors"
	"apply-orchestrator/internal/common/logger"
	"apply-orchestrator/internal/common/resultlog"
	applybulk "apply-orchestrator/internal/dispatch/apply-bulk"
	applysingle "apply-orchestrator/internal/dispatch/apply-single"
)

// ==========================
// Test Helper Functions
// ==========================

type stubSingle struct {
	out   applysingle.Output
	err   error
	input applysingle.Input
}

func (s *stubSingle) Dispatch(_ context.Context, input applysingle.Input) (applysingle.Output, error) {
	s.input = input
	return s.out, s.err
}

type stubBulk struct {
	out   *applybulk.Output
	err   error
	input applybulk.Input
}

func (s *stubBulk) Dispatch(_ context.Context, input applybulk.Input) (*applybulk.Output, error) {
	s.input = input
	return s.out, s.err
}

type stubLogs struct {
	entries []resultlog.Entry
	err     error
	n       int
}

func (s *stubLogs) Recent(_ context.Context, n int) ([]resultlog.Entry, error) {
	s.n = n
	return s.entries, s.err
}

type testServer struct {
	single *stubSingle
	bulk   *stubBulk
	logs   *stubLogs
	router http.Handler
}

func newTestServer(t *testing.T) *testServer {
	ts := &testServer{
		single: &stubSingle{out: applysingle.Output{"status": "submitted", "tailored_bullets": nil}},
		bulk:   &stubBulk{out: &applybulk.Output{Summary: applybulk.Summary{}, Results: []applybulk.Outcome{}}},
		logs:   &stubLogs{entries: []resultlog.Entry{}},
	}
	log := logger.NewTestLogger(t)
	ts.router = NewRouter(RouterConfig{}, NewHandlers(ts.single, ts.bulk, ts.logs, 20, log), log)
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// ==========================
// Health & Middleware Tests
// ==========================

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"service":"api"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestID_Propagated(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()

	ts.router.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestCORS_AllowsAnyOriginByDefault(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()

	ts.router.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// ==========================
// Single Apply Tests
// ==========================

func TestApplyOne_Success(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/tasks/apply",
		`{"url":"https://x/job/1","target_role":"Backend Engineer","jd_text":"Build APIs in Python"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "submitted", body["status"])
	value, present := body["tailored_bullets"]
	assert.True(t, present)
	assert.Nil(t, value)

	assert.Equal(t, "https://x/job/1", ts.single.input.URL)
	assert.Equal(t, "Backend Engineer", ts.single.input.TargetRole)
	require.NotNil(t, ts.single.input.JDText)
	assert.Equal(t, "Build APIs in Python", *ts.single.input.JDText)
}

func TestApplyOne_ValidationErrors(t *testing.T) {
	for _, body := range []string{`{}`, `{"url":""}`, `{"url":`, `[]`} {
		ts := newTestServer(t)

		rec := ts.do(http.MethodPost, "/tasks/apply", body)

		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "APPLICATION_VALIDATION_FAILED", decode(t, rec)["code"])
		assert.Empty(t, ts.single.input.URL, "dispatch must not run")
	}
}

func TestApplyOne_DispatchFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.single.err = &applysingle.DispatchError{
		URL: "https://x/job/1",
		Err: apperrors.NewWorkerBadStatusError(502, "bad gateway"),
	}

	rec := ts.do(http.MethodPost, "/tasks/apply", `{"url":"https://x/job/1"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "WORKER_BAD_STATUS", body["code"])
	assert.Equal(t, "Worker returned an error status: status 502: bad gateway", body["detail"])
}

// ==========================
// Bulk Apply Tests
// ==========================

func TestApplyBulk_Success(t *testing.T) {
	ts := newTestServer(t)
	ts.bulk.out = &applybulk.Output{
		Summary: applybulk.Summary{Attempted: 2, Success: 1, Failed: 1},
		Results: []applybulk.Outcome{
			{URL: "https://x/1", Role: "SWE", OK: true, Data: applysingle.Output{"status": "submitted"}},
			{URL: "https://x/2", Role: "General Role", OK: false, Error: "Worker request timeout"},
		},
	}

	rec := ts.do(http.MethodPost, "/tasks/apply/bulk",
		`{"targets":[{"url":"https://x/1","role":"SWE"},{"url":"https://x/2"}],"profile_id":"sara","limit":2}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"summary": {"attempted": 2, "success": 1, "failed": 1},
		"results": [
			{"url": "https://x/1", "role": "SWE", "ok": true, "data": {"status": "submitted"}},
			{"url": "https://x/2", "role": "General Role", "ok": false, "error": "Worker request timeout"}
		]
	}`, rec.Body.String())

	require.NotNil(t, ts.bulk.input.Limit)
	assert.Equal(t, 2, *ts.bulk.input.Limit)
	assert.Equal(t, "sara", ts.bulk.input.ProfileID)
	assert.Len(t, ts.bulk.input.Targets, 2)
}

func TestApplyBulk_InvalidShape(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/tasks/apply/bulk", `{"targets":[{"role":"SWE"}],"limit":0}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "INVALID_BULK_REQUEST", body["code"])
	assert.NotEmpty(t, body["errors"])
}

// ==========================
// Recent Log Tests
// ==========================

func TestRecentLog(t *testing.T) {
	ts := newTestServer(t)
	ts.logs.entries = []resultlog.Entry{{ID: "a", URL: "https://x/1", Role: "SWE", Result: map[string]interface{}{"status": "submitted"}}}

	rec := ts.do(http.MethodGet, "/logs/recent?n=5", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, ts.logs.n)
	var entries []resultlog.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "https://x/1", entries[0].URL)
}

func TestRecentLog_DefaultsAndBounds(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/logs/recent", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, ts.logs.n)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	ts.do(http.MethodGet, "/logs/recent?n=999999", "")
	assert.Equal(t, maxRecentEntries, ts.logs.n)

	rec = ts.do(http.MethodGet, "/logs/recent?n=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecentLog_EmptyFileStore(t *testing.T) {
	store := resultlog.NewFileStore(t.TempDir() + "/logs/applications.jsonl")
	log := logger.NewNoOpLogger()
	recorder := resultlog.NewRecorder(store, log)
	router := NewRouter(RouterConfig{}, NewHandlers(&stubSingle{}, &stubBulk{}, recorder, 20, log), log)

	req := httptest.NewRequest(http.MethodGet, "/logs/recent?n=5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestRecentLog_StorageError(t *testing.T) {
	ts := newTestServer(t)
	ts.logs.err = apperrors.NewStorageReadFailedError("redis", errors.New("connection refused"))

	rec := ts.do(http.MethodGet, "/logs/recent?n=5", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "STORAGE_READ_FAILED", decode(t, rec)["code"])
}

func TestNewHandlers_DefaultRecent(t *testing.T) {
	h := NewHandlers(&stubSingle{}, &stubBulk{}, &stubLogs{}, 0, logger.NewNoOpLogger())
	assert.Equal(t, 20, h.recentDefault)
}
