package automation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "apply-orchestrator/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestClient_Apply_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/apply", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://x/job/1", body["url"])
		assert.Equal(t, "ahmed", body["profile_id"])
		assert.Equal(t, "Backend Engineer", body["target_role"])
		assert.Equal(t, "Build APIs", body["jd_text"])
		assert.Equal(t, []interface{}{"a", "b"}, body["bullets"])

		_, _ = w.Write([]byte(`{"ok":true,"pdfPath":"/data/cv/x.pdf"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", 5*time.Second, 0, 0)
	result, err := c.Apply(context.Background(), Payload{
		URL: "https://x/job/1", ProfileID: "ahmed", TargetRole: "Backend Engineer",
		JDText: strPtr("Build APIs"), Bullets: []string{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, true, result["ok"])
	assert.Equal(t, "/data/cv/x.pdf", result["pdfPath"])
}

func TestClient_Apply_OmitsBulletsButKeepsNullJD(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		_, hasBullets := body["bullets"]
		assert.False(t, hasBullets)
		jd, hasJD := body["jd_text"]
		assert.True(t, hasJD)
		assert.Nil(t, jd)

		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, time.Second, 0, 0).Apply(context.Background(), Payload{
		URL: "https://x/job/2", ProfileID: "ahmed", TargetRole: "General Role",
	})
	require.NoError(t, err)
}

func TestClient_Apply_Errors(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		timeout  time.Duration
		wantCode apperrors.ErrorCode
		contains string
	}{
		{
			name: "worker 500",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"ok":false,"error":"Error: page crashed"}`))
			},
			timeout:  time.Second,
			wantCode: apperrors.ErrCodeWorkerBadStatus,
			contains: "page crashed",
		},
		{
			name: "worker 404",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			timeout:  time.Second,
			wantCode: apperrors.ErrCodeWorkerBadStatus,
			contains: "status 404",
		},
		{
			name: "array body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`[1,2,3]`))
			},
			timeout:  time.Second,
			wantCode: apperrors.ErrCodeWorkerInvalidResponse,
		},
		{
			name: "null body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`null`))
			},
			timeout:  time.Second,
			wantCode: apperrors.ErrCodeWorkerInvalidResponse,
		},
		{
			name: "slow worker",
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(300 * time.Millisecond)
				_, _ = w.Write([]byte(`{"ok":true}`))
			},
			timeout:  50 * time.Millisecond,
			wantCode: apperrors.ErrCodeWorkerTimeout,
			contains: "timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := NewClient(server.URL, tt.timeout, 0, 0).Apply(context.Background(), Payload{URL: "https://x/job/1"})
			require.Error(t, err)

			stdErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			if tt.contains != "" {
				assert.Contains(t, strings.ToLower(err.Error()), strings.ToLower(tt.contains))
			}
		})
	}
}

func TestClient_Apply_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(url, time.Second, 0, 0).Apply(context.Background(), Payload{URL: "https://x/job/1"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeWorkerRequestFailed, apperrors.CodeOf(err))
}

func TestClient_Apply_RateLimitWaitPastTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	// one token every 10s, so the second call would wait far past its 50ms budget
	client := NewClient(server.URL, 50*time.Millisecond, 0.1, 1)

	_, err := client.Apply(context.Background(), Payload{URL: "https://x/job/1"})
	require.NoError(t, err)

	_, err = client.Apply(context.Background(), Payload{URL: "https://x/job/2"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeWorkerTimeout, apperrors.CodeOf(err))
}

func TestClient_Apply_IgnoresCallerCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(30 * time.Millisecond)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewClient(server.URL, time.Second, 0, 0).Apply(ctx, Payload{URL: "https://x/job/1"})
	require.NoError(t, err)
	assert.Equal(t, true, result["ok"])
}

func TestExcerpt(t *testing.T) {
	long := strings.Repeat("a", 600)
	got := excerpt([]byte(long))
	assert.Len(t, got, maxErrorExcerpt+3)
	assert.Equal(t, "short", excerpt([]byte("  short \n")))
}
