// Package automation talks to the downstream worker that performs the actual
// browser-driven application.
package automation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "apply-orchestrator/internal/common/errors"
	apphttp "apply-orchestrator/internal/common/http"
)

const (
	applyPath       = "/apply"
	maxErrorExcerpt = 512
)

// Payload is the body the worker's /apply endpoint accepts.
type Payload struct {
	URL        string   `json:"url"`
	ProfileID  string   `json:"profile_id"`
	TargetRole string   `json:"target_role"`
	JDText     *string  `json:"jd_text"`
	Bullets    []string `json:"bullets,omitempty"`
}

type Client struct {
	baseURL string
	timeout time.Duration
	http    *apphttp.Client
}

// NewClient builds a worker client. Requests are bounded by timeout and,
// when perSec > 0, throttled.
func NewClient(baseURL string, timeout time.Duration, perSec float64, burst int) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		http:    apphttp.NewClient(timeout, apphttp.WithRateLimit(perSec, burst)),
	}
}

// Apply POSTs one payload and returns the worker's JSON object.
// The call is detached from caller cancellation; only the timeout bounds it.
func (c *Client) Apply(ctx context.Context, payload Payload) (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	resp, err := c.http.PostJSON(ctx, c.baseURL+applyPath, payload)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, apperrors.NewWorkerTimeoutError(c.timeout, err)
		}
		return nil, apperrors.NewWorkerRequestFailedError(err)
	}

	if !resp.OK() {
		return nil, apperrors.NewWorkerBadStatusError(resp.StatusCode, excerpt(resp.Body))
	}

	var result map[string]interface{}
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, apperrors.NewWorkerInvalidResponseError(err)
	}
	if result == nil {
		return nil, apperrors.NewWorkerInvalidResponseError(fmt.Errorf("body was %q", excerpt(resp.Body)))
	}
	return result, nil
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorExcerpt {
		return s[:maxErrorExcerpt] + "..."
	}
	return s
}
