// internal/dispatch/apply-single/models.go
package applysingle

import (
	"context"

	"apply-orchestrator/internal/common/automation"
	apperrors "apply-orchestrator/internal/common/errors"
	"apply-orchestrator/internal/common/resultlog"
)

// Input is one apply request. Only URL is required.
type Input struct {
	URL        string  `json:"url"`
	ProfileID  string  `json:"profile_id,omitempty"`
	TargetRole string  `json:"target_role,omitempty"`
	JDText     *string `json:"jd_text,omitempty"`
}

// Output is the worker's result document with tailored_bullets merged in.
type Output map[string]interface{}

const TailoredBulletsField = "tailored_bullets"

// Tailor produces job-aligned bullets; ok is false when none were produced.
type Tailor interface {
	Tailor(ctx context.Context, jdText *string, targetRole string) (bullets []string, ok bool, err error)
}

type Worker interface {
	Apply(ctx context.Context, payload automation.Payload) (map[string]interface{}, error)
}

type Recorder interface {
	Log(ctx context.Context, entry resultlog.Entry)
}

// DispatchError is the single failure surfaced for a dispatch that did not
// complete. Its message is what bulk outcomes report.
type DispatchError struct {
	URL string
	Err *apperrors.StandardError
}

func (e *DispatchError) Error() string {
	if e.Err.Details == "" {
		return e.Err.Message
	}
	return e.Err.Message + ": " + e.Err.Details
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
