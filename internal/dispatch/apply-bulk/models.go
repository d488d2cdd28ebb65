// internal/dispatch/apply-bulk/models.go
package applybulk

import (
	"context"

	applysingle "apply-orchestrator/internal/dispatch/apply-single"
)

type Target struct {
	URL    string  `json:"url"`
	Role   string  `json:"role,omitempty"`
	JDText *string `json:"jd_text,omitempty"`
}

// Input is a bulk request. A nil Limit takes the configured default.
type Input struct {
	Targets   []Target `json:"targets"`
	ProfileID string   `json:"profile_id,omitempty"`
	Limit     *int     `json:"limit,omitempty"`
}

type Outcome struct {
	URL   string             `json:"url"`
	Role  string             `json:"role"`
	OK    bool               `json:"ok"`
	Data  applysingle.Output `json:"data,omitempty"`
	Error string             `json:"error,omitempty"`
}

type Summary struct {
	Attempted int `json:"attempted"`
	Success   int `json:"success"`
	Failed    int `json:"failed"`
}

type Output struct {
	Summary Summary   `json:"summary"`
	Results []Outcome `json:"results"`
}

// Dispatcher runs one apply request.
type Dispatcher interface {
	Dispatch(ctx context.Context, input applysingle.Input) (applysingle.Output, error)
}
