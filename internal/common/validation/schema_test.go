package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateApplyRequest(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantValid bool
		wantField string
	}{
		{name: "minimal", body: `{"url":"https://x/job/1"}`, wantValid: true},
		{name: "full", body: `{"url":"https://x/job/1","profile_id":"ahmed","target_role":"Backend Engineer","jd_text":"Build APIs"}`, wantValid: true},
		{name: "null jd", body: `{"url":"https://x/job/1","jd_text":null}`, wantValid: true},
		{name: "extra fields ignored", body: `{"url":"https://x/job/1","source":"linkedin"}`, wantValid: true},
		{name: "missing url", body: `{"target_role":"x"}`, wantField: "(root)"},
		{name: "blank url", body: `{"url":"   "}`, wantField: "url"},
		{name: "wrong jd type", body: `{"url":"https://x","jd_text":42}`, wantField: "jd_text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateApplyRequest([]byte(tt.body))
			assert.Equal(t, tt.wantValid, result.Valid)
			if !tt.wantValid {
				assert.NotEmpty(t, result.Errors)
				assert.Equal(t, tt.wantField, result.Errors[0].Field)
				assert.NotEmpty(t, result.Summary())
			}
		})
	}
}

func TestValidateBulkRequest(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantValid bool
	}{
		{name: "valid", body: `{"targets":[{"url":"https://x/1","role":"SWE"},{"url":"https://x/2","jd_text":null}],"limit":5}`, wantValid: true},
		{name: "empty targets", body: `{"targets":[]}`, wantValid: true},
		{name: "blank item url fails later, per item", body: `{"targets":[{"url":""}]}`, wantValid: true},
		{name: "missing targets", body: `{"limit":3}`},
		{name: "targets not array", body: `{"targets":"https://x/1"}`},
		{name: "item without url", body: `{"targets":[{"role":"SWE"}]}`},
		{name: "zero limit", body: `{"targets":[],"limit":0}`},
		{name: "fractional limit", body: `{"targets":[],"limit":2.5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateBulkRequest([]byte(tt.body))
			assert.Equal(t, tt.wantValid, result.Valid, result.Summary())
		})
	}
}

func TestValidate_MalformedJSON(t *testing.T) {
	result := ValidateApplyRequest([]byte(`{"url":`))

	assert.False(t, result.Valid)
	assert.Equal(t, "INVALID_JSON", result.Errors[0].Code)
}
