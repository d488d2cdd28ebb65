// Package validation checks inbound request documents against JSON schemas.
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const applyRequestSchema = `{
  "type": "object",
  "required": ["url"],
  "properties": {
    "url":         {"type": "string", "minLength": 1, "pattern": "\\S"},
    "profile_id":  {"type": "string"},
    "target_role": {"type": "string"},
    "jd_text":     {"type": ["string", "null"]}
  }
}`

const bulkRequestSchema = `{
  "type": "object",
  "required": ["targets"],
  "properties": {
    "targets": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["url"],
        "properties": {
          "url":     {"type": "string"},
          "role":    {"type": "string"},
          "jd_text": {"type": ["string", "null"]}
        }
      }
    },
    "profile_id": {"type": "string"},
    "limit":      {"type": "integer", "minimum": 1}
  }
}`

var (
	applySchema = mustSchema(applyRequestSchema)
	bulkSchema  = mustSchema(bulkRequestSchema)
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Summary joins all errors into one line.
func (r *ValidationResult) Summary() string {
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return strings.Join(parts, "; ")
}

// ValidateApplyRequest validates a raw single apply body.
func ValidateApplyRequest(body []byte) *ValidationResult {
	return validate(applySchema, body)
}

// ValidateBulkRequest validates a raw bulk apply body.
func ValidateBulkRequest(body []byte) *ValidationResult {
	return validate(bulkSchema, body)
}

func validate(schema *gojsonschema.Schema, body []byte) *ValidationResult {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "(root)",
				Message: "body is not valid JSON",
				Code:    "INVALID_JSON",
			}},
		}
	}

	if result.Valid() {
		return &ValidationResult{Valid: true}
	}

	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return &ValidationResult{Valid: false, Errors: errs}
}

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("invalid embedded schema: %v", err))
	}
	return schema
}
