// internal/common/errors/handler.go
package errors

// ErrorHandler reports failed operations with standardized fields.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Report normalizes err, logs it once and returns the normalized error.
func (h *ErrorHandler) Report(operation string, err error, fields map[string]interface{}) *StandardError {
	stdErr := Normalize(err)

	logFields := map[string]interface{}{
		"operation":     operation,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	for k, v := range fields {
		logFields[k] = v
	}
	for k, v := range stdErr.Metadata {
		logFields[k] = v
	}

	h.logger.Error("operation failed", logFields)
	return stdErr
}
