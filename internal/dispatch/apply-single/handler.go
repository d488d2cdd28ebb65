// internal/dispatch/apply-single/handler.go
package applysingle

import (
	"context"
	"strings"
	"time"

	"apply-orchestrator/internal/common/automation"
	apperrors "apply-orchestrator/internal/common/errors"
	"apply-orchestrator/internal/common/logger"
	"apply-orchestrator/internal/common/metrics"
	"apply-orchestrator/internal/common/observability"
	"apply-orchestrator/internal/common/resultlog"
)

const (
	TaskType = "apply-single"
)

type Handler struct {
	config     *Config
	tailor     Tailor
	worker     Worker
	recorder   Recorder
	obs        *observability.Observability
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, tailor Tailor, worker Worker, recorder Recorder, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		tailor:     tailor,
		worker:     worker,
		recorder:   recorder,
		obs:        obs,
		errHandler: apperrors.NewErrorHandler(log),
		logger:     log,
	}
}

// Dispatch tailors (when a JD is given), forwards to the worker and logs the
// completed attempt. Failed attempts are returned, never logged to the result log.
func (h *Handler) Dispatch(ctx context.Context, input Input) (Output, error) {
	start := time.Now()
	metrics.DispatchesActive.WithLabelValues(TaskType).Inc()
	defer metrics.DispatchesActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("dispatch started", map[string]interface{}{
		"url":   input.URL,
		"hasJD": input.JDText != nil,
	})

	out, err := h.execute(ctx, h.withDefaults(input))
	metrics.DispatchDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())

	if err != nil {
		stdErr := h.errHandler.Report(TaskType, err, map[string]interface{}{"url": input.URL})
		metrics.DispatchesFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		h.obs.RecordDispatch(ctx, TaskType, "failed")
		h.obs.RecordDispatchDuration(ctx, TaskType, time.Since(start), "failed")
		return nil, &DispatchError{URL: input.URL, Err: stdErr}
	}

	metrics.DispatchesCompleted.WithLabelValues(TaskType).Inc()
	h.obs.RecordDispatch(ctx, TaskType, "completed")
	h.obs.RecordDispatchDuration(ctx, TaskType, time.Since(start), "completed")

	h.logger.Info("dispatch completed", map[string]interface{}{
		"url":        input.URL,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return out, nil
}

func (h *Handler) execute(ctx context.Context, input Input) (Output, error) {
	if strings.TrimSpace(input.URL) == "" {
		return nil, apperrors.NewApplicationValidationFailedError("url is required")
	}

	var (
		bullets    []string
		hasBullets bool
	)
	if input.JDText != nil {
		var err error
		bullets, hasBullets, err = h.tailor.Tailor(ctx, input.JDText, input.TargetRole)
		if err != nil {
			return nil, err
		}
	}

	payload := automation.Payload{
		URL:        input.URL,
		ProfileID:  input.ProfileID,
		TargetRole: input.TargetRole,
		JDText:     input.JDText,
	}
	if hasBullets {
		payload.Bullets = bullets
	}

	result, err := h.worker.Apply(ctx, payload)
	if err != nil {
		return nil, err
	}

	h.recorder.Log(ctx, resultlog.NewEntry(input.URL, input.TargetRole, bullets, hasBullets, result))

	return mergeBullets(result, bullets, hasBullets), nil
}

func (h *Handler) withDefaults(input Input) Input {
	if input.ProfileID == "" {
		input.ProfileID = h.config.DefaultProfileID
	}
	if input.TargetRole == "" {
		input.TargetRole = h.config.DefaultTargetRole
	}
	return input
}

// mergeBullets copies result and sets tailored_bullets, null when absent.
func mergeBullets(result map[string]interface{}, bullets []string, hasBullets bool) Output {
	out := make(Output, len(result)+1)
	for k, v := range result {
		out[k] = v
	}
	if hasBullets {
		out[TailoredBulletsField] = bullets
	} else {
		out[TailoredBulletsField] = nil
	}
	return out
}
