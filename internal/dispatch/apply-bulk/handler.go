// internal/dispatch/apply-bulk/handler.go
package applybulk

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "apply-orchestrator/internal/common/errors"
	"apply-orchestrator/internal/common/logger"
	"apply-orchestrator/internal/common/metrics"
	applysingle "apply-orchestrator/internal/dispatch/apply-single"
)

const (
	TaskType = "apply-bulk"
)

type Handler struct {
	config     *Config
	dispatcher Dispatcher
	logger     logger.Logger
}

func NewHandler(config *Config, dispatcher Dispatcher, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		dispatcher: dispatcher,
		logger:     log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Dispatch processes targets in order up to the effective limit. Per-item
// failures become outcomes; only a malformed request returns an error.
func (h *Handler) Dispatch(ctx context.Context, input Input) (*Output, error) {
	limit, err := h.validate(input)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	h.logger.Info("bulk dispatch started", map[string]interface{}{
		"targets":     len(input.Targets),
		"limit":       limit,
		"concurrency": h.config.Concurrency,
	})

	results := h.execute(ctx, input, limit)
	summary := summarize(results)

	h.logger.Info("bulk dispatch completed", map[string]interface{}{
		"attempted":  summary.Attempted,
		"success":    summary.Success,
		"failed":     summary.Failed,
		"durationMs": time.Since(start).Milliseconds(),
	})

	return &Output{Summary: summary, Results: results}, nil
}

func (h *Handler) validate(input Input) (int, error) {
	if input.Targets == nil {
		return 0, apperrors.NewInvalidBulkRequestError("targets is required")
	}

	limit := h.config.DefaultLimit
	if input.Limit != nil {
		limit = *input.Limit
	}
	if limit < 1 {
		return 0, apperrors.NewInvalidBulkRequestError(fmt.Sprintf("limit must be positive, got %d", limit))
	}
	if limit > h.config.MaxLimit {
		return 0, apperrors.NewInvalidBulkRequestError(
			fmt.Sprintf("limit %d exceeds the maximum of %d", limit, h.config.MaxLimit))
	}
	return limit, nil
}

func (h *Handler) execute(ctx context.Context, input Input, limit int) []Outcome {
	profileID := input.ProfileID
	if profileID == "" {
		profileID = h.config.DefaultProfileID
	}

	results := make([]Outcome, min(limit, len(input.Targets)))

	var g errgroup.Group
	g.SetLimit(max(h.config.Concurrency, 1))

	processed := 0
	for _, target := range input.Targets {
		if processed >= limit {
			break
		}
		slot := processed
		processed++

		g.Go(func() error {
			results[slot] = h.processItem(ctx, target, profileID)
			return nil
		})
	}
	_ = g.Wait()

	return results[:processed]
}

// processItem never returns an error; failures are folded into the outcome.
func (h *Handler) processItem(ctx context.Context, target Target, profileID string) (outcome Outcome) {
	role := target.Role
	if role == "" {
		role = h.config.DefaultTargetRole
	}
	outcome = Outcome{URL: target.URL, Role: role}

	defer func() {
		if p := recover(); p != nil {
			outcome.OK = false
			outcome.Data = nil
			outcome.Error = fmt.Sprintf("unexpected panic: %v", p)
		}
		result := "success"
		if !outcome.OK {
			result = "failed"
		}
		metrics.BulkItems.WithLabelValues(result).Inc()
	}()

	data, err := h.dispatcher.Dispatch(ctx, applysingle.Input{
		URL:        target.URL,
		ProfileID:  profileID,
		TargetRole: role,
		JDText:     target.JDText,
	})
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	outcome.OK = true
	outcome.Data = data
	return outcome
}

func summarize(results []Outcome) Summary {
	s := Summary{Attempted: len(results)}
	for _, r := range results {
		if r.OK {
			s.Success++
		} else {
			s.Failed++
		}
	}
	return s
}
