// internal/dispatch/tailor-bullets/handler.go
package tailorbullets

import (
	"context"
	"errors"
	"strings"

	apperrors "apply-orchestrator/internal/common/errors"
	"apply-orchestrator/internal/common/logger"
	"apply-orchestrator/internal/common/metrics"
)

const (
	TaskType = "tailor-bullets"
)

type Handler struct {
	config    *Config
	generator Generator
	logger    logger.Logger
}

func NewHandler(config *Config, generator Generator, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		generator: generator,
		logger: log.WithFields(map[string]interface{}{
			"taskType": TaskType,
			"provider": generator.Name(),
		}),
	}
}

// Tailor returns up to MaxBullets lines aligned to jdText. ok is false when
// jdText is absent or blank (no backend call is made) or when the reply has
// no usable lines. Backend errors are returned as-is for the caller to fail on.
func (h *Handler) Tailor(ctx context.Context, jdText *string, targetRole string) ([]string, bool, error) {
	if jdText == nil || strings.TrimSpace(*jdText) == "" {
		return nil, false, nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.config.Timeout)
	defer cancel()

	prompt := buildPrompt(targetRole, *jdText, h.config.MaxBullets)
	text, err := h.generator.Generate(ctx, prompt, h.config.Temperature)
	if err != nil {
		metrics.TailoringCalls.WithLabelValues(h.generator.Name(), "error").Inc()
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return nil, false, apperrors.NewTailoringTimeoutError(h.config.Timeout, err)
		}
		return nil, false, apperrors.NewTailoringFailedError(err)
	}

	bullets := cleanBullets(text, h.config.MaxBullets)
	if len(bullets) == 0 {
		metrics.TailoringCalls.WithLabelValues(h.generator.Name(), "empty").Inc()
		h.logger.Warn("tailoring produced no usable bullets", map[string]interface{}{
			"targetRole": targetRole,
			"replyChars": len(text),
		})
		return nil, false, nil
	}

	metrics.TailoringCalls.WithLabelValues(h.generator.Name(), "ok").Inc()
	h.logger.Debug("bullets tailored", map[string]interface{}{
		"targetRole":  targetRole,
		"bulletCount": len(bullets),
	})
	return bullets, true, nil
}
