package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "apply-orchestrator/internal/common/errors"
	"apply-orchestrator/internal/common/logger"
	"apply-orchestrator/internal/common/resultlog"
	"apply-orchestrator/internal/common/validation"
	applybulk "apply-orchestrator/internal/dispatch/apply-bulk"
	applysingle "apply-orchestrator/internal/dispatch/apply-single"
)

const maxRecentEntries = 1000

type SingleDispatcher interface {
	Dispatch(ctx context.Context, input applysingle.Input) (applysingle.Output, error)
}

type BulkDispatcher interface {
	Dispatch(ctx context.Context, input applybulk.Input) (*applybulk.Output, error)
}

type LogReader interface {
	Recent(ctx context.Context, n int) ([]resultlog.Entry, error)
}

type Handlers struct {
	single        SingleDispatcher
	bulk          BulkDispatcher
	logs          LogReader
	recentDefault int
	logger        logger.Logger
}

func NewHandlers(single SingleDispatcher, bulk BulkDispatcher, logs LogReader, recentDefault int, log logger.Logger) *Handlers {
	if recentDefault < 1 {
		recentDefault = 20
	}
	return &Handlers{
		single:        single,
		bulk:          bulk,
		logs:          logs,
		recentDefault: recentDefault,
		logger:        log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "service": "api"})
}

// ApplyOne is POST /tasks/apply.
func (h *Handlers) ApplyOne(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.writeError(c, apperrors.NewApplicationValidationFailedError("could not read body"))
		return
	}
	if res := validation.ValidateApplyRequest(body); !res.Valid {
		h.writeValidation(c, apperrors.ErrCodeApplicationValidationFailed, res)
		return
	}

	var input applysingle.Input
	if err := json.Unmarshal(body, &input); err != nil {
		h.writeError(c, apperrors.NewApplicationValidationFailedError(err.Error()))
		return
	}

	out, err := h.single.Dispatch(c.Request.Context(), input)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ApplyBulk is POST /tasks/apply/bulk. Item failures are reported inside a 200.
func (h *Handlers) ApplyBulk(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.writeError(c, apperrors.NewInvalidBulkRequestError("could not read body"))
		return
	}
	if res := validation.ValidateBulkRequest(body); !res.Valid {
		h.writeValidation(c, apperrors.ErrCodeInvalidBulkRequest, res)
		return
	}

	var input applybulk.Input
	if err := json.Unmarshal(body, &input); err != nil {
		h.writeError(c, apperrors.NewInvalidBulkRequestError(err.Error()))
		return
	}

	out, err := h.bulk.Dispatch(c.Request.Context(), input)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// RecentLog is GET /logs/recent?n=.
func (h *Handlers) RecentLog(c *gin.Context) {
	n := h.recentDefault
	if raw := c.Query("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"detail": "n must be an integer",
				"code":   string(apperrors.ErrCodeApplicationValidationFailed),
			})
			return
		}
		n = min(parsed, maxRecentEntries)
	}

	entries, err := h.logs.Recent(c.Request.Context(), n)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handlers) writeValidation(c *gin.Context, code apperrors.ErrorCode, res *validation.ValidationResult) {
	c.JSON(http.StatusBadRequest, gin.H{
		"detail": res.Summary(),
		"code":   string(code),
		"errors": res.Errors,
	})
}

func (h *Handlers) writeError(c *gin.Context, err error) {
	stdErr := apperrors.Normalize(err)
	status := apperrors.HTTPStatus(stdErr.Code)

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", map[string]interface{}{
			requestIDKey: c.GetString(requestIDKey),
			"path":       c.FullPath(),
			"errorCode":  string(stdErr.Code),
		})
	}

	c.JSON(status, gin.H{
		"detail": err.Error(),
		"code":   string(stdErr.Code),
	})
}
