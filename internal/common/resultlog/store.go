package resultlog

import (
	"context"
	"fmt"
	"time"

	apperrors "apply-orchestrator/internal/common/errors"
	"apply-orchestrator/internal/common/logger"
	"apply-orchestrator/internal/common/metrics"
)

const writeTimeout = 5 * time.Second

// Store is an append-only log of dispatch entries.
type Store interface {
	Name() string
	Append(ctx context.Context, entry Entry) error
	// Recent returns up to n of the newest entries, oldest first.
	Recent(ctx context.Context, n int) ([]Entry, error)
}

// Recorder is the only place where result log write failures are swallowed.
type Recorder struct {
	store  Store
	logger logger.Logger
}

func NewRecorder(store Store, log logger.Logger) *Recorder {
	return &Recorder{
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "result-log", "backend": store.Name()}),
	}
}

// Log appends entry and never fails. Storage errors are logged and dropped.
func (r *Recorder) Log(ctx context.Context, entry Entry) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	if err := r.append(ctx, entry); err != nil {
		stdErr := apperrors.NewStorageWriteFailedError(r.store.Name(), err)
		metrics.ResultLogWriteFailures.WithLabelValues(r.store.Name()).Inc()
		r.logger.Warn("result log write dropped", map[string]interface{}{
			"entryId":   entry.ID,
			"url":       entry.URL,
			"errorCode": string(stdErr.Code),
			"details":   stdErr.Details,
		})
	}
}

func (r *Recorder) append(ctx context.Context, entry Entry) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic during append: %v", p)
		}
	}()
	return r.store.Append(ctx, entry)
}

// Recent reads the newest n entries. A log that does not exist yet reads as empty.
func (r *Recorder) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return []Entry{}, nil
	}
	entries, err := r.store.Recent(ctx, n)
	if err != nil {
		return nil, apperrors.NewStorageReadFailedError(r.store.Name(), err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}
