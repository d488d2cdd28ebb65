// Package resultlog is the append-only record of completed dispatches.
package resultlog

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one persisted record of a completed dispatch.
type Entry struct {
	ID        string                 `json:"id"`
	Timestamp string                 `json:"timestamp"`
	URL       string                 `json:"url"`
	Role      string                 `json:"role"`
	Bullets   []string               `json:"bullets,omitempty"`
	Result    map[string]interface{} `json:"result"`
}

// NewEntry stamps a record with a fresh id and the current UTC time.
// bullets are recorded only when hasBullets is set.
func NewEntry(url, role string, bullets []string, hasBullets bool, result map[string]interface{}) Entry {
	e := Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		URL:       url,
		Role:      role,
		Result:    result,
	}
	if hasBullets {
		e.Bullets = append([]string(nil), bullets...)
	}
	return e
}
