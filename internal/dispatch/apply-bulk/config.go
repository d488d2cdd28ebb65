// internal/dispatch/apply-bulk/config.go
package applybulk

import "apply-orchestrator/internal/common/config"

type Config struct {
	DefaultProfileID  string
	DefaultTargetRole string
	DefaultLimit      int
	MaxLimit          int
	// Concurrency bounds in-flight items. 1 processes strictly in order.
	Concurrency int
}

func LoadConfig() *Config {
	return &Config{
		DefaultProfileID:  config.DefaultProfileID,
		DefaultTargetRole: config.DefaultTargetRole,
		DefaultLimit:      10,
		MaxLimit:          50,
		Concurrency:       1,
	}
}
