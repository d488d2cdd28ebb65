// internal/dispatch/apply-single/config.go
package applysingle

import "apply-orchestrator/internal/common/config"

type Config struct {
	DefaultProfileID  string
	DefaultTargetRole string
}

func LoadConfig() *Config {
	return &Config{
		DefaultProfileID:  config.DefaultProfileID,
		DefaultTargetRole: config.DefaultTargetRole,
	}
}
