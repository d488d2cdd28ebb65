// internal/dispatch/tailor-bullets/config.go
package tailorbullets

import "time"

type Config struct {
	Temperature float64
	MaxBullets  int
	Timeout     time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Temperature: 0.3,
		MaxBullets:  3,
		Timeout:     60 * time.Second,
	}
}
