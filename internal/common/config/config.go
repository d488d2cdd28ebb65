// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	GenAI     GenAIConfig     `mapstructure:"genai"`
	Tailoring TailoringConfig `mapstructure:"tailoring"`
	Bulk      BulkConfig      `mapstructure:"bulk"`
	ResultLog ResultLogConfig `mapstructure:"result_log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address      string `mapstructure:"address"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int    `mapstructure:"write_timeout"` // milliseconds
	// CORSOrigins lists allowed origins; empty allows all.
	CORSOrigins []string `mapstructure:"cors_origins"`
	// RecentLogDefault is the n used by /logs/recent when none is given.
	RecentLogDefault int `mapstructure:"recent_log_default"`
}

// WorkerConfig points at the downstream automation worker.
type WorkerConfig struct {
	BaseURL    string  `mapstructure:"base_url"`
	Timeout    int     `mapstructure:"timeout"` // milliseconds
	RatePerSec float64 `mapstructure:"rate_per_sec"`
	RateBurst  int     `mapstructure:"rate_burst"`
}

// GenAIConfig selects and configures the text-generation backend.
type GenAIConfig struct {
	Provider  string `mapstructure:"provider"` // http | openai | googleai
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
	Timeout   int    `mapstructure:"timeout"` // milliseconds
}

type TailoringConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	MaxBullets  int     `mapstructure:"max_bullets"`
}

type BulkConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
	Concurrency  int `mapstructure:"concurrency"`
}

// ResultLogConfig selects the append-only log backend.
type ResultLogConfig struct {
	Backend       string `mapstructure:"backend"` // file | redis | postgres | memory
	Path          string `mapstructure:"path"`
	RedisKey      string `mapstructure:"redis_key"`
	PostgresTable string `mapstructure:"postgres_table"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	// pool recycling, milliseconds; zero keeps connections indefinitely
	ConnMaxLifetime int `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime int `mapstructure:"conn_max_idle_time"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address      string `mapstructure:"address"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	DialTimeout  int    `mapstructure:"dial_timeout"`  // milliseconds
	ReadTimeout  int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int    `mapstructure:"write_timeout"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
