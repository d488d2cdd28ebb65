package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultProfileID  = "ahmed"
	DefaultTargetRole = "General Role"
)

// Load reads configs/config.yaml (if present), merges config.<APP_ENVIRONMENT>.yaml
// on top, then applies environment overrides and defaults.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // overlay is optional

	return finish(v)
}

// LoadFromFile reads a single config file.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)
	return v
}

// bindEnvKeys makes AutomaticEnv see keys that are absent from the yaml.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"worker.base_url", "worker.timeout",
		"genai.provider", "genai.base_url", "genai.api_key", "genai.model",
		"result_log.backend", "result_log.path",
		"database.redis.address", "database.postgres.host",
		"logging.level", "logging.format",
	} {
		_ = v.BindEnv(key)
	}
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideEmptyConfig(&cfg)
	applyDefaults(&cfg)

	// zero is a valid temperature, so only an absent key gets the default
	if !v.IsSet("tailoring.temperature") {
		cfg.Tailoring.Temperature = 0.3
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			// unset variables expand to "" so defaults still apply
			if expanded := os.ExpandEnv(strVal); expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

func overrideEmptyConfig(cfg *Config) {
	// WORKER_URL is what the original deployment sets
	if cfg.Worker.BaseURL == "" {
		if val := os.Getenv("WORKER_URL"); val != "" {
			cfg.Worker.BaseURL = val
		}
	}

	if cfg.GenAI.APIKey == "" {
		for _, name := range []string{"GENAI_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY"} {
			if val := os.Getenv(name); val != "" {
				cfg.GenAI.APIKey = val
				break
			}
		}
	}

	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "apply-orchestrator"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8000"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30000
	}
	if cfg.Server.RecentLogDefault == 0 {
		cfg.Server.RecentLogDefault = 20
	}

	if cfg.Worker.BaseURL == "" {
		cfg.Worker.BaseURL = "http://worker:3000"
	}
	if cfg.Worker.Timeout == 0 {
		cfg.Worker.Timeout = 180000
	}
	if cfg.Worker.RatePerSec > 0 && cfg.Worker.RateBurst == 0 {
		cfg.Worker.RateBurst = 1
	}

	if cfg.GenAI.Provider == "" {
		cfg.GenAI.Provider = "http"
	}
	if cfg.GenAI.MaxTokens == 0 {
		cfg.GenAI.MaxTokens = 300
	}
	if cfg.GenAI.Timeout == 0 {
		cfg.GenAI.Timeout = 60000
	}

	if cfg.Tailoring.MaxBullets == 0 {
		cfg.Tailoring.MaxBullets = 3
	}

	if cfg.Bulk.DefaultLimit == 0 {
		cfg.Bulk.DefaultLimit = 10
	}
	if cfg.Bulk.MaxLimit == 0 {
		cfg.Bulk.MaxLimit = 50
	}
	if cfg.Bulk.Concurrency == 0 {
		cfg.Bulk.Concurrency = 1
	}

	if cfg.ResultLog.Backend == "" {
		cfg.ResultLog.Backend = "file"
	}
	if cfg.ResultLog.Path == "" {
		cfg.ResultLog.Path = "/data/logs/applications.jsonl"
	}
	if cfg.ResultLog.RedisKey == "" {
		cfg.ResultLog.RedisKey = "apply:results"
	}
	if cfg.ResultLog.PostgresTable == "" {
		cfg.ResultLog.PostgresTable = "dispatch_log"
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 2
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Postgres.ConnMaxLifetime == 0 {
		cfg.Database.Postgres.ConnMaxLifetime = 300000
	}
	if cfg.Database.Postgres.ConnMaxIdleTime == 0 {
		cfg.Database.Postgres.ConnMaxIdleTime = 300000
	}

	if cfg.Database.Redis.PoolSize == 0 {
		cfg.Database.Redis.PoolSize = 10
	}
	if cfg.Database.Redis.MinIdleConns == 0 {
		cfg.Database.Redis.MinIdleConns = 2
	}
	if cfg.Database.Redis.DialTimeout == 0 {
		cfg.Database.Redis.DialTimeout = 5000
	}
	if cfg.Database.Redis.ReadTimeout == 0 {
		cfg.Database.Redis.ReadTimeout = 3000
	}
	if cfg.Database.Redis.WriteTimeout == 0 {
		cfg.Database.Redis.WriteTimeout = 3000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	// needs the worker, genai and bulk values above
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = BulkWorstCase(cfg) + writeTimeoutSlack
	}
}

// writeTimeoutSlack covers decoding, rate-limit waits and the result log write.
const writeTimeoutSlack = 30000

// BulkWorstCase returns, in milliseconds, how long a bulk request at
// bulk.max_limit can take when every item spends its full genai and worker
// timeouts. Items run in ceil(max_limit/concurrency) rounds.
func BulkWorstCase(cfg *Config) int {
	concurrency := max(cfg.Bulk.Concurrency, 1)
	rounds := (cfg.Bulk.MaxLimit + concurrency - 1) / concurrency
	return rounds * (cfg.Worker.Timeout + cfg.GenAI.Timeout)
}

func validateConfig(cfg *Config) error {
	switch cfg.GenAI.Provider {
	case "http":
		if cfg.GenAI.BaseURL == "" {
			return fmt.Errorf("genai.base_url is required for the http provider")
		}
	case "openai", "googleai":
		if cfg.GenAI.APIKey == "" {
			return fmt.Errorf("genai.api_key is required for the %s provider", cfg.GenAI.Provider)
		}
	default:
		return fmt.Errorf("genai.provider %q is not supported", cfg.GenAI.Provider)
	}

	if cfg.Tailoring.Temperature < 0 || cfg.Tailoring.Temperature > 2 {
		return fmt.Errorf("tailoring.temperature must be within [0, 2]")
	}
	if cfg.Tailoring.MaxBullets < 1 || cfg.Tailoring.MaxBullets > 3 {
		return fmt.Errorf("tailoring.max_bullets must be within [1, 3], got %d", cfg.Tailoring.MaxBullets)
	}

	if cfg.Bulk.DefaultLimit < 1 || cfg.Bulk.MaxLimit < 1 || cfg.Bulk.Concurrency < 1 {
		return fmt.Errorf("bulk limits and concurrency must be positive")
	}
	if cfg.Bulk.DefaultLimit > cfg.Bulk.MaxLimit {
		return fmt.Errorf("bulk.default_limit (%d) exceeds bulk.max_limit (%d)", cfg.Bulk.DefaultLimit, cfg.Bulk.MaxLimit)
	}

	if worst := BulkWorstCase(cfg); cfg.Server.WriteTimeout < worst {
		return fmt.Errorf("server.write_timeout (%dms) is shorter than the bulk worst case (%dms); raise it or leave it at 0 to derive it",
			cfg.Server.WriteTimeout, worst)
	}

	switch cfg.ResultLog.Backend {
	case "file", "memory":
	case "redis":
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required for the redis result log")
		}
	case "postgres":
		if cfg.Database.Postgres.Host == "" || cfg.Database.Postgres.Database == "" || cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres host, database and user are required for the postgres result log")
		}
	default:
		return fmt.Errorf("result_log.backend %q is not supported", cfg.ResultLog.Backend)
	}

	return nil
}

func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
