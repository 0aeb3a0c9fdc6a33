// Package config loads process configuration: defaults, then an optional YAML
// file, then environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	pstrings "exclusioncheck/pkg/platform/strings"
)

const (
	configPathEnv    = "EXCLUSION_CHECK_CONFIG"
	addrEnv          = "ADDR"
	useMockDataEnv   = "USE_MOCK_DATA"
	apiBaseURLEnv    = "API_BASE_URL"
	logLevelEnv      = "LOG_LEVEL"
	logFormatEnv     = "LOG_FORMAT"
	fsmbKeyEnv       = "FSMB_API_KEY"
	oigKeyEnv        = "OIG_API_KEY"
	samKeyEnv        = "SAM_API_KEY"
	nsopwKeyEnv      = "NSOPW_API_KEY"
	redisURLEnv      = "REDIS_URL"
	kafkaBrokersEnv  = "KAFKA_BROKERS"
	jwtSigningKeyEnv = "JWT_SIGNING_KEY"
	missingStatusEnv = "MISSING_STATUS_POLICY"
)

// Config holds every setting the server needs.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	Screening   ScreeningConfig   `yaml:"screening"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Export      ExportConfig      `yaml:"export"`
	Redis       RedisConfig       `yaml:"redis"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	Auth        AuthConfig        `yaml:"auth"`
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig selects the slog level and handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// ScreeningConfig tunes the check engine and its database adapters.
type ScreeningConfig struct {
	UseMockData             bool          `yaml:"use_mock_data"`
	APIBaseURL              string        `yaml:"api_base_url"`
	AdapterTimeout          time.Duration `yaml:"adapter_timeout"`
	MissingStatus           string        `yaml:"missing_status"`
	RateLimitPerSecond      float64       `yaml:"rate_limit_per_second"`
	RateLimitBurst          int           `yaml:"rate_limit_burst"`
	BreakerFailureThreshold int           `yaml:"breaker_failure_threshold"`
	BreakerSuccessThreshold int           `yaml:"breaker_success_threshold"`
	BreakerCooldown         time.Duration `yaml:"breaker_cooldown"`
}

// CredentialsConfig holds the per-database bearer credentials.
type CredentialsConfig struct {
	FSMB  string `yaml:"fsmb"`
	OIG   string `yaml:"oig"`
	SAM   string `yaml:"sam"`
	NSOPW string `yaml:"nsopw"`
}

// ExportConfig bounds export requests.
type ExportConfig struct {
	MaxBatchSize int           `yaml:"max_batch_size"`
	GuardTTL     time.Duration `yaml:"guard_ttl"`
}

// RedisConfig configures the shared export guard. An empty URL keeps the guard in memory.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// KafkaConfig configures the audit sink. No brokers means audit events are only logged.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// AuthConfig enables bearer-token auth on the API when a signing key is set.
type AuthConfig struct {
	JWTSigningKey string `yaml:"jwt_signing_key"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "text"},
		Screening: ScreeningConfig{
			UseMockData:             true,
			APIBaseURL:              "http://localhost:3000",
			AdapterTimeout:          10 * time.Second,
			MissingStatus:           "clear",
			RateLimitPerSecond:      5,
			RateLimitBurst:          10,
			BreakerFailureThreshold: 5,
			BreakerSuccessThreshold: 2,
			BreakerCooldown:         30 * time.Second,
		},
		Credentials: CredentialsConfig{
			FSMB:  "dev_fsmb_key",
			OIG:   "dev_oig_key",
			SAM:   "dev_sam_key",
			NSOPW: "dev_nsopw_key",
		},
		Export: ExportConfig{MaxBatchSize: 250, GuardTTL: 2 * time.Minute},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{Topic: "exclusion-check.audit"},
	}
}

// Load reads configuration from the process environment.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom builds the configuration using getenv for every lookup.
func LoadFrom(getenv func(string) string) (Config, error) {
	cfg := Default()

	if path := getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		// decoding onto the defaults keeps every key the file omits
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides(getenv func(string) string) error {
	setString := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	setString(addrEnv, &c.Server.Addr)
	setString(apiBaseURLEnv, &c.Screening.APIBaseURL)
	setString(logLevelEnv, &c.Log.Level)
	setString(logFormatEnv, &c.Log.Format)
	setString(fsmbKeyEnv, &c.Credentials.FSMB)
	setString(oigKeyEnv, &c.Credentials.OIG)
	setString(samKeyEnv, &c.Credentials.SAM)
	setString(nsopwKeyEnv, &c.Credentials.NSOPW)
	setString(redisURLEnv, &c.Redis.URL)
	setString(jwtSigningKeyEnv, &c.Auth.JWTSigningKey)
	setString(missingStatusEnv, &c.Screening.MissingStatus)

	if v := getenv(useMockDataEnv); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", useMockDataEnv, err)
		}
		c.Screening.UseMockData = b
	}
	if v := getenv(kafkaBrokersEnv); v != "" {
		c.Kafka.Brokers = pstrings.SplitList(v)
	}
	return nil
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be one of debug|info|warn|error, got %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	switch c.Screening.MissingStatus {
	case "clear", "warning":
	default:
		errs = append(errs, fmt.Errorf("screening.missing_status must be clear or warning, got %q", c.Screening.MissingStatus))
	}
	if !c.Screening.UseMockData && c.Screening.APIBaseURL == "" {
		errs = append(errs, errors.New("screening.api_base_url is required when mock data is disabled"))
	}
	if c.Screening.AdapterTimeout <= 0 {
		errs = append(errs, errors.New("screening.adapter_timeout must be positive"))
	}
	if c.Screening.RateLimitPerSecond <= 0 || c.Screening.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("screening rate limit and burst must be positive"))
	}
	if c.Export.MaxBatchSize <= 0 {
		errs = append(errs, errors.New("export.max_batch_size must be positive"))
	}
	if c.Export.GuardTTL <= 0 {
		errs = append(errs, errors.New("export.guard_ttl must be positive"))
	}
	return errors.Join(errs...)
}
