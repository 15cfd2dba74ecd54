package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"judgegate/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr           = "0.0.0.0:8080"
	defaultReadTimeout        = 5 * time.Second
	defaultWriteTimeout       = 10 * time.Second
	defaultIdleTimeout        = 60 * time.Second
	defaultShutdownTimeout    = 10 * time.Second
	defaultExecTimeout        = 20 * time.Second
	defaultRecordStoreTimeout = 10 * time.Second
	defaultMaxTestCases       = 50
	defaultMaxSourceBytes     = 64 * 1024
	defaultWorkerPoolSize     = 8
	defaultInflightTTL        = 10 * time.Minute
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// ExecBackendConfig holds execution backend settings.
type ExecBackendConfig struct {
	BaseURL string        `yaml:"baseURL"`
	AuthKey string        `yaml:"authKey"`
	Timeout time.Duration `yaml:"timeout"`
}

// RecordStoreConfig holds record store settings.
type RecordStoreConfig struct {
	BaseURL string        `yaml:"baseURL"`
	Timeout time.Duration `yaml:"timeout"`
}

// JudgeConfig holds judging pipeline settings.
type JudgeConfig struct {
	MaxTestCases   int           `yaml:"maxTestCases"`
	MaxSourceBytes int           `yaml:"maxSourceBytes"`
	WorkerPoolSize int           `yaml:"workerPoolSize"`
	InflightTTL    time.Duration `yaml:"inflightTTL"`
}

// RedisConfig holds the optional guard backend settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AppConfig holds judge-service config.
type AppConfig struct {
	Server      ServerConfig      `yaml:"server"`
	Logger      logger.Config     `yaml:"logger"`
	Judge0      ExecBackendConfig `yaml:"judge0"`
	RecordStore RecordStoreConfig `yaml:"recordStore"`
	Judge       JudgeConfig       `yaml:"judge"`
	Redis       RedisConfig       `yaml:"redis"`
}

// loadAppConfig reads the optional YAML file, applies environment overrides,
// fills defaults, and validates. Invalid values fail process startup.
func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file failed: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file failed: %w", err)
		}
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *AppConfig) error {
	envString("JUDGE0_URL", &cfg.Judge0.BaseURL)
	envString("JUDGE0_AUTH_TOKEN", &cfg.Judge0.AuthKey)
	envString("RECORD_STORE_URL", &cfg.RecordStore.BaseURL)
	envString("REDIS_ADDR", &cfg.Redis.Addr)
	envString("REDIS_PASSWORD", &cfg.Redis.Password)
	envString("LOG_LEVEL", &cfg.Logger.Level)
	envString("LOG_FORMAT", &cfg.Logger.Format)

	if port, ok := os.LookupEnv("PORT"); ok {
		n, err := strconv.Atoi(port)
		if err != nil || n <= 0 || n > 65535 {
			return fmt.Errorf("invalid PORT: %q", port)
		}
		cfg.Server.Addr = fmt.Sprintf("0.0.0.0:%d", n)
	}
	if err := envPositiveDuration("JUDGE0_TIMEOUT", &cfg.Judge0.Timeout); err != nil {
		return err
	}
	if err := envPositiveDuration("RECORD_STORE_TIMEOUT", &cfg.RecordStore.Timeout); err != nil {
		return err
	}
	if err := envPositiveDuration("INFLIGHT_TTL", &cfg.Judge.InflightTTL); err != nil {
		return err
	}
	if err := envPositiveInt("MAX_TEST_CASES", &cfg.Judge.MaxTestCases); err != nil {
		return err
	}
	if err := envPositiveInt("MAX_SOURCE_BYTES", &cfg.Judge.MaxSourceBytes); err != nil {
		return err
	}
	if err := envPositiveInt("WORKER_POOL_SIZE", &cfg.Judge.WorkerPoolSize); err != nil {
		return err
	}
	// Redis DB 0 is valid; only the sign is wrong here.
	if err := envInt("REDIS_DB", &cfg.Redis.DB); err != nil {
		return err
	}
	if cfg.Redis.DB < 0 {
		return fmt.Errorf("invalid REDIS_DB: %d", cfg.Redis.DB)
	}
	return nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Judge0.Timeout == 0 {
		cfg.Judge0.Timeout = defaultExecTimeout
	}
	if cfg.RecordStore.Timeout == 0 {
		cfg.RecordStore.Timeout = defaultRecordStoreTimeout
	}
	if cfg.Judge.MaxTestCases <= 0 {
		cfg.Judge.MaxTestCases = defaultMaxTestCases
	}
	if cfg.Judge.MaxSourceBytes <= 0 {
		cfg.Judge.MaxSourceBytes = defaultMaxSourceBytes
	}
	if cfg.Judge.WorkerPoolSize <= 0 {
		cfg.Judge.WorkerPoolSize = defaultWorkerPoolSize
	}
	if cfg.Judge.InflightTTL <= 0 {
		cfg.Judge.InflightTTL = defaultInflightTTL
	}
}

func validate(cfg *AppConfig) error {
	if cfg.Judge0.BaseURL == "" {
		return fmt.Errorf("execution backend url is required (JUDGE0_URL)")
	}
	if cfg.RecordStore.BaseURL == "" {
		return fmt.Errorf("record store url is required (RECORD_STORE_URL)")
	}
	return nil
}

func envString(name string, target *string) {
	if value, ok := os.LookupEnv(name); ok && value != "" {
		*target = value
	}
}

func envInt(name string, target *int) error {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", name, value)
	}
	*target = n
	return nil
}

// envPositiveInt is for knobs where zero and negative values are invalid;
// they fail startup rather than fall back to defaults.
func envPositiveInt(name string, target *int) error {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fmt.Errorf("invalid %s: %q", name, value)
	}
	*target = n
	return nil
}

func envPositiveDuration(name string, target *time.Duration) error {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fmt.Errorf("invalid %s: %q", name, value)
	}
	*target = d
	return nil
}
