package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Client    ClientConfig
	API       APIConfig
	Stores    StoresConfig    `mapstructure:"stores"`
	Session   SessionConfig   `mapstructure:"session"`
	Diag      DiagConfig      `mapstructure:"diag"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ClientConfig struct {
	Mode    string // debug / release
	LogFile string `mapstructure:"log_file"`
}

type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout_seconds"`
	// 出站请求限速（次/分钟），0不限速
	RateLimit int `mapstructure:"rate_limit"`
}

type StoresConfig struct {
	// 选课成功后是否用响应载荷就地更新课程缓存。
	// 关闭时以服务端为准，调用方需重新拉取才能看到选课结果。
	OptimisticEnroll bool `mapstructure:"optimistic_enroll"`
	QueueSize        int  `mapstructure:"queue_size"`
}

type SessionConfig struct {
	// 凭证落盘目录，空则使用 os.UserConfigDir 下的默认位置
	StateDir string `mapstructure:"state_dir"`
}

type DiagConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    string `mapstructure:"port"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("EDU_DASH")
	viper.AutomaticEnv()

	viper.BindEnv("api.base_url", "EDU_DASH_API_BASE_URL")
	viper.BindEnv("api.timeout_seconds", "EDU_DASH_API_TIMEOUT_SECONDS")
	viper.BindEnv("api.rate_limit", "EDU_DASH_API_RATE_LIMIT")

	viper.BindEnv("client.mode", "EDU_DASH_CLIENT_MODE")
	viper.BindEnv("client.log_file", "EDU_DASH_CLIENT_LOG_FILE")

	viper.BindEnv("session.state_dir", "EDU_DASH_SESSION_STATE_DIR")

	viper.BindEnv("stores.optimistic_enroll", "EDU_DASH_STORES_OPTIMISTIC_ENROLL")

	viper.BindEnv("diag.enabled", "EDU_DASH_DIAG_ENABLED")
	viper.BindEnv("diag.port", "EDU_DASH_DIAG_PORT")

	viper.BindEnv("tracing.enabled", "EDU_DASH_TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "EDU_DASH_TRACING_COLLECTOR_ENDPOINT")

	viper.SetDefault("client.mode", "debug")
	viper.SetDefault("client.log_file", "logs/client.log")
	viper.SetDefault("api.base_url", "http://localhost:5000")
	viper.SetDefault("api.timeout_seconds", 0)
	viper.SetDefault("stores.queue_size", 64)
	viper.SetDefault("diag.port", "9090")
	viper.SetDefault("rate_limit.max_requests", 100)
	viper.SetDefault("rate_limit.window_minutes", 1)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.API.Timeout = cfg.API.Timeout * time.Second

	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("api.base_url is required")
	}

	if cfg.Session.StateDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = "."
		}
		cfg.Session.StateDir = filepath.Join(dir, "edu_dashboard")
	}
	if _, err := os.Stat(cfg.Session.StateDir); os.IsNotExist(err) {
		os.MkdirAll(cfg.Session.StateDir, 0700)
	}

	return &cfg, nil
}
