package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Weather   WeatherConfig   `yaml:"weather"`
	Zillow    ZillowConfig    `yaml:"zillow"`
	Bridge    BridgeConfig    `yaml:"bridge"`
	Worker    WorkerConfig    `yaml:"worker"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
	// gin mode: debug/release/test
	Mode         string   `yaml:"mode"`
	AllowOrigins []string `yaml:"allow_origins"`
}

type LogConfig struct {
	// dev or prod
	Mode string `yaml:"mode"`
}

type DatabaseConfig struct {
	// mysql/postgres/sqlite
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	Charset  string `yaml:"charset"`
	SSLMode  string `yaml:"sslmode"`
	// sqlite file path, ":memory:" is allowed
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	// keys accepted by the parcel endpoint (X-Api-Key header)
	APIKeys []string `yaml:"api_keys"`
}

type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

type WeatherConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
	// retries after the first attempt
	MaxRetries int `yaml:"max_retries"`
}

type ZillowConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

type BridgeConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

type WorkerConfig struct {
	Concurrency  int           `yaml:"concurrency"`
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxAttempts  int           `yaml:"max_attempts"`
	RetryDelay   time.Duration `yaml:"retry_delay"`
	StaleAfter   time.Duration `yaml:"stale_after"`
}

type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	config.applyEnv()
	config.applyDefaults()
	return &config, nil
}

// applyEnv lets deployments keep secrets out of the YAML file.
func (c *Config) applyEnv() {
	setString(&c.Database.Password, "LAWN_DB_PASSWORD")
	setString(&c.Database.Host, "LAWN_DB_HOST")
	setString(&c.Auth.JWTSecret, "LAWN_JWT_SECRET")
	setString(&c.Weather.APIKey, "LAWN_WEATHER_API_KEY")
	setString(&c.Zillow.APIKey, "LAWN_ZILLOW_API_KEY")
	setString(&c.Bridge.APIKey, "LAWN_BRIDGE_API_KEY")
	if v := strings.TrimSpace(os.Getenv("LAWN_REDIS_ADDR")); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Redis.Host = host
		if ok {
			if p, err := strconv.Atoi(port); err == nil {
				c.Redis.Port = p
			}
		}
	}
	if v := strings.TrimSpace(os.Getenv("LAWN_API_KEYS")); v != "" {
		c.Auth.APIKeys = strings.Split(v, ",")
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Log.Mode == "" {
		c.Log.Mode = "dev"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.Charset == "" {
		c.Database.Charset = "utf8mb4"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Redis.Host != "" && c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.RateLimit.Requests <= 0 {
		c.RateLimit.Requests = 50
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = time.Hour
	}
	if c.Weather.Timeout <= 0 {
		c.Weather.Timeout = 10 * time.Second
	}
	if c.Weather.MaxRetries < 0 {
		c.Weather.MaxRetries = 0
	}
	if c.Zillow.Timeout <= 0 {
		c.Zillow.Timeout = 15 * time.Second
	}
	if c.Bridge.Timeout <= 0 {
		c.Bridge.Timeout = 15 * time.Second
	}
	if c.Worker.Concurrency <= 0 {
		c.Worker.Concurrency = 4
	}
	if c.Worker.PollInterval <= 0 {
		c.Worker.PollInterval = time.Second
	}
	if c.Worker.MaxAttempts <= 0 {
		c.Worker.MaxAttempts = 3
	}
	if c.Worker.RetryDelay <= 0 {
		c.Worker.RetryDelay = 30 * time.Second
	}
	if c.Worker.StaleAfter <= 0 {
		c.Worker.StaleAfter = 15 * time.Minute
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "lawn-engine"
	}
}

func setString(dst *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*dst = v
	}
}
