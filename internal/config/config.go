package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Honeypot  HoneypotConfig  `mapstructure:"honeypot"`
	Callback  CallbackConfig  `mapstructure:"callback"`
	Agent     AgentConfig     `mapstructure:"agent"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	Debug       bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	HTTPPort        int           `mapstructure:"http_port"`
	GRPCPort        int           `mapstructure:"grpc_port"`
	APIKey          string        `mapstructure:"api_key"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// HoneypotConfig controls detection and report-trigger thresholds.
type HoneypotConfig struct {
	ScamThreshold  int `mapstructure:"scam_threshold"`
	MinMessages    int `mapstructure:"min_messages"`
	MaxMessages    int `mapstructure:"max_messages"`
	HistoryWindow  int `mapstructure:"history_window"`
	MaxNoteTactics int `mapstructure:"max_note_tactics"`
}

// CallbackConfig controls final-report delivery to the external evaluator.
type CallbackConfig struct {
	URL            string        `mapstructure:"url"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	BaseDelay      time.Duration `mapstructure:"base_delay"`
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
	Workers        int           `mapstructure:"workers"`
	QueueSize      int           `mapstructure:"queue_size"`
}

// AgentConfig controls the engagement reply generator.
type AgentConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
	TLS       bool   `mapstructure:"tls"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATSConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	URL        string `mapstructure:"url"`
	StreamName string `mapstructure:"stream_name"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	RequestsPerHour   int  `mapstructure:"requests_per_hour"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/honeytrap-lab")
	}

	setDefaults(v)

	// Environment variables
	v.SetEnvPrefix("HONEYTRAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind nested env vars explicitly (viper doesn't auto-bind nested struct fields)
	v.BindEnv("server.api_key", "HONEYTRAP_SERVER_API_KEY")
	v.BindEnv("callback.url", "HONEYTRAP_CALLBACK_URL")
	v.BindEnv("agent.api_key", "HONEYTRAP_AGENT_API_KEY")
	v.BindEnv("agent.base_url", "HONEYTRAP_AGENT_BASE_URL")
	v.BindEnv("agent.model", "HONEYTRAP_AGENT_MODEL")
	v.BindEnv("redis.enabled", "HONEYTRAP_REDIS_ENABLED")
	v.BindEnv("redis.host", "HONEYTRAP_REDIS_HOST")
	v.BindEnv("redis.port", "HONEYTRAP_REDIS_PORT")
	v.BindEnv("redis.password", "HONEYTRAP_REDIS_PASSWORD")
	v.BindEnv("redis.tls", "HONEYTRAP_REDIS_TLS")
	v.BindEnv("database.enabled", "HONEYTRAP_DATABASE_ENABLED")
	v.BindEnv("database.host", "HONEYTRAP_DATABASE_HOST")
	v.BindEnv("database.port", "HONEYTRAP_DATABASE_PORT")
	v.BindEnv("database.user", "HONEYTRAP_DATABASE_USER")
	v.BindEnv("database.password", "HONEYTRAP_DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "HONEYTRAP_DATABASE_DBNAME")
	v.BindEnv("database.sslmode", "HONEYTRAP_DATABASE_SSLMODE")
	v.BindEnv("nats.enabled", "HONEYTRAP_NATS_ENABLED")
	v.BindEnv("nats.url", "HONEYTRAP_NATS_URL")
	v.BindEnv("app.environment", "HONEYTRAP_APP_ENVIRONMENT")

	// Read config file; env-only deployments are fine without one
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadDefault loads configuration with default path
func LoadDefault() (*Config, error) {
	return Load("")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "honeytrap-lab")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.grpc_port", 9090)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("honeypot.scam_threshold", 40)
	v.SetDefault("honeypot.min_messages", 8)
	v.SetDefault("honeypot.max_messages", 15)
	v.SetDefault("honeypot.history_window", 5)
	v.SetDefault("honeypot.max_note_tactics", 10)

	v.SetDefault("callback.max_attempts", 3)
	v.SetDefault("callback.base_delay", time.Second)
	v.SetDefault("callback.attempt_timeout", 30*time.Second)
	v.SetDefault("callback.workers", 4)
	v.SetDefault("callback.queue_size", 256)

	v.SetDefault("agent.base_url", "https://api.openai.com/v1")
	v.SetDefault("agent.model", "gpt-4o-mini")
	v.SetDefault("agent.max_tokens", 150)
	v.SetDefault("agent.temperature", 0.9)
	v.SetDefault("agent.timeout", 20*time.Second)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.key_prefix", "honeytrap")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("nats.stream_name", "HONEYTRAP_EVENTS")

	v.SetDefault("ratelimit.requests_per_minute", 120)
	v.SetDefault("ratelimit.requests_per_hour", 2000)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.time_format", time.RFC3339)
}
