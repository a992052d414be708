package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Bot        BotConfig        `mapstructure:"bot"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Moderation ModerationConfig `mapstructure:"moderation"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	I18n       I18nConfig       `mapstructure:"i18n"`
}

type BotConfig struct {
	Token         string        `mapstructure:"token"`
	Webhook       WebhookConfig `mapstructure:"webhook"`
	UpdateTimeout int           `mapstructure:"update_timeout"`
}

type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Port    int    `mapstructure:"port"`
}

// ClassifierConfig describes the remote inference endpoints. Text and
// audio are separate endpoints because they are served by different
// fine-tuned models with different label vocabularies.
type ClassifierConfig struct {
	Text           EndpointConfig `mapstructure:"text"`
	Audio          EndpointConfig `mapstructure:"audio"`
	RequestTimeout time.Duration  `mapstructure:"request_timeout"`
	MaxRetries     int            `mapstructure:"max_retries"`
}

type EndpointConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

type StorageConfig struct {
	Type   string       `mapstructure:"type"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Memory MemoryConfig `mapstructure:"memory"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MemoryConfig struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
	MaxSize int           `mapstructure:"max_size"`
}

// ModerationConfig carries the policy parameters. Zero values are
// replaced with the reference defaults by LoadConfig so a sparse
// config file still yields a working policy.
type ModerationConfig struct {
	ScoreThreshold      float64       `mapstructure:"score_threshold"`
	ReplyCooldown       time.Duration `mapstructure:"reply_cooldown"`
	WarningThreshold    int           `mapstructure:"warning_threshold"`
	RestrictionDuration time.Duration `mapstructure:"restriction_duration"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
}

type LoggingConfig struct {
	Level  string     `mapstructure:"level"`
	Format string     `mapstructure:"format"`
	Output string     `mapstructure:"output"`
	File   FileConfig `mapstructure:"file"`
}

type FileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

type MonitoringConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

type I18nConfig struct {
	DefaultLanguage string   `mapstructure:"default_language"`
	Languages       []string `mapstructure:"languages"`
}

// Reference policy defaults.
const (
	DefaultScoreThreshold      = 0.75
	DefaultReplyCooldown       = 60 * time.Second
	DefaultWarningThreshold    = 2
	DefaultRestrictionDuration = 10 * time.Second
)

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// Enable environment variable substitution
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Set environment variable overrides
	viper.SetEnvPrefix("") // No prefix
	viper.BindEnv("bot.token", "BOT_TOKEN")
	viper.BindEnv("storage.redis.addr", "REDIS_ADDR")
	viper.BindEnv("storage.redis.password", "REDIS_PASSWORD")
	viper.BindEnv("storage.redis.db", "REDIS_DB")
	viper.BindEnv("classifier.text.base_url", "TEXT_MODEL_BASE_URL")
	viper.BindEnv("classifier.text.api_key", "TEXT_MODEL_API_KEY")
	viper.BindEnv("classifier.audio.base_url", "AUDIO_MODEL_BASE_URL")
	viper.BindEnv("classifier.audio.api_key", "AUDIO_MODEL_API_KEY")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyModerationDefaults(&config.Moderation)

	// Validate required fields
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func applyModerationDefaults(m *ModerationConfig) {
	if m.ScoreThreshold == 0 {
		m.ScoreThreshold = DefaultScoreThreshold
	}
	if m.ReplyCooldown == 0 {
		m.ReplyCooldown = DefaultReplyCooldown
	}
	if m.WarningThreshold == 0 {
		m.WarningThreshold = DefaultWarningThreshold
	}
	if m.RestrictionDuration == 0 {
		m.RestrictionDuration = DefaultRestrictionDuration
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Bot.Token == "" {
		return fmt.Errorf("bot token is required")
	}
	if cfg.Classifier.Text.BaseURL == "" {
		return fmt.Errorf("text classifier endpoint is required")
	}
	if cfg.Moderation.ScoreThreshold < 0 || cfg.Moderation.ScoreThreshold > 1 {
		return fmt.Errorf("score threshold must be within [0,1]")
	}
	return nil
}
