package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env  string
	Port int

	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	IVR      IVRConfig
	Texts    TextsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	Level  string
	Format string
}

// IVRConfig tunes call-flow behaviour.
type IVRConfig struct {
	// MaxAttempts bounds the retry loop for a single input step.
	MaxAttempts int
	// MaxGifts bounds the gift-selection sub-loop per event.
	MaxGifts int
	// ProxyNumbers lists dialed numbers that enter the class-representative flow.
	ProxyNumbers []string
	// DefaultUserScope is the tenant id stamped on rows created by calls.
	// Required in production; the legacy system hard-coded it in a save path.
	DefaultUserScope string
	// SessionIdleTimeout evicts call sessions whose platform stopped calling back.
	SessionIdleTimeout time.Duration
	// WebhookToken authenticates the voice platform; empty disables the check.
	WebhookToken string
	// SurveyQuestions is the number of fulfillment survey questions asked.
	SurveyQuestions int
	// LockTTL bounds the advisory lock held across event check-then-write.
	LockTTL time.Duration
}

// TextsConfig tunes the localized text catalog cache.
type TextsConfig struct {
	CacheTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.IVR = IVRConfig{
		MaxAttempts:        v.GetInt("IVR_MAX_ATTEMPTS"),
		MaxGifts:           v.GetInt("IVR_MAX_GIFTS"),
		ProxyNumbers:       splitAndTrim(v.GetString("IVR_PROXY_NUMBERS")),
		DefaultUserScope:   v.GetString("IVR_DEFAULT_USER_SCOPE"),
		SessionIdleTimeout: parseDuration(v.GetString("IVR_SESSION_IDLE_TIMEOUT"), 2*time.Minute),
		WebhookToken:       v.GetString("IVR_WEBHOOK_TOKEN"),
		SurveyQuestions:    v.GetInt("IVR_SURVEY_QUESTIONS"),
		LockTTL:            parseDuration(v.GetString("IVR_LOCK_TTL"), 15*time.Second),
	}

	cfg.Texts = TextsConfig{
		CacheTTL: parseDuration(v.GetString("TEXTS_CACHE_TTL"), 10*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "event_management_nra")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("IVR_MAX_ATTEMPTS", 3)
	v.SetDefault("IVR_MAX_GIFTS", 2)
	v.SetDefault("IVR_PROXY_NUMBERS", "")
	v.SetDefault("IVR_DEFAULT_USER_SCOPE", "")
	v.SetDefault("IVR_SESSION_IDLE_TIMEOUT", "2m")
	v.SetDefault("IVR_WEBHOOK_TOKEN", "")
	v.SetDefault("IVR_SURVEY_QUESTIONS", 3)
	v.SetDefault("IVR_LOCK_TTL", "15s")

	v.SetDefault("TEXTS_CACHE_TTL", "10m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
