package config

import (
	"errors"
	"os"
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
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Records   RecordsConfig
	Imports   ImportsConfig
	RecordAPI RecordAPIConfig
	Export    ExportConfig
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

type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// RecordsConfig governs the generic record store and its read cache.
type RecordsConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ImportsConfig tunes batch import behaviour.
type ImportsConfig struct {
	DefaultSemester string
	MaxBatchSize    int
	RetryAttempts   int
	RetryDelay      time.Duration
}

// RecordAPIConfig points the importer CLI at a remote record API.
type RecordAPIConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// ExportConfig controls transcript rendering.
type ExportConfig struct {
	CSVBOM        bool
	PDFFontFamily string
	PDFFontPath   string
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
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

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

	cfg.JWT = JWTConfig{
		Secret:   v.GetString("JWT_SECRET"),
		Issuer:   v.GetString("JWT_ISSUER"),
		Audience: splitAndTrim(v.GetString("JWT_AUDIENCE")),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Records = RecordsConfig{
		CacheEnabled: v.GetBool("ENABLE_RECORDS_CACHE"),
		CacheTTL:     parseDuration(v.GetString("RECORDS_CACHE_TTL"), 5*time.Minute),
	}

	maxBatch := v.GetInt("IMPORT_MAX_BATCH_SIZE")
	if maxBatch <= 0 {
		maxBatch = 5000
	}
	cfg.Imports = ImportsConfig{
		DefaultSemester: v.GetString("DEFAULT_SEMESTER"),
		MaxBatchSize:    maxBatch,
		RetryAttempts:   v.GetInt("STORE_RETRY_ATTEMPTS"),
		RetryDelay:      parseDuration(v.GetString("STORE_RETRY_DELAY"), 200*time.Millisecond),
	}

	cfg.RecordAPI = RecordAPIConfig{
		BaseURL: strings.TrimRight(v.GetString("RECORD_API_BASE_URL"), "/"),
		Token:   v.GetString("RECORD_API_TOKEN"),
		Timeout: parseDuration(v.GetString("RECORD_API_TIMEOUT"), 15*time.Second),
	}

	cfg.Export = ExportConfig{
		CSVBOM:        v.GetBool("CSV_BOM"),
		PDFFontFamily: v.GetString("PDF_FONT_FAMILY"),
		PDFFontPath:   v.GetString("PDF_FONT_PATH"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "bbsmart")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("JWT_AUDIENCE", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_RECORDS_CACHE", false)
	v.SetDefault("RECORDS_CACHE_TTL", "5m")

	v.SetDefault("DEFAULT_SEMESTER", "1/2568")
	v.SetDefault("IMPORT_MAX_BATCH_SIZE", 5000)
	v.SetDefault("STORE_RETRY_ATTEMPTS", 3)
	v.SetDefault("STORE_RETRY_DELAY", "200ms")

	v.SetDefault("RECORD_API_BASE_URL", "http://localhost:8080/api/v1/records")
	v.SetDefault("RECORD_API_TOKEN", "")
	v.SetDefault("RECORD_API_TIMEOUT", "15s")

	v.SetDefault("CSV_BOM", true)
	v.SetDefault("PDF_FONT_FAMILY", "Sarabun")
	v.SetDefault("PDF_FONT_PATH", "")
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
