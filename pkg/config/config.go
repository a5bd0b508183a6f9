package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port     string
		GRPCPort string
		Env      string
		Timeout  time.Duration
		BaseURL  string
	}

	// Store selects the key-value backend every repository writes through
	Store struct {
		Backend   string
		KeyPrefix string
	}

	// Database configuration (postgres store backend)
	Database struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
		MaxConns int
		Timeout  time.Duration
	}

	// Redis configuration (redis store backend)
	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	// Gemini generative-text provider
	Gemini struct {
		APIKey          string
		BaseURL         string
		Model           string
		Timeout         time.Duration
		Temperature     float64
		TopK            int
		TopP            float64
		MaxOutputTokens int
	}

	// Stream decoding
	Stream struct {
		InactivityTimeout time.Duration
	}

	// Security configuration
	Security struct {
		RateLimit      float64
		RateLimitBurst int
		AllowedOrigins []string
		MaxBodySize    int64
		JWTSecret      string
		JWTExpiry      time.Duration
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// Cache settings
	Cache struct {
		Enabled     bool
		TTL         time.Duration
		MaxSize     int
		PurgeWindow time.Duration
	}

	// Missions settings
	Missions struct {
		DailyCount int
	}

	// Activity feed settings
	Activity struct {
		MaxItems int
	}

	// Metrics settings
	Metrics struct {
		Enabled           bool
		ResponseTimeCap   int
		TracingEnabled    bool
		ServiceName       string
		OpenAPISchemaPath string
	}

	// Kafka publishing of activity events
	Kafka struct {
		Brokers []string
		Topic   string
	}

	// Vault secrets
	Vault struct {
		Enabled bool
		Address string
		Token   string
		Path    string
	}

	// Notes settings
	Notes struct {
		SealKey string
	}

	// Images settings
	Images struct {
		MaxBytes   int
		MaxWidth   int
		MaxPerPost int
	}

	// Jobs (cron expressions)
	Jobs struct {
		Enabled         bool
		BadgeSweepSpec  string
		HealthCheckSpec string
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables
// Uses singleton pattern to ensure only one instance exists
func New() *Config {
	once.Do(func() {
		_ = godotenv.Load()
		instance = Load()
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// Load reads a fresh Config from the environment without touching the singleton
func Load() *Config {
	cfg := &Config{}

	cfg.Server.Port = getEnvString("PORT", "8081")
	cfg.Server.GRPCPort = getEnvString("GRPC_PORT", "9094")
	cfg.Server.Env = getEnvString("APP_ENV", "development")
	cfg.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)
	cfg.Server.BaseURL = getEnvString("BASE_URL", "http://localhost:"+cfg.Server.Port)

	cfg.Store.Backend = getEnvString("STORE_BACKEND", StoreMemory)
	cfg.Store.KeyPrefix = getEnvString("STORE_KEY_PREFIX", "workplace_emotion_app_")

	cfg.Database.Host = getEnvString("DB_HOST", "localhost")
	cfg.Database.Port = getEnvString("DB_PORT", "5432")
	cfg.Database.User = getEnvString("DB_USER", "postgres")
	cfg.Database.Password = getEnvString("DB_PASSWORD", "postgres")
	cfg.Database.Name = getEnvString("DB_NAME", "maeum")
	cfg.Database.SSLMode = getEnvString("DB_SSL_MODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 20)
	cfg.Database.Timeout = getEnvDuration("DB_TIMEOUT", 5*time.Second)

	cfg.Redis.Addr = getEnvString("REDIS_URL", "localhost:6379")
	cfg.Redis.Password = getEnvString("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.Gemini.APIKey = getEnvString("GEMINI_API_KEY", "")
	cfg.Gemini.BaseURL = getEnvString("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1")
	cfg.Gemini.Model = getEnvString("GEMINI_MODEL", "gemini-2.0-flash")
	cfg.Gemini.Timeout = getEnvDuration("GEMINI_TIMEOUT", 15*time.Second)
	cfg.Gemini.Temperature = getEnvFloat("GEMINI_TEMPERATURE", 0.7)
	cfg.Gemini.TopK = getEnvInt("GEMINI_TOP_K", 40)
	cfg.Gemini.TopP = getEnvFloat("GEMINI_TOP_P", 0.95)
	cfg.Gemini.MaxOutputTokens = getEnvInt("GEMINI_MAX_OUTPUT_TOKENS", 1024)

	cfg.Stream.InactivityTimeout = getEnvDuration("STREAM_INACTIVITY_TIMEOUT", 10*time.Second)

	cfg.Security.RateLimit = getEnvFloat("RATE_LIMIT", 5)
	cfg.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 10)
	cfg.Security.AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS", []string{"*"})
	cfg.Security.MaxBodySize = getEnvInt64("MAX_BODY_SIZE", 10<<20) // 10MB
	cfg.Security.JWTSecret = getEnvString("JWT_SECRET", "default-jwt-secret-do-not-use-in-production")
	cfg.Security.JWTExpiry = getEnvDuration("JWT_EXPIRY", 30*24*time.Hour)

	cfg.Logging.Level = getEnvString("LOG_LEVEL", "info")
	cfg.Logging.Format = getEnvString("LOG_FORMAT", "json")

	cfg.Cache.Enabled = getEnvBool("CACHE_ENABLED", true)
	cfg.Cache.TTL = getEnvDuration("CACHE_TTL", 10*time.Minute)
	cfg.Cache.MaxSize = getEnvInt("CACHE_MAX_SIZE", 1000)
	cfg.Cache.PurgeWindow = getEnvDuration("CACHE_PURGE_WINDOW", 10*time.Minute)

	cfg.Missions.DailyCount = getEnvInt("DAILY_MISSION_COUNT", 3)
	cfg.Activity.MaxItems = getEnvInt("ACTIVITY_MAX_ITEMS", 100)

	cfg.Metrics.Enabled = getEnvBool("METRICS_ENABLED", true)
	cfg.Metrics.ResponseTimeCap = getEnvInt("RESPONSE_TIME_SAMPLES", 100)
	cfg.Metrics.TracingEnabled = getEnvBool("TRACING_ENABLED", false)
	cfg.Metrics.ServiceName = getEnvString("SERVICE_NAME", "maeum-backend")
	cfg.Metrics.OpenAPISchemaPath = getEnvString("OPENAPI_SCHEMA_PATH", "")

	cfg.Kafka.Brokers = getEnvStringSlice("KAFKA_BROKERS", nil)
	cfg.Kafka.Topic = getEnvString("KAFKA_ACTIVITY_TOPIC", "maeum.activities")

	cfg.Vault.Enabled = getEnvBool("VAULT_ENABLED", false)
	cfg.Vault.Address = getEnvString("VAULT_ADDR", "")
	cfg.Vault.Token = getEnvString("VAULT_TOKEN", "")
	cfg.Vault.Path = getEnvString("VAULT_SECRETS_PATH", "maeum")

	cfg.Notes.SealKey = getEnvString("NOTE_SEAL_KEY", "")

	cfg.Images.MaxBytes = getEnvInt("IMAGE_MAX_BYTES", 500*1024)
	cfg.Images.MaxWidth = getEnvInt("IMAGE_MAX_WIDTH", 1200)
	cfg.Images.MaxPerPost = getEnvInt("IMAGE_MAX_PER_POST", 5)

	cfg.Jobs.Enabled = getEnvBool("JOBS_ENABLED", true)
	cfg.Jobs.BadgeSweepSpec = getEnvString("JOB_BADGE_SWEEP", "5 0 * * *")
	cfg.Jobs.HealthCheckSpec = getEnvString("JOB_HEALTH_CHECK", "@every 30s")

	return cfg
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}
