package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, "workplace_emotion_app_", cfg.Store.KeyPrefix)
	assert.Equal(t, 10*time.Second, cfg.Stream.InactivityTimeout)
	assert.Equal(t, 3, cfg.Missions.DailyCount)
	assert.Equal(t, 100, cfg.Metrics.ResponseTimeCap)
	assert.Equal(t, []string{"*"}, cfg.Security.AllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", StoreRedis)
	t.Setenv("STREAM_INACTIVITY_TIMEOUT", "3s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("GEMINI_TEMPERATURE", "0.2")
	t.Setenv("APP_ENV", "production")

	cfg := Load()
	assert.Equal(t, StoreRedis, cfg.Store.Backend)
	assert.Equal(t, 3*time.Second, cfg.Stream.InactivityTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.Cache.Enabled)
	assert.InDelta(t, 0.2, cfg.Gemini.Temperature, 1e-9)
	assert.True(t, cfg.IsProduction())
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("DAILY_MISSION_COUNT", "many")
	t.Setenv("SERVER_TIMEOUT", "soon")

	cfg := Load()
	assert.Equal(t, 3, cfg.Missions.DailyCount)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
}

func TestDSN(t *testing.T) {
	cfg := Load()
	cfg.Database.Host = "db"
	cfg.Database.Timeout = 7 * time.Second
	assert.Contains(t, cfg.DSN(), "host=db")
	assert.Contains(t, cfg.DSN(), "connect_timeout=7")
}
