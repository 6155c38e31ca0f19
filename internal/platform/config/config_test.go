package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"JESA_ADDR", "MONGO_URI", "MONGO_TRANSACTIONS", "REDIS_URL", "KAFKA_BROKERS", "RATELIMIT_LIMIT", "RATELIMIT_WINDOW", "RATELIMIT_DISABLED"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "jesa", cfg.Mongo.Database)
	assert.Empty(t, cfg.Mongo.URI)
	assert.False(t, cfg.Mongo.Transactions)
	assert.Nil(t, cfg.Kafka.Brokers)
	assert.Equal(t, 10, cfg.RateLimit.Limit)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("JESA_ADDR", ":9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0")
	t.Setenv("MONGO_TRANSACTIONS", "true")
	t.Setenv("KAFKA_BROKERS", "b1:9092, b2:9092,,")
	t.Setenv("RATELIMIT_LIMIT", "3")
	t.Setenv("RATELIMIT_WINDOW", "30s")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.Mongo.Transactions)
	assert.Equal(t, []string{"b1:9092", "b2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 3, cfg.RateLimit.Limit)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
}

func TestFromEnvRejectsInvalid(t *testing.T) {
	t.Run("transactions without uri", func(t *testing.T) {
		t.Setenv("MONGO_URI", "")
		t.Setenv("MONGO_TRANSACTIONS", "true")
		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "MONGO_TRANSACTIONS")
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("MONGO_TRANSACTIONS", "")
		t.Setenv("RATELIMIT_WINDOW", "soon")
		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "RATELIMIT_WINDOW")
	})

	t.Run("zero limit", func(t *testing.T) {
		t.Setenv("MONGO_TRANSACTIONS", "")
		t.Setenv("RATELIMIT_WINDOW", "")
		t.Setenv("RATELIMIT_LIMIT", "0")
		_, err := FromEnv()
		require.Error(t, err)
	})
}
