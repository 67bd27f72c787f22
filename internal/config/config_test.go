// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("PAYMENT_SECRET_KEY", "sk_test")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, 10*time.Second, cfg.Payment.Timeout)
	assert.Equal(t, "https://api.paystack.co", cfg.Payment.BaseURL)
	assert.Equal(t, []string{"localhost:6379"}, cfg.RedisAddrs)
	assert.Equal(t, 5, cfg.SubscribeRateLimit)
	assert.Equal(t, "@every 5m", cfg.ExpirySweepSchedule)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/fanbase")
	t.Setenv("PAYMENT_SECRET_KEY", "sk_test")
	t.Setenv("PAYMENT_TIMEOUT", "3s")
	t.Setenv("PAYMENT_BASE_URL", "https://pay.example.com/")
	t.Setenv("REDIS_ADDR", "r1:6379, r2:6379")
	t.Setenv("APP_ENV", "development")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
	assert.Equal(t, 3*time.Second, cfg.Payment.Timeout)
	assert.Equal(t, "https://pay.example.com", cfg.Payment.BaseURL)
	assert.Equal(t, []string{"r1:6379", "r2:6379"}, cfg.RedisAddrs)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadRejectsIncompleteConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"postgres without url", map[string]string{"STORAGE_DRIVER": "postgres", "PAYMENT_SECRET_KEY": "sk"}},
		{"mongo without uri", map[string]string{"STORAGE_DRIVER": "mongo", "PAYMENT_SECRET_KEY": "sk"}},
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "sqlite", "PAYMENT_SECRET_KEY": "sk"}},
		{"missing secret", map[string]string{"STORAGE_DRIVER": "memory", "PAYMENT_SECRET_KEY": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			t.Setenv("MONGO_URI", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := load(viper.New())
			assert.Error(t, err)
		})
	}
}
