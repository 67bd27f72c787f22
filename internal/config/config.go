// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"fanbase-service/internal/pkg/jwt"

	"github.com/spf13/viper"
)

const (
	StoragePostgres = "postgres"
	StorageMongo    = "mongo"
	StorageMemory   = "memory"
)

type AppConfig struct {
	Env      string
	HTTPAddr string

	// Storage
	StorageDriver string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string

	// Redis
	RedisAddrs       []string
	RedisPass        string
	RedisDB          int
	RedisClusterMode bool

	// JWT
	JWT jwt.Config

	Payment PaymentConfig

	// Messaging
	AMQPURL      string
	AMQPExchange string

	SubscribeRateLimit  int
	SubscribeRateWindow time.Duration
	ExpirySweepSchedule string
	CORSAllowedOrigins  []string
}

type PaymentConfig struct {
	BaseURL     string
	SecretKey   string
	CallbackURL string
	Timeout     time.Duration
}

func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from the environment. Entry points load .env into
// the process environment with godotenv before calling it.
func Load() (*AppConfig, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*AppConfig, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("APP_ENV", "production")
	v.SetDefault("HTTP_ADDR", ":8000")
	v.SetDefault("STORAGE_DRIVER", StoragePostgres)
	v.SetDefault("MONGO_DATABASE", "fanbase")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_PRIVATE_KEY_PATH", "/app/secrets/jwt_private.pem")
	v.SetDefault("JWT_PUBLIC_KEY_PATH", "/app/secrets/jwt_public.pem")
	v.SetDefault("JWT_ISSUER", "fanbase")
	v.SetDefault("JWT_AUDIENCE", "fanbase-users")
	v.SetDefault("JWT_TTL", 24*time.Hour)
	v.SetDefault("JWT_KID", "fanbase-key")
	v.SetDefault("PAYMENT_BASE_URL", "https://api.paystack.co")
	v.SetDefault("PAYMENT_TIMEOUT", 10*time.Second)
	v.SetDefault("AMQP_EXCHANGE", "fanbase.events")
	v.SetDefault("SUBSCRIBE_RATE_LIMIT", 5)
	v.SetDefault("SUBSCRIBE_RATE_WINDOW", time.Minute)
	v.SetDefault("EXPIRY_SWEEP_SCHEDULE", "@every 5m")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	for _, key := range []string{
		"DATABASE_URL", "MONGO_URI", "REDIS_PASSWORD", "REDIS_CLUSTER_MODE",
		"PAYMENT_SECRET_KEY", "PAYMENT_CALLBACK_URL", "AMQP_URL",
	} {
		_ = v.BindEnv(key)
	}

	cfg := &AppConfig{
		Env:           v.GetString("APP_ENV"),
		HTTPAddr:      v.GetString("HTTP_ADDR"),
		StorageDriver: strings.ToLower(v.GetString("STORAGE_DRIVER")),
		DatabaseURL:   v.GetString("DATABASE_URL"),
		MongoURI:      v.GetString("MONGO_URI"),
		MongoDatabase: v.GetString("MONGO_DATABASE"),

		RedisAddrs:       splitList(v.GetString("REDIS_ADDR")),
		RedisPass:        v.GetString("REDIS_PASSWORD"),
		RedisDB:          v.GetInt("REDIS_DB"),
		RedisClusterMode: v.GetBool("REDIS_CLUSTER_MODE"),

		JWT: jwt.Config{
			PrivPath: v.GetString("JWT_PRIVATE_KEY_PATH"),
			PubPath:  v.GetString("JWT_PUBLIC_KEY_PATH"),
			Issuer:   v.GetString("JWT_ISSUER"),
			Audience: v.GetString("JWT_AUDIENCE"),
			TTL:      v.GetDuration("JWT_TTL"),
			KID:      v.GetString("JWT_KID"),
		},

		Payment: PaymentConfig{
			BaseURL:     strings.TrimRight(v.GetString("PAYMENT_BASE_URL"), "/"),
			SecretKey:   v.GetString("PAYMENT_SECRET_KEY"),
			CallbackURL: v.GetString("PAYMENT_CALLBACK_URL"),
			Timeout:     v.GetDuration("PAYMENT_TIMEOUT"),
		},

		AMQPURL:      v.GetString("AMQP_URL"),
		AMQPExchange: v.GetString("AMQP_EXCHANGE"),

		SubscribeRateLimit:  v.GetInt("SUBSCRIBE_RATE_LIMIT"),
		SubscribeRateWindow: v.GetDuration("SUBSCRIBE_RATE_WINDOW"),
		ExpirySweepSchedule: v.GetString("EXPIRY_SWEEP_SCHEDULE"),
		CORSAllowedOrigins:  splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.StorageDriver {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres storage driver")
		}
	case StorageMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo storage driver")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.Payment.SecretKey == "" {
		return fmt.Errorf("PAYMENT_SECRET_KEY is required")
	}
	if c.Payment.Timeout <= 0 {
		return fmt.Errorf("PAYMENT_TIMEOUT must be positive")
	}
	return nil
}

// --- Helper functions ---

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
