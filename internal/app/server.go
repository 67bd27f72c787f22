// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fanbase-service/internal/config"
	"fanbase-service/internal/db"
	"fanbase-service/internal/middleware"
	"fanbase-service/internal/pkg/jwt"
	"fanbase-service/internal/pkg/payprovider"
	"fanbase-service/internal/pkg/ratelimit"
	"fanbase-service/internal/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger

	httpServer     *http.Server
	repos          *Repositories
	redis          redis.UniversalClient
	closePublisher func()
	stopHub        context.CancelFunc
}

func NewServer(cfg *config.AppConfig, logger *zap.Logger) *Server {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	return &Server{
		cfg:    cfg,
		engine: engine,
		logger: logger,
		httpServer: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start wires every dependency and serves HTTP until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	logger := s.logger
	validation.Register()

	// ----- Storage -----
	repos, err := OpenRepositories(ctx, s.cfg, logger)
	if err != nil {
		return err
	}
	s.repos = repos

	// ----- Redis -----
	redisClient, err := db.NewRedis(ctx, db.RedisConfig{
		ClusterMode: s.cfg.RedisClusterMode,
		Addresses:   s.cfg.RedisAddrs,
		Password:    s.cfg.RedisPass,
		DB:          s.cfg.RedisDB,
		PoolSize:    10,
	})
	if err != nil {
		// The limiter fails open, so the API keeps serving without Redis.
		logger.Warn("redis unavailable, subscribe rate limiting disabled", zap.Error(err))
		redisClient = nil
	} else {
		logger.Info("connected to redis")
		s.redis = redisClient
	}
	limiter := ratelimit.NewRedisLimiter(redisClient, "fanbase:rate_limit", s.cfg.SubscribeRateLimit, s.cfg.SubscribeRateWindow)

	// ----- Events -----
	publisher, closePublisher := NewPublisher(s.cfg, logger)
	s.closePublisher = closePublisher

	// ----- JWT -----
	verifier, err := jwt.LoadVerifier(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT verifier: %w", err)
	}

	// ----- Payment Provider -----
	payments := payprovider.NewBreakerClient(
		payprovider.NewClient(s.cfg.Payment.BaseURL, s.cfg.Payment.SecretKey, s.cfg.Payment.Timeout),
		payprovider.DefaultBreakerConfig(),
		logger,
	)

	container := NewContainer(Dependencies{
		Repos:          repos,
		Payments:       payments,
		Publisher:      publisher,
		Limiter:        limiter,
		Verifier:       verifier,
		WebhookSecret:  s.cfg.Payment.SecretKey,
		CallbackURL:    s.cfg.Payment.CallbackURL,
		PaymentTimeout: s.cfg.Payment.Timeout,
		AllowedOrigins: s.cfg.CORSAllowedOrigins,
		Logger:         logger,
	})

	hubCtx, stopHub := context.WithCancel(context.Background())
	s.stopHub = stopHub
	go container.Hub.Run(hubCtx)

	// ----- Middlewares -----
	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(s.cfg.CORSAllowedOrigins),
	)
	SetupRouter(s.engine, logger, container.Handlers)

	// ----- Start HTTP -----
	logger.Info("server running", zap.String("addr", s.cfg.HTTPAddr), zap.String("storage", s.cfg.StorageDriver))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests, then releases connections.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownErr := s.httpServer.Shutdown(ctx)
	if s.stopHub != nil {
		s.stopHub()
	}
	if s.closePublisher != nil {
		s.closePublisher()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("redis close failed", zap.Error(err))
		}
	}
	if s.repos != nil {
		s.repos.Close(ctx)
	}
	return shutdownErr
}
