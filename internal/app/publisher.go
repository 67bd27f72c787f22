// internal/app/publisher.go
package app

import (
	"fanbase-service/internal/config"
	"fanbase-service/internal/pkg/events"

	"go.uber.org/zap"
)

// NewPublisher connects to RabbitMQ when AMQP_URL is set. Without a broker
// events are dropped and the returned close func is a no-op.
func NewPublisher(cfg *config.AppConfig, logger *zap.Logger) (events.Publisher, func()) {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP_URL not set, domain events disabled")
		return events.NopPublisher{}, func() {}
	}

	rabbit, err := events.NewRabbitMQPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	if err != nil {
		logger.Warn("rabbitmq unavailable, domain events disabled", zap.Error(err))
		return events.NopPublisher{}, func() {}
	}

	return rabbit, func() {
		if err := rabbit.Close(); err != nil {
			logger.Warn("rabbitmq close failed", zap.Error(err))
		}
	}
}
