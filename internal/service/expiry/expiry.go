// internal/service/expiry/expiry.go
package expiry

import (
	"context"
	"fmt"
	"time"

	"fanbase-service/internal/domain"
	"fanbase-service/internal/domain/subscription"
	"fanbase-service/internal/pkg/events"

	"go.uber.org/zap"
)

// Notifier pushes realtime updates to a connected user.
type Notifier interface {
	NotifyUser(userID, event string, data interface{})
}

// Service closes subscriptions whose paid period has ended.
type Service struct {
	subRepo   subscription.Repository
	tx        domain.Transactor
	publisher events.Publisher
	notifier  Notifier
	logger    *zap.Logger
}

func NewService(subRepo subscription.Repository, tx domain.Transactor, publisher events.Publisher, notifier Notifier, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		subRepo:   subRepo,
		tx:        tx,
		publisher: publisher,
		notifier:  notifier,
		logger:    logger,
	}
}

// SweepExpired moves active subscriptions with endDate <= now to expired and
// returns how many changed.
func (s *Service) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	var expired []*subscription.UserSubscription
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		expired, err = s.subRepo.ExpireDue(ctx, now)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to expire subscriptions: %w", err)
	}

	for _, sub := range expired {
		if err := s.publisher.Publish(ctx, events.New(events.SubscriptionExpired, sub)); err != nil {
			s.logger.Warn("failed to publish expiry event", zap.String("subscription_id", sub.ID), zap.Error(err))
		}
		if s.notifier != nil {
			s.notifier.NotifyUser(sub.UserID, events.SubscriptionExpired, sub)
		}
	}

	if len(expired) > 0 {
		s.logger.Info("expired subscriptions", zap.Int("count", len(expired)), zap.Time("cutoff", now))
	}
	return len(expired), nil
}
