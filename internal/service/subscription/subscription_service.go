// internal/service/subscription/subscription_service.go
package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fanbase-service/internal/domain"
	"fanbase-service/internal/domain/plan"
	"fanbase-service/internal/domain/subscription"
	"fanbase-service/internal/domain/user"
	xerrors "fanbase-service/internal/pkg/errors"
	"fanbase-service/internal/pkg/events"
	"fanbase-service/internal/pkg/money"
	"fanbase-service/internal/pkg/payprovider"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const maxCancelAttempts = 3

// PaymentInitializer opens a checkout with the payment provider.
type PaymentInitializer interface {
	Initialize(ctx context.Context, in payprovider.InitializeRequest) (*payprovider.InitializeResult, error)
}

type Config struct {
	CallbackURL    string
	PaymentTimeout time.Duration
}

type SubscriptionService struct {
	subRepo   subscription.Repository
	planRepo  plan.Repository
	userRepo  user.Repository
	tx        domain.Transactor
	payments  PaymentInitializer
	publisher events.Publisher
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
}

func NewSubscriptionService(
	subRepo subscription.Repository,
	planRepo plan.Repository,
	userRepo user.Repository,
	tx domain.Transactor,
	payments PaymentInitializer,
	publisher events.Publisher,
	cfg Config,
	logger *zap.Logger,
) *SubscriptionService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if cfg.PaymentTimeout <= 0 {
		cfg.PaymentTimeout = 10 * time.Second
	}
	return &SubscriptionService{
		subRepo:   subRepo,
		planRepo:  planRepo,
		userRepo:  userRepo,
		tx:        tx,
		payments:  payments,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Subscribe creates a pending subscription and opens a checkout for it. The
// subscription becomes active when the provider confirms payment.
func (s *SubscriptionService) Subscribe(ctx context.Context, userID, planID, paymentMethod string) (*subscription.SubscribeResult, error) {
	p, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, xerrors.ErrPlanInactive
	}

	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sub := &subscription.UserSubscription{
		ID:        ulid.Make().String(),
		UserID:    userID,
		PlanID:    p.ID,
		ArtistID:  p.ArtistID,
		Status:    subscription.StatusPending,
		StartDate: now,
		EndDate:   now.AddDate(0, 0, p.DurationDays),
		AutoRenew: true,
		PaymentHistory: []subscription.PaymentEntry{{
			ID:            ulid.Make().String(),
			Amount:        p.Price.Amount,
			Currency:      p.Price.Currency,
			PaymentMethod: paymentMethod,
			TransactionID: subscription.PendingTransactionID,
			Status:        subscription.PaymentPending,
			Timestamp:     now,
		}},
	}

	// The active check and the insert share one transaction; the pair lock
	// serializes concurrent subscribes for the same artist.
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.subRepo.LockPair(ctx, userID, p.ArtistID); err != nil {
			return err
		}
		_, err := s.subRepo.FindActive(ctx, userID, p.ArtistID)
		switch {
		case err == nil:
			return xerrors.ErrAlreadySubscribed
		case !errors.Is(err, xerrors.ErrSubscriptionNotFound):
			return err
		}
		return s.subRepo.Create(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	reference := ulid.Make().String()
	initCtx, cancel := context.WithTimeout(ctx, s.cfg.PaymentTimeout)
	defer cancel()

	res, err := s.payments.Initialize(initCtx, payprovider.InitializeRequest{
		Email:       u.Email,
		AmountMinor: money.ToMinorUnits(p.Price.Amount),
		Currency:    p.Price.Currency,
		Reference:   reference,
		CallbackURL: s.cfg.CallbackURL,
		Metadata: map[string]string{
			"subscription_id": sub.ID,
			"plan_id":         p.ID,
			"artist_id":       p.ArtistID,
		},
	})
	if err != nil {
		s.logger.Warn("payment initiation failed",
			zap.String("subscription_id", sub.ID),
			zap.String("plan_id", p.ID),
			zap.Error(err))
		s.discard(ctx, sub.ID)
		return nil, xerrors.ErrPaymentInitiation
	}
	if res.Reference != "" {
		reference = res.Reference
	}

	// A checkout is open from here on; a client disconnect must not drop it.
	entry := sub.PaymentHistory[0]
	entry.TransactionID = reference
	err = s.tx.WithinTx(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.subRepo.UpdatePayment(ctx, sub.ID, entry); err != nil {
			return err
		}
		return s.planRepo.IncrementSubscriberCount(ctx, p.ID, 1)
	})
	if err != nil {
		s.logger.Error("failed to record payment reference",
			zap.String("subscription_id", sub.ID),
			zap.String("reference", reference),
			zap.Error(err))
		s.discard(ctx, sub.ID)
		return nil, fmt.Errorf("failed to record payment reference: %w", err)
	}
	sub.PaymentHistory[0] = entry

	s.publish(ctx, events.SubscriptionCreated, sub)
	s.logger.Info("subscription created",
		zap.String("subscription_id", sub.ID),
		zap.String("user_id", userID),
		zap.String("plan_id", p.ID),
		zap.String("reference", reference))

	return &subscription.SubscribeResult{
		Subscription: sub,
		RedirectURL:  res.RedirectURL,
		Reference:    reference,
	}, nil
}

// discard removes a pending subscription whose checkout never opened. It
// runs even if the caller's context is already done.
func (s *SubscriptionService) discard(ctx context.Context, subscriptionID string) {
	if err := s.subRepo.Delete(context.WithoutCancel(ctx), subscriptionID); err != nil {
		s.logger.Error("failed to discard pending subscription",
			zap.String("subscription_id", subscriptionID),
			zap.Error(err))
	}
}

// Cancel stops auto-renewal. The subscription keeps its status and stays
// usable until its end date.
func (s *SubscriptionService) Cancel(ctx context.Context, subscriptionID string, actor subscription.Actor) (*subscription.UserSubscription, error) {
	for attempt := 1; attempt <= maxCancelAttempts; attempt++ {
		sub, err := s.subRepo.FindByID(ctx, subscriptionID)
		if err != nil {
			return nil, err
		}
		if !actor.CanAccess(sub) {
			return nil, xerrors.ErrForbidden
		}
		if sub.IsCancelled() {
			return sub, nil
		}

		now := s.now()
		sub.AutoRenew = false
		sub.CancellationDate = &now

		err = s.subRepo.Update(ctx, sub)
		if err == nil {
			s.publish(ctx, events.SubscriptionCancelled, sub)
			s.logger.Info("subscription cancelled",
				zap.String("subscription_id", sub.ID),
				zap.String("status", string(sub.Status)))
			return sub, nil
		}
		if !errors.Is(err, xerrors.ErrVersionConflict) {
			return nil, fmt.Errorf("failed to cancel subscription: %w", err)
		}
		s.logger.Debug("cancel lost a version race, retrying",
			zap.String("subscription_id", subscriptionID),
			zap.Int("attempt", attempt))
	}
	return nil, xerrors.ErrVersionConflict
}

func (s *SubscriptionService) Get(ctx context.Context, subscriptionID string, actor subscription.Actor) (*subscription.UserSubscription, error) {
	sub, err := s.subRepo.FindByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(sub) {
		return nil, xerrors.ErrForbidden
	}
	return sub, nil
}

// ListActive returns the user's active subscriptions across all artists.
func (s *SubscriptionService) ListActive(ctx context.Context, userID string) ([]*subscription.UserSubscription, error) {
	subs, err := s.subRepo.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}

func (s *SubscriptionService) publish(ctx context.Context, eventType string, sub *subscription.UserSubscription) {
	if err := s.publisher.Publish(ctx, events.New(eventType, sub)); err != nil {
		s.logger.Warn("failed to publish subscription event",
			zap.String("event", eventType),
			zap.String("subscription_id", sub.ID),
			zap.Error(err))
	}
}
