// internal/service/reconciliation/reconciliation.go
package reconciliation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"fanbase-service/internal/domain"
	"fanbase-service/internal/domain/artist"
	"fanbase-service/internal/domain/payment"
	"fanbase-service/internal/domain/plan"
	"fanbase-service/internal/domain/subscription"
	"fanbase-service/internal/domain/wallet"
	xerrors "fanbase-service/internal/pkg/errors"
	"fanbase-service/internal/pkg/events"
	"fanbase-service/internal/pkg/money"
	"fanbase-service/internal/pkg/payprovider"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Outcome describes what a webhook delivery did. Every outcome is
// acknowledged with 200.
type Outcome string

const (
	OutcomeActivated        Outcome = "activated"
	OutcomePaymentFailed    Outcome = "payment_failed"
	OutcomeDuplicate        Outcome = "duplicate_payment"
	OutcomeAlreadyProcessed Outcome = "already_processed"
)

// Ledger credits the platform wallet.
type Ledger interface {
	Credit(ctx context.Context, currency string, amount decimal.Decimal, txType wallet.TransactionType, description string) (*wallet.WalletTransaction, error)
}

// Notifier pushes realtime updates to a connected user.
type Notifier interface {
	NotifyUser(userID, event string, data interface{})
}

type nopNotifier struct{}

func (nopNotifier) NotifyUser(string, string, interface{}) {}

type Service struct {
	subRepo    subscription.Repository
	planRepo   plan.Repository
	artistRepo artist.Repository
	ledger     Ledger
	tx         domain.Transactor
	publisher  events.Publisher
	notifier   Notifier
	secret     []byte
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(
	subRepo subscription.Repository,
	planRepo plan.Repository,
	artistRepo artist.Repository,
	ledger Ledger,
	tx domain.Transactor,
	publisher events.Publisher,
	notifier Notifier,
	secret string,
	logger *zap.Logger,
) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Service{
		subRepo:    subRepo,
		planRepo:   planRepo,
		artistRepo: artistRepo,
		ledger:     ledger,
		tx:         tx,
		publisher:  publisher,
		notifier:   notifier,
		secret:     []byte(secret),
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// result is what a committed reconciliation hands to the post-commit hooks.
type result struct {
	outcome Outcome
	sub     *subscription.UserSubscription
	entry   subscription.PaymentEntry
}

// HandleWebhook verifies and applies one provider callback. Deliveries are
// idempotent: a reference already settled as success is acknowledged
// without touching any wallet.
func (s *Service) HandleWebhook(ctx context.Context, rawBody []byte, signature string) (Outcome, error) {
	if len(s.secret) == 0 || !payprovider.VerifySignature(s.secret, rawBody, signature) {
		s.logger.Warn("webhook signature mismatch", zap.Int("body_bytes", len(rawBody)))
		return "", xerrors.ErrInvalidSignature
	}

	var payload payment.WebhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return "", fmt.Errorf("%w: %v", xerrors.ErrInvalidWebhookPayload, err)
	}
	payload.Reference = strings.TrimSpace(payload.Reference)
	if payload.Reference == "" || payload.Reference == subscription.PendingTransactionID {
		return "", fmt.Errorf("%w: missing reference", xerrors.ErrInvalidWebhookPayload)
	}
	if payload.Status != payment.WebhookStatusSuccess && payload.Status != payment.WebhookStatusFailed {
		return "", fmt.Errorf("%w: unknown status %q", xerrors.ErrInvalidWebhookPayload, payload.Status)
	}

	res, err := s.reconcile(ctx, payload)
	if errors.Is(err, xerrors.ErrVersionConflict) || errors.Is(err, xerrors.ErrAlreadySubscribed) {
		// Another writer settled the entry or activated a sibling subscription
		// first. The re-read takes the idempotent or duplicate path.
		s.logger.Info("webhook raced another writer, re-reading", zap.String("reference", payload.Reference))
		res, err = s.reconcile(ctx, payload)
	}
	if err != nil {
		if !errors.Is(err, xerrors.ErrNotFound) {
			s.logger.Error("webhook reconciliation failed", zap.String("reference", payload.Reference), zap.Error(err))
		}
		return "", err
	}

	s.afterCommit(ctx, res)
	return res.outcome, nil
}

func (s *Service) reconcile(ctx context.Context, payload payment.WebhookPayload) (*result, error) {
	var res *result
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		sub, err := s.subRepo.FindByTransactionID(ctx, payload.Reference)
		if err != nil {
			if errors.Is(err, xerrors.ErrSubscriptionNotFound) {
				s.logger.Warn("webhook for unknown reference", zap.String("reference", payload.Reference))
			}
			return err
		}
		idx := sub.PaymentByReference(payload.Reference)
		if idx < 0 {
			return xerrors.ErrSubscriptionNotFound
		}
		entry := sub.PaymentHistory[idx]

		if entry.Status == subscription.PaymentSuccess ||
			(payload.Status == payment.WebhookStatusFailed && entry.Status == subscription.PaymentFailed) {
			res = &result{outcome: OutcomeAlreadyProcessed, sub: sub, entry: entry}
			return nil
		}

		if payload.Data.Amount != 0 && payload.Data.Amount != money.ToMinorUnits(entry.Amount) {
			s.logger.Warn("webhook amount differs from charged amount",
				zap.String("reference", payload.Reference),
				zap.String("webhook_amount", money.FromMinorUnits(payload.Data.Amount).String()),
				zap.String("expected_amount", entry.Amount.String()))
		}

		if payload.Status == payment.WebhookStatusFailed {
			entry.Status = subscription.PaymentFailed
			if err := s.subRepo.UpdatePayment(ctx, sub.ID, entry); err != nil {
				return err
			}
			sub.PaymentHistory[idx] = entry
			res = &result{outcome: OutcomePaymentFailed, sub: sub, entry: entry}
			return nil
		}

		entry.Status = subscription.PaymentSuccess
		if err := s.subRepo.UpdatePayment(ctx, sub.ID, entry); err != nil {
			return err
		}
		sub.PaymentHistory[idx] = entry

		outcome, err := s.settle(ctx, sub, entry)
		if err != nil {
			return err
		}
		res = &result{outcome: outcome, sub: sub, entry: entry}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// settle activates the subscription and pays out the split. When the fan
// already holds another active subscription to the artist, the payment is
// kept for refund and the subscription is closed instead.
func (s *Service) settle(ctx context.Context, sub *subscription.UserSubscription, entry subscription.PaymentEntry) (Outcome, error) {
	now := s.now()

	other, err := s.subRepo.FindActive(ctx, sub.UserID, sub.ArtistID)
	switch {
	case err == nil && other.ID != sub.ID:
		sub.Status = subscription.StatusCancelled
		sub.AutoRenew = false
		if sub.CancellationDate == nil {
			sub.CancellationDate = &now
		}
		if err := s.subRepo.Update(ctx, sub); err != nil {
			return "", err
		}
		return OutcomeDuplicate, nil
	case err != nil && !errors.Is(err, xerrors.ErrSubscriptionNotFound):
		return "", err
	}

	p, err := s.planRepo.FindByID(ctx, sub.PlanID)
	if err != nil {
		return "", err
	}

	endDate := sub.EndDate
	sub.Status = subscription.StatusActive
	sub.LastRenewalDate = &now
	sub.NextRenewalDate = &endDate
	if err := s.subRepo.Update(ctx, sub); err != nil {
		return "", err
	}

	artistAmount := money.Share(entry.Amount, p.SplitPercentage.Artist)
	platformAmount := money.Share(entry.Amount, p.SplitPercentage.Platform)

	if artistAmount.IsPositive() {
		if err := s.artistRepo.CreditWallet(ctx, sub.ArtistID, artistAmount); err != nil {
			return "", fmt.Errorf("credit artist wallet: %w", err)
		}
	}
	if platformAmount.IsPositive() {
		desc := fmt.Sprintf("subscription %s to plan %s", sub.ID, p.ID)
		if _, err := s.ledger.Credit(ctx, entry.Currency, platformAmount, wallet.TransactionSubscription, desc); err != nil {
			return "", err
		}
	}

	s.logger.Info("subscription activated",
		zap.String("subscription_id", sub.ID),
		zap.String("reference", entry.TransactionID),
		zap.String("artist_amount", artistAmount.String()),
		zap.String("platform_amount", platformAmount.String()),
		zap.String("currency", entry.Currency))

	return OutcomeActivated, nil
}

func (s *Service) afterCommit(ctx context.Context, res *result) {
	var eventType string
	switch res.outcome {
	case OutcomeActivated:
		eventType = events.SubscriptionActivated
	case OutcomePaymentFailed:
		eventType = events.PaymentFailed
	case OutcomeDuplicate:
		eventType = events.SubscriptionDuplicatePayment
		s.logger.Warn("duplicate payment needs refund",
			zap.String("subscription_id", res.sub.ID),
			zap.String("reference", res.entry.TransactionID),
			zap.String("amount", res.entry.Amount.String()),
			zap.String("currency", res.entry.Currency))
	default:
		return
	}

	if err := s.publisher.Publish(ctx, events.New(eventType, res.sub)); err != nil {
		s.logger.Warn("failed to publish reconciliation event",
			zap.String("event", eventType),
			zap.String("subscription_id", res.sub.ID),
			zap.Error(err))
	}
	s.notifier.NotifyUser(res.sub.UserID, eventType, res.sub)
}
