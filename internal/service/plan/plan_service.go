// internal/service/plan/plan_service.go
package plan

import (
	"context"
	"fmt"
	"strings"

	"fanbase-service/internal/domain/artist"
	"fanbase-service/internal/domain/plan"
	xerrors "fanbase-service/internal/pkg/errors"
	"fanbase-service/internal/pkg/money"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

type PlanService struct {
	planRepo   plan.Repository
	artistRepo artist.Repository
	logger     *zap.Logger
}

func NewPlanService(planRepo plan.Repository, artistRepo artist.Repository, logger *zap.Logger) *PlanService {
	return &PlanService{
		planRepo:   planRepo,
		artistRepo: artistRepo,
		logger:     logger,
	}
}

// CreatePlan creates an active plan with no subscribers for the artist.
func (s *PlanService) CreatePlan(ctx context.Context, artistID string, req *plan.CreatePlanRequest) (*plan.SubscriptionPlan, error) {
	if _, err := s.artistRepo.FindByID(ctx, artistID); err != nil {
		return nil, err
	}

	split := plan.SplitPercentage{
		Platform: req.SplitPercentage.Platform,
		Artist:   req.SplitPercentage.Artist,
	}
	if !split.Valid() {
		return nil, xerrors.ErrInvalidSplit
	}
	if !req.Price.Amount.IsPositive() {
		return nil, fmt.Errorf("price must be greater than zero: %w", xerrors.ErrInvalidAmount)
	}
	if req.DurationDays < 1 {
		return nil, fmt.Errorf("duration must be at least one day: %w", xerrors.ErrInvalidInput)
	}
	currency := money.NormalizeCurrency(req.Price.Currency)
	if len(currency) != 3 {
		return nil, fmt.Errorf("invalid currency %q: %w", req.Price.Currency, xerrors.ErrInvalidInput)
	}

	benefits := make([]string, 0, len(req.Benefits))
	for _, b := range req.Benefits {
		if b = strings.TrimSpace(b); b != "" {
			benefits = append(benefits, b)
		}
	}

	p := &plan.SubscriptionPlan{
		ID:              ulid.Make().String(),
		ArtistID:        artistID,
		Name:            strings.TrimSpace(req.Name),
		Description:     strings.TrimSpace(req.Description),
		Price:           plan.Price{Amount: req.Price.Amount, Currency: currency},
		Benefits:        benefits,
		DurationDays:    req.DurationDays,
		SplitPercentage: split,
		IsActive:        true,
		SubscriberCount: 0,
	}

	if err := s.planRepo.Create(ctx, p); err != nil {
		s.logger.Error("failed to create plan", zap.String("artist_id", artistID), zap.Error(err))
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	s.logger.Info("subscription plan created",
		zap.String("plan_id", p.ID),
		zap.String("artist_id", artistID),
		zap.String("price", p.Price.Amount.String()),
		zap.String("currency", p.Price.Currency))

	return p, nil
}

// ListActivePlans returns the artist's active plans, cheapest first.
func (s *PlanService) ListActivePlans(ctx context.Context, artistID string) ([]*plan.SubscriptionPlan, error) {
	plans, err := s.planRepo.ListActiveByArtist(ctx, artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

func (s *PlanService) GetPlan(ctx context.Context, planID string) (*plan.SubscriptionPlan, error) {
	return s.planRepo.FindByID(ctx, planID)
}

// DeactivatePlan stops new subscriptions to the plan. Existing subscriptions
// run to their end date.
func (s *PlanService) DeactivatePlan(ctx context.Context, artistID, planID string) (*plan.SubscriptionPlan, error) {
	p, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if p.ArtistID != artistID {
		return nil, xerrors.ErrPlanNotFound
	}
	if !p.IsActive {
		return p, nil
	}

	if err := s.planRepo.SetActive(ctx, planID, false); err != nil {
		return nil, fmt.Errorf("failed to deactivate plan: %w", err)
	}
	p.IsActive = false

	s.logger.Info("subscription plan deactivated", zap.String("plan_id", planID), zap.String("artist_id", artistID))
	return p, nil
}
