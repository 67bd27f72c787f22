// internal/domain/plan/repository.go
package plan

import "context"

type Repository interface {
	Create(ctx context.Context, p *SubscriptionPlan) error
	FindByID(ctx context.Context, id string) (*SubscriptionPlan, error)
	ListActiveByArtist(ctx context.Context, artistID string) ([]*SubscriptionPlan, error)
	SetActive(ctx context.Context, id string, active bool) error
	IncrementSubscriberCount(ctx context.Context, id string, delta int64) error
}
