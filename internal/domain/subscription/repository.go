// internal/domain/subscription/repository.go
package subscription

import (
	"context"
	"time"
)

type Repository interface {
	// Create inserts the subscription together with its payment history.
	Create(ctx context.Context, sub *UserSubscription) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*UserSubscription, error)
	FindByTransactionID(ctx context.Context, reference string) (*UserSubscription, error)
	// FindActive returns the active subscription for the pair or ErrSubscriptionNotFound.
	FindActive(ctx context.Context, userID, artistID string) (*UserSubscription, error)
	ListActiveByUser(ctx context.Context, userID string) ([]*UserSubscription, error)
	// LockPair serializes writers for one (user, artist) pair for the rest of
	// the surrounding transaction. Backends without row locks may no-op; the
	// active-subscription unique index still holds.
	LockPair(ctx context.Context, userID, artistID string) error
	// Update persists the mutable lifecycle fields if sub.Version still
	// matches the stored version, then bumps sub.Version. Returns
	// ErrVersionConflict on mismatch and ErrAlreadySubscribed when activation
	// would break the one-active-per-artist rule.
	Update(ctx context.Context, sub *UserSubscription) error
	// UpdatePayment rewrites the transaction id and status of one entry.
	UpdatePayment(ctx context.Context, subscriptionID string, entry PaymentEntry) error
	// ExpireDue moves active subscriptions with end_date <= now to expired
	// and returns the rows it changed.
	ExpireDue(ctx context.Context, now time.Time) ([]*UserSubscription, error)
}
