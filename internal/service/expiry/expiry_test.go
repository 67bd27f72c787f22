// internal/service/expiry/expiry_test.go
package expiry

import (
	"context"
	"testing"
	"time"

	"fanbase-service/internal/domain/subscription"
	"fanbase-service/internal/pkg/events"
	"fanbase-service/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct{ events []events.Event }

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

func TestSweepExpired(t *testing.T) {
	store := memory.New()
	subs := memory.NewSubscriptionRepository(store)
	pub := &recordingPublisher{}
	svc := NewService(subs, store, pub, nil, zap.NewNop())
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seed := []struct {
		id      string
		artist  string
		status  subscription.SubscriptionStatus
		endDate time.Time
	}{
		{"due", "artist-1", subscription.StatusActive, now.Add(-time.Hour)},
		{"due-exactly", "artist-2", subscription.StatusActive, now},
		{"running", "artist-3", subscription.StatusActive, now.Add(time.Hour)},
		{"pending-past-end", "artist-4", subscription.StatusPending, now.Add(-time.Hour)},
		{"cancelled", "artist-5", subscription.StatusCancelled, now.Add(-time.Hour)},
	}
	for _, s := range seed {
		require.NoError(t, subs.Create(ctx, &subscription.UserSubscription{
			ID:       s.id,
			UserID:   "user-1",
			PlanID:   "plan-" + s.artist,
			ArtistID: s.artist,
			Status:   s.status,
			EndDate:  s.endDate,
		}))
	}

	n, err := svc.SweepExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	want := map[string]subscription.SubscriptionStatus{
		"due":              subscription.StatusExpired,
		"due-exactly":      subscription.StatusExpired,
		"running":          subscription.StatusActive,
		"pending-past-end": subscription.StatusPending,
		"cancelled":        subscription.StatusCancelled,
	}
	for id, status := range want {
		got, err := subs.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, status, got.Status, id)
	}

	require.Len(t, pub.events, 2)
	for _, e := range pub.events {
		assert.Equal(t, events.SubscriptionExpired, e.Type)
	}

	n, err = svc.SweepExpired(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, n)
}
