// internal/repository/mongo/store_test.go
package mongo

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"fanbase-service/internal/db"
	"fanbase-service/internal/domain/subscription"
	"fanbase-service/internal/domain/wallet"
	xerrors "fanbase-service/internal/pkg/errors"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestDecimal128KeepsLedgerPrecision(t *testing.T) {
	for _, s := range []string{"0", "1.998", "7.992", "9.99", "123456789.123456"} {
		d := decimal.RequireFromString(s)
		assert.True(t, fromDecimal128(toDecimal128(d)).Equal(d), s)
	}
}

func TestActiveSubscriptionIndexIsDeclared(t *testing.T) {
	models := migrationIndexes()[colSubscriptions]
	require.NotEmpty(t, models)
	assert.Equal(t, bson.D{{Key: "userId", Value: 1}, {Key: "artistId", Value: 1}}, models[0].Keys)
	assert.NotNil(t, models[0].Options)
}

// newTestStore needs a replica set on FANBASE_TEST_MONGO_URI; transactions
// are not available on a standalone server.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("FANBASE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("FANBASE_TEST_MONGO_URI not set")
	}
	ctx := context.Background()

	client, err := db.ConnectMongo(ctx, uri)
	require.NoError(t, err)
	name := "fanbase_test_" + strings.ToLower(ulid.Make().String())
	t.Cleanup(func() {
		_ = client.Database(name).Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	store := NewStore(client, name)
	require.NoError(t, store.EnsureIndexes(ctx))
	return store
}

func newSub(id string, status subscription.SubscriptionStatus) *subscription.UserSubscription {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &subscription.UserSubscription{
		ID:        id,
		UserID:    "user-1",
		PlanID:    "plan-1",
		ArtistID:  "artist-1",
		Status:    status,
		StartDate: now,
		EndDate:   now.Add(30 * 24 * time.Hour),
		AutoRenew: true,
		PaymentHistory: []subscription.PaymentEntry{{
			ID:            id + "-pay",
			Amount:        decimal.RequireFromString("9.99"),
			Currency:      "USD",
			PaymentMethod: "card",
			TransactionID: "ref-" + id,
			Status:        subscription.PaymentPending,
			Timestamp:     now,
		}},
	}
}

func TestSubscriptionRepository_OneActivePerArtist(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	subs := NewSubscriptionRepository(store)

	require.NoError(t, subs.Create(ctx, newSub("s1", subscription.StatusActive)))
	assert.ErrorIs(t, subs.Create(ctx, newSub("s2", subscription.StatusActive)), xerrors.ErrAlreadySubscribed)

	require.NoError(t, subs.Create(ctx, newSub("s3", subscription.StatusPending)))
	pending, err := subs.FindByID(ctx, "s3")
	require.NoError(t, err)
	pending.Status = subscription.StatusActive
	assert.ErrorIs(t, subs.Update(ctx, pending), xerrors.ErrAlreadySubscribed)
}

func TestSubscriptionRepository_UpdatePaymentSuccessIsTerminal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	subs := NewSubscriptionRepository(store)
	require.NoError(t, subs.Create(ctx, newSub("s1", subscription.StatusPending)))

	entry := subscription.PaymentEntry{ID: "s1-pay", TransactionID: "ref-s1", Status: subscription.PaymentSuccess}
	require.NoError(t, subs.UpdatePayment(ctx, "s1", entry))

	entry.Status = subscription.PaymentFailed
	assert.ErrorIs(t, subs.UpdatePayment(ctx, "s1", entry), xerrors.ErrVersionConflict)

	got, err := subs.FindByTransactionID(ctx, "ref-s1")
	require.NoError(t, err)
	assert.Equal(t, subscription.PaymentSuccess, got.PaymentHistory[0].Status)
}

func TestLockPairSerializesSubscribes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	subs := NewSubscriptionRepository(store)
	require.NoError(t, store.db.CreateCollection(ctx, colPairLocks))

	subscribe := func(id string) error {
		return store.WithinTx(ctx, func(ctx context.Context) error {
			if err := subs.LockPair(ctx, "user-1", "artist-1"); err != nil {
				return err
			}
			_, err := subs.FindActive(ctx, "user-1", "artist-1")
			switch {
			case err == nil:
				return xerrors.ErrAlreadySubscribed
			case !errors.Is(err, xerrors.ErrSubscriptionNotFound):
				return err
			}
			return subs.Create(ctx, newSub(id, subscription.StatusActive))
		})
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{"s1", "s2"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = subscribe(id)
		}()
	}
	wg.Wait()

	var ok, conflict int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, xerrors.ErrAlreadySubscribed):
			conflict++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflict)

	var marker struct {
		N int `bson:"n"`
	}
	require.NoError(t, store.collection(colPairLocks).FindOne(ctx, bson.M{"_id": "user-1:artist-1"}).Decode(&marker))
	// the losing transaction aborts, so only the winner's increment lands
	assert.Equal(t, 1, marker.N)
}

func TestPlatformWalletRepository_DebitNeverGoesNegative(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	wallets := NewPlatformWalletRepository(store)

	credit := &wallet.WalletTransaction{
		ID: "t1", Currency: "USD", Amount: decimal.RequireFromString("1.998"),
		Type: wallet.TransactionSubscription, Timestamp: time.Now().UTC(),
	}
	require.NoError(t, wallets.Credit(ctx, credit))
	assert.True(t, credit.BalanceAfter.Equal(decimal.RequireFromString("1.998")))

	err := wallets.Debit(ctx, &wallet.WalletTransaction{
		ID: "t2", Currency: "USD", Amount: decimal.NewFromInt(2),
		Type: wallet.TransactionWithdrawal, Timestamp: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, xerrors.ErrInsufficientBalance)

	err = wallets.Debit(ctx, &wallet.WalletTransaction{
		ID: "t3", Currency: "EUR", Amount: decimal.NewFromInt(1),
		Type: wallet.TransactionWithdrawal, Timestamp: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, xerrors.ErrInsufficientBalance)

	w, err := wallets.FindByCurrency(ctx, "USD")
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.RequireFromString("1.998")))
	require.Len(t, w.Transactions, 1)
	assert.True(t, w.Transactions[0].BalanceAfter.Equal(decimal.RequireFromString("1.998")))
}
