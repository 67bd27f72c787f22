// internal/repository/postgres/repository_test.go
package postgres

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"fanbase-service/internal/db"
	"fanbase-service/internal/domain/plan"
	"fanbase-service/internal/domain/subscription"
	"fanbase-service/internal/domain/wallet"
	xerrors "fanbase-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDB migrates a throwaway schema on FANBASE_TEST_POSTGRES_DSN and
// seeds one artist, one user and one plan.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("FANBASE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FANBASE_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	admin, err := pgx.Connect(ctx, dsn)
	require.NoError(t, err)
	schema := "test_" + strings.ToLower(ulid.Make().String())
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		_ = admin.Close(context.Background())
	})

	cfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, stdlib.OpenDBFromPool(pool)))

	_, err = pool.Exec(ctx, `INSERT INTO artists (id, name) VALUES ('artist-1', 'Nova')`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO users (id, email) VALUES ('user-1', 'fan@example.com')`)
	require.NoError(t, err)

	store := NewDB(pool)
	require.NoError(t, NewPlanRepository(store).Create(ctx, &plan.SubscriptionPlan{
		ID:              "plan-1",
		ArtistID:        "artist-1",
		Name:            "Gold",
		Price:           plan.Price{Amount: decimal.RequireFromString("9.99"), Currency: "USD"},
		DurationDays:    30,
		SplitPercentage: plan.SplitPercentage{Platform: 20, Artist: 80},
		IsActive:        true,
	}))
	return store
}

func TestConnectPostgres(t *testing.T) {
	dsn := os.Getenv("FANBASE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FANBASE_TEST_POSTGRES_DSN not set")
	}
	pool, err := db.ConnectPostgres(context.Background(), dsn)
	require.NoError(t, err)
	pool.Close()
}

func newSub(id string, status subscription.SubscriptionStatus) *subscription.UserSubscription {
	now := time.Now().UTC()
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
	store := newTestDB(t)
	ctx := context.Background()
	subs := NewSubscriptionRepository(store)

	require.NoError(t, subs.Create(ctx, newSub("s1", subscription.StatusActive)))
	assert.ErrorIs(t, subs.Create(ctx, newSub("s2", subscription.StatusActive)), xerrors.ErrAlreadySubscribed)

	require.NoError(t, subs.Create(ctx, newSub("s3", subscription.StatusPending)))
	pending, err := subs.FindByID(ctx, "s3")
	require.NoError(t, err)
	pending.Status = subscription.StatusActive
	assert.ErrorIs(t, subs.Update(ctx, pending), xerrors.ErrAlreadySubscribed)

	active, err := subs.FindActive(ctx, "user-1", "artist-1")
	require.NoError(t, err)
	assert.Equal(t, "s1", active.ID)
}

func TestSubscriptionRepository_UpdateChecksVersion(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	subs := NewSubscriptionRepository(store)
	require.NoError(t, subs.Create(ctx, newSub("s1", subscription.StatusActive)))

	a, err := subs.FindByID(ctx, "s1")
	require.NoError(t, err)
	b, err := subs.FindByID(ctx, "s1")
	require.NoError(t, err)

	a.AutoRenew = false
	require.NoError(t, subs.Update(ctx, a))
	assert.Equal(t, int64(2), a.Version)

	assert.ErrorIs(t, subs.Update(ctx, b), xerrors.ErrVersionConflict)

	b.ID = "missing"
	assert.ErrorIs(t, subs.Update(ctx, b), xerrors.ErrSubscriptionNotFound)
}

func TestSubscriptionRepository_UpdatePaymentSuccessIsTerminal(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	subs := NewSubscriptionRepository(store)
	require.NoError(t, subs.Create(ctx, newSub("s1", subscription.StatusPending)))

	entry := subscription.PaymentEntry{ID: "s1-pay", TransactionID: "ref-s1", Status: subscription.PaymentSuccess}
	require.NoError(t, subs.UpdatePayment(ctx, "s1", entry))

	entry.Status = subscription.PaymentFailed
	assert.ErrorIs(t, subs.UpdatePayment(ctx, "s1", entry), xerrors.ErrVersionConflict)

	got, err := subs.FindByTransactionID(ctx, "ref-s1")
	require.NoError(t, err)
	require.Len(t, got.PaymentHistory, 1)
	assert.Equal(t, subscription.PaymentSuccess, got.PaymentHistory[0].Status)
}

func TestSubscriptionRepository_ExpireDue(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	subs := NewSubscriptionRepository(store)

	due := newSub("s1", subscription.StatusActive)
	due.EndDate = time.Now().Add(-time.Hour)
	require.NoError(t, subs.Create(ctx, due))

	expired, err := subs.ExpireDue(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, subscription.StatusExpired, expired[0].Status)

	_, err = subs.FindActive(ctx, "user-1", "artist-1")
	assert.ErrorIs(t, err, xerrors.ErrSubscriptionNotFound)
}

func TestWithinTxRollsBack(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()
	subs := NewSubscriptionRepository(store)
	plans := NewPlanRepository(store)

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, subs.LockPair(ctx, "user-1", "artist-1"))
		require.NoError(t, subs.Create(ctx, newSub("s1", subscription.StatusPending)))
		require.NoError(t, plans.IncrementSubscriberCount(ctx, "plan-1", 1))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = subs.FindByID(ctx, "s1")
	assert.ErrorIs(t, err, xerrors.ErrSubscriptionNotFound)
	p, err := plans.FindByID(ctx, "plan-1")
	require.NoError(t, err)
	assert.Zero(t, p.SubscriberCount)
}

func TestPlatformWalletRepository_DebitNeverGoesNegative(t *testing.T) {
	store := newTestDB(t)
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

	debit := &wallet.WalletTransaction{
		ID: "t4", Currency: "USD", Amount: decimal.RequireFromString("1.5"),
		Type: wallet.TransactionWithdrawal, Timestamp: time.Now().UTC(),
	}
	require.NoError(t, wallets.Debit(ctx, debit))
	assert.True(t, debit.BalanceAfter.Equal(decimal.RequireFromString("0.498")))

	w, err := wallets.FindByCurrency(ctx, "USD")
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.RequireFromString("0.498")))
	assert.Len(t, w.Transactions, 2)

	_, err = wallets.FindByCurrency(ctx, "EUR")
	assert.ErrorIs(t, err, xerrors.ErrWalletNotFound)
}
