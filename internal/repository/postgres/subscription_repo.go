// internal/repository/postgres/subscription_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fanbase-service/internal/domain/subscription"
	xerrors "fanbase-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

const activeSubscriptionIndex = "ux_user_subscriptions_active"

type SubscriptionRepository struct {
	db *DB
}

func NewSubscriptionRepository(db *DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

const subscriptionColumns = `id, user_id, plan_id, artist_id, status, start_date, end_date, auto_renew,
	cancellation_date, last_renewal_date, next_renewal_date, version, created_at, updated_at`

// Create inserts the subscription row and its payment entries in one transaction.
func (r *SubscriptionRepository) Create(ctx context.Context, sub *subscription.UserSubscription) error {
	return r.db.WithinTx(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO user_subscriptions (
				id, user_id, plan_id, artist_id, status, start_date, end_date, auto_renew,
				cancellation_date, last_renewal_date, next_renewal_date, version
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING created_at, updated_at
		`

		if sub.Version == 0 {
			sub.Version = 1
		}

		err := r.db.conn(ctx).QueryRow(ctx, query,
			sub.ID, sub.UserID, sub.PlanID, sub.ArtistID, sub.Status, sub.StartDate, sub.EndDate, sub.AutoRenew,
			sub.CancellationDate, sub.LastRenewalDate, sub.NextRenewalDate, sub.Version,
		).Scan(&sub.CreatedAt, &sub.UpdatedAt)
		if uniqueViolationOn(err, activeSubscriptionIndex) {
			return xerrors.ErrAlreadySubscribed
		}
		if err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}

		for i, entry := range sub.PaymentHistory {
			if err := r.insertPayment(ctx, sub.ID, i, entry); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SubscriptionRepository) insertPayment(ctx context.Context, subscriptionID string, position int, entry subscription.PaymentEntry) error {
	query := `
		INSERT INTO subscription_payments (
			id, subscription_id, position, amount, currency, payment_method, transaction_id, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.conn(ctx).Exec(ctx, query,
		entry.ID, subscriptionID, position, entry.Amount, entry.Currency,
		entry.PaymentMethod, entry.TransactionID, entry.Status, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment entry: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.conn(ctx).Exec(ctx, `DELETE FROM user_subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrSubscriptionNotFound
	}
	return nil
}

func (r *SubscriptionRepository) FindByID(ctx context.Context, id string) (*subscription.UserSubscription, error) {
	return r.findOne(ctx, `SELECT `+subscriptionColumns+` FROM user_subscriptions WHERE id = $1`, id)
}

// FindByTransactionID locks the matched row when called inside a
// transaction so concurrent deliveries of one webhook queue up.
func (r *SubscriptionRepository) FindByTransactionID(ctx context.Context, reference string) (*subscription.UserSubscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM user_subscriptions
		WHERE id = (SELECT subscription_id FROM subscription_payments WHERE transaction_id = $1 LIMIT 1)
	`
	if inTx(ctx) {
		query += ` FOR UPDATE`
	}
	return r.findOne(ctx, query, reference)
}

func (r *SubscriptionRepository) FindActive(ctx context.Context, userID, artistID string) (*subscription.UserSubscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM user_subscriptions
		WHERE user_id = $1 AND artist_id = $2 AND status = 'active'
	`
	return r.findOne(ctx, query, userID, artistID)
}

func (r *SubscriptionRepository) ListActiveByUser(ctx context.Context, userID string) ([]*subscription.UserSubscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM user_subscriptions
		WHERE user_id = $1 AND status = 'active'
		ORDER BY end_date ASC
	`

	rows, err := r.db.conn(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	subs, err := collectSubscriptions(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachPayments(ctx, subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *SubscriptionRepository) LockPair(ctx context.Context, userID, artistID string) error {
	_, err := r.db.conn(ctx).Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, userID+":"+artistID)
	if err != nil {
		return fmt.Errorf("failed to lock subscription pair: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) Update(ctx context.Context, sub *subscription.UserSubscription) error {
	query := `
		UPDATE user_subscriptions
		SET status = $2, end_date = $3, auto_renew = $4, cancellation_date = $5,
		    last_renewal_date = $6, next_renewal_date = $7,
		    version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $8
		RETURNING version, updated_at
	`

	err := r.db.conn(ctx).QueryRow(ctx, query,
		sub.ID, sub.Status, sub.EndDate, sub.AutoRenew, sub.CancellationDate,
		sub.LastRenewalDate, sub.NextRenewalDate, sub.Version,
	).Scan(&sub.Version, &sub.UpdatedAt)
	if uniqueViolationOn(err, activeSubscriptionIndex) {
		return xerrors.ErrAlreadySubscribed
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if _, findErr := r.FindByID(ctx, sub.ID); findErr != nil {
			return findErr
		}
		return xerrors.ErrVersionConflict
	}
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return nil
}

// UpdatePayment never rewrites an entry that already settled as success.
func (r *SubscriptionRepository) UpdatePayment(ctx context.Context, subscriptionID string, entry subscription.PaymentEntry) error {
	query := `
		UPDATE subscription_payments
		SET transaction_id = $3, status = $4
		WHERE subscription_id = $1 AND id = $2 AND status <> 'success'
	`

	tag, err := r.db.conn(ctx).Exec(ctx, query, subscriptionID, entry.ID, entry.TransactionID, entry.Status)
	if err != nil {
		return fmt.Errorf("failed to update payment entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrVersionConflict
	}
	return nil
}

func (r *SubscriptionRepository) ExpireDue(ctx context.Context, now time.Time) ([]*subscription.UserSubscription, error) {
	query := `
		UPDATE user_subscriptions
		SET status = 'expired', version = version + 1, updated_at = $1
		WHERE status = 'active' AND end_date <= $1
		RETURNING ` + subscriptionColumns

	rows, err := r.db.conn(ctx).Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to expire subscriptions: %w", err)
	}
	return collectSubscriptions(rows)
}

// ========== Helper Methods ==========

func (r *SubscriptionRepository) findOne(ctx context.Context, query string, args ...any) (*subscription.UserSubscription, error) {
	sub, err := scanSubscription(r.db.conn(ctx).QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}
	if err := r.attachPayments(ctx, []*subscription.UserSubscription{sub}); err != nil {
		return nil, err
	}
	return sub, nil
}

func (r *SubscriptionRepository) attachPayments(ctx context.Context, subs []*subscription.UserSubscription) error {
	if len(subs) == 0 {
		return nil
	}

	ids := make([]string, len(subs))
	byID := make(map[string]*subscription.UserSubscription, len(subs))
	for i, s := range subs {
		ids[i] = s.ID
		byID[s.ID] = s
		s.PaymentHistory = []subscription.PaymentEntry{}
	}

	query := `
		SELECT subscription_id, id, amount, currency, payment_method, transaction_id, status, created_at
		FROM subscription_payments
		WHERE subscription_id = ANY($1)
		ORDER BY subscription_id, position
	`

	rows, err := r.db.conn(ctx).Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to load payment history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var subID string
		var e subscription.PaymentEntry
		if err := rows.Scan(&subID, &e.ID, &e.Amount, &e.Currency, &e.PaymentMethod,
			&e.TransactionID, &e.Status, &e.Timestamp); err != nil {
			return fmt.Errorf("failed to scan payment entry: %w", err)
		}
		if s, ok := byID[subID]; ok {
			s.PaymentHistory = append(s.PaymentHistory, e)
		}
	}
	return rows.Err()
}

func collectSubscriptions(rows pgx.Rows) ([]*subscription.UserSubscription, error) {
	defer rows.Close()

	subs := []*subscription.UserSubscription{}
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func scanSubscription(row pgx.Row) (*subscription.UserSubscription, error) {
	var s subscription.UserSubscription
	err := row.Scan(
		&s.ID, &s.UserID, &s.PlanID, &s.ArtistID, &s.Status, &s.StartDate, &s.EndDate, &s.AutoRenew,
		&s.CancellationDate, &s.LastRenewalDate, &s.NextRenewalDate, &s.Version, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
