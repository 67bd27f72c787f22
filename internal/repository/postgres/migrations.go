// internal/repository/postgres/migrations.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		email      TEXT NOT NULL UNIQUE,
		name       TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS artists (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		wallet_balance NUMERIC(20,6) NOT NULL DEFAULT 0,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS subscription_plans (
		id               TEXT PRIMARY KEY,
		artist_id        TEXT NOT NULL REFERENCES artists(id),
		name             TEXT NOT NULL,
		description      TEXT NOT NULL DEFAULT '',
		price_amount     NUMERIC(20,6) NOT NULL CHECK (price_amount > 0),
		price_currency   CHAR(3) NOT NULL,
		benefits         TEXT[] NOT NULL DEFAULT '{}',
		duration_days    INTEGER NOT NULL CHECK (duration_days > 0),
		split_platform   INTEGER NOT NULL CHECK (split_platform >= 0),
		split_artist     INTEGER NOT NULL CHECK (split_artist >= 0),
		is_active        BOOLEAN NOT NULL DEFAULT TRUE,
		subscriber_count BIGINT NOT NULL DEFAULT 0,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT subscription_plans_split_total CHECK (split_platform + split_artist = 100)
	)`,
	`CREATE INDEX IF NOT EXISTS ix_subscription_plans_artist_active
		ON subscription_plans (artist_id) WHERE is_active`,
	`CREATE TABLE IF NOT EXISTS user_subscriptions (
		id                TEXT PRIMARY KEY,
		user_id           TEXT NOT NULL REFERENCES users(id),
		plan_id           TEXT NOT NULL REFERENCES subscription_plans(id),
		artist_id         TEXT NOT NULL REFERENCES artists(id),
		status            TEXT NOT NULL CHECK (status IN ('pending', 'active', 'cancelled', 'expired')),
		start_date        TIMESTAMPTZ NOT NULL,
		end_date          TIMESTAMPTZ NOT NULL,
		auto_renew        BOOLEAN NOT NULL DEFAULT TRUE,
		cancellation_date TIMESTAMPTZ,
		last_renewal_date TIMESTAMPTZ,
		next_renewal_date TIMESTAMPTZ,
		version           BIGINT NOT NULL DEFAULT 1,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	// At most one active subscription per (user, artist).
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + activeSubscriptionIndex + `
		ON user_subscriptions (user_id, artist_id) WHERE status = 'active'`,
	`CREATE INDEX IF NOT EXISTS ix_user_subscriptions_user_status
		ON user_subscriptions (user_id, status)`,
	`CREATE INDEX IF NOT EXISTS ix_user_subscriptions_active_end
		ON user_subscriptions (end_date) WHERE status = 'active'`,
	`CREATE TABLE IF NOT EXISTS subscription_payments (
		id              TEXT PRIMARY KEY,
		subscription_id TEXT NOT NULL REFERENCES user_subscriptions(id) ON DELETE CASCADE,
		position        INTEGER NOT NULL,
		amount          NUMERIC(20,6) NOT NULL,
		currency        CHAR(3) NOT NULL,
		payment_method  TEXT NOT NULL,
		transaction_id  TEXT NOT NULL,
		status          TEXT NOT NULL CHECK (status IN ('pending', 'success', 'failed')),
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (subscription_id, position)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_subscription_payments_transaction
		ON subscription_payments (transaction_id) WHERE transaction_id <> 'pending'`,
	`CREATE TABLE IF NOT EXISTS platform_wallets (
		currency   CHAR(3) PRIMARY KEY,
		balance    NUMERIC(20,6) NOT NULL DEFAULT 0 CHECK (balance >= 0),
		version    BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS platform_wallet_transactions (
		id            TEXT PRIMARY KEY,
		currency      CHAR(3) NOT NULL REFERENCES platform_wallets(currency),
		amount        NUMERIC(20,6) NOT NULL CHECK (amount > 0),
		type          TEXT NOT NULL CHECK (type IN ('subscription', 'withdrawal', 'refund')),
		description   TEXT NOT NULL DEFAULT '',
		balance_after NUMERIC(20,6) NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS ix_platform_wallet_transactions_currency
		ON platform_wallet_transactions (currency, created_at)`,
}

// Migrate applies the schema over a database/sql handle (the lib/pq driver
// in fanbasectl) inside one transaction.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i+1, err)
		}
	}
	return tx.Commit()
}
