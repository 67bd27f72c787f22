// internal/repository/postgres/wallet_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"fanbase-service/internal/domain/wallet"
	xerrors "fanbase-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

type PlatformWalletRepository struct {
	db *DB
}

func NewPlatformWalletRepository(db *DB) *PlatformWalletRepository {
	return &PlatformWalletRepository{db: db}
}

// Credit upserts the wallet and appends the transaction in one statement.
func (r *PlatformWalletRepository) Credit(ctx context.Context, tx *wallet.WalletTransaction) error {
	query := `
		WITH w AS (
			INSERT INTO platform_wallets (currency, balance)
			VALUES ($1, $2)
			ON CONFLICT (currency) DO UPDATE
			SET balance = platform_wallets.balance + EXCLUDED.balance,
			    version = platform_wallets.version + 1,
			    updated_at = NOW()
			RETURNING currency, balance
		)
		INSERT INTO platform_wallet_transactions (id, currency, amount, type, description, balance_after, created_at)
		SELECT $3, w.currency, $2, $4, $5, w.balance, $6 FROM w
		RETURNING balance_after
	`

	err := r.db.conn(ctx).QueryRow(ctx, query,
		tx.Currency, tx.Amount, tx.ID, tx.Type, tx.Description, tx.Timestamp,
	).Scan(&tx.BalanceAfter)
	if err != nil {
		return fmt.Errorf("failed to credit platform wallet: %w", err)
	}
	return nil
}

// Debit decrements only while balance >= amount. No matching row means the
// wallet is missing or short, and nothing is written.
func (r *PlatformWalletRepository) Debit(ctx context.Context, tx *wallet.WalletTransaction) error {
	query := `
		WITH w AS (
			UPDATE platform_wallets
			SET balance = balance - $2, version = version + 1, updated_at = NOW()
			WHERE currency = $1 AND balance >= $2
			RETURNING currency, balance
		)
		INSERT INTO platform_wallet_transactions (id, currency, amount, type, description, balance_after, created_at)
		SELECT $3, w.currency, $2, $4, $5, w.balance, $6 FROM w
		RETURNING balance_after
	`

	err := r.db.conn(ctx).QueryRow(ctx, query,
		tx.Currency, tx.Amount, tx.ID, tx.Type, tx.Description, tx.Timestamp,
	).Scan(&tx.BalanceAfter)
	if errors.Is(err, pgx.ErrNoRows) {
		return xerrors.ErrInsufficientBalance
	}
	if err != nil {
		return fmt.Errorf("failed to debit platform wallet: %w", err)
	}
	return nil
}

func (r *PlatformWalletRepository) FindByCurrency(ctx context.Context, currency string) (*wallet.PlatformWallet, error) {
	var w wallet.PlatformWallet
	err := r.db.conn(ctx).QueryRow(ctx, `
		SELECT currency, balance, version, created_at, updated_at
		FROM platform_wallets WHERE currency = $1
	`, currency).Scan(&w.Currency, &w.Balance, &w.Version, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find platform wallet: %w", err)
	}

	rows, err := r.db.conn(ctx).Query(ctx, `
		SELECT id, amount, currency, type, description, balance_after, created_at
		FROM platform_wallet_transactions
		WHERE currency = $1
		ORDER BY created_at, id
	`, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet transactions: %w", err)
	}
	defer rows.Close()

	w.Transactions = []wallet.WalletTransaction{}
	for rows.Next() {
		var t wallet.WalletTransaction
		if err := rows.Scan(&t.ID, &t.Amount, &t.Currency, &t.Type, &t.Description, &t.BalanceAfter, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan wallet transaction: %w", err)
		}
		w.Transactions = append(w.Transactions, t)
	}
	return &w, rows.Err()
}
