// internal/repository/postgres/account_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"fanbase-service/internal/domain/artist"
	"fanbase-service/internal/domain/user"
	xerrors "fanbase-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type ArtistRepository struct {
	db *DB
}

func NewArtistRepository(db *DB) *ArtistRepository {
	return &ArtistRepository{db: db}
}

func (r *ArtistRepository) FindByID(ctx context.Context, id string) (*artist.Artist, error) {
	var a artist.Artist
	err := r.db.conn(ctx).QueryRow(ctx,
		`SELECT id, name, wallet_balance FROM artists WHERE id = $1`, id,
	).Scan(&a.ID, &a.Name, &a.WalletBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrArtistNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find artist: %w", err)
	}
	return &a, nil
}

func (r *ArtistRepository) CreditWallet(ctx context.Context, id string, amount decimal.Decimal) error {
	query := `
		UPDATE artists
		SET wallet_balance = wallet_balance + $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.conn(ctx).Exec(ctx, query, id, amount)
	if err != nil {
		return fmt.Errorf("failed to credit artist wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrArtistNotFound
	}
	return nil
}

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	var u user.User
	err := r.db.conn(ctx).QueryRow(ctx,
		`SELECT id, email, name FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &u, nil
}
