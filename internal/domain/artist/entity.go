// internal/domain/artist/entity.go
package artist

import (
	"context"

	"github.com/shopspring/decimal"
)

// Artist is owned by the catalog. This service only reads it and credits the
// embedded wallet.
type Artist struct {
	ID            string          `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	WalletBalance decimal.Decimal `json:"wallet_balance" db:"wallet_balance"`
}

type Repository interface {
	FindByID(ctx context.Context, id string) (*Artist, error)
	// CreditWallet atomically increments the artist's wallet balance.
	CreditWallet(ctx context.Context, id string, amount decimal.Decimal) error
}
