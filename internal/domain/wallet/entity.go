// internal/domain/wallet/entity.go
package wallet

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionSubscription TransactionType = "subscription"
	TransactionWithdrawal   TransactionType = "withdrawal"
	TransactionRefund       TransactionType = "refund"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionSubscription, TransactionWithdrawal, TransactionRefund:
		return true
	}
	return false
}

// WalletTransaction is one append-only ledger line. Amount is always positive;
// the direction follows from the operation that wrote it.
type WalletTransaction struct {
	ID           string          `json:"id" db:"id"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	Currency     string          `json:"currency" db:"currency"`
	Type         TransactionType `json:"type" db:"type"`
	Description  string          `json:"description" db:"description"`
	BalanceAfter decimal.Decimal `json:"balance_after" db:"balance_after"`
	Timestamp    time.Time       `json:"timestamp" db:"created_at"`
}

// PlatformWallet holds platform revenue for one currency.
type PlatformWallet struct {
	Currency     string              `json:"currency" db:"currency"`
	Balance      decimal.Decimal     `json:"balance" db:"balance"`
	Transactions []WalletTransaction `json:"transactions"`
	Version      int64               `json:"version" db:"version"`
	CreatedAt    time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at" db:"updated_at"`
}

type WithdrawRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"positive_decimal"`
	Description string          `json:"description" binding:"required,max=500"`
}

// PlatformRepository mutates wallets only through atomic statements. Credit
// upserts the wallet; Debit succeeds only while balance >= amount and
// otherwise returns ErrInsufficientBalance with nothing written. Both append
// exactly one transaction and fill in tx.BalanceAfter.
type PlatformRepository interface {
	Credit(ctx context.Context, tx *WalletTransaction) error
	Debit(ctx context.Context, tx *WalletTransaction) error
	FindByCurrency(ctx context.Context, currency string) (*PlatformWallet, error)
}
