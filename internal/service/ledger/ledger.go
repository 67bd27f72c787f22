// internal/service/ledger/ledger.go
package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fanbase-service/internal/domain/wallet"
	xerrors "fanbase-service/internal/pkg/errors"
	"fanbase-service/internal/pkg/events"
	"fanbase-service/internal/pkg/money"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service keeps the platform's per-currency revenue wallets. Credits and
// debits join any store transaction already carried on ctx.
type Service struct {
	wallets   wallet.PlatformRepository
	publisher events.Publisher
	logger    *zap.Logger
}

func NewService(wallets wallet.PlatformRepository, publisher events.Publisher, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		wallets:   wallets,
		publisher: publisher,
		logger:    logger,
	}
}

// Credit adds amount to the wallet for currency, creating the wallet on first use.
func (s *Service) Credit(ctx context.Context, currency string, amount decimal.Decimal, txType wallet.TransactionType, description string) (*wallet.WalletTransaction, error) {
	entry, err := newEntry(currency, amount, txType, description)
	if err != nil {
		return nil, err
	}

	if err := s.wallets.Credit(ctx, entry); err != nil {
		return nil, fmt.Errorf("credit %s wallet: %w", entry.Currency, err)
	}

	s.logger.Info("platform wallet credited",
		zap.String("currency", entry.Currency),
		zap.String("amount", entry.Amount.String()),
		zap.String("type", string(entry.Type)),
		zap.String("balance_after", entry.BalanceAfter.String()))

	return entry, nil
}

// Debit removes amount from the wallet. The balance never goes negative; a
// short wallet returns ErrInsufficientBalance and nothing changes.
func (s *Service) Debit(ctx context.Context, currency string, amount decimal.Decimal, txType wallet.TransactionType, description string) (*wallet.WalletTransaction, error) {
	entry, err := newEntry(currency, amount, txType, description)
	if err != nil {
		return nil, err
	}

	if err := s.wallets.Debit(ctx, entry); err != nil {
		if xerrors.Is(err, xerrors.ErrInsufficientBalance) {
			return nil, err
		}
		return nil, fmt.Errorf("debit %s wallet: %w", entry.Currency, err)
	}

	s.logger.Info("platform wallet debited",
		zap.String("currency", entry.Currency),
		zap.String("amount", entry.Amount.String()),
		zap.String("type", string(entry.Type)),
		zap.String("balance_after", entry.BalanceAfter.String()))

	return entry, nil
}

func (s *Service) GetWallet(ctx context.Context, currency string) (*wallet.PlatformWallet, error) {
	return s.wallets.FindByCurrency(ctx, money.NormalizeCurrency(currency))
}

// Withdraw pays platform revenue out of the wallet.
func (s *Service) Withdraw(ctx context.Context, currency string, amount decimal.Decimal, description string) (*wallet.WalletTransaction, error) {
	entry, err := s.Debit(ctx, currency, amount, wallet.TransactionWithdrawal, description)
	if err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, events.New(events.WalletDebited, entry)); err != nil {
		s.logger.Warn("failed to publish wallet event", zap.String("transaction_id", entry.ID), zap.Error(err))
	}
	return entry, nil
}

func newEntry(currency string, amount decimal.Decimal, txType wallet.TransactionType, description string) (*wallet.WalletTransaction, error) {
	if !amount.IsPositive() {
		return nil, xerrors.ErrInvalidAmount
	}
	if !txType.Valid() {
		return nil, fmt.Errorf("unknown transaction type %q: %w", txType, xerrors.ErrInvalidInput)
	}
	currency = money.NormalizeCurrency(currency)
	if len(currency) != 3 {
		return nil, fmt.Errorf("currency %q: %w", currency, xerrors.ErrInvalidInput)
	}

	return &wallet.WalletTransaction{
		ID:          ulid.Make().String(),
		Amount:      amount,
		Currency:    currency,
		Type:        txType,
		Description: strings.TrimSpace(description),
		Timestamp:   time.Now().UTC(),
	}, nil
}
