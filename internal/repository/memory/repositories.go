// internal/repository/memory/repositories.go
package memory

import (
	"context"
	"sort"
	"time"

	"fanbase-service/internal/domain/artist"
	"fanbase-service/internal/domain/plan"
	"fanbase-service/internal/domain/subscription"
	"fanbase-service/internal/domain/user"
	"fanbase-service/internal/domain/wallet"
	xerrors "fanbase-service/internal/pkg/errors"

	"github.com/shopspring/decimal"
)

// ==================== Plans ====================

type PlanRepository struct{ s *Store }

func NewPlanRepository(s *Store) *PlanRepository { return &PlanRepository{s: s} }

func (r *PlanRepository) Create(ctx context.Context, p *plan.SubscriptionPlan) error {
	defer r.s.lockWrite(ctx)()

	t := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = t, t
	r.s.plans[p.ID] = clonePlan(p)
	return nil
}

func (r *PlanRepository) FindByID(ctx context.Context, id string) (*plan.SubscriptionPlan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.plans[id]
	if !ok {
		return nil, xerrors.ErrPlanNotFound
	}
	return clonePlan(p), nil
}

func (r *PlanRepository) ListActiveByArtist(ctx context.Context, artistID string) ([]*plan.SubscriptionPlan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*plan.SubscriptionPlan{}
	for _, p := range r.s.plans {
		if p.ArtistID == artistID && p.IsActive {
			out = append(out, clonePlan(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Price.Amount.Cmp(out[j].Price.Amount); c != 0 {
			return c < 0
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *PlanRepository) SetActive(ctx context.Context, id string, active bool) error {
	defer r.s.lockWrite(ctx)()

	p, ok := r.s.plans[id]
	if !ok {
		return xerrors.ErrPlanNotFound
	}
	p.IsActive = active
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *PlanRepository) IncrementSubscriberCount(ctx context.Context, id string, delta int64) error {
	defer r.s.lockWrite(ctx)()

	p, ok := r.s.plans[id]
	if !ok {
		return xerrors.ErrPlanNotFound
	}
	p.SubscriberCount += delta
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// ==================== Subscriptions ====================

type SubscriptionRepository struct{ s *Store }

func NewSubscriptionRepository(s *Store) *SubscriptionRepository {
	return &SubscriptionRepository{s: s}
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *subscription.UserSubscription) error {
	defer r.s.lockWrite(ctx)()

	if sub.Status == subscription.StatusActive && r.activeExists(sub.UserID, sub.ArtistID, sub.ID) {
		return xerrors.ErrAlreadySubscribed
	}
	t := time.Now().UTC()
	sub.CreatedAt, sub.UpdatedAt = t, t
	if sub.Version == 0 {
		sub.Version = 1
	}
	r.s.subscriptions[sub.ID] = sub.Clone()
	return nil
}

func (r *SubscriptionRepository) Delete(ctx context.Context, id string) error {
	defer r.s.lockWrite(ctx)()

	if _, ok := r.s.subscriptions[id]; !ok {
		return xerrors.ErrSubscriptionNotFound
	}
	delete(r.s.subscriptions, id)
	return nil
}

func (r *SubscriptionRepository) FindByID(ctx context.Context, id string) (*subscription.UserSubscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sub, ok := r.s.subscriptions[id]
	if !ok {
		return nil, xerrors.ErrSubscriptionNotFound
	}
	return sub.Clone(), nil
}

func (r *SubscriptionRepository) FindByTransactionID(ctx context.Context, reference string) (*subscription.UserSubscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, sub := range r.s.subscriptions {
		if sub.PaymentByReference(reference) >= 0 {
			return sub.Clone(), nil
		}
	}
	return nil, xerrors.ErrSubscriptionNotFound
}

func (r *SubscriptionRepository) FindActive(ctx context.Context, userID, artistID string) (*subscription.UserSubscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, sub := range r.s.subscriptions {
		if sub.UserID == userID && sub.ArtistID == artistID && sub.Status == subscription.StatusActive {
			return sub.Clone(), nil
		}
	}
	return nil, xerrors.ErrSubscriptionNotFound
}

func (r *SubscriptionRepository) ListActiveByUser(ctx context.Context, userID string) ([]*subscription.UserSubscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*subscription.UserSubscription{}
	for _, sub := range r.s.subscriptions {
		if sub.UserID == userID && sub.Status == subscription.StatusActive {
			out = append(out, sub.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.Before(out[j].EndDate) })
	return out, nil
}

// LockPair is a no-op: transactions already run one at a time.
func (r *SubscriptionRepository) LockPair(context.Context, string, string) error {
	return nil
}

func (r *SubscriptionRepository) Update(ctx context.Context, sub *subscription.UserSubscription) error {
	defer r.s.lockWrite(ctx)()

	stored, ok := r.s.subscriptions[sub.ID]
	if !ok {
		return xerrors.ErrSubscriptionNotFound
	}
	if stored.Version != sub.Version {
		return xerrors.ErrVersionConflict
	}
	if sub.Status == subscription.StatusActive && r.activeExists(sub.UserID, sub.ArtistID, sub.ID) {
		return xerrors.ErrAlreadySubscribed
	}

	updated := stored.Clone()
	updated.Status = sub.Status
	updated.EndDate = sub.EndDate
	updated.AutoRenew = sub.AutoRenew
	updated.CancellationDate = sub.CancellationDate
	updated.LastRenewalDate = sub.LastRenewalDate
	updated.NextRenewalDate = sub.NextRenewalDate
	updated.Version++
	updated.UpdatedAt = time.Now().UTC()
	r.s.subscriptions[sub.ID] = updated

	sub.Version = updated.Version
	sub.UpdatedAt = updated.UpdatedAt
	return nil
}

func (r *SubscriptionRepository) UpdatePayment(ctx context.Context, subscriptionID string, entry subscription.PaymentEntry) error {
	defer r.s.lockWrite(ctx)()

	sub, ok := r.s.subscriptions[subscriptionID]
	if !ok {
		return xerrors.ErrSubscriptionNotFound
	}
	for i := range sub.PaymentHistory {
		e := &sub.PaymentHistory[i]
		if e.ID != entry.ID {
			continue
		}
		if e.Status == subscription.PaymentSuccess {
			return xerrors.ErrVersionConflict
		}
		e.TransactionID = entry.TransactionID
		e.Status = entry.Status
		return nil
	}
	return xerrors.ErrVersionConflict
}

func (r *SubscriptionRepository) ExpireDue(ctx context.Context, now time.Time) ([]*subscription.UserSubscription, error) {
	defer r.s.lockWrite(ctx)()

	out := []*subscription.UserSubscription{}
	for _, sub := range r.s.subscriptions {
		if sub.Status == subscription.StatusActive && !sub.EndDate.After(now) {
			sub.Status = subscription.StatusExpired
			sub.Version++
			sub.UpdatedAt = now
			out = append(out, sub.Clone())
		}
	}
	return out, nil
}

func (r *SubscriptionRepository) activeExists(userID, artistID, exceptID string) bool {
	for id, sub := range r.s.subscriptions {
		if id != exceptID && sub.UserID == userID && sub.ArtistID == artistID && sub.Status == subscription.StatusActive {
			return true
		}
	}
	return false
}

// ==================== Platform wallets ====================

type PlatformWalletRepository struct{ s *Store }

func NewPlatformWalletRepository(s *Store) *PlatformWalletRepository {
	return &PlatformWalletRepository{s: s}
}

func (r *PlatformWalletRepository) Credit(ctx context.Context, tx *wallet.WalletTransaction) error {
	defer r.s.lockWrite(ctx)()

	w, ok := r.s.wallets[tx.Currency]
	if !ok {
		w = &wallet.PlatformWallet{Currency: tx.Currency, Balance: decimal.Zero, CreatedAt: tx.Timestamp}
		r.s.wallets[tx.Currency] = w
	}
	r.apply(w, tx, w.Balance.Add(tx.Amount))
	return nil
}

func (r *PlatformWalletRepository) Debit(ctx context.Context, tx *wallet.WalletTransaction) error {
	defer r.s.lockWrite(ctx)()

	w, ok := r.s.wallets[tx.Currency]
	if !ok || w.Balance.LessThan(tx.Amount) {
		return xerrors.ErrInsufficientBalance
	}
	r.apply(w, tx, w.Balance.Sub(tx.Amount))
	return nil
}

func (r *PlatformWalletRepository) apply(w *wallet.PlatformWallet, tx *wallet.WalletTransaction, balance decimal.Decimal) {
	w.Balance = balance
	w.Version++
	w.UpdatedAt = tx.Timestamp
	tx.BalanceAfter = balance
	w.Transactions = append(w.Transactions, *tx)
}

func (r *PlatformWalletRepository) FindByCurrency(ctx context.Context, currency string) (*wallet.PlatformWallet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	w, ok := r.s.wallets[currency]
	if !ok {
		return nil, xerrors.ErrWalletNotFound
	}
	return cloneWallet(w), nil
}

// ==================== Accounts ====================

type ArtistRepository struct{ s *Store }

func NewArtistRepository(s *Store) *ArtistRepository { return &ArtistRepository{s: s} }

func (r *ArtistRepository) FindByID(ctx context.Context, id string) (*artist.Artist, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.artists[id]
	if !ok {
		return nil, xerrors.ErrArtistNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *ArtistRepository) CreditWallet(ctx context.Context, id string, amount decimal.Decimal) error {
	defer r.s.lockWrite(ctx)()

	a, ok := r.s.artists[id]
	if !ok {
		return xerrors.ErrArtistNotFound
	}
	a.WalletBalance = a.WalletBalance.Add(amount)
	return nil
}

type UserRepository struct{ s *Store }

func NewUserRepository(s *Store) *UserRepository { return &UserRepository{s: s} }

func (r *UserRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, xerrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}
