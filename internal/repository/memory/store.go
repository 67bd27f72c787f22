// internal/repository/memory/store.go
package memory

import (
	"context"
	"sync"

	"fanbase-service/internal/domain/artist"
	"fanbase-service/internal/domain/plan"
	"fanbase-service/internal/domain/subscription"
	"fanbase-service/internal/domain/user"
	"fanbase-service/internal/domain/wallet"
)

// Store is an in-process backend for tests and local runs. Transactions roll
// back by restoring a snapshot, so every write holds txMu: a write outside a
// transaction waits for the running one to commit or roll back.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	plans         map[string]*plan.SubscriptionPlan
	subscriptions map[string]*subscription.UserSubscription
	wallets       map[string]*wallet.PlatformWallet
	artists       map[string]*artist.Artist
	users         map[string]*user.User
}

func New() *Store {
	return &Store{
		plans:         make(map[string]*plan.SubscriptionPlan),
		subscriptions: make(map[string]*subscription.UserSubscription),
		wallets:       make(map[string]*wallet.PlatformWallet),
		artists:       make(map[string]*artist.Artist),
		users:         make(map[string]*user.User),
	}
}

type txKey struct{}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func inTx(ctx context.Context) bool {
	return ctx.Value(txKey{}) != nil
}

// lockWrite takes the write locks for ctx and returns the matching unlock.
func (s *Store) lockWrite(ctx context.Context) func() {
	if inTx(ctx) {
		s.mu.Lock()
		return s.mu.Unlock
	}
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

// AddArtist seeds an artist record.
func (s *Store) AddArtist(a *artist.Artist) {
	defer s.lockWrite(context.Background())()
	cp := *a
	s.artists[a.ID] = &cp
}

// AddUser seeds a user record.
func (s *Store) AddUser(u *user.User) {
	defer s.lockWrite(context.Background())()
	cp := *u
	s.users[u.ID] = &cp
}

type snapshot struct {
	plans         map[string]*plan.SubscriptionPlan
	subscriptions map[string]*subscription.UserSubscription
	wallets       map[string]*wallet.PlatformWallet
	artists       map[string]*artist.Artist
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		plans:         make(map[string]*plan.SubscriptionPlan, len(s.plans)),
		subscriptions: make(map[string]*subscription.UserSubscription, len(s.subscriptions)),
		wallets:       make(map[string]*wallet.PlatformWallet, len(s.wallets)),
		artists:       make(map[string]*artist.Artist, len(s.artists)),
	}
	for k, v := range s.plans {
		snap.plans[k] = clonePlan(v)
	}
	for k, v := range s.subscriptions {
		snap.subscriptions[k] = v.Clone()
	}
	for k, v := range s.wallets {
		snap.wallets[k] = cloneWallet(v)
	}
	for k, v := range s.artists {
		cp := *v
		snap.artists[k] = &cp
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans = snap.plans
	s.subscriptions = snap.subscriptions
	s.wallets = snap.wallets
	s.artists = snap.artists
}

func clonePlan(p *plan.SubscriptionPlan) *plan.SubscriptionPlan {
	cp := *p
	cp.Benefits = append([]string(nil), p.Benefits...)
	return &cp
}

func cloneWallet(w *wallet.PlatformWallet) *wallet.PlatformWallet {
	cp := *w
	cp.Transactions = append([]wallet.WalletTransaction(nil), w.Transactions...)
	return &cp
}
