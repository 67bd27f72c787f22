// internal/app/storage.go
package app

import (
	"context"
	"fmt"

	"fanbase-service/internal/config"
	"fanbase-service/internal/db"
	"fanbase-service/internal/domain"
	"fanbase-service/internal/domain/artist"
	"fanbase-service/internal/domain/plan"
	"fanbase-service/internal/domain/subscription"
	"fanbase-service/internal/domain/user"
	"fanbase-service/internal/domain/wallet"
	"fanbase-service/internal/repository/memory"
	mongorepo "fanbase-service/internal/repository/mongo"
	"fanbase-service/internal/repository/postgres"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Repositories is one storage backend behind the domain ports.
type Repositories struct {
	Plans         plan.Repository
	Subscriptions subscription.Repository
	Users         user.Repository
	Artists       artist.Repository
	Wallets       wallet.PlatformRepository
	Tx            domain.Transactor

	close func(ctx context.Context)
}

func (r *Repositories) Close(ctx context.Context) {
	if r.close != nil {
		r.close(ctx)
	}
}

// OpenRepositories connects the backend named by cfg.StorageDriver.
func OpenRepositories(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Repositories, error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		pool, err := db.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		logger.Info("connected to postgres")
		store := postgres.NewDB(pool)
		return &Repositories{
			Plans:         postgres.NewPlanRepository(store),
			Subscriptions: postgres.NewSubscriptionRepository(store),
			Users:         postgres.NewUserRepository(store),
			Artists:       postgres.NewArtistRepository(store),
			Wallets:       postgres.NewPlatformWalletRepository(store),
			Tx:            store,
			close:         func(context.Context) { pool.Close() },
		}, nil

	case config.StorageMongo:
		client, err := db.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		logger.Info("connected to mongo", zap.String("database", cfg.MongoDatabase))
		store := mongorepo.NewStore(client, cfg.MongoDatabase)
		return &Repositories{
			Plans:         mongorepo.NewPlanRepository(store),
			Subscriptions: mongorepo.NewSubscriptionRepository(store),
			Users:         mongorepo.NewUserRepository(store),
			Artists:       mongorepo.NewArtistRepository(store),
			Wallets:       mongorepo.NewPlatformWalletRepository(store),
			Tx:            store,
			close: func(ctx context.Context) {
				if err := client.Disconnect(ctx); err != nil {
					logger.Warn("mongo disconnect failed", zap.Error(err))
				}
			},
		}, nil

	case config.StorageMemory:
		store := memory.New()
		if cfg.IsDevelopment() {
			seedDemoAccounts(store, logger)
		}
		return NewMemoryRepositories(store), nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

// NewMemoryRepositories exposes an in-process store through the domain ports.
func NewMemoryRepositories(store *memory.Store) *Repositories {
	return &Repositories{
		Plans:         memory.NewPlanRepository(store),
		Subscriptions: memory.NewSubscriptionRepository(store),
		Users:         memory.NewUserRepository(store),
		Artists:       memory.NewArtistRepository(store),
		Wallets:       memory.NewPlatformWalletRepository(store),
		Tx:            store,
	}
}

func seedDemoAccounts(store *memory.Store, logger *zap.Logger) {
	store.AddArtist(&artist.Artist{ID: "demo-artist", Name: "Demo Artist", WalletBalance: decimal.Zero})
	store.AddUser(&user.User{ID: "demo-user", Email: "fan@fanbase.local"})
	logger.Warn("memory storage seeded with demo accounts",
		zap.String("artist_id", "demo-artist"),
		zap.String("user_id", "demo-user"),
	)
}
