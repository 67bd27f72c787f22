// internal/repository/mongo/store.go
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	xerrors "fanbase-service/internal/pkg/errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection name constants.
const (
	colPlans           = "subscriptionPlans"
	colSubscriptions   = "userSubscriptions"
	colPlatformWallets = "platformWallets"
	colArtists         = "artists"
	colUsers           = "users"
	colPairLocks       = "subscriptionPairLocks"
)

const activeSubscriptionIndex = "ux_user_subscriptions_active"

// Store owns the database handle shared by the repositories in this package.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewStore(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database)}
}

func (s *Store) collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// WithinTx runs fn in a multi-document transaction. The session travels on
// ctx; nested calls join the outer transaction. The driver may rerun fn on
// transient errors, so fn must re-read whatever it depends on.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return xerrors.Wrap(err, "mongo: start session")
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}

// EnsureIndexes creates the indexes every backend relies on, including the
// partial unique index that admits one active subscription per (user, artist).
func (s *Store) EnsureIndexes(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if _, err := s.collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongo: create %s indexes: %w", col, err)
		}
	}
	return nil
}

func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colPlans: {
			{Keys: bson.D{{Key: "artistId", Value: 1}, {Key: "isActive", Value: 1}}},
		},
		colSubscriptions: {
			{
				Keys: bson.D{{Key: "userId", Value: 1}, {Key: "artistId", Value: 1}},
				Options: options.Index().
					SetName(activeSubscriptionIndex).
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": "active"}),
			},
			{Keys: bson.D{{Key: "paymentHistory.transactionId", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "endDate", Value: 1}}},
		},
		colUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func now() time.Time {
	return time.Now().UTC()
}
