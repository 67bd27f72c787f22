// internal/repository/mongo/subscription_repo.go
package mongo

import (
	"context"
	"time"

	"fanbase-service/internal/domain/subscription"
	xerrors "fanbase-service/internal/pkg/errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type SubscriptionRepository struct {
	store *Store
}

func NewSubscriptionRepository(store *Store) *SubscriptionRepository {
	return &SubscriptionRepository{store: store}
}

func (r *SubscriptionRepository) coll() *mongo.Collection {
	return r.store.collection(colSubscriptions)
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *subscription.UserSubscription) error {
	t := now()
	sub.CreatedAt, sub.UpdatedAt = t, t
	if sub.Version == 0 {
		sub.Version = 1
	}

	if _, err := r.coll().InsertOne(ctx, toSubscriptionDoc(sub)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return xerrors.ErrAlreadySubscribed
		}
		return xerrors.Wrap(err, "mongo: create subscription")
	}
	return nil
}

func (r *SubscriptionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return xerrors.Wrap(err, "mongo: delete subscription")
	}
	if res.DeletedCount == 0 {
		return xerrors.ErrSubscriptionNotFound
	}
	return nil
}

func (r *SubscriptionRepository) FindByID(ctx context.Context, id string) (*subscription.UserSubscription, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *SubscriptionRepository) FindByTransactionID(ctx context.Context, reference string) (*subscription.UserSubscription, error) {
	return r.findOne(ctx, bson.M{"paymentHistory.transactionId": reference})
}

func (r *SubscriptionRepository) FindActive(ctx context.Context, userID, artistID string) (*subscription.UserSubscription, error) {
	return r.findOne(ctx, bson.M{"userId": userID, "artistId": artistID, "status": string(subscription.StatusActive)})
}

func (r *SubscriptionRepository) ListActiveByUser(ctx context.Context, userID string) ([]*subscription.UserSubscription, error) {
	opts := options.Find().SetSort(bson.D{{Key: "endDate", Value: 1}})
	return r.findMany(ctx, bson.M{"userId": userID, "status": string(subscription.StatusActive)}, opts)
}

// LockPair writes a per-pair marker document. Two transactions touching the
// same marker conflict, and the driver retries the loser after the winner
// commits.
func (r *SubscriptionRepository) LockPair(ctx context.Context, userID, artistID string) error {
	_, err := r.store.collection(colPairLocks).UpdateOne(ctx,
		bson.M{"_id": userID + ":" + artistID},
		bson.M{"$inc": bson.M{"n": 1}, "$set": bson.M{"lockedAt": now()}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return xerrors.Wrap(err, "mongo: lock subscription pair")
	}
	return nil
}

func (r *SubscriptionRepository) Update(ctx context.Context, sub *subscription.UserSubscription) error {
	t := now()
	set := bson.M{
		"status":    string(sub.Status),
		"endDate":   sub.EndDate,
		"autoRenew": sub.AutoRenew,
		"updatedAt": t,
	}
	unset := bson.M{}
	setOptionalTime(set, unset, "cancellationDate", sub.CancellationDate)
	setOptionalTime(set, unset, "lastRenewalDate", sub.LastRenewalDate)
	setOptionalTime(set, unset, "nextRenewalDate", sub.NextRenewalDate)

	update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := r.coll().UpdateOne(ctx, bson.M{"_id": sub.ID, "version": sub.Version}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return xerrors.ErrAlreadySubscribed
		}
		return xerrors.Wrap(err, "mongo: update subscription")
	}
	if res.MatchedCount == 0 {
		if _, err := r.FindByID(ctx, sub.ID); err != nil {
			return err
		}
		return xerrors.ErrVersionConflict
	}

	sub.Version++
	sub.UpdatedAt = t
	return nil
}

// UpdatePayment never rewrites an entry that already settled as success.
func (r *SubscriptionRepository) UpdatePayment(ctx context.Context, subscriptionID string, entry subscription.PaymentEntry) error {
	filter := bson.M{
		"_id": subscriptionID,
		"paymentHistory": bson.M{"$elemMatch": bson.M{
			"id":     entry.ID,
			"status": bson.M{"$ne": string(subscription.PaymentSuccess)},
		}},
	}
	update := bson.M{"$set": bson.M{
		"paymentHistory.$.transactionId": entry.TransactionID,
		"paymentHistory.$.status":        string(entry.Status),
		"updatedAt":                      now(),
	}}

	res, err := r.coll().UpdateOne(ctx, filter, update)
	if err != nil {
		return xerrors.Wrap(err, "mongo: update payment entry")
	}
	if res.MatchedCount == 0 {
		return xerrors.ErrVersionConflict
	}
	return nil
}

func (r *SubscriptionRepository) ExpireDue(ctx context.Context, at time.Time) ([]*subscription.UserSubscription, error) {
	due := bson.M{"status": string(subscription.StatusActive), "endDate": bson.M{"$lte": at}}

	subs, err := r.findMany(ctx, due, nil)
	if err != nil || len(subs) == 0 {
		return subs, err
	}

	ids := make([]string, len(subs))
	for i, s := range subs {
		ids[i] = s.ID
	}

	_, err = r.coll().UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "status": string(subscription.StatusActive)},
		bson.M{"$set": bson.M{"status": string(subscription.StatusExpired), "updatedAt": at}, "$inc": bson.M{"version": 1}},
	)
	if err != nil {
		return nil, xerrors.Wrap(err, "mongo: expire subscriptions")
	}

	for _, s := range subs {
		s.Status = subscription.StatusExpired
		s.Version++
		s.UpdatedAt = at
	}
	return subs, nil
}

// ==================== Helpers ====================

func (r *SubscriptionRepository) findOne(ctx context.Context, filter bson.M) (*subscription.UserSubscription, error) {
	var m subscriptionDoc
	if err := r.coll().FindOne(ctx, filter).Decode(&m); err != nil {
		if isNoDocuments(err) {
			return nil, xerrors.ErrSubscriptionNotFound
		}
		return nil, xerrors.Wrap(err, "mongo: get subscription")
	}
	return fromSubscriptionDoc(&m), nil
}

func (r *SubscriptionRepository) findMany(ctx context.Context, filter bson.M, opts *options.FindOptionsBuilder) ([]*subscription.UserSubscription, error) {
	var (
		cur *mongo.Cursor
		err error
	)
	if opts != nil {
		cur, err = r.coll().Find(ctx, filter, opts)
	} else {
		cur, err = r.coll().Find(ctx, filter)
	}
	if err != nil {
		return nil, xerrors.Wrap(err, "mongo: list subscriptions")
	}

	var models []subscriptionDoc
	if err := cur.All(ctx, &models); err != nil {
		return nil, xerrors.Wrap(err, "mongo: decode subscriptions")
	}

	subs := make([]*subscription.UserSubscription, len(models))
	for i := range models {
		subs[i] = fromSubscriptionDoc(&models[i])
	}
	return subs, nil
}

func setOptionalTime(set, unset bson.M, field string, t *time.Time) {
	if t != nil {
		set[field] = *t
		return
	}
	unset[field] = ""
}
