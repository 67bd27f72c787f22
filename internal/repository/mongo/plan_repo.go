// internal/repository/mongo/plan_repo.go
package mongo

import (
	"context"

	"fanbase-service/internal/domain/plan"
	xerrors "fanbase-service/internal/pkg/errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type PlanRepository struct {
	store *Store
}

func NewPlanRepository(store *Store) *PlanRepository {
	return &PlanRepository{store: store}
}

func (r *PlanRepository) Create(ctx context.Context, p *plan.SubscriptionPlan) error {
	t := now()
	p.CreatedAt, p.UpdatedAt = t, t

	if _, err := r.store.collection(colPlans).InsertOne(ctx, toPlanDoc(p)); err != nil {
		return xerrors.Wrap(err, "mongo: create plan")
	}
	return nil
}

func (r *PlanRepository) FindByID(ctx context.Context, id string) (*plan.SubscriptionPlan, error) {
	var m planDoc
	err := r.store.collection(colPlans).FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, xerrors.ErrPlanNotFound
		}
		return nil, xerrors.Wrap(err, "mongo: get plan")
	}
	return fromPlanDoc(&m), nil
}

func (r *PlanRepository) ListActiveByArtist(ctx context.Context, artistID string) ([]*plan.SubscriptionPlan, error) {
	opts := options.Find().SetSort(bson.D{{Key: "price.amount", Value: 1}, {Key: "createdAt", Value: 1}})

	cur, err := r.store.collection(colPlans).Find(ctx, bson.M{"artistId": artistID, "isActive": true}, opts)
	if err != nil {
		return nil, xerrors.Wrap(err, "mongo: list plans")
	}

	var models []planDoc
	if err := cur.All(ctx, &models); err != nil {
		return nil, xerrors.Wrap(err, "mongo: decode plans")
	}

	plans := make([]*plan.SubscriptionPlan, len(models))
	for i := range models {
		plans[i] = fromPlanDoc(&models[i])
	}
	return plans, nil
}

func (r *PlanRepository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.store.collection(colPlans).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"isActive": active, "updatedAt": now()}},
	)
	if err != nil {
		return xerrors.Wrap(err, "mongo: update plan status")
	}
	if res.MatchedCount == 0 {
		return xerrors.ErrPlanNotFound
	}
	return nil
}

func (r *PlanRepository) IncrementSubscriberCount(ctx context.Context, id string, delta int64) error {
	res, err := r.store.collection(colPlans).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"subscriberCount": delta}, "$set": bson.M{"updatedAt": now()}},
	)
	if err != nil {
		return xerrors.Wrap(err, "mongo: increment subscriber count")
	}
	if res.MatchedCount == 0 {
		return xerrors.ErrPlanNotFound
	}
	return nil
}
