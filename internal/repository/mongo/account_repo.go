// internal/repository/mongo/account_repo.go
package mongo

import (
	"context"

	"fanbase-service/internal/domain/artist"
	"fanbase-service/internal/domain/user"
	xerrors "fanbase-service/internal/pkg/errors"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type ArtistRepository struct {
	store *Store
}

func NewArtistRepository(store *Store) *ArtistRepository {
	return &ArtistRepository{store: store}
}

func (r *ArtistRepository) FindByID(ctx context.Context, id string) (*artist.Artist, error) {
	var m artistDoc
	if err := r.store.collection(colArtists).FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if isNoDocuments(err) {
			return nil, xerrors.ErrArtistNotFound
		}
		return nil, xerrors.Wrap(err, "mongo: get artist")
	}
	return &artist.Artist{ID: m.ID, Name: m.Name, WalletBalance: fromDecimal128(m.Wallet.Balance)}, nil
}

func (r *ArtistRepository) CreditWallet(ctx context.Context, id string, amount decimal.Decimal) error {
	res, err := r.store.collection(colArtists).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"wallet.balance": toDecimal128(amount)}},
	)
	if err != nil {
		return xerrors.Wrap(err, "mongo: credit artist wallet")
	}
	if res.MatchedCount == 0 {
		return xerrors.ErrArtistNotFound
	}
	return nil
}

type UserRepository struct {
	store *Store
}

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	var m userDoc
	if err := r.store.collection(colUsers).FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if isNoDocuments(err) {
			return nil, xerrors.ErrUserNotFound
		}
		return nil, xerrors.Wrap(err, "mongo: get user")
	}
	return &user.User{ID: m.ID, Email: m.Email, Name: m.Name}, nil
}
