// internal/repository/mongo/wallet_repo.go
package mongo

import (
	"context"

	"fanbase-service/internal/domain/wallet"
	xerrors "fanbase-service/internal/pkg/errors"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// PlatformWalletRepository keeps one document per currency with the ledger
// lines embedded. Each mutation is a single pipeline update, so the balance
// change and the appended line land together.
type PlatformWalletRepository struct {
	store *Store
}

func NewPlatformWalletRepository(store *Store) *PlatformWalletRepository {
	return &PlatformWalletRepository{store: store}
}

func (r *PlatformWalletRepository) Credit(ctx context.Context, tx *wallet.WalletTransaction) error {
	amount := toDecimal128(tx.Amount)
	newBalance := bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$balance", toDecimal128(decimal.Zero)}}, amount}}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After).
		SetProjection(bson.M{"balance": 1})

	balance, err := r.apply(ctx, bson.M{"_id": tx.Currency}, newBalance, tx, opts)
	if err != nil {
		return xerrors.Wrap(err, "mongo: credit platform wallet")
	}
	tx.BalanceAfter = balance
	return nil
}

// Debit matches only while balance >= amount; no match writes nothing.
func (r *PlatformWalletRepository) Debit(ctx context.Context, tx *wallet.WalletTransaction) error {
	amount := toDecimal128(tx.Amount)
	filter := bson.M{"_id": tx.Currency, "balance": bson.M{"$gte": amount}}
	newBalance := bson.M{"$subtract": bson.A{"$balance", amount}}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"balance": 1})

	balance, err := r.apply(ctx, filter, newBalance, tx, opts)
	if isNoDocuments(err) {
		return xerrors.ErrInsufficientBalance
	}
	if err != nil {
		return xerrors.Wrap(err, "mongo: debit platform wallet")
	}
	tx.BalanceAfter = balance
	return nil
}

func (r *PlatformWalletRepository) apply(ctx context.Context, filter, newBalance bson.M, tx *wallet.WalletTransaction, opts *options.FindOneAndUpdateOptionsBuilder) (decimal.Decimal, error) {
	t := now()
	line := bson.M{
		"id":           bson.M{"$literal": tx.ID},
		"amount":       toDecimal128(tx.Amount),
		"currency":     bson.M{"$literal": tx.Currency},
		"type":         bson.M{"$literal": string(tx.Type)},
		"description":  bson.M{"$literal": tx.Description},
		"balanceAfter": "$balance",
		"timestamp":    tx.Timestamp,
	}

	// Stage two reads the balance written by stage one.
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{"balance": newBalance}}},
		{{Key: "$set", Value: bson.M{
			"transactions": bson.M{"$concatArrays": bson.A{
				bson.M{"$ifNull": bson.A{"$transactions", bson.A{}}},
				bson.A{line},
			}},
			"version":   bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$version", 0}}, 1}},
			"createdAt": bson.M{"$ifNull": bson.A{"$createdAt", t}},
			"updatedAt": t,
		}}},
	}

	var out struct {
		Balance bson.Decimal128 `bson:"balance"`
	}
	if err := r.store.collection(colPlatformWallets).FindOneAndUpdate(ctx, filter, pipeline, opts).Decode(&out); err != nil {
		return decimal.Zero, err
	}
	return fromDecimal128(out.Balance), nil
}

func (r *PlatformWalletRepository) FindByCurrency(ctx context.Context, currency string) (*wallet.PlatformWallet, error) {
	var m walletDoc
	if err := r.store.collection(colPlatformWallets).FindOne(ctx, bson.M{"_id": currency}).Decode(&m); err != nil {
		if isNoDocuments(err) {
			return nil, xerrors.ErrWalletNotFound
		}
		return nil, xerrors.Wrap(err, "mongo: get platform wallet")
	}
	return fromWalletDoc(&m), nil
}
