package mongorepo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"quickgrocery/internal/model"
	"quickgrocery/internal/repository"
)

type checkoutStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewCheckoutStore(client *mongo.Client, db *mongo.Database) repository.CheckoutStore {
	return &checkoutStore{client: client, db: db}
}

func (s *checkoutStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.CheckoutTx) error) error {
	return withTransaction(ctx, s.client, func(sc mongo.SessionContext) error {
		return fn(sc, &mongoCheckoutTx{db: s.db})
	})
}

// mongoCheckoutTx relies on snapshot isolation: a concurrent commit to the same product
// aborts this transaction with a write conflict.
type mongoCheckoutTx struct {
	db *mongo.Database
}

func (t *mongoCheckoutTx) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	if err := t.db.Collection(productsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, translateError(err)
	}
	return &product, nil
}

func (t *mongoCheckoutTx) CreateOrder(ctx context.Context, order *model.Order) error {
	order.EnsureID()
	_, err := t.db.Collection(ordersCollection).InsertOne(ctx, order)
	return translateError(err)
}

func (t *mongoCheckoutTx) DecrementStock(ctx context.Context, id string, qty int) error {
	filter := bson.M{"_id": id, "stock_count": bson.M{"$gte": qty}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "stock_count", Value: bson.D{{Key: "$max", Value: bson.A{
				bson.D{{Key: "$subtract", Value: bson.A{"$stock_count", qty}}}, 0,
			}}}},
			{Key: "updated_at", Value: "$$NOW"},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "stock", Value: bson.D{{Key: "$gt", Value: bson.A{"$stock_count", 0}}}},
		}}},
	}

	res, err := t.db.Collection(productsCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return translateError(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrConflict
	}
	return nil
}
