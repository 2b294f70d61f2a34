package mongorepo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"quickgrocery/internal/model"
	"quickgrocery/internal/repository"
)

type orderRepo struct {
	coll *mongo.Collection
}

func NewOrderRepo(db *mongo.Database) repository.OrderRepository {
	return &orderRepo{coll: db.Collection(ordersCollection)}
}

func (r *orderRepo) FindAll(ctx context.Context, filter repository.OrderFilter) ([]model.Order, error) {
	q := bson.M{}
	if filter.Status != "" {
		q["status"] = filter.Status
	}
	if filter.UserID != "" {
		q["user_id"] = filter.UserID
	}
	if !filter.Since.IsZero() {
		q["created_at"] = bson.M{"$gte": filter.Since}
	}

	cur, err := r.coll.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, translateError(err)
	}
	orders := []model.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, translateError(err)
	}
	return orders, nil
}

func (r *orderRepo) FindByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, translateError(err)
	}
	return &order, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus, at time.Time) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": at}},
	)
	if err != nil {
		return translateError(err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return translateError(err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}
