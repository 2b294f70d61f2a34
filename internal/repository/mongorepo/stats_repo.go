package mongorepo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"quickgrocery/internal/model"
	"quickgrocery/internal/repository"
)

type statsRepo struct {
	orders   *mongo.Collection
	products *mongo.Collection
}

func NewStatsRepo(db *mongo.Database) repository.StatsRepository {
	return &statsRepo{
		orders:   db.Collection(ordersCollection),
		products: db.Collection(productsCollection),
	}
}

func (r *statsRepo) OrderSummary(ctx context.Context, since time.Time) (repository.OrderSummary, error) {
	pipeline := mongo.Pipeline{}
	if !since.IsZero() {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"created_at": bson.M{"$gte": since}}}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$group", Value: bson.D{
		{Key: "_id", Value: nil},
		{Key: "orders", Value: bson.M{"$sum": 1}},
		{Key: "revenue", Value: bson.M{"$sum": "$total"}},
	}}})

	var rows []struct {
		Orders  int64           `bson:"orders"`
		Revenue decimal.Decimal `bson:"revenue"`
	}
	if err := r.aggregate(ctx, r.orders, pipeline, &rows); err != nil {
		return repository.OrderSummary{}, err
	}
	if len(rows) == 0 {
		return repository.OrderSummary{Revenue: decimal.Zero}, nil
	}
	return repository.OrderSummary{Orders: rows[0].Orders, Revenue: rows[0].Revenue}, nil
}

func (r *statsRepo) StatusCounts(ctx context.Context) (map[model.OrderStatus]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "n", Value: bson.M{"$sum": 1}},
		}}},
	}
	var rows []struct {
		Status string `bson:"_id"`
		N      int64  `bson:"n"`
	}
	if err := r.aggregate(ctx, r.orders, pipeline, &rows); err != nil {
		return nil, err
	}

	counts := make(map[model.OrderStatus]int64, len(model.OrderStatuses))
	for _, s := range model.OrderStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[model.OrderStatus(row.Status)] = row.N
	}
	return counts, nil
}

func (r *statsRepo) TopProducts(ctx context.Context, limit int) ([]repository.ProductSales, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: "$items"}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$items.name"},
			{Key: "quantity", Value: bson.M{"$sum": "$items.quantity"}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "quantity", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}
	var rows []struct {
		Name     string `bson:"_id"`
		Quantity int64  `bson:"quantity"`
	}
	if err := r.aggregate(ctx, r.orders, pipeline, &rows); err != nil {
		return nil, err
	}

	out := make([]repository.ProductSales, 0, len(rows))
	for _, row := range rows {
		out = append(out, repository.ProductSales{Name: row.Name, Quantity: row.Quantity})
	}
	return out, nil
}

func (r *statsRepo) ProductCount(ctx context.Context) (int64, error) {
	n, err := r.products.CountDocuments(ctx, bson.M{})
	return n, translateError(err)
}

func (r *statsRepo) LowStockCount(ctx context.Context, threshold int) (int64, error) {
	n, err := r.products.CountDocuments(ctx, bson.M{"stock_count": bson.M{"$lt": threshold}})
	return n, translateError(err)
}

func (r *statsRepo) FrequentProducts(ctx context.Context, userID string, orders, limit int) ([]string, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID, "status": model.StatusDelivered}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
		{{Key: "$limit", Value: orders}},
		{{Key: "$unwind", Value: "$items"}},
		// Count each order once per product, even if the line was split.
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "order", Value: "$_id"}, {Key: "product", Value: "$items.product_id"}}},
		}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$_id.product"},
			{Key: "n", Value: bson.M{"$sum": 1}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "n", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}
	var rows []struct {
		ProductID string `bson:"_id"`
	}
	if err := r.aggregate(ctx, r.orders, pipeline, &rows); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}
	return ids, nil
}

func (r *statsRepo) aggregate(ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline, out interface{}) error {
	cur, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return translateError(err)
	}
	return translateError(cur.All(ctx, out))
}
