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

type productRepo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewProductRepo(client *mongo.Client, db *mongo.Database) repository.ProductRepository {
	return &productRepo{client: client, coll: db.Collection(productsCollection)}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	product.EnsureID()
	now := time.Now().UTC()
	product.CreatedAt, product.UpdatedAt = now, now
	_, err := r.coll.InsertOne(ctx, product)
	return translateError(err)
}

func (r *productRepo) FindAll(ctx context.Context, category string) ([]model.Product, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, translateError(err)
	}
	products := []model.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, translateError(err)
	}
	return products, nil
}

func (r *productRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, translateError(err)
	}
	return &product, nil
}

func (r *productRepo) Update(ctx context.Context, id string, fn func(p *model.Product) error) (*model.Product, error) {
	var updated model.Product
	err := withTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		if err := r.coll.FindOne(sc, bson.M{"_id": id}).Decode(&updated); err != nil {
			return err
		}
		if err := fn(&updated); err != nil {
			return err
		}
		updated.ID = id
		updated.UpdatedAt = time.Now().UTC()
		_, err := r.coll.ReplaceOne(sc, bson.M{"_id": id}, &updated)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *productRepo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translateError(err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
