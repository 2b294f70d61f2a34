// Package mongorepo implements the repository interfaces on MongoDB. Checkout needs
// multi-document transactions, so the server must run as a replica set.
package mongorepo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"quickgrocery/internal/repository"
)

const (
	productsCollection = "products"
	ordersCollection   = "orders"
	usersCollection    = "users"

	writeConflictCode = 112
	transientTxnLabel = "TransientTransactionError"
)

// EnsureIndexes creates the indexes the repositories rely on. It is safe to call on every start.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if _, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("users index: %w", err)
	}

	if _, err := db.Collection(ordersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("orders index: %w", err)
	}

	if _, err := db.Collection(productsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "category", Value: 1}},
	}); err != nil {
		return fmt.Errorf("products index: %w", err)
	}
	return nil
}

// withTransaction runs fn in a snapshot transaction. It does not retry; conflicts surface
// as repository.ErrConflict and the caller decides.
func withTransaction(ctx context.Context, client *mongo.Client, fn func(sc mongo.SessionContext) error) error {
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(context.Background())

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	err = mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sess.StartTransaction(txnOpts); err != nil {
			return err
		}
		if err := fn(sc); err != nil {
			_ = sess.AbortTransaction(context.Background())
			return err
		}
		return sess.CommitTransaction(sc)
	})
	return translateError(err)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", repository.ErrDuplicate, err)
	}
	var se mongo.ServerError
	if errors.As(err, &se) {
		if se.HasErrorLabel(transientTxnLabel) || se.HasErrorCode(writeConflictCode) {
			return fmt.Errorf("%w: %v", repository.ErrConflict, err)
		}
	}
	return err
}
