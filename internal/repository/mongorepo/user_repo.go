package mongorepo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"quickgrocery/internal/model"
	"quickgrocery/internal/repository"
)

type userRepo struct {
	coll *mongo.Collection
}

func NewUserRepo(db *mongo.Database) repository.UserRepository {
	return &userRepo{coll: db.Collection(usersCollection)}
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	user.EnsureID()
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	_, err := r.coll.InsertOne(ctx, user)
	return translateError(err)
}

func (r *userRepo) UpdateProfile(ctx context.Context, user *model.User) error {
	return r.set(ctx, user.ID, bson.M{
		"name":    user.Name,
		"phone":   user.Phone,
		"address": user.Address,
	})
}

func (r *userRepo) UpdateCredentials(ctx context.Context, id, passwordHash, tokenVersion string) error {
	return r.set(ctx, id, bson.M{
		"password":      passwordHash,
		"token_version": tokenVersion,
	})
}

func (r *userRepo) set(ctx context.Context, id string, fields bson.M) error {
	fields["updated_at"] = time.Now().UTC()
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return translateError(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
