package store

import (
	"context"
	"errors"
	"fmt"

	"auctionhub/internal/apperrors"
	"auctionhub/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserStore persists user identities.
type UserStore interface {
	Insert(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
}

type MongoUserStore struct {
	coll *mongo.Collection
}

func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{coll: db.Collection("users")}
}

func (s *MongoUserStore) Insert(ctx context.Context, user models.User) error {
	if _, err := s.coll.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *MongoUserStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, apperrors.ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return user, nil
}

func (s *MongoUserStore) FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var user models.User
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, apperrors.ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user by id: %w", err)
	}
	return user, nil
}
