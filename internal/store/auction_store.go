package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auctionhub/internal/apperrors"
	"auctionhub/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AuctionStore persists auction documents. Bids live inside the auction
// document as an ordered array; there is no separate bid collection.
type AuctionStore interface {
	Insert(ctx context.Context, auction models.Auction) (models.Auction, error)
	FindAll(ctx context.Context) ([]models.Auction, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Auction, error)
	// AppendBid atomically appends a bid and bumps current_bid, but only if
	// the stored current_bid still equals expectedCurrent and the auction is
	// not ended. Returns apperrors.ErrStaleBid when the condition fails.
	AppendBid(ctx context.Context, id primitive.ObjectID, expectedCurrent float64, bid models.Bid) (models.Auction, error)
	MarkEnded(ctx context.Context, id primitive.ObjectID) error
	Replace(ctx context.Context, auction models.Auction) (models.Auction, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type MongoAuctionStore struct {
	coll *mongo.Collection
}

func NewMongoAuctionStore(db *mongo.Database) *MongoAuctionStore {
	return &MongoAuctionStore{coll: db.Collection("auctions")}
}

func (s *MongoAuctionStore) Insert(ctx context.Context, auction models.Auction) (models.Auction, error) {
	res, err := s.coll.InsertOne(ctx, auction)
	if err != nil {
		return models.Auction{}, fmt.Errorf("insert auction: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		auction.ID = oid
	}
	return auction, nil
}

func (s *MongoAuctionStore) FindAll(ctx context.Context) ([]models.Auction, error) {
	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find auctions: %w", err)
	}
	defer cursor.Close(ctx)

	var auctions []models.Auction
	if err := cursor.All(ctx, &auctions); err != nil {
		return nil, fmt.Errorf("decode auctions: %w", err)
	}
	return auctions, nil
}

func (s *MongoAuctionStore) FindByID(ctx context.Context, id primitive.ObjectID) (models.Auction, error) {
	var auction models.Auction
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&auction)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Auction{}, apperrors.ErrAuctionNotFound
	}
	if err != nil {
		return models.Auction{}, fmt.Errorf("find auction by id: %w", err)
	}
	return auction, nil
}

func (s *MongoAuctionStore) AppendBid(ctx context.Context, id primitive.ObjectID, expectedCurrent float64, bid models.Bid) (models.Auction, error) {
	filter := bson.M{
		"_id":         id,
		"is_ended":    false,
		"current_bid": expectedCurrent,
	}
	update := bson.M{
		"$push": bson.M{"bids": bid},
		"$set": bson.M{
			"current_bid": bid.Amount,
			"updated_at":  bid.BidAt,
		},
	}

	var auction models.Auction
	err := s.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&auction)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Either the auction is gone or a concurrent writer moved current_bid.
		return models.Auction{}, apperrors.ErrStaleBid
	}
	if err != nil {
		return models.Auction{}, fmt.Errorf("append bid: %w", err)
	}
	return auction, nil
}

func (s *MongoAuctionStore) MarkEnded(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_ended": true, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("mark auction ended: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrAuctionNotFound
	}
	return nil
}

func (s *MongoAuctionStore) Replace(ctx context.Context, auction models.Auction) (models.Auction, error) {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": auction.ID}, auction)
	if err != nil {
		return models.Auction{}, fmt.Errorf("replace auction: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.Auction{}, apperrors.ErrAuctionNotFound
	}
	return auction, nil
}

func (s *MongoAuctionStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete auction: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperrors.ErrAuctionNotFound
	}
	return nil
}
