package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Bid is embedded in its auction document; it has no collection of its own
// and dies with the auction.
type Bid struct {
	ID         string             `bson:"_id" json:"id"`
	Bidder     primitive.ObjectID `bson:"bidder" json:"bidder"`
	BidderName string             `bson:"-" json:"bidderName,omitempty"`
	Amount     float64            `bson:"amount" json:"amount"`
	BidAt      time.Time          `bson:"bid_at" json:"bidAt"`
}

type Auction struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	StartingBid float64            `bson:"starting_bid" json:"startingBid"`
	CurrentBid  float64            `bson:"current_bid" json:"currentBid"`
	Bids        []Bid              `bson:"bids" json:"bids"`
	Owner       primitive.ObjectID `bson:"owner" json:"owner"`
	OwnerName   string             `bson:"-" json:"ownerName,omitempty"`
	EndsAt      time.Time          `bson:"ends_at" json:"endsAt"`
	IsEnded     bool               `bson:"is_ended" json:"isEnded"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}
