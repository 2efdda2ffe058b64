package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auctionhub/internal/apperrors"
	"auctionhub/internal/models"
	"auctionhub/internal/store"
	"auctionhub/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuctionService implements the auction lifecycle: create, list, read,
// bid, update, delete.
type AuctionService struct {
	auctions store.AuctionStore
	users    store.UserStore
	now      func() time.Time
}

func NewAuctionService(auctions store.AuctionStore, users store.UserStore) *AuctionService {
	return &AuctionService{
		auctions: auctions,
		users:    users,
		now:      time.Now,
	}
}

// CreateAuctionInput carries the caller-supplied fields for a new auction.
// Presence validation happens at the HTTP layer.
type CreateAuctionInput struct {
	Title       string
	Description string
	StartingBid float64
	EndsAt      time.Time
}

// UpdateAuctionInput carries the owner-editable fields. Zero values mean
// "leave unchanged"; startingBid, currentBid and bids are never editable.
type UpdateAuctionInput struct {
	Title       string
	Description string
	EndsAt      time.Time
}

// Create persists a new auction owned by ownerID. The end time is not
// required to be in the future; an already-expired auction simply rejects
// every bid.
func (s *AuctionService) Create(ctx context.Context, in CreateAuctionInput, ownerID string) (models.Auction, error) {
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return models.Auction{}, fmt.Errorf("create auction: bad owner id: %w", err)
	}

	now := s.now()
	auction := models.Auction{
		Title:       in.Title,
		Description: in.Description,
		StartingBid: in.StartingBid,
		CurrentBid:  in.StartingBid,
		Bids:        []models.Bid{},
		Owner:       owner,
		EndsAt:      in.EndsAt,
		IsEnded:     false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.auctions.Insert(ctx, auction)
	if err != nil {
		return models.Auction{}, fmt.Errorf("create auction: %w", err)
	}
	return created, nil
}

// List returns all auctions with owner display names resolved.
func (s *AuctionService) List(ctx context.Context) ([]models.Auction, error) {
	auctions, err := s.auctions.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list auctions: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, len(auctions))
	for _, a := range auctions {
		ids = append(ids, a.Owner)
	}
	names := s.resolveUsernames(ctx, ids)

	for i := range auctions {
		auctions[i].OwnerName = names[auctions[i].Owner]
	}
	return auctions, nil
}

// GetByID returns one auction with owner and bidder display names resolved.
func (s *AuctionService) GetByID(ctx context.Context, auctionID string) (models.Auction, error) {
	oid, err := primitive.ObjectIDFromHex(auctionID)
	if err != nil {
		return models.Auction{}, apperrors.ErrAuctionNotFound
	}

	auction, err := s.auctions.FindByID(ctx, oid)
	if err != nil {
		return models.Auction{}, err
	}

	ids := []primitive.ObjectID{auction.Owner}
	for _, b := range auction.Bids {
		ids = append(ids, b.Bidder)
	}
	names := s.resolveUsernames(ctx, ids)

	auction.OwnerName = names[auction.Owner]
	for i := range auction.Bids {
		auction.Bids[i].BidderName = names[auction.Bids[i].Bidder]
	}
	return auction, nil
}

// PlaceBid runs the bid transition. Checks run in a fixed order because the
// error a caller observes depends on it: not-found, ended, self-bid, too low.
// The write itself is a conditional append keyed on the current_bid value
// read above; on a concurrent miss we re-read and retry exactly once.
func (s *AuctionService) PlaceBid(ctx context.Context, auctionID, callerID string, amount float64) (models.Auction, error) {
	oid, err := primitive.ObjectIDFromHex(auctionID)
	if err != nil {
		return models.Auction{}, apperrors.ErrAuctionNotFound
	}
	bidder, err := primitive.ObjectIDFromHex(callerID)
	if err != nil {
		return models.Auction{}, fmt.Errorf("place bid: bad caller id: %w", err)
	}

	auction, err := s.auctions.FindByID(ctx, oid)
	if err != nil {
		return models.Auction{}, err
	}

	for attempt := 0; ; attempt++ {
		if auction.IsEnded || s.now().After(auction.EndsAt) {
			// Lazy end-detection: the flag flips here, not in a background job.
			if err := s.auctions.MarkEnded(ctx, oid); err != nil && !errors.Is(err, apperrors.ErrAuctionNotFound) {
				return models.Auction{}, fmt.Errorf("place bid: %w", err)
			}
			return models.Auction{}, apperrors.ErrAuctionEnded
		}
		if auction.Owner == bidder {
			return models.Auction{}, apperrors.ErrSelfBid
		}
		if amount <= auction.CurrentBid {
			return models.Auction{}, apperrors.ErrBidTooLow
		}

		bid := models.Bid{
			ID:     uuid.NewString(),
			Bidder: bidder,
			Amount: amount,
			BidAt:  s.now(),
		}

		updated, err := s.auctions.AppendBid(ctx, oid, auction.CurrentBid, bid)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, apperrors.ErrStaleBid) {
			return models.Auction{}, fmt.Errorf("place bid: %w", err)
		}
		if attempt > 0 {
			// Lost twice in a row; surface the winner's state.
			return models.Auction{}, apperrors.ErrBidTooLow
		}

		utils.Warn("concurrent bid detected, re-reading auction", map[string]any{
			"auction_id": auctionID,
			"amount":     amount,
		})
		auction, err = s.auctions.FindByID(ctx, oid)
		if err != nil {
			return models.Auction{}, err
		}
	}
}

// Update applies owner edits. Ended auctions stay editable; only ownership
// gates this operation.
func (s *AuctionService) Update(ctx context.Context, auctionID, callerID string, in UpdateAuctionInput) (models.Auction, error) {
	oid, err := primitive.ObjectIDFromHex(auctionID)
	if err != nil {
		return models.Auction{}, apperrors.ErrAuctionNotFound
	}

	auction, err := s.auctions.FindByID(ctx, oid)
	if err != nil {
		return models.Auction{}, err
	}
	if auction.Owner.Hex() != callerID {
		return models.Auction{}, apperrors.ErrNotOwner
	}

	if in.Title != "" {
		auction.Title = in.Title
	}
	if in.Description != "" {
		auction.Description = in.Description
	}
	if !in.EndsAt.IsZero() {
		auction.EndsAt = in.EndsAt
	}
	auction.UpdatedAt = s.now()

	updated, err := s.auctions.Replace(ctx, auction)
	if err != nil {
		return models.Auction{}, fmt.Errorf("update auction: %w", err)
	}
	return updated, nil
}

// Delete removes an auction and its embedded bids permanently.
func (s *AuctionService) Delete(ctx context.Context, auctionID, callerID string) error {
	oid, err := primitive.ObjectIDFromHex(auctionID)
	if err != nil {
		return apperrors.ErrAuctionNotFound
	}

	auction, err := s.auctions.FindByID(ctx, oid)
	if err != nil {
		return err
	}
	if auction.Owner.Hex() != callerID {
		return apperrors.ErrNotOwner
	}

	return s.auctions.Delete(ctx, oid)
}

// resolveUsernames fetches display names for a set of user IDs in parallel.
// Unknown users are simply absent from the result map.
func (s *AuctionService) resolveUsernames(ctx context.Context, ids []primitive.ObjectID) map[primitive.ObjectID]string {
	unique := make([]primitive.ObjectID, 0, len(ids))
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	tasks := make([]utils.ParallelTask, len(unique))
	for i, id := range unique {
		id := id
		tasks[i] = func() (interface{}, error) {
			return s.users.FindByID(ctx, id)
		}
	}
	results, errs := utils.RunParallelTasks(tasks)

	names := make(map[primitive.ObjectID]string, len(unique))
	for i, res := range results {
		if errs[i] != nil {
			continue
		}
		if user, ok := res.(models.User); ok {
			names[unique[i]] = user.Username
		}
	}
	return names
}
