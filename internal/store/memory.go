package store

import (
	"context"
	"sync"
	"time"

	"auctionhub/internal/apperrors"
	"auctionhub/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryUserStore is a concurrency-safe in-memory UserStore used by tests
// and local development without a database.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[primitive.ObjectID]models.User)}
}

func (s *MemoryUserStore) Insert(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	return nil
}

func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, apperrors.ErrUserNotFound
}

func (s *MemoryUserStore) FindByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, apperrors.ErrUserNotFound
	}
	return u, nil
}

// MemoryAuctionStore is a concurrency-safe in-memory AuctionStore. Its
// AppendBid honors the same compare-and-append contract as the Mongo store,
// so concurrent-bid behavior can be exercised without a database.
type MemoryAuctionStore struct {
	mu       sync.RWMutex
	auctions map[primitive.ObjectID]models.Auction
	order    []primitive.ObjectID
}

func NewMemoryAuctionStore() *MemoryAuctionStore {
	return &MemoryAuctionStore{auctions: make(map[primitive.ObjectID]models.Auction)}
}

func (s *MemoryAuctionStore) Insert(_ context.Context, auction models.Auction) (models.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if auction.ID.IsZero() {
		auction.ID = primitive.NewObjectID()
	}
	s.auctions[auction.ID] = auction
	s.order = append(s.order, auction.ID)
	return auction, nil
}

func (s *MemoryAuctionStore) FindAll(_ context.Context) ([]models.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	auctions := make([]models.Auction, 0, len(s.order))
	for _, id := range s.order {
		if a, ok := s.auctions[id]; ok {
			auctions = append(auctions, copyAuction(a))
		}
	}
	return auctions, nil
}

func (s *MemoryAuctionStore) FindByID(_ context.Context, id primitive.ObjectID) (models.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.auctions[id]
	if !ok {
		return models.Auction{}, apperrors.ErrAuctionNotFound
	}
	return copyAuction(a), nil
}

func (s *MemoryAuctionStore) AppendBid(_ context.Context, id primitive.ObjectID, expectedCurrent float64, bid models.Bid) (models.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.auctions[id]
	if !ok || a.IsEnded || a.CurrentBid != expectedCurrent {
		return models.Auction{}, apperrors.ErrStaleBid
	}
	a.Bids = append(a.Bids, bid)
	a.CurrentBid = bid.Amount
	a.UpdatedAt = bid.BidAt
	s.auctions[id] = a
	return copyAuction(a), nil
}

func (s *MemoryAuctionStore) MarkEnded(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.auctions[id]
	if !ok {
		return apperrors.ErrAuctionNotFound
	}
	a.IsEnded = true
	a.UpdatedAt = time.Now()
	s.auctions[id] = a
	return nil
}

func (s *MemoryAuctionStore) Replace(_ context.Context, auction models.Auction) (models.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.auctions[auction.ID]; !ok {
		return models.Auction{}, apperrors.ErrAuctionNotFound
	}
	s.auctions[auction.ID] = auction
	return copyAuction(auction), nil
}

func (s *MemoryAuctionStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.auctions[id]; !ok {
		return apperrors.ErrAuctionNotFound
	}
	delete(s.auctions, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// copyAuction returns a value with its own bids slice so callers cannot
// mutate stored state through a returned auction.
func copyAuction(a models.Auction) models.Auction {
	a.Bids = append([]models.Bid(nil), a.Bids...)
	return a
}
