package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"auctionhub/internal/apperrors"
	"auctionhub/internal/models"
	"auctionhub/internal/store"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type auctionFixture struct {
	svc      *AuctionService
	auctions *store.MemoryAuctionStore
	users    *store.MemoryUserStore
	clock    *time.Time
	owner    models.User
	bidderA  models.User
	bidderB  models.User
}

func newAuctionFixture(t *testing.T) *auctionFixture {
	t.Helper()

	auctions := store.NewMemoryAuctionStore()
	users := store.NewMemoryUserStore()
	svc := NewAuctionService(auctions, users)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	f := &auctionFixture{
		svc:      svc,
		auctions: auctions,
		users:    users,
		clock:    &now,
		owner:    models.User{ID: primitive.NewObjectID(), Username: "owner", Email: "owner@example.com"},
		bidderA:  models.User{ID: primitive.NewObjectID(), Username: "bidder-a", Email: "a@example.com"},
		bidderB:  models.User{ID: primitive.NewObjectID(), Username: "bidder-b", Email: "b@example.com"},
	}
	ctx := context.Background()
	for _, u := range []models.User{f.owner, f.bidderA, f.bidderB} {
		require.NoError(t, users.Insert(ctx, u))
	}
	return f
}

func (f *auctionFixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func (f *auctionFixture) createAuction(t *testing.T, startingBid float64, endsIn time.Duration) models.Auction {
	t.Helper()
	auction, err := f.svc.Create(context.Background(), CreateAuctionInput{
		Title:       "antique clock",
		Description: "ticks loudly",
		StartingBid: startingBid,
		EndsAt:      f.clock.Add(endsIn),
	}, f.owner.ID.Hex())
	require.NoError(t, err)
	return auction
}

func TestAuctionService_Create(t *testing.T) {
	f := newAuctionFixture(t)

	auction := f.createAuction(t, 100, time.Hour)
	require.Equal(t, 100.0, auction.StartingBid)
	require.Equal(t, 100.0, auction.CurrentBid, "currentBid starts at startingBid")
	require.False(t, auction.IsEnded)
	require.Empty(t, auction.Bids)
	require.Equal(t, f.owner.ID, auction.Owner)
}

func TestAuctionService_CreateAlreadyExpired(t *testing.T) {
	f := newAuctionFixture(t)

	// endsAt in the past is accepted; the auction just rejects every bid
	auction := f.createAuction(t, 100, -time.Hour)
	require.False(t, auction.IsEnded)

	_, err := f.svc.PlaceBid(context.Background(), auction.ID.Hex(), f.bidderA.ID.Hex(), 500)
	require.ErrorIs(t, err, apperrors.ErrAuctionEnded)
}

func TestAuctionService_PlaceBid(t *testing.T) {
	tests := []struct {
		name    string
		caller  func(f *auctionFixture) string
		amount  float64
		wantErr error
	}{
		{
			name:   "higher bid accepted",
			caller: func(f *auctionFixture) string { return f.bidderA.ID.Hex() },
			amount: 150,
		},
		{
			name:    "tie rejected",
			caller:  func(f *auctionFixture) string { return f.bidderA.ID.Hex() },
			amount:  100,
			wantErr: apperrors.ErrBidTooLow,
		},
		{
			name:    "lower bid rejected",
			caller:  func(f *auctionFixture) string { return f.bidderA.ID.Hex() },
			amount:  50,
			wantErr: apperrors.ErrBidTooLow,
		},
		{
			name:    "owner cannot bid regardless of amount",
			caller:  func(f *auctionFixture) string { return f.owner.ID.Hex() },
			amount:  1000,
			wantErr: apperrors.ErrSelfBid,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newAuctionFixture(t)
			auction := f.createAuction(t, 100, time.Hour)

			updated, err := f.svc.PlaceBid(context.Background(), auction.ID.Hex(), tc.caller(f), tc.amount)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)

				// Failed bids must leave the document unchanged
				stored, serr := f.auctions.FindByID(context.Background(), auction.ID)
				require.NoError(t, serr)
				require.Equal(t, 100.0, stored.CurrentBid)
				require.Empty(t, stored.Bids)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.amount, updated.CurrentBid)
			require.Len(t, updated.Bids, 1)
		})
	}
}

func TestAuctionService_PlaceBid_UnknownAuction(t *testing.T) {
	f := newAuctionFixture(t)

	_, err := f.svc.PlaceBid(context.Background(), primitive.NewObjectID().Hex(), f.bidderA.ID.Hex(), 100)
	require.ErrorIs(t, err, apperrors.ErrAuctionNotFound)

	_, err = f.svc.PlaceBid(context.Background(), "bogus-id", f.bidderA.ID.Hex(), 100)
	require.ErrorIs(t, err, apperrors.ErrAuctionNotFound)
}

// TestAuctionService_BidScenario walks the canonical sequence: starting bid
// 100, A bids 150, A retries lower, owner tries to snipe, B ties, B wins.
func TestAuctionService_BidScenario(t *testing.T) {
	f := newAuctionFixture(t)
	ctx := context.Background()
	auction := f.createAuction(t, 100, time.Hour)
	id := auction.ID.Hex()

	updated, err := f.svc.PlaceBid(ctx, id, f.bidderA.ID.Hex(), 150)
	require.NoError(t, err)
	require.Equal(t, 150.0, updated.CurrentBid)

	_, err = f.svc.PlaceBid(ctx, id, f.bidderA.ID.Hex(), 140)
	require.ErrorIs(t, err, apperrors.ErrBidTooLow)

	_, err = f.svc.PlaceBid(ctx, id, f.owner.ID.Hex(), 200)
	require.ErrorIs(t, err, apperrors.ErrSelfBid)

	_, err = f.svc.PlaceBid(ctx, id, f.bidderB.ID.Hex(), 150)
	require.ErrorIs(t, err, apperrors.ErrBidTooLow)

	updated, err = f.svc.PlaceBid(ctx, id, f.bidderB.ID.Hex(), 151)
	require.NoError(t, err)
	require.Equal(t, 151.0, updated.CurrentBid)

	require.Len(t, updated.Bids, 2)
	require.Equal(t, 150.0, updated.Bids[0].Amount)
	require.Equal(t, 151.0, updated.Bids[1].Amount)

	// currentBid always equals the latest bid and amounts are strictly increasing
	for i := 1; i < len(updated.Bids); i++ {
		require.Greater(t, updated.Bids[i].Amount, updated.Bids[i-1].Amount)
	}
	require.Equal(t, updated.Bids[len(updated.Bids)-1].Amount, updated.CurrentBid)
}

func TestAuctionService_LazyEndDetection(t *testing.T) {
	f := newAuctionFixture(t)
	ctx := context.Background()
	auction := f.createAuction(t, 100, time.Hour)
	id := auction.ID.Hex()

	// Reads never auto-close an auction
	f.advance(2 * time.Hour)
	got, err := f.svc.GetByID(ctx, id)
	require.NoError(t, err)
	require.False(t, got.IsEnded)

	// The first bid attempt after expiry flips the flag and fails
	_, err = f.svc.PlaceBid(ctx, id, f.bidderA.ID.Hex(), 500)
	require.ErrorIs(t, err, apperrors.ErrAuctionEnded)

	got, err = f.svc.GetByID(ctx, id)
	require.NoError(t, err)
	require.True(t, got.IsEnded)

	// Once ended, always ended: even if the clock ran backwards the flag wins
	f.advance(-90 * time.Minute)
	_, err = f.svc.PlaceBid(ctx, id, f.bidderA.ID.Hex(), 500)
	require.ErrorIs(t, err, apperrors.ErrAuctionEnded)
}

func TestAuctionService_UpdateAndDelete(t *testing.T) {
	f := newAuctionFixture(t)
	ctx := context.Background()
	auction := f.createAuction(t, 100, time.Hour)
	id := auction.ID.Hex()

	// Non-owner cannot update or delete; document stays unchanged
	_, err := f.svc.Update(ctx, id, f.bidderA.ID.Hex(), UpdateAuctionInput{Title: "stolen"})
	require.ErrorIs(t, err, apperrors.ErrNotOwner)
	err = f.svc.Delete(ctx, id, f.bidderA.ID.Hex())
	require.ErrorIs(t, err, apperrors.ErrNotOwner)

	stored, err := f.auctions.FindByID(ctx, auction.ID)
	require.NoError(t, err)
	require.Equal(t, "antique clock", stored.Title)

	// Owner edits: empty fields are left alone
	newEnd := f.clock.Add(2 * time.Hour)
	updated, err := f.svc.Update(ctx, id, f.owner.ID.Hex(), UpdateAuctionInput{
		Title:  "grandfather clock",
		EndsAt: newEnd,
	})
	require.NoError(t, err)
	require.Equal(t, "grandfather clock", updated.Title)
	require.Equal(t, "ticks loudly", updated.Description)
	require.True(t, newEnd.Equal(updated.EndsAt))

	// Owner edits remain allowed after the auction has ended
	f.advance(3 * time.Hour)
	_, err = f.svc.PlaceBid(ctx, id, f.bidderA.ID.Hex(), 500)
	require.ErrorIs(t, err, apperrors.ErrAuctionEnded)
	_, err = f.svc.Update(ctx, id, f.owner.ID.Hex(), UpdateAuctionInput{Description: "sold as-is"})
	require.NoError(t, err)

	// Owner delete removes the document and its bids
	require.NoError(t, f.svc.Delete(ctx, id, f.owner.ID.Hex()))
	_, err = f.svc.GetByID(ctx, id)
	require.ErrorIs(t, err, apperrors.ErrAuctionNotFound)
}

func TestAuctionService_ResolvesDisplayNames(t *testing.T) {
	f := newAuctionFixture(t)
	ctx := context.Background()
	auction := f.createAuction(t, 100, time.Hour)

	_, err := f.svc.PlaceBid(ctx, auction.ID.Hex(), f.bidderA.ID.Hex(), 150)
	require.NoError(t, err)

	got, err := f.svc.GetByID(ctx, auction.ID.Hex())
	require.NoError(t, err)
	require.Equal(t, "owner", got.OwnerName)
	require.Len(t, got.Bids, 1)
	require.Equal(t, "bidder-a", got.Bids[0].BidderName)

	list, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "owner", list[0].OwnerName)
}

// TestAuctionService_ConcurrentEqualBids pits two bidders submitting the same
// amount against one snapshot of the auction. Exactly one append must win;
// the loser has to observe the winner's state and fail with a too-low error.
func TestAuctionService_ConcurrentEqualBids(t *testing.T) {
	f := newAuctionFixture(t)
	ctx := context.Background()
	auction := f.createAuction(t, 100, time.Hour)
	id := auction.ID.Hex()

	callers := []string{f.bidderA.ID.Hex(), f.bidderB.ID.Hex()}
	errs := make([]error, len(callers))

	var wg sync.WaitGroup
	wg.Add(len(callers))
	for i, caller := range callers {
		go func(i int, caller string) {
			defer wg.Done()
			_, errs[i] = f.svc.PlaceBid(ctx, id, caller, 150)
		}(i, caller)
	}
	wg.Wait()

	var accepted, rejected int
	for _, err := range errs {
		if err == nil {
			accepted++
		} else {
			require.ErrorIs(t, err, apperrors.ErrBidTooLow)
			rejected++
		}
	}
	require.Equal(t, 1, accepted, "exactly one of two equal concurrent bids may win")
	require.Equal(t, 1, rejected)

	stored, err := f.auctions.FindByID(ctx, auction.ID)
	require.NoError(t, err)
	require.Len(t, stored.Bids, 1, "bid history must not be corrupted")
	require.Equal(t, 150.0, stored.CurrentBid)
}

// TestAuctionService_ConcurrentIncreasingBids floods one auction and checks
// the stored sequence is still strictly increasing afterwards.
func TestAuctionService_ConcurrentIncreasingBids(t *testing.T) {
	f := newAuctionFixture(t)
	ctx := context.Background()
	auction := f.createAuction(t, 100, time.Hour)
	id := auction.ID.Hex()

	amounts := []float64{110, 120, 130, 140, 150, 160, 170, 180}
	var wg sync.WaitGroup
	wg.Add(len(amounts))
	for i, amount := range amounts {
		caller := f.bidderA.ID.Hex()
		if i%2 == 1 {
			caller = f.bidderB.ID.Hex()
		}
		go func(amount float64, caller string) {
			defer wg.Done()
			// Losing a race or arriving late are both legitimate outcomes here
			_, _ = f.svc.PlaceBid(ctx, id, caller, amount)
		}(amount, caller)
	}
	wg.Wait()

	stored, err := f.auctions.FindByID(ctx, auction.ID)
	require.NoError(t, err)
	require.NotEmpty(t, stored.Bids)
	last := stored.StartingBid
	for _, b := range stored.Bids {
		require.Greater(t, b.Amount, last)
		last = b.Amount
	}
	require.Equal(t, last, stored.CurrentBid)
}
