package apperrors

import "errors"

// Auth errors
var (
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUserNotFound       = errors.New("user not found")
)

// Auction errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrAuctionEnded    = errors.New("auction has already ended")
	ErrSelfBid         = errors.New("cannot bid on your own auction")
	ErrBidTooLow       = errors.New("bid must be higher than current bid")
	ErrNotOwner        = errors.New("not authorized")
)

// ErrStaleBid is returned by the store when a conditional bid write loses to
// a concurrent update; the service re-reads and retries once before giving up.
var ErrStaleBid = errors.New("auction changed since last read")
