package entities

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// BetStatus tracks a bet through its lifecycle. Pending is the only
// non-terminal status; transitions are monotonic and happen exactly once.
type BetStatus string

const (
	BetStatusPending BetStatus = "pending"
	BetStatusClaimed BetStatus = "claimed"
	BetStatusLost    BetStatus = "lost"
	BetStatusExpired BetStatus = "expired"
)

// Bet is a single wager resolved against the hash of the block mined
// immediately after placement. Amount and TargetOdds are WAD-scaled
// (18 decimals); Amount is bounded to the 128-bit range.
type Bet struct {
	ID              uint64
	Player          common.Address
	Amount          *uint256.Int
	TargetOdds      *uint256.Int
	PlacementHeight uint64
	Status          BetStatus
	PlacedAt        time.Time
}

// BetResult is the outcome of resolving a bet, returned to the caller.
// Payout is the full amount transferred to the player (zero on a loss).
type BetResult struct {
	BetID  uint64
	Player common.Address
	Won    bool
	Payout *uint256.Int
}

// ResolutionHeight returns the height whose block hash decides this bet.
// The block after placement is used so the hash is unknowable at bet time.
func (b *Bet) ResolutionHeight() uint64 {
	return b.PlacementHeight + 1
}

// IsPending reports whether the bet still awaits resolution or expiry.
func (b *Bet) IsPending() bool {
	return b.Status == BetStatusPending
}

// IsTerminal reports whether the bet has reached a final status.
func (b *Bet) IsTerminal() bool {
	return b.Status == BetStatusClaimed || b.Status == BetStatusLost || b.Status == BetStatusExpired
}

// ExpiredAt reports whether the bet's claim window has lapsed at the given
// height. A bet expires once the current height moves strictly past
// placement height plus the expiry window.
func (b *Bet) ExpiredAt(height, expiryWindow uint64) bool {
	return height > b.PlacementHeight+expiryWindow
}
