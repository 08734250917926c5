package interfaces

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"dicehouse/domain/events"
)

// ChainSource provides the engine's single time base: the current chain
// height and historical block hashes within the lookback horizon.
type ChainSource interface {
	// CurrentHeight returns the latest mined block height.
	CurrentHeight(ctx context.Context) (uint64, error)

	// BlockHash returns the hash of the block at the given height, or the
	// zero hash when the height is unmined or beyond the lookback horizon.
	BlockHash(ctx context.Context, height uint64) (common.Hash, error)
}

// Vault is the bankroll custodian: pooled funds that back payouts and absorb
// losing stakes. The lifecycle controller is the only caller of the two
// mutating entry points.
type Vault interface {
	// TotalAssets returns the funds currently available for payouts.
	TotalAssets(ctx context.Context) (*uint256.Int, error)

	// WithdrawForPayout moves amount out to the controller. Fails if the
	// vault holds less than amount.
	WithdrawForPayout(ctx context.Context, amount *uint256.Int) error

	// Deposit receives a forfeited stake.
	Deposit(ctx context.Context, amount *uint256.Int) error
}

// Custody moves stake funds between players and the controller. Debit fails
// on insufficient balance or allowance.
type Custody interface {
	Debit(ctx context.Context, player common.Address, amount *uint256.Int) error
	Credit(ctx context.Context, player common.Address, amount *uint256.Int) error
	Balance(ctx context.Context, player common.Address) (*uint256.Int, error)
}

// EventPublisher delivers protocol events to observers. Implementations must
// tolerate being called once per state transition, after the transition has
// committed.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}
