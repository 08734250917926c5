// Package odds holds the pure, stateless math of the dice protocol: payout
// conversion, commit-reveal randomness derivation, and the win/lose verdict.
// All values are WAD fixed point (18 decimals) with floor division.
package odds

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"dicehouse/domain/entities"
)

// WAD is the common fixed-point scale: 1.0 == 10^18.
var WAD = uint256.NewInt(1e18)

// Odds bounds, inclusive: a player may request a win probability between
// 1% and 99%.
var (
	MinOdds = uint256.NewInt(1e16)
	MaxOdds = uint256.NewInt(99e16)
)

// MaxAmountBits bounds wager magnitudes to the 128-bit range.
const MaxAmountBits = 128

// domainToWadRatio maps the full 256-bit randomness domain down to the WAD
// scale: floor(MaxUint256 / WAD). Dividing the random value by this ratio
// (rather than multiplying odds up) avoids overflow while staying uniform
// within fixed-point rounding. The floor makes the scaled value able to
// marginally exceed WAD near the domain maximum; this exact rule is kept for
// parity with the on-chain mapping.
var domainToWadRatio = func() *uint256.Int {
	max := new(uint256.Int).SetAllOne()
	return max.Div(max, WAD)
}()

// ValidateOdds checks the requested win probability against the allowed range.
func ValidateOdds(targetOdds *uint256.Int) error {
	if targetOdds == nil || targetOdds.Lt(MinOdds) || targetOdds.Gt(MaxOdds) {
		return entities.ErrOddsOutOfRange
	}
	return nil
}

// ValidateAmount checks a wager magnitude: positive and within 128 bits.
func ValidateAmount(amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return entities.ErrZeroAmount
	}
	if amount.BitLen() > MaxAmountBits {
		return entities.ErrAmountTooLarge
	}
	return nil
}

// Payout converts a wager into its full payout: amount / targetOdds, floored.
// For any valid odds the payout is at least the amount.
func Payout(amount, targetOdds *uint256.Int) *uint256.Int {
	scaled := new(uint256.Int).Mul(amount, WAD)
	return scaled.Div(scaled, targetOdds)
}

// HouseLossOnWin returns payout minus amount: what the bankroll funds when
// the player wins.
func HouseLossOnWin(amount, targetOdds *uint256.Int) *uint256.Int {
	p := Payout(amount, targetOdds)
	return p.Sub(p, amount)
}

// HouseProfitOnLoss returns what the bankroll gains when the player loses.
func HouseProfitOnLoss(amount *uint256.Int) *uint256.Int {
	return amount.Clone()
}

// RandomnessSeed mixes the bet id with the resolving block hash:
// keccak256(uint256(betID) ‖ blockHash). The id acts as a nonce so two bets
// resolving against the same block hash get independent verdicts.
func RandomnessSeed(betID uint64, blockHash common.Hash) common.Hash {
	id := uint256.NewInt(betID).Bytes32()
	return crypto.Keccak256Hash(id[:], blockHash.Bytes())
}

// AdjustedOdds applies the house edge multiplicatively:
// targetOdds * (1 - houseEdge).
func AdjustedOdds(targetOdds, houseEdge *uint256.Int) *uint256.Int {
	keep := new(uint256.Int).Sub(WAD, houseEdge)
	keep.Mul(keep, targetOdds)
	return keep.Div(keep, WAD)
}

// IsWinner maps the seed uniformly onto the WAD scale and compares it with
// the edge-adjusted odds. The domain minimum always wins (scales to zero);
// the domain maximum never wins for any odds below 100%.
func IsWinner(seed common.Hash, targetOdds, houseEdge *uint256.Int) bool {
	rand := new(uint256.Int).SetBytes(seed.Bytes())
	scaled := rand.Div(rand, domainToWadRatio)
	return scaled.Lt(AdjustedOdds(targetOdds, houseEdge))
}
