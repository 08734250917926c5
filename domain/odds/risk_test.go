package odds

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func TestMaxBet(t *testing.T) {
	bankroll := uint256.NewInt(10e18) // 10 tokens
	edge := wad(1)

	// Even odds, 1% edge: the house loses amount * 1 on a win, so the bound
	// is bankroll * 0.01 / 1 = 0.1 tokens.
	got := MaxBet(bankroll, wad(50), edge)
	assert.Equal(t, "100000000000000000", got.Dec())

	// Longer odds shrink the bound: at 10% the multiplier is 10x, so the
	// house risks 9x the stake and the bound drops to bankroll * 0.01 / 9.
	got = MaxBet(bankroll, wad(10), edge)
	assert.Equal(t, "11111111111111111", got.Dec())

	// Short odds widen it: at 99% the house risks only ~0.0101x the stake.
	atMax := MaxBet(bankroll, wad(99), edge)
	assert.True(t, atMax.Gt(got))
}

func TestMaxBet_ZeroBankroll(t *testing.T) {
	assert.True(t, MaxBet(uint256.NewInt(0), wad(50), wad(1)).IsZero())
	assert.True(t, MaxBet(nil, wad(50), wad(1)).IsZero())
}

func TestMaxBet_DegenerateOdds(t *testing.T) {
	// Odds at or above 100% would make the multiplier denominator zero or
	// negative; the bound collapses to zero instead of dividing by zero.
	bankroll := uint256.NewInt(10e18)
	assert.True(t, MaxBet(bankroll, wad(100), wad(1)).IsZero())
	assert.True(t, MaxBet(bankroll, wad(200), wad(1)).IsZero())
}

func TestMaxBet_ScalesWithBankrollAndEdge(t *testing.T) {
	targetOdds := wad(50)
	edge := wad(1)

	tenfold := new(uint256.Int).Mul(uint256.NewInt(10), uint256.NewInt(10e18))
	small := MaxBet(uint256.NewInt(10e18), targetOdds, edge)
	large := MaxBet(tenfold, targetOdds, edge)
	assert.Equal(t, "1000000000000000000", large.Dec())
	assert.True(t, large.Gt(small))

	wider := MaxBet(uint256.NewInt(10e18), targetOdds, wad(2))
	assert.Equal(t, "200000000000000000", wider.Dec())
}

func TestFractionalMaxBet(t *testing.T) {
	bankroll := uint256.NewInt(10e18)
	targetOdds := wad(50)
	edge := wad(1)

	full := FractionalMaxBet(bankroll, targetOdds, edge, WAD)
	assert.Equal(t, MaxBet(bankroll, targetOdds, edge).Dec(), full.Dec())

	half := FractionalMaxBet(bankroll, targetOdds, edge, wad(50))
	assert.Equal(t, "50000000000000000", half.Dec())
}

func TestIsBetSafe(t *testing.T) {
	bankroll := uint256.NewInt(10e18)
	targetOdds := wad(50)
	edge := wad(1)
	max := MaxBet(bankroll, targetOdds, edge)

	assert.True(t, IsBetSafe(max, bankroll, targetOdds, edge))
	assert.True(t, IsBetSafe(uint256.NewInt(1), bankroll, targetOdds, edge))

	over := new(uint256.Int).AddUint64(max, 1)
	assert.False(t, IsBetSafe(over, bankroll, targetOdds, edge))
}
