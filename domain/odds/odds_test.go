package odds

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dicehouse/domain/entities"
)

func wad(n uint64) *uint256.Int {
	v := uint256.NewInt(n)
	return v.Mul(v, uint256.NewInt(1e16)) // n percent as WAD
}

func TestValidateOdds(t *testing.T) {
	tests := []struct {
		name    string
		odds    *uint256.Int
		wantErr error
	}{
		{"nil", nil, entities.ErrOddsOutOfRange},
		{"zero", uint256.NewInt(0), entities.ErrOddsOutOfRange},
		{"below minimum", uint256.NewInt(1e16 - 1), entities.ErrOddsOutOfRange},
		{"at minimum", uint256.NewInt(1e16), nil},
		{"even odds", wad(50), nil},
		{"at maximum", wad(99), nil},
		{"above maximum", new(uint256.Int).AddUint64(wad(99), 1), entities.ErrOddsOutOfRange},
		{"one hundred percent", wad(100), entities.ErrOddsOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOdds(tt.odds)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateAmount(t *testing.T) {
	maxAmount := new(uint256.Int).Lsh(uint256.NewInt(1), MaxAmountBits)
	maxAmount.SubUint64(maxAmount, 1) // 2^128 - 1

	assert.ErrorIs(t, ValidateAmount(nil), entities.ErrZeroAmount)
	assert.ErrorIs(t, ValidateAmount(uint256.NewInt(0)), entities.ErrZeroAmount)
	assert.NoError(t, ValidateAmount(uint256.NewInt(1)))
	assert.NoError(t, ValidateAmount(maxAmount))

	tooLarge := new(uint256.Int).AddUint64(maxAmount, 1) // 2^128
	assert.ErrorIs(t, ValidateAmount(tooLarge), entities.ErrAmountTooLarge)
}

func TestPayout(t *testing.T) {
	// Even odds double the stake.
	got := Payout(uint256.NewInt(1e18), wad(50))
	assert.Equal(t, "2000000000000000000", got.Dec())

	// 30% odds: floor(1e36 / 3e17) = 3.333... with the remainder dropped.
	got = Payout(uint256.NewInt(1e18), uint256.NewInt(30e16))
	assert.Equal(t, "3333333333333333333", got.Dec())

	// Even at the most generous odds the payout never drops below the stake.
	got = Payout(uint256.NewInt(1e18), wad(99))
	assert.Equal(t, "1010101010101010101", got.Dec())
	assert.True(t, !got.Lt(uint256.NewInt(1e18)))

	// Payout does not mutate its inputs.
	amount := uint256.NewInt(5e18)
	Payout(amount, wad(50))
	assert.Equal(t, "5000000000000000000", amount.Dec())
}

func TestPayout_RoundTripsWithinRounding(t *testing.T) {
	// payout * odds / WAD recovers the stake up to floor-division loss.
	for _, oddsPct := range []uint64{1, 30, 50, 77, 99} {
		targetOdds := wad(oddsPct)
		amount := uint256.NewInt(1e18)

		payout := Payout(amount, targetOdds)
		back := new(uint256.Int).Mul(payout, targetOdds)
		back.Div(back, WAD)

		assert.True(t, !back.Gt(amount), "odds %d%%", oddsPct)
		diff := new(uint256.Int).Sub(amount, back)
		assert.True(t, diff.LtUint64(3), "odds %d%%: diff %s", oddsPct, diff.Dec())
	}
}

func TestHouseLossAndProfit(t *testing.T) {
	amount := uint256.NewInt(1e18)

	loss := HouseLossOnWin(amount, wad(50))
	assert.Equal(t, "1000000000000000000", loss.Dec()) // payout 2e18 minus the stake

	profit := HouseProfitOnLoss(amount)
	assert.Equal(t, amount.Dec(), profit.Dec())
	assert.NotSame(t, amount, profit)
}

func TestRandomnessSeed(t *testing.T) {
	blockHash := crypto.Keccak256Hash([]byte("block"))

	// Matches the documented preimage: keccak256(uint256(betID) || blockHash).
	id := uint256.NewInt(7).Bytes32()
	want := crypto.Keccak256Hash(id[:], blockHash.Bytes())
	assert.Equal(t, want, RandomnessSeed(7, blockHash))

	// The bet id salts the seed: two bets resolving against the same block
	// get independent randomness.
	assert.NotEqual(t, RandomnessSeed(1, blockHash), RandomnessSeed(2, blockHash))

	// Deterministic for identical inputs.
	assert.Equal(t, RandomnessSeed(1, blockHash), RandomnessSeed(1, blockHash))
}

func TestAdjustedOdds(t *testing.T) {
	// 50% odds with a 1% edge: 0.5 * 0.99 = 0.495.
	got := AdjustedOdds(wad(50), wad(1))
	assert.Equal(t, "495000000000000000", got.Dec())

	// Zero edge leaves the odds untouched.
	got = AdjustedOdds(wad(50), uint256.NewInt(0))
	assert.Equal(t, wad(50).Dec(), got.Dec())
}

func TestIsWinner_DomainExtremes(t *testing.T) {
	edge := wad(1)

	// The domain minimum scales to zero and wins at any valid odds.
	assert.True(t, IsWinner(common.Hash{}, MinOdds, edge))
	assert.True(t, IsWinner(common.Hash{}, MaxOdds, edge))

	// The domain maximum scales to at least WAD and never wins below 100%.
	var top common.Hash
	for i := range top {
		top[i] = 0xff
	}
	assert.False(t, IsWinner(top, MaxOdds, edge))
	assert.False(t, IsWinner(top, MaxOdds, uint256.NewInt(0)))
}

func TestIsWinner_ThresholdBoundary(t *testing.T) {
	edge := wad(1)
	targetOdds := wad(50)
	adjusted := AdjustedOdds(targetOdds, edge)

	// A seed that scales exactly to the adjusted odds loses (strict Lt);
	// one unit of the ratio below it wins.
	ratio := new(uint256.Int).SetAllOne()
	ratio.Div(ratio, WAD)

	atThreshold := new(uint256.Int).Mul(adjusted, ratio)
	assert.False(t, IsWinner(common.Hash(atThreshold.Bytes32()), targetOdds, edge))

	justBelow := new(uint256.Int).Sub(atThreshold, uint256.NewInt(1))
	assert.True(t, IsWinner(common.Hash(justBelow.Bytes32()), targetOdds, edge))
}

func TestIsWinner_EdgeShrinksWinRegion(t *testing.T) {
	targetOdds := wad(50)

	// Pick a seed scaling into [adjusted, target): wins without an edge,
	// loses with one.
	ratio := new(uint256.Int).SetAllOne()
	ratio.Div(ratio, WAD)
	seedValue := new(uint256.Int).Mul(AdjustedOdds(targetOdds, wad(1)), ratio)
	seed := common.Hash(seedValue.Bytes32())

	require.True(t, IsWinner(seed, targetOdds, uint256.NewInt(0)))
	assert.False(t, IsWinner(seed, targetOdds, wad(1)))
}
