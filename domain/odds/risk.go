package odds

import "github.com/holiman/uint256"

// MaxBet computes the largest safe wager for the given bankroll, odds and
// house edge. It is a Kelly-style bound: the house loss on a win,
// amount * (multiplier - 1), may never exceed the bankroll's edge-derived
// risk budget, bankroll * houseEdge. Higher edge or higher odds both widen
// the bound.
func MaxBet(bankroll, targetOdds, houseEdge *uint256.Int) *uint256.Int {
	if bankroll == nil || bankroll.IsZero() {
		return uint256.NewInt(0)
	}

	// multiplier = 1 / targetOdds, WAD-scaled.
	multiplier := new(uint256.Int).Mul(WAD, WAD)
	multiplier.Div(multiplier, targetOdds)

	// Validated odds keep the multiplier above 1; treat anything else as a
	// zero bound rather than dividing by zero below.
	if !multiplier.Gt(WAD) {
		return uint256.NewInt(0)
	}

	bound := new(uint256.Int).Mul(bankroll, houseEdge)
	return bound.Div(bound, multiplier.Sub(multiplier, WAD))
}

// FractionalMaxBet scales the full Kelly bound by an operator-chosen WAD
// fraction for extra conservatism. A fraction of WAD is the full bound.
func FractionalMaxBet(bankroll, targetOdds, houseEdge, fraction *uint256.Int) *uint256.Int {
	bound := MaxBet(bankroll, targetOdds, houseEdge)
	bound.Mul(bound, fraction)
	return bound.Div(bound, WAD)
}

// IsBetSafe reports whether the wager fits under the full Kelly bound.
func IsBetSafe(amount, bankroll, targetOdds, houseEdge *uint256.Int) bool {
	return !amount.Gt(MaxBet(bankroll, targetOdds, houseEdge))
}
