package entities

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Session is a delegated betting authorization: the player signs a binding of
// a secondary session key to themselves, an expiry height, and a per-bet cap.
// The session key may place bets funded by the player; stakes and payouts
// always route to the player, never to the session key.
type Session struct {
	Player           common.Address
	SessionKey       common.Address
	ExpiryHeight     uint64
	MaxBetPerGame    *uint256.Int
	RegisteredHeight uint64
}

// ExpiredAt reports whether the session is no longer valid at the given height.
func (s *Session) ExpiredAt(height uint64) bool {
	return height > s.ExpiryHeight
}

// Allows reports whether the session permits a bet of the given size.
func (s *Session) Allows(amount *uint256.Int) bool {
	return !amount.Gt(s.MaxBetPerGame)
}

// SessionDigest computes the message the player signs to authorize a session:
// keccak256(player ‖ sessionKey ‖ expiryHeight ‖ maxBetPerGame), with the
// height and cap encoded as 32-byte big-endian words.
func SessionDigest(player, sessionKey common.Address, expiryHeight uint64, maxBetPerGame *uint256.Int) common.Hash {
	expiry := uint256.NewInt(expiryHeight).Bytes32()
	cap := maxBetPerGame.Bytes32()
	return crypto.Keccak256Hash(player.Bytes(), sessionKey.Bytes(), expiry[:], cap[:])
}

// VerifySessionSignature recovers the signer of the session digest and checks
// it is the player. Accepts both 0/1 and 27/28 recovery ids.
func VerifySessionSignature(player, sessionKey common.Address, expiryHeight uint64, maxBetPerGame *uint256.Int, sig []byte) error {
	if len(sig) != 65 {
		return ErrInvalidSignature
	}
	normalized := make([]byte, 65)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}

	digest := SessionDigest(player, sessionKey, expiryHeight, maxBetPerGame)
	pub, err := crypto.SigToPub(digest.Bytes(), normalized)
	if err != nil {
		return ErrInvalidSignature
	}
	if crypto.PubkeyToAddress(*pub) != player {
		return ErrInvalidSignature
	}
	return nil
}
