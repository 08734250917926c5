package entities

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionDigest_BindsAllTerms(t *testing.T) {
	player := common.HexToAddress("0x01")
	sessionKey := common.HexToAddress("0x02")
	cap := uint256.NewInt(1e18)

	base := SessionDigest(player, sessionKey, 100, cap)

	assert.Equal(t, base, SessionDigest(player, sessionKey, 100, cap))
	assert.NotEqual(t, base, SessionDigest(common.HexToAddress("0x03"), sessionKey, 100, cap))
	assert.NotEqual(t, base, SessionDigest(player, common.HexToAddress("0x03"), 100, cap))
	assert.NotEqual(t, base, SessionDigest(player, sessionKey, 101, cap))
	assert.NotEqual(t, base, SessionDigest(player, sessionKey, 100, uint256.NewInt(2e18)))
}

func TestVerifySessionSignature(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	player := crypto.PubkeyToAddress(key.PublicKey)
	sessionKey := common.HexToAddress("0x02")
	cap := uint256.NewInt(1e18)

	digest := SessionDigest(player, sessionKey, 100, cap)
	sig, err := crypto.Sign(digest.Bytes(), key)
	require.NoError(t, err)

	assert.NoError(t, VerifySessionSignature(player, sessionKey, 100, cap, sig))

	// Both recovery id conventions verify.
	legacy := make([]byte, len(sig))
	copy(legacy, sig)
	legacy[64] += 27
	assert.NoError(t, VerifySessionSignature(player, sessionKey, 100, cap, legacy))

	// A signature does not transfer to altered terms.
	err = VerifySessionSignature(player, sessionKey, 101, cap, sig)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	// Truncated or corrupted signatures are rejected.
	err = VerifySessionSignature(player, sessionKey, 100, cap, sig[:64])
	assert.ErrorIs(t, err, ErrInvalidSignature)

	tampered := make([]byte, len(sig))
	copy(tampered, sig)
	tampered[0] ^= 0xff
	err = VerifySessionSignature(player, sessionKey, 100, cap, tampered)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}
