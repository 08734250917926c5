package repository

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dicehouse/domain/entities"
	"dicehouse/repository/testutil"
)

func newArchivedBet(id uint64, player common.Address) *entities.Bet {
	return &entities.Bet{
		ID:              id,
		Player:          player,
		Amount:          uint256.NewInt(1e17),
		TargetOdds:      uint256.NewInt(5e17),
		PlacementHeight: 100,
		Status:          entities.BetStatusPending,
		PlacedAt:        time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestBetArchiveRepository_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	repo := NewBetArchiveRepository(testDB.DB)
	ctx := context.Background()

	player := common.HexToAddress("0x0000000000000000000000000000000000000001")
	bet := newArchivedBet(1, player)
	require.NoError(t, repo.Create(ctx, bet))

	got, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, bet.ID, got.ID)
	assert.Equal(t, bet.Player, got.Player)
	assert.Equal(t, bet.Amount.Dec(), got.Amount.Dec())
	assert.Equal(t, bet.TargetOdds.Dec(), got.TargetOdds.Dec())
	assert.Equal(t, bet.PlacementHeight, got.PlacementHeight)
	assert.Equal(t, entities.BetStatusPending, got.Status)
	assert.WithinDuration(t, bet.PlacedAt, got.PlacedAt, time.Second)
}

func TestBetArchiveRepository_GetByID_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	repo := NewBetArchiveRepository(testDB.DB)

	got, err := repo.GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBetArchiveRepository_LargeAmounts(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	repo := NewBetArchiveRepository(testDB.DB)
	ctx := context.Background()

	// Amounts can exceed 64 bits; NUMERIC(78,0) must round-trip them intact.
	bet := newArchivedBet(1, common.HexToAddress("0x01"))
	bet.Amount = uint256.MustFromDecimal("340282366920938463463374607431768211455") // 2^128 - 1
	require.NoError(t, repo.Create(ctx, bet))

	got, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "340282366920938463463374607431768211455", got.Amount.Dec())
}

func TestBetArchiveRepository_UpdateStatus(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	repo := NewBetArchiveRepository(testDB.DB)
	ctx := context.Background()

	bet := newArchivedBet(1, common.HexToAddress("0x01"))
	require.NoError(t, repo.Create(ctx, bet))

	require.NoError(t, repo.UpdateStatus(ctx, 1, entities.BetStatusClaimed))

	got, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, entities.BetStatusClaimed, got.Status)

	// Updating a bet that was never archived is an error.
	assert.Error(t, repo.UpdateStatus(ctx, 99, entities.BetStatusLost))
}

func TestBetArchiveRepository_GetByPlayer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	repo := NewBetArchiveRepository(testDB.DB)
	ctx := context.Background()

	alice := common.HexToAddress("0x0000000000000000000000000000000000000001")
	bob := common.HexToAddress("0x0000000000000000000000000000000000000002")

	require.NoError(t, repo.Create(ctx, newArchivedBet(1, alice)))
	require.NoError(t, repo.Create(ctx, newArchivedBet(2, bob)))
	require.NoError(t, repo.Create(ctx, newArchivedBet(3, alice)))

	bets, err := repo.GetByPlayer(ctx, alice, 10)
	require.NoError(t, err)
	require.Len(t, bets, 2)

	// Newest first.
	assert.Equal(t, uint64(3), bets[0].ID)
	assert.Equal(t, uint64(1), bets[1].ID)

	limited, err := repo.GetByPlayer(ctx, alice, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, uint64(3), limited[0].ID)
}

func TestBetArchiveRepository_CountByStatus(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	repo := NewBetArchiveRepository(testDB.DB)
	ctx := context.Background()

	player := common.HexToAddress("0x01")
	for i := uint64(1); i <= 3; i++ {
		require.NoError(t, repo.Create(ctx, newArchivedBet(i, player)))
	}
	require.NoError(t, repo.UpdateStatus(ctx, 1, entities.BetStatusClaimed))
	require.NoError(t, repo.UpdateStatus(ctx, 2, entities.BetStatusLost))

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[entities.BetStatusClaimed])
	assert.Equal(t, int64(1), counts[entities.BetStatusLost])
	assert.Equal(t, int64(1), counts[entities.BetStatusPending])
}
