package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dicehouse/domain/interfaces"
	"dicehouse/repository/testutil"
)

func TestEventArchiveRepository_RecordAndGetByBet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	repo := NewEventArchiveRepository(testDB.DB)
	ctx := context.Background()

	placed := &interfaces.EventRecord{
		EventID:   uuid.New().String(),
		EventType: "bet_placed",
		BetID:     1,
		Payload:   []byte(`{"bet_id":1,"amount":"100000000000000000"}`),
	}
	resolved := &interfaces.EventRecord{
		EventID:   uuid.New().String(),
		EventType: "bet_resolved",
		BetID:     1,
		Payload:   []byte(`{"bet_id":1,"won":true}`),
	}
	other := &interfaces.EventRecord{
		EventID:   uuid.New().String(),
		EventType: "bet_placed",
		BetID:     2,
		Payload:   []byte(`{"bet_id":2}`),
	}

	require.NoError(t, repo.Record(ctx, placed))
	require.NoError(t, repo.Record(ctx, resolved))
	require.NoError(t, repo.Record(ctx, other))

	records, err := repo.GetByBet(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 2)

	byID := make(map[string]*interfaces.EventRecord)
	for _, r := range records {
		byID[r.EventID] = r
		assert.Equal(t, uint64(1), r.BetID)
	}
	require.Contains(t, byID, placed.EventID)
	require.Contains(t, byID, resolved.EventID)
	assert.Equal(t, "bet_placed", byID[placed.EventID].EventType)
	assert.JSONEq(t, string(placed.Payload), string(byID[placed.EventID].Payload))
	assert.Equal(t, "bet_resolved", byID[resolved.EventID].EventType)
}

func TestEventArchiveRepository_RecordWithoutBet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	repo := NewEventArchiveRepository(testDB.DB)
	ctx := context.Background()

	// Administrative events carry no bet id; the column stays NULL.
	record := &interfaces.EventRecord{
		EventID:   uuid.New().String(),
		EventType: "house_edge_changed",
		Payload:   []byte(`{"old_edge":"10000000000000000","new_edge":"20000000000000000"}`),
	}
	require.NoError(t, repo.Record(ctx, record))

	records, err := repo.GetByBet(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestEventArchiveRepository_DuplicateEventID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	repo := NewEventArchiveRepository(testDB.DB)
	ctx := context.Background()

	record := &interfaces.EventRecord{
		EventID:   uuid.New().String(),
		EventType: "bet_placed",
		BetID:     1,
		Payload:   []byte(`{"bet_id":1}`),
	}
	require.NoError(t, repo.Record(ctx, record))
	assert.Error(t, repo.Record(ctx, record))
}
