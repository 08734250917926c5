package interfaces

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"dicehouse/domain/entities"
)

// BetArchive is the append-mostly persistence surface for bets. The in-memory
// ledger is the source of truth; the archive exists for auditability and
// off-chain indexer reads and must never influence protocol state.
type BetArchive interface {
	// Create persists a newly placed bet.
	Create(ctx context.Context, bet *entities.Bet) error

	// UpdateStatus records a bet's terminal transition.
	UpdateStatus(ctx context.Context, id uint64, status entities.BetStatus) error

	// GetByID retrieves an archived bet, or nil if absent.
	GetByID(ctx context.Context, id uint64) (*entities.Bet, error)

	// GetByPlayer returns the most recent archived bets for a player.
	GetByPlayer(ctx context.Context, player common.Address, limit int) ([]*entities.Bet, error)

	// CountByStatus returns the number of archived bets per status.
	CountByStatus(ctx context.Context) (map[entities.BetStatus]int64, error)
}

// EventArchive persists protocol events for off-chain consumers.
type EventArchive interface {
	// Record appends one event row.
	Record(ctx context.Context, record *EventRecord) error

	// GetByBet returns all archived events referencing a bet, oldest first.
	GetByBet(ctx context.Context, betID uint64) ([]*EventRecord, error)
}

// EventRecord is an archived protocol event. BetID is zero for events that
// do not reference a bet.
type EventRecord struct {
	EventID   string
	EventType string
	BetID     uint64
	Payload   []byte
}
