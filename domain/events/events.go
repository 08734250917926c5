package events

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// EventType represents different types of protocol events
type EventType string

const (
	EventTypeBetPlaced         EventType = "bet_placed"
	EventTypeBetResolved       EventType = "bet_resolved"
	EventTypeBetClaimed        EventType = "bet_claimed"
	EventTypeBetExpired        EventType = "bet_expired"
	EventTypeHouseEdgeChanged  EventType = "house_edge_changed"
	EventTypeSessionRegistered EventType = "session_registered"
	EventTypeSessionRevoked    EventType = "session_revoked"
)

// AllTypes lists every event type, for subscribers that fan out everything.
var AllTypes = []EventType{
	EventTypeBetPlaced,
	EventTypeBetResolved,
	EventTypeBetClaimed,
	EventTypeBetExpired,
	EventTypeHouseEdgeChanged,
	EventTypeSessionRegistered,
	EventTypeSessionRevoked,
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BetPlacedEvent is emitted once per successful placement.
type BetPlacedEvent struct {
	BetID           uint64         `json:"bet_id"`
	Player          common.Address `json:"player"`
	Amount          *uint256.Int   `json:"amount"`
	TargetOdds      *uint256.Int   `json:"target_odds"`
	PlacementHeight uint64         `json:"placement_height"`
}

func (e BetPlacedEvent) Type() EventType { return EventTypeBetPlaced }

// BetResolvedEvent is emitted once when a pending bet reaches a win or loss
// verdict. Payout is zero on a loss.
type BetResolvedEvent struct {
	BetID  uint64         `json:"bet_id"`
	Player common.Address `json:"player"`
	Won    bool           `json:"won"`
	Payout *uint256.Int   `json:"payout"`
}

func (e BetResolvedEvent) Type() EventType { return EventTypeBetResolved }

// BetClaimedEvent is emitted when a winning bet's payout is transferred.
type BetClaimedEvent struct {
	BetID  uint64         `json:"bet_id"`
	Player common.Address `json:"player"`
	Payout *uint256.Int   `json:"payout"`
}

func (e BetClaimedEvent) Type() EventType { return EventTypeBetClaimed }

// BetExpiredEvent is emitted when a sweep forfeits an unclaimed bet.
type BetExpiredEvent struct {
	BetID   uint64         `json:"bet_id"`
	Player  common.Address `json:"player"`
	Amount  *uint256.Int   `json:"amount"`
	SweptAt uint64         `json:"swept_at_height"`
}

func (e BetExpiredEvent) Type() EventType { return EventTypeBetExpired }

// HouseEdgeChangedEvent records an administrative parameter change.
type HouseEdgeChangedEvent struct {
	OldEdge *uint256.Int `json:"old_edge"`
	NewEdge *uint256.Int `json:"new_edge"`
}

func (e HouseEdgeChangedEvent) Type() EventType { return EventTypeHouseEdgeChanged }

// SessionRegisteredEvent records a delegated betting authorization.
type SessionRegisteredEvent struct {
	Player       common.Address `json:"player"`
	SessionKey   common.Address `json:"session_key"`
	ExpiryHeight uint64         `json:"expiry_height"`
}

func (e SessionRegisteredEvent) Type() EventType { return EventTypeSessionRegistered }

// SessionRevokedEvent records the revocation of an active session.
type SessionRevokedEvent struct {
	Player common.Address `json:"player"`
}

func (e SessionRevokedEvent) Type() EventType { return EventTypeSessionRevoked }
