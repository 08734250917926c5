package infrastructure

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"dicehouse/domain/entities"
	"dicehouse/domain/events"
	"dicehouse/domain/interfaces"
)

// Archiver mirrors committed protocol events into the Postgres archive for
// auditability and indexer reads. It is a best-effort observer: archive
// failures are logged, never propagated back into the engine.
type Archiver struct {
	bets   interfaces.BetArchive
	events interfaces.EventArchive
}

// NewArchiver creates an archiver over the two archive repositories.
func NewArchiver(bets interfaces.BetArchive, eventArchive interfaces.EventArchive) *Archiver {
	return &Archiver{bets: bets, events: eventArchive}
}

// Subscribe attaches the archiver to every event type on the bus.
func (a *Archiver) Subscribe(bus *events.Bus) {
	bus.SubscribeAll(a.handle)
}

func (a *Archiver) handle(ctx context.Context, event events.Event) {
	switch e := event.(type) {
	case events.BetPlacedEvent:
		bet := &entities.Bet{
			ID:              e.BetID,
			Player:          e.Player,
			Amount:          e.Amount,
			TargetOdds:      e.TargetOdds,
			PlacementHeight: e.PlacementHeight,
			Status:          entities.BetStatusPending,
			PlacedAt:        time.Now().UTC(),
		}
		if err := a.bets.Create(ctx, bet); err != nil {
			log.WithError(err).WithField("betId", e.BetID).Error("Failed to archive placed bet")
		}
	case events.BetResolvedEvent:
		status := entities.BetStatusLost
		if e.Won {
			status = entities.BetStatusClaimed
		}
		if err := a.bets.UpdateStatus(ctx, e.BetID, status); err != nil {
			log.WithError(err).WithField("betId", e.BetID).Error("Failed to archive bet resolution")
		}
	case events.BetExpiredEvent:
		if err := a.bets.UpdateStatus(ctx, e.BetID, entities.BetStatusExpired); err != nil {
			log.WithError(err).WithField("betId", e.BetID).Error("Failed to archive bet expiry")
		}
	}

	a.recordEvent(ctx, event)
}

func (a *Archiver) recordEvent(ctx context.Context, event events.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to marshal event for archive")
		return
	}

	record := &interfaces.EventRecord{
		EventID:   uuid.New().String(),
		EventType: string(event.Type()),
		BetID:     betIDOf(event),
		Payload:   payload,
	}
	if err := a.events.Record(ctx, record); err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to archive event")
	}
}

func betIDOf(event events.Event) uint64 {
	switch e := event.(type) {
	case events.BetPlacedEvent:
		return e.BetID
	case events.BetResolvedEvent:
		return e.BetID
	case events.BetClaimedEvent:
		return e.BetID
	case events.BetExpiredEvent:
		return e.BetID
	default:
		return 0
	}
}
