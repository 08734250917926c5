package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"dicehouse/domain/events"
)

// EventEnvelope wraps a protocol event for cross-service consumers.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// NATSEventPublisher forwards protocol events to NATS subjects of the form
// dice.events.<type>, one message per committed state transition.
type NATSEventPublisher struct {
	conn *nats.Conn
}

// NewNATSEventPublisher connects to the given NATS servers.
func NewNATSEventPublisher(servers string) (*NATSEventPublisher, error) {
	conn, err := nats.Connect(servers,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSEventPublisher{conn: conn}, nil
}

// Publish wraps the event in an envelope and sends it.
func (p *NATSEventPublisher) Publish(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Timestamp:     time.Now().UTC(),
		SourceService: "dicehouse",
		Payload:       payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	subject := "dice.events." + string(event.Type())
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Published event to NATS")
	return nil
}

// Close drains and closes the connection.
func (p *NATSEventPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		log.WithError(err).Warn("Failed to drain NATS connection")
	}
}
