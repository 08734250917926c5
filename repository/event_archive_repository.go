package repository

import (
	"context"
	"fmt"

	"dicehouse/database"
	"dicehouse/domain/interfaces"
)

type eventArchiveRepository struct {
	q Queryable
}

// NewEventArchiveRepository creates a new event archive over the pool.
func NewEventArchiveRepository(db *database.DB) interfaces.EventArchive {
	return &eventArchiveRepository{q: db.Pool}
}

func (r *eventArchiveRepository) Record(ctx context.Context, record *interfaces.EventRecord) error {
	query := `
		INSERT INTO bet_events (event_id, event_type, bet_id, payload)
		VALUES ($1, $2, $3, $4)`

	var betID any
	if record.BetID != 0 {
		betID = int64(record.BetID)
	}

	_, err := r.q.Exec(ctx, query, record.EventID, record.EventType, betID, record.Payload)
	if err != nil {
		return fmt.Errorf("failed to archive event: %w", err)
	}
	return nil
}

func (r *eventArchiveRepository) GetByBet(ctx context.Context, betID uint64) ([]*interfaces.EventRecord, error) {
	query := `
		SELECT event_id, event_type, bet_id, payload
		FROM bet_events
		WHERE bet_id = $1
		ORDER BY created_at ASC`

	rows, err := r.q.Query(ctx, query, int64(betID))
	if err != nil {
		return nil, fmt.Errorf("failed to query archived events: %w", err)
	}
	defer rows.Close()

	var records []*interfaces.EventRecord
	for rows.Next() {
		var rec interfaces.EventRecord
		var id *int64
		if err := rows.Scan(&rec.EventID, &rec.EventType, &id, &rec.Payload); err != nil {
			return nil, fmt.Errorf("failed to scan archived event: %w", err)
		}
		if id != nil {
			rec.BetID = uint64(*id)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
