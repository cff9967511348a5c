package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dukaan-labs/backend-dukaan/internal/events"
)

// EventsRepo appends and reads the domain event log. It implements
// events.EventStore.
type EventsRepo struct {
	DB DB
}

// AppendEvent stores one event. Payload must be valid JSON.
func (r EventsRepo) AppendEvent(ctx context.Context, topic, aggregateID string, payload []byte) (events.Event, error) {
	aid, err := uuidValue(aggregateID)
	if err != nil {
		return events.Event{}, err
	}
	ev := events.Event{Topic: topic, AggregateID: aggregateID, Payload: payload}
	err = r.DB.QueryRow(ctx,
		`INSERT INTO domain_events (topic, aggregate_id, payload) VALUES ($1, $2, $3)
		RETURNING id, occurred_at`,
		topic, aid, payload).Scan(&ev.ID, &ev.OccurredAt)
	if err != nil {
		return events.Event{}, err
	}
	return ev, nil
}

// ListRecent returns the newest events for a topic.
func (r EventsRepo) ListRecent(ctx context.Context, topic string, limit int) ([]events.Event, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, topic, aggregate_id, payload, occurred_at FROM domain_events
		WHERE topic = $1 ORDER BY occurred_at DESC, id DESC LIMIT $2`,
		topic, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []events.Event
	for rows.Next() {
		var (
			e   events.Event
			aid pgtype.UUID
		)
		if err := rows.Scan(&e.ID, &e.Topic, &aid, &e.Payload, &e.OccurredAt); err != nil {
			return nil, err
		}
		e.AggregateID = uuidString(aid)
		out = append(out, e)
	}
	return out, rows.Err()
}
