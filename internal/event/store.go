package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store persists and retrieves events.
type Store interface {
	// Append persists one or more events atomically.
	Append(ctx context.Context, events ...Event) error
	// Load returns all events for an aggregate, ordered by version.
	Load(ctx context.Context, aggregateID string) ([]Event, error)
	// LoadByType returns events filtered by type.
	LoadByType(ctx context.Context, eventType Type) ([]Event, error)
}

// New builds an event with a fresh id and a JSON-encoded payload.
func New(aggregateID string, typ Type, version int, at time.Time, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encoding %s payload: %w", typ, err)
	}
	return Event{
		ID:          uuid.NewString(),
		AggregateID: aggregateID,
		Type:        typ,
		Data:        data,
		Version:     version,
		CreatedAt:   at.UTC(),
	}, nil
}
