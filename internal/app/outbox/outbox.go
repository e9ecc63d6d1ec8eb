package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"homio/internal/domain/shared/events"
)

// EventRecord is a domain event serialized for the outbox. Aggregate is the
// id of the booking, listing or review the event belongs to.
type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

// Outbox buffers records written inside a unit of work. Flush runs after the
// unit committed.
type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

// JSONEventEncoder marshals the event struct as the payload. IDGenerator
// defaults to random UUIDs, which double as CloudEvents ids downstream.
type JSONEventEncoder struct {
	IDGenerator func() string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, fmt.Errorf("outbox: encode %s: %w", ev.EventName(), err)
	}
	newID := e.IDGenerator
	if newID == nil {
		newID = uuid.NewString
	}
	return EventRecord{
		ID:         newID(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt().UTC(),
		Aggregate:  ev.AggregateID(),
		Headers:    map[string]string{},
	}, nil
}

type headersKey struct{}

// WithHeaders attaches transport headers (request id, trace context) that
// every event recorded under ctx inherits. Later values win.
func WithHeaders(ctx context.Context, headers map[string]string) context.Context {
	if len(headers) == 0 {
		return ctx
	}
	merged := make(map[string]string, len(headers))
	for k, v := range HeadersFrom(ctx) {
		merged[k] = v
	}
	for k, v := range headers {
		if v != "" {
			merged[k] = v
		}
	}
	return context.WithValue(ctx, headersKey{}, merged)
}

// HeadersFrom returns the headers attached by WithHeaders.
func HeadersFrom(ctx context.Context) map[string]string {
	headers, _ := ctx.Value(headersKey{}).(map[string]string)
	return headers
}

// RecordDomainEvents encodes evs and adds them to box in order.
func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, evs []events.DomainEvent) error {
	if box == nil || len(evs) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	inherited := HeadersFrom(ctx)
	for _, ev := range evs {
		rec, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		if len(inherited) > 0 {
			if rec.Headers == nil {
				rec.Headers = make(map[string]string, len(inherited))
			}
			for k, v := range inherited {
				if _, set := rec.Headers[k]; !set {
					rec.Headers[k] = v
				}
			}
		}
		if err := box.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
