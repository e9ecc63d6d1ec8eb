// Package events holds the buffer aggregates use to publish domain facts
// once their unit of work commits.
package events

import "time"

type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// Source is anything that can hand over its buffered events.
type Source interface {
	Drain() []DomainEvent
}

// EventRecorder is embedded by aggregates. The zero value is ready to use.
type EventRecorder struct {
	pending []DomainEvent
}

func (r *EventRecorder) Record(event DomainEvent) {
	if event != nil {
		r.pending = append(r.pending, event)
	}
}

// PendingEvents returns a snapshot without clearing the buffer.
func (r *EventRecorder) PendingEvents() []DomainEvent {
	return append([]DomainEvent(nil), r.pending...)
}

func (r *EventRecorder) ClearEvents() { r.pending = nil }

func (r *EventRecorder) Drain() []DomainEvent {
	out := r.pending
	r.pending = nil
	return out
}

// Collect drains every source in argument order into one slice.
func Collect(sources ...Source) []DomainEvent {
	var out []DomainEvent
	for _, src := range sources {
		if src != nil {
			out = append(out, src.Drain()...)
		}
	}
	return out
}

// Names lists the event names of evs, for logs and assertions.
func Names(evs []DomainEvent) []string {
	names := make([]string, 0, len(evs))
	for _, ev := range evs {
		names = append(names, ev.EventName())
	}
	return names
}
