package memory

import (
	"context"
	"sync"

	appoutbox "homio/internal/app/outbox"
)

const defaultRetain = 1000

// Outbox keeps events in memory. Flush moves pending records to the
// published log, which keeps only the newest Retain records.
type Outbox struct {
	mu        sync.Mutex
	pending   []appoutbox.EventRecord
	published []appoutbox.EventRecord
	Retain    int
}

func NewOutbox() *Outbox {
	return &Outbox{Retain: defaultRetain}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.published = append(o.published, o.pending...)
	o.pending = nil
	if o.Retain > 0 && len(o.published) > o.Retain {
		o.published = append([]appoutbox.EventRecord(nil), o.published[len(o.published)-o.Retain:]...)
	}
	return nil
}

// Pending returns records added since the last flush.
func (o *Outbox) Pending() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]appoutbox.EventRecord(nil), o.pending...)
}

func (o *Outbox) Published() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]appoutbox.EventRecord(nil), o.published...)
}

// Names lists pending then published event names in insertion order.
func (o *Outbox) Names() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	names := make([]string, 0, len(o.published)+len(o.pending))
	for _, rec := range o.published {
		names = append(names, rec.Name)
	}
	for _, rec := range o.pending {
		names = append(names, rec.Name)
	}
	return names
}

var _ appoutbox.Outbox = (*Outbox)(nil)
