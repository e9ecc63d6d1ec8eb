package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultInterval   = 500 * time.Millisecond
	defaultRetryDelay = 5 * time.Second
	defaultSource     = "app://homio"

	cloudEventsSpec        = "1.0"
	cloudEventsContentType = "application/cloudevents+json"
	schemaVersionSuffix    = ".v1"
)

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Queue is the claim/ack side of an outbox.
type Queue interface {
	Claim(ctx context.Context, workerID string) (*EventDocument, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

// Worker relays outbox records to the broker as structured CloudEvents,
// keyed by aggregate so one booking's events stay ordered on a partition.
type Worker struct {
	Queue       Queue
	Producer    Producer
	Interval    time.Duration
	TopicPrefix string
	Source      string
	ID          string
	// Backoff[n] is the delay after the (n+1)th failed attempt; the last
	// entry repeats.
	Backoff []time.Duration
	Logger  *slog.Logger
	Clock   func() time.Time
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Queue == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	every := w.Interval
	if every <= 0 {
		every = defaultInterval
	}
	log := w.logger().With("worker_id", w.ID)
	log.Info("outbox worker started", "interval", every)

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := w.drain(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error("outbox claim failed", "error", err)
		}
	}
}

// drain relays records until the queue has nothing due.
func (w *Worker) drain(ctx context.Context) error {
	for {
		doc, err := w.Queue.Claim(ctx, w.ID)
		if err != nil || doc == nil {
			return err
		}
		if err := w.relay(ctx, doc); err != nil {
			return err
		}
	}
}

// relay publishes one claimed record and settles it. Only queue errors are
// returned; publish failures reschedule the record.
func (w *Worker) relay(ctx context.Context, doc *EventDocument) error {
	topic := w.topicFor(doc.Name)
	msg, err := w.envelope(doc)
	if err == nil {
		err = w.Producer.Publish(ctx, topic, doc.Aggregate, msg, w.headers(doc))
	}
	if err != nil {
		next := w.retryAt(doc.Attempts)
		w.logger().Warn("outbox publish failed",
			"event_id", doc.ID, "event", doc.Name, "attempts", doc.Attempts+1, "retry_at", next, "error", err)
		return w.Queue.MarkFailed(ctx, doc.ID, next, err.Error())
	}
	w.logger().Debug("outbox event published", "event_id", doc.ID, "event", doc.Name, "topic", topic)
	return w.Queue.MarkSent(ctx, doc.ID)
}

type cloudEvent struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Source          string          `json:"source"`
	Subject         string          `json:"subject,omitempty"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	TraceParent     string          `json:"traceparent,omitempty"`
	Data            json.RawMessage `json:"data"`
}

// envelope fails when the stored payload is not valid JSON.
func (w *Worker) envelope(doc *EventDocument) ([]byte, error) {
	source := w.Source
	if source == "" {
		source = defaultSource
	}
	return json.Marshal(cloudEvent{
		SpecVersion:     cloudEventsSpec,
		ID:              doc.ID,
		Type:            doc.Name + schemaVersionSuffix,
		Source:          source,
		Subject:         doc.Aggregate,
		Time:            doc.OccurredAt.UTC(),
		DataContentType: "application/json",
		TraceParent:     doc.Headers["traceparent"],
		Data:            json.RawMessage(doc.Payload),
	})
}

func (w *Worker) headers(doc *EventDocument) map[string]string {
	out := make(map[string]string, len(doc.Headers)+2)
	for k, v := range doc.Headers {
		out[k] = v
	}
	out["content-type"] = cloudEventsContentType
	out["ce-type"] = doc.Name + schemaVersionSuffix
	return out
}

// topicFor maps "booking.confirmed" to "<prefix>booking.events.v1".
func (w *Worker) topicFor(name string) string {
	family, _, _ := strings.Cut(name, ".")
	return w.TopicPrefix + family + ".events" + schemaVersionSuffix
}

func (w *Worker) retryAt(attempts int) time.Time {
	delay := defaultRetryDelay
	if n := len(w.Backoff); n > 0 {
		delay = w.Backoff[min(attempts, n-1)]
	}
	return w.now().Add(delay)
}

func (w *Worker) now() time.Time {
	if w.Clock != nil {
		return w.Clock()
	}
	return time.Now().UTC()
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

// LogProducer stands in for a broker when none is configured.
type LogProducer struct {
	Logger *slog.Logger
}

func (p LogProducer) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "event published", "topic", topic, "key", key, "bytes", len(payload))
	return nil
}
