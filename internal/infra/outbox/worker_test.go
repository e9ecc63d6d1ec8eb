package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type fakeQueue struct {
	docs   []*EventDocument
	sent   []string
	failed map[string]time.Time
}

func (q *fakeQueue) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	if len(q.docs) == 0 {
		return nil, nil
	}
	doc := q.docs[0]
	q.docs = q.docs[1:]
	return doc, nil
}

func (q *fakeQueue) MarkSent(ctx context.Context, id string) error {
	q.sent = append(q.sent, id)
	return nil
}

func (q *fakeQueue) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	if q.failed == nil {
		q.failed = map[string]time.Time{}
	}
	q.failed[id] = next
	return nil
}

type published struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
}

type fakeProducer struct {
	msgs []published
	err  error
}

func (p *fakeProducer) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

var fixedNow = time.Date(2025, 1, 5, 8, 30, 0, 0, time.UTC)

func newWorker(q Queue, p Producer) *Worker {
	return &Worker{
		Queue:       q,
		Producer:    p,
		TopicPrefix: "homio.",
		ID:          "w1",
		Backoff:     []time.Duration{time.Second, 5 * time.Second},
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Clock:       func() time.Time { return fixedNow },
	}
}

func TestWorkerPublishesCloudEvents(t *testing.T) {
	q := &fakeQueue{docs: []*EventDocument{
		{ID: "evt-1", Name: "booking.confirmed", Aggregate: "b1", Payload: []byte(`{"booking_id":"b1"}`), OccurredAt: fixedNow, Headers: map[string]string{"traceparent": "00-abc"}},
		{ID: "evt-2", Name: "review.submitted", Aggregate: "r1", Payload: []byte(`{"review_id":"r1"}`), OccurredAt: fixedNow},
	}}
	p := &fakeProducer{}
	w := newWorker(q, p)

	require.NoError(t, w.drain(context.Background()))

	require.Len(t, p.msgs, 2)
	assert.Equal(t, []string{"evt-1", "evt-2"}, q.sent)
	assert.Equal(t, "homio.booking.events.v1", p.msgs[0].topic)
	assert.Equal(t, "b1", p.msgs[0].key)
	assert.Equal(t, "homio.review.events.v1", p.msgs[1].topic)
	assert.Equal(t, "application/cloudevents+json", p.msgs[0].headers["content-type"])
	assert.Equal(t, "00-abc", p.msgs[0].headers["traceparent"])

	var evt map[string]any
	require.NoError(t, json.Unmarshal(p.msgs[0].payload, &evt))
	assert.Equal(t, "1.0", evt["specversion"])
	assert.Equal(t, "evt-1", evt["id"])
	assert.Equal(t, "booking.confirmed.v1", evt["type"])
	assert.Equal(t, "app://homio", evt["source"])
	assert.Equal(t, "b1", evt["subject"])
	assert.Equal(t, map[string]any{"booking_id": "b1"}, evt["data"])
}

func TestWorkerSchedulesRetryWithBackoff(t *testing.T) {
	q := &fakeQueue{docs: []*EventDocument{
		{ID: "evt-1", Name: "booking.cancelled", Payload: []byte(`{}`), Attempts: 0},
		{ID: "evt-2", Name: "booking.cancelled", Payload: []byte(`{}`), Attempts: 7},
	}}
	w := newWorker(q, &fakeProducer{err: errors.New("broker down")})

	require.NoError(t, w.drain(context.Background()))

	assert.Empty(t, q.sent)
	assert.Equal(t, fixedNow.Add(time.Second), q.failed["evt-1"])
	assert.Equal(t, fixedNow.Add(5*time.Second), q.failed["evt-2"])
}

func TestWorkerFailsUndecodablePayload(t *testing.T) {
	q := &fakeQueue{docs: []*EventDocument{{ID: "evt-1", Name: "booking.requested", Payload: []byte(`not json`)}}}
	p := &fakeProducer{}
	w := newWorker(q, p)

	require.NoError(t, w.drain(context.Background()))

	assert.Empty(t, p.msgs)
	assert.Contains(t, q.failed, "evt-1")
}

func TestWorkerRequiresDependencies(t *testing.T) {
	w := &Worker{}
	assert.ErrorIs(t, w.Run(context.Background()), ErrWorkerNotConfigured)
}

func TestWorkerStopsOnCancel(t *testing.T) {
	w := newWorker(&fakeQueue{}, &fakeProducer{})
	w.Interval = time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, w.Run(ctx), context.DeadlineExceeded)
}

func TestClaimFilterIncludesStaleClaims(t *testing.T) {
	filter := claimFilter(fixedNow)
	assert.ElementsMatch(t, []string{stateNew, stateFailed, stateClaimed}, filter["state"].(bson.M)["$in"])
}

func TestWorkerTopicAndRetryDefaults(t *testing.T) {
	w := &Worker{TopicPrefix: "homio.", Clock: func() time.Time { return fixedNow }}

	assert.Equal(t, "homio.listing.events.v1", w.topicFor("listing.rating_recomputed"))
	assert.Equal(t, "homio.audit.events.v1", w.topicFor("audit"))
	assert.Equal(t, fixedNow.Add(defaultRetryDelay), w.retryAt(3))
}
