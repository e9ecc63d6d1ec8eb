package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homio/internal/domain/shared/events"
)

type stayBooked struct {
	BookingID string `json:"booking_id"`
	At        time.Time
}

func (e stayBooked) EventName() string     { return "booking.requested" }
func (e stayBooked) AggregateID() string   { return e.BookingID }
func (e stayBooked) OccurredAt() time.Time { return e.At }

type captureBox struct{ records []EventRecord }

func (b *captureBox) Add(ctx context.Context, rec EventRecord) error {
	b.records = append(b.records, rec)
	return nil
}

func (b *captureBox) Flush(ctx context.Context) error { return nil }

func TestRecordDomainEventsInheritsContextHeaders(t *testing.T) {
	ctx := WithHeaders(context.Background(), map[string]string{"x-request-id": "req-1", "traceparent": ""})
	ctx = WithHeaders(ctx, map[string]string{"traceparent": "00-abc-def-01"})
	box := &captureBox{}
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))

	err := RecordDomainEvents(ctx, box, nil, []events.DomainEvent{stayBooked{BookingID: "b1", At: at}})
	require.NoError(t, err)
	require.Len(t, box.records, 1)

	rec := box.records[0]
	_, parseErr := uuid.Parse(rec.ID)
	assert.NoError(t, parseErr)
	assert.Equal(t, "booking.requested", rec.Name)
	assert.Equal(t, "b1", rec.Aggregate)
	assert.Equal(t, time.UTC, rec.OccurredAt.Location())
	assert.Equal(t, map[string]string{"x-request-id": "req-1", "traceparent": "00-abc-def-01"}, rec.Headers)
	assert.JSONEq(t, `{"booking_id":"b1","At":"2025-03-01T09:00:00+05:30"}`, string(rec.Payload))
}

func TestRecordDomainEventsWithoutEvents(t *testing.T) {
	box := &captureBox{}
	require.NoError(t, RecordDomainEvents(context.Background(), box, nil, nil))
	require.NoError(t, RecordDomainEvents(context.Background(), nil, nil, []events.DomainEvent{stayBooked{}}))
	assert.Empty(t, box.records)
}

func TestEncoderUsesInjectedIDs(t *testing.T) {
	rec, err := JSONEventEncoder{IDGenerator: func() string { return "evt-1" }}.Encode(stayBooked{BookingID: "b2"})
	require.NoError(t, err)
	assert.Equal(t, "evt-1", rec.ID)
	assert.Empty(t, HeadersFrom(context.Background()))
}
