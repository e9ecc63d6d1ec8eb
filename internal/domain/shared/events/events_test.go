package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stubEvent string

func (e stubEvent) EventName() string     { return string(e) }
func (e stubEvent) AggregateID() string   { return "agg" }
func (e stubEvent) OccurredAt() time.Time { return time.Time{} }

type aggregate struct{ EventRecorder }

func TestRecorderDrainEmptiesBuffer(t *testing.T) {
	var a aggregate
	a.Record(stubEvent("a.created"))
	a.Record(nil)
	a.Record(stubEvent("a.updated"))

	assert.Len(t, a.PendingEvents(), 2)
	assert.Equal(t, []string{"a.created", "a.updated"}, Names(a.Drain()))
	assert.Empty(t, a.PendingEvents())
}

func TestCollectKeepsSourceOrder(t *testing.T) {
	var first, second aggregate
	first.Record(stubEvent("first"))
	second.Record(stubEvent("second"))

	got := Collect(&second, &first)
	assert.Equal(t, []string{"second", "first"}, Names(got))
	assert.Empty(t, Collect(&first, &second))
}
