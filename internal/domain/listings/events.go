package listings

import "time"

// Event names double as the routing key of the listing topic.
const (
	EventListingCreated   = "listing.created"
	EventListingUpdated   = "listing.updated"
	EventListingDeleted   = "listing.deleted"
	EventRatingRecomputed = "listing.rating_recomputed"
)

type ListingCreatedEvent struct {
	ListingID ListingID `json:"listing_id"`
	HostID    HostID    `json:"host_id"`
	At        time.Time `json:"occurred_at"`
}

type ListingUpdatedEvent struct {
	ListingID ListingID `json:"listing_id"`
	At        time.Time `json:"occurred_at"`
}

type ListingDeletedEvent struct {
	ListingID ListingID `json:"listing_id"`
	HostID    HostID    `json:"host_id"`
	At        time.Time `json:"occurred_at"`
}

// RatingRecomputedEvent carries the full aggregate so consumers never have
// to recount reviews.
type RatingRecomputedEvent struct {
	ListingID ListingID `json:"listing_id"`
	Average   float64   `json:"average"`
	Count     int       `json:"count"`
	At        time.Time `json:"occurred_at"`
}

func (ListingCreatedEvent) EventName() string   { return EventListingCreated }
func (ListingUpdatedEvent) EventName() string   { return EventListingUpdated }
func (ListingDeletedEvent) EventName() string   { return EventListingDeleted }
func (RatingRecomputedEvent) EventName() string { return EventRatingRecomputed }

func (e ListingCreatedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingUpdatedEvent) AggregateID() string   { return string(e.ListingID) }
func (e ListingDeletedEvent) AggregateID() string   { return string(e.ListingID) }
func (e RatingRecomputedEvent) AggregateID() string { return string(e.ListingID) }

func (e ListingCreatedEvent) OccurredAt() time.Time   { return e.At }
func (e ListingUpdatedEvent) OccurredAt() time.Time   { return e.At }
func (e ListingDeletedEvent) OccurredAt() time.Time   { return e.At }
func (e RatingRecomputedEvent) OccurredAt() time.Time { return e.At }
