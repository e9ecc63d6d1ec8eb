package booking

import (
	"time"

	"homio/internal/domain/listings"
	"homio/internal/domain/shared/daterange"
	"homio/internal/domain/shared/money"
)

// Booking lifecycle event names, one per state transition.
const (
	EventRequested       = "booking.requested"
	EventPaymentReissued = "booking.payment_reissued"
	EventConfirmed       = "booking.confirmed"
	EventPaymentFailed   = "booking.payment_failed"
	EventCancelled       = "booking.cancelled"
)

// BookingRequested marks dates as held while the payment order is open.
type BookingRequested struct {
	BookingID BookingID           `json:"booking_id"`
	ListingID listings.ListingID  `json:"listing_id"`
	GuestID   string              `json:"guest_id"`
	Range     daterange.DateRange `json:"range"`
	Total     money.Money         `json:"total"`
	OrderID   string              `json:"order_id"`
	At        time.Time           `json:"occurred_at"`
}

type PaymentOrderReissued struct {
	BookingID       BookingID `json:"booking_id"`
	PreviousOrderID string    `json:"previous_order_id"`
	OrderID         string    `json:"order_id"`
	At              time.Time `json:"occurred_at"`
}

type BookingConfirmed struct {
	BookingID BookingID           `json:"booking_id"`
	ListingID listings.ListingID  `json:"listing_id"`
	GuestID   string              `json:"guest_id"`
	Range     daterange.DateRange `json:"range"`
	Total     money.Money         `json:"total"`
	PaymentID string              `json:"payment_id"`
	At        time.Time           `json:"occurred_at"`
}

// PaymentRejected releases the held dates.
type PaymentRejected struct {
	BookingID BookingID          `json:"booking_id"`
	ListingID listings.ListingID `json:"listing_id"`
	OrderID   string             `json:"order_id"`
	Reason    string             `json:"reason"`
	At        time.Time          `json:"occurred_at"`
}

type BookingCancelled struct {
	BookingID       BookingID          `json:"booking_id"`
	ListingID       listings.ListingID `json:"listing_id"`
	RefundRequested bool               `json:"refund_requested"`
	Refund          money.Money        `json:"refund"`
	At              time.Time          `json:"occurred_at"`
}

func (BookingRequested) EventName() string     { return EventRequested }
func (PaymentOrderReissued) EventName() string { return EventPaymentReissued }
func (BookingConfirmed) EventName() string     { return EventConfirmed }
func (PaymentRejected) EventName() string      { return EventPaymentFailed }
func (BookingCancelled) EventName() string     { return EventCancelled }

func (e BookingRequested) AggregateID() string     { return string(e.BookingID) }
func (e PaymentOrderReissued) AggregateID() string { return string(e.BookingID) }
func (e BookingConfirmed) AggregateID() string     { return string(e.BookingID) }
func (e PaymentRejected) AggregateID() string      { return string(e.BookingID) }
func (e BookingCancelled) AggregateID() string     { return string(e.BookingID) }

func (e BookingRequested) OccurredAt() time.Time     { return e.At }
func (e PaymentOrderReissued) OccurredAt() time.Time { return e.At }
func (e BookingConfirmed) OccurredAt() time.Time     { return e.At }
func (e PaymentRejected) OccurredAt() time.Time      { return e.At }
func (e BookingCancelled) OccurredAt() time.Time     { return e.At }
