package booking

import (
	"context"
	"slices"
	"strings"
	"time"

	"homio/internal/domain/listings"
	"homio/internal/domain/shared/daterange"
	"homio/internal/domain/shared/events"
	"homio/internal/domain/shared/fault"
	"homio/internal/domain/shared/money"
)

var (
	ErrBookingNotFound  = fault.New(fault.ErrNotFound, "booking: not found")
	ErrDatesUnavailable = fault.New(fault.ErrConflict, "booking: dates are already booked")
	ErrNotResumable     = fault.New(fault.ErrConflict, "booking: booking cannot be paid for")
	ErrInvalidState     = fault.New(fault.ErrConflict, "booking: invalid state transition")
	ErrNotOwner         = fault.New(fault.ErrForbidden, "booking: booking belongs to another user")
	ErrGuestRequired    = fault.New(fault.ErrValidation, "booking: guest id required")
	ErrOrderRequired    = fault.New(fault.ErrValidation, "booking: payment order id required")
	ErrForeignOrder     = fault.New(fault.ErrConflict, "booking: payment order was not issued for this booking")
)

type BookingID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
	// PaymentCancelled marks a booking withdrawn before any payment was attempted.
	PaymentCancelled PaymentStatus = "cancelled"
)

// LiveStatuses and LivePaymentStatuses select the bookings that hold dates.
var (
	LiveStatuses        = []Status{StatusPending, StatusConfirmed}
	LivePaymentStatuses = []PaymentStatus{PaymentPending, PaymentPaid}
)

type Booking struct {
	ID            BookingID
	ListingID     listings.ListingID
	GuestID       string
	Range         daterange.DateRange
	Nights        int
	Total         money.Money
	Status        Status
	PaymentStatus PaymentStatus
	OrderID       string
	// PastOrderIDs are orders replaced by ReissueOrder, oldest first. A
	// payment captured against any of them still settles the booking.
	PastOrderIDs  []string
	PaymentID     string
	Signature     string
	PaidAt        time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	// Overlapping returns live bookings on listing whose closed range intersects dr.
	Overlapping(ctx context.Context, listing listings.ListingID, dr daterange.DateRange) ([]*Booking, error)
	// LiveByListing returns live bookings on listing that end on or after from.
	LiveByListing(ctx context.Context, listing listings.ListingID, from time.Time) ([]*Booking, error)
	ListByGuest(ctx context.Context, guestID string) ([]*Booking, error)
	ListByListings(ctx context.Context, ids []listings.ListingID) ([]*Booking, error)
	HasConfirmed(ctx context.Context, listing listings.ListingID, guestID string) (bool, error)
}

// Quote prices a stay: whole nights times the nightly rate.
func Quote(dr daterange.DateRange, nightly money.Money) (int, money.Money) {
	nights := dr.Nights()
	return nights, nightly.Multiply(int64(nights))
}

type CreateParams struct {
	ID        BookingID
	ListingID listings.ListingID
	GuestID   string
	Range     daterange.DateRange
	Nightly   money.Money
	OrderID   string
	CreatedAt time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(params.GuestID) == "" {
		return nil, ErrGuestRequired
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.OrderID) == "" {
		return nil, ErrOrderRequired
	}
	nights, total := Quote(params.Range, params.Nightly)
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:            params.ID,
		ListingID:     params.ListingID,
		GuestID:       params.GuestID,
		Range:         params.Range,
		Nights:        nights,
		Total:         total,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		OrderID:       params.OrderID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	b.Record(BookingRequested{BookingID: b.ID, ListingID: b.ListingID, GuestID: b.GuestID, Range: b.Range, Total: b.Total, OrderID: b.OrderID, At: now})
	return b, nil
}

// Live reports whether the booking currently holds its dates.
func (b *Booking) Live() bool {
	return (b.Status == StatusPending || b.Status == StatusConfirmed) &&
		(b.PaymentStatus == PaymentPending || b.PaymentStatus == PaymentPaid)
}

func (b *Booking) OwnedBy(guestID string) bool {
	return guestID != "" && b.GuestID == guestID
}

func (b *Booking) AwaitingPayment() bool {
	return b.Status == StatusPending && b.PaymentStatus == PaymentPending
}

func (b *Booking) Confirmed() bool {
	return b.Status == StatusConfirmed && b.PaymentStatus == PaymentPaid
}

// ReissueOrder swaps in a fresh gateway order for a booking still awaiting payment.
func (b *Booking) ReissueOrder(orderID string, now time.Time) error {
	if !b.AwaitingPayment() {
		return ErrNotResumable
	}
	if strings.TrimSpace(orderID) == "" {
		return ErrOrderRequired
	}
	previous := b.OrderID
	if previous != "" && previous != orderID {
		b.PastOrderIDs = append(b.PastOrderIDs, previous)
	}
	b.OrderID = orderID
	b.UpdatedAt = now.UTC()
	b.Record(PaymentOrderReissued{BookingID: b.ID, PreviousOrderID: previous, OrderID: orderID, At: b.UpdatedAt})
	return nil
}

// IssuedOrder reports whether orderID is the current order or one it replaced.
func (b *Booking) IssuedOrder(orderID string) bool {
	if orderID == "" {
		return false
	}
	return orderID == b.OrderID || slices.Contains(b.PastOrderIDs, orderID)
}

// MarkPaid finalizes a verified payment. Replaying the same payment on an
// already confirmed booking is accepted without recording anything new.
func (b *Booking) MarkPaid(paymentID, signature string, now time.Time) error {
	if b.Confirmed() && b.PaymentID == paymentID {
		return nil
	}
	if !b.AwaitingPayment() {
		return ErrInvalidState
	}
	b.Status = StatusConfirmed
	b.PaymentStatus = PaymentPaid
	b.PaymentID = paymentID
	b.Signature = signature
	b.PaidAt = now.UTC()
	b.UpdatedAt = b.PaidAt
	b.Record(BookingConfirmed{BookingID: b.ID, ListingID: b.ListingID, GuestID: b.GuestID, Range: b.Range, Total: b.Total, PaymentID: paymentID, At: b.UpdatedAt})
	return nil
}

// MarkPaymentFailed releases the dates of a booking whose payment did not go
// through. Bookings past the payment step are left untouched and false is returned.
func (b *Booking) MarkPaymentFailed(reason string, now time.Time) bool {
	if !b.AwaitingPayment() {
		return false
	}
	b.Status = StatusCancelled
	b.PaymentStatus = PaymentFailed
	b.UpdatedAt = now.UTC()
	b.Record(PaymentRejected{BookingID: b.ID, ListingID: b.ListingID, OrderID: b.OrderID, Reason: reason, At: b.UpdatedAt})
	return true
}

// Cancel withdraws the booking. A paid booking moves to refunded and the
// returned flag asks downstream to issue the refund. Cancelling twice is a no-op.
func (b *Booking) Cancel(now time.Time) (bool, error) {
	if b.Status == StatusCancelled {
		return false, nil
	}
	refund := false
	switch b.PaymentStatus {
	case PaymentPaid:
		b.PaymentStatus = PaymentRefunded
		refund = true
	case PaymentPending:
		b.PaymentStatus = PaymentCancelled
	default:
		return false, ErrInvalidState
	}
	b.Status = StatusCancelled
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{BookingID: b.ID, ListingID: b.ListingID, RefundRequested: refund, Refund: refundAmount(b.Total, refund), At: b.UpdatedAt})
	return refund, nil
}

func refundAmount(total money.Money, refund bool) money.Money {
	if !refund {
		return money.Money{Currency: total.Currency}
	}
	return total
}
