package booking

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"homio/internal/app/outbox"
	"homio/internal/app/policies"
	domainbooking "homio/internal/domain/booking"
	domainlistings "homio/internal/domain/listings"
	"homio/internal/domain/shared/events"
	"homio/internal/domain/shared/money"
)

// Deps are the collaborators shared by every booking use case.
type Deps struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Clock   func() time.Time
}

func (d Deps) now() time.Time {
	if d.Clock != nil {
		return d.Clock().UTC()
	}
	return time.Now().UTC()
}

func (d Deps) record(ctx context.Context, aggregates ...events.Source) error {
	return outbox.RecordDomainEvents(ctx, d.Outbox, d.Encoder, events.Collect(aggregates...))
}

func newBookingID() domainbooking.BookingID {
	return domainbooking.BookingID(uuid.NewString())
}

func orderRequest(listingID domainlistings.ListingID, guestID string, total money.Money, now time.Time) policies.OrderRequest {
	return policies.OrderRequest{
		AmountMinor: total.MinorUnits(),
		Currency:    total.Currency,
		Receipt:     "booking_" + strconv.FormatInt(now.UnixMilli(), 10),
		Notes: map[string]string{
			"listingId": string(listingID),
			"userId":    guestID,
		},
	}
}

func loadOwned(ctx context.Context, repo domainbooking.Repository, id, guestID string) (*domainbooking.Booking, error) {
	b, err := repo.ByID(ctx, domainbooking.BookingID(id))
	if err != nil {
		return nil, err
	}
	if !b.OwnedBy(guestID) {
		return nil, domainbooking.ErrNotOwner
	}
	return b, nil
}
