package availability

import (
	"context"
	"errors"
	"time"

	"homio/internal/app/dto"
	handlersupport "homio/internal/app/handlers/support"
	"homio/internal/app/queries"
	"homio/internal/app/uow"
	domainbooking "homio/internal/domain/booking"
	domainlistings "homio/internal/domain/listings"
	"homio/internal/domain/shared/daterange"
	"homio/internal/domain/shared/money"
)

// CheckWindow returns ErrDatesUnavailable when a live booking on the listing
// intersects dr under the closed-interval test.
func CheckWindow(ctx context.Context, bookings domainbooking.Repository, listingID domainlistings.ListingID, dr daterange.DateRange) error {
	if err := dr.Validate(); err != nil {
		return err
	}
	existing, err := bookings.Overlapping(ctx, listingID, dr)
	if err != nil {
		return err
	}
	for _, b := range existing {
		if b.Live() && b.Range.Overlaps(dr) {
			return domainbooking.ErrDatesUnavailable
		}
	}
	return nil
}

const checkAvailabilityKey = "availability.check"

type CheckAvailabilityQuery struct {
	ListingID string
	Start     time.Time
	End       time.Time
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

// CheckAvailabilityHandler answers whether a window is free and what it would cost.
type CheckAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
	Currency   string
}

func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (dto.Availability, error) {
	dr, err := daterange.New(q.Start, q.End)
	if err != nil {
		return dto.Availability{}, err
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Availability{}, err
	}
	defer cleanup()

	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.Availability{}, err
	}
	available := true
	if err := CheckWindow(execCtx, unit.Bookings(), listing.ID, dr); err != nil {
		if !errors.Is(err, domainbooking.ErrDatesUnavailable) {
			return dto.Availability{}, err
		}
		available = false
	}
	nights, total := domainbooking.Quote(dr, money.Money{Amount: listing.NightlyPrice, Currency: h.Currency})
	return dto.Availability{
		ListingID: string(listing.ID),
		StartDate: dr.Start,
		EndDate:   dr.End,
		Available: available,
		Nights:    nights,
		Total:     dto.MapMoney(total),
	}, nil
}

var _ queries.Handler[CheckAvailabilityQuery, dto.Availability] = (*CheckAvailabilityHandler)(nil)
