package dashboard

import (
	"context"
	"sort"
	"time"

	"homio/internal/app/dto"
	handlersupport "homio/internal/app/handlers/support"
	"homio/internal/app/queries"
	"homio/internal/app/uow"
	domainbooking "homio/internal/domain/booking"
	domainlistings "homio/internal/domain/listings"
	domainuser "homio/internal/domain/user"
)

const (
	guestDashboardKey = "dashboard.guest"
	hostDashboardKey  = "dashboard.host"
)

type GuestDashboardQuery struct {
	UserID string `validate:"required"`
}

func (q GuestDashboardQuery) Key() string { return guestDashboardKey }

type HostDashboardQuery struct {
	HostID string `validate:"required"`
}

func (q HostDashboardQuery) Key() string { return hostDashboardKey }

type Handler struct {
	UoWFactory uow.UoWFactory
	Currency   string
	Clock      func() time.Time
}

// Guest lists the traveler's bookings newest first with spending stats and
// the saved listings that still exist.
func (h *Handler) Guest(ctx context.Context, q GuestDashboardQuery) (dto.GuestDashboard, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.GuestDashboard{}, err
	}
	defer cleanup()

	profile, err := unit.Users().ByID(execCtx, domainuser.ID(q.UserID))
	if err != nil {
		return dto.GuestDashboard{}, err
	}
	bookings, err := unit.Bookings().ListByGuest(execCtx, q.UserID)
	if err != nil {
		return dto.GuestDashboard{}, err
	}
	sortNewestFirst(bookings)

	listingCache := map[domainlistings.ListingID]*domainlistings.Listing{}
	lookup := func(id domainlistings.ListingID) *domainlistings.Listing {
		if l, ok := listingCache[id]; ok {
			return l
		}
		l, err := unit.Listings().ByID(execCtx, id)
		if err != nil {
			l = nil
		}
		listingCache[id] = l
		return l
	}

	out := dto.GuestDashboard{
		Profile:  dto.MapUser(profile),
		Bookings: make([]dto.Booking, 0, len(bookings)),
		Wishlist: []dto.Listing{},
	}
	for _, b := range bookings {
		out.Bookings = append(out.Bookings, dto.MapBooking(b, lookup(b.ListingID)))
		switch {
		case b.Confirmed():
			out.Stats.Confirmed++
			out.Stats.TotalSpent += b.Total.Amount
		case b.Status == domainbooking.StatusPending:
			out.Stats.Pending++
		case b.Status == domainbooking.StatusCancelled:
			out.Stats.Cancelled++
		}
	}
	for _, id := range profile.Wishlist {
		if l := lookup(id); l != nil {
			out.Wishlist = append(out.Wishlist, dto.MapListing(l, h.Currency))
		}
	}
	return out, nil
}

// Host summarizes the host's listings, the live requests on them and earnings.
func (h *Handler) Host(ctx context.Context, q HostDashboardQuery) (dto.HostDashboard, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.HostDashboard{}, err
	}
	defer cleanup()

	listings, err := unit.Listings().ListByHost(execCtx, domainlistings.HostID(q.HostID))
	if err != nil {
		return dto.HostDashboard{}, err
	}
	domainlistings.SortListings(listings, domainlistings.SortByNewest)
	byID := make(map[domainlistings.ListingID]*domainlistings.Listing, len(listings))
	ids := make([]domainlistings.ListingID, 0, len(listings))
	out := dto.HostDashboard{
		Listings:        make([]dto.Listing, 0, len(listings)),
		BookingRequests: []dto.Booking{},
	}
	for _, l := range listings {
		byID[l.ID] = l
		ids = append(ids, l.ID)
		out.Listings = append(out.Listings, dto.MapListing(l, h.Currency))
	}
	out.Stats.TotalListings = len(listings)
	if len(ids) == 0 {
		return out, nil
	}

	bookings, err := unit.Bookings().ListByListings(execCtx, ids)
	if err != nil {
		return dto.HostDashboard{}, err
	}
	sortNewestFirst(bookings)
	monthStart := startOfMonth(h.now())
	for _, b := range bookings {
		if b.Status != domainbooking.StatusCancelled {
			out.BookingRequests = append(out.BookingRequests, dto.MapBooking(b, byID[b.ListingID]))
		}
		switch {
		case b.Confirmed():
			out.Stats.TotalBookings++
			out.Stats.TotalEarnings += b.Total.Amount
			if !b.PaidAt.IsZero() && !b.PaidAt.Before(monthStart) {
				out.Stats.ThisMonthEarnings += b.Total.Amount
			}
		case b.Status == domainbooking.StatusPending:
			out.Stats.PendingBookings++
		}
	}
	return out, nil
}

func (h *Handler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func sortNewestFirst(items []*domainbooking.Booking) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

var (
	_ queries.HandlerFunc[GuestDashboardQuery, dto.GuestDashboard] = (&Handler{}).Guest
	_ queries.HandlerFunc[HostDashboardQuery, dto.HostDashboard]   = (&Handler{}).Host
)
