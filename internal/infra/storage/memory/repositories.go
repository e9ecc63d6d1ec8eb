package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	domainbooking "homio/internal/domain/booking"
	domainlistings "homio/internal/domain/listings"
	"homio/internal/domain/shared/daterange"
	"homio/internal/domain/shared/events"
	domainreviews "homio/internal/domain/reviews"
)

// ListingRepository keeps listings in memory. Reads and writes copy the
// aggregate so callers never share state with the store.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainlistings.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{
		items: make(map[domainlistings.ListingID]*domainlistings.Listing),
	}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrListingNotFound
	}
	return cloneListing(listing), nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[listing.ID] = cloneListing(listing)
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id domainlistings.ListingID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainlistings.ErrListingNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	params = params.Normalized()
	r.mu.RLock()
	matched := make([]*domainlistings.Listing, 0, len(r.items))
	for _, listing := range r.items {
		if params.Matches(listing) {
			matched = append(matched, cloneListing(listing))
		}
	}
	r.mu.RUnlock()

	// map iteration is random; fix a base order before the stable sort
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	domainlistings.SortListings(matched, params.Sort)

	total := len(matched)
	start := params.Offset
	if start > total {
		start = total
	}
	end := start + params.Limit
	if end > total {
		end = total
	}
	return domainlistings.SearchResult{Items: matched[start:end], Total: total}, nil
}

func (r *ListingRepository) ListByHost(ctx context.Context, host domainlistings.HostID) ([]*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainlistings.Listing, 0)
	for _, listing := range r.items {
		if listing.Host == host {
			out = append(out, cloneListing(listing))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func cloneListing(l *domainlistings.Listing) *domainlistings.Listing {
	c := *l
	c.Amenities = append([]string(nil), l.Amenities...)
	c.EventRecorder = events.EventRecorder{}
	return &c
}

// BookingRepository stores bookings in memory.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	booking, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return cloneBooking(booking), nil
}

func (r *BookingRepository) Save(ctx context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[booking.ID] = cloneBooking(booking)
	return nil
}

func (r *BookingRepository) Overlapping(ctx context.Context, listing domainlistings.ListingID, dr daterange.DateRange) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool {
		return b.ListingID == listing && b.Live() && b.Range.Overlaps(dr)
	}), nil
}

func (r *BookingRepository) LiveByListing(ctx context.Context, listing domainlistings.ListingID, from time.Time) ([]*domainbooking.Booking, error) {
	from = daterange.Normalize(from)
	out := r.filter(func(b *domainbooking.Booking) bool {
		return b.ListingID == listing && b.Live() && !b.Range.End.Before(from)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Range.Start.Before(out[j].Range.Start) })
	return out, nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	return r.filter(func(b *domainbooking.Booking) bool { return b.GuestID == guestID }), nil
}

func (r *BookingRepository) ListByListings(ctx context.Context, ids []domainlistings.ListingID) ([]*domainbooking.Booking, error) {
	wanted := make(map[domainlistings.ListingID]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	return r.filter(func(b *domainbooking.Booking) bool {
		_, ok := wanted[b.ListingID]
		return ok
	}), nil
}

func (r *BookingRepository) HasConfirmed(ctx context.Context, listing domainlistings.ListingID, guestID string) (bool, error) {
	found := r.filter(func(b *domainbooking.Booking) bool {
		return b.ListingID == listing && b.GuestID == guestID && b.Status == domainbooking.StatusConfirmed
	})
	return len(found) > 0, nil
}

func (r *BookingRepository) filter(keep func(*domainbooking.Booking) bool) []*domainbooking.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if keep(booking) {
			out = append(out, cloneBooking(booking))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	c := *b
	c.PastOrderIDs = slices.Clone(b.PastOrderIDs)
	c.EventRecorder = events.EventRecorder{}
	return &c
}

// ReviewsRepository enforces one review per (listing, author).
type ReviewsRepository struct {
	mu    sync.RWMutex
	items map[string]*domainreviews.Review
}

func NewReviewsRepository() *ReviewsRepository {
	return &ReviewsRepository{items: make(map[string]*domainreviews.Review)}
}

func (r *ReviewsRepository) Save(ctx context.Context, review *domainreviews.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := reviewKey(review.ListingID, review.AuthorID)
	if existing, ok := r.items[key]; ok && existing.ID != review.ID {
		return domainreviews.ErrDuplicateReview
	}
	c := *review
	c.EventRecorder = events.EventRecorder{}
	r.items[key] = &c
	return nil
}

func (r *ReviewsRepository) ListByListing(ctx context.Context, listingID domainlistings.ListingID, limit, offset int) ([]*domainreviews.Review, error) {
	items := r.byListing(listingID)
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []*domainreviews.Review{}, nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items, nil
}

func (r *ReviewsRepository) Stats(ctx context.Context, listingID domainlistings.ListingID) (domainreviews.Stats, error) {
	items := r.byListing(listingID)
	ratings := make([]int, 0, len(items))
	for _, review := range items {
		ratings = append(ratings, review.Rating)
	}
	return domainreviews.Aggregate(ratings), nil
}

func (r *ReviewsRepository) byListing(listingID domainlistings.ListingID) []*domainreviews.Review {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainreviews.Review, 0)
	for _, review := range r.items {
		if review.ListingID == listingID {
			c := *review
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func reviewKey(listingID domainlistings.ListingID, authorID string) string {
	return string(listingID) + ":" + authorID
}

var (
	_ domainlistings.ListingRepository = (*ListingRepository)(nil)
	_ domainbooking.Repository         = (*BookingRepository)(nil)
	_ domainreviews.Repository         = (*ReviewsRepository)(nil)
)
