package reviews

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homio/internal/app/outbox"
	domainbooking "homio/internal/domain/booking"
	domainlistings "homio/internal/domain/listings"
	"homio/internal/domain/shared/daterange"
	"homio/internal/domain/shared/fault"
	"homio/internal/domain/shared/money"
	domainreviews "homio/internal/domain/reviews"
	"homio/internal/infra/storage/memory"
)

var fixedNow = time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T) (memory.Factory, *memory.Outbox) {
	t.Helper()
	factory := memory.NewFactory()
	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:      "l1",
		Host:    "h1",
		Details: domainlistings.Details{Title: "Loft", Description: "Top floor loft", NightlyPrice: 80, Location: "Goa", Country: "India"},
		Now:     fixedNow,
	})
	require.NoError(t, err)
	require.NoError(t, factory.ListingsRepo.Save(context.Background(), listing))
	return factory, memory.NewOutbox()
}

func stayed(t *testing.T, factory memory.Factory, guest string) {
	t.Helper()
	dr, err := daterange.New(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID("b-" + guest),
		ListingID: "l1",
		GuestID:   guest,
		Range:     dr,
		Nightly:   money.Must(80, "INR"),
		OrderID:   "order-" + guest,
		CreatedAt: fixedNow,
	})
	require.NoError(t, err)
	require.NoError(t, b.MarkPaid("pay-"+guest, "sig", fixedNow))
	require.NoError(t, factory.BookingRepo.Save(context.Background(), b))
}

func handler(factory memory.Factory, box *memory.Outbox) *SubmitReviewHandler {
	return &SubmitReviewHandler{UoWFactory: factory, Outbox: box, Encoder: outbox.JSONEventEncoder{}, Clock: func() time.Time { return fixedNow }}
}

func listing(t *testing.T, factory memory.Factory) *domainlistings.Listing {
	t.Helper()
	l, err := factory.ListingsRepo.ByID(context.Background(), "l1")
	require.NoError(t, err)
	return l
}

func TestSubmitReviewUpdatesListingAggregate(t *testing.T) {
	factory, box := seed(t)
	stayed(t, factory, "g1")
	stayed(t, factory, "g2")
	h := handler(factory, box)

	out, err := h.Handle(context.Background(), SubmitReviewCommand{ListingID: "l1", AuthorID: "g1", Rating: 5, Comment: "  Lovely stay  "})
	require.NoError(t, err)
	assert.Equal(t, "Lovely stay", out.Comment)
	_, err = h.Handle(context.Background(), SubmitReviewCommand{ListingID: "l1", AuthorID: "g2", Rating: 4, Comment: "Good value"})
	require.NoError(t, err)

	l := listing(t, factory)
	assert.InDelta(t, 4.5, l.RatingAverage, 1e-9)
	assert.Equal(t, 2, l.RatingCount)
	assert.Contains(t, box.Names(), "review.submitted")
	assert.Contains(t, box.Names(), "listing.rating_recomputed")
}

func TestSubmitReviewRequiresConfirmedStay(t *testing.T) {
	factory, box := seed(t)

	_, err := handler(factory, box).Handle(context.Background(), SubmitReviewCommand{ListingID: "l1", AuthorID: "stranger", Rating: 5, Comment: "Never been"})
	require.ErrorIs(t, err, domainreviews.ErrNotEligible)
	assert.ErrorIs(t, err, fault.ErrForbidden)
}

func TestSubmitReviewRejectsSecondReview(t *testing.T) {
	factory, box := seed(t)
	stayed(t, factory, "g1")
	h := handler(factory, box)

	_, err := h.Handle(context.Background(), SubmitReviewCommand{ListingID: "l1", AuthorID: "g1", Rating: 2, Comment: "Too noisy"})
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), SubmitReviewCommand{ListingID: "l1", AuthorID: "g1", Rating: 5, Comment: "Changed my mind"})
	require.ErrorIs(t, err, domainreviews.ErrDuplicateReview)
	assert.ErrorIs(t, err, fault.ErrConflict)

	l := listing(t, factory)
	assert.InDelta(t, 2.0, l.RatingAverage, 1e-9)
	assert.Equal(t, 1, l.RatingCount)
}

func TestSubmitReviewValidatesContent(t *testing.T) {
	factory, box := seed(t)
	stayed(t, factory, "g1")
	h := handler(factory, box)

	_, err := h.Handle(context.Background(), SubmitReviewCommand{ListingID: "l1", AuthorID: "g1", Rating: 6, Comment: "Great place"})
	assert.ErrorIs(t, err, domainreviews.ErrInvalidRating)

	_, err = h.Handle(context.Background(), SubmitReviewCommand{ListingID: "l1", AuthorID: "g1", Rating: 4, Comment: " ok "})
	assert.ErrorIs(t, err, domainreviews.ErrInvalidComment)

	assert.Zero(t, listing(t, factory).RatingCount)
}

func TestRecomputeRatingIsIdempotent(t *testing.T) {
	factory, box := seed(t)
	stayed(t, factory, "g1")
	_, err := handler(factory, box).Handle(context.Background(), SubmitReviewCommand{ListingID: "l1", AuthorID: "g1", Rating: 3, Comment: "Fine overall"})
	require.NoError(t, err)
	before := len(box.Names())

	h := &RecomputeRatingHandler{UoWFactory: factory, Outbox: box, Clock: func() time.Time { return fixedNow.Add(time.Hour) }}
	first, err := h.Handle(context.Background(), RecomputeRatingCommand{ListingID: "l1"})
	require.NoError(t, err)
	second, err := h.Handle(context.Background(), RecomputeRatingCommand{ListingID: "l1"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.InDelta(t, 3.0, second.RatingAverage, 1e-9)
	assert.Equal(t, 1, second.RatingCount)
	assert.Len(t, box.Names(), before)
}

func TestListReviewsNewestFirst(t *testing.T) {
	factory, box := seed(t)
	stayed(t, factory, "g1")
	stayed(t, factory, "g2")
	h := handler(factory, box)
	_, err := h.Handle(context.Background(), SubmitReviewCommand{ListingID: "l1", AuthorID: "g1", Rating: 4, Comment: "First visit"})
	require.NoError(t, err)
	h.Clock = func() time.Time { return fixedNow.Add(24 * time.Hour) }
	_, err = h.Handle(context.Background(), SubmitReviewCommand{ListingID: "l1", AuthorID: "g2", Rating: 2, Comment: "Second visit"})
	require.NoError(t, err)

	out, err := (&ListListingReviewsHandler{UoWFactory: factory}).Handle(context.Background(), ListListingReviewsQuery{ListingID: "l1"})
	require.NoError(t, err)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "g2", out.Items[0].AuthorID)
	assert.Equal(t, 2, out.RatingCount)
	assert.InDelta(t, 3.0, out.RatingAverage, 1e-9)
}
