package reviews

import (
	"context"

	"homio/internal/app/dto"
	handlersupport "homio/internal/app/handlers/support"
	"homio/internal/app/queries"
	"homio/internal/app/uow"
	domainlistings "homio/internal/domain/listings"
)

const (
	listListingReviewsKey = "reviews.listing.list"

	defaultReviewPage = 20
	maxReviewPage     = 100
)

// ListListingReviewsQuery retrieves reviews for a listing, newest first.
type ListListingReviewsQuery struct {
	ListingID string `validate:"required"`
	Limit     int    `validate:"gte=0"`
	Offset    int    `validate:"gte=0"`
}

func (q ListListingReviewsQuery) Key() string { return listListingReviewsKey }

type ListListingReviewsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListListingReviewsHandler) Handle(ctx context.Context, q ListListingReviewsQuery) (dto.ReviewCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	defer cleanup()

	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	items, err := unit.Reviews().ListByListing(execCtx, listing.ID, normalizeLimit(q.Limit), max(q.Offset, 0))
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	return dto.ReviewCollection{
		Items:         dto.MapReviews(items),
		RatingAverage: listing.RatingAverage,
		RatingCount:   listing.RatingCount,
	}, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultReviewPage
	}
	return min(limit, maxReviewPage)
}

var _ queries.Handler[ListListingReviewsQuery, dto.ReviewCollection] = (*ListListingReviewsHandler)(nil)
