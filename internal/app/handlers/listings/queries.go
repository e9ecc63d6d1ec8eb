package listings

import (
	"context"
	"log/slog"

	"homio/internal/app/dto"
	handlersupport "homio/internal/app/handlers/support"
	"homio/internal/app/queries"
	domainlistings "homio/internal/domain/listings"
	"homio/internal/domain/shared/daterange"
)

const (
	searchListingsKey = "listings.search"
	getListingKey     = "listings.get"
	detailReviewLimit = 100
)

// SearchListingsQuery describes catalog filters. Zero values disable a filter.
type SearchListingsQuery struct {
	Location  string   `validate:"omitempty,max=100"`
	MinPrice  int64    `validate:"gte=0"`
	MaxPrice  int64    `validate:"gte=0"`
	MinRating float64  `validate:"gte=0,lte=5"`
	Amenities []string `validate:"omitempty,dive,max=64"`
	Sort      string   `validate:"omitempty,oneof=price_asc price_desc rating_desc newest"`
	Limit     int      `validate:"gte=0"`
	Offset    int      `validate:"gte=0"`
}

func (q SearchListingsQuery) Key() string { return searchListingsKey }

type SearchListingsHandler struct {
	Deps
}

func (h *SearchListingsHandler) Handle(ctx context.Context, q SearchListingsQuery) (dto.ListingCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	defer cleanup()

	params := domainlistings.SearchParams{
		Location:  q.Location,
		MinPrice:  q.MinPrice,
		MaxPrice:  q.MaxPrice,
		MinRating: q.MinRating,
		Amenities: append([]string(nil), q.Amenities...),
		Sort:      domainlistings.CatalogSort(q.Sort),
		Limit:     q.Limit,
		Offset:    q.Offset,
	}.Normalized()

	result, err := unit.Listings().Search(execCtx, params)
	if err != nil {
		return dto.ListingCollection{}, err
	}
	return dto.ListingCollection{
		Items: dto.MapAll(result.Items, func(l *domainlistings.Listing) dto.Listing {
			return dto.MapListing(l, h.Currency)
		}),
		Total:  result.Total,
		Limit:  params.Limit,
		Offset: params.Offset,
		Sort:   string(params.Sort),
	}, nil
}

type GetListingQuery struct {
	ListingID string `validate:"required"`
}

func (q GetListingQuery) Key() string { return getListingKey }

// GetListingHandler assembles the listing page.
type GetListingHandler struct {
	Deps
	Logger *slog.Logger
}

func (h *GetListingHandler) Handle(ctx context.Context, q GetListingQuery) (dto.ListingDetail, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ListingDetail{}, err
	}
	defer cleanup()

	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.ListingDetail{}, err
	}
	reviews, err := unit.Reviews().ListByListing(execCtx, listing.ID, detailReviewLimit, 0)
	if err != nil {
		return dto.ListingDetail{}, err
	}
	today := daterange.Normalize(h.now())
	booked, err := unit.Bookings().LiveByListing(execCtx, listing.ID, today)
	if err != nil {
		return dto.ListingDetail{}, err
	}
	if h.Logger != nil {
		h.Logger.DebugContext(ctx, "listing detail loaded", "listing_id", listing.ID, "reviews", len(reviews), "booked", len(booked))
	}
	return dto.ListingDetail{
		Listing:     dto.MapListing(listing, h.Currency),
		Reviews:     dto.MapReviews(reviews),
		BookedDates: dto.MapBookedRanges(booked),
	}, nil
}

var (
	_ queries.Handler[SearchListingsQuery, dto.ListingCollection] = (*SearchListingsHandler)(nil)
	_ queries.Handler[GetListingQuery, dto.ListingDetail]         = (*GetListingHandler)(nil)
)
