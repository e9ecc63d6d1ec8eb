package reviews

import (
	"context"
	"log/slog"
	"time"

	"homio/internal/app/commands"
	"homio/internal/app/dto"
	handlersupport "homio/internal/app/handlers/support"
	"homio/internal/app/outbox"
	"homio/internal/app/uow"
	domainlistings "homio/internal/domain/listings"
)

const recomputeRatingKey = "reviews.rating.recompute"

// RecomputeListingRating reads the review aggregate and stores it on the
// listing. Running it twice without new reviews leaves the listing unchanged.
func RecomputeListingRating(ctx context.Context, unit uow.UnitOfWork, listingID domainlistings.ListingID, now time.Time) (*domainlistings.Listing, error) {
	stats, err := unit.Reviews().Stats(ctx, listingID)
	if err != nil {
		return nil, err
	}
	listing, err := unit.Listings().ByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if err := listing.ApplyRating(stats.Average, stats.Count, now); err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// RecomputeRatingCommand rebuilds a listing aggregate on demand, e.g. after a
// manual data fix.
type RecomputeRatingCommand struct {
	ListingID string `validate:"required"`
}

func (c RecomputeRatingCommand) Key() string { return recomputeRatingKey }

type RecomputeRatingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
	Logger     *slog.Logger
}

func (h *RecomputeRatingHandler) Handle(ctx context.Context, cmd RecomputeRatingCommand) (dto.RatingSummary, error) {
	var out dto.RatingSummary
	err := handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		listing, err := RecomputeListingRating(ctx, unit, domainlistings.ListingID(cmd.ListingID), now(h.Clock))
		if err != nil {
			return err
		}
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, listing.Drain()); err != nil {
			return err
		}
		if h.Logger != nil {
			h.Logger.InfoContext(ctx, "listing rating recomputed", "listing_id", listing.ID, "average", listing.RatingAverage, "count", listing.RatingCount)
		}
		out = dto.RatingSummary{ListingID: string(listing.ID), RatingAverage: listing.RatingAverage, RatingCount: listing.RatingCount}
		return nil
	})
	return out, err
}

func now(clock func() time.Time) time.Time {
	if clock != nil {
		return clock().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[RecomputeRatingCommand, dto.RatingSummary] = (*RecomputeRatingHandler)(nil)
