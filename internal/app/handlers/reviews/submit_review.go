package reviews

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"homio/internal/app/commands"
	"homio/internal/app/dto"
	handlersupport "homio/internal/app/handlers/support"
	"homio/internal/app/outbox"
	"homio/internal/app/uow"
	domainlistings "homio/internal/domain/listings"
	domainreviews "homio/internal/domain/reviews"
	"homio/internal/domain/shared/events"
)

const submitReviewKey = "reviews.submit"

// SubmitReviewCommand creates a review for a listing the author stayed at.
type SubmitReviewCommand struct {
	ListingID string `validate:"required"`
	AuthorID  string `validate:"required"`
	Rating    int    `validate:"min=1,max=5"`
	Comment   string `validate:"required"`
}

func (c SubmitReviewCommand) Key() string { return submitReviewKey }

// SubmitReviewHandler stores the review and refreshes the listing rating in
// the same unit of work.
type SubmitReviewHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
	Logger     *slog.Logger
}

func (h *SubmitReviewHandler) Handle(ctx context.Context, cmd SubmitReviewCommand) (dto.Review, error) {
	var out dto.Review
	err := handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		listingID := domainlistings.ListingID(cmd.ListingID)
		if _, err := unit.Listings().ByID(ctx, listingID); err != nil {
			return err
		}
		eligible, err := unit.Bookings().HasConfirmed(ctx, listingID, cmd.AuthorID)
		if err != nil {
			return err
		}
		if !eligible {
			return domainreviews.ErrNotEligible
		}
		at := now(h.Clock)
		review, err := domainreviews.Submit(domainreviews.SubmitParams{
			ID:        domainreviews.ReviewID(uuid.NewString()),
			ListingID: listingID,
			AuthorID:  cmd.AuthorID,
			Rating:    cmd.Rating,
			Comment:   cmd.Comment,
			CreatedAt: at,
		})
		if err != nil {
			return err
		}
		if err := unit.Reviews().Save(ctx, review); err != nil {
			return err
		}
		listing, err := RecomputeListingRating(ctx, unit, listingID, at)
		if err != nil {
			return err
		}
		pending := events.Collect(review, listing)
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, pending); err != nil {
			return err
		}
		if h.Logger != nil {
			h.Logger.InfoContext(ctx, "review submitted", "review_id", review.ID, "listing_id", listingID, "rating", review.Rating)
			h.Logger.InfoContext(ctx, "listing rating recomputed", "listing_id", listingID, "average", listing.RatingAverage, "count", listing.RatingCount)
		}
		out = dto.MapReview(review)
		return nil
	})
	return out, err
}

var _ commands.Handler[SubmitReviewCommand, dto.Review] = (*SubmitReviewHandler)(nil)
