package reviews

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"homio/internal/domain/listings"
	"homio/internal/domain/shared/events"
	"homio/internal/domain/shared/fault"
)

var (
	ErrInvalidRating   = fault.New(fault.ErrValidation, "reviews: rating must be between 1 and 5")
	ErrInvalidComment  = fault.New(fault.ErrValidation, "reviews: comment must be between 5 and 500 characters")
	ErrAuthorRequired  = fault.New(fault.ErrValidation, "reviews: author is required")
	ErrNotEligible     = fault.New(fault.ErrForbidden, "reviews: only guests with a confirmed booking may review")
	ErrDuplicateReview = fault.New(fault.ErrConflict, "reviews: listing already reviewed by this user")
)

const (
	MinRating     = 1
	MaxRating     = 5
	MinCommentLen = 5
	MaxCommentLen = 500
)

type ReviewID string

type Review struct {
	ID        ReviewID
	ListingID listings.ListingID
	AuthorID  string
	Rating    int
	Comment   string
	CreatedAt time.Time
	events.EventRecorder
}

// Stats is the rating aggregate of a listing. Average is 0 when Count is 0.
type Stats struct {
	Average float64
	Count   int
}

type Repository interface {
	// Save inserts a review and returns ErrDuplicateReview when the author
	// already reviewed the listing.
	Save(ctx context.Context, review *Review) error
	// ListByListing returns reviews newest first.
	ListByListing(ctx context.Context, listingID listings.ListingID, limit, offset int) ([]*Review, error)
	Stats(ctx context.Context, listingID listings.ListingID) (Stats, error)
}

type SubmitParams struct {
	ID        ReviewID
	ListingID listings.ListingID
	AuthorID  string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

func Submit(params SubmitParams) (*Review, error) {
	if strings.TrimSpace(params.AuthorID) == "" {
		return nil, ErrAuthorRequired
	}
	if params.Rating < MinRating || params.Rating > MaxRating {
		return nil, ErrInvalidRating
	}
	comment := strings.TrimSpace(params.Comment)
	if n := utf8.RuneCountInString(comment); n < MinCommentLen || n > MaxCommentLen {
		return nil, ErrInvalidComment
	}
	review := &Review{
		ID:        params.ID,
		ListingID: params.ListingID,
		AuthorID:  params.AuthorID,
		Rating:    params.Rating,
		Comment:   comment,
		CreatedAt: params.CreatedAt.UTC(),
	}
	review.Record(ReviewSubmitted{ReviewID: review.ID, ListingID: review.ListingID, AuthorID: review.AuthorID, Rating: review.Rating, At: review.CreatedAt})
	return review, nil
}

// Aggregate computes Stats from ratings; used by stores without a native
// aggregation pipeline.
func Aggregate(ratings []int) Stats {
	if len(ratings) == 0 {
		return Stats{}
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return Stats{Average: float64(sum) / float64(len(ratings)), Count: len(ratings)}
}

// ReviewSubmitted is published on the review topic; the listing rating
// follows as a separate listing.rating_recomputed event.
type ReviewSubmitted struct {
	ReviewID  ReviewID           `json:"review_id"`
	ListingID listings.ListingID `json:"listing_id"`
	AuthorID  string             `json:"author_id"`
	Rating    int                `json:"rating"`
	At        time.Time          `json:"occurred_at"`
}

func (e ReviewSubmitted) EventName() string     { return "review.submitted" }
func (e ReviewSubmitted) AggregateID() string   { return string(e.ReviewID) }
func (e ReviewSubmitted) OccurredAt() time.Time { return e.At }
