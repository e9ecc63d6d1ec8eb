package dto

import (
	"time"

	domainreviews "homio/internal/domain/reviews"
)

type Review struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listing_id"`
	AuthorID  string    `json:"author_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type ReviewCollection struct {
	Items         []Review `json:"items"`
	RatingAverage float64  `json:"rating_average"`
	RatingCount   int      `json:"rating_count"`
}

type RatingSummary struct {
	ListingID     string  `json:"listing_id"`
	RatingAverage float64 `json:"rating_average"`
	RatingCount   int     `json:"rating_count"`
}

// MapReview builds a DTO from a domain review.
func MapReview(review *domainreviews.Review) Review {
	if review == nil {
		return Review{}
	}
	return Review{
		ID:        string(review.ID),
		ListingID: string(review.ListingID),
		AuthorID:  review.AuthorID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		CreatedAt: review.CreatedAt,
	}
}

func MapReviews(items []*domainreviews.Review) []Review {
	return MapAll(items, MapReview)
}
