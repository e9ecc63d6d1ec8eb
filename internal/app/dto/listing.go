package dto

import (
	"time"

	domainbooking "homio/internal/domain/booking"
	domainlistings "homio/internal/domain/listings"
)

type Listing struct {
	ID            string    `json:"id"`
	HostID        string    `json:"host_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ImageURL      string    `json:"image_url"`
	Price         int64     `json:"price"`
	Currency      string    `json:"currency"`
	Location      string    `json:"location"`
	Country       string    `json:"country"`
	Amenities     []string  `json:"amenities"`
	RatingAverage float64   `json:"rating_average"`
	RatingCount   int       `json:"rating_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ListingCollection struct {
	Items  []Listing `json:"items"`
	Total  int       `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
	Sort   string    `json:"sort"`
}

type BookedRange struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// ListingDetail is the listing page: the listing, its reviews and the dates
// already held by live bookings.
type ListingDetail struct {
	Listing     Listing       `json:"listing"`
	Reviews     []Review      `json:"reviews"`
	BookedDates []BookedRange `json:"booked_dates"`
}

func MapListing(listing *domainlistings.Listing, currency string) Listing {
	if listing == nil {
		return Listing{}
	}
	amenities := append([]string{}, listing.Amenities...)
	return Listing{
		ID:            string(listing.ID),
		HostID:        string(listing.Host),
		Title:         listing.Title,
		Description:   listing.Description,
		ImageURL:      listing.ImageURL,
		Price:         listing.NightlyPrice,
		Currency:      currency,
		Location:      listing.Location,
		Country:       listing.Country,
		Amenities:     amenities,
		RatingAverage: listing.RatingAverage,
		RatingCount:   listing.RatingCount,
		CreatedAt:     listing.CreatedAt,
		UpdatedAt:     listing.UpdatedAt,
	}
}

func MapBookedRanges(bookings []*domainbooking.Booking) []BookedRange {
	return MapAll(bookings, func(b *domainbooking.Booking) BookedRange {
		return BookedRange{StartDate: b.Range.Start, EndDate: b.Range.End}
	})
}
