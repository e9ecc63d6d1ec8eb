package listings

import (
	"context"
	"strings"
	"time"

	"homio/internal/domain/shared/events"
	"homio/internal/domain/shared/fault"
)

var (
	ErrListingNotFound   = fault.New(fault.ErrNotFound, "listings: not found")
	ErrTitleRequired     = fault.New(fault.ErrValidation, "listings: title is required")
	ErrDescription       = fault.New(fault.ErrValidation, "listings: description is required")
	ErrLocationRequired  = fault.New(fault.ErrValidation, "listings: location is required")
	ErrCountryRequired   = fault.New(fault.ErrValidation, "listings: country is required")
	ErrNightlyPrice      = fault.New(fault.ErrValidation, "listings: price must be non-negative")
	ErrNotOwner          = fault.New(fault.ErrForbidden, "listings: only the host may modify this listing")
	ErrInvalidRatingData = fault.New(fault.ErrValidation, "listings: rating aggregate out of range")
)

// DefaultImageURL is shown for listings created without a photo.
const DefaultImageURL = "https://images.unsplash.com/photo-1505691938895-1758d7feb511?auto=format&fit=crop&w=1200&q=60"

type ListingID string
type HostID string

type Listing struct {
	ID          ListingID
	Host        HostID
	Title       string
	Description string
	ImageURL    string
	// NightlyPrice is expressed in whole currency units.
	NightlyPrice  int64
	Location      string
	Country       string
	Amenities     []string
	RatingAverage float64
	RatingCount   int
	CreatedAt     time.Time
	UpdatedAt     time.Time
	events.EventRecorder
}

type ListingRepository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, id ListingID) error
	Search(ctx context.Context, params SearchParams) (SearchResult, error)
	ListByHost(ctx context.Context, host HostID) ([]*Listing, error)
}

// Details are the host-editable fields of a listing.
type Details struct {
	Title        string
	Description  string
	ImageURL     string
	NightlyPrice int64
	Location     string
	Country      string
	Amenities    []string
}

func (d Details) normalized() (Details, error) {
	out := Details{
		Title:        strings.TrimSpace(d.Title),
		Description:  strings.TrimSpace(d.Description),
		ImageURL:     strings.TrimSpace(d.ImageURL),
		NightlyPrice: d.NightlyPrice,
		Location:     strings.TrimSpace(d.Location),
		Country:      strings.TrimSpace(d.Country),
		Amenities:    NormalizeAmenities(d.Amenities),
	}
	switch {
	case out.Title == "":
		return Details{}, ErrTitleRequired
	case out.Description == "":
		return Details{}, ErrDescription
	case out.Location == "":
		return Details{}, ErrLocationRequired
	case out.Country == "":
		return Details{}, ErrCountryRequired
	case out.NightlyPrice < 0:
		return Details{}, ErrNightlyPrice
	}
	return out, nil
}

type CreateListingParams struct {
	ID      ListingID
	Host    HostID
	Details Details
	Now     time.Time
}

func NewListing(params CreateListingParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, fault.New(fault.ErrValidation, "listings: id is required")
	}
	if strings.TrimSpace(string(params.Host)) == "" {
		return nil, fault.New(fault.ErrValidation, "listings: host is required")
	}
	details, err := params.Details.normalized()
	if err != nil {
		return nil, err
	}
	if details.ImageURL == "" {
		details.ImageURL = DefaultImageURL
	}
	now := params.Now.UTC()
	listing := &Listing{
		ID:        params.ID,
		Host:      params.Host,
		CreatedAt: now,
		UpdatedAt: now,
	}
	listing.apply(details)
	listing.Record(ListingCreatedEvent{ListingID: listing.ID, HostID: listing.Host, At: now})
	return listing, nil
}

// Update replaces the editable fields. The rating aggregate is never touched here.
func (l *Listing) Update(details Details, now time.Time) error {
	normalized, err := details.normalized()
	if err != nil {
		return err
	}
	if normalized.ImageURL == "" {
		normalized.ImageURL = l.ImageURL
	}
	l.apply(normalized)
	l.UpdatedAt = now.UTC()
	l.Record(ListingUpdatedEvent{ListingID: l.ID, At: l.UpdatedAt})
	return nil
}

func (l *Listing) SetImage(url string, now time.Time) {
	l.ImageURL = strings.TrimSpace(url)
	l.UpdatedAt = now.UTC()
	l.Record(ListingUpdatedEvent{ListingID: l.ID, At: l.UpdatedAt})
}

// ApplyRating stores a freshly computed aggregate. It records an event only
// when the stored values actually change so repeated recomputes stay silent.
func (l *Listing) ApplyRating(average float64, count int, now time.Time) error {
	if count < 0 || average < 0 || average > 5 || (count == 0 && average != 0) {
		return ErrInvalidRatingData
	}
	if l.RatingAverage == average && l.RatingCount == count {
		return nil
	}
	l.RatingAverage = average
	l.RatingCount = count
	l.UpdatedAt = now.UTC()
	l.Record(RatingRecomputedEvent{ListingID: l.ID, Average: average, Count: count, At: l.UpdatedAt})
	return nil
}

func (l *Listing) OwnedBy(host HostID) bool {
	return host != "" && l.Host == host
}

func (l *Listing) apply(d Details) {
	l.Title = d.Title
	l.Description = d.Description
	l.ImageURL = d.ImageURL
	l.NightlyPrice = d.NightlyPrice
	l.Location = d.Location
	l.Country = d.Country
	l.Amenities = d.Amenities
}

// NormalizeAmenities trims, drops empties and de-duplicates while keeping order.
// Entries containing commas are split, so "wifi, pool" and ["wifi","pool"] are equivalent.
func NormalizeAmenities(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			key := strings.ToLower(part)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
