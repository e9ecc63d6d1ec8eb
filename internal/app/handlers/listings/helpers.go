package listings

import (
	"context"
	"time"

	"homio/internal/app/outbox"
	"homio/internal/app/uow"
	domainlistings "homio/internal/domain/listings"
)

// Deps are the collaborators shared by the listing use cases.
type Deps struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Currency   string
	Clock      func() time.Time
}

func (d Deps) now() time.Time {
	if d.Clock != nil {
		return d.Clock().UTC()
	}
	return time.Now().UTC()
}

func (d Deps) record(ctx context.Context, l *domainlistings.Listing) error {
	return outbox.RecordDomainEvents(ctx, d.Outbox, d.Encoder, l.Drain())
}

func loadOwned(ctx context.Context, unit uow.UnitOfWork, id, hostID string) (*domainlistings.Listing, error) {
	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(id))
	if err != nil {
		return nil, err
	}
	if !listing.OwnedBy(domainlistings.HostID(hostID)) {
		return nil, domainlistings.ErrNotOwner
	}
	return listing, nil
}

// ListingFields is the host-editable payload shared by create and update.
type ListingFields struct {
	Title       string   `validate:"required,max=200"`
	Description string   `validate:"required,max=5000"`
	ImageURL    string   `validate:"omitempty,url"`
	Price       int64    `validate:"gte=0"`
	Location    string   `validate:"required,max=200"`
	Country     string   `validate:"required,max=100"`
	Amenities   []string `validate:"omitempty,dive,max=64"`
}

func (f ListingFields) details() domainlistings.Details {
	return domainlistings.Details{
		Title:        f.Title,
		Description:  f.Description,
		ImageURL:     f.ImageURL,
		NightlyPrice: f.Price,
		Location:     f.Location,
		Country:      f.Country,
		Amenities:    append([]string(nil), f.Amenities...),
	}
}
