package memory

import (
	"context"
	"errors"

	"homio/internal/app/uow"
	domainbooking "homio/internal/domain/booking"
	domainlistings "homio/internal/domain/listings"
	domainreviews "homio/internal/domain/reviews"
	domainuser "homio/internal/domain/user"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	ListingsRepo domainlistings.ListingRepository
	BookingRepo  domainbooking.Repository
	ReviewsRepo  domainreviews.Repository
	UsersRepo    domainuser.Repository
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// NewFactory builds a factory over fresh empty repositories.
func NewFactory() Factory {
	return Factory{
		ListingsRepo: NewListingRepository(),
		BookingRepo:  NewBookingRepository(),
		ReviewsRepo:  NewReviewsRepository(),
		UsersRepo:    NewUserRepository(),
	}
}

// Begin starts a lightweight transaction boundary. Writes are applied
// immediately; no isolation or rollback is provided.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.ListingsRepo == nil || f.BookingRepo == nil || f.ReviewsRepo == nil || f.UsersRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		listings: f.ListingsRepo,
		bookings: f.BookingRepo,
		reviews:  f.ReviewsRepo,
		users:    f.UsersRepo,
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	listings domainlistings.ListingRepository
	bookings domainbooking.Repository
	reviews  domainreviews.Repository
	users    domainuser.Repository
}

func (u *Unit) Listings() domainlistings.ListingRepository { return u.listings }

func (u *Unit) Bookings() domainbooking.Repository { return u.bookings }

func (u *Unit) Reviews() domainreviews.Repository { return u.reviews }

func (u *Unit) Users() domainuser.Repository { return u.users }

func (u *Unit) Commit(ctx context.Context) error {
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	return nil
}

var _ uow.UoWFactory = Factory{}
