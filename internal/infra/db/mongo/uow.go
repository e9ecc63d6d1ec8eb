package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"homio/internal/app/uow"
	domainbooking "homio/internal/domain/booking"
	domainlistings "homio/internal/domain/listings"
	domainreviews "homio/internal/domain/reviews"
	domainuser "homio/internal/domain/user"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	ListingsRepo domainlistings.ListingRepository
	BookingRepo  domainbooking.Repository
	ReviewsRepo  domainreviews.Repository
	UsersRepo    domainuser.Repository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// NewFactory builds a factory with repositories over db.
func NewFactory(db *mongo.Database) Factory {
	return Factory{
		DB:           db,
		ListingsRepo: NewListingRepository(db),
		BookingRepo:  NewBookingRepository(db),
		ReviewsRepo:  NewReviewRepository(db),
		UsersRepo:    NewUserRepository(db),
	}
}

// Begin starts a MongoDB session. Writable units also open a transaction;
// read-only units only pin reads to the session.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	if !opts.ReadOnly {
		txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
		if err := session.StartTransaction(txnOpts); err != nil {
			session.EndSession(ctx)
			return nil, err
		}
	}
	return &Unit{
		session:  session,
		inTxn:    !opts.ReadOnly,
		listings: f.ListingsRepo,
		bookings: f.BookingRepo,
		reviews:  f.ReviewsRepo,
		users:    f.UsersRepo,
	}, nil
}

type Unit struct {
	session mongo.Session
	inTxn   bool
	ended   bool

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
	return u.finish(ctx, u.session.CommitTransaction)
}

func (u *Unit) Rollback(ctx context.Context) error {
	return u.finish(ctx, u.session.AbortTransaction)
}

// finish ends the session once; later calls do nothing.
func (u *Unit) finish(ctx context.Context, end func(context.Context) error) error {
	if u.ended {
		return nil
	}
	u.ended = true
	defer u.session.EndSession(ctx)
	if !u.inTxn {
		return nil
	}
	return end(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var (
	_ uow.UoWFactory      = Factory{}
	_ uow.ContextInjector = (*Unit)(nil)
)
