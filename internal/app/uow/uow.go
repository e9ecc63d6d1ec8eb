// Package uow defines the transaction boundary shared by command handlers.
package uow

import (
	"context"

	domainbooking "homio/internal/domain/booking"
	domainlistings "homio/internal/domain/listings"
	domainreviews "homio/internal/domain/reviews"
	domainuser "homio/internal/domain/user"
)

type UnitOfWork interface {
	Listings() domainlistings.ListingRepository
	Bookings() domainbooking.Repository
	Reviews() domainreviews.Repository
	Users() domainuser.Repository

	Commit(ctx context.Context) error
	// Rollback after Commit is a no-op.
	Rollback(ctx context.Context) error
}

// UoWFactory opens units. The Mongo factory backs writable units with a
// multi-document transaction; the in-memory one applies writes immediately.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	// ReadOnly units never write; stores may skip locking for them.
	ReadOnly bool
}

var (
	ReadWrite = TxOptions{}
	ReadOnly  = TxOptions{ReadOnly: true}
)
