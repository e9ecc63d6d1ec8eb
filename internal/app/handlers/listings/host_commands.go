package listings

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"homio/internal/app/commands"
	"homio/internal/app/dto"
	handlersupport "homio/internal/app/handlers/support"
	"homio/internal/app/uow"
	domainlistings "homio/internal/domain/listings"
)

const (
	createListingKey = "listings.create"
	updateListingKey = "listings.update"
	deleteListingKey = "listings.delete"
)

type CreateListingCommand struct {
	HostID string `validate:"required"`
	Fields ListingFields
}

func (c CreateListingCommand) Key() string { return createListingKey }

type UpdateListingCommand struct {
	ListingID string `validate:"required"`
	HostID    string `validate:"required"`
	Fields    ListingFields
}

func (c UpdateListingCommand) Key() string { return updateListingKey }

type DeleteListingCommand struct {
	ListingID string `validate:"required"`
	HostID    string `validate:"required"`
}

func (c DeleteListingCommand) Key() string { return deleteListingKey }

type CreateListingHandler struct {
	Deps
	Logger *slog.Logger
}

func (h *CreateListingHandler) Handle(ctx context.Context, cmd CreateListingCommand) (dto.Listing, error) {
	var out dto.Listing
	err := handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
			ID:      domainlistings.ListingID(uuid.NewString()),
			Host:    domainlistings.HostID(cmd.HostID),
			Details: cmd.Fields.details(),
			Now:     h.now(),
		})
		if err != nil {
			return err
		}
		if err := unit.Listings().Save(ctx, listing); err != nil {
			return err
		}
		if err := h.record(ctx, listing); err != nil {
			return err
		}
		if h.Logger != nil {
			h.Logger.InfoContext(ctx, "listing created", "listing_id", listing.ID, "host_id", listing.Host)
		}
		out = dto.MapListing(listing, h.Currency)
		return nil
	})
	return out, err
}

type UpdateListingHandler struct {
	Deps
	Logger *slog.Logger
}

func (h *UpdateListingHandler) Handle(ctx context.Context, cmd UpdateListingCommand) (dto.Listing, error) {
	var out dto.Listing
	err := handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		listing, err := loadOwned(ctx, unit, cmd.ListingID, cmd.HostID)
		if err != nil {
			return err
		}
		if err := listing.Update(cmd.Fields.details(), h.now()); err != nil {
			return err
		}
		if err := unit.Listings().Save(ctx, listing); err != nil {
			return err
		}
		if err := h.record(ctx, listing); err != nil {
			return err
		}
		if h.Logger != nil {
			h.Logger.InfoContext(ctx, "listing updated", "listing_id", listing.ID)
		}
		out = dto.MapListing(listing, h.Currency)
		return nil
	})
	return out, err
}

// DeleteListingHandler removes the listing only. Bookings and reviews keep
// their reference to it.
type DeleteListingHandler struct {
	Deps
	Logger *slog.Logger
}

func (h *DeleteListingHandler) Handle(ctx context.Context, cmd DeleteListingCommand) (struct{}, error) {
	err := handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		listing, err := loadOwned(ctx, unit, cmd.ListingID, cmd.HostID)
		if err != nil {
			return err
		}
		if err := unit.Listings().Delete(ctx, listing.ID); err != nil {
			return err
		}
		listing.Record(domainlistings.ListingDeletedEvent{ListingID: listing.ID, HostID: listing.Host, At: h.now()})
		if err := h.record(ctx, listing); err != nil {
			return err
		}
		if h.Logger != nil {
			h.Logger.InfoContext(ctx, "listing deleted", "listing_id", listing.ID)
		}
		return nil
	})
	return struct{}{}, err
}

var (
	_ commands.Handler[CreateListingCommand, dto.Listing] = (*CreateListingHandler)(nil)
	_ commands.Handler[UpdateListingCommand, dto.Listing] = (*UpdateListingHandler)(nil)
	_ commands.Handler[DeleteListingCommand, struct{}]    = (*DeleteListingHandler)(nil)
)
