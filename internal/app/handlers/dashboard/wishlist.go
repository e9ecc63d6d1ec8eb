package dashboard

import (
	"context"
	"log/slog"
	"time"

	"homio/internal/app/commands"
	"homio/internal/app/dto"
	handlersupport "homio/internal/app/handlers/support"
	"homio/internal/app/uow"
	domainlistings "homio/internal/domain/listings"
	domainuser "homio/internal/domain/user"
)

const toggleWishlistKey = "dashboard.wishlist.toggle"

type ToggleWishlistCommand struct {
	UserID    string `validate:"required"`
	ListingID string `validate:"required"`
}

func (c ToggleWishlistCommand) Key() string { return toggleWishlistKey }

type ToggleWishlistHandler struct {
	UoWFactory uow.UoWFactory
	Clock      func() time.Time
	Logger     *slog.Logger
}

func (h *ToggleWishlistHandler) Handle(ctx context.Context, cmd ToggleWishlistCommand) (dto.WishlistToggle, error) {
	var out dto.WishlistToggle
	err := handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		listingID := domainlistings.ListingID(cmd.ListingID)
		u, err := unit.Users().ByID(ctx, domainuser.ID(cmd.UserID))
		if err != nil {
			return err
		}
		if !u.InWishlist(listingID) {
			if _, err := unit.Listings().ByID(ctx, listingID); err != nil {
				return err
			}
		}
		now := time.Now()
		if h.Clock != nil {
			now = h.Clock()
		}
		saved := u.ToggleWishlist(listingID, now)
		if err := unit.Users().Save(ctx, u); err != nil {
			return err
		}
		if h.Logger != nil {
			h.Logger.InfoContext(ctx, "wishlist toggled", "user_id", u.ID, "listing_id", listingID, "in_wishlist", saved)
		}
		out = dto.WishlistToggle{ListingID: cmd.ListingID, InWishlist: saved}
		return nil
	})
	return out, err
}

var _ commands.Handler[ToggleWishlistCommand, dto.WishlistToggle] = (*ToggleWishlistHandler)(nil)
