package listings

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"homio/internal/app/commands"
	"homio/internal/app/dto"
	handlersupport "homio/internal/app/handlers/support"
	"homio/internal/app/policies"
	"homio/internal/app/uow"
	"homio/internal/domain/shared/fault"
)

const uploadListingImageKey = "listings.image.upload"

var (
	ErrImageStoreUnavailable = fault.New(fault.ErrUpstream, "listings: image store unavailable")
	ErrUnsupportedImage      = fault.New(fault.ErrValidation, "listings: image must be jpeg, png or webp")
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type UploadListingImageCommand struct {
	ListingID   string `validate:"required"`
	HostID      string `validate:"required"`
	ContentType string `validate:"required"`
	Reader      io.Reader
}

func (c UploadListingImageCommand) Key() string { return uploadListingImageKey }

type UploadListingImageHandler struct {
	Deps
	Images policies.ImageStore
	Logger *slog.Logger
}

func (h *UploadListingImageHandler) Handle(ctx context.Context, cmd UploadListingImageCommand) (dto.Listing, error) {
	if h.Images == nil {
		return dto.Listing{}, ErrImageStoreUnavailable
	}
	ext, ok := imageExtensions[strings.ToLower(strings.TrimSpace(cmd.ContentType))]
	if !ok || cmd.Reader == nil {
		return dto.Listing{}, ErrUnsupportedImage
	}
	var out dto.Listing
	err := handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		listing, err := loadOwned(ctx, unit, cmd.ListingID, cmd.HostID)
		if err != nil {
			return err
		}
		key := fmt.Sprintf("listings/%s/%s%s", listing.ID, uuid.NewString(), ext)
		publicURL, err := h.Images.Upload(ctx, key, cmd.Reader, cmd.ContentType)
		if err != nil {
			return fault.Wrap(fault.ErrUpstream, fmt.Errorf("upload image: %w", err))
		}
		listing.SetImage(publicURL, h.now())
		if err := unit.Listings().Save(ctx, listing); err != nil {
			return err
		}
		if err := h.record(ctx, listing); err != nil {
			return err
		}
		if h.Logger != nil {
			h.Logger.InfoContext(ctx, "listing image uploaded", "listing_id", listing.ID, "object_key", key)
		}
		out = dto.MapListing(listing, h.Currency)
		return nil
	})
	return out, err
}

var _ commands.Handler[UploadListingImageCommand, dto.Listing] = (*UploadListingImageHandler)(nil)
