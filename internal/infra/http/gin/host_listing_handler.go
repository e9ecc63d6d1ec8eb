package ginserver

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"homio/internal/app/commands"
	"homio/internal/app/dto"
	listingapp "homio/internal/app/handlers/listings"
	domainuser "homio/internal/domain/user"
)

const maxListingImageBytes = 5 << 20

type HostListingHTTP interface {
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	UploadImage(c *gin.Context)
}

type HostListingHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

type listingRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
	Price       int64   `json:"price"`
	Location    string  `json:"location"`
	Country     string  `json:"country"`
	Amenities   csvList `json:"amenities"`
}

func (r listingRequest) fields() listingapp.ListingFields {
	return listingapp.ListingFields{
		Title:       r.Title,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		Price:       r.Price,
		Location:    r.Location,
		Country:     r.Country,
		Amenities:   []string(r.Amenities),
	}
}

func (h HostListingHandler) Create(c *gin.Context) {
	host, ok := requireRole(c, domainuser.RoleHost)
	if !ok {
		return
	}
	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid listing: "+err.Error())
		return
	}
	listing, err := commands.Dispatch[listingapp.CreateListingCommand, dto.Listing](c.Request.Context(), h.Commands, listingapp.CreateListingCommand{
		HostID: host.ID,
		Fields: req.fields(),
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, listing)
}

func (h HostListingHandler) Update(c *gin.Context) {
	host, ok := requireRole(c, domainuser.RoleHost)
	if !ok {
		return
	}
	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid listing: "+err.Error())
		return
	}
	listing, err := commands.Dispatch[listingapp.UpdateListingCommand, dto.Listing](c.Request.Context(), h.Commands, listingapp.UpdateListingCommand{
		ListingID: c.Param("id"),
		HostID:    host.ID,
		Fields:    req.fields(),
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (h HostListingHandler) Delete(c *gin.Context) {
	host, ok := requireRole(c, domainuser.RoleHost)
	if !ok {
		return
	}
	_, err := commands.Dispatch[listingapp.DeleteListingCommand, struct{}](c.Request.Context(), h.Commands, listingapp.DeleteListingCommand{
		ListingID: c.Param("id"),
		HostID:    host.ID,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadImage takes a multipart "image" field. The content type is sniffed
// from the bytes rather than trusted from the client.
func (h HostListingHandler) UploadImage(c *gin.Context) {
	host, ok := requireRole(c, domainuser.RoleHost)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("image")
	if err != nil {
		badRequest(c, "image file is required")
		return
	}
	if fileHeader.Size > maxListingImageBytes {
		badRequest(c, fmt.Sprintf("image too large (max %d MB)", maxListingImageBytes>>20))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		badRequest(c, "cannot open image")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxListingImageBytes+1))
	if err != nil {
		respondError(c, h.Logger, fmt.Errorf("read image: %w", err))
		return
	}
	if len(data) == 0 {
		badRequest(c, "image file is empty")
		return
	}
	if len(data) > maxListingImageBytes {
		badRequest(c, fmt.Sprintf("image too large (max %d MB)", maxListingImageBytes>>20))
		return
	}
	listing, err := commands.Dispatch[listingapp.UploadListingImageCommand, dto.Listing](c.Request.Context(), h.Commands, listingapp.UploadListingImageCommand{
		ListingID:   c.Param("id"),
		HostID:      host.ID,
		ContentType: http.DetectContentType(data),
		Reader:      bytes.NewReader(data),
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

var _ HostListingHTTP = HostListingHandler{}
