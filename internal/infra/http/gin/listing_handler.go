package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"homio/internal/app/dto"
	availabilityapp "homio/internal/app/handlers/availability"
	listingapp "homio/internal/app/handlers/listings"
	"homio/internal/app/queries"
	"homio/internal/domain/shared/daterange"
)

type ListingHTTP interface {
	Search(c *gin.Context)
	Get(c *gin.Context)
	Availability(c *gin.Context)
}

// ListingHandler serves the public catalog.
type ListingHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h ListingHandler) Search(c *gin.Context) {
	query := listingapp.SearchListingsQuery{
		Location:  c.Query("location"),
		MinPrice:  parseInt64(c.Query("min_price")),
		MaxPrice:  parseInt64(c.Query("max_price")),
		MinRating: parseFloat(c.Query("min_rating")),
		Amenities: splitCSV(c.Query("amenities")),
		Sort:      c.Query("sort"),
		Limit:     parseInt(c.Query("limit")),
		Offset:    parseInt(c.Query("offset")),
	}
	result, err := queries.Ask[listingapp.SearchListingsQuery, dto.ListingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Get(c *gin.Context) {
	result, err := queries.Ask[listingapp.GetListingQuery, dto.ListingDetail](c.Request.Context(), h.Queries, listingapp.GetListingQuery{
		ListingID: c.Param("id"),
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Availability answers ?start=&end= for the listing calendar.
func (h ListingHandler) Availability(c *gin.Context) {
	start, errStart := daterange.Parse(c.Query("start"))
	end, errEnd := daterange.Parse(c.Query("end"))
	if errStart != nil || errEnd != nil {
		badRequest(c, "start and end are required as YYYY-MM-DD")
		return
	}
	result, err := queries.Ask[availabilityapp.CheckAvailabilityQuery, dto.Availability](c.Request.Context(), h.Queries, availabilityapp.CheckAvailabilityQuery{
		ListingID: c.Param("id"),
		Start:     start,
		End:       end,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ListingHTTP = ListingHandler{}
