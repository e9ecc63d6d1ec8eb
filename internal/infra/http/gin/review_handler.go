package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"homio/internal/app/commands"
	"homio/internal/app/dto"
	reviewsapp "homio/internal/app/handlers/reviews"
	"homio/internal/app/queries"
	domainuser "homio/internal/domain/user"
)

type ReviewsHTTP interface {
	Create(c *gin.Context)
	List(c *gin.Context)
}

type ReviewsHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type submitReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h ReviewsHandler) Create(c *gin.Context) {
	user, ok := requireRole(c, domainuser.RoleUser)
	if !ok {
		return
	}
	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid review: "+err.Error())
		return
	}
	review, err := commands.Dispatch[reviewsapp.SubmitReviewCommand, dto.Review](c.Request.Context(), h.Commands, reviewsapp.SubmitReviewCommand{
		ListingID: c.Param("id"),
		AuthorID:  user.ID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h ReviewsHandler) List(c *gin.Context) {
	result, err := queries.Ask[reviewsapp.ListListingReviewsQuery, dto.ReviewCollection](c.Request.Context(), h.Queries, reviewsapp.ListListingReviewsQuery{
		ListingID: c.Param("id"),
		Limit:     parseInt(c.Query("limit")),
		Offset:    parseInt(c.Query("offset")),
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ReviewsHTTP = ReviewsHandler{}
