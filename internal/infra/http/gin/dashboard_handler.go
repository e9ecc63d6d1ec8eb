package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"homio/internal/app/commands"
	"homio/internal/app/dto"
	dashboardapp "homio/internal/app/handlers/dashboard"
	"homio/internal/app/queries"
	domainuser "homio/internal/domain/user"
)

type DashboardHTTP interface {
	Guest(c *gin.Context)
	Host(c *gin.Context)
	ToggleWishlist(c *gin.Context)
}

type DashboardHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

func (h DashboardHandler) Guest(c *gin.Context) {
	user, ok := requireRole(c, domainuser.RoleUser)
	if !ok {
		return
	}
	result, err := queries.Ask[dashboardapp.GuestDashboardQuery, dto.GuestDashboard](c.Request.Context(), h.Queries, dashboardapp.GuestDashboardQuery{UserID: user.ID})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h DashboardHandler) Host(c *gin.Context) {
	host, ok := requireRole(c, domainuser.RoleHost)
	if !ok {
		return
	}
	result, err := queries.Ask[dashboardapp.HostDashboardQuery, dto.HostDashboard](c.Request.Context(), h.Queries, dashboardapp.HostDashboardQuery{HostID: host.ID})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h DashboardHandler) ToggleWishlist(c *gin.Context) {
	user, ok := requireRole(c, domainuser.RoleUser)
	if !ok {
		return
	}
	result, err := commands.Dispatch[dashboardapp.ToggleWishlistCommand, dto.WishlistToggle](c.Request.Context(), h.Commands, dashboardapp.ToggleWishlistCommand{
		UserID:    user.ID,
		ListingID: c.Param("listingId"),
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ DashboardHTTP = DashboardHandler{}
