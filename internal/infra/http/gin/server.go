package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"homio/internal/infra/config"
	"homio/internal/infra/obs"
)

type Handlers struct {
	Auth           AuthHTTP
	Listing        ListingHTTP
	Booking        BookingHTTP
	Reviews        ReviewsHTTP
	HostListing    HostListingHTTP
	Dashboard      DashboardHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = maxListingImageBytes
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(obsMW.Recovery())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
	}
	if h.Listing != nil {
		api.GET("/listings", h.Listing.Search)
		api.GET("/listings/:id", h.Listing.Get)
		api.GET("/listings/:id/availability", h.Listing.Availability)
	}
	if h.Booking != nil {
		api.POST("/listings/:id/bookings", h.Booking.Create)
		api.POST("/bookings/verify-payment", h.Booking.VerifyPayment)
		api.POST("/bookings/payment-failed", h.Booking.PaymentFailed)
		api.POST("/bookings/:id/pay", h.Booking.Pay)
		api.POST("/bookings/:id/cancel", h.Booking.Cancel)
	}
	if h.Reviews != nil {
		api.POST("/listings/:id/reviews", h.Reviews.Create)
		api.GET("/listings/:id/reviews", h.Reviews.List)
	}
	if h.HostListing != nil {
		hostGroup := api.Group("/host/listings")
		hostGroup.POST("", h.HostListing.Create)
		hostGroup.PUT("/:id", h.HostListing.Update)
		hostGroup.DELETE("/:id", h.HostListing.Delete)
		hostGroup.POST("/:id/image", h.HostListing.UploadImage)
	}
	if h.Dashboard != nil {
		api.GET("/me/dashboard", h.Dashboard.Guest)
		api.POST("/me/wishlist/:listingId/toggle", h.Dashboard.ToggleWishlist)
		api.GET("/host/dashboard", h.Dashboard.Host)
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", idempotencyHeader, obs.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Type", obs.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
