package main

import (
	"log/slog"
	"time"

	"homio/internal/app/commands"
	"homio/internal/app/dto"
	availabilityapp "homio/internal/app/handlers/availability"
	bookingapp "homio/internal/app/handlers/booking"
	dashboardapp "homio/internal/app/handlers/dashboard"
	listingapp "homio/internal/app/handlers/listings"
	reviewsapp "homio/internal/app/handlers/reviews"
	"homio/internal/app/middleware"
	"homio/internal/app/outbox"
	"homio/internal/app/policies"
	"homio/internal/app/queries"
	"homio/internal/app/services/auth"
	"homio/internal/app/uow"
	domainauth "homio/internal/domain/auth"
	domainuser "homio/internal/domain/user"
	ginserver "homio/internal/infra/http/gin"
	"homio/internal/infra/security"
	"homio/internal/infra/validation"
)

// infrastructure is everything the use cases need from the outside world.
type infrastructure struct {
	Factory     uow.UoWFactory
	Users       domainuser.Repository
	Sessions    domainauth.SessionStore
	Outbox      outbox.Outbox
	Idempotency middleware.IdempotencyStore
	Gateway     policies.PaymentGateway
	Verifier    policies.SignatureVerifier
	Images      policies.ImageStore
	Passwords   auth.PasswordHasher
	Clock       func() time.Time
}

type settings struct {
	Currency   string
	KeyID      string
	SessionTTL time.Duration
}

type application struct {
	commands commands.Bus
	queries  queries.Bus
	auth     *auth.Service
	handlers ginserver.Handlers
}

func buildApplication(infra infrastructure, s settings, logger *slog.Logger) application {
	encoder := outbox.JSONEventEncoder{}
	bookingDeps := bookingapp.Deps{Outbox: infra.Outbox, Encoder: encoder, Clock: infra.Clock}
	listingDeps := listingapp.Deps{
		UoWFactory: infra.Factory,
		Outbox:     infra.Outbox,
		Encoder:    encoder,
		Currency:   s.Currency,
		Clock:      infra.Clock,
	}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler[bookingapp.CreateBookingCommand, *dto.PaymentSession](commandBus, bookingapp.CreateBookingCommand{}.Key(), &bookingapp.CreateBookingHandler{
		Deps: bookingDeps, UoWFactory: infra.Factory, Gateway: infra.Gateway, Currency: s.Currency, KeyID: s.KeyID, Logger: logger,
	})
	commands.RegisterHandler[bookingapp.VerifyPaymentCommand, dto.PaymentResult](commandBus, bookingapp.VerifyPaymentCommand{}.Key(), &bookingapp.VerifyPaymentHandler{
		Deps: bookingDeps, UoWFactory: infra.Factory, Verifier: infra.Verifier, Logger: logger,
	})
	commands.RegisterHandler[bookingapp.PaymentFailedCommand, dto.PaymentResult](commandBus, bookingapp.PaymentFailedCommand{}.Key(), &bookingapp.PaymentFailedHandler{
		Deps: bookingDeps, UoWFactory: infra.Factory, Logger: logger,
	})
	commands.RegisterHandler[bookingapp.ResumePaymentCommand, *dto.PaymentSession](commandBus, bookingapp.ResumePaymentCommand{}.Key(), &bookingapp.ResumePaymentHandler{
		Deps: bookingDeps, UoWFactory: infra.Factory, Gateway: infra.Gateway, KeyID: s.KeyID, Logger: logger,
	})
	commands.RegisterHandler[bookingapp.CancelBookingCommand, dto.CancelResult](commandBus, bookingapp.CancelBookingCommand{}.Key(), &bookingapp.CancelBookingHandler{
		Deps: bookingDeps, UoWFactory: infra.Factory, Logger: logger,
	})
	commands.RegisterHandler[reviewsapp.SubmitReviewCommand, dto.Review](commandBus, reviewsapp.SubmitReviewCommand{}.Key(), &reviewsapp.SubmitReviewHandler{
		UoWFactory: infra.Factory, Outbox: infra.Outbox, Encoder: encoder, Clock: infra.Clock, Logger: logger,
	})
	commands.RegisterHandler[reviewsapp.RecomputeRatingCommand, dto.RatingSummary](commandBus, reviewsapp.RecomputeRatingCommand{}.Key(), &reviewsapp.RecomputeRatingHandler{
		UoWFactory: infra.Factory, Outbox: infra.Outbox, Encoder: encoder, Clock: infra.Clock, Logger: logger,
	})
	commands.RegisterHandler[listingapp.CreateListingCommand, dto.Listing](commandBus, listingapp.CreateListingCommand{}.Key(), &listingapp.CreateListingHandler{Deps: listingDeps, Logger: logger})
	commands.RegisterHandler[listingapp.UpdateListingCommand, dto.Listing](commandBus, listingapp.UpdateListingCommand{}.Key(), &listingapp.UpdateListingHandler{Deps: listingDeps, Logger: logger})
	commands.RegisterHandler[listingapp.DeleteListingCommand, struct{}](commandBus, listingapp.DeleteListingCommand{}.Key(), &listingapp.DeleteListingHandler{Deps: listingDeps, Logger: logger})
	commands.RegisterHandler[listingapp.UploadListingImageCommand, dto.Listing](commandBus, listingapp.UploadListingImageCommand{}.Key(), &listingapp.UploadListingImageHandler{
		Deps: listingDeps, Images: infra.Images, Logger: logger,
	})
	commands.RegisterHandler[dashboardapp.ToggleWishlistCommand, dto.WishlistToggle](commandBus, dashboardapp.ToggleWishlistCommand{}.Key(), &dashboardapp.ToggleWishlistHandler{
		UoWFactory: infra.Factory, Clock: infra.Clock, Logger: logger,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler[availabilityapp.CheckAvailabilityQuery, dto.Availability](queryBus, availabilityapp.CheckAvailabilityQuery{}.Key(), &availabilityapp.CheckAvailabilityHandler{
		UoWFactory: infra.Factory, Currency: s.Currency,
	})
	queries.RegisterHandler[listingapp.SearchListingsQuery, dto.ListingCollection](queryBus, listingapp.SearchListingsQuery{}.Key(), &listingapp.SearchListingsHandler{Deps: listingDeps})
	queries.RegisterHandler[listingapp.GetListingQuery, dto.ListingDetail](queryBus, listingapp.GetListingQuery{}.Key(), &listingapp.GetListingHandler{Deps: listingDeps, Logger: logger})
	queries.RegisterHandler[reviewsapp.ListListingReviewsQuery, dto.ReviewCollection](queryBus, reviewsapp.ListListingReviewsQuery{}.Key(), &reviewsapp.ListListingReviewsHandler{UoWFactory: infra.Factory})
	dashboards := &dashboardapp.Handler{UoWFactory: infra.Factory, Currency: s.Currency, Clock: infra.Clock}
	queries.RegisterHandler[dashboardapp.GuestDashboardQuery, dto.GuestDashboard](queryBus, dashboardapp.GuestDashboardQuery{}.Key(), queries.HandlerFunc[dashboardapp.GuestDashboardQuery, dto.GuestDashboard](dashboards.Guest))
	queries.RegisterHandler[dashboardapp.HostDashboardQuery, dto.HostDashboard](queryBus, dashboardapp.HostDashboardQuery{}.Key(), queries.HandlerFunc[dashboardapp.HostDashboardQuery, dto.HostDashboard](dashboards.Host))

	logger.Debug("buses wired", "commands", commandBus.Keys(), "queries", queryBus.Keys())

	validator := validation.New()
	// Outermost first: validation rejects before any lock is taken, and the
	// outbox is flushed only after the transaction committed.
	commandPipeline := middleware.ChainCommands(
		commandBus,
		middleware.Logging(logger),
		middleware.Validation(validator),
		middleware.Serialize(middleware.NewKeyedMutex()),
		middleware.Idempotency(infra.Idempotency, nil),
		middleware.OutboxFlush(infra.Outbox, logger),
		middleware.Transaction(infra.Factory, nil),
	)
	queryPipeline := middleware.ChainQueries(queryBus, middleware.QueryValidation(validator))

	passwords := infra.Passwords
	if passwords == nil {
		passwords = security.BcryptHasher{}
	}
	authService := &auth.Service{
		Users:      infra.Users,
		Sessions:   infra.Sessions,
		Passwords:  passwords,
		Tokens:     security.SessionTokens{},
		SessionTTL: s.SessionTTL,
		Clock:      infra.Clock,
		Logger:     logger,
	}

	return application{
		commands: commandPipeline,
		queries:  queryPipeline,
		auth:     authService,
		handlers: ginserver.Handlers{
			Auth:           ginserver.AuthHandler{Service: authService, Logger: logger},
			Listing:        ginserver.ListingHandler{Queries: queryPipeline, Logger: logger},
			Booking:        ginserver.BookingHandler{Commands: commandPipeline, Logger: logger},
			Reviews:        ginserver.ReviewsHandler{Commands: commandPipeline, Queries: queryPipeline, Logger: logger},
			HostListing:    ginserver.HostListingHandler{Commands: commandPipeline, Logger: logger},
			Dashboard:      ginserver.DashboardHandler{Commands: commandPipeline, Queries: queryPipeline, Logger: logger},
			AuthMiddleware: ginserver.AuthMiddleware{Resolver: authService, Logger: logger}.Handle,
		},
	}
}
