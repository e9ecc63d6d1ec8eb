package booking

import (
	"context"
	"log/slog"
	"time"

	"homio/internal/app/commands"
	"homio/internal/app/dto"
	"homio/internal/app/handlers/availability"
	handlersupport "homio/internal/app/handlers/support"
	"homio/internal/app/middleware"
	"homio/internal/app/policies"
	"homio/internal/app/uow"
	domainbooking "homio/internal/domain/booking"
	domainlistings "homio/internal/domain/listings"
	"homio/internal/domain/shared/daterange"
	"homio/internal/domain/shared/money"
)

const createBookingKey = "booking.create"

type CreateBookingCommand struct {
	ListingID       string    `validate:"required"`
	GuestID         string    `validate:"required"`
	StartDate       time.Time `validate:"required"`
	EndDate         time.Time `validate:"required"`
	IdempotencyKeyV string    `validate:"omitempty,max=128"`
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

// SerializationKey makes booking creation on one listing strictly sequential.
func (c CreateBookingCommand) SerializationKey() string { return "listing:" + c.ListingID }

func (c CreateBookingCommand) IdempotencyKey() string {
	if c.IdempotencyKeyV == "" {
		return ""
	}
	return c.GuestID + ":" + c.IdempotencyKeyV
}

func (c CreateBookingCommand) ResultPrototype() any { return &dto.PaymentSession{} }

// CreateBookingHandler re-checks availability, opens a gateway order and
// stores the booking as pending/pending.
type CreateBookingHandler struct {
	Deps
	UoWFactory uow.UoWFactory
	Gateway    policies.PaymentGateway
	Currency   string
	KeyID      string
	Logger     *slog.Logger
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*dto.PaymentSession, error) {
	dr, err := daterange.New(cmd.StartDate, cmd.EndDate)
	if err != nil {
		return nil, err
	}
	var session *dto.PaymentSession
	err = handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
		if err != nil {
			return err
		}
		if err := availability.CheckWindow(ctx, unit.Bookings(), listing.ID, dr); err != nil {
			return err
		}
		now := h.now()
		nightly, err := money.New(listing.NightlyPrice, h.Currency)
		if err != nil {
			return err
		}
		_, total := domainbooking.Quote(dr, nightly)
		order, err := h.Gateway.CreateOrder(ctx, orderRequest(listing.ID, cmd.GuestID, total, now))
		if err != nil {
			return err
		}
		b, err := domainbooking.NewBooking(domainbooking.CreateParams{
			ID:        newBookingID(),
			ListingID: listing.ID,
			GuestID:   cmd.GuestID,
			Range:     dr,
			Nightly:   nightly,
			OrderID:   order.ID,
			CreatedAt: now,
		})
		if err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := h.record(ctx, b); err != nil {
			return err
		}
		session = h.session(b)
		if h.Logger != nil {
			h.Logger.InfoContext(ctx, "booking created",
				"booking_id", b.ID, "listing_id", b.ListingID, "guest_id", b.GuestID,
				"nights", b.Nights, "total", b.Total.Amount, "order_id", b.OrderID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (h *CreateBookingHandler) session(b *domainbooking.Booking) *dto.PaymentSession {
	return &dto.PaymentSession{
		BookingID:   string(b.ID),
		OrderID:     b.OrderID,
		KeyID:       h.KeyID,
		AmountMinor: b.Total.MinorUnits(),
		Currency:    b.Total.Currency,
		Nights:      b.Nights,
		Total:       dto.MapMoney(b.Total),
	}
}

var _ commands.Handler[CreateBookingCommand, *dto.PaymentSession] = (*CreateBookingHandler)(nil)
var _ middleware.IdempotentCommand = CreateBookingCommand{}
var _ middleware.SerializedCommand = CreateBookingCommand{}
