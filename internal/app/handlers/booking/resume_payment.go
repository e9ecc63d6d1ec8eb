package booking

import (
	"context"
	"log/slog"

	"homio/internal/app/commands"
	"homio/internal/app/dto"
	handlersupport "homio/internal/app/handlers/support"
	"homio/internal/app/policies"
	"homio/internal/app/uow"
	domainbooking "homio/internal/domain/booking"
)

const resumePaymentKey = "booking.resume_payment"

type ResumePaymentCommand struct {
	BookingID string `validate:"required"`
	GuestID   string `validate:"required"`
}

func (c ResumePaymentCommand) Key() string { return resumePaymentKey }

// ResumePaymentHandler issues a fresh gateway order for a booking still
// awaiting payment; the previous order may have expired.
type ResumePaymentHandler struct {
	Deps
	UoWFactory uow.UoWFactory
	Gateway    policies.PaymentGateway
	KeyID      string
	Logger     *slog.Logger
}

func (h *ResumePaymentHandler) Handle(ctx context.Context, cmd ResumePaymentCommand) (*dto.PaymentSession, error) {
	var session *dto.PaymentSession
	err := handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := loadOwned(ctx, unit.Bookings(), cmd.BookingID, cmd.GuestID)
		if err != nil {
			return err
		}
		if !b.AwaitingPayment() {
			return domainbooking.ErrNotResumable
		}
		now := h.now()
		order, err := h.Gateway.CreateOrder(ctx, orderRequest(b.ListingID, b.GuestID, b.Total, now))
		if err != nil {
			return err
		}
		if err := b.ReissueOrder(order.ID, now); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := h.record(ctx, b); err != nil {
			return err
		}
		session = &dto.PaymentSession{
			BookingID:   string(b.ID),
			OrderID:     b.OrderID,
			KeyID:       h.KeyID,
			AmountMinor: b.Total.MinorUnits(),
			Currency:    b.Total.Currency,
			Nights:      b.Nights,
			Total:       dto.MapMoney(b.Total),
		}
		if h.Logger != nil {
			h.Logger.InfoContext(ctx, "payment order reissued", "booking_id", b.ID, "order_id", b.OrderID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

var _ commands.Handler[ResumePaymentCommand, *dto.PaymentSession] = (*ResumePaymentHandler)(nil)
