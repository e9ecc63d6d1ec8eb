package booking

import (
	"context"
	"log/slog"

	"homio/internal/app/commands"
	"homio/internal/app/dto"
	handlersupport "homio/internal/app/handlers/support"
	"homio/internal/app/uow"
)

const cancelBookingKey = "booking.cancel"

type CancelBookingCommand struct {
	BookingID string `validate:"required"`
	GuestID   string `validate:"required"`
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

// CancelBookingHandler records the guest's cancellation. Refund issuance is
// left to consumers of the booking.cancelled event.
type CancelBookingHandler struct {
	Deps
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (dto.CancelResult, error) {
	var result dto.CancelResult
	err := handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := loadOwned(ctx, unit.Bookings(), cmd.BookingID, cmd.GuestID)
		if err != nil {
			return err
		}
		refund, err := b.Cancel(h.now())
		if err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		if err := h.record(ctx, b); err != nil {
			return err
		}
		if h.Logger != nil {
			h.Logger.InfoContext(ctx, "booking cancelled", "booking_id", b.ID, "payment_status", b.PaymentStatus, "refund_requested", refund)
		}
		result = dto.CancelResult{
			BookingID:       string(b.ID),
			Status:          string(b.Status),
			PaymentStatus:   string(b.PaymentStatus),
			RefundRequested: refund,
		}
		return nil
	})
	if err != nil {
		return dto.CancelResult{}, err
	}
	return result, nil
}

var _ commands.Handler[CancelBookingCommand, dto.CancelResult] = (*CancelBookingHandler)(nil)
