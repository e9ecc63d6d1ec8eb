package booking

import (
	"context"
	"log/slog"

	"homio/internal/app/commands"
	"homio/internal/app/dto"
	handlersupport "homio/internal/app/handlers/support"
	"homio/internal/app/uow"
)

const paymentFailedKey = "booking.payment_failed"

// PaymentFailedCommand reports a checkout the guest abandoned or the gateway declined.
type PaymentFailedCommand struct {
	BookingID string `validate:"required"`
	GuestID   string `validate:"required"`
	Reason    string `validate:"omitempty,max=256"`
}

func (c PaymentFailedCommand) Key() string { return paymentFailedKey }

type PaymentFailedHandler struct {
	Deps
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *PaymentFailedHandler) Handle(ctx context.Context, cmd PaymentFailedCommand) (dto.PaymentResult, error) {
	var result dto.PaymentResult
	err := handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := loadOwned(ctx, unit.Bookings(), cmd.BookingID, cmd.GuestID)
		if err != nil {
			return err
		}
		reason := cmd.Reason
		if reason == "" {
			reason = "checkout not completed"
		}
		if b.MarkPaymentFailed(reason, h.now()) {
			if err := unit.Bookings().Save(ctx, b); err != nil {
				return err
			}
			if err := h.record(ctx, b); err != nil {
				return err
			}
			if h.Logger != nil {
				h.Logger.InfoContext(ctx, "payment marked failed", "booking_id", b.ID, "reason", reason)
			}
		}
		result = dto.MapPaymentResult(b, false)
		return nil
	})
	if err != nil {
		return dto.PaymentResult{}, err
	}
	return result, nil
}

var _ commands.Handler[PaymentFailedCommand, dto.PaymentResult] = (*PaymentFailedHandler)(nil)
