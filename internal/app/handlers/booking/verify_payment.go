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

const verifyPaymentKey = "booking.verify_payment"

type VerifyPaymentCommand struct {
	BookingID string `validate:"required"`
	GuestID   string `validate:"required"`
	OrderID   string `validate:"required"`
	PaymentID string `validate:"required"`
	Signature string `validate:"required"`
}

func (c VerifyPaymentCommand) Key() string { return verifyPaymentKey }

// VerifyPaymentHandler is the only path to a confirmed booking. An authentic
// signature for any order issued to the booking, including ones replaced by
// resume-payment, confirms it. An authentic signature for an order never
// issued to the booking is a conflict and changes nothing. A forged
// signature marks the booking's payment failed.
type VerifyPaymentHandler struct {
	Deps
	UoWFactory uow.UoWFactory
	Verifier   policies.SignatureVerifier
	Logger     *slog.Logger
}

func (h *VerifyPaymentHandler) Handle(ctx context.Context, cmd VerifyPaymentCommand) (dto.PaymentResult, error) {
	var result dto.PaymentResult
	err := handlersupport.WithinUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		b, err := loadOwned(ctx, unit.Bookings(), cmd.BookingID, cmd.GuestID)
		if err != nil {
			return err
		}
		now := h.now()
		verified := h.Verifier.Verify(cmd.OrderID, cmd.PaymentID, cmd.Signature)
		if verified && !b.IssuedOrder(cmd.OrderID) {
			if h.Logger != nil {
				h.Logger.WarnContext(ctx, "payment for foreign order", "booking_id", b.ID, "order_id", cmd.OrderID)
			}
			return domainbooking.ErrForeignOrder
		}
		changed := false
		if verified {
			wasConfirmed := b.Confirmed()
			if err := b.MarkPaid(cmd.PaymentID, cmd.Signature, now); err != nil {
				return err
			}
			changed = !wasConfirmed
		} else {
			changed = b.MarkPaymentFailed("signature verification failed", now)
		}
		if changed {
			if err := unit.Bookings().Save(ctx, b); err != nil {
				return err
			}
			if err := h.record(ctx, b); err != nil {
				return err
			}
		}
		if h.Logger != nil {
			if verified {
				h.Logger.InfoContext(ctx, "payment verified", "booking_id", b.ID, "payment_id", cmd.PaymentID, "replay", !changed)
			} else {
				h.Logger.InfoContext(ctx, "payment verification failed", "booking_id", b.ID, "order_id", cmd.OrderID, "status", b.Status)
			}
		}
		result = dto.MapPaymentResult(b, verified)
		return nil
	})
	if err != nil {
		return dto.PaymentResult{}, err
	}
	return result, nil
}

var _ commands.Handler[VerifyPaymentCommand, dto.PaymentResult] = (*VerifyPaymentHandler)(nil)
