package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"homio/internal/app/commands"
	"homio/internal/app/dto"
	bookingapp "homio/internal/app/handlers/booking"
	domainuser "homio/internal/domain/user"
)

const idempotencyHeader = "Idempotency-Key"

type BookingHTTP interface {
	Create(c *gin.Context)
	VerifyPayment(c *gin.Context)
	PaymentFailed(c *gin.Context)
	Pay(c *gin.Context)
	Cancel(c *gin.Context)
}

type BookingHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

type createBookingRequest struct {
	StartDate flexibleDate `json:"start_date"`
	EndDate   flexibleDate `json:"end_date"`
}

// verifyPaymentRequest carries the fields the checkout widget hands back.
type verifyPaymentRequest struct {
	BookingID string `json:"booking_id"`
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

type paymentFailedRequest struct {
	BookingID string `json:"booking_id"`
	Reason    string `json:"reason"`
}

func (h BookingHandler) Create(c *gin.Context) {
	user, ok := requireRole(c, domainuser.RoleUser)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid booking request: "+err.Error())
		return
	}
	session, err := commands.Dispatch[bookingapp.CreateBookingCommand, *dto.PaymentSession](c.Request.Context(), h.Commands, bookingapp.CreateBookingCommand{
		ListingID:       c.Param("id"),
		GuestID:         user.ID,
		StartDate:       req.StartDate.Time,
		EndDate:         req.EndDate.Time,
		IdempotencyKeyV: c.GetHeader(idempotencyHeader),
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h BookingHandler) VerifyPayment(c *gin.Context) {
	user, ok := requireRole(c, domainuser.RoleUser)
	if !ok {
		return
	}
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payment callback")
		return
	}
	result, err := commands.Dispatch[bookingapp.VerifyPaymentCommand, dto.PaymentResult](c.Request.Context(), h.Commands, bookingapp.VerifyPaymentCommand{
		BookingID: req.BookingID,
		GuestID:   user.ID,
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) PaymentFailed(c *gin.Context) {
	user, ok := requireRole(c, domainuser.RoleUser)
	if !ok {
		return
	}
	var req paymentFailedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payment failure report")
		return
	}
	result, err := commands.Dispatch[bookingapp.PaymentFailedCommand, dto.PaymentResult](c.Request.Context(), h.Commands, bookingapp.PaymentFailedCommand{
		BookingID: req.BookingID,
		GuestID:   user.ID,
		Reason:    req.Reason,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Pay reissues a gateway order for a booking still awaiting payment.
func (h BookingHandler) Pay(c *gin.Context) {
	user, ok := requireRole(c, domainuser.RoleUser)
	if !ok {
		return
	}
	session, err := commands.Dispatch[bookingapp.ResumePaymentCommand, *dto.PaymentSession](c.Request.Context(), h.Commands, bookingapp.ResumePaymentCommand{
		BookingID: c.Param("id"),
		GuestID:   user.ID,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h BookingHandler) Cancel(c *gin.Context) {
	user, ok := requireRole(c, domainuser.RoleUser)
	if !ok {
		return
	}
	result, err := commands.Dispatch[bookingapp.CancelBookingCommand, dto.CancelResult](c.Request.Context(), h.Commands, bookingapp.CancelBookingCommand{
		BookingID: c.Param("id"),
		GuestID:   user.ID,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ BookingHTTP = BookingHandler{}
