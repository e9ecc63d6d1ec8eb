package dto

import (
	"time"

	domainbooking "homio/internal/domain/booking"
	domainlistings "homio/internal/domain/listings"
	"homio/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type BookingListingSnapshot struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Location string `json:"location"`
	Country  string `json:"country"`
	ImageURL string `json:"image_url"`
}

type Booking struct {
	ID            string                 `json:"id"`
	Listing       BookingListingSnapshot `json:"listing"`
	GuestID       string                 `json:"guest_id"`
	StartDate     time.Time              `json:"start_date"`
	EndDate       time.Time              `json:"end_date"`
	Nights        int                    `json:"nights"`
	Total         MoneyDTO               `json:"total"`
	Status        string                 `json:"status"`
	PaymentStatus string                 `json:"payment_status"`
	OrderID       string                 `json:"order_id,omitempty"`
	PaymentID     string                 `json:"payment_id,omitempty"`
	PaidAt        *time.Time             `json:"paid_at,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// PaymentSession carries what the client needs to open the gateway checkout.
type PaymentSession struct {
	BookingID   string   `json:"booking_id"`
	OrderID     string   `json:"order_id"`
	KeyID       string   `json:"key_id"`
	AmountMinor int64    `json:"amount_minor"`
	Currency    string   `json:"currency"`
	Nights      int      `json:"nights"`
	Total       MoneyDTO `json:"total"`
}

// PaymentResult reports the outcome of a payment callback. A rejected
// signature is a normal outcome, not an error.
type PaymentResult struct {
	BookingID     string `json:"booking_id"`
	ListingID     string `json:"listing_id"`
	Verified      bool   `json:"verified"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

type CancelResult struct {
	BookingID       string `json:"booking_id"`
	Status          string `json:"status"`
	PaymentStatus   string `json:"payment_status"`
	RefundRequested bool   `json:"refund_requested"`
}

type Availability struct {
	ListingID string    `json:"listing_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Available bool      `json:"available"`
	Nights    int       `json:"nights"`
	Total     MoneyDTO  `json:"total"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{
		Amount:   value.Amount,
		Currency: value.Currency,
	}
}

func MapBooking(booking *domainbooking.Booking, listing *domainlistings.Listing) Booking {
	snapshot := BookingListingSnapshot{ID: string(booking.ListingID)}
	if listing != nil {
		snapshot.Title = listing.Title
		snapshot.Location = listing.Location
		snapshot.Country = listing.Country
		snapshot.ImageURL = listing.ImageURL
	}
	out := Booking{
		ID:            string(booking.ID),
		Listing:       snapshot,
		GuestID:       booking.GuestID,
		StartDate:     booking.Range.Start,
		EndDate:       booking.Range.End,
		Nights:        booking.Nights,
		Total:         MapMoney(booking.Total),
		Status:        string(booking.Status),
		PaymentStatus: string(booking.PaymentStatus),
		OrderID:       booking.OrderID,
		PaymentID:     booking.PaymentID,
		CreatedAt:     booking.CreatedAt,
	}
	if !booking.PaidAt.IsZero() {
		paidAt := booking.PaidAt
		out.PaidAt = &paidAt
	}
	return out
}

func MapPaymentResult(booking *domainbooking.Booking, verified bool) PaymentResult {
	return PaymentResult{
		BookingID:     string(booking.ID),
		ListingID:     string(booking.ListingID),
		Verified:      verified,
		Status:        string(booking.Status),
		PaymentStatus: string(booking.PaymentStatus),
	}
}
