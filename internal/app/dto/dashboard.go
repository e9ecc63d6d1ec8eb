package dto

type GuestStats struct {
	Confirmed  int   `json:"confirmed"`
	Pending    int   `json:"pending"`
	Cancelled  int   `json:"cancelled"`
	TotalSpent int64 `json:"total_spent"`
}

type GuestDashboard struct {
	Profile  User       `json:"profile"`
	Bookings []Booking  `json:"bookings"`
	Wishlist []Listing  `json:"wishlist"`
	Stats    GuestStats `json:"stats"`
}

type HostStats struct {
	TotalListings     int   `json:"total_listings"`
	TotalBookings     int   `json:"total_bookings"`
	PendingBookings   int   `json:"pending_bookings"`
	TotalEarnings     int64 `json:"total_earnings"`
	ThisMonthEarnings int64 `json:"this_month_earnings"`
}

type HostDashboard struct {
	Listings        []Listing `json:"listings"`
	BookingRequests []Booking `json:"booking_requests"`
	Stats           HostStats `json:"stats"`
}

type WishlistToggle struct {
	ListingID  string `json:"listing_id"`
	InWishlist bool   `json:"in_wishlist"`
}
