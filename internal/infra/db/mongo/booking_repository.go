package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "homio/internal/domain/booking"
	"homio/internal/domain/listings"
	"homio/internal/domain/shared/daterange"
	"homio/internal/domain/shared/money"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection(bookingsCollection)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (r *BookingRepository) Overlapping(ctx context.Context, listing listings.ListingID, dr daterange.DateRange) ([]*domainbooking.Booking, error) {
	return r.find(ctx, overlapFilter(listing, dr), nil)
}

func (r *BookingRepository) LiveByListing(ctx context.Context, listing listings.ListingID, from time.Time) ([]*domainbooking.Booking, error) {
	filter := liveFilter(listing)
	filter["end_date"] = bson.M{"$gte": daterange.Normalize(from)}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}}))
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"guest_id": guestID}, newestFirst())
}

func (r *BookingRepository) ListByListings(ctx context.Context, ids []listings.ListingID) ([]*domainbooking.Booking, error) {
	if len(ids) == 0 {
		return []*domainbooking.Booking{}, nil
	}
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, string(id))
	}
	return r.find(ctx, bson.M{"listing_id": bson.M{"$in": raw}}, newestFirst())
}

func (r *BookingRepository) HasConfirmed(ctx context.Context, listing listings.ListingID, guestID string) (bool, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{
		"listing_id": string(listing),
		"guest_id":   guestID,
		"status":     string(domainbooking.StatusConfirmed),
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *BookingRepository) find(ctx context.Context, filter any, opts *options.FindOptions) ([]*domainbooking.Booking, error) {
	if opts == nil {
		opts = options.Find()
	}
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
}

func liveFilter(listing listings.ListingID) bson.M {
	statuses := make([]string, 0, len(domainbooking.LiveStatuses))
	for _, s := range domainbooking.LiveStatuses {
		statuses = append(statuses, string(s))
	}
	payments := make([]string, 0, len(domainbooking.LivePaymentStatuses))
	for _, s := range domainbooking.LivePaymentStatuses {
		payments = append(payments, string(s))
	}
	return bson.M{
		"listing_id":     string(listing),
		"status":         bson.M{"$in": statuses},
		"payment_status": bson.M{"$in": payments},
	}
}

// overlapFilter selects live bookings whose closed range touches dr.
func overlapFilter(listing listings.ListingID, dr daterange.DateRange) bson.M {
	filter := liveFilter(listing)
	filter["start_date"] = bson.M{"$lte": dr.End}
	filter["end_date"] = bson.M{"$gte": dr.Start}
	return filter
}

type bookingDocument struct {
	ID            string    `bson:"_id"`
	ListingID     string    `bson:"listing_id"`
	GuestID       string    `bson:"guest_id"`
	StartDate     time.Time `bson:"start_date"`
	EndDate       time.Time `bson:"end_date"`
	Nights        int       `bson:"nights"`
	TotalAmount   int64     `bson:"total_amount"`
	Currency      string    `bson:"currency"`
	Status        string    `bson:"status"`
	PaymentStatus string    `bson:"payment_status"`
	OrderID       string    `bson:"order_id"`
	PastOrderIDs  []string  `bson:"past_order_ids,omitempty"`
	PaymentID     string    `bson:"payment_id,omitempty"`
	Signature     string    `bson:"signature,omitempty"`
	PaidAt        time.Time `bson:"paid_at,omitempty"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:            string(b.ID),
		ListingID:     string(b.ListingID),
		GuestID:       b.GuestID,
		StartDate:     b.Range.Start,
		EndDate:       b.Range.End,
		Nights:        b.Nights,
		TotalAmount:   b.Total.Amount,
		Currency:      b.Total.Currency,
		Status:        string(b.Status),
		PaymentStatus: string(b.PaymentStatus),
		OrderID:       b.OrderID,
		PastOrderIDs:  b.PastOrderIDs,
		PaymentID:     b.PaymentID,
		Signature:     b.Signature,
		PaidAt:        b.PaidAt,
		CreatedAt:     b.CreatedAt.UTC(),
		UpdatedAt:     b.UpdatedAt.UTC(),
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	b := &domainbooking.Booking{
		ID:            domainbooking.BookingID(d.ID),
		ListingID:     listings.ListingID(d.ListingID),
		GuestID:       d.GuestID,
		Range:         daterange.DateRange{Start: d.StartDate.UTC(), End: d.EndDate.UTC()},
		Nights:        d.Nights,
		Total:         money.Money{Amount: d.TotalAmount, Currency: d.Currency},
		Status:        domainbooking.Status(d.Status),
		PaymentStatus: domainbooking.PaymentStatus(d.PaymentStatus),
		OrderID:       d.OrderID,
		PastOrderIDs:  d.PastOrderIDs,
		PaymentID:     d.PaymentID,
		Signature:     d.Signature,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
	if !d.PaidAt.IsZero() {
		b.PaidAt = d.PaidAt.UTC()
	}
	return b
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
