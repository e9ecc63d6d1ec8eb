package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	domainbooking "homio/internal/domain/booking"
	domainlistings "homio/internal/domain/listings"
	"homio/internal/domain/shared/daterange"
	"homio/internal/domain/shared/money"
)

func TestSearchFilter(t *testing.T) {
	params := domainlistings.SearchParams{
		Location:  "Go.a",
		MinPrice:  50,
		MaxPrice:  0,
		MinRating: 4,
		Amenities: []string{"wifi", "pool"},
	}.Normalized()

	filter := searchFilter(params)

	or, ok := filter["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 3)
	assert.Equal(t, bson.M{"location": bson.M{"$regex": `go\.a`, "$options": "i"}}, or[0])
	assert.Equal(t, bson.M{"$gte": int64(50)}, filter["price"])
	assert.Equal(t, bson.M{"$gte": 4.0}, filter["rating_average"])
	assert.Equal(t, bson.M{"$all": []string{"wifi", "pool"}}, filter["amenities"])
}

func TestSearchFilterEmptyParams(t *testing.T) {
	assert.Empty(t, searchFilter(domainlistings.SearchParams{}.Normalized()))
}

func TestSearchSort(t *testing.T) {
	assert.Equal(t, "price", searchSort(domainlistings.SortByPriceAsc)[0].Key)
	assert.Equal(t, -1, searchSort(domainlistings.SortByPriceDesc)[0].Value)
	rating := searchSort(domainlistings.SortByRating)
	assert.Equal(t, "rating_average", rating[0].Key)
	assert.Equal(t, "rating_count", rating[1].Key)
	assert.Equal(t, "created_at", searchSort("")[0].Key)
}

func TestOverlapFilterIsClosedInterval(t *testing.T) {
	dr, err := daterange.New(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	filter := overlapFilter("l1", dr)

	assert.Equal(t, "l1", filter["listing_id"])
	assert.Equal(t, bson.M{"$in": []string{"pending", "confirmed"}}, filter["status"])
	assert.Equal(t, bson.M{"$in": []string{"pending", "paid"}}, filter["payment_status"])
	assert.Equal(t, bson.M{"$lte": dr.End}, filter["start_date"])
	assert.Equal(t, bson.M{"$gte": dr.Start}, filter["end_date"])
}

func TestBookingDocumentMapping(t *testing.T) {
	dr, err := daterange.New(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{ID: "b1", ListingID: "l1", GuestID: "g1", Range: dr, Nightly: money.Must(100, "INR"), OrderID: "order_1", CreatedAt: at})
	require.NoError(t, err)
	require.NoError(t, b.MarkPaid("pay_1", "sig", at))

	got := newBookingDocument(b).toAggregate()

	assert.Equal(t, b.Range, got.Range)
	assert.Equal(t, money.Must(200, "INR"), got.Total)
	assert.True(t, got.Confirmed())
	assert.Equal(t, at, got.PaidAt)
	assert.Empty(t, got.PendingEvents())
}

func TestStatsPipelineGroupsByListing(t *testing.T) {
	pipeline := statsPipeline("l1")
	require.Len(t, pipeline, 2)
	assert.Equal(t, "$match", pipeline[0][0].Key)
	group, ok := pipeline[1][0].Value.(bson.M)
	require.True(t, ok)
	assert.Equal(t, bson.M{"$avg": "$rating"}, group["average"])
}

func TestReplayDocumentRecordIsUTC(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	doc := replayDocument{Key: "u1:bookings.create:k", Payload: []byte(`{"id":"b1"}`), OccurredAt: at}

	rec := doc.record()

	assert.Equal(t, "u1:bookings.create:k", rec.Key)
	assert.Equal(t, time.UTC, rec.OccurredAt.Location())
	assert.True(t, rec.OccurredAt.Equal(at))
}
