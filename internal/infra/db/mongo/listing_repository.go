package mongo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "homio/internal/domain/listings"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection(listingsCollection)}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrListingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	doc := newListingDocument(listing)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (r *ListingRepository) Delete(ctx context.Context, id domainlistings.ListingID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainlistings.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	params = params.Normalized()
	filter := searchFilter(params)
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return domainlistings.SearchResult{}, err
	}
	opts := options.Find().
		SetSort(searchSort(params.Sort)).
		SetSkip(int64(params.Offset)).
		SetLimit(int64(params.Limit))
	items, err := r.find(ctx, filter, opts)
	if err != nil {
		return domainlistings.SearchResult{}, err
	}
	return domainlistings.SearchResult{Items: items, Total: int(total)}, nil
}

func (r *ListingRepository) ListByHost(ctx context.Context, host domainlistings.HostID) ([]*domainlistings.Listing, error) {
	return r.find(ctx, bson.M{"host_id": string(host)}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (r *ListingRepository) find(ctx context.Context, filter any, opts *options.FindOptions) ([]*domainlistings.Listing, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []listingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainlistings.Listing, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

// searchFilter mirrors SearchParams.Matches: every location pattern is tried
// case-insensitively against location, country and title.
func searchFilter(params domainlistings.SearchParams) bson.M {
	filter := bson.M{}
	if patterns := domainlistings.LocationPatterns(params.Location); len(patterns) > 0 {
		or := make(bson.A, 0, len(patterns)*3)
		for _, p := range patterns {
			rx := bson.M{"$regex": regexp.QuoteMeta(p), "$options": "i"}
			or = append(or, bson.M{"location": rx}, bson.M{"country": rx}, bson.M{"title": rx})
		}
		filter["$or"] = or
	}
	price := bson.M{}
	if params.MinPrice > 0 {
		price["$gte"] = params.MinPrice
	}
	if params.MaxPrice > 0 {
		price["$lte"] = params.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}
	if params.MinRating > 0 {
		filter["rating_average"] = bson.M{"$gte": params.MinRating}
	}
	if len(params.Amenities) > 0 {
		filter["amenities"] = bson.M{"$all": params.Amenities}
	}
	return filter
}

func searchSort(order domainlistings.CatalogSort) bson.D {
	switch order {
	case domainlistings.SortByPriceAsc:
		return bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}}
	case domainlistings.SortByPriceDesc:
		return bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: 1}}
	case domainlistings.SortByRating:
		return bson.D{{Key: "rating_average", Value: -1}, {Key: "rating_count", Value: -1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}
	}
}

type listingDocument struct {
	ID            string    `bson:"_id"`
	HostID        string    `bson:"host_id"`
	Title         string    `bson:"title"`
	Description   string    `bson:"description"`
	ImageURL      string    `bson:"image_url"`
	Price         int64     `bson:"price"`
	Location      string    `bson:"location"`
	Country       string    `bson:"country"`
	Amenities     []string  `bson:"amenities"`
	RatingAverage float64   `bson:"rating_average"`
	RatingCount   int       `bson:"rating_count"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	amenities := l.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return listingDocument{
		ID:            string(l.ID),
		HostID:        string(l.Host),
		Title:         l.Title,
		Description:   l.Description,
		ImageURL:      l.ImageURL,
		Price:         l.NightlyPrice,
		Location:      l.Location,
		Country:       l.Country,
		Amenities:     amenities,
		RatingAverage: l.RatingAverage,
		RatingCount:   l.RatingCount,
		CreatedAt:     l.CreatedAt.UTC(),
		UpdatedAt:     l.UpdatedAt.UTC(),
	}
}

func (d listingDocument) toAggregate() *domainlistings.Listing {
	return &domainlistings.Listing{
		ID:            domainlistings.ListingID(d.ID),
		Host:          domainlistings.HostID(d.HostID),
		Title:         d.Title,
		Description:   d.Description,
		ImageURL:      d.ImageURL,
		NightlyPrice:  d.Price,
		Location:      d.Location,
		Country:       d.Country,
		Amenities:     append([]string(nil), d.Amenities...),
		RatingAverage: d.RatingAverage,
		RatingCount:   d.RatingCount,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

var _ domainlistings.ListingRepository = (*ListingRepository)(nil)
