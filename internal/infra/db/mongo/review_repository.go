package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"homio/internal/domain/listings"
	domainreviews "homio/internal/domain/reviews"
)

type ReviewRepository struct {
	col *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{col: db.Collection(reviewsCollection)}
}

// Save inserts the review. The unique (listing_id, author_id) index turns a
// second review by the same author into ErrDuplicateReview.
func (r *ReviewRepository) Save(ctx context.Context, review *domainreviews.Review) error {
	_, err := r.col.InsertOne(ctx, newReviewDocument(review))
	if mongo.IsDuplicateKeyError(err) {
		return domainreviews.ErrDuplicateReview
	}
	return err
}

func (r *ReviewRepository) ListByListing(ctx context.Context, listingID listings.ListingID, limit, offset int) ([]*domainreviews.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.col.Find(ctx, bson.M{"listing_id": string(listingID)}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []reviewDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainreviews.Review, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

func (r *ReviewRepository) Stats(ctx context.Context, listingID listings.ListingID) (domainreviews.Stats, error) {
	cur, err := r.col.Aggregate(ctx, statsPipeline(listingID))
	if err != nil {
		return domainreviews.Stats{}, err
	}
	defer cur.Close(ctx)
	var rows []struct {
		Average float64 `bson:"average"`
		Count   int     `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return domainreviews.Stats{}, err
	}
	if len(rows) == 0 || rows[0].Count == 0 {
		return domainreviews.Stats{}, nil
	}
	return domainreviews.Stats{Average: rows[0].Average, Count: rows[0].Count}, nil
}

func statsPipeline(listingID listings.ListingID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"listing_id": string(listingID)}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"average": bson.M{"$avg": "$rating"},
			"count":   bson.M{"$sum": 1},
		}}},
	}
}

type reviewDocument struct {
	ID        string    `bson:"_id"`
	ListingID string    `bson:"listing_id"`
	AuthorID  string    `bson:"author_id"`
	Rating    int       `bson:"rating"`
	Comment   string    `bson:"comment"`
	CreatedAt time.Time `bson:"created_at"`
}

func newReviewDocument(r *domainreviews.Review) reviewDocument {
	return reviewDocument{
		ID:        string(r.ID),
		ListingID: string(r.ListingID),
		AuthorID:  r.AuthorID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func (d reviewDocument) toAggregate() *domainreviews.Review {
	return &domainreviews.Review{
		ID:        domainreviews.ReviewID(d.ID),
		ListingID: listings.ListingID(d.ListingID),
		AuthorID:  d.AuthorID,
		Rating:    d.Rating,
		Comment:   d.Comment,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

var _ domainreviews.Repository = (*ReviewRepository)(nil)
