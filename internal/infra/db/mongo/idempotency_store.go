package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"homio/internal/app/middleware"
)

const (
	idempotencyCollection = "app_idempotency"
	defaultIdempotencyTTL = 7 * 24 * time.Hour
)

// IdempotencyStore keeps command results in Mongo when Redis is not
// configured. The TTL index reaps old documents; Get also ignores documents
// the reaper has not reached yet.
type IdempotencyStore struct {
	col *mongo.Collection
	ttl time.Duration
	now func() time.Time
}

func NewIdempotencyStore(ctx context.Context, db *mongo.Database, ttl time.Duration) (*IdempotencyStore, error) {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	col := db.Collection(idempotencyCollection)
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "stored_at", Value: 1}},
		Options: options.Index().SetName("stored_at_ttl").SetExpireAfterSeconds(int32(ttl / time.Second)),
	}
	if _, err := col.Indexes().CreateOne(ctx, index); err != nil {
		return nil, err
	}
	return &IdempotencyStore{col: col, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	filter := bson.M{"_id": key, "stored_at": bson.M{"$gt": s.now().Add(-s.ttl)}}
	var doc replayDocument
	err := s.col.FindOne(ctx, filter).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return middleware.IdempotencyRecord{}, false, nil
	case err != nil:
		return middleware.IdempotencyRecord{}, false, err
	}
	return doc.record(), true, nil
}

// Save inserts rec unless a live record already holds the key.
func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	now := s.now()
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = now
	}
	doc := replayDocument{Key: rec.Key, Payload: rec.Payload, OccurredAt: rec.OccurredAt.UTC(), StoredAt: now}
	_, err := s.col.InsertOne(ctx, doc)
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}
	// A stale document the reaper missed is replaced; a live one wins.
	stale := bson.M{"_id": rec.Key, "stored_at": bson.M{"$lte": now.Add(-s.ttl)}}
	_, err = s.col.ReplaceOne(ctx, stale, doc)
	return err
}

type replayDocument struct {
	Key        string    `bson:"_id"`
	Payload    []byte    `bson:"payload"`
	OccurredAt time.Time `bson:"occurred_at"`
	StoredAt   time.Time `bson:"stored_at"`
}

func (d replayDocument) record() middleware.IdempotencyRecord {
	return middleware.IdempotencyRecord{Key: d.Key, Payload: d.Payload, OccurredAt: d.OccurredAt.UTC()}
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
