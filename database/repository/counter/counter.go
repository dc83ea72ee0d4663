package counterRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CounterRepository hands out strictly increasing sequence values.
type CounterRepository interface {
	// Next atomically increments the named sequence and returns the new value.
	Next(ctx context.Context, name string) (int64, error)
}

type mongoCounterRepo struct {
	coll *mongo.Collection
}

// NewMongoCounterRepo returns a CounterRepository over the counters collection.
func NewMongoCounterRepo(db *mongo.Database) CounterRepository {
	return &mongoCounterRepo{coll: db.Collection("counters")}
}

type counterDoc struct {
	Name string `bson:"_id"`
	Seq  int64  `bson:"seq"`
}

// Next runs a single $inc with upsert and returns the post-image, so the
// increment and the read cannot be separated by another writer.
func (r *mongoCounterRepo) Next(ctx context.Context, name string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"_id": name}
	update := bson.M{"$inc": bson.M{"seq": 1}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc counterDoc
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		// Two upserts raced on a counter that did not exist yet; the loser
		// retries against the document the winner inserted.
		err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %s: %w", name, err)
	}
	return doc.Seq, nil
}
