package journal

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

/*
MongoDB Schema:

Collection: dispatch_journal

Document structure:
{
    "_id": ObjectId,
    "event_id": string,
    "event_type": string,
    "candidates": int,
    "invoked": int,
    "skipped": int,
    "deferred": bool,
    "failures": [{"listener_id": string, "stage": string, "error": string}],
    "recorded_at": ISODate
}

Indexes:
db.dispatch_journal.createIndex({"event_id": 1})
db.dispatch_journal.createIndex({"event_type": 1})
db.dispatch_journal.createIndex({"recorded_at": -1})
*/

// DefaultMongoCollection is the collection name used when none is given.
const DefaultMongoCollection = "dispatch_journal"

// Mongo stores journal entries as MongoDB documents, one per dispatch.
type Mongo struct {
	collection *mongo.Collection
}

// NewMongo creates a MongoDB-backed journal. collection may be empty to
// use DefaultMongoCollection.
func NewMongo(db *mongo.Database, collection string) *Mongo {
	if collection == "" {
		collection = DefaultMongoCollection
	}
	return &Mongo{collection: db.Collection(collection)}
}

// Append inserts one entry document.
func (m *Mongo) Append(ctx context.Context, e *Entry) error {
	if _, err := m.collection.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("journal append: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first.
func (m *Mongo) List(ctx context.Context, limit int64) ([]*Entry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "recorded_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	cursor, err := m.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("journal list: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*Entry
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("journal decode: %w", err)
	}
	return out, nil
}

// Count returns the number of stored entries.
func (m *Mongo) Count(ctx context.Context) (int64, error) {
	return m.collection.CountDocuments(ctx, bson.D{})
}

// Clear removes all entries.
func (m *Mongo) Clear(ctx context.Context) error {
	_, err := m.collection.DeleteMany(ctx, bson.D{})
	return err
}

// Compile-time check
var _ Store = (*Mongo)(nil)
