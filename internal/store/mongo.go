package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names in the houseHunter database.
const (
	CollectionUsers    = "users"
	CollectionHouses   = "houses"
	CollectionBookings = "bookings"
	CollectionAudit    = "audit_events"

	// CollectionBookingQuotas holds one counter document per renter.
	CollectionBookingQuotas = "booking_quotas"
)

// Mongo is a Collection backed by a mongo collection handle.
// The handle is shared across requests; it is safe for concurrent use.
type Mongo[T any] struct {
	coll *mongo.Collection
}

func NewMongo[T any](db *mongo.Database, name string) *Mongo[T] {
	return &Mongo[T]{coll: db.Collection(name)}
}

var _ Collection[struct{}] = (*Mongo[struct{}])(nil)

func (m *Mongo[T]) FindOne(ctx context.Context, f Filter) (T, error) {
	var out T
	err := m.coll.FindOne(ctx, bson.M(f)).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return out, ErrNotFound
	}
	if err != nil {
		return out, fmt.Errorf("find one in %s: %w", m.coll.Name(), err)
	}
	return out, nil
}

func (m *Mongo[T]) Find(ctx context.Context, f Filter, p Page) ([]T, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	if p.Skip > 0 {
		opts.SetSkip(p.Skip)
	}
	if p.Limit > 0 {
		opts.SetLimit(p.Limit)
	}

	cur, err := m.coll.Find(ctx, bson.M(f), opts)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", m.coll.Name(), err)
	}
	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", m.coll.Name(), err)
	}
	return out, nil
}

func (m *Mongo[T]) Count(ctx context.Context, f Filter) (int64, error) {
	n, err := m.coll.CountDocuments(ctx, bson.M(f))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", m.coll.Name(), err)
	}
	return n, nil
}

func (m *Mongo[T]) Insert(ctx context.Context, doc T) (string, error) {
	res, err := m.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return "", fmt.Errorf("insert into %s: %w", m.coll.Name(), ErrDuplicate)
	}
	if err != nil {
		return "", fmt.Errorf("insert into %s: %w", m.coll.Name(), err)
	}
	return idString(res.InsertedID), nil
}

func (m *Mongo[T]) Update(ctx context.Context, f Filter, set any) error {
	res, err := m.coll.UpdateOne(ctx, bson.M(f), bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update %s: %w", m.coll.Name(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo[T]) Delete(ctx context.Context, f Filter) error {
	res, err := m.coll.DeleteOne(ctx, bson.M(f))
	if err != nil {
		return fmt.Errorf("delete from %s: %w", m.coll.Name(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo[T]) Upsert(ctx context.Context, f Filter, doc T) error {
	_, err := m.coll.ReplaceOne(ctx, bson.M(f), doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert %s: %w", m.coll.Name(), err)
	}
	return nil
}

// EnsureIndexes creates the indexes the handlers rely on. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(CollectionUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users.email index: %w", err)
	}

	// One booking per renter and house; Insert reports collisions as ErrDuplicate.
	_, err = db.Collection(CollectionBookings).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "renterEmail", Value: 1}, {Key: "houseId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("bookings.renterEmail_houseId index: %w", err)
	}

	for _, ix := range []struct{ coll, key string }{
		{CollectionHouses, "ownerEmail"},
		{CollectionBookings, "renterEmail"},
	} {
		if _, err := db.Collection(ix.coll).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: ix.key, Value: 1}},
		}); err != nil {
			return fmt.Errorf("%s.%s index: %w", ix.coll, ix.key, err)
		}
	}
	return nil
}
