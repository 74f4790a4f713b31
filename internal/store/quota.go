package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ErrQuotaExceeded means the key already holds limit slots.
var ErrQuotaExceeded = errors.New("store: quota exceeded")

// Quota is an atomic per-key counter bounded by a limit.
// Acquire takes a slot or fails with ErrQuotaExceeded; Release gives one back.
type Quota interface {
	Acquire(ctx context.Context, key string, limit int64) error
	Release(ctx context.Context, key string) error
}

// MongoQuota keeps one {_id: key, count} document per key. The conditional
// $inc is a single-document write, so concurrent Acquires cannot overshoot.
type MongoQuota struct {
	coll *mongo.Collection
}

func NewMongoQuota(db *mongo.Database, name string) *MongoQuota {
	return &MongoQuota{coll: db.Collection(name)}
}

var _ Quota = (*MongoQuota)(nil)

func (q *MongoQuota) Acquire(ctx context.Context, key string, limit int64) error {
	filter := bson.M{"_id": key, "count": bson.M{"$lt": limit}}
	update := bson.M{"$inc": bson.M{"count": int64(1)}}

	// At the limit the filter misses and the upsert collides on _id.
	// A first collision can also be a concurrent first Acquire, so retry once
	// now that the document is known to exist.
	for range 2 {
		_, err := q.coll.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
		if err == nil {
			return nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("acquire %s in %s: %w", key, q.coll.Name(), err)
		}
	}
	return ErrQuotaExceeded
}

func (q *MongoQuota) Release(ctx context.Context, key string) error {
	_, err := q.coll.UpdateOne(ctx,
		bson.M{"_id": key, "count": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"count": int64(-1)}},
	)
	if err != nil {
		return fmt.Errorf("release %s in %s: %w", key, q.coll.Name(), err)
	}
	return nil
}

// MemoryQuota is the in-process Quota for tests and local runs.
type MemoryQuota struct {
	mu     sync.Mutex
	counts map[string]int64

	// Err, when set, is returned by every operation.
	Err error
}

func NewMemoryQuota() *MemoryQuota {
	return &MemoryQuota{counts: make(map[string]int64)}
}

var _ Quota = (*MemoryQuota)(nil)

func (q *MemoryQuota) Acquire(ctx context.Context, key string, limit int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Err != nil {
		return q.Err
	}
	if q.counts[key] >= limit {
		return ErrQuotaExceeded
	}
	q.counts[key]++
	return nil
}

func (q *MemoryQuota) Release(ctx context.Context, key string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Err != nil {
		return q.Err
	}
	if q.counts[key] > 0 {
		q.counts[key]--
	}
	return nil
}

// Count reports the slots currently held by key.
func (q *MemoryQuota) Count(key string) int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.counts[key]
}
