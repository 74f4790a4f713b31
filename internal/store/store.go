// Package store is the document-store collaborator: equality-filter CRUD over
// named collections. It carries no business rules.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
)

var (
	// ErrNotFound means the store answered and no document matched.
	// Any other error means the store could not answer.
	ErrNotFound = errors.New("store: document not found")

	ErrInvalidID = errors.New("store: invalid document id")

	// ErrDuplicate means an insert collided with a unique index.
	ErrDuplicate = errors.New("store: duplicate key")
)

// Filter is a flat equality filter: every key must equal its value.
type Filter map[string]any

// Page bounds a Find. A zero Limit returns every match.
type Page struct {
	Skip  int64
	Limit int64
}

// Collection is the capability set handlers need from a typed collection.
type Collection[T any] interface {
	FindOne(ctx context.Context, f Filter) (T, error)
	Find(ctx context.Context, f Filter, p Page) ([]T, error)
	Count(ctx context.Context, f Filter) (int64, error)
	Insert(ctx context.Context, doc T) (string, error)
	Update(ctx context.Context, f Filter, set any) error
	Delete(ctx context.Context, f Filter) error
	Upsert(ctx context.Context, f Filter, doc T) error
}

// ObjectID parses a hex document id.
func ObjectID(hex string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(hex)
	if err != nil {
		return bson.ObjectID{}, ErrInvalidID
	}
	return oid, nil
}

// ByID is a Filter on _id plus any extra equality constraints.
func ByID(hex string, extra Filter) (Filter, error) {
	oid, err := ObjectID(hex)
	if err != nil {
		return nil, err
	}
	f := Filter{"_id": oid}
	for k, v := range extra {
		f[k] = v
	}
	return f, nil
}

func idString(id any) string {
	switch v := id.(type) {
	case bson.ObjectID:
		return v.Hex()
	case string:
		return v
	default:
		return ""
	}
}
