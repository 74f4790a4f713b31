package audit

import (
	"context"

	"house-hunter/internal/store"
)

// StoreRepo appends events to a document-store collection.
type StoreRepo struct {
	coll store.Collection[Event]
}

func NewStoreRepo(coll store.Collection[Event]) *StoreRepo {
	return &StoreRepo{coll: coll}
}

func (r *StoreRepo) Append(ctx context.Context, e Event) error {
	_, err := r.coll.Insert(ctx, e)
	return err
}
