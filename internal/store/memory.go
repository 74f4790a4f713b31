package store

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Memory is an in-process Collection useful for tests and local runs.
// Documents round-trip through bson, so filters use the same field names as mongo.
// It records every filter it receives.
type Memory[T any] struct {
	mu      sync.Mutex
	docs    []bson.M
	filters []Filter
	unique  [][]string

	// Err, when set, is returned by every operation.
	Err error
}

func NewMemory[T any]() *Memory[T] { return &Memory[T]{} }

var _ Collection[struct{}] = (*Memory[struct{}])(nil)

// WithUnique mirrors a unique compound index: Insert fails with ErrDuplicate
// when another document holds the same values for all fields.
func (m *Memory[T]) WithUnique(fields ...string) *Memory[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unique = append(m.unique, fields)
	return m
}

// Filters returns a copy of every filter passed to the collection, in call order.
func (m *Memory[T]) Filters() []Filter {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Filter, len(m.filters))
	copy(out, m.filters)
	return out
}

// Calls is the number of operations attempted against the collection.
func (m *Memory[T]) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.filters)
}

func (m *Memory[T]) FindOne(ctx context.Context, f Filter) (T, error) {
	var out T
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, f)
	if m.Err != nil {
		return out, m.Err
	}
	for _, d := range m.docs {
		if matches(d, f) {
			return decode[T](d)
		}
	}
	return out, ErrNotFound
}

func (m *Memory[T]) Find(ctx context.Context, f Filter, p Page) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, f)
	if m.Err != nil {
		return nil, m.Err
	}

	out := make([]T, 0)
	var skipped int64
	// Newest first, like the mongo implementation's _id sort.
	for i := len(m.docs) - 1; i >= 0; i-- {
		d := m.docs[i]
		if !matches(d, f) {
			continue
		}
		if skipped < p.Skip {
			skipped++
			continue
		}
		if p.Limit > 0 && int64(len(out)) >= p.Limit {
			break
		}
		v, err := decode[T](d)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *Memory[T]) Count(ctx context.Context, f Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, f)
	if m.Err != nil {
		return 0, m.Err
	}
	var n int64
	for _, d := range m.docs {
		if matches(d, f) {
			n++
		}
	}
	return n, nil
}

func (m *Memory[T]) Insert(ctx context.Context, doc T) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, nil)
	if m.Err != nil {
		return "", m.Err
	}
	d, err := encode(doc)
	if err != nil {
		return "", err
	}
	if m.collides(d) {
		return "", ErrDuplicate
	}
	if isZeroID(d["_id"]) {
		d["_id"] = bson.NewObjectID()
	}
	m.docs = append(m.docs, d)
	return idString(d["_id"]), nil
}

func (m *Memory[T]) Update(ctx context.Context, f Filter, set any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, f)
	if m.Err != nil {
		return m.Err
	}
	fields, err := encode(set)
	if err != nil {
		return err
	}
	for _, d := range m.docs {
		if matches(d, f) {
			for k, v := range fields {
				d[k] = v
			}
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory[T]) Delete(ctx context.Context, f Filter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, f)
	if m.Err != nil {
		return m.Err
	}
	for i, d := range m.docs {
		if matches(d, f) {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory[T]) Upsert(ctx context.Context, f Filter, doc T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, f)
	if m.Err != nil {
		return m.Err
	}
	d, err := encode(doc)
	if err != nil {
		return err
	}
	for i, existing := range m.docs {
		if matches(existing, f) {
			d["_id"] = existing["_id"]
			m.docs[i] = d
			return nil
		}
	}
	if isZeroID(d["_id"]) {
		d["_id"] = bson.NewObjectID()
	}
	m.docs = append(m.docs, d)
	return nil
}

func (m *Memory[T]) collides(d bson.M) bool {
	for _, fields := range m.unique {
		f := make(Filter, len(fields))
		for _, k := range fields {
			f[k] = d[k]
		}
		for _, existing := range m.docs {
			if matches(existing, f) {
				return true
			}
		}
	}
	return false
}

func matches(d bson.M, f Filter) bool {
	for k, want := range f {
		if !reflect.DeepEqual(d[k], want) {
			return false
		}
	}
	return true
}

func encode(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var d bson.M
	if err := bson.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return d, nil
}

func decode[T any](d bson.M) (T, error) {
	var out T
	raw, err := bson.Marshal(d)
	if err != nil {
		return out, fmt.Errorf("decode document: %w", err)
	}
	if err := bson.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}

func isZeroID(v any) bool {
	switch id := v.(type) {
	case nil:
		return true
	case bson.ObjectID:
		return id.IsZero()
	case string:
		return id == ""
	default:
		return false
	}
}
