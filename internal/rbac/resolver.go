package rbac

import (
	"context"
	"errors"
	"fmt"

	"house-hunter/internal/store"
	"house-hunter/internal/users"
)

// ErrLookupUnavailable means the store could not answer; it is not "no role".
var ErrLookupUnavailable = errors.New("rbac: role lookup unavailable")

// UserFinder is the single store capability role resolution needs.
type UserFinder interface {
	FindOne(ctx context.Context, f store.Filter) (users.User, error)
}

// Resolver maps an email to capabilities. Nothing is cached; every call reads the store.
type Resolver struct {
	users UserFinder
}

func NewResolver(users UserFinder) *Resolver {
	return &Resolver{users: users}
}

// Capabilities returns the zero value for unknown emails.
func (r *Resolver) Capabilities(ctx context.Context, email string) (Capabilities, error) {
	u, err := r.users.FindOne(ctx, store.Filter{"email": email})
	if errors.Is(err, store.ErrNotFound) {
		return Capabilities{}, nil
	}
	if err != nil {
		return Capabilities{}, fmt.Errorf("%w: %w", ErrLookupUnavailable, err)
	}
	return CapabilitiesFor(u.Role), nil
}
