package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information. Callers treat it as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.ActorEmail == "" || e.Type == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LogOwnershipDenial records a caller acting on another identity's data.
func (s *Service) LogOwnershipDenial(ctx context.Context, actorEmail, targetEmail, method, route, ip string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeOwnershipDenied,
		ActorEmail:  actorEmail,
		TargetEmail: targetEmail,
		Method:      method,
		Route:       route,
		IPAddress:   ip,
		Message:     "ownership check failed",
	})
}

// LogTokenIssued records a successful issuance. Tokens themselves are never stored.
func (s *Service) LogTokenIssued(ctx context.Context, email, ip string) error {
	return s.Append(ctx, Event{
		Type:       EventTypeTokenIssued,
		ActorEmail: email,
		IPAddress:  ip,
	})
}
