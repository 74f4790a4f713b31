package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - actor and ip capture are best-effort; audit failures never change a response.
type Event struct {
	ID   string    `json:"id" bson:"_id"`
	Type EventType `json:"type" bson:"type"`

	// ActorEmail is the verified token email.
	ActorEmail string `json:"actor_email" bson:"actorEmail"`
	// TargetEmail is the email the request tried to act on.
	TargetEmail string `json:"target_email,omitempty" bson:"targetEmail,omitempty"`

	Method    string `json:"method,omitempty" bson:"method,omitempty"`
	Route     string `json:"route,omitempty" bson:"route,omitempty"`
	IPAddress string `json:"ip_address,omitempty" bson:"ipAddress,omitempty"`

	Message string `json:"message,omitempty" bson:"message,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"createdAt"`
}

type EventType string

const (
	EventTypeOwnershipDenied EventType = "ownership_denied"
	EventTypeTokenIssued     EventType = "token_issued"
)
