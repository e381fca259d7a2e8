package service

import (
	"context"
)

// Auth event types published to the message queue.
const (
	AuthEventUserVerified = "user_verified"
	AuthEventLoggedOut    = "logged_out"
)

// AuthEvent represents an authentication lifecycle event consumed by
// downstream systems (analytics, CRM sync).
type AuthEvent struct {
	RequestID string `json:"request_id,omitempty"` // For distributed tracing
	Type      string `json:"type"`
	UserID    string `json:"user_id"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
	NewUser   bool   `json:"new_user,omitempty"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishAuthEvent publishes an auth event for async processing
	PublishAuthEvent(ctx context.Context, event *AuthEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
