// Package events publishes notification events to interested consumers.
package events

import (
	"context"       // Cancellation
	"encoding/json" // Message encoding
	"time"          // Timestamps
)

// Event types
const (
	TypeBudgetExceeded = "budget.exceeded"
	TypeNotification   = "notification.created"
)

// Event is a lightweight message describing a stored notification
type Event struct {
	Type           string    `json:"type"`
	UserID         string    `json:"user_id"`
	NotificationID string    `json:"notification_id"`
	Message        string    `json:"message"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// NewEvent builds an event stamped with the current time
func NewEvent(eventType, userID, notificationID, message string) Event {
	return Event{
		Type:           eventType,
		UserID:         userID,
		NotificationID: notificationID,
		Message:        message,
		OccurredAt:     time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON decodes an event from JSON bytes
func FromJSON(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}

// Publisher delivers events
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Noop drops every event; used when no broker is configured
type Noop struct{}

// Publish implements Publisher
func (Noop) Publish(context.Context, Event) error { return nil }

// Close implements Publisher
func (Noop) Close() error { return nil }
