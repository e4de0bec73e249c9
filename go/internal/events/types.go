// Package events publishes race workflow events to NATS JetStream.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcdev12/apexracer/go/internal/models"
)

const EventTypeRaceSubmitted = "submitted"

// Envelope is the message body written to the stream.
type Envelope struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	UserID    string          `json:"userId"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Subject returns the subject an event type is published on.
func Subject(prefix, eventType string) string {
	return fmt.Sprintf("%s.%s", prefix, eventType)
}

// NewRaceSubmittedEnvelope wraps a submission. The idempotency key doubles as
// the event id so the broker drops a republished submission.
func NewRaceSubmittedEnvelope(s models.RaceSubmission) (Envelope, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal race submission: %w", err)
	}
	return Envelope{
		EventID:   s.IdempotencyKey,
		EventType: EventTypeRaceSubmitted,
		UserID:    s.UserID,
		Timestamp: s.SubmittedAt,
		Payload:   payload,
	}, nil
}
