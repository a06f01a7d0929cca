package myevents

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

type EventEnvelope struct {
	UID           string
	CreatedAt     time.Time
	Topic         string
	AggregateUID  string
	EventTypeName string
	EventPayload  string `datastore:",noindex"`
	Published     bool
}

func (e EventEnvelope) String() string {
	return e.Topic + "." + e.EventTypeName + "." + e.AggregateUID
}

type Event interface {
	GetEventTypeName() string
	GetAggregateName() string
}

// PushRequest is the body Pub/Sub posts to a push subscription endpoint.
type PushRequest struct {
	Message      PushMessage
	Subscription string
}

type PushMessage struct {
	Attributes map[string]string
	Data       []byte
	ID         string `json:"message_id"`
}

func ParseEventEnvelope(r io.Reader) (EventEnvelope, error) {
	msg := PushRequest{}
	err := json.NewDecoder(r).Decode(&msg)
	if err != nil {
		return EventEnvelope{}, fmt.Errorf("error parsing push-request: %w", err)
	}

	envelope := EventEnvelope{}
	err = json.Unmarshal(msg.Message.Data, &envelope)
	if err != nil {
		return EventEnvelope{}, fmt.Errorf("error parsing envelope: %w", err)
	}

	return envelope, nil
}

// ParsePayload decodes the event carried by an envelope into target.
func ParsePayload(envelope EventEnvelope, target any) error {
	err := json.Unmarshal([]byte(envelope.EventPayload), target)
	if err != nil {
		return fmt.Errorf("error parsing payload of %s: %w", envelope.String(), err)
	}
	return nil
}

// NewPushRequest wraps an envelope the way Pub/Sub does for push subscriptions.
func NewPushRequest(subscription string, envelope EventEnvelope) ([]byte, error) {
	envelopeBytes, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("error marshalling envelope: %w", err)
	}
	return json.Marshal(PushRequest{
		Message: PushMessage{
			Data: envelopeBytes,
			ID:   envelope.UID,
		},
		Subscription: subscription,
	})
}
