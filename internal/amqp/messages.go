package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"homeledger/internal/core"
)

// messageVersion is bumped when the envelope layout changes.
const messageVersion = 1

// EventMessage is the envelope published for every ledger event. It carries
// identifiers only; consumers read current state from the database.
type EventMessage struct {
	Version   int        `json:"version"`
	Event     core.Event `json:"event"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewEventMessage wraps e in a versioned envelope.
func NewEventMessage(e core.Event) *EventMessage {
	return &EventMessage{
		Version:   messageVersion,
		Event:     e,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *EventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EventMessageFromJSON decodes and checks an envelope.
func EventMessageFromJSON(data []byte) (*EventMessage, error) {
	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Version != messageVersion {
		return nil, fmt.Errorf("unsupported message version %d", msg.Version)
	}
	if msg.Event.Kind == "" {
		return nil, errors.New("message has no event kind")
	}
	return &msg, nil
}
