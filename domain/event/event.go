// Package event defines what the runtime pushes to delivery channels and permanent sinks.
package event

import (
	"chat-relay/domain"
	"time"

	"github.com/google/uuid"
)

type DomainEvent interface {
	Name() string
	OccurredAt() time.Time
}

const (
	PresenceChangedName  = "presence_changed"
	MessageReceivedName  = "message_received"
	MessagePersistedName = "message_persisted"
	DeliveryAttemptName  = "delivery_attempt"
)

// PresenceChanged carries the set of online users at broadcast time.
type PresenceChanged struct {
	Online []string
	At     time.Time
}

func (PresenceChanged) Name() string            { return PresenceChangedName }
func (e PresenceChanged) OccurredAt() time.Time { return e.At }

// MessageReceived is pushed to the recipient's live channel only.
type MessageReceived struct {
	Message domain.Message
}

func (MessageReceived) Name() string            { return MessageReceivedName }
func (e MessageReceived) OccurredAt() time.Time { return e.Message.CreatedAt }

// MessagePersisted is emitted once the store accepted a message.
type MessagePersisted struct {
	Message domain.Message
}

func (MessagePersisted) Name() string            { return MessagePersistedName }
func (e MessagePersisted) OccurredAt() time.Time { return e.Message.CreatedAt }

type DeliveryResult string

const (
	Delivered DeliveryResult = "delivered"
	Offline   DeliveryResult = "offline"
	Dropped   DeliveryResult = "dropped"
)

// DeliveryAttempt records the outcome of a live push. It never reaches the sender.
type DeliveryAttempt struct {
	MessageID   uuid.UUID
	RecipientID string
	Result      DeliveryResult
	At          time.Time
}

func (DeliveryAttempt) Name() string            { return DeliveryAttemptName }
func (e DeliveryAttempt) OccurredAt() time.Time { return e.At }
