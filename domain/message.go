// Package domain contains core concepts of the direct-messaging system.
// This file defines Message records and the payload rules they obey.
// Messages are immutable once persisted, except for the seen flag.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is a persisted direct message between two users.
// Seen moves from false to true exactly once.
type Message struct {
	ID          uuid.UUID
	SenderID    string
	RecipientID string
	Text        string
	Image       string
	Seen        bool
	CreatedAt   time.Time
}

// Payload returns the content part of the message.
func (m Message) Payload() Payload {
	return Payload{Text: m.Text, Image: m.Image}
}

// Between reports whether the message belongs to the conversation of a and b.
func (m Message) Between(a, b string) bool {
	return (m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a)
}
